package ipc

import (
	"bytes"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

const (
	challengePrefix = "#CHALLENGE#"
	welcomeMessage  = "#WELCOME#"
	failureMessage  = "#FAILURE#"
	nonceSize       = 32
	maxFrameSize    = 1024
)

// serverHandshake challenges the client first, then answers the client's
// challenge. Both sides prove knowledge of key without sending it.
func serverHandshake(conn net.Conn, key []byte, timeout time.Duration) error {
	return withDeadline(conn, timeout, func() error {
		if err := deliverChallenge(conn, key); err != nil {
			return err
		}
		return answerChallenge(conn, key)
	})
}

func clientHandshake(conn net.Conn, key []byte, timeout time.Duration) error {
	return withDeadline(conn, timeout, func() error {
		if err := answerChallenge(conn, key); err != nil {
			return err
		}
		return deliverChallenge(conn, key)
	})
}

func withDeadline(conn net.Conn, timeout time.Duration, fn func() error) error {
	if timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
			return fmt.Errorf("set handshake deadline: %w", err)
		}
		defer func() { _ = conn.SetDeadline(time.Time{}) }()
	}
	return fn()
}

func deliverChallenge(rw io.ReadWriter, key []byte) error {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate challenge: %w", err)
	}
	challenge := append([]byte(challengePrefix), nonce...)
	if err := writeFrame(rw, challenge); err != nil {
		return err
	}
	response, err := readFrame(rw)
	if err != nil {
		return err
	}
	if !hmac.Equal(response, digest(key, challenge)) {
		_ = writeFrame(rw, []byte(failureMessage))
		return ErrAuthFailed
	}
	return writeFrame(rw, []byte(welcomeMessage))
}

func answerChallenge(rw io.ReadWriter, key []byte) error {
	challenge, err := readFrame(rw)
	if err != nil {
		return err
	}
	if !bytes.HasPrefix(challenge, []byte(challengePrefix)) {
		return fmt.Errorf("%w: malformed challenge", ErrAuthFailed)
	}
	if err := writeFrame(rw, digest(key, challenge)); err != nil {
		return err
	}
	verdict, err := readFrame(rw)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ErrAuthFailed
		}
		return err
	}
	if string(verdict) != welcomeMessage {
		return ErrAuthFailed
	}
	return nil
}

func digest(key, message []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return mac.Sum(nil)
}

func writeFrame(w io.Writer, payload []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(append(header[:], payload...)); err != nil {
		return fmt.Errorf("write handshake frame: %w", err)
	}
	return nil
}

func readFrame(r io.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read handshake frame: %w", err)
	}
	size := binary.BigEndian.Uint32(header[:])
	if size > maxFrameSize {
		return nil, fmt.Errorf("%w: handshake frame of %d bytes", ErrAuthFailed, size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read handshake frame: %w", err)
	}
	return payload, nil
}
