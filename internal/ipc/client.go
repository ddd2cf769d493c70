package ipc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"remotesync/internal/primitive"
)

// DefaultDialTimeout bounds connection setup when the caller passes zero.
const DefaultDialTimeout = 5 * time.Second

// Client is an authenticated connection to a broker server. It is safe for
// concurrent use; calls are multiplexed on one connection.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to addr and completes the key handshake before returning.
func Dial(ctx context.Context, addr string, key []byte, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if err := clientHandshake(conn, key, timeout); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Client{conn: conn, client: rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Hello returns the host's session id and served names.
func (c *Client) Hello() (*HelloResponse, error) {
	var resp HelloResponse
	if err := c.client.Call(serviceName+".Hello", HelloRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Resolve fetches the kind and exposure of a served name.
func (c *Client) Resolve(name string) (*ResolveResponse, error) {
	var resp ResolveResponse
	if err := c.client.Call(serviceName+".Resolve", ResolveRequest{Name: name}, &resp); err != nil {
		return nil, err
	}
	if err := fromRemoteError(name, "resolve", resp.Error); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Call invokes op on object and decodes the result into reply when reply is
// non-nil. Host-side failures come back as *RemoteOperationError.
func (c *Client) Call(object, op string, args primitive.Args, reply any) error {
	req := CallRequest{Object: object, Op: op, Args: args}
	var resp CallResponse
	if err := c.client.Call(serviceName+".Invoke", req, &resp); err != nil {
		return fmt.Errorf("%s.%s: %w", object, op, err)
	}
	if err := fromRemoteError(object, op, resp.Error); err != nil {
		return err
	}
	if reply == nil || len(resp.Result) == 0 {
		return nil
	}
	if raw, ok := reply.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], resp.Result...)
		return nil
	}
	if err := json.Unmarshal(resp.Result, reply); err != nil {
		return fmt.Errorf("%s.%s: decode result: %w", object, op, err)
	}
	return nil
}
