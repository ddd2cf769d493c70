package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"remotesync/internal/session"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCode(err))
	}
}

// exitCode separates setup failures from failures raised by shared objects
// so scripts can tell "could not attach" from "queue was empty".
func exitCode(err error) int {
	switch session.Classify(err) {
	case session.KindConfiguration:
		return 2
	case session.KindDescriptorIO, session.KindConnection:
		return 3
	case session.KindRemote:
		return 4
	default:
		return 1
	}
}
