package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// parseValue reads a command-line value as JSON, falling back to a plain
// string so `queue put jobs build` works without quoting.
func parseValue(arg string) json.RawMessage {
	trimmed := strings.TrimSpace(arg)
	if trimmed != "" && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	encoded, _ := json.Marshal(arg)
	return encoded
}

func printValue(out io.Writer, value json.RawMessage) {
	if len(value) == 0 {
		value = json.RawMessage("null")
	}
	fmt.Fprintln(out, string(value))
}
