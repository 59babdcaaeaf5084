package sse

import (
	"fmt"
	"io"
)

// WriteComment writes an SSE comment line (": <text>" followed by a blank
// line). Comments are ignored by conforming clients and are used as
// keep-alive markers to hold idle connections open through intermediaries.
func WriteComment(w io.Writer, text string) error {
	_, err := fmt.Fprintf(w, ": %s\n\n", text)
	return err
}

// WriteEvent writes a named SSE event frame: an "event:" line, a "data:"
// line carrying the payload, and the terminating blank line. The payload
// must not contain newlines (callers pass compact JSON).
func WriteEvent(w io.Writer, name string, data []byte) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
