package lsp

import (
	"errors"
	"fmt"
)

// JSON-RPC error codes surfaced by pyright that callers may want to match on.
const (
	CodeMethodNotFound  = -32601
	CodeContentModified = -32801
)

// ErrStreamClosed is returned by the framer when the language server's output
// stream ends. It is terminal: no further messages can be read.
var ErrStreamClosed = errors.New("lsp: stream closed")

// StartupError indicates the pyright process could not be launched or the
// initialize handshake did not complete within the startup timeout.
type StartupError struct {
	Command string
	Err     error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("lsp: failed to start %q: %v", e.Command, e.Err)
}

func (e *StartupError) Unwrap() error { return e.Err }

// FramingError indicates a single malformed message on the wire. The read
// loop logs it and continues with the next message.
type FramingError struct {
	Reason string
	Err    error
}

func (e *FramingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lsp: framing error: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("lsp: framing error: %s", e.Reason)
}

func (e *FramingError) Unwrap() error { return e.Err }

// TimeoutError indicates no response arrived within the per-call timeout.
// The pending entry is discarded; a late response is silently ignored.
type TimeoutError struct {
	Method  string
	Timeout string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("lsp: request %s timed out after %s", e.Method, e.Timeout)
}

// ProcessTerminatedError indicates the pyright process exited (or its pipe
// closed) while the request was still pending. Every in-flight call observes
// this error when the process dies.
type ProcessTerminatedError struct {
	Method string
}

func (e *ProcessTerminatedError) Error() string {
	if e.Method == "" {
		return "lsp: process terminated"
	}
	return fmt.Sprintf("lsp: process terminated while %s was pending", e.Method)
}

// RemoteError is a protocol-level error object returned by pyright in a
// response. It is surfaced to the caller verbatim and never retried. This
// includes "content modified" (-32801) responses, which pyright emits as
// transient noise during rapid edits.
type RemoteError struct {
	Code    int64
	Message string
	Data    []byte
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("lsp: server error %d: %s", e.Code, e.Message)
}
