package lsp

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// The base protocol frames each message as one or more header lines, a blank
// line, then exactly Content-Length bytes of UTF-8 JSON:
//
//	Content-Length: 123\r\n
//	\r\n
//	{"jsonrpc":"2.0",...}

const contentLengthHeader = "Content-Length:"

// Writer serializes messages into the base-protocol framing. Callers must
// serialize access themselves; the Client holds a write mutex for this.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer framing messages onto w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteMessage encodes msg and writes one complete frame. The declared
// Content-Length always matches the body exactly.
func (w *Writer) WriteMessage(msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	header := fmt.Sprintf("%s %d\r\n\r\n", contentLengthHeader, len(body))
	if _, err := w.w.Write([]byte(header)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	if _, err := w.w.Write(body); err != nil {
		return fmt.Errorf("failed to write body: %w", err)
	}

	return nil
}

// Reader incrementally decodes framed messages from a byte stream. It owns
// the stream position and is not restartable; exactly one goroutine (the
// client's read loop) may call Next.
type Reader struct {
	br *bufio.Reader
}

// NewReader returns a Reader decoding frames from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// Next blocks until one complete message has been read and returns it.
//
// A malformed header block or a body that is not valid JSON yields a
// *FramingError; the stream remains usable and the next call resumes at the
// following frame. If the underlying stream ends, Next returns
// ErrStreamClosed, which is terminal.
func (r *Reader) Next() (*Message, error) {
	contentLength := -1

	for {
		line, err := r.br.ReadString('\n')
		if err != nil {
			// EOF mid-header (including between messages) means the
			// process went away.
			return nil, ErrStreamClosed
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}

		if strings.HasPrefix(line, contentLengthHeader) {
			value := strings.TrimSpace(strings.TrimPrefix(line, contentLengthHeader))
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				// Drain the rest of the header block so the next call
				// starts at the body boundary of the broken frame.
				r.skipHeaderBlock()
				return nil, &FramingError{Reason: fmt.Sprintf("invalid Content-Length %q", value), Err: err}
			}
			contentLength = n
		}
		// Other headers (Content-Type) carry no information we need.
	}

	if contentLength < 0 {
		return nil, &FramingError{Reason: "missing Content-Length header"}
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(r.br, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrStreamClosed
		}
		return nil, ErrStreamClosed
	}

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, &FramingError{Reason: "message body is not valid JSON", Err: err}
	}

	return &msg, nil
}

// skipHeaderBlock consumes lines up to and including the blank separator.
func (r *Reader) skipHeaderBlock() {
	for {
		line, err := r.br.ReadString('\n')
		if err != nil {
			return
		}
		if strings.TrimRight(line, "\r\n") == "" {
			return
		}
	}
}
