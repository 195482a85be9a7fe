package lsp

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterFramesMessage(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	msg, err := newRequest(7, "textDocument/hover", map[string]any{"line": 3})
	require.NoError(t, err)
	require.NoError(t, w.WriteMessage(msg))

	out := buf.String()
	header, body, found := strings.Cut(out, "\r\n\r\n")
	require.True(t, found, "frame must contain header/body separator")

	assert.Equal(t, "Content-Length: "+strconv.Itoa(len(body)), header)

	var decoded Message
	require.NoError(t, json.Unmarshal([]byte(body), &decoded))
	assert.Equal(t, "2.0", decoded.JSONRPC)
	assert.Equal(t, "textDocument/hover", decoded.Method)
	require.NotNil(t, decoded.ID)
	assert.Equal(t, int64(7), decoded.ID.Num)
}

func TestReaderRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)

	first, err := newRequest(1, "initialize", nil)
	require.NoError(t, err)
	second, err := newNotification("initialized", map[string]any{})
	require.NoError(t, err)

	require.NoError(t, w.WriteMessage(first))
	require.NoError(t, w.WriteMessage(second))

	r := NewReader(&buf)

	got, err := r.Next()
	require.NoError(t, err)
	assert.True(t, got.IsServerRequest())
	assert.Equal(t, "initialize", got.Method)

	got, err = r.Next()
	require.NoError(t, err)
	assert.True(t, got.IsNotification())
	assert.Equal(t, "initialized", got.Method)
}

func TestReaderIgnoresExtraHeaders(t *testing.T) {
	body := `{"jsonrpc":"2.0","method":"exit"}`
	frame := "Content-Type: application/vscode-jsonrpc; charset=utf-8\r\n" +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body

	r := NewReader(strings.NewReader(frame))

	msg, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "exit", msg.Method)
}

func TestReaderMissingContentLength(t *testing.T) {
	body := `{"jsonrpc":"2.0","method":"later"}`
	input := "Content-Type: application/vscode-jsonrpc\r\n\r\n" +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body

	r := NewReader(strings.NewReader(input))

	_, err := r.Next()
	var fe *FramingError
	require.ErrorAs(t, err, &fe)

	// The stream stays usable after a framing error.
	msg, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "later", msg.Method)
}

func TestReaderInvalidContentLength(t *testing.T) {
	r := NewReader(strings.NewReader("Content-Length: banana\r\n\r\n"))

	_, err := r.Next()
	var fe *FramingError
	require.ErrorAs(t, err, &fe)
}

func TestReaderInvalidBody(t *testing.T) {
	body := "this is not json!"
	follow := `{"jsonrpc":"2.0","method":"ok"}`
	input := "Content-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n" + body +
		"Content-Length: " + strconv.Itoa(len(follow)) + "\r\n\r\n" + follow

	r := NewReader(strings.NewReader(input))

	_, err := r.Next()
	var fe *FramingError
	require.ErrorAs(t, err, &fe)

	msg, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "ok", msg.Method)
}

func TestReaderStreamClosed(t *testing.T) {
	r := NewReader(strings.NewReader(""))

	_, err := r.Next()
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestReaderTruncatedBody(t *testing.T) {
	input := "Content-Length: 100\r\n\r\n{\"jsonrpc\":"
	r := NewReader(strings.NewReader(input))

	_, err := r.Next()
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestReaderLargeBody(t *testing.T) {
	payload := strings.Repeat("x", 1<<20)
	msg, err := newRequest(1, "test/large", map[string]string{"data": payload})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteMessage(msg))

	r := NewReader(&buf)
	got, err := r.Next()
	require.NoError(t, err)

	var params map[string]string
	require.NoError(t, json.Unmarshal(got.Params, &params))
	assert.Len(t, params["data"], len(payload))
}

