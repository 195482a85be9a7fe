package lsp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ID
	}{
		{"numeric", `42`, ID{Num: 42}},
		{"zero", `0`, ID{Num: 0}},
		{"string", `"abc-1"`, ID{Str: "abc-1", IsStr: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &id))
			assert.Equal(t, tt.want, id)

			out, err := json.Marshal(id)
			require.NoError(t, err)
			assert.JSONEq(t, tt.raw, string(out))
		})
	}
}

func TestIDInvalid(t *testing.T) {
	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{"nested":true}`), &id))
}

func TestMessageClassification(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		isResponse     bool
		isServerReq    bool
		isNotification bool
	}{
		{
			name:       "response with result",
			raw:        `{"jsonrpc":"2.0","id":3,"result":{"ok":true}}`,
			isResponse: true,
		},
		{
			name:       "response with error",
			raw:        `{"jsonrpc":"2.0","id":4,"error":{"code":-32601,"message":"nope"}}`,
			isResponse: true,
		},
		{
			name:        "server request",
			raw:         `{"jsonrpc":"2.0","id":"cfg-1","method":"workspace/configuration","params":{"items":[]}}`,
			isServerReq: true,
		},
		{
			name:           "notification",
			raw:            `{"jsonrpc":"2.0","method":"textDocument/publishDiagnostics","params":{}}`,
			isNotification: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var msg Message
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &msg))

			assert.Equal(t, tt.isResponse, msg.IsResponse())
			assert.Equal(t, tt.isServerReq, msg.IsServerRequest())
			assert.Equal(t, tt.isNotification, msg.IsNotification())
		})
	}
}

func TestNewRequestOmitsEmptyParams(t *testing.T) {
	msg, err := newRequest(1, "shutdown", nil)
	require.NoError(t, err)

	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	assert.NotContains(t, string(raw), "params")
	assert.NotContains(t, string(raw), "result")
}

func TestNewErrorResponsePreservesID(t *testing.T) {
	id := ID{Str: "srv-9", IsStr: true}
	msg := newErrorResponse(id, CodeMethodNotFound, "unsupported")

	raw, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"jsonrpc":"2.0","id":"srv-9","error":{"code":-32601,"message":"unsupported"}}`,
		string(raw))
}
