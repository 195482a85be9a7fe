package lsp

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a JSON-RPC request identifier. Outgoing requests always use numeric
// IDs assigned by the client, but pyright may use string IDs for its own
// server-to-client requests, so both forms are preserved on the wire.
type ID struct {
	Num   int64
	Str   string
	IsStr bool
}

// NumberID returns a numeric request ID.
func NumberID(n int64) ID {
	return ID{Num: n}
}

func (id ID) String() string {
	if id.IsStr {
		return strconv.Quote(id.Str)
	}
	return strconv.FormatInt(id.Num, 10)
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsStr {
		return json.Marshal(id.Str)
	}
	return json.Marshal(id.Num)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var num int64
	if err := json.Unmarshal(data, &num); err == nil {
		*id = ID{Num: num}
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*id = ID{Str: str, IsStr: true}
		return nil
	}

	return fmt.Errorf("invalid request id: %s", string(data))
}

// Message is the JSON-RPC 2.0 envelope exchanged with the language server.
// Exactly one of the three shapes is valid: a request carries Method and ID,
// a notification carries Method without ID, and a response carries ID with
// either Result or Error.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *ID             `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ResponseError  `json:"error,omitempty"`
}

// ResponseError is the error object of a JSON-RPC response.
type ResponseError struct {
	Code    int64           `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// IsResponse reports whether the message is a response to one of our requests.
func (m *Message) IsResponse() bool {
	return m.ID != nil && m.Method == ""
}

// IsServerRequest reports whether the message is a request initiated by the
// language server (e.g. workspace/configuration) that expects a reply.
func (m *Message) IsServerRequest() bool {
	return m.ID != nil && m.Method != ""
}

// IsNotification reports whether the message is an unsolicited notification.
func (m *Message) IsNotification() bool {
	return m.ID == nil && m.Method != ""
}

// newRequest builds an outgoing request message.
func newRequest(id int64, method string, params any) (*Message, error) {
	msg := &Message{
		JSONRPC: "2.0",
		ID:      &ID{Num: id},
		Method:  method,
	}

	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params for %s: %w", method, err)
		}
		msg.Params = raw
	}

	return msg, nil
}

// newNotification builds an outgoing notification message.
func newNotification(method string, params any) (*Message, error) {
	msg := &Message{
		JSONRPC: "2.0",
		Method:  method,
	}

	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal params for %s: %w", method, err)
		}
		msg.Params = raw
	}

	return msg, nil
}

// newResponse builds a reply to a server-initiated request.
func newResponse(id ID, result any) (*Message, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response result: %w", err)
	}

	return &Message{JSONRPC: "2.0", ID: &id, Result: raw}, nil
}

// newErrorResponse builds an error reply to a server-initiated request.
func newErrorResponse(id ID, code int64, message string) *Message {
	return &Message{
		JSONRPC: "2.0",
		ID:      &id,
		Error:   &ResponseError{Code: code, Message: message},
	}
}
