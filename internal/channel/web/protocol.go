package web

import (
	"encoding/json"

	"github.com/soyeahso/cargoquote/internal/domain"
)

// Frame types on the chat socket.
const (
	FrameTypeRequest  = "req"
	FrameTypeResponse = "res"
	FrameTypeEvent    = "event"
)

// Request methods a browser may call.
const (
	MethodConnect = "connect"
	MethodMessage = "message"
	MethodSelect  = "select"
)

// EventMessage carries a bot reply to the browser.
const EventMessage = "message"

// Frame is the envelope for every message on the socket. Type selects
// which of the other fields are meaningful.
type Frame struct {
	Type string `json:"type"`

	// Request fields
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`

	// Response fields
	OK      *bool           `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *ErrorShape     `json:"error,omitempty"`

	// Event fields
	Event string `json:"event,omitempty"`
	Seq   int64  `json:"seq,omitempty"`
}

// ErrorShape is the error body of a failed response.
type ErrorShape struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ConnectParams open a chat. VisitorID is echoed back from an earlier hello
// so that a reloaded page keeps its conversation.
type ConnectParams struct {
	VisitorID string `json:"visitorId,omitempty"`
	Name      string `json:"name,omitempty"`
}

// Hello is the payload of a successful connect.
type Hello struct {
	VisitorID string `json:"visitorId"`
	ConnID    string `json:"connId"`
	Version   string `json:"version"`
}

// MessageParams is typed text.
type MessageParams struct {
	Text string `json:"text"`
}

// SelectParams is a pressed button. MessageID names the bot message that
// carried it.
type SelectParams struct {
	Token     string `json:"token"`
	MessageID string `json:"messageId,omitempty"`
}

// Reply is the payload of an EventMessage.
type Reply struct {
	MessageID string            `json:"messageId"`
	Body      string            `json:"body"`
	HTML      bool              `json:"html,omitempty"`
	Buttons   [][]domain.Button `json:"buttons,omitempty"`
	TextInput bool              `json:"textInput,omitempty"`
	// Edit names an earlier message the browser should replace.
	Edit string `json:"edit,omitempty"`
}

// NewRequest creates a request frame.
func NewRequest(id, method string, params any) (Frame, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: FrameTypeRequest, ID: id, Method: method, Params: raw}, nil
}

// NewResponse creates a success response frame.
func NewResponse(id string, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	ok := true
	return Frame{Type: FrameTypeResponse, ID: id, OK: &ok, Payload: raw}, nil
}

// NewErrorResponse creates an error response frame.
func NewErrorResponse(id, code, message string) Frame {
	ok := false
	return Frame{
		Type:  FrameTypeResponse,
		ID:    id,
		OK:    &ok,
		Error: &ErrorShape{Code: code, Message: message},
	}
}

// NewEvent creates an event frame.
func NewEvent(event string, payload any, seq int64) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: FrameTypeEvent, Event: event, Payload: raw, Seq: seq}, nil
}
