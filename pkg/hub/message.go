// Package hub fans dashboard updates out to websocket clients.
// Each hub owns one topic (status reports, log entries or camera frames)
// and drops clients that cannot keep up.
package hub

import (
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
)

// Kind selects the websocket frame type a message is written with.
type Kind int

const (
	// Text carries a JSON document: a frame report or a log entry.
	Text Kind = iota
	// Binary carries an annotated JPEG frame.
	Binary
)

// Message is one queued websocket write.
type Message struct {
	Kind Kind
	Data []byte
}

// NewJSONMessage wraps pre-encoded JSON.
func NewJSONMessage(data []byte) Message {
	return Message{Kind: Text, Data: data}
}

// NewBinaryMessage wraps a JPEG frame.
func NewBinaryMessage(data []byte) Message {
	return Message{Kind: Binary, Data: data}
}

// EncodeJSON marshals v into a text message.
func EncodeJSON(v any) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	return NewJSONMessage(data), nil
}

func (m Message) frameType() int {
	if m.Kind == Binary {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}
