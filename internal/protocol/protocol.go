// Package protocol defines the JSON envelopes exchanged over a sync
// connection. Binary document deltas travel as JSON arrays of byte values.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	cserrors "github.com/manpreetbhatti/codesync/internal/errors"
)

// Represents the type field of an envelope
type MessageType string

const (
	// Client joins a room; server answers with the room's full state
	TypeInit MessageType = "init"

	// Document delta, applied by the server and relayed to peers
	TypeUpdate MessageType = "update"

	// Presence data (cursors, selections), relayed but never applied
	TypeAwareness MessageType = "awareness"

	// Server greeting sent once per connection
	TypeWelcome MessageType = "welcome"

	// Server report of a bad inbound envelope
	TypeError MessageType = "error"
)

const WelcomeMessage = "Connected to server"

// Inbound is a client envelope. UserName carries the room identifier: peers
// that send the same value share one room.
type Inbound struct {
	UserName      string          `json:"userName"`
	Type          MessageType     `json:"type"`
	FileName      string          `json:"fileName,omitempty"`
	FileExtension string          `json:"fileExtension,omitempty"`
	Update        json.RawMessage `json:"update,omitempty"`
}

// Parse decodes one client envelope.
func Parse(data []byte) (*Inbound, error) {
	var msg Inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, cserrors.MalformedMessage(err)
	}
	return &msg, nil
}

// HasUpdate reports whether the envelope carries a non-null update field.
func (m *Inbound) HasUpdate() bool {
	trimmed := bytes.TrimSpace(m.Update)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// UpdateBytes decodes the update field.
func (m *Inbound) UpdateBytes() ([]byte, error) {
	if !m.HasUpdate() {
		return nil, cserrors.InvalidUpdate(string(m.Type))
	}
	var b Bytes
	if err := json.Unmarshal(m.Update, &b); err != nil {
		return nil, cserrors.Wrap(err, cserrors.ErrCodeInvalidUpdate,
			fmt.Sprintf("Invalid update payload for %s", m.Type))
	}
	return b, nil
}

// Outbound is a server envelope.
type Outbound struct {
	Type      MessageType     `json:"type"`
	Message   string          `json:"message,omitempty"`
	File      string          `json:"file,omitempty"`
	Extension string          `json:"extension,omitempty"`
	Update    json.RawMessage `json:"update,omitempty"`
}

func mustMarshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		// Outbound holds only strings and pre-validated raw JSON.
		panic(fmt.Sprintf("protocol: marshal %T: %v", v, err))
	}
	return data
}

// Welcome builds the greeting sent on connect.
func Welcome() []byte {
	return mustMarshal(Outbound{Type: TypeWelcome, Message: WelcomeMessage})
}

// Init builds the reply to an init request.
func Init(file, extension string, state []byte) []byte {
	raw, _ := Bytes(state).MarshalJSON()
	return mustMarshal(Outbound{Type: TypeInit, File: file, Extension: extension, Update: raw})
}

// Relay wraps an inbound update field unchanged for delivery to peers.
func Relay(t MessageType, update json.RawMessage) []byte {
	return mustMarshal(Outbound{Type: t, Update: update})
}

// Error builds an error envelope from err's user-facing message.
func Error(err error) []byte {
	return mustMarshal(Outbound{Type: TypeError, Message: cserrors.Message(err)})
}
