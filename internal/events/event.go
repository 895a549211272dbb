// Package events runs in-process functions in response to named events.
package events

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

// Known event names.
const (
	UserRegistered = "user/registered"
	MessageSend    = "message/send"
)

// Event is one occurrence of a named event.
type Event struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"ts"`
}

// UserRegisteredData is the payload of UserRegistered.
type UserRegisteredData struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Timestamp string `json:"timestamp"`
}

// MessageSendData is the payload of MessageSend.
type MessageSendData struct {
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Decode converts an event's data into a typed payload.
func (e Event) Decode(v any) error {
	raw, err := sonic.ConfigStd.Marshal(e.Data)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", e.Name, err)
	}
	if err := sonic.ConfigStd.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %s payload: %w", e.Name, err)
	}
	return nil
}

// NewEvent builds an event from a typed payload.
func NewEvent(name string, payload any) (Event, error) {
	raw, err := sonic.ConfigStd.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encoding %s payload: %w", name, err)
	}
	var data map[string]any
	if err := sonic.ConfigStd.Unmarshal(raw, &data); err != nil {
		return Event{}, fmt.Errorf("encoding %s payload: %w", name, err)
	}
	return Event{Name: name, Data: data}, nil
}
