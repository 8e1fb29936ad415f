package queue

import (
	"encoding/json"
	"errors"
	"strings"
)

// CurrentVersion is the message schema version written by this module.
const CurrentVersion = 1

// ErrMissingKey is returned by Validate when a required storage key is empty.
var ErrMissingKey = errors.New("missing storage key")

// Message asks a worker to format one stored resume against a stored template.
type Message struct {
	JobID       string `json:"jobId"`
	RunID       string `json:"runId,omitempty"`
	InputKey    string `json:"inputKey"`
	TemplateKey string `json:"templateKey"`
	OutputKey   string `json:"outputKey,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
	RequestID   string `json:"requestId,omitempty"`
	EnqueuedAt  string `json:"enqueuedAt"`
	Version     int    `json:"version"`
}

// Validate checks the fields a worker cannot do without.
func (m Message) Validate() error {
	if strings.TrimSpace(m.InputKey) == "" || strings.TrimSpace(m.TemplateKey) == "" {
		return ErrMissingKey
	}
	return nil
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
