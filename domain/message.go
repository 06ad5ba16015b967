package domain

import (
	"encoding/json"
	"time"
	"unicode/utf8"
)

// MessageQuota caps the aggregate serialized size of all stored message payloads.
const MessageQuota = 3000

// Message is an arbitrary JSON payload appended to the message log.
type Message struct {
	ID        string          `json:"id"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// PayloadSize is the length in characters of the payload's serialized form.
func (m *Message) PayloadSize() int {
	if m == nil {
		return 0
	}
	return utf8.RuneCount(m.Payload)
}
