package buffer

import (
	"time"

	"github.com/fastygo/interceptor/domain"
)

// Item is an event that could not be delivered and waits for the next drain.
type Item struct {
	Event     domain.Event `json:"event"`
	Retries   int          `json:"retries"`
	LastError string       `json:"last_error,omitempty"`
	Timestamp time.Time    `json:"timestamp"`

	bucketKey []byte
}

func (i *Item) normalize() {
	if i.Timestamp.IsZero() {
		i.Timestamp = time.Now()
	}
}
