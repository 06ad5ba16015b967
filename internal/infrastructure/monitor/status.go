package monitor

import "time"

type Status struct {
	Store      bool         `json:"store"`
	Upstream   bool         `json:"upstream"`
	Outbox     bool         `json:"outbox"`
	OutboxSize int          `json:"outbox_size"`
	Messages   MessageUsage `json:"messages"`
	LastCheck  time.Time    `json:"last_check"`
}

// MessageUsage mirrors the message quota consumption at the last check.
type MessageUsage struct {
	Used  int `json:"used"`
	Limit int `json:"limit"`
	Count int `json:"count"`
}
