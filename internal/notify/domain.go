// Package notify implements the durable outbound notification queue. Messages
// are enqueued inside workflow transactions and delivered asynchronously with
// at-least-once semantics.
package notify

import "time"

// Status enumerates message delivery states.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// MaxAttempts caps delivery retries before a message is parked as failed.
const MaxAttempts = 5

// Message is one queued notification.
type Message struct {
	ID        int64          `json:"id"`
	Recipient string         `json:"recipient"`
	Subject   string         `json:"subject"`
	Body      string         `json:"body"`
	Status    Status         `json:"status"`
	Attempts  int            `json:"attempts"`
	LastError string         `json:"last_error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	SentAt    *time.Time     `json:"sent_at,omitempty"`
}
