package models

import "time"

// MessageSent is the projection returned right after sending a message.
type MessageSent struct {
	ID           int64     `json:"id"`
	FromUsername string    `json:"from_username"`
	ToUsername   string    `json:"to_username"`
	Body         string    `json:"body"`
	SentAt       time.Time `json:"sent_at"`
}

// MessageDetail carries a single message with sender and recipient profiles
// joined at query time.
type MessageDetail struct {
	ID       int64       `json:"id"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
	FromUser UserProfile `json:"from_user"`
	ToUser   UserProfile `json:"to_user"`
}

// SentMessage is one element of a user's outbox; ToUser reflects the
// recipient's profile as of query time.
type SentMessage struct {
	ID     int64       `json:"id"`
	ToUser UserProfile `json:"to_user"`
	Body   string      `json:"body"`
	SentAt time.Time   `json:"sent_at"`
	ReadAt *time.Time  `json:"read_at"`
}

// InboxMessage is one element of a user's inbox.
type InboxMessage struct {
	ID       int64       `json:"id"`
	FromUser UserProfile `json:"from_user"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
}

// ReadReceipt is returned by the mark-read operation.
type ReadReceipt struct {
	ID     int64     `json:"id"`
	ReadAt time.Time `json:"read_at"`
}
