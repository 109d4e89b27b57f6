package entities

import "time"

// Notification delivery states. Pending rows are picked up by the relay
// worker; failed rows keep the gateway error for inspection.
const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

// Notification is an outgoing SMS queued through the outbox. Vote-path
// notifications are fire-and-forget: a failed row never fails the vote.
type Notification struct {
	NotificationID string
	ElectionID     string
	VoterID        string
	Phone          string
	Body           string
	Status         string
	Attempts       int
	LastError      string
	CreatedAt      time.Time
	SentAt         *time.Time
}
