package ports

import (
	"context"
	"time"

	"civicvote/contexts/participation/voter-signup/domain/entities"
)

// ElectionDirectory resolves the signup-facing election projection.
type ElectionDirectory interface {
	GetElectionAccess(ctx context.Context, slug string) (entities.ElectionAccess, error)
}

// CodeRepository looks up printed access codes. Absent codes return
// domain ErrCodeNotFound.
type CodeRepository interface {
	FindCode(ctx context.Context, electionID string, code string) (entities.AccessCode, error)
}

// VoterDirectory owns voter identity rows. Identity is unique per
// (election, auth method, auth id); the ballot engine reads the same rows
// through its own port.
type VoterDirectory interface {
	GetVoter(ctx context.Context, voterID string) (entities.Voter, error)
	FindVoterByIdentity(ctx context.Context, electionID, authMethod, authID string) (entities.Voter, error)
	CreateVoter(ctx context.Context, voter entities.Voter) error
	SetConfirmationCode(ctx context.Context, voterID, code string, at time.Time) error
	MergeVoterData(ctx context.Context, voterID string, patch map[string]any) error
}

// ActivityFilter narrows an activity count to one correlation field.
// Exactly one field is set per call.
type ActivityFilter struct {
	Note      string
	IPAddress string
}

// ActivityLog is the audit trail behind the sliding-window rate limits.
type ActivityLog interface {
	Record(ctx context.Context, entry entities.ActivityEntry) error
	CountSince(ctx context.Context, electionID, kind string, since time.Time, filter ActivityFilter) (int64, error)
}

// RegistrationRepository stores voter registration answers.
type RegistrationRepository interface {
	SaveRegistration(ctx context.Context, record entities.RegistrationRecord) error
	GetRegistrationByVoter(ctx context.Context, voterID string) (entities.RegistrationRecord, error)
}

// NotificationOutbox queues outgoing SMS for the relay worker.
type NotificationOutbox interface {
	Enqueue(ctx context.Context, notification entities.Notification) error
	ListPending(ctx context.Context, limit int) ([]entities.Notification, error)
	MarkSent(ctx context.Context, notificationID string, at time.Time) error
	MarkFailed(ctx context.Context, notificationID string, at time.Time, reason string) error
}

// SMSSender delivers one message through the gateway.
type SMSSender interface {
	Send(ctx context.Context, phone, body string) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// Rand supplies confirmation-code randomness; injected for tests.
type Rand interface {
	Intn(n int) int
}
