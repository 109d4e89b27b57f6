package entities

import "time"

// Authentication methods. Machine codes and remote codes are kept distinct
// so the same printed code can be handed out through both channels without
// the sessions colliding.
const (
	AuthMethodCode       = "code"
	AuthMethodRemoteCode = "remote_code"
	AuthMethodPhone      = "phone"
)

// TestCode is the reserved access code that creates throwaway test voters.
// Test voters walk the whole workflow but never produce durable ballots.
const TestCode = "_test"

// StageDone marks a voter who finished the workflow. A non-test voter in
// this stage has spent their code.
const StageDone = "done"

// Voter is this service's slice of the voter record: identity, session
// provenance and the SMS confirmation state. Ballot progress fields live
// with the ballot engine.
type Voter struct {
	VoterID    string
	ElectionID string

	AuthMethod string
	AuthID     string

	Stage string
	Test  bool
	Void  bool

	IPAddress  string
	UserAgent  string
	LocationID string

	ConfirmationCode          string
	ConfirmationCodeCreatedAt *time.Time

	Data map[string]any

	CreatedAt time.Time
}
