package entities

import (
	"strconv"
	"time"
)

// Voter is created on first successful authentication and never deleted.
// Stage mutates monotonically forward through the election's workflow.
type Voter struct {
	VoterID              string
	ElectionID           string
	AuthenticationMethod string // "code", "phone", "remote_code"
	AuthenticationID     string
	Stage                Stage // "" = not started
	Test                 bool  // test voters validate but never commit
	Void                 bool  // void voters are excluded from tallies
	IPAddress            string
	UserAgent            string
	LocationID           string

	ConfirmationCode          string
	ConfirmationCodeCreatedAt time.Time

	// Data holds auxiliary per-voter facts: recorded locale, per-stage
	// timestamps, shuffle flag, resolved workflow alternatives, free-form
	// registration extras.
	Data map[string]any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Started reports whether the voter has entered the workflow.
func (v Voter) Started() bool {
	return v.Stage != ""
}

// Done reports whether the voter has completed the workflow.
func (v Voter) Done() bool {
	return v.Stage == StageDone
}

// WorkflowChoice returns the persisted resolution of an alternatives slot,
// if one was recorded for this voter.
func (v Voter) WorkflowChoice(slotIndex int) (Stage, bool) {
	if v.Data == nil {
		return "", false
	}
	// Keys are decimal slot indexes so the mapping survives a JSON round
	// trip through the voter data column.
	key := strconv.Itoa(slotIndex)
	switch choices := v.Data[WorkflowChoiceKey].(type) {
	case map[string]string:
		stage, ok := choices[key]
		return Stage(stage), ok
	case map[string]any:
		stage, ok := choices[key].(string)
		return Stage(stage), ok
	default:
		return "", false
	}
}

// WorkflowChoiceKey is the voter-data key holding resolved alternatives.
const WorkflowChoiceKey = "workflow_choices"
