package entities

import "time"

// VoteApproval is one committed approval or ranking selection. The two
// methods share a record shape: ranking ballots carry a positive Rank,
// approval ballots carry Rank only when the election configures project
// ranking. At most one record exists per (voter, project).
type VoteApproval struct {
	RecordID  string
	VoterID   string
	ProjectID string
	Cost      int64
	Rank      int
	CreatedAt time.Time
}

// VoteKnapsack is one selection of a voter's single knapsack ballot.
type VoteKnapsack struct {
	RecordID  string
	VoterID   string
	ProjectID string
	Cost      int64
	CreatedAt time.Time
}

// ComparisonResult is the outcome of one pairwise comparison.
type ComparisonResult string

const (
	ComparisonFirstWon  ComparisonResult = "first"
	ComparisonSecondWon ComparisonResult = "second"
	ComparisonTie       ComparisonResult = "tie"
)

// VoteComparison is one committed pairwise comparison. A voter submits at
// most the configured number of pairs.
type VoteComparison struct {
	RecordID          string
	VoterID           string
	FirstProjectID    string
	FirstProjectCost  int64
	SecondProjectID   string
	SecondProjectCost int64
	Result            ComparisonResult
	CreatedAt         time.Time
}
