package ports

import (
	"context"
	"time"

	"civicvote/contexts/participation/ballot-engine/domain/entities"
)

type ElectionRepository interface {
	GetElectionBySlug(ctx context.Context, slug string) (entities.Election, error)
	ListProjects(ctx context.Context, electionID string) ([]entities.Project, error)
	ListCategories(ctx context.Context, electionID string) ([]entities.Category, error)
}

// AdvanceOutcome reports the effect of a gated stage transition.
type AdvanceOutcome struct {
	Advanced bool
	// Redirect is the voter's recorded stage when the transition was
	// rejected as a backward move.
	Redirect entities.Stage
}

type VoterRepository interface {
	GetVoter(ctx context.Context, voterID string) (entities.Voter, error)
	// UpdateVoterData merges patch into the voter's auxiliary data mapping.
	UpdateVoterData(ctx context.Context, voterID string, patch map[string]any) error
	// AdvanceStage re-reads the durable stage under the same isolation as
	// the update and applies gate to it, so two near-simultaneous requests
	// cannot both advance from a stale value. On acceptance the target
	// stage and a per-stage timestamp are recorded.
	AdvanceStage(
		ctx context.Context,
		voterID string,
		target entities.Stage,
		gate func(recorded entities.Stage) (bool, entities.Stage),
		at time.Time,
	) (AdvanceOutcome, error)
}

// BallotRecord is one record of a batch-style ballot submission.
type BallotRecord struct {
	ProjectID string
	Cost      int64
	Rank      int
}

// Scope is the duplicate-prevention granularity of a submission: a page
// group's project set for approval/ranking, the whole election for knapsack.
type Scope struct {
	Method entities.Method
	// ProjectIDs bounds the duplicate guard for approval/ranking scopes;
	// ignored for knapsack, whose scope is the entire election.
	ProjectIDs []string
}

// CommitOutcome classifies a commit attempt.
type CommitOutcome string

const (
	CommitCommitted CommitOutcome = "committed"
	// CommitDuplicate means the scope already holds records for the voter;
	// nothing was written and the caller treats the submission as success.
	CommitDuplicate CommitOutcome = "duplicate"
	// CommitRejected means check failed and every record written during the
	// attempt was rolled back.
	CommitRejected CommitOutcome = "rejected"
	// CommitSkipped means the submission ran the validation path only:
	// test voters, demo sessions, and closed elections never reach durable
	// state but still report success to keep workflow progression
	// consistent.
	CommitSkipped CommitOutcome = "skipped"
)

// VoteStore owns the durability of committed vote records.
type VoteStore interface {
	// CommitBatch persists all records atomically. The duplicate-scope
	// guard is evaluated against durable state inside the transaction, and
	// check runs inside the same transaction after the records are staged:
	// either every record is committed and check passed, or none are. A
	// uniqueness violation at commit time reports CommitDuplicate rather
	// than an error.
	CommitBatch(
		ctx context.Context,
		voter entities.Voter,
		scope Scope,
		records []BallotRecord,
		check func() error,
	) (CommitOutcome, error)
	// CommitComparison persists one pair result unless the voter already
	// has pairCap committed comparisons; at the cap it reports
	// CommitDuplicate without writing.
	CommitComparison(
		ctx context.Context,
		voter entities.Voter,
		record entities.VoteComparison,
		pairCap int,
	) (CommitOutcome, error)
	CountComparisons(ctx context.Context, voterID string) (int, error)
}

// ResultsReader scans only committed records of non-void voters; test
// voters never reach durable state.
type ResultsReader interface {
	ListCommittedApprovals(ctx context.Context, electionID string) ([]entities.VoteApproval, error)
	// CountEligibleVoters counts non-void voters whose recorded stage lies
	// past the approval stage.
	CountEligibleVoters(ctx context.Context, electionID string) (int, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// Rand supplies the randomness for alternatives-slot resolution and project
// shuffling; injected so workflow choices are reproducible in tests.
type Rand interface {
	Intn(n int) int
	Float64() float64
}
