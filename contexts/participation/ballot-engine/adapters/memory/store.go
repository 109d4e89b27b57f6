package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"civicvote/contexts/participation/ballot-engine/domain/entities"
	domainerrors "civicvote/contexts/participation/ballot-engine/domain/errors"
	"civicvote/contexts/participation/ballot-engine/ports"

	"github.com/google/uuid"
)

// Store is the in-memory adapter backing tests and local wiring. One mutex
// serializes commits, which gives CommitBatch the same all-or-nothing and
// duplicate-guard semantics the postgres adapter gets from transactions.
type Store struct {
	mu sync.Mutex

	elections  map[string]entities.Election // keyed by slug
	projects   map[string][]entities.Project
	categories map[string][]entities.Category
	voters     map[string]entities.Voter

	approvals   []entities.VoteApproval
	knapsacks   []entities.VoteKnapsack
	comparisons []entities.VoteComparison

	rng *rand.Rand
}

func NewStore() *Store {
	return &Store{
		elections:  make(map[string]entities.Election),
		projects:   make(map[string][]entities.Project),
		categories: make(map[string][]entities.Category),
		voters:     make(map[string]entities.Voter),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SeedRand replaces the randomness source; tests use a fixed seed.
func (s *Store) SeedRand(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng = rand.New(rand.NewSource(seed))
}

func (s *Store) SetElection(election entities.Election) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elections[election.Slug] = election
}

func (s *Store) AddProject(project entities.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[project.ElectionID] = append(s.projects[project.ElectionID], project)
}

func (s *Store) AddCategory(category entities.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[category.ElectionID] = append(s.categories[category.ElectionID], category)
}

func (s *Store) SetVoter(voter entities.Voter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voters[voter.VoterID] = voter
}

// ApprovalCount reports committed approval records; used by tests to verify
// store state after idempotent replays.
func (s *Store) ApprovalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.approvals)
}

func (s *Store) KnapsackCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.knapsacks)
}

func (s *Store) ComparisonCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.comparisons)
}

func (s *Store) GetElectionBySlug(_ context.Context, slug string) (entities.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	election, ok := s.elections[slug]
	if !ok {
		return entities.Election{}, domainerrors.ErrElectionNotFound
	}
	return election, nil
}

func (s *Store) ListProjects(_ context.Context, electionID string) ([]entities.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.Project(nil), s.projects[electionID]...), nil
}

func (s *Store) ListCategories(_ context.Context, electionID string) ([]entities.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entities.Category(nil), s.categories[electionID]...), nil
}

func (s *Store) GetVoter(_ context.Context, voterID string) (entities.Voter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	voter, ok := s.voters[voterID]
	if !ok {
		return entities.Voter{}, domainerrors.ErrVoterNotFound
	}
	return voter, nil
}

func (s *Store) UpdateVoterData(_ context.Context, voterID string, patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	voter, ok := s.voters[voterID]
	if !ok {
		return domainerrors.ErrVoterNotFound
	}
	voter.Data = mergeData(voter.Data, patch)
	voter.UpdatedAt = time.Now().UTC()
	s.voters[voterID] = voter
	return nil
}

func (s *Store) AdvanceStage(
	_ context.Context,
	voterID string,
	target entities.Stage,
	gate func(recorded entities.Stage) (bool, entities.Stage),
	at time.Time,
) (ports.AdvanceOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	voter, ok := s.voters[voterID]
	if !ok {
		return ports.AdvanceOutcome{}, domainerrors.ErrVoterNotFound
	}
	allowed, redirect := gate(voter.Stage)
	if !allowed {
		return ports.AdvanceOutcome{Redirect: redirect}, nil
	}
	voter.Stage = target
	voter.Data = mergeData(voter.Data, map[string]any{
		"timestamps": map[string]int64{string(target): at.Unix()},
	})
	voter.UpdatedAt = at.UTC()
	s.voters[voterID] = voter
	return ports.AdvanceOutcome{Advanced: true}, nil
}

func (s *Store) CommitBatch(
	_ context.Context,
	voter entities.Voter,
	scope ports.Scope,
	records []ports.BallotRecord,
	check func() error,
) (ports.CommitOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch scope.Method {
	case entities.MethodKnapsack:
		for _, existing := range s.knapsacks {
			if existing.VoterID == voter.VoterID {
				return ports.CommitDuplicate, nil
			}
		}
	default:
		inScope := make(map[string]bool, len(scope.ProjectIDs))
		for _, id := range scope.ProjectIDs {
			inScope[id] = true
		}
		for _, existing := range s.approvals {
			if existing.VoterID != voter.VoterID {
				continue
			}
			if len(scope.ProjectIDs) == 0 || inScope[existing.ProjectID] {
				return ports.CommitDuplicate, nil
			}
		}
	}
	for _, record := range records {
		if s.recordExists(scope.Method, voter.VoterID, record.ProjectID) {
			return ports.CommitDuplicate, nil
		}
	}

	if err := check(); err != nil {
		return ports.CommitRejected, err
	}

	now := time.Now().UTC()
	for _, record := range records {
		switch scope.Method {
		case entities.MethodKnapsack:
			s.knapsacks = append(s.knapsacks, entities.VoteKnapsack{
				RecordID:  uuid.NewString(),
				VoterID:   voter.VoterID,
				ProjectID: record.ProjectID,
				Cost:      record.Cost,
				CreatedAt: now,
			})
		default:
			s.approvals = append(s.approvals, entities.VoteApproval{
				RecordID:  uuid.NewString(),
				VoterID:   voter.VoterID,
				ProjectID: record.ProjectID,
				Cost:      record.Cost,
				Rank:      record.Rank,
				CreatedAt: now,
			})
		}
	}
	return ports.CommitCommitted, nil
}

func (s *Store) recordExists(method entities.Method, voterID string, projectID string) bool {
	if method == entities.MethodKnapsack {
		for _, existing := range s.knapsacks {
			if existing.VoterID == voterID && existing.ProjectID == projectID {
				return true
			}
		}
		return false
	}
	for _, existing := range s.approvals {
		if existing.VoterID == voterID && existing.ProjectID == projectID {
			return true
		}
	}
	return false
}

func (s *Store) CommitComparison(
	_ context.Context,
	voter entities.Voter,
	record entities.VoteComparison,
	pairCap int,
) (ports.CommitOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing := 0
	for _, item := range s.comparisons {
		if item.VoterID == voter.VoterID {
			existing++
		}
	}
	if existing >= pairCap {
		return ports.CommitDuplicate, nil
	}
	s.comparisons = append(s.comparisons, record)
	return ports.CommitCommitted, nil
}

func (s *Store) CountComparisons(_ context.Context, voterID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, item := range s.comparisons {
		if item.VoterID == voterID {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListCommittedApprovals(_ context.Context, electionID string) ([]entities.VoteApproval, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.VoteApproval, 0, len(s.approvals))
	for _, record := range s.approvals {
		voter, ok := s.voters[record.VoterID]
		if !ok || voter.Void || voter.ElectionID != electionID {
			continue
		}
		items = append(items, record)
	}
	return items, nil
}

func (s *Store) CountEligibleVoters(_ context.Context, electionID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, voter := range s.voters {
		if voter.ElectionID != electionID || voter.Void || voter.Test {
			continue
		}
		if voter.Stage != "" && voter.Stage != entities.StageApproval {
			count++
		}
	}
	return count, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func (s *Store) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

func (s *Store) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// mergeData applies a shallow merge, with one-level-deep merging for nested
// string-keyed maps so timestamp and workflow-choice patches accumulate.
func mergeData(data map[string]any, patch map[string]any) map[string]any {
	merged := make(map[string]any, len(data)+len(patch))
	for key, value := range data {
		merged[key] = value
	}
	for key, value := range patch {
		switch incoming := value.(type) {
		case map[string]string:
			existing, _ := merged[key].(map[string]string)
			combined := make(map[string]string, len(existing)+len(incoming))
			for k, v := range existing {
				combined[k] = v
			}
			for k, v := range incoming {
				combined[k] = v
			}
			merged[key] = combined
		case map[string]int64:
			existing, _ := merged[key].(map[string]int64)
			combined := make(map[string]int64, len(existing)+len(incoming))
			for k, v := range existing {
				combined[k] = v
			}
			for k, v := range incoming {
				combined[k] = v
			}
			merged[key] = combined
		default:
			merged[key] = value
		}
	}
	return merged
}

var _ ports.ElectionRepository = (*Store)(nil)
var _ ports.VoterRepository = (*Store)(nil)
var _ ports.VoteStore = (*Store)(nil)
var _ ports.ResultsReader = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
var _ ports.Rand = (*Store)(nil)
