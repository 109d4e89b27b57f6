package commands

import (
	"context"
	"errors"
	"testing"

	"civicvote/contexts/participation/ballot-engine/adapters/memory"
	"civicvote/contexts/participation/ballot-engine/domain/entities"
	domainerrors "civicvote/contexts/participation/ballot-engine/domain/errors"
	"civicvote/contexts/participation/ballot-engine/ports"
)

func newBallotFixture(t *testing.T, rules map[entities.Method]entities.MethodRules, workflow ...entities.Stage) (BallotUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SeedRand(1)

	slots := make(entities.Workflow, 0, len(workflow))
	for _, stage := range workflow {
		slots = append(slots, entities.WorkflowSlot{Alternatives: []entities.Stage{stage}})
	}
	store.SetElection(entities.Election{
		ElectionID: "el-1",
		Slug:       "pb-test",
		Budget:     100,
		Workflow:   slots,
		Rules:      rules,
	})
	store.AddProject(entities.Project{ProjectID: "p1", ElectionID: "el-1", CategoryID: "c1", Title: "Park benches", Cost: 40})
	store.AddProject(entities.Project{ProjectID: "p2", ElectionID: "el-1", CategoryID: "c1", Title: "Bike racks", Cost: 60})
	store.AddProject(entities.Project{ProjectID: "p3", ElectionID: "el-1", CategoryID: "c2", Title: "Tree planting", Cost: 30})
	store.SetVoter(entities.Voter{VoterID: "v1", ElectionID: "el-1"})

	uc := BallotUseCase{
		Elections: store,
		Voters:    store,
		Votes:     store,
		Clock:     store,
		IDGen:     store,
		Rand:      store,
	}
	return uc, store
}

func TestSubmitBatchCommitsApproval(t *testing.T) {
	uc, store := newBallotFixture(t, map[entities.Method]entities.MethodRules{
		entities.MethodApproval: {HasProjectLimit: true, MinProjects: 1, MaxProjects: 2},
	}, entities.StageApproval, entities.StageThanks)

	res, err := uc.SubmitBatch(context.Background(), SubmitBatchCommand{
		ElectionSlug: "pb-test",
		VoterID:      "v1",
		Method:       entities.MethodApproval,
		Costs:        map[string]int64{"p1": 40, "p3": 30},
	})
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}
	if res.Outcome != ports.CommitCommitted {
		t.Fatalf("outcome = %q, want %q", res.Outcome, ports.CommitCommitted)
	}
	if res.NextStage != entities.StageThanks {
		t.Fatalf("next stage = %q, want %q", res.NextStage, entities.StageThanks)
	}
	if got := store.ApprovalCount(); got != 2 {
		t.Fatalf("approval records = %d, want 2", got)
	}
}

func TestSubmitBatchDuplicateLeavesStoreUnchanged(t *testing.T) {
	uc, store := newBallotFixture(t, map[entities.Method]entities.MethodRules{
		entities.MethodApproval: {},
	}, entities.StageApproval, entities.StageThanks)

	cmd := SubmitBatchCommand{
		ElectionSlug: "pb-test",
		VoterID:      "v1",
		Method:       entities.MethodApproval,
		Costs:        map[string]int64{"p1": 40},
	}
	if _, err := uc.SubmitBatch(context.Background(), cmd); err != nil {
		t.Fatalf("first SubmitBatch: %v", err)
	}

	// A replay also attempting another project must not write anything.
	cmd.Costs = map[string]int64{"p1": 40, "p2": 60}
	res, err := uc.SubmitBatch(context.Background(), cmd)
	if err != nil {
		t.Fatalf("second SubmitBatch: %v", err)
	}
	if res.Outcome != ports.CommitDuplicate {
		t.Fatalf("outcome = %q, want %q", res.Outcome, ports.CommitDuplicate)
	}
	if got := store.ApprovalCount(); got != 1 {
		t.Fatalf("approval records = %d, want 1", got)
	}
	if res.NextStage != entities.StageThanks {
		t.Fatalf("duplicate did not advance the workflow: next stage = %q", res.NextStage)
	}
}

func TestSubmitBatchConstraintViolationIsSilent(t *testing.T) {
	uc, store := newBallotFixture(t, map[entities.Method]entities.MethodRules{
		entities.MethodApproval: {HasProjectLimit: true, MinProjects: 1, MaxProjects: 1},
	}, entities.StageApproval, entities.StageThanks)

	res, err := uc.SubmitBatch(context.Background(), SubmitBatchCommand{
		ElectionSlug: "pb-test",
		VoterID:      "v1",
		Method:       entities.MethodApproval,
		Costs:        map[string]int64{"p1": 40, "p2": 60},
	})
	if err != nil {
		t.Fatalf("violation surfaced as an error: %v", err)
	}
	if res.Outcome != ports.CommitRejected {
		t.Fatalf("outcome = %q, want %q", res.Outcome, ports.CommitRejected)
	}
	if got := store.ApprovalCount(); got != 0 {
		t.Fatalf("rejected ballot left %d records", got)
	}
	if res.NextStage != entities.StageThanks {
		t.Fatalf("rejected ballot did not redirect forward: next stage = %q", res.NextStage)
	}
}

func TestSubmitBatchTestVoterSkipsDurableWrites(t *testing.T) {
	uc, store := newBallotFixture(t, map[entities.Method]entities.MethodRules{
		entities.MethodKnapsack: {HasBudgetLimit: true},
	}, entities.StageKnapsack, entities.StageThanks)
	store.SetVoter(entities.Voter{VoterID: "tester", ElectionID: "el-1", Test: true})

	res, err := uc.SubmitBatch(context.Background(), SubmitBatchCommand{
		ElectionSlug: "pb-test",
		VoterID:      "tester",
		Method:       entities.MethodKnapsack,
		Costs:        map[string]int64{"p1": 40, "p2": 60},
	})
	if err != nil {
		t.Fatalf("SubmitBatch: %v", err)
	}
	if res.Outcome != ports.CommitSkipped {
		t.Fatalf("outcome = %q, want %q", res.Outcome, ports.CommitSkipped)
	}
	if got := store.KnapsackCount(); got != 0 {
		t.Fatalf("test voter wrote %d knapsack records", got)
	}
	if res.NextStage != entities.StageThanks {
		t.Fatalf("test voter did not advance: next stage = %q", res.NextStage)
	}
}

func TestSubmitBatchApprovalAdvancesSubpages(t *testing.T) {
	uc, store := newBallotFixture(t, map[entities.Method]entities.MethodRules{
		entities.MethodApproval: {Pages: []string{"g1", "g2"}},
	}, entities.StageApproval, entities.StageThanks)
	store.AddCategory(entities.Category{CategoryID: "c1", ElectionID: "el-1", CategoryGroup: "g1"})
	store.AddCategory(entities.Category{CategoryID: "c2", ElectionID: "el-1", CategoryGroup: "g2"})

	first, err := uc.SubmitBatch(context.Background(), SubmitBatchCommand{
		ElectionSlug: "pb-test",
		VoterID:      "v1",
		Method:       entities.MethodApproval,
		Subpage:      0,
		Costs:        map[string]int64{"p1": 40},
	})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if first.NextStage != entities.StageApproval || first.NextSubpage != 1 {
		t.Fatalf("first page advanced to (%q, %d), want (approval, 1)", first.NextStage, first.NextSubpage)
	}

	// The second page covers a different category group, so the same voter
	// may commit again.
	second, err := uc.SubmitBatch(context.Background(), SubmitBatchCommand{
		ElectionSlug: "pb-test",
		VoterID:      "v1",
		Method:       entities.MethodApproval,
		Subpage:      1,
		Costs:        map[string]int64{"p3": 30},
	})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if second.Outcome != ports.CommitCommitted {
		t.Fatalf("second page outcome = %q, want %q", second.Outcome, ports.CommitCommitted)
	}
	if second.NextStage != entities.StageThanks {
		t.Fatalf("last page next stage = %q, want %q", second.NextStage, entities.StageThanks)
	}
	if got := store.ApprovalCount(); got != 2 {
		t.Fatalf("approval records = %d, want 2", got)
	}
}

func TestSubmitComparisonStopsAtPairCap(t *testing.T) {
	uc, store := newBallotFixture(t, map[entities.Method]entities.MethodRules{
		entities.MethodComparison: {NPairs: 2},
	}, entities.StageComparison, entities.StageThanks)

	cmd := SubmitComparisonCommand{
		ElectionSlug:      "pb-test",
		VoterID:           "v1",
		FirstProjectID:    "p1",
		FirstProjectCost:  40,
		SecondProjectID:   "p2",
		SecondProjectCost: 60,
		Result:            entities.ComparisonFirstWon,
	}
	for i := 0; i < 2; i++ {
		outcome, err := uc.SubmitComparison(context.Background(), cmd)
		if err != nil {
			t.Fatalf("pair %d: %v", i+1, err)
		}
		if outcome != ports.CommitCommitted {
			t.Fatalf("pair %d outcome = %q, want %q", i+1, outcome, ports.CommitCommitted)
		}
	}

	outcome, err := uc.SubmitComparison(context.Background(), cmd)
	if err != nil {
		t.Fatalf("pair beyond cap: %v", err)
	}
	if outcome != ports.CommitDuplicate {
		t.Fatalf("pair beyond cap outcome = %q, want %q", outcome, ports.CommitDuplicate)
	}
	if got := store.ComparisonCount(); got != 2 {
		t.Fatalf("comparison records = %d, want 2", got)
	}
}

func TestSubmitComparisonRejectsMalformedInput(t *testing.T) {
	uc, _ := newBallotFixture(t, map[entities.Method]entities.MethodRules{
		entities.MethodComparison: {NPairs: 5},
	}, entities.StageComparison)

	_, err := uc.SubmitComparison(context.Background(), SubmitComparisonCommand{
		ElectionSlug:    "pb-test",
		VoterID:         "v1",
		FirstProjectID:  "p1",
		SecondProjectID: "p2",
		Result:          "landslide",
	})
	if !errors.Is(err, domainerrors.ErrInvalidBallotInput) {
		t.Fatalf("err = %v, want ErrInvalidBallotInput", err)
	}

	_, err = uc.SubmitComparison(context.Background(), SubmitComparisonCommand{
		ElectionSlug:    "pb-test",
		VoterID:         "v1",
		SecondProjectID: "p2",
		Result:          entities.ComparisonTie,
	})
	if !errors.Is(err, domainerrors.ErrInvalidBallotInput) {
		t.Fatalf("err = %v, want ErrInvalidBallotInput for missing project", err)
	}
}
