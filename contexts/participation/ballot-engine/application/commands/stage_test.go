package commands

import (
	"context"
	"testing"

	"civicvote/contexts/participation/ballot-engine/domain/entities"
)

func TestEnterStageEnforcesMonotonicOrder(t *testing.T) {
	uc, store := newBallotFixture(t, nil,
		entities.StageApproval, entities.StageKnapsack, entities.StageThanks)
	store.SetVoter(entities.Voter{VoterID: "v1", ElectionID: "el-1", Stage: entities.StageKnapsack})

	res, err := uc.EnterStage(context.Background(), EnterStageCommand{
		ElectionSlug: "pb-test",
		VoterID:      "v1",
		Stage:        entities.StageApproval,
	})
	if err != nil {
		t.Fatalf("EnterStage: %v", err)
	}
	if res.Allowed {
		t.Fatal("backward transition was allowed")
	}
	if res.Redirect != entities.StageKnapsack {
		t.Fatalf("redirect = %q, want recorded stage %q", res.Redirect, entities.StageKnapsack)
	}

	voter, err := store.GetVoter(context.Background(), "v1")
	if err != nil {
		t.Fatalf("GetVoter: %v", err)
	}
	if voter.Stage != entities.StageKnapsack {
		t.Fatalf("rejected transition changed the recorded stage to %q", voter.Stage)
	}
}

func TestEnterStageRecordsForwardTransition(t *testing.T) {
	uc, store := newBallotFixture(t, nil,
		entities.StageApproval, entities.StageKnapsack, entities.StageThanks)
	store.SetVoter(entities.Voter{VoterID: "v1", ElectionID: "el-1", Stage: entities.StageApproval})

	res, err := uc.EnterStage(context.Background(), EnterStageCommand{
		ElectionSlug: "pb-test",
		VoterID:      "v1",
		Stage:        entities.StageThanks,
	})
	if err != nil {
		t.Fatalf("EnterStage: %v", err)
	}
	if !res.Allowed {
		t.Fatalf("forward transition rejected, redirect %q", res.Redirect)
	}

	voter, err := store.GetVoter(context.Background(), "v1")
	if err != nil {
		t.Fatalf("GetVoter: %v", err)
	}
	if voter.Stage != entities.StageThanks {
		t.Fatalf("recorded stage = %q, want %q", voter.Stage, entities.StageThanks)
	}
}

func TestEnterStageDemoBypassesGatingAndRecording(t *testing.T) {
	uc, store := newBallotFixture(t, nil,
		entities.StageApproval, entities.StageKnapsack)
	store.SetVoter(entities.Voter{VoterID: "v1", ElectionID: "el-1", Stage: entities.StageKnapsack})

	res, err := uc.EnterStage(context.Background(), EnterStageCommand{
		ElectionSlug: "pb-test",
		VoterID:      "v1",
		Stage:        entities.StageApproval,
		Demo:         true,
	})
	if err != nil {
		t.Fatalf("EnterStage: %v", err)
	}
	if !res.Allowed {
		t.Fatal("demo session was gated")
	}

	voter, err := store.GetVoter(context.Background(), "v1")
	if err != nil {
		t.Fatalf("GetVoter: %v", err)
	}
	if voter.Stage != entities.StageKnapsack {
		t.Fatalf("demo session changed the recorded stage to %q", voter.Stage)
	}
}

func TestEnterStageTestVoterLeavesNoRecord(t *testing.T) {
	uc, store := newBallotFixture(t, nil,
		entities.StageApproval, entities.StageKnapsack)
	store.SetVoter(entities.Voter{VoterID: "tester", ElectionID: "el-1", Test: true})

	res, err := uc.EnterStage(context.Background(), EnterStageCommand{
		ElectionSlug: "pb-test",
		VoterID:      "tester",
		Stage:        entities.StageKnapsack,
	})
	if err != nil {
		t.Fatalf("EnterStage: %v", err)
	}
	if !res.Allowed {
		t.Fatal("test voter was gated")
	}

	voter, err := store.GetVoter(context.Background(), "tester")
	if err != nil {
		t.Fatalf("GetVoter: %v", err)
	}
	if voter.Stage != "" {
		t.Fatalf("test voter stage recorded as %q", voter.Stage)
	}
}

func TestEnterStageAnonymousSessionAllowed(t *testing.T) {
	uc, _ := newBallotFixture(t, nil, entities.StageApproval, entities.StageThanks)

	res, err := uc.EnterStage(context.Background(), EnterStageCommand{
		ElectionSlug: "pb-test",
		Stage:        entities.StageApproval,
	})
	if err != nil {
		t.Fatalf("EnterStage: %v", err)
	}
	if !res.Allowed {
		t.Fatal("anonymous session was gated")
	}
}
