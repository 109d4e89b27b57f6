package workflow

import (
	"testing"

	"civicvote/contexts/participation/ballot-engine/domain/entities"
)

func fixedWorkflow(stages ...entities.Stage) entities.Workflow {
	w := make(entities.Workflow, 0, len(stages))
	for _, stage := range stages {
		w = append(w, entities.WorkflowSlot{Alternatives: []entities.Stage{stage}})
	}
	return w
}

func TestGateRejectsBackwardTransition(t *testing.T) {
	w := fixedWorkflow(entities.StageApproval, entities.StageKnapsack, entities.StageThanksApproval)

	allowed, redirect := Gate(w, entities.StageKnapsack, entities.StageApproval)
	if allowed {
		t.Fatal("backward transition was allowed")
	}
	if redirect != entities.StageKnapsack {
		t.Fatalf("redirect = %q, want recorded stage %q", redirect, entities.StageKnapsack)
	}
}

func TestGateAllowsForwardAndRepeat(t *testing.T) {
	w := fixedWorkflow(entities.StageApproval, entities.StageKnapsack)

	if allowed, _ := Gate(w, entities.StageApproval, entities.StageKnapsack); !allowed {
		t.Fatal("forward transition was rejected")
	}
	if allowed, _ := Gate(w, entities.StageApproval, entities.StageApproval); !allowed {
		t.Fatal("re-entering the recorded stage was rejected")
	}
}

func TestGateIsPermissiveOutsideWorkflow(t *testing.T) {
	w := fixedWorkflow(entities.StageApproval, entities.StageThanksApproval)

	// Neither the survey stage nor a voter recorded on a stage the
	// configuration no longer contains should be blocked.
	if allowed, _ := Gate(w, entities.StageApproval, entities.StageSurvey); !allowed {
		t.Fatal("target outside workflow was rejected")
	}
	if allowed, _ := Gate(w, entities.StageSurvey, entities.StageApproval); !allowed {
		t.Fatal("recorded stage outside workflow blocked the transition")
	}
	if allowed, _ := Gate(w, "", entities.StageApproval); !allowed {
		t.Fatal("fresh voter was rejected")
	}
}

func TestNextFromHomeAndPastEnd(t *testing.T) {
	w := fixedWorkflow(entities.StageApproval, entities.StageThanksApproval)
	voter := entities.Voter{}

	res := Next(w, voter, entities.StageHome, nil)
	if res.Stage != entities.StageApproval {
		t.Fatalf("next from home = %q, want %q", res.Stage, entities.StageApproval)
	}

	res = Next(w, voter, entities.StageThanksApproval, nil)
	if res.Stage != entities.StageThanks {
		t.Fatalf("next past end = %q, want %q", res.Stage, entities.StageThanks)
	}

	res = Next(w, voter, entities.StageSurvey, nil)
	if res.Stage != entities.StageThanks {
		t.Fatalf("next from unknown stage = %q, want %q", res.Stage, entities.StageThanks)
	}
}

func TestNextResolvesAlternativesSlot(t *testing.T) {
	w := entities.Workflow{
		{Alternatives: []entities.Stage{entities.StageApproval}},
		{Alternatives: []entities.Stage{entities.StageRanking, entities.StageKnapsack}},
	}

	res := Next(w, entities.Voter{}, entities.StageApproval, func(n int) int { return 1 })
	if res.Stage != entities.StageKnapsack {
		t.Fatalf("resolved stage = %q, want %q", res.Stage, entities.StageKnapsack)
	}
	if !res.NewlyResolved {
		t.Fatal("first resolution not flagged as new")
	}
}

func TestNextReusesPersistedChoice(t *testing.T) {
	w := entities.Workflow{
		{Alternatives: []entities.Stage{entities.StageApproval}},
		{Alternatives: []entities.Stage{entities.StageRanking, entities.StageKnapsack}},
	}
	voter := entities.Voter{
		Data: map[string]any{
			entities.WorkflowChoiceKey: map[string]any{"1": "ranking"},
		},
	}

	// pick would choose the other alternative; the persisted choice wins.
	res := Next(w, voter, entities.StageApproval, func(n int) int { return 1 })
	if res.Stage != entities.StageRanking {
		t.Fatalf("stage = %q, want persisted choice %q", res.Stage, entities.StageRanking)
	}
	if res.NewlyResolved {
		t.Fatal("persisted choice flagged as newly resolved")
	}
}
