package commands

import (
	"context"
	"strconv"

	application "civicvote/contexts/participation/ballot-engine/application"
	"civicvote/contexts/participation/ballot-engine/domain/entities"
	"civicvote/contexts/participation/ballot-engine/domain/workflow"
)

// EnterStageCommand requests a voter's transition to a workflow stage.
type EnterStageCommand struct {
	ElectionSlug string
	VoterID      string
	Stage        entities.Stage
	// Demo sessions bypass gating entirely and record no stage.
	Demo bool
}

// EnterStageResult reports whether the transition was accepted. A rejected
// transition is a silent workflow correction, not an error: the caller
// redirects the voter to Redirect.
type EnterStageResult struct {
	Allowed  bool
	Redirect entities.Stage
}

// EnterStage applies the monotonicity contract: once a voter has a recorded
// stage, a target earlier in the workflow is rejected and the voter is sent
// back to the recorded stage. Test voters and demo sessions skip gating and
// leave no stage record.
func (uc BallotUseCase) EnterStage(ctx context.Context, cmd EnterStageCommand) (EnterStageResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	election, err := uc.Elections.GetElectionBySlug(ctx, cmd.ElectionSlug)
	if err != nil {
		return EnterStageResult{}, err
	}
	if cmd.Demo || cmd.VoterID == "" {
		return EnterStageResult{Allowed: true}, nil
	}
	voter, err := uc.Voters.GetVoter(ctx, cmd.VoterID)
	if err != nil {
		return EnterStageResult{}, err
	}
	if voter.Test {
		return EnterStageResult{Allowed: true}, nil
	}

	outcome, err := uc.Voters.AdvanceStage(ctx, voter.VoterID, cmd.Stage,
		func(recorded entities.Stage) (bool, entities.Stage) {
			return workflow.Gate(election.Workflow, recorded, cmd.Stage)
		},
		uc.now(),
	)
	if err != nil {
		return EnterStageResult{}, err
	}
	if !outcome.Advanced {
		logger.Info("stage transition rejected",
			"event", "ballot_stage_rejected",
			"module", "participation/ballot-engine",
			"layer", "application",
			"voter_id", voter.VoterID,
			"target_stage", string(cmd.Stage),
			"redirect_stage", string(outcome.Redirect),
		)
		return EnterStageResult{Redirect: outcome.Redirect}, nil
	}
	return EnterStageResult{Allowed: true}, nil
}

// nextStage resolves the workflow slot after current for the voter,
// persisting a first-time random resolution of an alternatives slot so that
// re-entry lands on the same stage.
func (uc BallotUseCase) nextStage(
	ctx context.Context,
	election entities.Election,
	voter entities.Voter,
	current entities.Stage,
) (entities.Stage, error) {
	res := workflow.Next(election.Workflow, voter, current, uc.Rand.Intn)
	if res.NewlyResolved && voter.VoterID != "" && !voter.Test {
		patch := map[string]any{
			entities.WorkflowChoiceKey: map[string]string{
				strconv.Itoa(res.SlotIndex): string(res.Stage),
			},
		}
		if err := uc.Voters.UpdateVoterData(ctx, voter.VoterID, patch); err != nil {
			return "", err
		}
	}
	return res.Stage, nil
}
