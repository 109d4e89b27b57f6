package commands

import (
	"context"
	"log/slog"
	"time"

	application "civicvote/contexts/participation/ballot-engine/application"
	"civicvote/contexts/participation/ballot-engine/domain/entities"
	domainerrors "civicvote/contexts/participation/ballot-engine/domain/errors"
	"civicvote/contexts/participation/ballot-engine/domain/voting"
	"civicvote/contexts/participation/ballot-engine/ports"
)

// BallotUseCase orchestrates ballot submission: it gates stage transitions,
// runs the per-method constraint validator inside the vote store's atomic
// commit, and resolves the voter's next workflow stage.
type BallotUseCase struct {
	Elections ports.ElectionRepository
	Voters    ports.VoterRepository
	Votes     ports.VoteStore
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Rand      ports.Rand
	Logger    *slog.Logger
}

// SubmitBatchCommand is one voter's full submission for a batch-style stage
// (approval, ranking, knapsack).
type SubmitBatchCommand struct {
	ElectionSlug string
	VoterID      string
	Method       entities.Method
	Subpage      int
	Costs        map[string]int64 // project id -> submitted cost, 0 = not selected
	Ranks        map[string]int   // project id -> submitted rank
	Locale       string
	Demo         bool
}

// SubmitResult reports where the voter goes next. Constraint violations are
// deliberately indistinguishable from success in the redirect: the ballot is
// rolled back and the voter moves forward with no feedback.
type SubmitResult struct {
	Outcome     ports.CommitOutcome
	NextStage   entities.Stage
	NextSubpage int
}

// SubmitBatch validates and atomically commits a batch ballot. Submissions
// from test voters, demo sessions, and elections that stopped accepting
// votes run no durable writes but still progress the workflow.
func (uc BallotUseCase) SubmitBatch(ctx context.Context, cmd SubmitBatchCommand) (SubmitResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	election, err := uc.Elections.GetElectionBySlug(ctx, cmd.ElectionSlug)
	if err != nil {
		return SubmitResult{}, err
	}
	method, ok := voting.ForName(cmd.Method)
	if !ok {
		return SubmitResult{}, domainerrors.ErrInvalidBallotInput
	}
	rules := election.RulesFor(cmd.Method)

	var voter entities.Voter
	if cmd.VoterID != "" {
		voter, err = uc.Voters.GetVoter(ctx, cmd.VoterID)
		if err != nil {
			return SubmitResult{}, err
		}
	}

	outcome := ports.CommitSkipped
	if voter.VoterID != "" && !voter.Test && !cmd.Demo && !election.StopAcceptingVotes {
		outcome, err = uc.commitBatch(ctx, election, voter, method, rules, cmd)
		if err != nil {
			return SubmitResult{}, err
		}
		if outcome == ports.CommitCommitted && cmd.Locale != "" {
			// Record the language the voter is using.
			locale := application.ResolveLocale(election, cmd.Locale)
			if err := uc.Voters.UpdateVoterData(ctx, voter.VoterID, map[string]any{"locale": locale}); err != nil {
				return SubmitResult{}, err
			}
		}
	}

	// Approval pages advance subpage by subpage; the other methods always
	// move to the next workflow slot.
	if cmd.Method == entities.MethodApproval && cmd.Subpage < len(rules.Pages)-1 {
		return SubmitResult{
			Outcome:     outcome,
			NextStage:   entities.StageApproval,
			NextSubpage: cmd.Subpage + 1,
		}, nil
	}
	next, err := uc.nextStage(ctx, election, voter, entities.Stage(cmd.Method))
	if err != nil {
		return SubmitResult{}, err
	}
	logger.Info("ballot submission handled",
		"event", "ballot_submit_handled",
		"module", "participation/ballot-engine",
		"layer", "application",
		"election", election.Slug,
		"voter_id", cmd.VoterID,
		"method", string(cmd.Method),
		"outcome", string(outcome),
		"next_stage", string(next),
	)
	return SubmitResult{Outcome: outcome, NextStage: next}, nil
}

func (uc BallotUseCase) commitBatch(
	ctx context.Context,
	election entities.Election,
	voter entities.Voter,
	method voting.Method,
	rules entities.MethodRules,
	cmd SubmitBatchCommand,
) (ports.CommitOutcome, error) {
	logger := application.ResolveLogger(uc.Logger)

	projects, err := uc.Elections.ListProjects(ctx, election.ElectionID)
	if err != nil {
		return "", err
	}
	ballot := voting.Ballot{Costs: cmd.Costs, Ranks: cmd.Ranks}
	selections := method.Select(projects, ballot)

	records := make([]ports.BallotRecord, 0, len(selections))
	for _, sel := range selections {
		record := ports.BallotRecord{ProjectID: sel.Project.ProjectID, Cost: sel.Cost}
		if cmd.Method == entities.MethodRanking || rules.ProjectRanking {
			record.Rank = sel.Rank
		}
		records = append(records, record)
	}

	scope, err := uc.scopeFor(ctx, election, cmd.Method, rules, cmd.Subpage, projects)
	if err != nil {
		return "", err
	}

	outcome, err := uc.Votes.CommitBatch(ctx, voter, scope, records, func() error {
		return method.Validate(election, rules, selections)
	})
	if err != nil {
		if domainerrors.IsConstraintViolation(err) {
			// The ballot is discarded and the voter redirected forward with
			// no feedback; the reason is only logged.
			logger.Warn("ballot rejected by constraint validator",
				"event", "ballot_constraint_rejected",
				"module", "participation/ballot-engine",
				"layer", "application",
				"election", election.Slug,
				"voter_id", voter.VoterID,
				"method", string(cmd.Method),
				"reason", err.Error(),
			)
			return ports.CommitRejected, nil
		}
		return "", err
	}
	return outcome, nil
}

// scopeFor bounds the duplicate guard: approval and ranking revote once per
// distinct page group, knapsack once per election.
func (uc BallotUseCase) scopeFor(
	ctx context.Context,
	election entities.Election,
	methodName entities.Method,
	rules entities.MethodRules,
	subpage int,
	projects []entities.Project,
) (ports.Scope, error) {
	scope := ports.Scope{Method: methodName}
	if methodName == entities.MethodKnapsack {
		return scope, nil
	}

	group := rules.PageGroup(subpage)
	if group == "" {
		for _, project := range projects {
			scope.ProjectIDs = append(scope.ProjectIDs, project.ProjectID)
		}
		return scope, nil
	}

	categories, err := uc.Elections.ListCategories(ctx, election.ElectionID)
	if err != nil {
		return ports.Scope{}, err
	}
	inGroup := make(map[string]bool, len(categories))
	for _, category := range categories {
		if category.CategoryGroup == group {
			inGroup[category.CategoryID] = true
		}
	}
	for _, project := range projects {
		if inGroup[project.CategoryID] {
			scope.ProjectIDs = append(scope.ProjectIDs, project.ProjectID)
		}
	}
	return scope, nil
}

// SubmitComparisonCommand is a single pairwise comparison submission.
type SubmitComparisonCommand struct {
	ElectionSlug      string
	VoterID           string
	FirstProjectID    string
	FirstProjectCost  int64
	SecondProjectID   string
	SecondProjectCost int64
	Result            entities.ComparisonResult
	Demo              bool
}

// SubmitComparison records one pair result. Once the configured pair count
// is reached, further submissions succeed without writing anything.
func (uc BallotUseCase) SubmitComparison(ctx context.Context, cmd SubmitComparisonCommand) (ports.CommitOutcome, error) {
	switch cmd.Result {
	case entities.ComparisonFirstWon, entities.ComparisonSecondWon, entities.ComparisonTie:
	default:
		return "", domainerrors.ErrInvalidBallotInput
	}
	if cmd.FirstProjectID == "" || cmd.SecondProjectID == "" {
		return "", domainerrors.ErrInvalidBallotInput
	}

	election, err := uc.Elections.GetElectionBySlug(ctx, cmd.ElectionSlug)
	if err != nil {
		return "", err
	}
	rules := election.RulesFor(entities.MethodComparison)

	var voter entities.Voter
	if cmd.VoterID != "" {
		voter, err = uc.Voters.GetVoter(ctx, cmd.VoterID)
		if err != nil {
			return "", err
		}
	}

	// The pair cap applies to every session, test voters included, before
	// deciding whether the record may be durably written.
	existing := 0
	if voter.VoterID != "" {
		existing, err = uc.Votes.CountComparisons(ctx, voter.VoterID)
		if err != nil {
			return "", err
		}
	}
	if !(voting.Comparison{}).Allowed(rules, existing) {
		return ports.CommitDuplicate, nil
	}
	if voter.VoterID == "" || voter.Test || cmd.Demo || election.StopAcceptingVotes {
		return ports.CommitSkipped, nil
	}

	recordID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return "", err
	}
	return uc.Votes.CommitComparison(ctx, voter, entities.VoteComparison{
		RecordID:          recordID,
		VoterID:           voter.VoterID,
		FirstProjectID:    cmd.FirstProjectID,
		FirstProjectCost:  cmd.FirstProjectCost,
		SecondProjectID:   cmd.SecondProjectID,
		SecondProjectCost: cmd.SecondProjectCost,
		Result:            cmd.Result,
		CreatedAt:         uc.now(),
	}, rules.NPairs)
}

func (uc BallotUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
