package httpadapter

import (
	"context"
	"log/slog"

	"civicvote/contexts/participation/ballot-engine/application/commands"
	"civicvote/contexts/participation/ballot-engine/application/queries"
	"civicvote/contexts/participation/ballot-engine/domain/entities"
	httptransport "civicvote/contexts/participation/ballot-engine/transport/http"
)

type Handler struct {
	Ballots commands.BallotUseCase
	Pages   queries.PageUseCase
	Results queries.ResultsUseCase
	Logger  *slog.Logger
}

func (h Handler) EnterStageHandler(
	ctx context.Context,
	slug string,
	voterID string,
	stage string,
	demo bool,
) (httptransport.EnterStageResponse, error) {
	result, err := h.Ballots.EnterStage(ctx, commands.EnterStageCommand{
		ElectionSlug: slug,
		VoterID:      voterID,
		Stage:        entities.Stage(stage),
		Demo:         demo,
	})
	if err != nil {
		return httptransport.EnterStageResponse{}, err
	}
	return httptransport.EnterStageResponse{
		Allowed:  result.Allowed,
		Redirect: string(result.Redirect),
	}, nil
}

func (h Handler) SubmitBatchHandler(
	ctx context.Context,
	slug string,
	voterID string,
	method string,
	demo bool,
	req httptransport.SubmitBatchRequest,
) (httptransport.SubmitBatchResponse, error) {
	result, err := h.Ballots.SubmitBatch(ctx, commands.SubmitBatchCommand{
		ElectionSlug: slug,
		VoterID:      voterID,
		Method:       entities.Method(method),
		Subpage:      req.Subpage,
		Costs:        req.ProjectCosts,
		Ranks:        req.ProjectRanks,
		Locale:       req.Locale,
		Demo:         demo,
	})
	if err != nil {
		return httptransport.SubmitBatchResponse{}, err
	}
	return httptransport.SubmitBatchResponse{
		NextStage:   string(result.NextStage),
		NextSubpage: result.NextSubpage,
	}, nil
}

func (h Handler) SubmitComparisonHandler(
	ctx context.Context,
	slug string,
	voterID string,
	demo bool,
	req httptransport.SubmitComparisonRequest,
) error {
	_, err := h.Ballots.SubmitComparison(ctx, commands.SubmitComparisonCommand{
		ElectionSlug:      slug,
		VoterID:           voterID,
		FirstProjectID:    req.FirstProjectID,
		FirstProjectCost:  req.FirstProjectCost,
		SecondProjectID:   req.SecondProjectID,
		SecondProjectCost: req.SecondProjectCost,
		Result:            entities.ComparisonResult(req.Result),
		Demo:              demo,
	})
	return err
}

func (h Handler) StagePageHandler(
	ctx context.Context,
	slug string,
	voterID string,
	method string,
	subpage int,
) (queries.StagePageView, error) {
	return h.Pages.StagePage(ctx, slug, voterID, entities.Method(method), subpage)
}

func (h Handler) ComparisonPageHandler(ctx context.Context, slug string) (queries.ComparisonPageView, error) {
	return h.Pages.ComparisonPage(ctx, slug)
}

func (h Handler) ResultsHandler(ctx context.Context, slug string) (httptransport.ResultsResponse, error) {
	results, err := h.Results.ElectionResults(ctx, slug)
	if err != nil {
		return httptransport.ResultsResponse{}, err
	}
	resp := httptransport.ResultsResponse{
		MaxApprovalVoteCount: results.MaxApprovalVoteCount,
	}
	for _, item := range results.FixedCost {
		resp.Projects = append(resp.Projects, httptransport.FixedCostResult{
			ProjectID: item.ProjectID,
			Title:     item.Title,
			Cost:      item.Cost,
			VoteCount: item.VoteCount,
		})
	}
	for _, item := range results.AdjustableCost {
		resp.AdjustableProjects = append(resp.AdjustableProjects, httptransport.AdjustableCostResult{
			ProjectID:    item.ProjectID,
			Title:        item.Title,
			VoteCounts:   item.VoteCounts,
			MaxVoteCount: item.MaxVoteCount,
			AverageCost:  item.AverageCost,
			MedianCost:   item.MedianCost,
		})
	}
	return resp, nil
}
