package queries

import (
	"context"
	"log/slog"
	"sort"

	"civicvote/contexts/participation/ballot-engine/domain/entities"
	domainerrors "civicvote/contexts/participation/ballot-engine/domain/errors"
	"civicvote/contexts/participation/ballot-engine/ports"
)

// ResultsUseCase aggregates committed vote records into the public results
// view. It reads only durable state and never touches the in-flight
// validation path.
type ResultsUseCase struct {
	Elections ports.ElectionRepository
	Votes     ports.ResultsReader
	Logger    *slog.Logger
}

// FixedCostResult is the public tally of one fixed-cost project.
type FixedCostResult struct {
	ProjectID string
	Title     string
	Cost      int64
	VoteCount int
}

// AdjustableCostResult is the cost-distribution view of one adjustable-cost
// project. AverageCost and MedianCost are nil when no voters are counted.
type AdjustableCostResult struct {
	ProjectID    string
	Title        string
	VoteCounts   map[int64]int
	MaxVoteCount int
	AverageCost  *float64
	MedianCost   *int64
}

// ElectionResults is the aggregate returned by the public results endpoint.
type ElectionResults struct {
	FixedCost            []FixedCostResult
	MaxApprovalVoteCount int
	AdjustableCost       []AdjustableCostResult
}

// ElectionResults tabulates per-project vote counts and adjustable-cost
// histograms for an election. Elections without the public-results flag
// yield ErrResultsNotPublic, which callers surface as not-found.
func (uc ResultsUseCase) ElectionResults(ctx context.Context, slug string) (ElectionResults, error) {
	election, err := uc.Elections.GetElectionBySlug(ctx, slug)
	if err != nil {
		return ElectionResults{}, err
	}
	if !election.ShowPublicResults {
		return ElectionResults{}, domainerrors.ErrResultsNotPublic
	}
	if _, ok := election.Workflow.Index(entities.StageApproval); !ok {
		if _, ok := election.Workflow.Index(entities.StageRanking); !ok {
			return ElectionResults{}, nil
		}
	}

	projects, err := uc.Elections.ListProjects(ctx, election.ElectionID)
	if err != nil {
		return ElectionResults{}, err
	}
	approvals, err := uc.Votes.ListCommittedApprovals(ctx, election.ElectionID)
	if err != nil {
		return ElectionResults{}, err
	}

	// At most one record exists per (voter, project), so a plain count is a
	// distinct-voter count.
	votesByProject := make(map[string]int)
	costCounts := make(map[string]map[int64]int)
	for _, record := range approvals {
		votesByProject[record.ProjectID]++
		counts := costCounts[record.ProjectID]
		if counts == nil {
			counts = make(map[int64]int)
			costCounts[record.ProjectID] = counts
		}
		counts[record.Cost]++
	}

	results := ElectionResults{}
	hasAdjustable := false
	for _, project := range projects {
		if project.AdjustableCost {
			hasAdjustable = true
			continue
		}
		count := votesByProject[project.ProjectID] + project.ExternalVoteCount
		results.FixedCost = append(results.FixedCost, FixedCostResult{
			ProjectID: project.ProjectID,
			Title:     project.Title,
			Cost:      project.Cost,
			VoteCount: count,
		})
		if count > results.MaxApprovalVoteCount {
			results.MaxApprovalVoteCount = count
		}
	}
	sort.Slice(results.FixedCost, func(i, j int) bool {
		if results.FixedCost[i].VoteCount == results.FixedCost[j].VoteCount {
			return results.FixedCost[i].Title < results.FixedCost[j].Title
		}
		return results.FixedCost[i].VoteCount > results.FixedCost[j].VoteCount
	})

	if !hasAdjustable {
		return results, nil
	}

	eligible, err := uc.Votes.CountEligibleVoters(ctx, election.ElectionID)
	if err != nil {
		return ElectionResults{}, err
	}
	for _, project := range projects {
		if !project.AdjustableCost {
			continue
		}
		item, err := tabulateAdjustable(project, costCounts[project.ProjectID], eligible)
		if err != nil {
			return ElectionResults{}, err
		}
		results.AdjustableCost = append(results.AdjustableCost, item)
	}
	return results, nil
}

func tabulateAdjustable(
	project entities.Project,
	recorded map[int64]int,
	eligibleVoters int,
) (AdjustableCostResult, error) {
	counts := make(map[int64]int, len(recorded))
	total := 0
	for cost, count := range recorded {
		counts[cost] = count
		total += count
	}

	// A zero-cost choice is never stored; when the project allows it, the
	// zero bucket is derived from the eligible-voter total. A stored zero
	// record would double-count, so it is a hard error.
	if project.CostMin == 0 {
		if _, ok := counts[0]; ok {
			return AdjustableCostResult{}, domainerrors.ErrZeroCostRecord
		}
		counts[0] = eligibleVoters - total
	}

	// Discrete-option projects show every valid step, including the ones
	// nobody picked.
	if !project.UsesSlider && project.CostStep > 0 {
		for cost := project.CostMin; cost <= project.CostMax; cost += project.CostStep {
			if _, ok := counts[cost]; !ok {
				counts[cost] = 0
			}
		}
	}

	item := AdjustableCostResult{
		ProjectID:  project.ProjectID,
		Title:      project.Title,
		VoteCounts: counts,
	}
	for _, count := range counts {
		if count > item.MaxVoteCount {
			item.MaxVoteCount = count
		}
	}
	if eligibleVoters > 0 {
		var weighted int64
		for cost, count := range counts {
			weighted += cost * int64(count)
		}
		average := float64(weighted) / float64(eligibleVoters)
		item.AverageCost = &average
	}
	item.MedianCost = medianCost(counts)
	return item, nil
}

// medianCost is the lower median over the histogram: the cost at position
// floor((n-1)/2) of the expanded, ascending cost sequence.
func medianCost(counts map[int64]int) *int64 {
	n := 0
	costs := make([]int64, 0, len(counts))
	for cost, count := range counts {
		// The derived zero bucket can go negative when eligible voters are
		// miscounted; treat it as empty rather than corrupting the walk.
		if count > 0 {
			n += count
		}
		costs = append(costs, cost)
	}
	if n == 0 {
		return nil
	}
	sort.Slice(costs, func(i, j int) bool { return costs[i] < costs[j] })

	target := (n - 1) / 2
	cumulative := 0
	for _, cost := range costs {
		if counts[cost] > 0 {
			cumulative += counts[cost]
		}
		if cumulative > target {
			median := cost
			return &median
		}
	}
	return nil
}
