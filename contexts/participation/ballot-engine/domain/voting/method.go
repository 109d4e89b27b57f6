// Package voting holds the per-method constraint validators. Each method is
// a pure capability over the submitted ballot and the election's rule
// configuration; durable-state concerns (duplicate scopes, pair caps) live
// with the vote store.
package voting

import (
	"sort"

	"civicvote/contexts/participation/ballot-engine/domain/entities"
	domainerrors "civicvote/contexts/participation/ballot-engine/domain/errors"
)

// Ballot is one voter's full submission for a batch-style stage: a
// per-project cost mapping (0 = not selected) and an optional per-project
// rank mapping.
type Ballot struct {
	Costs map[string]int64
	Ranks map[string]int
}

// Selection is one project picked out of a ballot.
type Selection struct {
	Project entities.Project
	Cost    int64
	Rank    int
}

// Method is the polymorphic voting-method capability shared by the
// batch-style stages. Select extracts the chosen records in election project
// order; Validate checks the accumulated constraints and returns a
// constraint-violation error on failure.
type Method interface {
	Name() entities.Method
	Select(projects []entities.Project, ballot Ballot) []Selection
	Validate(election entities.Election, rules entities.MethodRules, selections []Selection) error
}

// ForName dispatches on election configuration, not on per-handler
// conditionals.
func ForName(name entities.Method) (Method, bool) {
	switch name {
	case entities.MethodApproval:
		return Approval{}, true
	case entities.MethodRanking:
		return Ranking{}, true
	case entities.MethodKnapsack:
		return Knapsack{}, true
	default:
		return nil, false
	}
}

// Approval selects every project with a nonzero submitted cost and enforces
// the budget cap, the non-mandatory project-count bounds, and, when the
// election ranks approval ballots, rank contiguity.
type Approval struct{}

func (Approval) Name() entities.Method { return entities.MethodApproval }

func (Approval) Select(projects []entities.Project, ballot Ballot) []Selection {
	return selectByCost(projects, ballot)
}

func (Approval) Validate(election entities.Election, rules entities.MethodRules, selections []Selection) error {
	var totalCost int64
	nProjects := 0
	ranks := make([]int, 0, len(selections))
	for _, sel := range selections {
		totalCost += sel.Cost
		if !sel.Project.Mandatory {
			nProjects++
		}
		if rules.ProjectRanking {
			ranks = append(ranks, sel.Rank)
		}
	}
	if rules.HasBudgetLimit && totalCost > election.Budget {
		return domainerrors.ErrBudgetExceeded
	}
	if rules.HasProjectLimit && (nProjects > rules.MaxProjects || nProjects < rules.MinProjects) {
		return domainerrors.ErrProjectCountBounds
	}
	if rules.ProjectRanking && !contiguousRanks(ranks) {
		return domainerrors.ErrInvalidRanking
	}
	return nil
}

// Ranking selects every positively-ranked project. Cost is recorded but
// plays no part in the arithmetic; ranks must always form a 1..k
// permutation.
type Ranking struct{}

func (Ranking) Name() entities.Method { return entities.MethodRanking }

func (Ranking) Select(projects []entities.Project, ballot Ballot) []Selection {
	selections := make([]Selection, 0, len(ballot.Ranks))
	for _, project := range projects {
		rank := ballot.Ranks[project.ProjectID]
		if rank > 0 {
			selections = append(selections, Selection{
				Project: project,
				Cost:    ballot.Costs[project.ProjectID],
				Rank:    rank,
			})
		}
	}
	return selections
}

func (Ranking) Validate(_ entities.Election, rules entities.MethodRules, selections []Selection) error {
	ranks := make([]int, 0, len(selections))
	for _, sel := range selections {
		ranks = append(ranks, sel.Rank)
	}
	if rules.HasProjectLimit && (len(selections) > rules.MaxProjects || len(selections) < rules.MinProjects) {
		return domainerrors.ErrProjectCountBounds
	}
	if !contiguousRanks(ranks) {
		return domainerrors.ErrInvalidRanking
	}
	return nil
}

// Knapsack selects every project with a nonzero submitted cost; the whole
// election is one ballot, so the budget cap applies across all selections.
type Knapsack struct{}

func (Knapsack) Name() entities.Method { return entities.MethodKnapsack }

func (Knapsack) Select(projects []entities.Project, ballot Ballot) []Selection {
	return selectByCost(projects, ballot)
}

func (Knapsack) Validate(election entities.Election, rules entities.MethodRules, selections []Selection) error {
	var totalCost int64
	for _, sel := range selections {
		totalCost += sel.Cost
	}
	if rules.HasBudgetLimit && totalCost > election.Budget {
		return domainerrors.ErrBudgetExceeded
	}
	if rules.HasProjectLimit && (len(selections) > rules.MaxProjects || len(selections) < rules.MinProjects) {
		return domainerrors.ErrProjectCountBounds
	}
	return nil
}

// Comparison is stateless per pair; the only rule is the per-voter pair cap,
// checked against the count of already-committed comparisons. At the cap,
// further submissions are a silent no-op rather than an error.
type Comparison struct{}

func (Comparison) Name() entities.Method { return entities.MethodComparison }

// Allowed reports whether another pair may be recorded for a voter who has
// already committed existing pairs.
func (Comparison) Allowed(rules entities.MethodRules, existing int) bool {
	return existing < rules.NPairs
}

func selectByCost(projects []entities.Project, ballot Ballot) []Selection {
	selections := make([]Selection, 0, len(ballot.Costs))
	for _, project := range projects {
		cost := ballot.Costs[project.ProjectID]
		if cost != 0 {
			selections = append(selections, Selection{
				Project: project,
				Cost:    cost,
				Rank:    ballot.Ranks[project.ProjectID],
			})
		}
	}
	return selections
}

// contiguousRanks reports whether ranks, sorted, are exactly the
// permutation 1..k.
func contiguousRanks(ranks []int) bool {
	sorted := append([]int(nil), ranks...)
	sort.Ints(sorted)
	for i, rank := range sorted {
		if rank != i+1 {
			return false
		}
	}
	return true
}
