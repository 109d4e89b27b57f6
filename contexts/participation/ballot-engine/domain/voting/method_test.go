package voting

import (
	"errors"
	"testing"

	"civicvote/contexts/participation/ballot-engine/domain/entities"
	domainerrors "civicvote/contexts/participation/ballot-engine/domain/errors"
)

func projects(ids ...string) []entities.Project {
	out := make([]entities.Project, 0, len(ids))
	for _, id := range ids {
		out = append(out, entities.Project{ProjectID: id, Title: id})
	}
	return out
}

func TestApprovalBudgetCap(t *testing.T) {
	election := entities.Election{Budget: 100}
	rules := entities.MethodRules{HasBudgetLimit: true}
	method := Approval{}

	over := method.Select(projects("a", "b"), Ballot{Costs: map[string]int64{"a": 60, "b": 50}})
	if err := method.Validate(election, rules, over); !errors.Is(err, domainerrors.ErrBudgetExceeded) {
		t.Fatalf("110 against budget 100: err = %v, want ErrBudgetExceeded", err)
	}

	exact := method.Select(projects("a", "b"), Ballot{Costs: map[string]int64{"a": 60, "b": 40}})
	if err := method.Validate(election, rules, exact); err != nil {
		t.Fatalf("exact budget rejected: %v", err)
	}
}

func TestApprovalProjectCountSkipsMandatory(t *testing.T) {
	election := entities.Election{Budget: 1000}
	rules := entities.MethodRules{HasProjectLimit: true, MinProjects: 1, MaxProjects: 2}
	method := Approval{}

	all := []entities.Project{
		{ProjectID: "a"},
		{ProjectID: "b"},
		{ProjectID: "m", Mandatory: true},
	}
	ballot := Ballot{Costs: map[string]int64{"a": 10, "b": 10, "m": 10}}

	// Two optional projects plus a mandatory one stays within max 2.
	if err := method.Validate(election, rules, method.Select(all, ballot)); err != nil {
		t.Fatalf("mandatory project counted toward the limit: %v", err)
	}

	three := append(all, entities.Project{ProjectID: "c"})
	ballot.Costs["c"] = 10
	err := method.Validate(election, rules, method.Select(three, ballot))
	if !errors.Is(err, domainerrors.ErrProjectCountBounds) {
		t.Fatalf("three optional selections: err = %v, want ErrProjectCountBounds", err)
	}
}

func TestRankingPermutation(t *testing.T) {
	method := Ranking{}
	rules := entities.MethodRules{}
	ps := projects("a", "b", "c")

	cases := []struct {
		name  string
		ranks map[string]int
		valid bool
	}{
		{"contiguous permutation", map[string]int{"a": 2, "b": 1, "c": 3}, true},
		{"duplicate rank", map[string]int{"a": 1, "b": 1}, false},
		{"gap in ranks", map[string]int{"a": 1, "b": 3}, false},
		{"single project", map[string]int{"a": 1}, true},
		{"empty ballot", map[string]int{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			selections := method.Select(ps, Ballot{Ranks: tc.ranks})
			err := method.Validate(entities.Election{}, rules, selections)
			if tc.valid && err != nil {
				t.Fatalf("valid ranking rejected: %v", err)
			}
			if !tc.valid && !errors.Is(err, domainerrors.ErrInvalidRanking) {
				t.Fatalf("err = %v, want ErrInvalidRanking", err)
			}
		})
	}
}

func TestKnapsackBudgetCap(t *testing.T) {
	election := entities.Election{Budget: 100}
	rules := entities.MethodRules{HasBudgetLimit: true}
	method := Knapsack{}
	ps := projects("a", "b")

	over := method.Select(ps, Ballot{Costs: map[string]int64{"a": 60, "b": 50}})
	if err := method.Validate(election, rules, over); !errors.Is(err, domainerrors.ErrBudgetExceeded) {
		t.Fatalf("110 against budget 100: err = %v, want ErrBudgetExceeded", err)
	}

	exact := method.Select(ps, Ballot{Costs: map[string]int64{"a": 50, "b": 50}})
	if err := method.Validate(election, rules, exact); err != nil {
		t.Fatalf("exact budget rejected: %v", err)
	}
}

func TestComparisonPairCap(t *testing.T) {
	rules := entities.MethodRules{NPairs: 5}
	method := Comparison{}

	if !method.Allowed(rules, 4) {
		t.Fatal("5th pair rejected below the cap")
	}
	if method.Allowed(rules, 5) {
		t.Fatal("6th pair allowed at the cap")
	}
}

func TestForName(t *testing.T) {
	for _, name := range []entities.Method{entities.MethodApproval, entities.MethodRanking, entities.MethodKnapsack} {
		if _, ok := ForName(name); !ok {
			t.Fatalf("no method for %q", name)
		}
	}
	if _, ok := ForName(entities.Method("plurality")); ok {
		t.Fatal("unknown method resolved")
	}
}
