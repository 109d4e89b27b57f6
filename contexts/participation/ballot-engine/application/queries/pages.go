package queries

import (
	"context"
	"log/slog"
	"sort"

	"civicvote/contexts/participation/ballot-engine/domain/entities"
	"civicvote/contexts/participation/ballot-engine/ports"
)

// PageUseCase projects election data for the presentation collaborator. It
// takes no part in validation.
type PageUseCase struct {
	Elections ports.ElectionRepository
	Voters    ports.VoterRepository
	Rand      ports.Rand
	Logger    *slog.Logger
}

// ProjectView carries the projected project fields a stage page needs.
type ProjectView struct {
	ProjectID      string `json:"id"`
	Title          string `json:"title"`
	Cost           int64  `json:"cost"`
	CostMin        int64  `json:"cost_min,omitempty"`
	CostMax        int64  `json:"cost_max,omitempty"`
	CostStep       int64  `json:"cost_step,omitempty"`
	AdjustableCost bool   `json:"adjustable_cost"`
	UsesSlider     bool   `json:"uses_slider,omitempty"`
	Mandatory      bool   `json:"mandatory"`
	CategoryID     string `json:"category_id,omitempty"`
}

// CategoryView is an ordered category grouping for one page.
type CategoryView struct {
	CategoryID string `json:"id"`
	Name       string `json:"name"`
}

// StagePageView is the payload for a batch-style voting page.
type StagePageView struct {
	Stage      entities.Stage `json:"stage"`
	Subpage    int            `json:"subpage"`
	Projects   []ProjectView  `json:"projects"`
	Categories []CategoryView `json:"categories"`
	Shuffled   bool           `json:"shuffled"`
}

// StagePage loads the project list and category groupings for a voting
// stage. When the election shuffles projects, the shuffle decision is
// recorded in the voter's data so analysis can correlate it with ballots.
func (uc PageUseCase) StagePage(
	ctx context.Context,
	slug string,
	voterID string,
	method entities.Method,
	subpage int,
) (StagePageView, error) {
	election, err := uc.Elections.GetElectionBySlug(ctx, slug)
	if err != nil {
		return StagePageView{}, err
	}
	rules := election.RulesFor(method)

	projects, err := uc.Elections.ListProjects(ctx, election.ElectionID)
	if err != nil {
		return StagePageView{}, err
	}
	categories, err := uc.Elections.ListCategories(ctx, election.ElectionID)
	if err != nil {
		return StagePageView{}, err
	}

	group := rules.PageGroup(subpage)
	view := StagePageView{Stage: entities.Stage(method), Subpage: subpage}
	view.Shuffled = rules.ShuffleProjects && uc.Rand.Float64() < rules.ShuffleChance
	if voterID != "" {
		if err := uc.Voters.UpdateVoterData(ctx, voterID, map[string]any{"shuffled": view.Shuffled}); err != nil {
			return StagePageView{}, err
		}
	}

	inGroup := make(map[string]bool, len(categories))
	sort.Slice(categories, func(i, j int) bool { return categories[i].SortOrder < categories[j].SortOrder })
	for _, category := range categories {
		if group != "" && category.CategoryGroup != group {
			continue
		}
		inGroup[category.CategoryID] = true
		view.Categories = append(view.Categories, CategoryView{
			CategoryID: category.CategoryID,
			Name:       category.Name,
		})
	}
	for _, project := range projects {
		if group != "" && !inGroup[project.CategoryID] {
			continue
		}
		view.Projects = append(view.Projects, projectView(project))
	}
	if view.Shuffled {
		uc.shuffleProjects(view.Projects)
	}
	return view, nil
}

// ComparisonPageView is the payload for the pairwise-comparison page.
type ComparisonPageView struct {
	Pairs [][2]ProjectView `json:"pairs"`
}

// ComparisonPage samples the configured number of random project pairs from
// the election's fixed-cost projects, shuffling the order within each pair.
// The platform does not retain the issued pairs server-side; submissions are
// not re-verified against them.
func (uc PageUseCase) ComparisonPage(ctx context.Context, slug string) (ComparisonPageView, error) {
	election, err := uc.Elections.GetElectionBySlug(ctx, slug)
	if err != nil {
		return ComparisonPageView{}, err
	}
	rules := election.RulesFor(entities.MethodComparison)

	projects, err := uc.Elections.ListProjects(ctx, election.ElectionID)
	if err != nil {
		return ComparisonPageView{}, err
	}
	fixed := make([]ProjectView, 0, len(projects))
	for _, project := range projects {
		if !project.AdjustableCost {
			fixed = append(fixed, projectView(project))
		}
	}

	pairs := make([][2]ProjectView, 0, len(fixed)*(len(fixed)-1)/2)
	for i := 0; i < len(fixed); i++ {
		for j := i + 1; j < len(fixed); j++ {
			pairs = append(pairs, [2]ProjectView{fixed[i], fixed[j]})
		}
	}
	for i := len(pairs) - 1; i > 0; i-- {
		j := uc.Rand.Intn(i + 1)
		pairs[i], pairs[j] = pairs[j], pairs[i]
	}
	if rules.NPairs > 0 && len(pairs) > rules.NPairs {
		pairs = pairs[:rules.NPairs]
	}
	for i := range pairs {
		if uc.Rand.Intn(2) == 1 {
			pairs[i][0], pairs[i][1] = pairs[i][1], pairs[i][0]
		}
	}
	return ComparisonPageView{Pairs: pairs}, nil
}

func (uc PageUseCase) shuffleProjects(projects []ProjectView) {
	for i := len(projects) - 1; i > 0; i-- {
		j := uc.Rand.Intn(i + 1)
		projects[i], projects[j] = projects[j], projects[i]
	}
}

func projectView(project entities.Project) ProjectView {
	return ProjectView{
		ProjectID:      project.ProjectID,
		Title:          project.Title,
		Cost:           project.Cost,
		CostMin:        project.CostMin,
		CostMax:        project.CostMax,
		CostStep:       project.CostStep,
		AdjustableCost: project.AdjustableCost,
		UsesSlider:     project.UsesSlider,
		Mandatory:      project.Mandatory,
		CategoryID:     project.CategoryID,
	}
}
