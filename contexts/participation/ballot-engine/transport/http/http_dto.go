package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type EnterStageResponse struct {
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
}

type SubmitBatchRequest struct {
	ProjectCosts map[string]int64 `json:"project_costs"`
	ProjectRanks map[string]int   `json:"project_ranks,omitempty"`
	Subpage      int              `json:"subpage,omitempty"`
	Locale       string           `json:"locale,omitempty"`
}

// SubmitBatchResponse deliberately reveals only where the voter goes next:
// constraint failures and duplicate replays are indistinguishable from a
// committed ballot.
type SubmitBatchResponse struct {
	NextStage   string `json:"next_stage"`
	NextSubpage int    `json:"next_subpage"`
}

type SubmitComparisonRequest struct {
	FirstProjectID    string `json:"first_project_id"`
	FirstProjectCost  int64  `json:"first_project_cost"`
	SecondProjectID   string `json:"second_project_id"`
	SecondProjectCost int64  `json:"second_project_cost"`
	Result            string `json:"result"`
}

type FixedCostResult struct {
	ProjectID string `json:"id"`
	Title     string `json:"title"`
	Cost      int64  `json:"cost"`
	VoteCount int    `json:"vote_count"`
}

type AdjustableCostResult struct {
	ProjectID    string           `json:"id"`
	Title        string           `json:"title"`
	VoteCounts   map[int64]int    `json:"vote_counts"`
	MaxVoteCount int              `json:"max_vote_count"`
	AverageCost  *float64         `json:"average_cost"`
	MedianCost   *int64           `json:"median_cost"`
}

type ResultsResponse struct {
	Projects             []FixedCostResult      `json:"projects"`
	MaxApprovalVoteCount int                    `json:"max_approval_vote_count"`
	AdjustableProjects   []AdjustableCostResult `json:"adjustable_cost_projects,omitempty"`
}
