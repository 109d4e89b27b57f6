package entities

// Stage is a named step in an election's configured workflow.
type Stage string

const (
	// StageHome is the sentinel for "voter has not started the workflow".
	StageHome           Stage = "home"
	StageApproval       Stage = "approval"
	StageRanking        Stage = "ranking"
	StageKnapsack       Stage = "knapsack"
	StageComparison     Stage = "comparison"
	StageSurvey         Stage = "survey"
	StageThanksApproval Stage = "thanks_approval"
	StageThanks         Stage = "thanks"
	StageDone           Stage = "done"
)

// WorkflowSlot is one step in the workflow. A slot with more than one
// alternative is resolved to a single stage per voter, uniformly at random,
// and the choice is persisted so re-entry is deterministic.
type WorkflowSlot struct {
	Alternatives []Stage
}

// Fixed reports whether the slot admits exactly one stage.
func (s WorkflowSlot) Fixed() bool {
	return len(s.Alternatives) == 1
}

// Contains reports whether the slot can resolve to the given stage.
func (s WorkflowSlot) Contains(stage Stage) bool {
	for _, alt := range s.Alternatives {
		if alt == stage {
			return true
		}
	}
	return false
}

// Workflow is the ordered stage sequence of an election.
type Workflow []WorkflowSlot

// Index returns the slot index containing the given stage, or false when the
// stage is not part of the workflow at all.
func (w Workflow) Index(stage Stage) (int, bool) {
	for i, slot := range w {
		if slot.Contains(stage) {
			return i, true
		}
	}
	return 0, false
}

// Method identifies a voting method of the workflow.
type Method string

const (
	MethodApproval   Method = "approval"
	MethodRanking    Method = "ranking"
	MethodKnapsack   Method = "knapsack"
	MethodComparison Method = "comparison"
)

// MethodRules is the per-method rule configuration of an election.
type MethodRules struct {
	HasBudgetLimit   bool
	HasProjectLimit  bool
	MinProjects      int
	MaxProjects      int
	ProjectRanking   bool
	Pages            []string // category-group identifier per approval subpage
	NPairs           int      // comparison only
	ShuffleProjects  bool
	ShuffleChance    float64
}

// PageGroup returns the category-group identifier for a subpage. Elections
// without page groups use the empty group, which spans all categories.
func (r MethodRules) PageGroup(subpage int) string {
	if subpage < 0 || subpage >= len(r.Pages) {
		return ""
	}
	return r.Pages[subpage]
}

// Election is the immutable per-election descriptor.
type Election struct {
	ElectionID    string
	Slug          string
	Budget        int64 // currency-minor-unit agnostic
	Workflow      Workflow
	Rules         map[Method]MethodRules
	Locales       []string
	DefaultLocale string

	AllowRemoteVoting            bool
	RemoteVotingSMSVerification  bool
	RemoteVotingCodeVerification bool
	RemoteVotingOtherVerification bool
	StopAcceptingVotes           bool
	ShowPublicResults            bool
	VoterRegistration            bool
	SendVoteSMS                  bool
	RegistrationQuestions        []string
	ExternalRedirectURL          string
}

// RulesFor returns the rule configuration for a method, zero-valued when the
// election does not configure the method.
func (e Election) RulesFor(method Method) MethodRules {
	if e.Rules == nil {
		return MethodRules{}
	}
	return e.Rules[method]
}

// Category groups projects; page groups address categories by CategoryGroup.
type Category struct {
	CategoryID    string
	ElectionID    string
	Name          string
	CategoryGroup string
	SortOrder     int
}

// Project belongs to exactly one election. Adjustable-cost projects carry a
// voter-chosen funding level between CostMin and CostMax in CostStep
// increments; fixed-cost projects use Cost.
type Project struct {
	ProjectID  string
	ElectionID string
	CategoryID string
	Title      string
	Cost       int64
	Mandatory  bool

	AdjustableCost bool
	CostMin        int64
	CostMax        int64
	CostStep       int64
	UsesSlider     bool

	// ExternalVoteCount offsets the public tally with votes collected
	// outside the platform (paper ballots).
	ExternalVoteCount int
}
