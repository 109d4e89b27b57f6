package postgresadapter

import (
	"encoding/json"
	"fmt"
	"time"

	"civicvote/contexts/participation/ballot-engine/domain/entities"
)

type electionModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Slug      string    `gorm:"column:slug;uniqueIndex"`
	Budget    int64     `gorm:"column:budget"`
	Config    []byte    `gorm:"column:config;type:jsonb"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (electionModel) TableName() string {
	return "elections"
}

// electionConfig is the JSON shape of the immutable election descriptor
// column.
type electionConfig struct {
	// Workflow slots: one stage name, or several alternatives resolved per
	// voter at random.
	Workflow      [][]string                    `json:"workflow"`
	Rules         map[string]methodRulesConfig  `json:"rules"`
	Locales       []string                      `json:"locales"`
	DefaultLocale string                        `json:"default_locale"`

	AllowRemoteVoting             bool     `json:"allow_remote_voting"`
	RemoteVotingSMSVerification   bool     `json:"remote_voting_sms_verification"`
	RemoteVotingCodeVerification  bool     `json:"remote_voting_code_verification"`
	RemoteVotingOtherVerification bool     `json:"remote_voting_other_verification"`
	StopAcceptingVotes            bool     `json:"stop_accepting_votes"`
	ShowPublicResults             bool     `json:"show_public_results"`
	VoterRegistration             bool     `json:"voter_registration"`
	SendVoteSMS                   bool     `json:"send_vote_sms"`
	RegistrationQuestions         []string `json:"voter_registration_questions"`
	ExternalRedirectURL           string   `json:"external_redirect_url"`
}

type methodRulesConfig struct {
	HasBudgetLimit  bool     `json:"has_budget_limit"`
	HasProjectLimit bool     `json:"has_n_project_limit"`
	MinProjects     int      `json:"min_n_projects"`
	MaxProjects     int      `json:"max_n_projects"`
	ProjectRanking  bool     `json:"project_ranking"`
	Pages           []string `json:"pages"`
	NPairs          int      `json:"n_pairs"`
	ShuffleProjects bool     `json:"shuffle_projects"`
	ShuffleChance   float64  `json:"shuffle_probability"`
}

func (m electionModel) toEntity() (entities.Election, error) {
	var cfg electionConfig
	if len(m.Config) > 0 {
		if err := json.Unmarshal(m.Config, &cfg); err != nil {
			return entities.Election{}, fmt.Errorf("decode election config: %w", err)
		}
	}
	workflow := make(entities.Workflow, 0, len(cfg.Workflow))
	for _, slot := range cfg.Workflow {
		alternatives := make([]entities.Stage, 0, len(slot))
		for _, stage := range slot {
			alternatives = append(alternatives, entities.Stage(stage))
		}
		workflow = append(workflow, entities.WorkflowSlot{Alternatives: alternatives})
	}
	rules := make(map[entities.Method]entities.MethodRules, len(cfg.Rules))
	for name, rc := range cfg.Rules {
		rules[entities.Method(name)] = entities.MethodRules{
			HasBudgetLimit:  rc.HasBudgetLimit,
			HasProjectLimit: rc.HasProjectLimit,
			MinProjects:     rc.MinProjects,
			MaxProjects:     rc.MaxProjects,
			ProjectRanking:  rc.ProjectRanking,
			Pages:           rc.Pages,
			NPairs:          rc.NPairs,
			ShuffleProjects: rc.ShuffleProjects,
			ShuffleChance:   rc.ShuffleChance,
		}
	}
	return entities.Election{
		ElectionID:                    m.ID,
		Slug:                          m.Slug,
		Budget:                        m.Budget,
		Workflow:                      workflow,
		Rules:                         rules,
		Locales:                       cfg.Locales,
		DefaultLocale:                 cfg.DefaultLocale,
		AllowRemoteVoting:             cfg.AllowRemoteVoting,
		RemoteVotingSMSVerification:   cfg.RemoteVotingSMSVerification,
		RemoteVotingCodeVerification:  cfg.RemoteVotingCodeVerification,
		RemoteVotingOtherVerification: cfg.RemoteVotingOtherVerification,
		StopAcceptingVotes:            cfg.StopAcceptingVotes,
		ShowPublicResults:             cfg.ShowPublicResults,
		VoterRegistration:             cfg.VoterRegistration,
		SendVoteSMS:                   cfg.SendVoteSMS,
		RegistrationQuestions:         cfg.RegistrationQuestions,
		ExternalRedirectURL:           cfg.ExternalRedirectURL,
	}, nil
}

type projectModel struct {
	ID                string `gorm:"column:id;primaryKey"`
	ElectionID        string `gorm:"column:election_id;index"`
	CategoryID        string `gorm:"column:category_id"`
	Title             string `gorm:"column:title"`
	Cost              int64  `gorm:"column:cost"`
	Mandatory         bool   `gorm:"column:mandatory"`
	AdjustableCost    bool   `gorm:"column:adjustable_cost"`
	CostMin           int64  `gorm:"column:cost_min"`
	CostMax           int64  `gorm:"column:cost_max"`
	CostStep          int64  `gorm:"column:cost_step"`
	UsesSlider        bool   `gorm:"column:uses_slider"`
	ExternalVoteCount int    `gorm:"column:external_vote_count"`
	SortOrder         int    `gorm:"column:sort_order"`
}

func (projectModel) TableName() string {
	return "projects"
}

func (m projectModel) toEntity() entities.Project {
	return entities.Project{
		ProjectID:         m.ID,
		ElectionID:        m.ElectionID,
		CategoryID:        m.CategoryID,
		Title:             m.Title,
		Cost:              m.Cost,
		Mandatory:         m.Mandatory,
		AdjustableCost:    m.AdjustableCost,
		CostMin:           m.CostMin,
		CostMax:           m.CostMax,
		CostStep:          m.CostStep,
		UsesSlider:        m.UsesSlider,
		ExternalVoteCount: m.ExternalVoteCount,
	}
}

type categoryModel struct {
	ID            string `gorm:"column:id;primaryKey"`
	ElectionID    string `gorm:"column:election_id;index"`
	Name          string `gorm:"column:name"`
	CategoryGroup string `gorm:"column:category_group"`
	SortOrder     int    `gorm:"column:sort_order"`
}

func (categoryModel) TableName() string {
	return "categories"
}

func (m categoryModel) toEntity() entities.Category {
	return entities.Category{
		CategoryID:    m.ID,
		ElectionID:    m.ElectionID,
		Name:          m.Name,
		CategoryGroup: m.CategoryGroup,
		SortOrder:     m.SortOrder,
	}
}

type voterModel struct {
	ID                        string     `gorm:"column:id;primaryKey"`
	ElectionID                string     `gorm:"column:election_id;index"`
	AuthenticationMethod      string     `gorm:"column:authentication_method"`
	AuthenticationID          string     `gorm:"column:authentication_id"`
	Stage                     *string    `gorm:"column:stage"`
	Test                      bool       `gorm:"column:test"`
	Void                      bool       `gorm:"column:void"`
	IPAddress                 string     `gorm:"column:ip_address"`
	UserAgent                 string     `gorm:"column:user_agent"`
	LocationID                string     `gorm:"column:location_id"`
	ConfirmationCode          string     `gorm:"column:confirmation_code"`
	ConfirmationCodeCreatedAt *time.Time `gorm:"column:confirmation_code_created_at"`
	Data                      []byte     `gorm:"column:data;type:jsonb"`
	CreatedAt                 time.Time  `gorm:"column:created_at"`
	UpdatedAt                 time.Time  `gorm:"column:updated_at"`
}

func (voterModel) TableName() string {
	return "voters"
}

func (m voterModel) toEntity() (entities.Voter, error) {
	voter := entities.Voter{
		VoterID:              m.ID,
		ElectionID:           m.ElectionID,
		AuthenticationMethod: m.AuthenticationMethod,
		AuthenticationID:     m.AuthenticationID,
		Test:                 m.Test,
		Void:                 m.Void,
		IPAddress:            m.IPAddress,
		UserAgent:            m.UserAgent,
		LocationID:           m.LocationID,
		ConfirmationCode:     m.ConfirmationCode,
		CreatedAt:            m.CreatedAt.UTC(),
		UpdatedAt:            m.UpdatedAt.UTC(),
	}
	if m.Stage != nil {
		voter.Stage = entities.Stage(*m.Stage)
	}
	if m.ConfirmationCodeCreatedAt != nil {
		voter.ConfirmationCodeCreatedAt = m.ConfirmationCodeCreatedAt.UTC()
	}
	if len(m.Data) > 0 {
		if err := json.Unmarshal(m.Data, &voter.Data); err != nil {
			return entities.Voter{}, fmt.Errorf("decode voter data: %w", err)
		}
	}
	return voter, nil
}

type voteApprovalModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	VoterID   string    `gorm:"column:voter_id;uniqueIndex:idx_vote_approvals_voter_project"`
	ProjectID string    `gorm:"column:project_id;uniqueIndex:idx_vote_approvals_voter_project"`
	Cost      int64     `gorm:"column:cost"`
	Rank      int       `gorm:"column:rank"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (voteApprovalModel) TableName() string {
	return "vote_approvals"
}

type voteKnapsackModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	VoterID   string    `gorm:"column:voter_id;uniqueIndex:idx_vote_knapsacks_voter_project"`
	ProjectID string    `gorm:"column:project_id;uniqueIndex:idx_vote_knapsacks_voter_project"`
	Cost      int64     `gorm:"column:cost"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (voteKnapsackModel) TableName() string {
	return "vote_knapsacks"
}

type voteComparisonModel struct {
	ID                string    `gorm:"column:id;primaryKey"`
	VoterID           string    `gorm:"column:voter_id;index"`
	FirstProjectID    string    `gorm:"column:first_project_id"`
	FirstProjectCost  int64     `gorm:"column:first_project_cost"`
	SecondProjectID   string    `gorm:"column:second_project_id"`
	SecondProjectCost int64     `gorm:"column:second_project_cost"`
	Result            string    `gorm:"column:result"`
	CreatedAt         time.Time `gorm:"column:created_at"`
}

func (voteComparisonModel) TableName() string {
	return "vote_comparisons"
}
