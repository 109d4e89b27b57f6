// Package electionconfig loads election descriptor files. A descriptor is
// the YAML source of truth for an election: budget, workflow, per-method
// rules, the project list and the printed access codes. Descriptors seed
// the in-memory runtime and are treated as immutable once loaded.
package electionconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type File struct {
	Elections []Election `yaml:"elections"`
}

type Election struct {
	ID     string `yaml:"id"`
	Slug   string `yaml:"slug"`
	Budget int64  `yaml:"budget"`

	// Workflow slots: one stage name, or several alternatives resolved
	// per voter at random.
	Workflow [][]string             `yaml:"workflow"`
	Rules    map[string]MethodRules `yaml:"rules"`

	Locales       []string `yaml:"locales"`
	DefaultLocale string   `yaml:"default_locale"`

	AllowRemoteVoting             bool     `yaml:"allow_remote_voting"`
	RemoteVotingSMSVerification   bool     `yaml:"remote_voting_sms_verification"`
	RemoteVotingCodeVerification  bool     `yaml:"remote_voting_code_verification"`
	RemoteVotingOtherVerification bool     `yaml:"remote_voting_other_verification"`
	StopAcceptingVotes            bool     `yaml:"stop_accepting_votes"`
	ShowPublicResults             bool     `yaml:"show_public_results"`
	VoterRegistration             bool     `yaml:"voter_registration"`
	SendVoteSMS                   bool     `yaml:"send_vote_sms"`
	RegistrationQuestions         []string `yaml:"voter_registration_questions"`
	ExternalRedirectURL           string   `yaml:"external_redirect_url"`

	Categories []Category `yaml:"categories"`
	Projects   []Project  `yaml:"projects"`
	Codes      []Code     `yaml:"codes"`
}

type MethodRules struct {
	HasBudgetLimit  bool     `yaml:"has_budget_limit"`
	HasProjectLimit bool     `yaml:"has_n_project_limit"`
	MinProjects     int      `yaml:"min_n_projects"`
	MaxProjects     int      `yaml:"max_n_projects"`
	ProjectRanking  bool     `yaml:"project_ranking"`
	Pages           []string `yaml:"pages"`
	NPairs          int      `yaml:"n_pairs"`
	ShuffleProjects bool     `yaml:"shuffle_projects"`
	ShuffleChance   float64  `yaml:"shuffle_probability"`
}

type Category struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Group     string `yaml:"group"`
	SortOrder int    `yaml:"sort_order"`
}

type Project struct {
	ID                string `yaml:"id"`
	CategoryID        string `yaml:"category_id"`
	Title             string `yaml:"title"`
	Cost              int64  `yaml:"cost"`
	Mandatory         bool   `yaml:"mandatory"`
	AdjustableCost    bool   `yaml:"adjustable_cost"`
	CostMin           int64  `yaml:"cost_min"`
	CostMax           int64  `yaml:"cost_max"`
	CostStep          int64  `yaml:"cost_step"`
	UsesSlider        bool   `yaml:"uses_slider"`
	ExternalVoteCount int    `yaml:"external_vote_count"`
	SortOrder         int    `yaml:"sort_order"`
}

type Code struct {
	ID   string `yaml:"id"`
	Code string `yaml:"code"`
	Void bool   `yaml:"void"`
}

// Load reads and validates a descriptor file.
func Load(path string) ([]Election, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read elections file: %w", err)
	}
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode elections file: %w", err)
	}
	for i, election := range file.Elections {
		if election.Slug == "" {
			return nil, fmt.Errorf("election %d: slug is required", i)
		}
		if election.ID == "" {
			return nil, fmt.Errorf("election %q: id is required", election.Slug)
		}
		if len(election.Workflow) == 0 {
			return nil, fmt.Errorf("election %q: workflow is empty", election.Slug)
		}
		for s, slot := range election.Workflow {
			if len(slot) == 0 {
				return nil, fmt.Errorf("election %q: workflow slot %d has no stages", election.Slug, s)
			}
		}
	}
	return file.Elections, nil
}
