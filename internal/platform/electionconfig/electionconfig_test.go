package electionconfig

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleDescriptor = `
elections:
  - id: el-1
    slug: pb-2026
    budget: 1000000
    workflow:
      - [approval]
      - [knapsack, ranking]
      - [thanks_approval]
    rules:
      approval:
        has_n_project_limit: true
        min_n_projects: 1
        max_n_projects: 5
        pages: [parks, streets]
      comparison:
        n_pairs: 8
    locales: [en, es]
    default_locale: en
    allow_remote_voting: true
    remote_voting_sms_verification: true
    voter_registration: true
    voter_registration_questions: [name, age_verify, phone_number]
    categories:
      - id: c1
        name: Parks
        group: parks
    projects:
      - id: p1
        category_id: c1
        title: Park benches
        cost: 40000
      - id: p2
        category_id: c1
        title: Street lighting
        adjustable_cost: true
        cost_min: 0
        cost_max: 30000
        cost_step: 10000
    codes:
      - id: k1
        code: abc123
      - id: k2
        code: spoiled
        void: true
`

func writeDescriptor(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "elections.yml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write descriptor: %v", err)
	}
	return path
}

func TestLoadDescriptor(t *testing.T) {
	elections, err := Load(writeDescriptor(t, sampleDescriptor))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(elections) != 1 {
		t.Fatalf("elections = %d, want 1", len(elections))
	}
	election := elections[0]

	if election.Slug != "pb-2026" || election.Budget != 1000000 {
		t.Fatalf("election header = %+v", election)
	}
	if len(election.Workflow) != 3 || len(election.Workflow[1]) != 2 {
		t.Fatalf("workflow = %v, want three slots with alternatives in the second", election.Workflow)
	}

	approval := election.Rules["approval"]
	if !approval.HasProjectLimit || approval.MinProjects != 1 || approval.MaxProjects != 5 {
		t.Fatalf("approval rules = %+v", approval)
	}
	if len(approval.Pages) != 2 || approval.Pages[0] != "parks" {
		t.Fatalf("approval pages = %v", approval.Pages)
	}
	if election.Rules["comparison"].NPairs != 8 {
		t.Fatalf("comparison rules = %+v", election.Rules["comparison"])
	}

	if len(election.Projects) != 2 {
		t.Fatalf("projects = %d, want 2", len(election.Projects))
	}
	slider := election.Projects[1]
	if !slider.AdjustableCost || slider.CostMax != 30000 || slider.CostStep != 10000 {
		t.Fatalf("adjustable project = %+v", slider)
	}

	if len(election.Codes) != 2 || !election.Codes[1].Void {
		t.Fatalf("codes = %+v", election.Codes)
	}
	if len(election.RegistrationQuestions) != 3 {
		t.Fatalf("registration questions = %v", election.RegistrationQuestions)
	}
}

func TestLoadRejectsInvalidDescriptors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing slug",
			content: "elections:\n  - id: el-1\n    workflow:\n      - [approval]\n",
			wantErr: "slug is required",
		},
		{
			name:    "missing id",
			content: "elections:\n  - slug: pb\n    workflow:\n      - [approval]\n",
			wantErr: "id is required",
		},
		{
			name:    "empty workflow",
			content: "elections:\n  - id: el-1\n    slug: pb\n",
			wantErr: "workflow is empty",
		},
		{
			name:    "empty slot",
			content: "elections:\n  - id: el-1\n    slug: pb\n    workflow:\n      - []\n",
			wantErr: "has no stages",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeDescriptor(t, tc.content))
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err = %v, want %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("missing file did not error")
	}
}
