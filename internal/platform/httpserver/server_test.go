package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ballotengine "civicvote/contexts/participation/ballot-engine"
	ballotentities "civicvote/contexts/participation/ballot-engine/domain/entities"
	votersignup "civicvote/contexts/participation/voter-signup"
	signupentities "civicvote/contexts/participation/voter-signup/domain/entities"
)

func newTestServer(t *testing.T) (*Server, ballotengine.Module, votersignup.Module) {
	t.Helper()
	ballot := ballotengine.NewInMemoryModule(nil)
	signup := votersignup.NewInMemoryModule(nil)

	ballot.Store.SetElection(ballotentities.Election{
		ElectionID: "el-1",
		Slug:       "pb-test",
		Budget:     100,
		Workflow: ballotentities.Workflow{
			{Alternatives: []ballotentities.Stage{ballotentities.StageApproval}},
			{Alternatives: []ballotentities.Stage{ballotentities.StageThanksApproval}},
		},
		Rules: map[ballotentities.Method]ballotentities.MethodRules{
			ballotentities.MethodApproval: {},
		},
	})
	ballot.Store.AddProject(ballotentities.Project{ProjectID: "p1", ElectionID: "el-1", Title: "Park benches", Cost: 40})

	signup.Store.SetElection(signupentities.ElectionAccess{
		ElectionID: "el-1",
		Slug:       "pb-test",
		FirstStage: "approval",
	})
	signup.Store.AddCode(signupentities.AccessCode{CodeID: "c1", ElectionID: "el-1", Code: "abc123"})

	return New(ballot, signup, nil, ""), ballot, signup
}

func doJSON(t *testing.T, handler http.Handler, method, target, voterID string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	if voterID != "" {
		req.Header.Set("X-Voter-Id", voterID)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func TestCodeAuthThenApprovalBallot(t *testing.T) {
	server, ballot, _ := newTestServer(t)
	handler := server.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/v1/elections/pb-test/auth/code", "",
		map[string]string{"code": "abc123"})
	if rec.Code != http.StatusOK {
		t.Fatalf("auth status = %d, body %s", rec.Code, rec.Body.String())
	}
	var auth struct {
		VoterID  string `json:"voter_id"`
		NextStep string `json:"next_step"`
	}
	decodeBody(t, rec, &auth)
	if auth.VoterID == "" || auth.NextStep != "approval" {
		t.Fatalf("auth response = %+v", auth)
	}

	rec = doJSON(t, handler, http.MethodPost, "/v1/elections/pb-test/ballots/approval", auth.VoterID,
		map[string]any{"project_costs": map[string]int64{"p1": 40}})
	if rec.Code != http.StatusOK {
		t.Fatalf("ballot status = %d, body %s", rec.Code, rec.Body.String())
	}
	var submit struct {
		NextStage string `json:"next_stage"`
	}
	decodeBody(t, rec, &submit)
	if submit.NextStage != "thanks_approval" {
		t.Fatalf("next stage = %q, want thanks_approval", submit.NextStage)
	}
	if got := ballot.Store.ApprovalCount(); got != 1 {
		t.Fatalf("approval records = %d, want 1", got)
	}
}

func TestUnknownElectionIsNotFound(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doJSON(t, server.Handler(), http.MethodPost, "/v1/elections/nope/auth/code", "",
		map[string]string{"code": "abc123"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestWrongCodeIsUnprocessable(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doJSON(t, server.Handler(), http.MethodPost, "/v1/elections/pb-test/auth/code", "",
		map[string]string{"code": "wrong"})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body %s", rec.Code, rec.Body.String())
	}
}

func TestRegistrationRequiresVoterHeader(t *testing.T) {
	server, _, _ := newTestServer(t)

	rec := doJSON(t, server.Handler(), http.MethodPost, "/v1/elections/pb-test/registration", "",
		map[string]any{"answers": map[string]string{"name": "Pat"}})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401, body %s", rec.Code, rec.Body.String())
	}
}

func TestBackwardStageIsRedirected(t *testing.T) {
	server, ballot, _ := newTestServer(t)
	ballot.Store.SetVoter(ballotentities.Voter{
		VoterID:    "v1",
		ElectionID: "el-1",
		Stage:      ballotentities.StageThanksApproval,
	})

	rec := doJSON(t, server.Handler(), http.MethodPost, "/v1/elections/pb-test/stages/approval", "v1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Allowed  bool   `json:"allowed"`
		Redirect string `json:"redirect"`
	}
	decodeBody(t, rec, &resp)
	if resp.Allowed || resp.Redirect != "thanks_approval" {
		t.Fatalf("response = %+v, want redirect to thanks_approval", resp)
	}
}

func TestThanksApprovalQueuesThankYouSMS(t *testing.T) {
	server, ballot, signup := newTestServer(t)

	signup.Store.SetElection(signupentities.ElectionAccess{
		ElectionID:        "el-1",
		Slug:              "pb-test",
		VoterRegistration: true,
		SendVoteSMS:       true,
		FirstStage:        "approval",
	})
	ballot.Store.SetVoter(ballotentities.Voter{
		VoterID:    "v1",
		ElectionID: "el-1",
		Stage:      ballotentities.StageApproval,
	})
	signup.Store.SetVoter(signupentities.Voter{VoterID: "v1", ElectionID: "el-1"})
	if err := signup.Store.SaveRegistration(context.Background(),
		signupentities.RegistrationRecord{
			RecordID:   "r1",
			ElectionID: "el-1",
			VoterID:    "v1",
			Answers:    map[string]string{"phone_number": "6125550177"},
			CreatedAt:  time.Now().UTC(),
		}); err != nil {
		t.Fatalf("SaveRegistration: %v", err)
	}

	rec := doJSON(t, server.Handler(), http.MethodPost, "/v1/elections/pb-test/stages/thanks_approval", "v1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := len(signup.Store.Notifications()); got != 1 {
		t.Fatalf("outbox rows = %d, want 1", got)
	}
}

func TestResultsHiddenBehindPublicFlag(t *testing.T) {
	server, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/elections/pb-test/results", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body %s", rec.Code, rec.Body.String())
	}
}
