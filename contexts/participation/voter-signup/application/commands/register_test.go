package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"civicvote/contexts/participation/voter-signup/domain/entities"
	domainerrors "civicvote/contexts/participation/voter-signup/domain/errors"
)

func registrationElection() entities.ElectionAccess {
	return entities.ElectionAccess{
		ElectionID:            "el-1",
		Slug:                  "pb-test",
		VoterRegistration:     true,
		SendVoteSMS:           true,
		RegistrationQuestions: []string{"name", "age_verify", "phone_number"},
		FirstStage:            "approval",
	}
}

func TestRegisterKeepsOnlyConfiguredAnswers(t *testing.T) {
	uc, store := newSignupFixture(t, registrationElection())
	store.SetVoter(entities.Voter{VoterID: "v1", ElectionID: "el-1"})

	res, err := uc.Register(context.Background(), RegisterCommand{
		ElectionSlug: "pb-test",
		VoterID:      "v1",
		Answers: map[string]string{
			"name":         "Pat",
			"age_verify":   "yes",
			"phone_number": "612-555-0177",
			"favorite":     "should be dropped",
		},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.NextStep != "approval" {
		t.Fatalf("next step = %q, want approval", res.NextStep)
	}

	record, err := store.GetRegistrationByVoter(context.Background(), "v1")
	if err != nil {
		t.Fatalf("GetRegistrationByVoter: %v", err)
	}
	want := map[string]string{"name": "Pat", "phone_number": "612-555-0177"}
	if len(record.Answers) != len(want) {
		t.Fatalf("answers = %v, want %v", record.Answers, want)
	}
	for key, value := range want {
		if record.Answers[key] != value {
			t.Fatalf("answers[%q] = %q, want %q", key, record.Answers[key], value)
		}
	}
	if got := store.ActivityCount(entities.ActivityRegistrationSuccess); got != 1 {
		t.Fatalf("registration activity entries = %d, want 1", got)
	}
}

func TestRegisterDisabledWithoutRegistration(t *testing.T) {
	election := registrationElection()
	election.VoterRegistration = false
	uc, store := newSignupFixture(t, election)
	store.SetVoter(entities.Voter{VoterID: "v1", ElectionID: "el-1"})

	_, err := uc.Register(context.Background(), RegisterCommand{
		ElectionSlug: "pb-test",
		VoterID:      "v1",
		Answers:      map[string]string{"name": "Pat"},
	})
	if !errors.Is(err, domainerrors.ErrSignupDisabled) {
		t.Fatalf("err = %v, want ErrSignupDisabled", err)
	}
}

func TestQueueThanksSMSEnqueuesForRegisteredPhone(t *testing.T) {
	uc, store := newSignupFixture(t, registrationElection())
	store.SetVoter(entities.Voter{VoterID: "v1", ElectionID: "el-1"})
	if err := store.SaveRegistration(context.Background(), entities.RegistrationRecord{
		RecordID:   "r1",
		ElectionID: "el-1",
		VoterID:    "v1",
		Answers:    map[string]string{"phone_number": "+1 612 555 0177"},
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		t.Fatalf("SaveRegistration: %v", err)
	}

	uc.QueueThanksSMS(context.Background(), "pb-test", "v1")

	pending := store.Notifications()
	if len(pending) != 1 {
		t.Fatalf("outbox rows = %d, want 1", len(pending))
	}
	row := pending[0]
	if row.Phone != "6125550177" {
		t.Fatalf("notification phone = %q, want the sanitized number", row.Phone)
	}
	if row.Status != entities.NotificationPending {
		t.Fatalf("notification status = %q, want pending", row.Status)
	}
	if row.VoterID != "v1" || row.Body == "" {
		t.Fatalf("notification = %+v, want voter v1 with a body", row)
	}
}

func TestQueueThanksSMSIsSilentlySkipped(t *testing.T) {
	// No registration record at all.
	uc, store := newSignupFixture(t, registrationElection())
	uc.QueueThanksSMS(context.Background(), "pb-test", "v-unknown")
	if got := len(store.Notifications()); got != 0 {
		t.Fatalf("outbox rows = %d, want 0 without a registration record", got)
	}

	// Registration exists but the thank-you flag is off.
	election := registrationElection()
	election.SendVoteSMS = false
	uc, store = newSignupFixture(t, election)
	store.SetVoter(entities.Voter{VoterID: "v1", ElectionID: "el-1"})
	if err := store.SaveRegistration(context.Background(), entities.RegistrationRecord{
		RecordID:   "r1",
		ElectionID: "el-1",
		VoterID:    "v1",
		Answers:    map[string]string{"phone_number": "6125550177"},
	}); err != nil {
		t.Fatalf("SaveRegistration: %v", err)
	}
	uc.QueueThanksSMS(context.Background(), "pb-test", "v1")
	if got := len(store.Notifications()); got != 0 {
		t.Fatalf("outbox rows = %d, want 0 with the flag off", got)
	}
}
