package commands

import (
	"context"
	"errors"
	"testing"

	"civicvote/contexts/participation/voter-signup/adapters/memory"
	"civicvote/contexts/participation/voter-signup/domain/entities"
	domainerrors "civicvote/contexts/participation/voter-signup/domain/errors"
)

func newSignupFixture(t *testing.T, election entities.ElectionAccess) (SignupUseCase, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	store.SeedRand(1)
	store.SetElection(election)

	uc := SignupUseCase{
		Elections:     store,
		Codes:         store,
		Voters:        store,
		Activity:      store,
		Registrations: store,
		Outbox:        store,
		Sender:        memory.NopSender{},
		Clock:         store,
		IDGen:         store,
		Rand:          store,
	}
	return uc, store
}

func machineElection() entities.ElectionAccess {
	return entities.ElectionAccess{
		ElectionID: "el-1",
		Slug:       "pb-test",
		FirstStage: "approval",
	}
}

func TestAuthenticateCodeCreatesVoter(t *testing.T) {
	uc, store := newSignupFixture(t, machineElection())
	store.AddCode(entities.AccessCode{CodeID: "c1", ElectionID: "el-1", Code: "abc123"})

	res, err := uc.AuthenticateCode(context.Background(), AuthenticateCodeCommand{
		ElectionSlug: "pb-test",
		Code:         " ABC 123 ",
		Session:      SessionMeta{IPAddress: "10.0.0.1", LocationID: "station-4"},
	})
	if err != nil {
		t.Fatalf("AuthenticateCode: %v", err)
	}
	if res.VoterID == "" || res.Test {
		t.Fatalf("result = %+v, want real voter", res)
	}
	if res.NextStep != "approval" {
		t.Fatalf("next step = %q, want approval", res.NextStep)
	}

	voter, err := store.GetVoter(context.Background(), res.VoterID)
	if err != nil {
		t.Fatalf("GetVoter: %v", err)
	}
	if voter.AuthMethod != entities.AuthMethodCode || voter.AuthID != "abc123" {
		t.Fatalf("voter identity = (%q, %q), want (code, abc123)", voter.AuthMethod, voter.AuthID)
	}
	if voter.LocationID != "station-4" {
		t.Fatalf("location = %q, want station-4", voter.LocationID)
	}
}

func TestAuthenticateCodeResumesExistingVoter(t *testing.T) {
	uc, store := newSignupFixture(t, machineElection())
	store.AddCode(entities.AccessCode{CodeID: "c1", ElectionID: "el-1", Code: "abc123"})

	first, err := uc.AuthenticateCode(context.Background(), AuthenticateCodeCommand{ElectionSlug: "pb-test", Code: "abc123"})
	if err != nil {
		t.Fatalf("first AuthenticateCode: %v", err)
	}
	second, err := uc.AuthenticateCode(context.Background(), AuthenticateCodeCommand{ElectionSlug: "pb-test", Code: "abc123"})
	if err != nil {
		t.Fatalf("second AuthenticateCode: %v", err)
	}
	if first.VoterID != second.VoterID {
		t.Fatalf("repeat authentication created a new voter: %q then %q", first.VoterID, second.VoterID)
	}
}

func TestAuthenticateCodeTestCodeSkipsCodeTable(t *testing.T) {
	uc, _ := newSignupFixture(t, machineElection())

	res, err := uc.AuthenticateCode(context.Background(), AuthenticateCodeCommand{
		ElectionSlug: "pb-test",
		Code:         " _TEST ",
	})
	if err != nil {
		t.Fatalf("AuthenticateCode: %v", err)
	}
	if !res.Test {
		t.Fatal("reserved code did not yield a test voter")
	}
}

func TestAuthenticateCodeRejections(t *testing.T) {
	uc, store := newSignupFixture(t, machineElection())
	store.AddCode(entities.AccessCode{CodeID: "c1", ElectionID: "el-1", Code: "voided", Void: true})
	store.AddCode(entities.AccessCode{CodeID: "c2", ElectionID: "el-1", Code: "spent"})
	store.SetVoter(entities.Voter{
		VoterID:    "v-done",
		ElectionID: "el-1",
		AuthMethod: entities.AuthMethodCode,
		AuthID:     "spent",
		Stage:      entities.StageDone,
	})

	cases := []struct {
		name string
		code string
		want error
	}{
		{"unknown", "nope", domainerrors.ErrWrongCode},
		{"empty", "   ", domainerrors.ErrWrongCode},
		{"void", "voided", domainerrors.ErrVoidCode},
		{"spent", "spent", domainerrors.ErrUsedCode},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.AuthenticateCode(context.Background(), AuthenticateCodeCommand{
				ElectionSlug: "pb-test",
				Code:         tc.code,
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestAuthenticateCodeRoutesToRegistration(t *testing.T) {
	election := machineElection()
	election.VoterRegistration = true
	uc, store := newSignupFixture(t, election)
	store.AddCode(entities.AccessCode{CodeID: "c1", ElectionID: "el-1", Code: "abc123"})

	res, err := uc.AuthenticateCode(context.Background(), AuthenticateCodeCommand{
		ElectionSlug: "pb-test",
		Code:         "abc123",
	})
	if err != nil {
		t.Fatalf("AuthenticateCode: %v", err)
	}
	if res.NextStep != "registration" {
		t.Fatalf("next step = %q, want registration", res.NextStep)
	}
}
