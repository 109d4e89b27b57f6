package commands

import (
	"context"
	"errors"

	application "civicvote/contexts/participation/voter-signup/application"
	"civicvote/contexts/participation/voter-signup/domain/entities"
	domainerrors "civicvote/contexts/participation/voter-signup/domain/errors"
)

type RegisterCommand struct {
	ElectionSlug string
	VoterID      string
	Answers      map[string]string
	Session      SessionMeta
}

type RegisterResult struct {
	NextStep string
}

// Register stores a voter's registration answers. Only answers to
// questions the election configured are kept.
func (uc SignupUseCase) Register(ctx context.Context, cmd RegisterCommand) (RegisterResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	election, err := uc.Elections.GetElectionAccess(ctx, cmd.ElectionSlug)
	if err != nil {
		return RegisterResult{}, err
	}
	if !election.VoterRegistration {
		return RegisterResult{}, domainerrors.ErrSignupDisabled
	}

	voter, err := uc.Voters.GetVoter(ctx, cmd.VoterID)
	if err != nil {
		return RegisterResult{}, err
	}

	answers := make(map[string]string, len(cmd.Answers))
	for _, questionID := range election.RegistrationQuestions {
		if questionID == "age_verify" {
			continue
		}
		if value, ok := cmd.Answers[questionID]; ok {
			answers[questionID] = value
		}
	}

	recordID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return RegisterResult{}, err
	}
	record := entities.RegistrationRecord{
		RecordID:   recordID,
		ElectionID: election.ElectionID,
		VoterID:    voter.VoterID,
		Answers:    answers,
		CreatedAt:  uc.now(),
	}
	if err := uc.Registrations.SaveRegistration(ctx, record); err != nil {
		return RegisterResult{}, err
	}
	uc.logActivity(ctx, election.ElectionID, entities.ActivityRegistrationSuccess, cmd.Session.IPAddress, voter.VoterID)

	logger.Info("voter registration recorded",
		"event", "signup_registration_recorded",
		"module", "participation/voter-signup",
		"layer", "application",
		"election_slug", election.Slug,
		"voter_id", voter.VoterID,
	)
	return RegisterResult{NextStep: election.FirstStage}, nil
}

// QueueThanksSMS enqueues the thank-you message after a vote is recorded.
// Everything about it is best effort: missing registration, missing phone
// number or a full outbox never propagates to the vote path.
func (uc SignupUseCase) QueueThanksSMS(ctx context.Context, electionSlug, voterID string) {
	logger := application.ResolveLogger(uc.Logger)

	election, err := uc.Elections.GetElectionAccess(ctx, electionSlug)
	if err != nil {
		return
	}
	if !election.VoterRegistration || !election.SendVoteSMS {
		return
	}

	record, err := uc.Registrations.GetRegistrationByVoter(ctx, voterID)
	if errors.Is(err, domainerrors.ErrRegistrationNotFound) {
		return
	}
	if err != nil {
		logger.Error("thanks sms registration lookup failed",
			"event", "signup_thanks_lookup_failed",
			"module", "participation/voter-signup",
			"layer", "application",
			"voter_id", voterID,
			"error", err.Error(),
		)
		return
	}
	phone := entities.SanitizePhoneNumber(record.PhoneNumber())
	if phone == "" {
		return
	}

	notificationID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return
	}
	notification := entities.Notification{
		NotificationID: notificationID,
		ElectionID:     election.ElectionID,
		VoterID:        voterID,
		Phone:          phone,
		Body:           "Thank you! Your vote has been successfully recorded.",
		Status:         entities.NotificationPending,
		CreatedAt:      uc.now(),
	}
	if err := uc.Outbox.Enqueue(ctx, notification); err != nil {
		logger.Error("thanks sms enqueue failed",
			"event", "signup_thanks_enqueue_failed",
			"module", "participation/voter-signup",
			"layer", "application",
			"voter_id", voterID,
			"error", err.Error(),
		)
	}
}
