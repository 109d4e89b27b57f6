package commands

import (
	"context"
	"errors"
	"strconv"

	application "civicvote/contexts/participation/voter-signup/application"
	"civicvote/contexts/participation/voter-signup/domain/entities"
	domainerrors "civicvote/contexts/participation/voter-signup/domain/errors"
	"civicvote/contexts/participation/voter-signup/ports"
)

type SMSSignupCommand struct {
	ElectionSlug string
	PhoneNumber  string
	Session      SessionMeta
}

// SMSSignupResult identifies the provisional voter awaiting confirmation.
type SMSSignupResult struct {
	VoterID string
}

// SMSSignup starts phone-number signup: sends a six-digit confirmation
// code and parks the voter until ConfirmSMSSignup. Delivery failure is
// surfaced here because the message is the signup step itself.
func (uc SignupUseCase) SMSSignup(ctx context.Context, cmd SMSSignupCommand) (SMSSignupResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	election, err := uc.Elections.GetElectionAccess(ctx, cmd.ElectionSlug)
	if err != nil {
		return SMSSignupResult{}, err
	}
	if !election.AllowRemoteVoting || !election.RemoteVotingSMS || election.StopAcceptingVotes {
		return SMSSignupResult{}, domainerrors.ErrSignupDisabled
	}

	phone := entities.SanitizePhoneNumber(cmd.PhoneNumber)
	if phone == "" {
		return SMSSignupResult{}, domainerrors.ErrWrongCode
	}

	voter, err := uc.Voters.FindVoterByIdentity(ctx, election.ElectionID, entities.AuthMethodPhone, phone)
	switch {
	case err == nil:
		if voter.Stage == entities.StageDone && !voter.Test {
			return SMSSignupResult{}, domainerrors.ErrUsedCode
		}
	case errors.Is(err, domainerrors.ErrVoterNotFound):
		voterID, idErr := uc.IDGen.NewID(ctx)
		if idErr != nil {
			return SMSSignupResult{}, idErr
		}
		voter = entities.Voter{
			VoterID:    voterID,
			ElectionID: election.ElectionID,
			AuthMethod: entities.AuthMethodPhone,
			AuthID:     phone,
			IPAddress:  cmd.Session.IPAddress,
			UserAgent:  cmd.Session.UserAgent,
			CreatedAt:  uc.now(),
		}
		if err := uc.Voters.CreateVoter(ctx, voter); err != nil {
			return SMSSignupResult{}, err
		}
	default:
		return SMSSignupResult{}, err
	}

	// First digit never zero, so the code survives numeric form fields.
	confirmation := strconv.Itoa(100000 + uc.Rand.Intn(900000))

	if err := uc.Sender.Send(ctx, phone, "Confirmation code for voting: "+confirmation); err != nil {
		uc.logActivity(ctx, election.ElectionID, entities.ActivitySMSSignupFailure, cmd.Session.IPAddress, phone)
		logger.Error("signup confirmation sms failed",
			"event", "signup_sms_send_failed",
			"module", "participation/voter-signup",
			"layer", "application",
			"election_slug", election.Slug,
			"error", err.Error(),
		)
		return SMSSignupResult{}, domainerrors.ErrSMSDeliveryFailed
	}

	if err := uc.Voters.SetConfirmationCode(ctx, voter.VoterID, confirmation, uc.now()); err != nil {
		return SMSSignupResult{}, err
	}
	uc.logActivity(ctx, election.ElectionID, entities.ActivitySMSSignupSuccess, cmd.Session.IPAddress, phone)

	logger.Info("sms signup confirmation sent",
		"event", "signup_sms_sent",
		"module", "participation/voter-signup",
		"layer", "application",
		"election_slug", election.Slug,
		"voter_id", voter.VoterID,
	)
	return SMSSignupResult{VoterID: voter.VoterID}, nil
}

type ConfirmSMSSignupCommand struct {
	ElectionSlug     string
	VoterID          string
	ConfirmationCode string
	Session          SessionMeta
}

// ConfirmSMSSignup completes phone signup by checking the code sent
// earlier. Failed attempts feed the confirm rate limit, counted both per
// voter and per IP.
func (uc SignupUseCase) ConfirmSMSSignup(ctx context.Context, cmd ConfirmSMSSignupCommand) (AuthResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	election, err := uc.Elections.GetElectionAccess(ctx, cmd.ElectionSlug)
	if err != nil {
		return AuthResult{}, err
	}
	if !election.AllowRemoteVoting || !election.RemoteVotingSMS || election.StopAcceptingVotes {
		return AuthResult{}, domainerrors.ErrSignupDisabled
	}

	voter, err := uc.Voters.GetVoter(ctx, cmd.VoterID)
	if err != nil {
		return AuthResult{}, err
	}

	since := uc.now().Add(-rateWindow)
	byVoter, err := uc.Activity.CountSince(ctx, election.ElectionID, entities.ActivityConfirmFailure, since, ports.ActivityFilter{Note: voter.VoterID})
	if err != nil {
		return AuthResult{}, err
	}
	byIP, err := uc.Activity.CountSince(ctx, election.ElectionID, entities.ActivityConfirmFailure, since, ports.ActivityFilter{IPAddress: cmd.Session.IPAddress})
	if err != nil {
		return AuthResult{}, err
	}
	if byVoter >= confirmFailureLimit || byIP >= confirmFailureLimit {
		return AuthResult{}, domainerrors.ErrRateLimited
	}

	if voter.ConfirmationCodeCreatedAt == nil ||
		uc.now().Sub(*voter.ConfirmationCodeCreatedAt) > confirmationTTL {
		return AuthResult{}, domainerrors.ErrConfirmationExpired
	}

	if entities.SanitizeCode(cmd.ConfirmationCode) != voter.ConfirmationCode {
		uc.logActivity(ctx, election.ElectionID, entities.ActivityConfirmFailure, cmd.Session.IPAddress, voter.VoterID)
		return AuthResult{}, domainerrors.ErrWrongConfirmation
	}

	uc.logActivity(ctx, election.ElectionID, entities.ActivityConfirmSuccess, cmd.Session.IPAddress, voter.VoterID)
	logger.Info("sms signup confirmed",
		"event", "signup_sms_confirmed",
		"module", "participation/voter-signup",
		"layer", "application",
		"election_slug", election.Slug,
		"voter_id", voter.VoterID,
	)
	return AuthResult{VoterID: voter.VoterID, Test: voter.Test, NextStep: election.NextStep()}, nil
}
