package commands

import (
	"context"
	"errors"

	application "civicvote/contexts/participation/voter-signup/application"
	"civicvote/contexts/participation/voter-signup/domain/entities"
	domainerrors "civicvote/contexts/participation/voter-signup/domain/errors"
	"civicvote/contexts/participation/voter-signup/ports"
)

type CodeSignupCommand struct {
	ElectionSlug string
	Code         string
	Session      SessionMeta
}

// CodeSignup handles the remote access-code flow. Remote sessions get
// their own auth method so a code used at a machine and the same code
// used remotely are distinct voters.
func (uc SignupUseCase) CodeSignup(ctx context.Context, cmd CodeSignupCommand) (AuthResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	election, err := uc.Elections.GetElectionAccess(ctx, cmd.ElectionSlug)
	if err != nil {
		return AuthResult{}, err
	}
	if !election.AllowRemoteVoting || !election.RemoteVotingCode || election.StopAcceptingVotes {
		return AuthResult{}, domainerrors.ErrSignupDisabled
	}

	if err := uc.checkSignupRate(ctx, election.ElectionID, cmd.Session.IPAddress); err != nil {
		return AuthResult{}, err
	}

	sanitized := entities.SanitizeCode(cmd.Code)
	code, err := uc.Codes.FindCode(ctx, election.ElectionID, sanitized)
	if errors.Is(err, domainerrors.ErrCodeNotFound) {
		uc.logActivity(ctx, election.ElectionID, entities.ActivityRemoteSignupFailure, cmd.Session.IPAddress, sanitized)
		return AuthResult{}, domainerrors.ErrWrongCode
	}
	if err != nil {
		return AuthResult{}, err
	}
	if code.Void {
		return AuthResult{}, domainerrors.ErrVoidCode
	}

	voter, err := uc.voterForCredential(ctx, election, entities.AuthMethodRemoteCode, code.Code, cmd.Session, false)
	if err != nil {
		return AuthResult{}, err
	}

	logger.Info("remote code signup completed",
		"event", "signup_remote_code_completed",
		"module", "participation/voter-signup",
		"layer", "application",
		"election_slug", election.Slug,
		"voter_id", voter.VoterID,
	)
	return AuthResult{VoterID: voter.VoterID, Test: voter.Test, NextStep: election.NextStep()}, nil
}

type OtherSignupCommand struct {
	ElectionSlug  string
	AccountNumber string
	ZipCode       string
	Session       SessionMeta
}

// OtherSignup handles remote signup with a self-reported identifier such
// as a utility account number. When a bare account number is unknown and a
// zip code was supplied, the composite account&zip credential is tried
// before rejecting.
func (uc SignupUseCase) OtherSignup(ctx context.Context, cmd OtherSignupCommand) (AuthResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	election, err := uc.Elections.GetElectionAccess(ctx, cmd.ElectionSlug)
	if err != nil {
		return AuthResult{}, err
	}
	if !election.AllowRemoteVoting || !election.RemoteVotingOther || election.StopAcceptingVotes {
		return AuthResult{}, domainerrors.ErrSignupDisabled
	}

	if err := uc.checkSignupRate(ctx, election.ElectionID, cmd.Session.IPAddress); err != nil {
		return AuthResult{}, err
	}

	credential := entities.SanitizeAccountNumber(cmd.AccountNumber)
	code, err := uc.Codes.FindCode(ctx, election.ElectionID, credential)
	if errors.Is(err, domainerrors.ErrCodeNotFound) && cmd.ZipCode != "" {
		credential = entities.CompositeAccountKey(credential, entities.SanitizeAccountNumber(cmd.ZipCode))
		code, err = uc.Codes.FindCode(ctx, election.ElectionID, credential)
	}
	if errors.Is(err, domainerrors.ErrCodeNotFound) {
		uc.logActivity(ctx, election.ElectionID, entities.ActivityRemoteSignupFailure, cmd.Session.IPAddress, credential)
		return AuthResult{}, domainerrors.ErrWrongAccountNumber
	}
	if err != nil {
		return AuthResult{}, err
	}
	if code.Void {
		return AuthResult{}, domainerrors.ErrVoidCode
	}

	voter, err := uc.voterForCredential(ctx, election, entities.AuthMethodRemoteCode, code.Code, cmd.Session, false)
	if err != nil {
		return AuthResult{}, err
	}

	if cmd.ZipCode != "" {
		if err := uc.Voters.MergeVoterData(ctx, voter.VoterID, map[string]any{"zip_code": cmd.ZipCode}); err != nil {
			return AuthResult{}, err
		}
	}

	logger.Info("remote other signup completed",
		"event", "signup_remote_other_completed",
		"module", "participation/voter-signup",
		"layer", "application",
		"election_slug", election.Slug,
		"voter_id", voter.VoterID,
	)
	return AuthResult{VoterID: voter.VoterID, Test: voter.Test, NextStep: election.NextStep()}, nil
}

// checkSignupRate enforces the per-IP failed-signup window shared by the
// code and other flows.
func (uc SignupUseCase) checkSignupRate(ctx context.Context, electionID, ip string) error {
	since := uc.now().Add(-rateWindow)
	count, err := uc.Activity.CountSince(ctx, electionID, entities.ActivityRemoteSignupFailure, since, ports.ActivityFilter{IPAddress: ip})
	if err != nil {
		return err
	}
	if count >= signupFailureLimit {
		return domainerrors.ErrRateLimited
	}
	return nil
}
