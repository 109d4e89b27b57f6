package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "civicvote/contexts/participation/voter-signup/application"
	"civicvote/contexts/participation/voter-signup/domain/entities"
	domainerrors "civicvote/contexts/participation/voter-signup/domain/errors"
	"civicvote/contexts/participation/voter-signup/ports"
)

const (
	signupFailureLimit  = 5
	confirmFailureLimit = 8
	rateWindow          = time.Minute
	confirmationTTL     = 10 * time.Minute
)

// SignupUseCase drives every signup and authentication flow.
type SignupUseCase struct {
	Elections     ports.ElectionDirectory
	Codes         ports.CodeRepository
	Voters        ports.VoterDirectory
	Activity      ports.ActivityLog
	Registrations ports.RegistrationRepository
	Outbox        ports.NotificationOutbox
	Sender        ports.SMSSender
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	Rand          ports.Rand
	Logger        *slog.Logger
}

// SessionMeta carries request provenance stamped onto new voters.
type SessionMeta struct {
	IPAddress  string
	UserAgent  string
	LocationID string
}

// AuthResult reports a successful authentication: the session voter and
// where the client goes next (registration form or first workflow stage).
type AuthResult struct {
	VoterID  string
	Test     bool
	NextStep string
}

type AuthenticateCodeCommand struct {
	ElectionSlug string
	Code         string
	Session      SessionMeta
}

// AuthenticateCode handles the voting-machine path: an access code typed
// at a station. The reserved test code authenticates without touching the
// code table.
func (uc SignupUseCase) AuthenticateCode(ctx context.Context, cmd AuthenticateCodeCommand) (AuthResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	election, err := uc.Elections.GetElectionAccess(ctx, cmd.ElectionSlug)
	if err != nil {
		return AuthResult{}, err
	}

	sanitized := entities.SanitizeCode(cmd.Code)
	if sanitized == "" {
		return AuthResult{}, domainerrors.ErrWrongCode
	}

	test := sanitized == entities.TestCode
	if !test {
		code, err := uc.Codes.FindCode(ctx, election.ElectionID, sanitized)
		if errors.Is(err, domainerrors.ErrCodeNotFound) {
			return AuthResult{}, domainerrors.ErrWrongCode
		}
		if err != nil {
			return AuthResult{}, err
		}
		if code.Void {
			return AuthResult{}, domainerrors.ErrVoidCode
		}
		sanitized = code.Code
	}

	voter, err := uc.voterForCredential(ctx, election, entities.AuthMethodCode, sanitized, cmd.Session, test)
	if err != nil {
		return AuthResult{}, err
	}

	logger.Info("voter authenticated with access code",
		"event", "signup_code_authenticated",
		"module", "participation/voter-signup",
		"layer", "application",
		"election_slug", election.Slug,
		"voter_id", voter.VoterID,
		"test", voter.Test,
	)
	return AuthResult{VoterID: voter.VoterID, Test: voter.Test, NextStep: election.NextStep()}, nil
}

// voterForCredential finds or creates the voter bound to one credential.
// A finished non-test voter means the credential is spent.
func (uc SignupUseCase) voterForCredential(
	ctx context.Context,
	election entities.ElectionAccess,
	authMethod string,
	authID string,
	session SessionMeta,
	test bool,
) (entities.Voter, error) {
	voter, err := uc.Voters.FindVoterByIdentity(ctx, election.ElectionID, authMethod, authID)
	if err == nil {
		if voter.Stage == entities.StageDone && !voter.Test {
			return entities.Voter{}, domainerrors.ErrUsedCode
		}
		return voter, nil
	}
	if !errors.Is(err, domainerrors.ErrVoterNotFound) {
		return entities.Voter{}, err
	}

	voterID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Voter{}, err
	}
	voter = entities.Voter{
		VoterID:    voterID,
		ElectionID: election.ElectionID,
		AuthMethod: authMethod,
		AuthID:     authID,
		Test:       test,
		IPAddress:  session.IPAddress,
		UserAgent:  session.UserAgent,
		LocationID: session.LocationID,
		CreatedAt:  uc.now(),
	}
	if err := uc.Voters.CreateVoter(ctx, voter); err != nil {
		return entities.Voter{}, err
	}
	return voter, nil
}

func (uc SignupUseCase) now() time.Time {
	if uc.Clock != nil {
		return uc.Clock.Now()
	}
	return time.Now().UTC()
}

func (uc SignupUseCase) logActivity(ctx context.Context, electionID, kind, ip, note string) {
	logger := application.ResolveLogger(uc.Logger)
	id, err := uc.IDGen.NewID(ctx)
	if err != nil {
		logger.Error("activity id generation failed",
			"event", "signup_activity_id_failed",
			"module", "participation/voter-signup",
			"layer", "application",
			"error", err.Error(),
		)
		return
	}
	entry := entities.ActivityEntry{
		ActivityID: id,
		ElectionID: electionID,
		Kind:       kind,
		IPAddress:  ip,
		Note:       note,
		CreatedAt:  uc.now(),
	}
	if err := uc.Activity.Record(ctx, entry); err != nil {
		logger.Error("activity record failed",
			"event", "signup_activity_record_failed",
			"module", "participation/voter-signup",
			"layer", "application",
			"kind", kind,
			"error", err.Error(),
		)
	}
}
