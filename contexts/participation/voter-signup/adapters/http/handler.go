package httpadapter

import (
	"context"
	"log/slog"

	"civicvote/contexts/participation/voter-signup/application/commands"
	httptransport "civicvote/contexts/participation/voter-signup/transport/http"
)

type Handler struct {
	Signups commands.SignupUseCase
	Logger  *slog.Logger
}

func (h Handler) AuthenticateCodeHandler(
	ctx context.Context,
	slug string,
	session commands.SessionMeta,
	req httptransport.AuthenticateCodeRequest,
) (httptransport.AuthResponse, error) {
	session.LocationID = req.LocationID
	result, err := h.Signups.AuthenticateCode(ctx, commands.AuthenticateCodeCommand{
		ElectionSlug: slug,
		Code:         req.Code,
		Session:      session,
	})
	if err != nil {
		return httptransport.AuthResponse{}, err
	}
	return authResponse(result), nil
}

func (h Handler) CodeSignupHandler(
	ctx context.Context,
	slug string,
	session commands.SessionMeta,
	req httptransport.AuthenticateCodeRequest,
) (httptransport.AuthResponse, error) {
	result, err := h.Signups.CodeSignup(ctx, commands.CodeSignupCommand{
		ElectionSlug: slug,
		Code:         req.Code,
		Session:      session,
	})
	if err != nil {
		return httptransport.AuthResponse{}, err
	}
	return authResponse(result), nil
}

func (h Handler) OtherSignupHandler(
	ctx context.Context,
	slug string,
	session commands.SessionMeta,
	req httptransport.OtherSignupRequest,
) (httptransport.AuthResponse, error) {
	result, err := h.Signups.OtherSignup(ctx, commands.OtherSignupCommand{
		ElectionSlug:  slug,
		AccountNumber: req.AccountNumber,
		ZipCode:       req.ZipCode,
		Session:       session,
	})
	if err != nil {
		return httptransport.AuthResponse{}, err
	}
	return authResponse(result), nil
}

func (h Handler) SMSSignupHandler(
	ctx context.Context,
	slug string,
	session commands.SessionMeta,
	req httptransport.SMSSignupRequest,
) (httptransport.SMSSignupResponse, error) {
	result, err := h.Signups.SMSSignup(ctx, commands.SMSSignupCommand{
		ElectionSlug: slug,
		PhoneNumber:  req.PhoneNumber,
		Session:      session,
	})
	if err != nil {
		return httptransport.SMSSignupResponse{}, err
	}
	return httptransport.SMSSignupResponse{VoterID: result.VoterID}, nil
}

func (h Handler) ConfirmSMSSignupHandler(
	ctx context.Context,
	slug string,
	session commands.SessionMeta,
	req httptransport.ConfirmSMSSignupRequest,
) (httptransport.AuthResponse, error) {
	result, err := h.Signups.ConfirmSMSSignup(ctx, commands.ConfirmSMSSignupCommand{
		ElectionSlug:     slug,
		VoterID:          req.VoterID,
		ConfirmationCode: req.ConfirmationCode,
		Session:          session,
	})
	if err != nil {
		return httptransport.AuthResponse{}, err
	}
	return authResponse(result), nil
}

func (h Handler) RegisterHandler(
	ctx context.Context,
	slug string,
	voterID string,
	session commands.SessionMeta,
	req httptransport.RegisterRequest,
) (httptransport.RegisterResponse, error) {
	result, err := h.Signups.Register(ctx, commands.RegisterCommand{
		ElectionSlug: slug,
		VoterID:      voterID,
		Answers:      req.Answers,
		Session:      session,
	})
	if err != nil {
		return httptransport.RegisterResponse{}, err
	}
	return httptransport.RegisterResponse{NextStep: result.NextStep}, nil
}

// QueueThanksSMSHandler is called by the ballot flow after a recorded
// vote. It never fails.
func (h Handler) QueueThanksSMSHandler(ctx context.Context, slug, voterID string) {
	h.Signups.QueueThanksSMS(ctx, slug, voterID)
}

func authResponse(result commands.AuthResult) httptransport.AuthResponse {
	return httptransport.AuthResponse{
		VoterID:  result.VoterID,
		Test:     result.Test,
		NextStep: result.NextStep,
	}
}
