package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	signupcommands "civicvote/contexts/participation/voter-signup/application/commands"
	signuperrors "civicvote/contexts/participation/voter-signup/domain/errors"
	signuphttp "civicvote/contexts/participation/voter-signup/transport/http"
)

func (s *Server) handleAuthenticateCode(w http.ResponseWriter, r *http.Request) {
	var req signuphttp.AuthenticateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.signup.Handler.AuthenticateCodeHandler(r.Context(), r.PathValue("slug"), sessionMeta(r), req)
	if err != nil {
		writeSignupDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCodeSignup(w http.ResponseWriter, r *http.Request) {
	var req signuphttp.AuthenticateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.signup.Handler.CodeSignupHandler(r.Context(), r.PathValue("slug"), sessionMeta(r), req)
	if err != nil {
		writeSignupDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleOtherSignup(w http.ResponseWriter, r *http.Request) {
	var req signuphttp.OtherSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.signup.Handler.OtherSignupHandler(r.Context(), r.PathValue("slug"), sessionMeta(r), req)
	if err != nil {
		writeSignupDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSMSSignup(w http.ResponseWriter, r *http.Request) {
	var req signuphttp.SMSSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.signup.Handler.SMSSignupHandler(r.Context(), r.PathValue("slug"), sessionMeta(r), req)
	if err != nil {
		writeSignupDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConfirmSMSSignup(w http.ResponseWriter, r *http.Request) {
	var req signuphttp.ConfirmSMSSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.signup.Handler.ConfirmSMSSignupHandler(r.Context(), r.PathValue("slug"), sessionMeta(r), req)
	if err != nil {
		writeSignupDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	voterID := r.Header.Get("X-Voter-Id")
	if voterID == "" {
		writeError(w, http.StatusUnauthorized, "missing_voter", "X-Voter-Id header is required")
		return
	}
	var req signuphttp.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.signup.Handler.RegisterHandler(r.Context(), r.PathValue("slug"), voterID, sessionMeta(r), req)
	if err != nil {
		writeSignupDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func sessionMeta(r *http.Request) signupcommands.SessionMeta {
	return signupcommands.SessionMeta{
		IPAddress: resolveClientIP(r),
		UserAgent: r.UserAgent(),
	}
}

func writeSignupDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, signuperrors.ErrElectionNotFound):
		writeError(w, http.StatusNotFound, "election_not_found", err.Error())
	case errors.Is(err, signuperrors.ErrVoterNotFound):
		writeError(w, http.StatusNotFound, "voter_not_found", err.Error())
	case errors.Is(err, signuperrors.ErrSignupDisabled):
		writeError(w, http.StatusForbidden, "signup_disabled", err.Error())
	case errors.Is(err, signuperrors.ErrVoidCode):
		writeError(w, http.StatusUnprocessableEntity, "void_code", err.Error())
	case errors.Is(err, signuperrors.ErrUsedCode):
		writeError(w, http.StatusConflict, "used_code", err.Error())
	case errors.Is(err, signuperrors.ErrWrongCode):
		writeError(w, http.StatusUnprocessableEntity, "wrong_code", err.Error())
	case errors.Is(err, signuperrors.ErrWrongAccountNumber):
		writeError(w, http.StatusUnprocessableEntity, "wrong_account_number", err.Error())
	case errors.Is(err, signuperrors.ErrWrongConfirmation):
		writeError(w, http.StatusUnprocessableEntity, "wrong_confirmation_code", err.Error())
	case errors.Is(err, signuperrors.ErrConfirmationExpired):
		writeError(w, http.StatusGone, "confirmation_expired", err.Error())
	case errors.Is(err, signuperrors.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate_limited", err.Error())
	case errors.Is(err, signuperrors.ErrSMSDeliveryFailed):
		writeError(w, http.StatusBadGateway, "sms_delivery_failed", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
