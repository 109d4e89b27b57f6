package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	ballotengine "civicvote/contexts/participation/ballot-engine"
	balloterrors "civicvote/contexts/participation/ballot-engine/domain/errors"
	ballothttp "civicvote/contexts/participation/ballot-engine/transport/http"
	votersignup "civicvote/contexts/participation/voter-signup"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	addr   string
	ballot ballotengine.Module
	signup votersignup.Module
}

func New(
	ballot ballotengine.Module,
	signup votersignup.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		ballot: ballot,
		signup: signup,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for httptest.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/elections/{slug}/stages/{stage}", s.handleEnterStage)
	s.mux.HandleFunc("GET /v1/elections/{slug}/pages/{method}", s.handleStagePage)
	s.mux.HandleFunc("GET /v1/elections/{slug}/comparison/pairs", s.handleComparisonPage)
	s.mux.HandleFunc("POST /v1/elections/{slug}/ballots/comparison", s.handleSubmitComparison)
	s.mux.HandleFunc("POST /v1/elections/{slug}/ballots/{method}", s.handleSubmitBatch)
	s.mux.HandleFunc("GET /v1/elections/{slug}/results", s.handleResults)

	s.mux.HandleFunc("POST /v1/elections/{slug}/auth/code", s.handleAuthenticateCode)
	s.mux.HandleFunc("POST /v1/elections/{slug}/signup/code", s.handleCodeSignup)
	s.mux.HandleFunc("POST /v1/elections/{slug}/signup/other", s.handleOtherSignup)
	s.mux.HandleFunc("POST /v1/elections/{slug}/signup/sms", s.handleSMSSignup)
	s.mux.HandleFunc("POST /v1/elections/{slug}/signup/sms/confirm", s.handleConfirmSMSSignup)
	s.mux.HandleFunc("POST /v1/elections/{slug}/registration", s.handleRegister)
}

const thanksApprovalStage = "thanks_approval"

func (s *Server) handleEnterStage(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	stage := r.PathValue("stage")
	voterID := r.Header.Get("X-Voter-Id")

	// Entering the thank-you stage is the vote-recorded moment; the
	// thank-you SMS rides on it, best effort.
	if stage == thanksApprovalStage && voterID != "" {
		s.signup.Handler.QueueThanksSMSHandler(r.Context(), slug, voterID)
	}

	resp, err := s.ballot.Handler.EnterStageHandler(r.Context(), slug, voterID, stage, isDemo(r))
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStagePage(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	method := r.PathValue("method")
	voterID := r.Header.Get("X-Voter-Id")

	subpage := 0
	if raw := r.URL.Query().Get("subpage"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_subpage", "subpage must be an integer")
			return
		}
		subpage = value
	}

	resp, err := s.ballot.Handler.StagePageHandler(r.Context(), slug, voterID, method, subpage)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleComparisonPage(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ballot.Handler.ComparisonPageHandler(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	method := r.PathValue("method")
	voterID := r.Header.Get("X-Voter-Id")

	var req ballothttp.SubmitBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.ballot.Handler.SubmitBatchHandler(r.Context(), slug, voterID, method, isDemo(r), req)
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSubmitComparison(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	voterID := r.Header.Get("X-Voter-Id")

	var req ballothttp.SubmitComparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	if err := s.ballot.Handler.SubmitComparisonHandler(r.Context(), slug, voterID, isDemo(r), req); err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ballot.Handler.ResultsHandler(r.Context(), r.PathValue("slug"))
	if err != nil {
		writeBallotDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeBallotDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, balloterrors.ErrElectionNotFound):
		writeError(w, http.StatusNotFound, "election_not_found", err.Error())
	case errors.Is(err, balloterrors.ErrVoterNotFound):
		writeError(w, http.StatusNotFound, "voter_not_found", err.Error())
	case errors.Is(err, balloterrors.ErrResultsNotPublic):
		// Elections without public results pretend the page does not
		// exist.
		writeError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, balloterrors.ErrInvalidBallotInput):
		writeError(w, http.StatusBadRequest, "invalid_ballot", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"code":  code,
		"error": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func isDemo(r *http.Request) bool {
	value := strings.TrimSpace(r.URL.Query().Get("demo"))
	return value == "1" || value == "true"
}

func resolveClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}
