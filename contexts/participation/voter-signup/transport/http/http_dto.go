// Package httptransport defines the JSON wire types for the signup API.
package httptransport

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AuthenticateCodeRequest carries a machine or remote access code.
type AuthenticateCodeRequest struct {
	Code       string `json:"code"`
	LocationID string `json:"location_id,omitempty"`
}

// AuthResponse reports a completed authentication. NextStep is either
// "registration" or the first workflow stage.
type AuthResponse struct {
	VoterID  string `json:"voter_id"`
	Test     bool   `json:"test,omitempty"`
	NextStep string `json:"next_step"`
}

type OtherSignupRequest struct {
	AccountNumber string `json:"account_number"`
	ZipCode       string `json:"zipcode,omitempty"`
}

type SMSSignupRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// SMSSignupResponse identifies the provisional voter the confirmation
// step refers back to.
type SMSSignupResponse struct {
	VoterID string `json:"voter_id"`
}

type ConfirmSMSSignupRequest struct {
	VoterID          string `json:"voter_id"`
	ConfirmationCode string `json:"confirmation_code"`
}

type RegisterRequest struct {
	Answers map[string]string `json:"answers"`
}

type RegisterResponse struct {
	NextStep string `json:"next_step"`
}
