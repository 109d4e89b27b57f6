package entities

import "time"

// PhoneQuestionID is the registration answer carrying the voter's phone
// number, consumed by the thank-you SMS flow.
const PhoneQuestionID = "phone_number"

// RegistrationRecord stores a voter's answers to the election's
// registration questions. Answers are keyed by question ID.
type RegistrationRecord struct {
	RecordID   string
	ElectionID string
	VoterID    string
	Answers    map[string]string
	CreatedAt  time.Time
}

// PhoneNumber returns the registered phone number, or "" when the form did
// not collect one.
func (r RegistrationRecord) PhoneNumber() string {
	return r.Answers[PhoneQuestionID]
}
