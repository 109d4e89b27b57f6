package entities

import "time"

// Activity kinds recorded by signup flows. The failure kinds double as
// rate-limit counters; the success kinds are audit trail only.
const (
	ActivityRemoteSignupFailure = "remote_voting_signup_failure"
	ActivitySMSSignupFailure    = "sms_signup_failure"
	ActivitySMSSignupSuccess    = "sms_signup_success"
	ActivityConfirmFailure      = "sms_signup_confirm_failure"
	ActivityConfirmSuccess      = "sms_signup_confirm_success"
	ActivityRegistrationSuccess = "voter_registration_success"
	ActivitySMSSendFailure      = "sms_failure"
)

// ActivityEntry is one row of the signup activity log.
type ActivityEntry struct {
	ActivityID string
	ElectionID string
	Kind       string
	IPAddress  string
	Note       string
	CreatedAt  time.Time
}
