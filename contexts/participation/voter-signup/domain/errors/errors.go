package errors

import "errors"

var (
	ErrElectionNotFound = errors.New("election not found")
	ErrVoterNotFound    = errors.New("voter not found")
	ErrCodeNotFound     = errors.New("access code not found")

	// ErrSignupDisabled covers every flow the election's flags do not
	// enable. It is a hard failure, not a redirect.
	ErrSignupDisabled = errors.New("signup flow is not enabled for this election")

	ErrVoidCode = errors.New("access code has been voided")
	ErrUsedCode = errors.New("access code has already completed voting")

	ErrWrongCode          = errors.New("unknown access code")
	ErrWrongAccountNumber = errors.New("unknown account number")
	ErrWrongConfirmation  = errors.New("confirmation code does not match")

	// ErrRateLimited asks the caller to retry after the sliding window
	// passes. No state changes when it is returned.
	ErrRateLimited = errors.New("too many failed attempts, retry later")

	ErrConfirmationExpired = errors.New("confirmation code has expired")

	// ErrSMSDeliveryFailed is surfaced only on the signup confirmation
	// path, where the SMS is the workflow step itself. Vote-path
	// notifications swallow delivery failures.
	ErrSMSDeliveryFailed = errors.New("sms delivery failed")

	ErrRegistrationNotFound = errors.New("voter registration record not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// IsCredentialRejection classifies the failures that are logged to the
// activity trail and count toward the signup rate limits.
func IsCredentialRejection(err error) bool {
	return errors.Is(err, ErrWrongCode) ||
		errors.Is(err, ErrWrongAccountNumber) ||
		errors.Is(err, ErrWrongConfirmation)
}
