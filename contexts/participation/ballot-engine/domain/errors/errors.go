package errors

import "errors"

var (
	ErrElectionNotFound = errors.New("election not found")
	ErrVoterNotFound    = errors.New("voter not found")
	ErrResultsNotPublic = errors.New("public results are not enabled")

	// Constraint violations. The whole ballot is rolled back; callers
	// redirect the voter forward without surfacing the reason.
	ErrBudgetExceeded     = errors.New("total selected cost exceeds election budget")
	ErrProjectCountBounds = errors.New("selected project count out of bounds")
	ErrInvalidRanking     = errors.New("submitted ranks are not a contiguous 1..k permutation")

	// ErrDuplicateSubmission is raised inside the commit path and treated
	// as an idempotent no-op success by callers.
	ErrDuplicateSubmission = errors.New("ballot already committed for this scope")

	ErrInvalidBallotInput = errors.New("invalid ballot input")

	// ErrZeroCostRecord guards the derived zero-cost accounting: the store
	// never persists a cost-0 selection, so finding one means the tally
	// would double-count.
	ErrZeroCostRecord = errors.New("stored zero-cost record breaks derived accounting")
)

// IsConstraintViolation classifies rule failures that trigger a silent
// rollback-and-redirect rather than a hard error.
func IsConstraintViolation(err error) bool {
	return errors.Is(err, ErrBudgetExceeded) ||
		errors.Is(err, ErrProjectCountBounds) ||
		errors.Is(err, ErrInvalidRanking)
}
