package services

import "errors"

// Review engine failure modes. Handlers map these onto distinct HTTP statuses,
// so callers can tell a missing issue from a locked one.
var (
	ErrIssueNotFound = errors.New("issue not found")
	ErrIssueLocked   = errors.New("issue is immutable and cannot be modified")
	ErrInvalidStatus = errors.New("status must be 'valid' or 'invalid'")

	// ErrReviewConflict is returned when concurrent reviews of the same issue
	// exhaust the optimistic-retry budget.
	ErrReviewConflict = errors.New("issue was modified concurrently, please retry")

	// ErrScoreUpdate means the reporter score increment could not be applied;
	// the enclosing transaction rolls the status write back.
	ErrScoreUpdate = errors.New("failed to update reporter score")
)
