package task

import "errors"

// Validation failures the caller can fix by resubmitting corrected input.
// Anything else coming out of the service is a persistence failure.
var (
	ErrMissingFields   = errors.New("missing required fields")
	ErrInvalidTaskType = errors.New("invalid task type")
	ErrDueAtNotFuture  = errors.New("due_at must be a future datetime")
	ErrTaskNotFound    = errors.New("task not found")
)
