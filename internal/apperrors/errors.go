package apperrors

import "errors"

// Sentinel errors returned by the matching and session services.
// Handlers translate these to HTTP statuses; callers match with
// errors.Is.
var (
	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrForbidden means the caller does not own the resource or holds
	// the wrong role for the operation.
	ErrForbidden = errors.New("operation not permitted for this user")

	// ErrInvalidState means the operation is not valid for the record's
	// current status, e.g. confirming an expired match request.
	ErrInvalidState = errors.New("operation not valid in current state")

	// ErrPartnerUnavailable means the matched counterpart cancelled or
	// expired after matching but before the merge. The caller's own
	// match request is reset to pending so the queue can re-match it.
	ErrPartnerUnavailable = errors.New("matched partner is no longer available")

	// ErrAlreadyMerged means the scheduled request already merged into a
	// live session; the session must be ended, not cancelled.
	ErrAlreadyMerged = errors.New("request already merged into a live session")

	// ErrAlreadyPaired means the merge for this request already happened
	// and the caller should fetch session status instead of re-matching.
	ErrAlreadyPaired = errors.New("request already paired into a session")

	// ErrNoSecondQuestion means the session's track does not support
	// role switching.
	ErrNoSecondQuestion = errors.New("session has no second question slot")
)
