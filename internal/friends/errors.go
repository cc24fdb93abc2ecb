package friends

import "errors"

var (
	// ErrNotFound means there is no accepted viewer->target edge, or the target has no
	// entry in the total-friend-count view. It is a terminal outcome.
	ErrNotFound = errors.New("friend not found")

	// ErrInvalidInput is returned before any query runs.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorageUnavailable marks failures the caller may retry: the store could not be
	// reached or did not answer in time.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
