package domain

import "errors"

var (
	ErrNotFound = errors.New("project not found")

	// ErrRemoteUnavailable covers network failures, timeouts and a missing or
	// misconfigured remote store.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
	// ErrRemoteRejected means the remote store answered with an application error.
	ErrRemoteRejected = errors.New("remote store rejected request")

	ErrMalformedCache     = errors.New("malformed local cache")
	ErrOwnerRequired      = errors.New("owner id required")
	ErrIDRequired         = errors.New("project id required")
	ErrInvalidProject     = errors.New("invalid project")
	ErrUnknownSectionType = errors.New("unknown section type")
)

// IsRemoteFailure reports whether err is recoverable by falling back to local state.
func IsRemoteFailure(err error) bool {
	return errors.Is(err, ErrRemoteUnavailable) || errors.Is(err, ErrRemoteRejected)
}
