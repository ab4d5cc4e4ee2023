package session

import "errors"

// Error taxonomy for the login path. Validation and rate-limit errors are
// resolved locally, before any network attempt; the rest always leave the
// session in a clean unauthenticated state with no partial credentials.
var (
	ErrInvalidEmail    = errors.New("invalid email address")
	ErrRateLimited     = errors.New("too many login attempts, please try again later")
	ErrAuthFailed      = errors.New("invalid email or password")
	ErrProfileFetch    = errors.New("failed to load administrator profile")
	ErrStorageReadback = errors.New("failed to persist session credentials")
)
