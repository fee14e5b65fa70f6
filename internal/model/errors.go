package model

import "errors"

// Common errors used across the application
var (
	// Session errors
	ErrSessionNotFound = errors.New("game does not exist")
	ErrServerFull      = errors.New("server is at capacity")
	ErrCodeTaken       = errors.New("session code already in use")
	ErrGameInProgress  = errors.New("game is in progress")

	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrNameTaken      = errors.New("name is already taken")
	ErrSessionFull    = errors.New("game is full")
	ErrBlankName      = errors.New("name cannot be blank")
	ErrNameTooLong    = errors.New("name is too long")
	ErrSameName       = errors.New("new name is the same as the current name")
)

// IsDomainError reports whether err is an expected validation or
// state-conflict failure, safe to surface to clients verbatim, as opposed to
// an unexpected failure that must be logged and masked.
func IsDomainError(err error) bool {
	for _, domain := range []error{
		ErrSessionNotFound,
		ErrServerFull,
		ErrGameInProgress,
		ErrPlayerNotFound,
		ErrNameTaken,
		ErrSessionFull,
		ErrBlankName,
		ErrNameTooLong,
		ErrSameName,
	} {
		if errors.Is(err, domain) {
			return true
		}
	}
	return false
}
