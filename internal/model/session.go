package model

import "time"

// SessionCode is the public, human-enterable identifier for a session.
type SessionCode int

const (
	// CodeSpace is the exclusive upper bound for session codes
	CodeSpace = 1_000_000
	// MaxSessions is the global cap on concurrently active sessions
	MaxSessions = 100_000
	// MaxPlayers is the per-session roster cap
	MaxPlayers = 10
	// MaxNameLength is the maximum player name length in characters
	MaxNameLength = 20
)

// Valid reports whether the code is within the session code space.
func (c SessionCode) Valid() bool {
	return c >= 0 && c < CodeSpace
}

// SessionStatus is the single status document owned by each session.
// LastChange is the idle-expiry clock; it is refreshed on creation and on
// round start/end.
type SessionStatus struct {
	Playing    bool      `json:"playing"`
	LastChange time.Time `json:"last_significant_change"`
}
