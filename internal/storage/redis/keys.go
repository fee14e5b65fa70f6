package redis

import (
	"fmt"

	"github.com/rsheldon/quorum/internal/model"
)

// Key prefix for all session-related data
const keyPrefix = "quorum"

// registryKey returns the Redis key for the SET of active session codes
func registryKey() string {
	return fmt.Sprintf("%s:sessions", keyPrefix)
}

// statusKey returns the Redis key for a session's status document
func statusKey(code model.SessionCode) string {
	return fmt.Sprintf("%s:session:%d:status", keyPrefix, code)
}

// playersKey returns the Redis key for a session's players HASH (name -> player)
func playersKey(code model.SessionCode) string {
	return fmt.Sprintf("%s:session:%d:players", keyPrefix, code)
}
