package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"

	"github.com/rsheldon/quorum/internal/model"
	"github.com/rsheldon/quorum/internal/storage"
)

// Errors. All three carry the authError kind over the wire so clients can
// discard stored credentials and return to the entry screen.
var (
	ErrSessionMissing = errors.New("session does not exist")
	ErrNotJoined      = errors.New("not joined")
	ErrUnauthorized   = errors.New("unauthorized")
)

// IsAuthError reports whether err is an authentication failure as opposed to
// a generic failure.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrSessionMissing) ||
		errors.Is(err, ErrNotJoined) ||
		errors.Is(err, ErrUnauthorized)
}

// DigestKey returns the one-way digest stored for a player secret.
func DigestKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// Result identifies the player a connection authenticated as
type Result struct {
	Code model.SessionCode
	Name string
}

// Service verifies connection credentials against stored player digests
type Service struct {
	storage storage.Storage
	logger  *slog.Logger
}

// New creates a new auth Service
func New(storage storage.Storage, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		logger:  logger.With(slog.String("component", "auth")),
	}
}

// Authenticate verifies a credential and, on success, binds connectionID onto
// the player record. The binding is last-writer-wins: a reconnecting client
// with valid credentials supersedes a prior stale binding. A failed
// authentication never writes the binding.
func (s *Service) Authenticate(ctx context.Context, connectionID string, cred model.Credential) (*Result, error) {
	if _, err := s.storage.GetStatus(ctx, cred.Code); err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, ErrSessionMissing
		}
		return nil, err
	}

	player, err := s.storage.GetPlayer(ctx, cred.Code, cred.Name)
	if err != nil {
		if errors.Is(err, model.ErrPlayerNotFound) || errors.Is(err, model.ErrSessionNotFound) {
			return nil, ErrNotJoined
		}
		return nil, err
	}

	digest := DigestKey(cred.Key)
	if subtle.ConstantTimeCompare([]byte(digest), []byte(player.HashedKey)) != 1 {
		return nil, ErrUnauthorized
	}

	player.ConnectionID = connectionID
	if err := s.storage.SavePlayer(ctx, cred.Code, player); err != nil {
		return nil, err
	}

	s.logger.Debug("connection authenticated",
		slog.Int("code", int(cred.Code)),
		slog.String("player", cred.Name),
		slog.String("connection_id", connectionID),
	)

	return &Result{Code: cred.Code, Name: cred.Name}, nil
}
