package join

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/rsheldon/quorum/internal/dependencies/random"
	"github.com/rsheldon/quorum/internal/locks"
	"github.com/rsheldon/quorum/internal/model"
	"github.com/rsheldon/quorum/internal/services/auth"
	"github.com/rsheldon/quorum/internal/storage"
)

// Result is returned to a successfully joined player. Key is the player's
// secret, transmitted exactly once; only its digest is stored.
type Result struct {
	Code model.SessionCode `json:"gameCode"`
	Name string            `json:"name"`
	Key  string            `json:"key"`
}

// Service registers, renames and removes players. All mutations for one
// session are serialized through a per-code critical section so concurrent
// joins cannot both pass the capacity or uniqueness checks.
type Service struct {
	storage storage.Storage
	random  random.Random
	locks   *locks.SessionLocks
	logger  *slog.Logger
}

// New creates a new join Service
func New(storage storage.Storage, rnd random.Random, sessionLocks *locks.SessionLocks, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		random:  rnd,
		locks:   sessionLocks,
		logger:  logger.With(slog.String("component", "join")),
	}
}

// ValidateName checks the player name constraints shared by join and rename.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return model.ErrBlankName
	}
	if utf8.RuneCountInString(name) > model.MaxNameLength {
		return model.ErrNameTooLong
	}
	return nil
}

// Join registers name into the session identified by code and issues the
// player's secret.
func (s *Service) Join(ctx context.Context, code model.SessionCode, name string) (*Result, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(code)
	defer unlock()

	status, err := s.storage.GetStatus(ctx, code)
	if err != nil {
		return nil, err
	}
	if status.Playing {
		return nil, model.ErrGameInProgress
	}

	if _, err := s.storage.GetPlayer(ctx, code, name); err == nil {
		return nil, model.ErrNameTaken
	} else if !errors.Is(err, model.ErrPlayerNotFound) {
		return nil, err
	}

	count, err := s.storage.CountPlayers(ctx, code)
	if err != nil {
		return nil, err
	}
	if count >= model.MaxPlayers {
		return nil, model.ErrSessionFull
	}

	key := s.random.Secret()
	player := &model.Player{
		Name:      name,
		Order:     count + 1,
		HashedKey: auth.DigestKey(key),
	}
	if err := s.storage.SavePlayer(ctx, code, player); err != nil {
		return nil, err
	}

	s.logger.Info("player joined",
		slog.Int("code", int(code)),
		slog.String("player", name),
		slog.Int("order", player.Order),
	)

	return &Result{Code: code, Name: name, Key: key}, nil
}

// Rename changes a player's name, preserving order, digest and connection
// binding.
func (s *Service) Rename(ctx context.Context, code model.SessionCode, oldName, newName string) error {
	if err := ValidateName(newName); err != nil {
		return err
	}
	if newName == oldName {
		return model.ErrSameName
	}

	unlock := s.locks.Lock(code)
	defer unlock()

	status, err := s.storage.GetStatus(ctx, code)
	if err != nil {
		return err
	}
	if status.Playing {
		return model.ErrGameInProgress
	}

	player, err := s.storage.GetPlayer(ctx, code, oldName)
	if err != nil {
		return err
	}

	if _, err := s.storage.GetPlayer(ctx, code, newName); err == nil {
		return model.ErrNameTaken
	} else if !errors.Is(err, model.ErrPlayerNotFound) {
		return err
	}

	player.Name = newName
	if err := s.storage.SavePlayer(ctx, code, player); err != nil {
		return err
	}
	if err := s.storage.DeletePlayer(ctx, code, oldName); err != nil {
		return err
	}

	s.logger.Info("player renamed",
		slog.Int("code", int(code)),
		slog.String("from", oldName),
		slog.String("to", newName),
	)

	return nil
}

// Remove deletes a player from the session. When the roster empties, the
// whole session is destroyed; destroyed reports whether that happened.
func (s *Service) Remove(ctx context.Context, code model.SessionCode, name string) (destroyed bool, err error) {
	unlock := s.locks.Lock(code)
	defer unlock()

	if _, err := s.storage.GetStatus(ctx, code); err != nil {
		return false, err
	}

	if _, err := s.storage.GetPlayer(ctx, code, name); err != nil {
		return false, err
	}

	if err := s.storage.DeletePlayer(ctx, code, name); err != nil {
		return false, err
	}

	count, err := s.storage.CountPlayers(ctx, code)
	if err != nil {
		return false, err
	}

	s.logger.Info("player removed",
		slog.Int("code", int(code)),
		slog.String("player", name),
	)

	if count == 0 {
		if err := s.storage.DeleteSession(ctx, code); err != nil {
			return false, err
		}
		s.logger.Info("session destroyed, roster empty", slog.Int("code", int(code)))
		return true, nil
	}

	return false, nil
}
