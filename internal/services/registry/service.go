package registry

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rsheldon/quorum/internal/dependencies/clock"
	"github.com/rsheldon/quorum/internal/dependencies/random"
	"github.com/rsheldon/quorum/internal/locks"
	"github.com/rsheldon/quorum/internal/model"
	"github.com/rsheldon/quorum/internal/storage"
)

// Config holds limits for the session registry
type Config struct {
	// MaxSessions is the global cap on concurrently active sessions
	MaxSessions int
	// CodeSpace is the exclusive upper bound for generated session codes
	CodeSpace int
}

// DefaultConfig returns the production limits
func DefaultConfig() Config {
	return Config{
		MaxSessions: model.MaxSessions,
		CodeSpace:   model.CodeSpace,
	}
}

// Service allocates and tears down sessions
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	locks   *locks.SessionLocks
	cfg     Config
	logger  *slog.Logger
}

// New creates a new registry Service
func New(storage storage.Storage, clk clock.Clock, rnd random.Random, sessionLocks *locks.SessionLocks, cfg Config, logger *slog.Logger) *Service {
	if cfg.MaxSessions == 0 {
		cfg.MaxSessions = DefaultConfig().MaxSessions
	}
	if cfg.CodeSpace == 0 {
		cfg.CodeSpace = DefaultConfig().CodeSpace
	}
	return &Service{
		storage: storage,
		clock:   clk,
		random:  rnd,
		locks:   sessionLocks,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "registry")),
	}
}

// CreateSession allocates a fresh session code and writes its initial status.
// Code collisions are resolved by redrawing: the storage insert is atomic, so
// a racing creator that loses the draw observes ErrCodeTaken and tries again.
func (s *Service) CreateSession(ctx context.Context) (model.SessionCode, error) {
	count, err := s.storage.CountSessions(ctx)
	if err != nil {
		return 0, err
	}
	if count >= s.cfg.MaxSessions {
		return 0, model.ErrServerFull
	}

	status := &model.SessionStatus{
		Playing:    false,
		LastChange: s.clock.Now(),
	}

	for {
		code := model.SessionCode(s.random.Intn(s.cfg.CodeSpace))
		err := s.storage.CreateSession(ctx, code, status)
		if errors.Is(err, model.ErrCodeTaken) {
			continue
		}
		if err != nil {
			return 0, err
		}

		s.logger.Info("session created", slog.Int("code", int(code)))
		return code, nil
	}
}

// DestroySession drops the session and everything scoped to it. Destroying a
// nonexistent session is a no-op.
func (s *Service) DestroySession(ctx context.Context, code model.SessionCode) error {
	if err := s.storage.DeleteSession(ctx, code); err != nil {
		return err
	}
	s.logger.Info("session destroyed", slog.Int("code", int(code)))
	return nil
}

// SetPlaying flips the in-progress flag and refreshes the idle-expiry clock.
// Round start and end are driven by the rule engine through this entry point.
// The write runs inside the session's critical section so a join that passed
// its playing check cannot land after the flag flips.
func (s *Service) SetPlaying(ctx context.Context, code model.SessionCode, playing bool) error {
	unlock := s.locks.Lock(code)
	defer unlock()

	status, err := s.storage.GetStatus(ctx, code)
	if err != nil {
		return err
	}
	status.Playing = playing
	status.LastChange = s.clock.Now()
	return s.storage.SaveStatus(ctx, code, status)
}

// Touch refreshes the idle-expiry clock without changing the playing flag.
func (s *Service) Touch(ctx context.Context, code model.SessionCode) error {
	unlock := s.locks.Lock(code)
	defer unlock()

	status, err := s.storage.GetStatus(ctx, code)
	if err != nil {
		return err
	}
	status.LastChange = s.clock.Now()
	return s.storage.SaveStatus(ctx, code, status)
}
