package reaper

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rsheldon/quorum/internal/dependencies/clock"
	"github.com/rsheldon/quorum/internal/model"
	"github.com/rsheldon/quorum/internal/services/registry"
	"github.com/rsheldon/quorum/internal/storage"
)

// Reaper destroys sessions whose last significant change is older than the
// configured time to live. A single sweep walks the registry; each session is
// judged and destroyed independently, so one bad session cannot stall the
// rest of the sweep.
type Reaper struct {
	storage  storage.Storage
	registry *registry.Service
	clock    clock.Clock
	ttl      time.Duration
	logger   *slog.Logger
}

// New creates a Reaper with the given time to live
func New(
	store storage.Storage,
	reg *registry.Service,
	clk clock.Clock,
	ttl time.Duration,
	logger *slog.Logger,
) *Reaper {
	return &Reaper{
		storage:  store,
		registry: reg,
		clock:    clk,
		ttl:      ttl,
		logger:   logger.With(slog.String("component", "reaper")),
	}
}

// Run sweeps once per time-to-live period until the context is cancelled.
// Expiry granularity equals the period: a session can survive up to twice
// the time to live, never less than it.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.ttl)
	defer ticker.Stop()

	r.logger.Info("reaper started", slog.Duration("ttl", r.ttl))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reaper stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep destroys every expired session and returns the number destroyed
func (r *Reaper) Sweep(ctx context.Context) int {
	codes, err := r.storage.ListSessionCodes(ctx)
	if err != nil {
		r.logger.Error("failed to list sessions", slog.Any("error", err))
		return 0
	}

	cutoff := r.clock.Now().Add(-r.ttl)
	reaped := 0
	for _, code := range codes {
		if r.reapIfExpired(ctx, code, cutoff) {
			reaped++
		}
	}

	if reaped > 0 {
		r.logger.Info("sweep complete",
			slog.Int("scanned", len(codes)),
			slog.Int("reaped", reaped),
		)
	}
	return reaped
}

func (r *Reaper) reapIfExpired(ctx context.Context, code model.SessionCode, cutoff time.Time) bool {
	status, err := r.storage.GetStatus(ctx, code)
	if errors.Is(err, model.ErrSessionNotFound) {
		// Registered but statusless: a half-destroyed session. Finish the job.
		return r.destroy(ctx, code)
	}
	if err != nil {
		r.logger.Error("failed to read status",
			slog.Int("code", int(code)),
			slog.Any("error", err),
		)
		return false
	}

	if status.LastChange.After(cutoff) {
		return false
	}
	return r.destroy(ctx, code)
}

func (r *Reaper) destroy(ctx context.Context, code model.SessionCode) bool {
	if err := r.registry.DestroySession(ctx, code); err != nil {
		r.logger.Error("failed to destroy expired session",
			slog.Int("code", int(code)),
			slog.Any("error", err),
		)
		return false
	}
	r.logger.Info("expired session reaped", slog.Int("code", int(code)))
	return true
}
