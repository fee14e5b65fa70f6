package ws

import (
	"context"
	"log/slog"

	"github.com/rsheldon/quorum/internal/locks"
	"github.com/rsheldon/quorum/internal/model"
	"github.com/rsheldon/quorum/internal/storage"
)

// Broadcaster pushes session-status snapshots to a session's room
type Broadcaster struct {
	hubs    *HubManager
	storage storage.Storage
	locks   *locks.SessionLocks
	logger  *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubs *HubManager, storage storage.Storage, sessionLocks *locks.SessionLocks, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubs:    hubs,
		storage: storage,
		locks:   sessionLocks,
		logger:  logger.With(slog.String("component", "broadcaster")),
	}
}

// BroadcastStatus reads the session's status and roster and pushes a snapshot
// to every connection in its room. While a game is in progress this layer
// emits nothing; the rule engine produces the in-game view. Store read
// failures degrade to a masked error event rather than crashing the push
// path.
func (b *Broadcaster) BroadcastStatus(ctx context.Context, code model.SessionCode) {
	hub := b.hubs.GetHub(code)
	if hub == nil {
		return
	}

	roster, err := b.snapshotRoster(ctx, code)
	if err != nil {
		b.pushInternalError(hub, code, err)
		return
	}
	if roster == nil {
		return
	}

	msg, err := marshalEvent(EventGameStatus, StatusPayload{Playing: false, Players: roster})
	if err != nil {
		b.logger.Error("failed to marshal status snapshot",
			slog.Int("code", int(code)),
			slog.Any("error", err),
		)
		return
	}
	hub.Broadcast(msg)
}

// snapshotRoster reads status and roster inside the session's critical
// section so a rename or removal mid-write can never surface as a roster
// with duplicate or missing entries. A nil roster with nil error means the
// game is in progress and nothing should be pushed.
func (b *Broadcaster) snapshotRoster(ctx context.Context, code model.SessionCode) ([]RosterEntry, error) {
	unlock := b.locks.Lock(code)
	defer unlock()

	status, err := b.storage.GetStatus(ctx, code)
	if err != nil {
		return nil, err
	}
	if status.Playing {
		return nil, nil
	}

	players, err := b.storage.ListPlayers(ctx, code)
	if err != nil {
		return nil, err
	}

	roster := make([]RosterEntry, 0, len(players))
	for _, p := range players {
		roster = append(roster, RosterEntry{Name: p.Name, Order: p.Order})
	}
	return roster, nil
}

func (b *Broadcaster) pushInternalError(hub *Hub, code model.SessionCode, err error) {
	b.logger.Error("status read failed",
		slog.Int("code", int(code)),
		slog.Any("error", err),
	)
	msg, merr := marshalEvent(EventError, ErrorPayload{Message: "internal server error"})
	if merr != nil {
		return
	}
	hub.Broadcast(msg)
}
