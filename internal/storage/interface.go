package storage

import (
	"context"

	"github.com/rsheldon/quorum/internal/model"
)

// Storage defines the interface for session persistence. Each session owns a
// single status document and a players collection; a global registry tracks
// active session codes.
type Storage interface {
	// Session registry operations
	//
	// CreateSession atomically registers the code and writes its initial
	// status document. It returns model.ErrCodeTaken if the code is already
	// registered; callers are expected to draw a fresh code and retry.
	CreateSession(ctx context.Context, code model.SessionCode, status *model.SessionStatus) error

	// DeleteSession drops the session's registry entry, status document and
	// players collection. Deleting a nonexistent session is a no-op.
	DeleteSession(ctx context.Context, code model.SessionCode) error

	SessionExists(ctx context.Context, code model.SessionCode) (bool, error)
	ListSessionCodes(ctx context.Context) ([]model.SessionCode, error)
	CountSessions(ctx context.Context) (int, error)

	// Status operations
	GetStatus(ctx context.Context, code model.SessionCode) (*model.SessionStatus, error)
	SaveStatus(ctx context.Context, code model.SessionCode, status *model.SessionStatus) error

	// Player operations
	SavePlayer(ctx context.Context, code model.SessionCode, player *model.Player) error
	GetPlayer(ctx context.Context, code model.SessionCode, name string) (*model.Player, error)
	ListPlayers(ctx context.Context, code model.SessionCode) ([]*model.Player, error)
	DeletePlayer(ctx context.Context, code model.SessionCode, name string) error
	CountPlayers(ctx context.Context, code model.SessionCode) (int, error)
}
