package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rsheldon/quorum/internal/model"
	"github.com/rsheldon/quorum/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	sessions map[model.SessionCode]*session
}

type session struct {
	status  model.SessionStatus
	players map[string]model.Player
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		sessions: make(map[model.SessionCode]*session),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Session registry operations

func (s *Storage) CreateSession(ctx context.Context, code model.SessionCode, status *model.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[code]; ok {
		return model.ErrCodeTaken
	}
	s.sessions[code] = &session{
		status:  *status,
		players: make(map[string]model.Player),
	}
	return nil
}

func (s *Storage) DeleteSession(ctx context.Context, code model.SessionCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, code)
	return nil
}

func (s *Storage) SessionExists(ctx context.Context, code model.SessionCode) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[code]
	return ok, nil
}

func (s *Storage) ListSessionCodes(ctx context.Context) ([]model.SessionCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make([]model.SessionCode, 0, len(s.sessions))
	for code := range s.sessions {
		codes = append(codes, code)
	}
	return codes, nil
}

func (s *Storage) CountSessions(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}

// Status operations

func (s *Storage) GetStatus(ctx context.Context, code model.SessionCode) (*model.SessionStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[code]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	status := sess.status
	return &status, nil
}

func (s *Storage) SaveStatus(ctx context.Context, code model.SessionCode, status *model.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[code]
	if !ok {
		return model.ErrSessionNotFound
	}
	sess.status = *status
	return nil
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, code model.SessionCode, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[code]
	if !ok {
		return model.ErrSessionNotFound
	}
	sess.players[player.Name] = *player
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, code model.SessionCode, name string) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[code]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	player, ok := sess.players[name]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return &player, nil
}

func (s *Storage) ListPlayers(ctx context.Context, code model.SessionCode) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[code]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	players := make([]*model.Player, 0, len(sess.players))
	for name := range sess.players {
		player := sess.players[name]
		players = append(players, &player)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].Order < players[j].Order
	})
	return players, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, code model.SessionCode, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[code]
	if !ok {
		return model.ErrSessionNotFound
	}
	delete(sess.players, name)
	return nil
}

func (s *Storage) CountPlayers(ctx context.Context, code model.SessionCode) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[code]
	if !ok {
		return 0, model.ErrSessionNotFound
	}
	return len(sess.players), nil
}
