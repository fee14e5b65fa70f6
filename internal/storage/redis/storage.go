package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rsheldon/quorum/internal/model"
	"github.com/rsheldon/quorum/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Session registry operations

// CreateSession uses the SADD return value as the atomic exists-check-and-insert:
// a raced duplicate code observes 0 added members and reports model.ErrCodeTaken
// without touching the loser's session scope.
func (s *Storage) CreateSession(ctx context.Context, code model.SessionCode, status *model.SessionStatus) error {
	added, err := s.client.SAdd(ctx, registryKey(), int64(code)).Result()
	if err != nil {
		return err
	}
	if added == 0 {
		return model.ErrCodeTaken
	}

	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, statusKey(code), data, 0).Err(); err != nil {
		// Roll the registry entry back so a half-created session does not
		// block its code forever.
		_ = s.client.SRem(ctx, registryKey(), int64(code)).Err()
		return err
	}
	return nil
}

func (s *Storage) DeleteSession(ctx context.Context, code model.SessionCode) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, statusKey(code))
	pipe.Del(ctx, playersKey(code))
	pipe.SRem(ctx, registryKey(), int64(code))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) SessionExists(ctx context.Context, code model.SessionCode) (bool, error) {
	return s.client.SIsMember(ctx, registryKey(), int64(code)).Result()
}

func (s *Storage) ListSessionCodes(ctx context.Context) ([]model.SessionCode, error) {
	members, err := s.client.SMembers(ctx, registryKey()).Result()
	if err != nil {
		return nil, err
	}

	codes := make([]model.SessionCode, 0, len(members))
	for _, m := range members {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue // Skip malformed entries
		}
		codes = append(codes, model.SessionCode(n))
	}
	return codes, nil
}

func (s *Storage) CountSessions(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, registryKey()).Result()
	return int(n), err
}

// Status operations

func (s *Storage) GetStatus(ctx context.Context, code model.SessionCode) (*model.SessionStatus, error) {
	data, err := s.client.Get(ctx, statusKey(code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}

	var status model.SessionStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *Storage) SaveStatus(ctx context.Context, code model.SessionCode, status *model.SessionStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, statusKey(code), data, 0).Err()
}

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, code model.SessionCode, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, playersKey(code), player.Name, data).Err()
}

func (s *Storage) GetPlayer(ctx context.Context, code model.SessionCode, name string) (*model.Player, error) {
	data, err := s.client.HGet(ctx, playersKey(code), name).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *Storage) ListPlayers(ctx context.Context, code model.SessionCode) ([]*model.Player, error) {
	entries, err := s.client.HGetAll(ctx, playersKey(code)).Result()
	if err != nil {
		return nil, err
	}

	players := make([]*model.Player, 0, len(entries))
	for _, data := range entries {
		var player model.Player
		if err := json.Unmarshal([]byte(data), &player); err != nil {
			continue // Skip invalid data
		}
		players = append(players, &player)
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].Order < players[j].Order
	})
	return players, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, code model.SessionCode, name string) error {
	return s.client.HDel(ctx, playersKey(code), name).Err()
}

func (s *Storage) CountPlayers(ctx context.Context, code model.SessionCode) (int, error) {
	n, err := s.client.HLen(ctx, playersKey(code)).Result()
	return int(n), err
}
