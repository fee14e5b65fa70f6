package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/rsheldon/quorum/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.storage = NewWithClient(client, DefaultConfig())
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) newStatus() *model.SessionStatus {
	return &model.SessionStatus{
		Playing:    false,
		LastChange: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

// Session registry tests

func (s *StorageSuite) TestCreateSession() {
	err := s.storage.CreateSession(s.ctx, 1234, s.newStatus())
	s.Require().NoError(err)

	exists, err := s.storage.SessionExists(s.ctx, 1234)
	s.Require().NoError(err)
	s.True(exists)
}

func (s *StorageSuite) TestCreateSessionDuplicateCode() {
	err := s.storage.CreateSession(s.ctx, 1234, s.newStatus())
	s.Require().NoError(err)

	err = s.storage.CreateSession(s.ctx, 1234, s.newStatus())
	s.ErrorIs(err, model.ErrCodeTaken)
}

func (s *StorageSuite) TestCreateSessionWritesStatus() {
	status := s.newStatus()
	err := s.storage.CreateSession(s.ctx, 1234, status)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetStatus(s.ctx, 1234)
	s.Require().NoError(err)
	s.False(retrieved.Playing)
	s.True(retrieved.LastChange.Equal(status.LastChange))
}

func (s *StorageSuite) TestDeleteSessionCascades() {
	err := s.storage.CreateSession(s.ctx, 1234, s.newStatus())
	s.Require().NoError(err)
	err = s.storage.SavePlayer(s.ctx, 1234, &model.Player{Name: "Alice", Order: 1})
	s.Require().NoError(err)

	err = s.storage.DeleteSession(s.ctx, 1234)
	s.Require().NoError(err)

	exists, err := s.storage.SessionExists(s.ctx, 1234)
	s.Require().NoError(err)
	s.False(exists)

	_, err = s.storage.GetStatus(s.ctx, 1234)
	s.ErrorIs(err, model.ErrSessionNotFound)

	_, err = s.storage.GetPlayer(s.ctx, 1234, "Alice")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestDeleteSessionNonexistentIsNoop() {
	err := s.storage.DeleteSession(s.ctx, 9999)
	s.NoError(err)
}

func (s *StorageSuite) TestListSessionCodes() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, 1, s.newStatus()))
	s.Require().NoError(s.storage.CreateSession(s.ctx, 2, s.newStatus()))
	s.Require().NoError(s.storage.CreateSession(s.ctx, 999999, s.newStatus()))

	codes, err := s.storage.ListSessionCodes(s.ctx)
	s.Require().NoError(err)
	s.ElementsMatch([]model.SessionCode{1, 2, 999999}, codes)
}

func (s *StorageSuite) TestCountSessions() {
	n, err := s.storage.CountSessions(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, n)

	s.Require().NoError(s.storage.CreateSession(s.ctx, 1, s.newStatus()))
	s.Require().NoError(s.storage.CreateSession(s.ctx, 2, s.newStatus()))

	n, err = s.storage.CountSessions(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)
}

// Status tests

func (s *StorageSuite) TestGetStatusNotFound() {
	_, err := s.storage.GetStatus(s.ctx, 4242)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestSaveStatusRoundTrip() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, 1234, s.newStatus()))

	updated := &model.SessionStatus{
		Playing:    true,
		LastChange: time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC),
	}
	err := s.storage.SaveStatus(s.ctx, 1234, updated)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetStatus(s.ctx, 1234)
	s.Require().NoError(err)
	s.True(retrieved.Playing)
	s.True(retrieved.LastChange.Equal(updated.LastChange))
}

// Player tests

func (s *StorageSuite) TestSaveAndGetPlayer() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, 1234, s.newStatus()))

	player := &model.Player{
		Name:      "Alice",
		Order:     1,
		HashedKey: "digest123",
	}
	err := s.storage.SavePlayer(s.ctx, 1234, player)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetPlayer(s.ctx, 1234, "Alice")
	s.Require().NoError(err)
	s.Equal("Alice", retrieved.Name)
	s.Equal(1, retrieved.Order)
	s.Equal("digest123", retrieved.HashedKey)
	s.Empty(retrieved.ConnectionID)
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, 1234, s.newStatus()))

	_, err := s.storage.GetPlayer(s.ctx, 1234, "Nobody")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestListPlayersSortedByOrder() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, 1234, s.newStatus()))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, 1234, &model.Player{Name: "Carol", Order: 3}))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, 1234, &model.Player{Name: "Alice", Order: 1}))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, 1234, &model.Player{Name: "Bob", Order: 2}))

	players, err := s.storage.ListPlayers(s.ctx, 1234)
	s.Require().NoError(err)
	s.Require().Len(players, 3)
	s.Equal("Alice", players[0].Name)
	s.Equal("Bob", players[1].Name)
	s.Equal("Carol", players[2].Name)
}

func (s *StorageSuite) TestDeletePlayer() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, 1234, s.newStatus()))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, 1234, &model.Player{Name: "Alice", Order: 1}))

	err := s.storage.DeletePlayer(s.ctx, 1234, "Alice")
	s.Require().NoError(err)

	_, err = s.storage.GetPlayer(s.ctx, 1234, "Alice")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestCountPlayers() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, 1234, s.newStatus()))

	n, err := s.storage.CountPlayers(s.ctx, 1234)
	s.Require().NoError(err)
	s.Equal(0, n)

	s.Require().NoError(s.storage.SavePlayer(s.ctx, 1234, &model.Player{Name: "Alice", Order: 1}))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, 1234, &model.Player{Name: "Bob", Order: 2}))

	n, err = s.storage.CountPlayers(s.ctx, 1234)
	s.Require().NoError(err)
	s.Equal(2, n)
}

func (s *StorageSuite) TestSavePlayerOverwritesBinding() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, 1234, s.newStatus()))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, 1234, &model.Player{Name: "Alice", Order: 1, HashedKey: "d"}))

	bound := &model.Player{Name: "Alice", Order: 1, HashedKey: "d", ConnectionID: "conn-1"}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, 1234, bound))

	retrieved, err := s.storage.GetPlayer(s.ctx, 1234, "Alice")
	s.Require().NoError(err)
	s.Equal("conn-1", retrieved.ConnectionID)
}
