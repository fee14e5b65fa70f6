package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rsheldon/quorum/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

func (s *StorageSuite) newStatus() *model.SessionStatus {
	return &model.SessionStatus{
		Playing:    false,
		LastChange: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (s *StorageSuite) TestCreateSessionDuplicateCode() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, 1234, s.newStatus()))
	s.ErrorIs(s.storage.CreateSession(s.ctx, 1234, s.newStatus()), model.ErrCodeTaken)
}

func (s *StorageSuite) TestDeleteSessionCascades() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, 1234, s.newStatus()))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, 1234, &model.Player{Name: "Alice", Order: 1}))

	s.Require().NoError(s.storage.DeleteSession(s.ctx, 1234))

	exists, err := s.storage.SessionExists(s.ctx, 1234)
	s.Require().NoError(err)
	s.False(exists)

	_, err = s.storage.GetStatus(s.ctx, 1234)
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestDeleteSessionNonexistentIsNoop() {
	s.NoError(s.storage.DeleteSession(s.ctx, 9999))
}

func (s *StorageSuite) TestStatusRoundTrip() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, 1234, s.newStatus()))

	updated := &model.SessionStatus{Playing: true, LastChange: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)}
	s.Require().NoError(s.storage.SaveStatus(s.ctx, 1234, updated))

	retrieved, err := s.storage.GetStatus(s.ctx, 1234)
	s.Require().NoError(err)
	s.True(retrieved.Playing)
	s.True(retrieved.LastChange.Equal(updated.LastChange))
}

func (s *StorageSuite) TestGetStatusReturnsCopy() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, 1234, s.newStatus()))

	first, err := s.storage.GetStatus(s.ctx, 1234)
	s.Require().NoError(err)
	first.Playing = true

	second, err := s.storage.GetStatus(s.ctx, 1234)
	s.Require().NoError(err)
	s.False(second.Playing)
}

func (s *StorageSuite) TestPlayerRoundTrip() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, 1234, s.newStatus()))

	player := &model.Player{Name: "Alice", Order: 1, HashedKey: "digest"}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, 1234, player))

	retrieved, err := s.storage.GetPlayer(s.ctx, 1234, "Alice")
	s.Require().NoError(err)
	s.Equal(player.Name, retrieved.Name)
	s.Equal(player.Order, retrieved.Order)
	s.Equal(player.HashedKey, retrieved.HashedKey)
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, 1234, s.newStatus()))
	_, err := s.storage.GetPlayer(s.ctx, 1234, "Nobody")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestPlayerOpsOnMissingSession() {
	err := s.storage.SavePlayer(s.ctx, 4242, &model.Player{Name: "Alice", Order: 1})
	s.ErrorIs(err, model.ErrSessionNotFound)

	_, err = s.storage.GetPlayer(s.ctx, 4242, "Alice")
	s.ErrorIs(err, model.ErrSessionNotFound)
}

func (s *StorageSuite) TestListPlayersSortedByOrder() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, 1234, s.newStatus()))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, 1234, &model.Player{Name: "Bob", Order: 2}))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, 1234, &model.Player{Name: "Alice", Order: 1}))

	players, err := s.storage.ListPlayers(s.ctx, 1234)
	s.Require().NoError(err)
	s.Require().Len(players, 2)
	s.Equal("Alice", players[0].Name)
	s.Equal("Bob", players[1].Name)
}

func (s *StorageSuite) TestCountPlayers() {
	s.Require().NoError(s.storage.CreateSession(s.ctx, 1234, s.newStatus()))
	s.Require().NoError(s.storage.SavePlayer(s.ctx, 1234, &model.Player{Name: "Alice", Order: 1}))

	n, err := s.storage.CountPlayers(s.ctx, 1234)
	s.Require().NoError(err)
	s.Equal(1, n)
}
