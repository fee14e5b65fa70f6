package reaper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rsheldon/quorum/internal/dependencies/mocks"
	"github.com/rsheldon/quorum/internal/locks"
	"github.com/rsheldon/quorum/internal/model"
	"github.com/rsheldon/quorum/internal/services/registry"
	"github.com/rsheldon/quorum/internal/storage/memory"
	"github.com/rsheldon/quorum/internal/testutil"
)

const testTTL = 10 * time.Minute

type ReaperSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	reaper  *Reaper
	ctx     context.Context
}

func TestReaperSuite(t *testing.T) {
	suite.Run(t, new(ReaperSuite))
}

func (s *ReaperSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	logger := testutil.NopLogger()
	reg := registry.New(s.storage, s.clock, mocks.NewMockRandom(), locks.New(), registry.DefaultConfig(), logger)
	s.reaper = New(s.storage, reg, s.clock, testTTL, logger)
	s.ctx = context.Background()
}

func (s *ReaperSuite) createSessionAt(code model.SessionCode, lastChange time.Time) {
	err := s.storage.CreateSession(s.ctx, code, &model.SessionStatus{
		Playing:    false,
		LastChange: lastChange,
	})
	s.Require().NoError(err)
}

func (s *ReaperSuite) TestExpiredSessionReaped() {
	s.createSessionAt(1234, s.clock.Now().Add(-testTTL-time.Second))

	s.Equal(1, s.reaper.Sweep(s.ctx))

	exists, err := s.storage.SessionExists(s.ctx, 1234)
	s.Require().NoError(err)
	s.False(exists)
}

func (s *ReaperSuite) TestFreshSessionSurvives() {
	s.createSessionAt(1234, s.clock.Now().Add(-time.Minute))

	s.Equal(0, s.reaper.Sweep(s.ctx))

	exists, err := s.storage.SessionExists(s.ctx, 1234)
	s.Require().NoError(err)
	s.True(exists)
}

func (s *ReaperSuite) TestSessionAtExactCutoffReaped() {
	s.createSessionAt(1234, s.clock.Now().Add(-testTTL))
	s.Equal(1, s.reaper.Sweep(s.ctx))
}

func (s *ReaperSuite) TestMixedSweepReapsOnlyExpired() {
	s.createSessionAt(1, s.clock.Now().Add(-2*testTTL))
	s.createSessionAt(2, s.clock.Now().Add(-time.Minute))
	s.createSessionAt(3, s.clock.Now().Add(-3*testTTL))

	s.Equal(2, s.reaper.Sweep(s.ctx))

	for code, want := range map[model.SessionCode]bool{1: false, 2: true, 3: false} {
		exists, err := s.storage.SessionExists(s.ctx, code)
		s.Require().NoError(err)
		s.Equal(want, exists, "session %d", code)
	}
}

func (s *ReaperSuite) TestActivityDefersExpiry() {
	s.createSessionAt(1234, s.clock.Now())

	s.clock.Advance(testTTL - time.Minute)
	s.Equal(0, s.reaper.Sweep(s.ctx))

	// Refresh the clock the way a join or round change would
	status, err := s.storage.GetStatus(s.ctx, 1234)
	s.Require().NoError(err)
	status.LastChange = s.clock.Now()
	s.Require().NoError(s.storage.SaveStatus(s.ctx, 1234, status))

	s.clock.Advance(testTTL - time.Minute)
	s.Equal(0, s.reaper.Sweep(s.ctx))

	s.clock.Advance(2 * time.Minute)
	s.Equal(1, s.reaper.Sweep(s.ctx))
}

func (s *ReaperSuite) TestPlayingSessionStillExpires() {
	s.createSessionAt(1234, s.clock.Now())
	s.Require().NoError(s.storage.SaveStatus(s.ctx, 1234, &model.SessionStatus{
		Playing:    true,
		LastChange: s.clock.Now().Add(-testTTL - time.Hour),
	}))

	s.Equal(1, s.reaper.Sweep(s.ctx))
}

func (s *ReaperSuite) TestSweepIsolatesFailures() {
	s.createSessionAt(1, s.clock.Now().Add(-2*testTTL))
	s.createSessionAt(2, s.clock.Now().Add(-2*testTTL))

	broken := &failingStorage{Storage: s.storage, failCode: 1}
	logger := testutil.NopLogger()
	reg := registry.New(broken, s.clock, mocks.NewMockRandom(), locks.New(), registry.DefaultConfig(), logger)
	reaper := New(broken, reg, s.clock, testTTL, logger)

	s.Equal(1, reaper.Sweep(s.ctx))

	exists, err := s.storage.SessionExists(s.ctx, 2)
	s.Require().NoError(err)
	s.False(exists)
}

func (s *ReaperSuite) TestRunStopsOnCancel() {
	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	go func() {
		s.reaper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		s.Fail("reaper did not stop on context cancel")
	}
}

// failingStorage wraps a working store but refuses to read one session's
// status, simulating a partial backend outage mid-sweep.
type failingStorage struct {
	*memory.Storage
	failCode model.SessionCode
}

func (f *failingStorage) GetStatus(ctx context.Context, code model.SessionCode) (*model.SessionStatus, error) {
	if code == f.failCode {
		return nil, errors.New("backend unavailable")
	}
	return f.Storage.GetStatus(ctx, code)
}

func (s *ReaperSuite) TestStatuslessSessionReaped() {
	s.createSessionAt(1, s.clock.Now())
	s.createSessionAt(2, s.clock.Now())

	// Session 1 is registered but its status document is gone, as left behind
	// by a destroy that failed between deletes
	orphaned := &statuslessStorage{Storage: s.storage, orphanCode: 1}
	logger := testutil.NopLogger()
	reg := registry.New(orphaned, s.clock, mocks.NewMockRandom(), locks.New(), registry.DefaultConfig(), logger)
	reaper := New(orphaned, reg, s.clock, testTTL, logger)

	s.Equal(1, reaper.Sweep(s.ctx))

	exists, err := s.storage.SessionExists(s.ctx, 1)
	s.Require().NoError(err)
	s.False(exists, "statusless session should be destroyed")

	exists, err = s.storage.SessionExists(s.ctx, 2)
	s.Require().NoError(err)
	s.True(exists)
}

// statuslessStorage hides one session's status document while keeping its
// registry entry, modeling a half-destroyed session.
type statuslessStorage struct {
	*memory.Storage
	orphanCode model.SessionCode
}

func (s *statuslessStorage) GetStatus(ctx context.Context, code model.SessionCode) (*model.SessionStatus, error) {
	if code == s.orphanCode {
		return nil, model.ErrSessionNotFound
	}
	return s.Storage.GetStatus(ctx, code)
}
