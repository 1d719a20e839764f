package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/fencer/internal/models"
	"github.com/balkashynov/fencer/internal/storage"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeTicker struct {
	c       chan time.Time
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }

type fakeStore struct {
	mu        sync.Mutex
	stats     models.UserStats
	sessions  []models.Session
	saves     int
	saveErr   error
	appendErr error
}

func (s *fakeStore) LoadStats(context.Context) models.UserStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *fakeStore) SaveStats(_ context.Context, stats models.UserStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return &storage.PersistenceError{Op: "save", Record: storage.KeyStats, Err: s.saveErr}
	}
	s.stats = stats
	s.saves++
	return nil
}

func (s *fakeStore) AppendSession(_ context.Context, session models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return &storage.PersistenceError{Op: "save", Record: storage.KeySessions, Err: s.appendErr}
	}
	s.sessions = append(s.sessions, session)
	return nil
}

func (s *fakeStore) recorded() []models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Session(nil), s.sessions...)
}

type fakeDetector struct {
	running []string
}

func (d fakeDetector) BlockedAppRunning(_ context.Context, apps []string) (string, error) {
	for _, app := range apps {
		for _, r := range d.running {
			if r == app {
				return app, nil
			}
		}
	}
	return "", nil
}

func (d fakeDetector) RunningApps(context.Context) ([]string, error) {
	return d.running, nil
}

type harness struct {
	e     *Engine
	clock *fakeClock
	store *fakeStore

	mu      sync.Mutex
	tickers []*fakeTicker
}

var startTime = time.Date(2025, time.April, 7, 9, 0, 0, 0, time.UTC)

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, &fakeStore{})
}

func newHarnessWith(t *testing.T, store *fakeStore) *harness {
	t.Helper()
	h := &harness{clock: &fakeClock{now: startTime}, store: store}
	ids := 0
	h.e = New(context.Background(), store, Options{
		Clock: h.clock,
		NewTicker: func(time.Duration) Ticker {
			h.mu.Lock()
			defer h.mu.Unlock()
			ft := &fakeTicker{c: make(chan time.Time, 1)}
			h.tickers = append(h.tickers, ft)
			return ft
		},
		Detector: fakeDetector{running: []string{"discord"}},
		NewID: func() string {
			ids++
			return "session-" + string(rune('0'+ids))
		},
	})
	t.Cleanup(h.e.Close)
	return h
}

func (h *harness) currentRun() *tickRun {
	h.e.mu.Lock()
	defer h.e.mu.Unlock()
	return h.e.run
}

func (h *harness) ticker(i int) *fakeTicker {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.tickers[i]
}

func (h *harness) tickerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.tickers)
}

// tick advances the clock one second and fires n ticks on the current run
func (h *harness) tick(n int) {
	for i := 0; i < n; i++ {
		run := h.currentRun()
		if run == nil {
			return
		}
		h.clock.Advance(time.Second)
		h.e.tick(run)
	}
}

func TestStartRunsCountdown(t *testing.T) {
	h := newHarness(t)

	session, err := h.e.Start(25, []string{" Slack", "discord", "slack"})
	require.NoError(t, err)

	assert.Equal(t, Running, h.e.Phase())
	assert.Equal(t, 1500, h.e.Remaining())
	assert.Equal(t, "session-1", session.ID)
	assert.Equal(t, 1500, session.PlannedDurationSeconds)
	assert.Equal(t, startTime, session.StartedAt)
	assert.False(t, session.WasCompleted)
	assert.Equal(t, []string{"discord", "slack"}, session.BlockedApps)
	assert.Equal(t, 1, h.tickerCount())

	snap := h.e.Snapshot()
	assert.Equal(t, EventStarted, snap.Event)
	require.NotNil(t, snap.Active)
	assert.Equal(t, 1500, snap.Planned)
}

func TestStartAcceptsDurationBounds(t *testing.T) {
	for _, minutes := range []int{models.MinDurationMinutes, models.MaxDurationMinutes} {
		h := newHarness(t)
		_, err := h.e.Start(minutes, nil)
		require.NoError(t, err)
		assert.Equal(t, minutes*60, h.e.Remaining())
	}
}

func TestStartRejectsInvalidDuration(t *testing.T) {
	h := newHarness(t)

	for _, minutes := range []int{0, -5, 121, 1000} {
		_, err := h.e.Start(minutes, nil)
		assert.ErrorIs(t, err, ErrInvalidDuration)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}

	assert.Equal(t, Idle, h.e.Phase())
	assert.Zero(t, h.tickerCount())
}

func TestStartWhileActiveIsRejected(t *testing.T) {
	h := newHarness(t)

	first, err := h.e.Start(25, []string{"slack"})
	require.NoError(t, err)
	h.tick(10)

	_, err = h.e.Start(5, nil)
	require.ErrorIs(t, err, ErrSessionAlreadyActive)
	assert.Equal(t, 1490, h.e.Remaining())

	require.NoError(t, h.e.Pause())
	_, err = h.e.Start(5, nil)
	require.ErrorIs(t, err, ErrSessionAlreadyActive)

	snap := h.e.Snapshot()
	require.NotNil(t, snap.Active)
	assert.Equal(t, first.ID, snap.Active.ID)
	assert.Empty(t, h.store.recorded())
}

func TestTicksCountDown(t *testing.T) {
	h := newHarness(t)
	_, err := h.e.Start(2, nil)
	require.NoError(t, err)

	h.tick(30)

	assert.Equal(t, 90, h.e.Remaining())
	assert.Equal(t, Running, h.e.Phase())
}

func TestPauseFreezesCountdown(t *testing.T) {
	h := newHarness(t)
	_, err := h.e.Start(1, nil)
	require.NoError(t, err)
	h.tick(5)

	run := h.currentRun()
	require.NoError(t, h.e.Pause())

	assert.Equal(t, Paused, h.e.Phase())
	assert.True(t, h.ticker(0).stopped.Load())
	assert.Nil(t, h.currentRun())

	// a tick already in flight for the old run changes nothing
	h.clock.Advance(time.Hour)
	h.e.tick(run)
	assert.Equal(t, 55, h.e.Remaining())

	require.NoError(t, h.e.Resume())
	assert.Equal(t, Running, h.e.Phase())
	assert.Equal(t, 55, h.e.Remaining())
	assert.Equal(t, 2, h.tickerCount())

	h.tick(5)
	assert.Equal(t, 50, h.e.Remaining())
}

func TestInvalidTransitionsLeaveStateAlone(t *testing.T) {
	h := newHarness(t)

	assert.ErrorIs(t, h.e.Pause(), ErrInvalidTransition)
	assert.ErrorIs(t, h.e.Resume(), ErrInvalidTransition)
	assert.Equal(t, Idle, h.e.Phase())

	_, err := h.e.Start(10, nil)
	require.NoError(t, err)
	h.tick(3)
	seq := h.e.Snapshot().Seq

	assert.ErrorIs(t, h.e.Resume(), ErrInvalidTransition)
	assert.Equal(t, Running, h.e.Phase())

	require.NoError(t, h.e.Pause())
	assert.ErrorIs(t, h.e.Pause(), ErrInvalidTransition)
	assert.Equal(t, Paused, h.e.Phase())
	assert.Equal(t, 597, h.e.Remaining())
	assert.Equal(t, seq+1, h.e.Snapshot().Seq)
}

func TestNaturalCompletion(t *testing.T) {
	h := newHarness(t)

	var finished []Snapshot
	h.e.Subscribe(func(s Snapshot) {
		if s.Event == EventCompleted || s.Event == EventStopped {
			finished = append(finished, s)
		}
	})

	_, err := h.e.Start(1, []string{"discord"})
	require.NoError(t, err)
	h.tick(60)

	assert.Equal(t, Idle, h.e.Phase())
	assert.Zero(t, h.e.Remaining())
	assert.Nil(t, h.currentRun())
	assert.True(t, h.ticker(0).stopped.Load())

	recorded := h.store.recorded()
	require.Len(t, recorded, 1)
	assert.True(t, recorded[0].WasCompleted)
	assert.Equal(t, startTime.Add(time.Minute), recorded[0].CompletedAt)
	assert.Equal(t, []string{"discord"}, recorded[0].BlockedApps)

	st := h.e.Stats()
	assert.Equal(t, 1, st.TotalSessions)
	assert.Equal(t, 1, st.CompletedSessions)
	assert.Equal(t, 1, st.TotalMinutes)
	assert.Equal(t, 1, st.CurrentStreak)
	require.NotNil(t, st.LastSessionDate)
	assert.Equal(t, models.DateOf(startTime), *st.LastSessionDate)
	assert.Equal(t, st, h.store.LoadStats(context.Background()))

	require.Len(t, finished, 1)
	assert.Equal(t, EventCompleted, finished[0].Event)
	require.NotNil(t, finished[0].Finished)
	assert.Nil(t, finished[0].Active)
	assert.True(t, finished[0].Finished.WasCompleted)
}

func TestStopAbandons(t *testing.T) {
	h := newHarness(t)
	_, err := h.e.Start(25, nil)
	require.NoError(t, err)
	h.tick(100)

	session, err := h.e.Stop(false)
	require.NoError(t, err)
	require.NotNil(t, session)

	assert.False(t, session.WasCompleted)
	assert.Equal(t, startTime.Add(100*time.Second), session.CompletedAt)
	assert.Equal(t, Idle, h.e.Phase())
	assert.True(t, h.ticker(0).stopped.Load())

	st := h.e.Stats()
	assert.Equal(t, 1, st.TotalSessions)
	assert.Zero(t, st.CompletedSessions)
	assert.Zero(t, st.TotalMinutes)
	assert.Zero(t, st.CurrentStreak)
	assert.Nil(t, st.LastSessionDate)
}

func TestStopCompletedCreditsPlannedMinutes(t *testing.T) {
	h := newHarness(t)
	_, err := h.e.Start(45, nil)
	require.NoError(t, err)
	h.tick(10)

	session, err := h.e.Stop(true)
	require.NoError(t, err)

	assert.True(t, session.WasCompleted)
	assert.Equal(t, 45, h.e.Stats().TotalMinutes)
}

func TestStopWhilePaused(t *testing.T) {
	h := newHarness(t)
	_, err := h.e.Start(5, nil)
	require.NoError(t, err)
	require.NoError(t, h.e.Pause())

	session, err := h.e.Stop(false)
	require.NoError(t, err)
	assert.False(t, session.WasCompleted)
	assert.Equal(t, Idle, h.e.Phase())
	assert.Len(t, h.store.recorded(), 1)
}

func TestStopWhileIdleIsNoop(t *testing.T) {
	h := newHarness(t)

	session, err := h.e.Stop(false)
	assert.NoError(t, err)
	assert.Nil(t, session)
	assert.Empty(t, h.store.recorded())
	assert.Zero(t, h.e.Stats().TotalSessions)
}

func TestStopRacingFinalTickCountsAsCompleted(t *testing.T) {
	h := newHarness(t)
	_, err := h.e.Start(1, nil)
	require.NoError(t, err)
	h.tick(59)
	require.Equal(t, 1, h.e.Remaining())

	// the last second has elapsed but its tick has not run yet
	h.clock.Advance(time.Second)
	session, err := h.e.Stop(false)
	require.NoError(t, err)

	assert.True(t, session.WasCompleted)
	assert.Equal(t, 1, h.e.Stats().CompletedSessions)
	assert.Len(t, h.store.recorded(), 1)
}

func TestStopBeforeFinalSecondElapsesAbandons(t *testing.T) {
	h := newHarness(t)
	_, err := h.e.Start(1, nil)
	require.NoError(t, err)
	h.tick(59)

	h.clock.Advance(500 * time.Millisecond)
	session, err := h.e.Stop(false)
	require.NoError(t, err)

	assert.False(t, session.WasCompleted)
}

func TestStaleTickAfterStopIsDropped(t *testing.T) {
	h := newHarness(t)
	_, err := h.e.Start(1, nil)
	require.NoError(t, err)
	h.tick(59)

	run := h.currentRun()
	_, err = h.e.Stop(false)
	require.NoError(t, err)

	h.e.tick(run)

	assert.Len(t, h.store.recorded(), 1)
	assert.Equal(t, 1, h.e.Stats().TotalSessions)
	assert.Equal(t, Idle, h.e.Phase())
}

func TestPersistenceFailureIsNonFatal(t *testing.T) {
	boom := errors.New("disk full")
	h := newHarnessWith(t, &fakeStore{saveErr: boom, appendErr: boom})

	_, err := h.e.Start(1, nil)
	require.NoError(t, err)
	h.tick(10)

	session, err := h.e.Stop(true)
	require.Error(t, err)
	require.NotNil(t, session)

	var perr *storage.PersistenceError
	assert.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, boom)

	assert.Equal(t, Idle, h.e.Phase())
	assert.Equal(t, 1, h.e.Stats().CompletedSessions)

	_, err = h.e.Start(1, nil)
	assert.NoError(t, err)
}

func TestCompletionReportsPersistenceFailure(t *testing.T) {
	boom := errors.New("disk full")
	h := newHarnessWith(t, &fakeStore{saveErr: boom})

	var completed []Snapshot
	h.e.Subscribe(func(s Snapshot) {
		if s.Event == EventCompleted {
			completed = append(completed, s)
		}
	})

	_, err := h.e.Start(1, nil)
	require.NoError(t, err)
	h.tick(60)

	require.Len(t, completed, 1)
	require.NotNil(t, completed[0].Finished)
	assert.True(t, completed[0].Finished.WasCompleted)

	var perr *storage.PersistenceError
	require.ErrorAs(t, completed[0].Err, &perr)
	assert.Equal(t, storage.KeyStats, perr.Record)
	assert.ErrorIs(t, completed[0].Err, boom)

	// the session log write still went through
	assert.Len(t, h.store.recorded(), 1)
}

func TestCompletionWithoutFailureHasNoError(t *testing.T) {
	h := newHarness(t)

	var last Snapshot
	h.e.Subscribe(func(s Snapshot) { last = s })

	_, err := h.e.Start(1, nil)
	require.NoError(t, err)
	h.tick(60)

	assert.Equal(t, EventCompleted, last.Event)
	assert.NoError(t, last.Err)
}

// blockingStore holds AppendSession until release is closed
type blockingStore struct {
	fakeStore
	entered chan struct{}
	release chan struct{}
}

func (s *blockingStore) AppendSession(ctx context.Context, session models.Session) error {
	close(s.entered)
	<-s.release
	return s.fakeStore.AppendSession(ctx, session)
}

func TestCloseWaitsForPendingSave(t *testing.T) {
	store := &blockingStore{entered: make(chan struct{}), release: make(chan struct{})}
	e := New(context.Background(), store, Options{
		Clock: &fakeClock{now: startTime},
		NewTicker: func(time.Duration) Ticker {
			return &fakeTicker{c: make(chan time.Time, 1)}
		},
	})

	_, err := e.Start(1, nil)
	require.NoError(t, err)

	e.mu.Lock()
	e.remaining = 1
	run := e.run
	e.mu.Unlock()

	go e.tick(run)
	<-store.entered

	closed := make(chan struct{})
	go func() {
		e.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while the finished session was still being saved")
	case <-time.After(50 * time.Millisecond):
	}

	close(store.release)
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after the save finished")
	}

	require.Len(t, store.recorded(), 1)
	assert.True(t, store.recorded()[0].WasCompleted)
	assert.Equal(t, 1, store.LoadStats(context.Background()).CompletedSessions)
}

func TestStatsStartFromStore(t *testing.T) {
	last := models.DateOf(startTime).AddDays(-1)
	h := newHarnessWith(t, &fakeStore{stats: models.UserStats{
		TotalSessions:     4,
		CompletedSessions: 4,
		TotalMinutes:      100,
		CurrentStreak:     3,
		BestStreak:        3,
		LastSessionDate:   &last,
	}})

	_, err := h.e.Start(25, nil)
	require.NoError(t, err)
	_, err = h.e.Stop(true)
	require.NoError(t, err)

	st := h.e.Stats()
	assert.Equal(t, 5, st.TotalSessions)
	assert.Equal(t, 125, st.TotalMinutes)
	assert.Equal(t, 4, st.CurrentStreak)
	assert.Equal(t, 4, st.BestStreak)
}

func TestBackToBackSessionsSaveLatestStats(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 3; i++ {
		_, err := h.e.Start(1, nil)
		require.NoError(t, err)
		h.tick(60)
	}

	assert.Len(t, h.store.recorded(), 3)
	assert.Equal(t, 3, h.store.saves)
	assert.Equal(t, 3, h.store.LoadStats(context.Background()).CompletedSessions)
}

func TestSnapshotsAreOrdered(t *testing.T) {
	h := newHarness(t)

	var events []Event
	var seqs []uint64
	unsubscribe := h.e.Subscribe(func(s Snapshot) {
		events = append(events, s.Event)
		seqs = append(seqs, s.Seq)
	})

	_, err := h.e.Start(1, nil)
	require.NoError(t, err)
	h.tick(2)
	require.NoError(t, h.e.Pause())
	require.NoError(t, h.e.Resume())
	_, err = h.e.Stop(false)
	require.NoError(t, err)

	assert.Equal(t, []Event{EventStarted, EventTick, EventTick, EventPaused, EventResumed, EventStopped}, events)
	for i := 1; i < len(seqs); i++ {
		assert.Greater(t, seqs[i], seqs[i-1])
	}

	unsubscribe()
	_, err = h.e.Start(1, nil)
	require.NoError(t, err)
	assert.Len(t, events, 6)
}

func TestListenerMayStopFromCallback(t *testing.T) {
	h := newHarness(t)

	var stopped *models.Session
	h.e.Subscribe(func(s Snapshot) {
		if s.Event == EventTick && s.Remaining == 50 {
			session, err := h.e.Stop(false)
			require.NoError(t, err)
			stopped = session
		}
	})

	_, err := h.e.Start(1, nil)
	require.NoError(t, err)
	h.tick(20)

	require.NotNil(t, stopped)
	assert.False(t, stopped.WasCompleted)
	assert.Equal(t, Idle, h.e.Phase())
	assert.Len(t, h.store.recorded(), 1)
}

func TestCloseCancelsTicker(t *testing.T) {
	h := newHarness(t)
	_, err := h.e.Start(10, nil)
	require.NoError(t, err)

	h.e.Close()

	assert.True(t, h.ticker(0).stopped.Load())
	assert.Equal(t, Idle, h.e.Phase())
	assert.Empty(t, h.store.recorded())

	_, err = h.e.Start(10, nil)
	assert.ErrorIs(t, err, ErrClosed)

	// closing twice is fine
	h.e.Close()
}

func TestTickerDrivesCountdown(t *testing.T) {
	h := newHarness(t)

	ticks := make(chan Snapshot, 4)
	h.e.Subscribe(func(s Snapshot) {
		if s.Event == EventTick {
			ticks <- s
		}
	})

	_, err := h.e.Start(1, nil)
	require.NoError(t, err)

	h.ticker(0).c <- startTime.Add(time.Second)

	select {
	case s := <-ticks:
		assert.Equal(t, 59, s.Remaining)
	case <-time.After(2 * time.Second):
		t.Fatal("tick was not delivered")
	}
}

func TestCheckBlocked(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	app, err := h.e.CheckBlocked(ctx)
	require.NoError(t, err)
	assert.Empty(t, app)

	_, err = h.e.Start(10, []string{"slack"})
	require.NoError(t, err)
	app, err = h.e.CheckBlocked(ctx)
	require.NoError(t, err)
	assert.Empty(t, app)

	_, err = h.e.Stop(false)
	require.NoError(t, err)
	_, err = h.e.Start(10, []string{"Discord", "slack"})
	require.NoError(t, err)
	app, err = h.e.CheckBlocked(ctx)
	require.NoError(t, err)
	assert.Equal(t, "discord", app)
}

func TestPhaseAndEventNames(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "paused", Paused.String())
	assert.Equal(t, "completed", EventCompleted.String())
}
