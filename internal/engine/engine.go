// Package engine runs the focus session state machine: Idle, Running and
// Paused, a one-second countdown while Running, and the bookkeeping done when
// a session terminates (stats update, session log append).
//
// All transitions are serialized by one mutex. Persistence and listener
// callbacks always run with no lock held, so a listener may call back into
// the engine, including Stop from the tick's own completion path.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/balkashynov/fencer/internal/blocker"
	"github.com/balkashynov/fencer/internal/models"
	"github.com/balkashynov/fencer/internal/stats"
)

// DefaultTickInterval is the countdown granularity
const DefaultTickInterval = time.Second

// Store is the slice of the persistence gateway the engine needs
type Store interface {
	LoadStats(ctx context.Context) models.UserStats
	SaveStats(ctx context.Context, stats models.UserStats) error
	AppendSession(ctx context.Context, session models.Session) error
}

// Options configures an Engine. Zero values pick production defaults.
type Options struct {
	Clock        Clock
	NewTicker    func(time.Duration) Ticker
	TickInterval time.Duration
	Logger       *log.Logger
	Detector     blocker.Detector // optional
	NewID        func() string
}

// Snapshot is a consistent view of the engine taken right after a change
type Snapshot struct {
	Seq       uint64 // increases with every change; lets observers drop stale snapshots
	Event     Event
	Phase     Phase
	Remaining int // seconds
	Planned   int // seconds, 0 when idle
	Active    *models.Session
	Finished  *models.Session // the terminated session on EventStopped/EventCompleted
	Stats     models.UserStats
	// Err is the failure to persist Finished, always a *storage.PersistenceError
	// or a join of them
	Err error
}

// Listener receives a Snapshot after every tick and transition
type Listener func(Snapshot)

type subscription struct {
	id int
	fn Listener
}

// tickRun is one Running stretch's ticker; a new one is made on every
// start/resume so ticks from a stopped run can be recognized and dropped
type tickRun struct {
	ticker Ticker
	done   chan struct{}
}

// termination carries what a finished session must persist and report
type termination struct {
	session  models.Session
	stats    models.UserStats
	version  uint64
	snapshot Snapshot
}

// Engine owns the single live focus session
type Engine struct {
	store     Store
	clock     Clock
	newTicker func(time.Duration) Ticker
	interval  time.Duration
	log       *log.Logger
	detector  blocker.Detector
	newID     func() string

	mu           sync.Mutex
	phase        Phase
	session      *models.Session
	remaining    int
	lastTick     time.Time
	run          *tickRun
	stats        models.UserStats
	statsVersion uint64
	seq          uint64
	lastEvent    Event
	closed       bool

	persistMu    sync.Mutex
	savedVersion uint64
	// pending counts terminations not yet persisted
	pending sync.WaitGroup

	lmu       sync.Mutex
	listeners []subscription
	nextSub   int
}

// New builds an idle engine and loads the current stats from store
func New(ctx context.Context, store Store, opts Options) *Engine {
	e := &Engine{
		store:     store,
		clock:     opts.Clock,
		newTicker: opts.NewTicker,
		interval:  opts.TickInterval,
		log:       opts.Logger,
		detector:  opts.Detector,
		newID:     opts.NewID,
		phase:     Idle,
		lastEvent: EventStopped,
	}
	if e.clock == nil {
		e.clock = systemClock{}
	}
	if e.newTicker == nil {
		e.newTicker = newRealTicker
	}
	if e.interval <= 0 {
		e.interval = DefaultTickInterval
	}
	if e.log == nil {
		e.log = log.New(io.Discard)
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}

	e.stats = store.LoadStats(ctx)
	return e
}

// Start begins a new session of durationMinutes blocking apps. A session
// that is already running or paused is never replaced.
func (e *Engine) Start(durationMinutes int, apps []string) (models.Session, error) {
	if durationMinutes < models.MinDurationMinutes || durationMinutes > models.MaxDurationMinutes {
		return models.Session{}, fmt.Errorf("%w: got %d", ErrInvalidDuration, durationMinutes)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return models.Session{}, ErrClosed
	}
	if e.phase != Idle {
		phase := e.phase
		e.mu.Unlock()
		return models.Session{}, fmt.Errorf("%w: current session is %s", ErrSessionAlreadyActive, phase)
	}

	session := &models.Session{
		ID:                     e.newID(),
		PlannedDurationSeconds: durationMinutes * 60,
		StartedAt:              e.clock.Now(),
		BlockedApps:            models.NormalizeApps(apps),
	}
	e.session = session
	e.remaining = session.PlannedDurationSeconds
	e.phase = Running
	e.startTickerLocked()
	snap := e.snapshotLocked(EventStarted)
	started := cloneSession(*session)
	e.mu.Unlock()

	e.log.Info("session started", "id", started.ID, "minutes", durationMinutes, "apps", len(started.BlockedApps))
	e.notify(snap)
	return started, nil
}

// Pause freezes the countdown. Only valid while running.
func (e *Engine) Pause() error {
	e.mu.Lock()
	if e.phase != Running {
		phase := e.phase
		e.mu.Unlock()
		return fmt.Errorf("%w: cannot pause while %s", ErrInvalidTransition, phase)
	}
	e.stopTickerLocked()
	e.phase = Paused
	snap := e.snapshotLocked(EventPaused)
	e.mu.Unlock()

	e.log.Debug("session paused", "remaining", snap.Remaining)
	e.notify(snap)
	return nil
}

// Resume restarts the countdown from where Pause froze it
func (e *Engine) Resume() error {
	e.mu.Lock()
	if e.phase != Paused {
		phase := e.phase
		e.mu.Unlock()
		return fmt.Errorf("%w: cannot resume while %s", ErrInvalidTransition, phase)
	}
	e.phase = Running
	e.startTickerLocked()
	snap := e.snapshotLocked(EventResumed)
	e.mu.Unlock()

	e.log.Debug("session resumed", "remaining", snap.Remaining)
	e.notify(snap)
	return nil
}

// Stop terminates the active session and returns it. Stopping while idle
// is a no-op returning (nil, nil). The engine is idle when Stop returns even
// if persisting fails; that failure comes back as a *storage.PersistenceError.
//
// A stop that races the final tick counts as a natural completion.
func (e *Engine) Stop(wasCompleted bool) (*models.Session, error) {
	e.mu.Lock()
	if e.phase == Idle {
		e.mu.Unlock()
		return nil, nil
	}
	if !wasCompleted && e.countdownElapsedLocked() {
		wasCompleted = true
	}
	t := e.finishLocked(wasCompleted)
	e.mu.Unlock()

	err := e.complete(t)
	finished := t.session
	return &finished, err
}

// Close cancels the ticker and discards any active session without
// recording it, then waits for sessions that already ended to be saved.
// The engine refuses new sessions afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.stopTickerLocked()
	if e.session != nil {
		e.log.Warn("discarding unfinished session", "id", e.session.ID, "remaining", e.remaining)
	}
	e.phase = Idle
	e.session = nil
	e.remaining = 0
	snap := e.snapshotLocked(EventClosed)
	e.mu.Unlock()

	e.pending.Wait()
	e.notify(snap)
}

// Phase returns the current phase
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// Remaining returns the seconds left in the active session, 0 when idle
func (e *Engine) Remaining() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remaining
}

// Stats returns the in-memory aggregate, which is authoritative even when
// the last save failed
func (e *Engine) Stats() models.UserStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneStats(e.stats)
}

// Snapshot returns the current state
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked(e.lastEvent)
}

// Subscribe registers fn for every change and returns a func removing it
func (e *Engine) Subscribe(fn Listener) (unsubscribe func()) {
	e.lmu.Lock()
	id := e.nextSub
	e.nextSub++
	e.listeners = append(e.listeners, subscription{id: id, fn: fn})
	e.lmu.Unlock()

	return func() {
		e.lmu.Lock()
		defer e.lmu.Unlock()
		for i, sub := range e.listeners {
			if sub.id == id {
				e.listeners = append(e.listeners[:i], e.listeners[i+1:]...)
				return
			}
		}
	}
}

// CheckBlocked asks the detector whether any app blocked by the active
// session is running. It returns "" when idle or without a detector.
func (e *Engine) CheckBlocked(ctx context.Context) (string, error) {
	if e.detector == nil {
		return "", nil
	}

	e.mu.Lock()
	if e.session == nil || len(e.session.BlockedApps) == 0 {
		e.mu.Unlock()
		return "", nil
	}
	apps := append([]string(nil), e.session.BlockedApps...)
	e.mu.Unlock()

	return e.detector.BlockedAppRunning(ctx, apps)
}

func (e *Engine) startTickerLocked() {
	run := &tickRun{ticker: e.newTicker(e.interval), done: make(chan struct{})}
	e.run = run
	e.lastTick = e.clock.Now()
	go e.loop(run)
}

// stopTickerLocked never waits for the loop goroutine, which may be the
// caller itself
func (e *Engine) stopTickerLocked() {
	if e.run == nil {
		return
	}
	e.run.ticker.Stop()
	close(e.run.done)
	e.run = nil
}

func (e *Engine) loop(run *tickRun) {
	for {
		select {
		case <-run.done:
			return
		case <-run.ticker.C():
			e.tick(run)
		}
	}
}

func (e *Engine) tick(run *tickRun) {
	e.mu.Lock()
	if e.run != run || e.phase != Running {
		e.mu.Unlock()
		return
	}

	e.remaining--
	e.lastTick = e.clock.Now()
	if e.remaining > 0 {
		snap := e.snapshotLocked(EventTick)
		e.mu.Unlock()
		e.notify(snap)
		return
	}

	t := e.finishLocked(true)
	e.mu.Unlock()
	// listeners get the error through the snapshot
	_ = e.complete(t)
}

// countdownElapsedLocked reports whether the countdown has, in wall time,
// already reached zero even if the final tick has not been handled yet
func (e *Engine) countdownElapsedLocked() bool {
	if e.remaining <= 0 {
		return true
	}
	return e.phase == Running && e.remaining == 1 && !e.clock.Now().Before(e.lastTick.Add(e.interval))
}

func (e *Engine) finishLocked(completed bool) termination {
	now := e.clock.Now()

	finished := cloneSession(*e.session)
	finished.WasCompleted = completed
	finished.CompletedAt = now

	e.stats = stats.Next(e.stats, stats.Outcome{
		Completed: completed,
		Minutes:   finished.PlannedMinutes(),
	}, models.DateOf(now))
	e.statsVersion++

	e.stopTickerLocked()
	e.phase = Idle
	e.session = nil
	e.remaining = 0
	e.pending.Add(1)

	event := EventStopped
	if completed {
		event = EventCompleted
	}
	snap := e.snapshotLocked(event)
	reported := cloneSession(finished)
	snap.Finished = &reported

	return termination{
		session:  finished,
		stats:    cloneStats(e.stats),
		version:  e.statsVersion,
		snapshot: snap,
	}
}

// complete persists a termination, then reports it to listeners
func (e *Engine) complete(t termination) error {
	err := e.persist(t)
	e.pending.Done()
	t.snapshot.Err = err
	if t.session.WasCompleted {
		e.log.Info("session completed", "id", t.session.ID, "minutes", t.session.PlannedMinutes(), "streak", t.stats.CurrentStreak)
	} else {
		e.log.Info("session stopped", "id", t.session.ID)
	}
	e.notify(t.snapshot)
	return err
}

func (e *Engine) persist(t termination) error {
	e.persistMu.Lock()
	defer e.persistMu.Unlock()

	ctx := context.Background()
	var errs []error

	if err := e.store.AppendSession(ctx, t.session); err != nil {
		e.log.Error("failed to record session", "id", t.session.ID, "err", err)
		errs = append(errs, err)
	}

	// a later termination may already have saved newer stats
	if t.version > e.savedVersion {
		if err := e.store.SaveStats(ctx, t.stats); err != nil {
			e.log.Error("failed to save stats", "err", err)
			errs = append(errs, err)
		} else {
			e.savedVersion = t.version
		}
	}

	return errors.Join(errs...)
}

func (e *Engine) snapshotLocked(event Event) Snapshot {
	e.seq++
	e.lastEvent = event
	return e.viewLocked(event)
}

func (e *Engine) viewLocked(event Event) Snapshot {
	snap := Snapshot{
		Seq:       e.seq,
		Event:     event,
		Phase:     e.phase,
		Remaining: e.remaining,
		Stats:     cloneStats(e.stats),
	}
	if e.session != nil {
		active := cloneSession(*e.session)
		snap.Active = &active
		snap.Planned = active.PlannedDurationSeconds
	}
	return snap
}

func (e *Engine) notify(snap Snapshot) {
	e.lmu.Lock()
	subs := make([]subscription, len(e.listeners))
	copy(subs, e.listeners)
	e.lmu.Unlock()

	for _, sub := range subs {
		sub.fn(snap)
	}
}

func cloneSession(s models.Session) models.Session {
	s.BlockedApps = append([]string{}, s.BlockedApps...)
	return s
}

func cloneStats(s models.UserStats) models.UserStats {
	if s.LastSessionDate != nil {
		d := *s.LastSessionDate
		s.LastSessionDate = &d
	}
	return s
}
