// Package syncer keeps a client's board document in step with the shared
// singleton row: full-document pushes by admins, pulls on demand and on an
// optional auto-sync timer.
package syncer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/antenickawest-png/Scheduling-Board-v5/internal/board"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/events"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/models"
	"github.com/antenickawest-png/Scheduling-Board-v5/internal/session"
	"github.com/rs/zerolog"
)

// DefaultInterval is the auto-sync period
const DefaultInterval = 30 * time.Second

// RemoteStore reads and writes the singleton board row
type RemoteStore interface {
	FetchBoard(ctx context.Context) (*models.CurrentBoard, error)
	SaveBoard(ctx context.Context, row *models.CurrentBoard, baseVersion int64) (*models.CurrentBoard, error)
}

// Gate is the part of the session gate the engine depends on
type Gate interface {
	Authenticated() bool
	IsAdmin() bool
	Subscribe(fn func(session.Snapshot)) func()
}

// Engine pushes and pulls the board. It is safe for concurrent use.
type Engine struct {
	store     RemoteStore
	gate      Gate
	publisher events.Publisher
	interval  time.Duration
	log       zerolog.Logger
	now       func() time.Time

	mu       sync.Mutex
	lastSync time.Time
	syncErr  error
	version  int64
	pushes   uint64
	autoSync bool

	timerMu     sync.Mutex
	cancelTimer context.CancelFunc
	timerDone   chan struct{}
	active      atomic.Int32

	unsubscribe func()
}

// New creates an engine. An interval of 0 means DefaultInterval.
func New(store RemoteStore, gate Gate, publisher events.Publisher, interval time.Duration, log zerolog.Logger) *Engine {
	if interval <= 0 {
		interval = DefaultInterval
	}
	e := &Engine{
		store:     store,
		gate:      gate,
		publisher: publisher,
		interval:  interval,
		log:       log.With().Str("component", "sync").Logger(),
		now:       time.Now,
	}
	e.unsubscribe = gate.Subscribe(func(session.Snapshot) { e.reconcileTimer() })
	return e
}

// PushBoard writes doc as the whole board. It does nothing unless the
// session is signed in with the admin role.
func (e *Engine) PushBoard(ctx context.Context, doc *models.BoardDocument) error {
	if !e.gate.Authenticated() || !e.gate.IsAdmin() {
		return nil
	}

	row, err := board.ToRow(doc)
	if err != nil {
		return e.fail("push", err)
	}

	e.mu.Lock()
	base := e.version
	e.pushes++
	e.mu.Unlock()

	saved, err := e.store.SaveBoard(ctx, row, base)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			e.log.Warn().Int64("base_version", base).Msg("Board changed remotely, push rejected")
		}
		return e.fail("push", err)
	}

	e.mu.Lock()
	e.version = saved.Version
	e.lastSync = e.now()
	e.syncErr = nil
	e.mu.Unlock()

	e.log.Debug().Int64("version", saved.Version).Msg("Board pushed")
	return nil
}

// PullBoard fetches the row and publishes the decoded document. A board
// that was never saved is not an error and leaves local state alone. So is
// a row that is older than the local version, or that was fetched while a
// push was under way.
func (e *Engine) PullBoard(ctx context.Context) error {
	if !e.gate.Authenticated() {
		return nil
	}

	e.mu.Lock()
	pushes := e.pushes
	e.mu.Unlock()

	row, err := e.store.FetchBoard(ctx)
	if models.IsNotFound(err) {
		e.mu.Lock()
		e.syncErr = nil
		e.mu.Unlock()
		e.log.Debug().Msg("No board saved yet")
		return nil
	}
	if err != nil {
		return e.fail("pull", err)
	}

	doc, err := board.FromRow(row)
	if err != nil {
		return e.fail("pull", err)
	}

	e.mu.Lock()
	if row.Version < e.version || e.pushes != pushes {
		local := e.version
		e.mu.Unlock()
		e.log.Debug().
			Int64("version", row.Version).
			Int64("local_version", local).
			Msg("Discarding stale pull")
		return nil
	}
	e.version = row.Version
	e.lastSync = e.now()
	e.syncErr = nil
	e.mu.Unlock()

	e.publisher.Publish(events.Event{Type: events.BoardSynced, Row: row, Document: doc})
	return nil
}

func (e *Engine) fail(op string, err error) error {
	syncErr := &models.SyncError{Op: op, Err: err}
	e.mu.Lock()
	e.syncErr = syncErr
	e.mu.Unlock()
	e.log.Error().Err(err).Str("op", op).Msg("Board sync failed")
	return syncErr
}

// ToggleAutoSync flips auto-sync and returns the new setting. While it is
// on and the session is signed in exactly one timer pulls the board every
// interval.
func (e *Engine) ToggleAutoSync() bool {
	e.mu.Lock()
	e.autoSync = !e.autoSync
	enabled := e.autoSync
	e.mu.Unlock()

	e.reconcileTimer()
	return enabled
}

// reconcileTimer starts or stops the timer to match the flag and session
func (e *Engine) reconcileTimer() {
	e.mu.Lock()
	want := e.autoSync
	e.mu.Unlock()
	want = want && e.gate.Authenticated()

	e.timerMu.Lock()
	defer e.timerMu.Unlock()

	switch {
	case want && e.cancelTimer == nil:
		ctx, cancel := context.WithCancel(context.Background())
		e.cancelTimer = cancel
		e.timerDone = make(chan struct{})
		e.active.Add(1)
		go e.run(ctx, e.timerDone)
		e.log.Info().Dur("interval", e.interval).Msg("Auto-sync started")
	case !want && e.cancelTimer != nil:
		e.cancelTimer()
		<-e.timerDone
		e.cancelTimer = nil
		e.timerDone = nil
		e.log.Info().Msg("Auto-sync stopped")
	}
}

func (e *Engine) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	defer e.active.Add(-1)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := e.PullBoard(ctx); err != nil && ctx.Err() == nil {
				e.log.Warn().Err(err).Msg("Auto-sync pull failed")
			}
		}
	}
}

// ActiveTimers returns the number of running auto-sync timers (0 or 1)
func (e *Engine) ActiveTimers() int {
	return int(e.active.Load())
}

// AutoSync reports whether auto-sync is enabled
func (e *Engine) AutoSync() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.autoSync
}

// LastSync returns the time of the last successful push or pull
func (e *Engine) LastSync() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSync
}

// SyncError returns the error of the last failed push or pull, cleared by
// the next success
func (e *Engine) SyncError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncErr
}

// Version returns the row version the next push is based on
func (e *Engine) Version() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}

// Close stops the timer and detaches from the gate
func (e *Engine) Close() {
	e.unsubscribe()
	e.mu.Lock()
	e.autoSync = false
	e.mu.Unlock()
	e.reconcileTimer()
}
