package client

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultAutosaveInterval is the tick between autosave checks.
const DefaultAutosaveInterval = 260 * time.Millisecond

// SaveFunc persists the current edit state.
type SaveFunc func(ctx context.Context) error

// Autosaver saves on a ticker, but only when something was marked dirty.
type Autosaver struct {
	interval time.Duration
	save     SaveFunc
	logger   *slog.Logger

	mu    sync.Mutex
	dirty bool

	saveMu sync.Mutex
	wg     sync.WaitGroup
}

// NewAutosaver creates an Autosaver. A non-positive interval uses
// DefaultAutosaveInterval.
func NewAutosaver(interval time.Duration, save SaveFunc) *Autosaver {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	return &Autosaver{
		interval: interval,
		save:     save,
		logger:   slog.Default(),
	}
}

// MarkDirty schedules a save for the next tick.
func (a *Autosaver) MarkDirty() {
	a.mu.Lock()
	a.dirty = true
	a.mu.Unlock()
}

// Dirty reports whether unsaved changes are pending.
func (a *Autosaver) Dirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dirty
}

// Run ticks until ctx is cancelled. Pending changes are not saved on exit;
// call Flush for that.
func (a *Autosaver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Flush(ctx); err != nil {
				a.logger.ErrorContext(ctx, "autosave failed", "error", err)
			}
		}
	}
}

// Flush saves now if dirty. The dirty flag is cleared before saving and a
// failed save is returned, not retried; the next MarkDirty schedules a new one.
func (a *Autosaver) Flush(ctx context.Context) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	a.mu.Lock()
	if !a.dirty {
		a.mu.Unlock()
		return nil
	}
	a.dirty = false
	a.mu.Unlock()

	return a.save(ctx)
}

// FlushAsync starts a save without waiting for it. Errors are logged and
// the changes may be lost.
func (a *Autosaver) FlushAsync() {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx := context.Background()
		if err := a.Flush(ctx); err != nil {
			a.logger.WarnContext(ctx, "background save failed", "error", err)
		}
	}()
}

// Wait blocks until every FlushAsync started so far has returned.
func (a *Autosaver) Wait() {
	a.wg.Wait()
}
