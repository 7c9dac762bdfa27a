package application

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/gitpane/internal/log"
)

// Scheduler drives periodic snapshot refreshes while the panel is visible
// and the path is a repository.
//
// It is a two-state machine: Disabled -> Armed -> Disabled. Armed runs a
// fixed-interval ticker plus an optional watch on the .git marker files, so
// changes made by another writer (a terminal in the same directory) surface
// before the next tick. Ticker refreshes and operation-triggered refreshes
// may race; both are read-only and idempotent, so whichever completes last
// wins.
type Scheduler struct {
	orch     *Orchestrator
	interval time.Duration
	debounce time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// SchedulerConfig wires a Scheduler.
type SchedulerConfig struct {
	Orchestrator *Orchestrator
	Interval     time.Duration // default 3s
	Debounce     time.Duration // default 250ms
}

// NewScheduler creates a stopped scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	interval := cfg.Interval
	if interval == 0 {
		interval = 3 * time.Second
	}
	debounce := cfg.Debounce
	if debounce == 0 {
		debounce = 250 * time.Millisecond
	}
	return &Scheduler{orch: cfg.Orchestrator, interval: interval, debounce: debounce}
}

// Start arms the scheduler. Calling Start on an armed scheduler is a no-op.
// The scheduler disarms itself when the path stops being a repository.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	done := make(chan struct{})
	s.done = done
	s.mu.Unlock()

	log.SafeGo("scheduler.loop", func() {
		defer close(done)
		s.loop(ctx)
	})
}

// Stop disarms the scheduler and waits for the loop to exit. In-flight
// fetches run to completion; their results are simply the last published
// snapshot. Safe to call repeatedly or before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) loop(ctx context.Context) {
	watcher := s.startWatcher()
	if watcher != nil {
		defer func() {
			if err := watcher.Close(); err != nil {
				log.Warn(log.CatSched, "closing .git watcher", "error", err.Error())
			}
		}()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Pending debounce timer for watcher bursts. Never fires until armed.
	debounce := time.NewTimer(time.Hour)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		var events <-chan fsnotify.Event
		var werrs <-chan error
		if watcher != nil {
			events = watcher.Events
			werrs = watcher.Errors
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.refresh(ctx) {
				return
			}
		case <-debounce.C:
			if !s.refresh(ctx) {
				return
			}
		case ev, ok := <-events:
			if !ok {
				watcher = nil
				continue
			}
			if isGitStateEvent(ev) {
				debounce.Reset(s.debounce)
			}
		case err, ok := <-werrs:
			if !ok {
				watcher = nil
				continue
			}
			log.Warn(log.CatSched, "watcher error, polling continues", "error", err.Error())
		}
	}
}

// refresh fetches a snapshot; returns false when the scheduler should
// disarm because the path is no longer a repository.
func (s *Scheduler) refresh(ctx context.Context) bool {
	snap, err := s.orch.Refresh(ctx)
	if err != nil {
		// Stale snapshot stays in place; keep polling for recovery.
		return true
	}
	if !snap.IsRepository {
		log.Info(log.CatSched, "path is not a repository, auto-refresh disarmed", "path", s.orch.Path())
		return false
	}
	return true
}

// startWatcher watches the repository's .git directory when it exists.
// Watch failures are not fatal; polling alone still keeps state fresh.
func (s *Scheduler) startWatcher() *fsnotify.Watcher {
	gitDir := filepath.Join(s.orch.Path(), ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn(log.CatSched, "cannot create .git watcher", "error", err.Error())
		return nil
	}
	if err := watcher.Add(gitDir); err != nil {
		log.Warn(log.CatSched, "cannot watch .git", "error", err.Error())
		_ = watcher.Close()
		return nil
	}
	return watcher
}

// isGitStateEvent filters watcher noise down to the files whose changes mean
// repository state moved: HEAD (branch switches, commits), index (staging),
// and the merge/rebase/cherry-pick markers.
func isGitStateEvent(ev fsnotify.Event) bool {
	name := filepath.Base(ev.Name)
	switch name {
	case "HEAD", "index", "MERGE_HEAD", "CHERRY_PICK_HEAD", "ORIG_HEAD", "FETCH_HEAD":
		return true
	}
	return false
}
