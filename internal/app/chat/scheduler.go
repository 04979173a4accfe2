package chat

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"flockr/internal/pkg/logx"
	"flockr/internal/pkg/metrics"
)

// Task kinds.
const (
	TaskSendLater    = "send_later"
	TaskStandupFlush = "standup_flush"
)

// deferredTask is one scheduled mutation of a channel. It names the channel by
// id and carries the store generation it was created in; apply runs with the
// channel lock held.
type deferredTask struct {
	kind       string
	channelID  int
	generation uint64
	apply      func(ch *Channel) []Event
}

// Scheduler fires one-shot deferred tasks through a clockwork.Clock.
// Once scheduled, a task cannot be cancelled except by stopping the Scheduler.
type Scheduler struct {
	clock clockwork.Clock

	// mu protects pending, running, nextID and stopped.
	mu sync.Mutex
	// pending holds armed tasks. A nil timer means AfterFunc has not returned yet.
	pending map[uint64]clockwork.Timer
	running int
	nextID  uint64
	stopped bool

	// wg tracks callbacks that are currently running.
	wg sync.WaitGroup

	logger zerolog.Logger
}

// NewScheduler creates a Scheduler driven by clock.
func NewScheduler(clock clockwork.Clock) *Scheduler {
	return &Scheduler{
		clock:   clock,
		pending: make(map[uint64]clockwork.Timer),
		logger:  logx.Component("Scheduler"),
	}
}

// After runs fn in its own goroutine once d has elapsed. A non-positive d
// fires immediately. It reports false when the Scheduler has been stopped.
func (s *Scheduler) After(d time.Duration, kind string, fn func()) bool {
	if d < 0 {
		d = 0
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		s.logger.Warn().Str("task", kind).Msg("Scheduler stopped. Task rejected.")
		return false
	}
	s.nextID++
	id := s.nextID
	s.pending[id] = nil
	metrics.DeferredPending.Inc()
	s.mu.Unlock()

	// mu is not held across AfterFunc: a zero delay may fire before it returns.
	timer := s.clock.AfterFunc(d, func() { s.fire(id, kind, fn) })

	s.mu.Lock()
	if _, ok := s.pending[id]; ok {
		s.pending[id] = timer
		s.mu.Unlock()
	} else {
		// Fired already, or Stop ran in between.
		s.mu.Unlock()
		timer.Stop()
	}

	s.logger.Debug().Uint64("task_id", id).Str("task", kind).Dur("delay", d).Msg("Deferred task scheduled.")
	return true
}

func (s *Scheduler) fire(id uint64, kind string, fn func()) {
	s.mu.Lock()
	if _, ok := s.pending[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.pending, id)
	s.running++
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running--
		s.mu.Unlock()
		metrics.DeferredPending.Dec()
		s.wg.Done()
	}()

	s.logger.Debug().Uint64("task_id", id).Str("task", kind).Msg("Deferred task firing.")
	fn()
}

// Pending reports how many tasks have not finished, counting those whose
// callback is running.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) + s.running
}

// Stop cancels every pending task and waits for running callbacks to return.
// Tasks scheduled after Stop are rejected.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true

	cancelled := 0
	for id, timer := range s.pending {
		if timer != nil && timer.Stop() {
			cancelled++
		}
		delete(s.pending, id)
		metrics.DeferredPending.Dec()
	}
	s.mu.Unlock()

	s.wg.Wait()

	s.logger.Info().Int("cancelled", cancelled).Msg("Scheduler stopped.")
}
