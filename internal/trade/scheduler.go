package trade

import (
	"sync"
	"time"

	"motorvault/internal/clock"
)

// Scheduler runs detached callbacks keyed by proposal id. A callback fires at
// most once; Cancel and Stop only prevent callbacks that have not started.
type Scheduler struct {
	clock  clock.Clock
	mu     sync.Mutex
	timers map[string]clock.Timer
}

func NewScheduler(clk clock.Clock) *Scheduler {
	return &Scheduler{clock: clk, timers: make(map[string]clock.Timer)}
}

// Schedule runs fn after d. Scheduling an existing key replaces its timer.
func (s *Scheduler) Schedule(key string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[key]; ok {
		t.Stop()
	}
	var t clock.Timer
	t = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		if s.timers[key] == t {
			delete(s.timers, key)
		}
		s.mu.Unlock()
		fn()
	})
	s.timers[key] = t
}

// Cancel reports whether a pending callback was stopped.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.timers[key]
	if !ok {
		return false
	}
	delete(s.timers, key)
	return t.Stop()
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, t := range s.timers {
		t.Stop()
		delete(s.timers, key)
	}
}
