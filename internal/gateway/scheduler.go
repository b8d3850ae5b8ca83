package gateway

import (
	"sort"
	"sync"
	"time"
)

// CancelFunc cancels a scheduled task. Safe to call more than once.
type CancelFunc func()

// Scheduler abstracts deferred execution so the mock gateway's simulated
// processing delays can be fast-forwarded deterministically in tests instead
// of waiting on wall-clock timers.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) CancelFunc
}

type timerScheduler struct{}

// NewTimerScheduler returns the production Scheduler backed by time.AfterFunc.
func NewTimerScheduler() Scheduler {
	return timerScheduler{}
}

func (timerScheduler) Schedule(d time.Duration, fn func()) CancelFunc {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

type manualTask struct {
	due time.Duration
	fn  func()
	id  int
}

// ManualScheduler queues tasks and runs them only when Advance moves its
// virtual clock past their due time.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	tasks []*manualTask
	next  int
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) Schedule(d time.Duration, fn func()) CancelFunc {
	s.mu.Lock()
	defer s.mu.Unlock()

	task := &manualTask{due: s.now + d, fn: fn, id: s.next}
	s.next++
	s.tasks = append(s.tasks, task)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, t := range s.tasks {
			if t.id == task.id {
				s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
				return
			}
		}
	}
}

// Advance moves the virtual clock forward and fires every task that came due,
// in due-time order. Tasks scheduled by a firing task run too if within range.
func (s *ManualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	s.mu.Unlock()

	for {
		s.mu.Lock()
		sort.SliceStable(s.tasks, func(i, j int) bool { return s.tasks[i].due < s.tasks[j].due })

		var ready *manualTask
		for i, t := range s.tasks {
			if t.due <= s.now {
				ready = t
				s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
				break
			}
		}
		s.mu.Unlock()

		if ready == nil {
			return
		}
		ready.fn()
	}
}

// Pending returns the number of tasks still queued.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
