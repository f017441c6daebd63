package session

import (
	"sort"
	"sync"
	"time"
)

// Scheduler runs delayed replies.
type Scheduler interface {
	// AfterFunc calls f once d has elapsed. stop cancels the call and reports
	// whether it was still pending.
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// RealScheduler is backed by time.AfterFunc.
var RealScheduler Scheduler = realScheduler{}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// ManualScheduler fires timers only when Advance is called.
// It makes paced replies deterministic in tests and replays.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers map[int]*manualTimer
}

type manualTimer struct {
	seq int
	due time.Duration
	f   func()
}

// NewManualScheduler creates a scheduler whose clock starts at zero.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{timers: make(map[int]*manualTimer)}
}

// AfterFunc implements Scheduler.
func (m *ManualScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	id := m.seq
	m.timers[id] = &manualTimer{seq: id, due: m.now + d, f: f}
	return func() bool {
		m.mu.Lock()
		defer m.mu.Unlock()
		_, ok := m.timers[id]
		delete(m.timers, id)
		return ok
	}
}

// Advance moves the clock forward and fires every timer that became due,
// in due order. Callbacks run on the caller's goroutine.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	m.now += d
	var due []*manualTimer
	for id, t := range m.timers {
		if t.due <= m.now {
			due = append(due, t)
			delete(m.timers, id)
		}
	}
	m.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].due != due[j].due {
			return due[i].due < due[j].due
		}
		return due[i].seq < due[j].seq
	})
	for _, t := range due {
		t.f()
	}
}

// Pending returns the number of timers not yet fired.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}
