package presentation

import (
	"sync"
	"time"
)

// ManualTimers is a Timers implementation driven by Advance instead of the
// wall clock. Due callbacks run synchronously, in deadline order, on the
// goroutine that calls Advance.
type ManualTimers struct {
	mu      sync.Mutex
	now     time.Duration
	nextSeq int
	pending []*manualTimer
}

type manualTimer struct {
	owner *ManualTimers
	at    time.Duration
	seq   int
	fn    func()
	done  bool
}

// NewManualTimers returns timers starting at offset zero.
func NewManualTimers() *ManualTimers {
	return &ManualTimers{}
}

func (m *ManualTimers) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d < 0 {
		d = 0
	}
	t := &manualTimer{owner: m, at: m.now + d, seq: m.nextSeq, fn: f}
	m.nextSeq++
	m.pending = append(m.pending, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.owner.remove(t)
	return true
}

// Advance moves time forward by d, firing every callback that falls due.
func (m *ManualTimers) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		next := m.earliest(target)
		if next == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = next.at
		next.done = true
		m.remove(next)
		m.mu.Unlock()

		next.fn()
	}
}

// Now returns the elapsed manual time.
func (m *ManualTimers) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns how many callbacks are still scheduled.
func (m *ManualTimers) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

func (m *ManualTimers) earliest(limit time.Duration) *manualTimer {
	var best *manualTimer
	for _, t := range m.pending {
		if t.at > limit {
			continue
		}
		if best == nil || t.at < best.at || (t.at == best.at && t.seq < best.seq) {
			best = t
		}
	}
	return best
}

func (m *ManualTimers) remove(t *manualTimer) {
	for i, p := range m.pending {
		if p == t {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return
		}
	}
}
