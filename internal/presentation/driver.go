package presentation

import (
	"sort"
	"sync"
	"time"
)

// Timer is a scheduled callback that can be stopped before it fires.
type Timer interface {
	Stop() bool
}

// Timers schedules delayed callbacks.
type Timers interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SystemTimers schedules callbacks on the runtime timer heap.
type SystemTimers struct{}

func (SystemTimers) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Callbacks receive schedule transitions. They always run inside the
// driver's dispatch function, so the owner's lock is held.
type Callbacks struct {
	OnShown    func(index int)
	OnHidden   func(index int)
	OnComplete func()
}

// Dispatch runs fn while holding the lock that guards the driver's owner.
type Dispatch func(fn func())

// Serial returns a Dispatch that serializes on mu.
func Serial(mu *sync.Mutex) Dispatch {
	return func(fn func()) {
		mu.Lock()
		defer mu.Unlock()
		fn()
	}
}

// Driver plays one schedule at a time. Every transition is registered up
// front at its absolute offset from the start, and every fired callback
// checks the epoch it was scheduled under, so a callback left over from an
// earlier schedule never reaches the owner.
//
// Start, Ready and Cancel must be called under the same lock that dispatch
// takes.
type Driver struct {
	timers   Timers
	dispatch Dispatch

	epoch      uint64
	lastSeq    int
	active     bool
	earlyExit  bool
	handles    []Timer
	onComplete func()
}

// NewDriver returns a driver scheduling on timers. Fired callbacks are
// funneled through dispatch.
func NewDriver(timers Timers, dispatch Dispatch) *Driver {
	if timers == nil {
		timers = SystemTimers{}
	}
	if dispatch == nil {
		dispatch = Serial(&sync.Mutex{})
	}
	return &Driver{timers: timers, dispatch: dispatch}
}

type transition struct {
	at   time.Duration
	seq  int
	fire func()
}

// Start cancels whatever is playing and plays s. It returns the epoch of
// the new schedule.
func (d *Driver) Start(s Schedule, cb Callbacks) uint64 {
	d.cancelLocked()
	d.epoch++
	d.lastSeq = -1
	d.active = true
	d.earlyExit = s.EarlyExit
	d.onComplete = cb.OnComplete

	var steps []transition
	for _, e := range s.Entries {
		index := e.Index
		steps = append(steps,
			transition{at: e.ShowAt, fire: func() {
				if cb.OnShown != nil {
					cb.OnShown(index)
				}
			}},
			transition{at: e.HideAt, fire: func() {
				if cb.OnHidden != nil {
					cb.OnHidden(index)
				}
			}},
		)
	}
	sort.SliceStable(steps, func(i, j int) bool { return steps[i].at < steps[j].at })
	for i := range steps {
		steps[i].seq = i
	}

	epoch := d.epoch
	for _, step := range steps {
		step := step
		d.handles = append(d.handles, d.timers.AfterFunc(step.at, func() {
			d.dispatch(func() { d.fire(epoch, step.seq, step.fire) })
		}))
	}
	last := len(steps)
	d.handles = append(d.handles, d.timers.AfterFunc(s.RevealAt, func() {
		d.dispatch(func() { d.fire(epoch, last, d.complete) })
	}))
	return epoch
}

// Active reports whether a schedule is playing and has not completed.
func (d *Driver) Active() bool {
	return d.active
}

// Epoch returns the epoch of the most recent schedule.
func (d *Driver) Epoch() uint64 {
	return d.epoch
}

// Ready ends an early-exit schedule now. Completion runs exactly once: if
// the schedule already completed, or does not allow early exit, Ready does
// nothing and returns false.
func (d *Driver) Ready() bool {
	if !d.active || !d.earlyExit {
		return false
	}
	d.stopAll()
	d.epoch++
	d.complete()
	return true
}

// Cancel stops every pending callback. It is safe to call repeatedly.
func (d *Driver) Cancel() {
	d.cancelLocked()
	d.epoch++
}

func (d *Driver) cancelLocked() {
	d.stopAll()
	d.active = false
	d.onComplete = nil
}

func (d *Driver) stopAll() {
	for _, h := range d.handles {
		h.Stop()
	}
	d.handles = nil
}

// fire runs a transition if it belongs to the current schedule and has not
// been overtaken by a later one.
func (d *Driver) fire(epoch uint64, seq int, fn func()) {
	if epoch != d.epoch || !d.active || seq <= d.lastSeq {
		return
	}
	d.lastSeq = seq
	fn()
}

func (d *Driver) complete() {
	d.active = false
	d.handles = nil
	done := d.onComplete
	d.onComplete = nil
	if done != nil {
		done()
	}
}
