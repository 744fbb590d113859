package presentation

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"
)

type eventLog struct {
	events []string
}

func (l *eventLog) callbacks(tag string) Callbacks {
	return Callbacks{
		OnShown:    func(i int) { l.events = append(l.events, fmt.Sprintf("%sshow%d", tag, i)) },
		OnHidden:   func(i int) { l.events = append(l.events, fmt.Sprintf("%shide%d", tag, i)) },
		OnComplete: func() { l.events = append(l.events, tag+"complete") },
	}
}

func newTestDriver() (*Driver, *ManualTimers) {
	timers := NewManualTimers()
	return NewDriver(timers, Serial(&sync.Mutex{})), timers
}

func TestSequentialSchedule(t *testing.T) {
	t.Parallel()

	s := Sequential(3, 500*time.Millisecond, 250*time.Millisecond)
	if s.RevealAt != 2250*time.Millisecond {
		t.Fatalf("RevealAt = %v, want 2.25s", s.RevealAt)
	}
	for i, e := range s.Entries {
		if e.HideAt <= e.ShowAt {
			t.Errorf("entry %d: hide %v not after show %v", i, e.HideAt, e.ShowAt)
		}
		if i > 0 && e.ShowAt < s.Entries[i-1].HideAt {
			t.Errorf("entry %d overlaps entry %d", i, i-1)
		}
	}
}

func TestDriverFiresInScheduleOrder(t *testing.T) {
	t.Parallel()

	d, timers := newTestDriver()
	log := &eventLog{}
	d.Start(Sequential(3, 100*time.Millisecond, 50*time.Millisecond), log.callbacks(""))

	timers.Advance(time.Second)

	want := []string{"show0", "hide0", "show1", "hide1", "show2", "hide2", "complete"}
	if !reflect.DeepEqual(log.events, want) {
		t.Fatalf("events = %v, want %v", log.events, want)
	}
	if d.Active() {
		t.Error("driver still active after completion")
	}
}

func TestDriverCancelIsIdempotent(t *testing.T) {
	t.Parallel()

	d, timers := newTestDriver()
	log := &eventLog{}
	d.Start(Sequential(3, 100*time.Millisecond, 50*time.Millisecond), log.callbacks(""))

	timers.Advance(120 * time.Millisecond)
	d.Cancel()
	d.Cancel()
	timers.Advance(time.Second)

	want := []string{"show0"}
	if !reflect.DeepEqual(log.events, want) {
		t.Fatalf("events = %v, want %v", log.events, want)
	}
	if n := timers.Pending(); n != 0 {
		t.Errorf("pending timers after cancel = %d, want 0", n)
	}
}

func TestDriverRestartDropsPreviousSchedule(t *testing.T) {
	t.Parallel()

	d, timers := newTestDriver()
	log := &eventLog{}
	d.Start(Sequential(2, 100*time.Millisecond, 0), log.callbacks("a-"))
	timers.Advance(50 * time.Millisecond)
	d.Start(Sequential(1, 100*time.Millisecond, 0), log.callbacks("b-"))
	timers.Advance(time.Second)

	want := []string{"a-show0", "b-show0", "b-hide0", "b-complete"}
	if !reflect.DeepEqual(log.events, want) {
		t.Fatalf("events = %v, want %v", log.events, want)
	}
}

func TestDriverReadyCompletesExactlyOnce(t *testing.T) {
	t.Parallel()

	d, timers := newTestDriver()
	log := &eventLog{}
	d.Start(Study(5*time.Second, 500*time.Millisecond), log.callbacks(""))

	timers.Advance(time.Second)
	if !d.Ready() {
		t.Fatal("Ready returned false during an early-exit schedule")
	}
	if d.Ready() {
		t.Fatal("second Ready returned true")
	}
	timers.Advance(10 * time.Second)

	want := []string{"show-1", "complete"}
	if !reflect.DeepEqual(log.events, want) {
		t.Fatalf("events = %v, want %v", log.events, want)
	}
}

func TestDriverReadyAfterNaturalCompletion(t *testing.T) {
	t.Parallel()

	d, timers := newTestDriver()
	log := &eventLog{}
	d.Start(Study(time.Second, 0), log.callbacks(""))
	timers.Advance(2 * time.Second)

	if d.Ready() {
		t.Fatal("Ready fired after the schedule already completed")
	}
	completes := 0
	for _, e := range log.events {
		if e == "complete" {
			completes++
		}
	}
	if completes != 1 {
		t.Fatalf("complete fired %d times, want 1", completes)
	}
}

func TestDriverReadyIgnoredWithoutEarlyExit(t *testing.T) {
	t.Parallel()

	d, timers := newTestDriver()
	log := &eventLog{}
	d.Start(Sequential(2, 100*time.Millisecond, 0), log.callbacks(""))
	if d.Ready() {
		t.Fatal("Ready accepted on a sequential schedule")
	}
	timers.Advance(time.Second)
	if got := log.events[len(log.events)-1]; got != "complete" {
		t.Fatalf("last event = %q, want complete", got)
	}
}

func TestSystemTimersReadyRacesNaturalCompletion(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	d := NewDriver(SystemTimers{}, Serial(&mu))

	for i := 0; i < 50; i++ {
		completes := 0
		mu.Lock()
		d.Start(Study(time.Millisecond, time.Millisecond), Callbacks{
			OnComplete: func() { completes++ },
		})
		mu.Unlock()

		// Land Ready on either side of the natural reveal.
		time.Sleep(time.Duration(i%4) * time.Millisecond)
		mu.Lock()
		d.Ready()
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		got := completes
		mu.Unlock()
		if got != 1 {
			t.Fatalf("iteration %d: complete fired %d times, want 1", i, got)
		}
	}
}

func TestSystemTimersCancelSilencesPendingCallbacks(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	d := NewDriver(SystemTimers{}, Serial(&mu))
	log := &eventLog{}

	mu.Lock()
	d.Start(Sequential(5, 20*time.Millisecond, 10*time.Millisecond), log.callbacks(""))
	mu.Unlock()

	time.Sleep(5 * time.Millisecond)
	mu.Lock()
	d.Cancel()
	atCancel := len(log.events)
	mu.Unlock()

	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(log.events) != atCancel {
		t.Fatalf("events after cancel: %v (had %d at cancel)", log.events[atCancel:], atCancel)
	}
	for _, e := range log.events {
		if e == "complete" {
			t.Fatal("cancelled schedule completed")
		}
	}
}
