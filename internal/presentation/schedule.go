// Package presentation plays a trial's stimulus schedule on cancelable timers.
package presentation

import "time"

// WholeLayout is the entry index used by study schedules, where the full
// grid is visible at once instead of one item at a time.
const WholeLayout = -1

// Entry is one visible interval, as offsets from the schedule start.
type Entry struct {
	Index  int
	ShowAt time.Duration
	HideAt time.Duration
}

// Schedule is an ordered list of visible intervals followed by the moment
// the response UI is revealed.
type Schedule struct {
	Entries  []Entry
	RevealAt time.Duration
	// EarlyExit allows Ready to end the schedule before RevealAt.
	EarlyExit bool
}

// Duration is the total time until the response UI is revealed.
func (s Schedule) Duration() time.Duration {
	return s.RevealAt
}

// Immediate reports whether the schedule has nothing to play.
func (s Schedule) Immediate() bool {
	return len(s.Entries) == 0 && s.RevealAt <= 0
}

// Sequential flashes n items one after another, each visible for display
// and followed by a blank gap.
func Sequential(n int, display, blank time.Duration) Schedule {
	entries := make([]Entry, 0, n)
	slot := display + blank
	for i := 0; i < n; i++ {
		start := time.Duration(i) * slot
		entries = append(entries, Entry{Index: i, ShowAt: start, HideAt: start + display})
	}
	return Schedule{Entries: entries, RevealAt: time.Duration(n) * slot}
}

// Study shows the whole layout for one long interval and reveals the
// response UI after a fixed buffer. The participant may end it early.
func Study(study, buffer time.Duration) Schedule {
	return Schedule{
		Entries:   []Entry{{Index: WholeLayout, ShowAt: 0, HideAt: study}},
		RevealAt:  study + buffer,
		EarlyExit: true,
	}
}

// Static reveals the response UI straight away.
func Static() Schedule {
	return Schedule{}
}
