// Package recorder keeps the ordered, append-only result list of a task run.
package recorder

import (
	"sync"
	"time"

	"cogbattery/internal/models"
)

// Recorder accumulates trial results for one task run.
type Recorder struct {
	mu      sync.Mutex
	results []models.TrialResult
}

// New returns an empty recorder.
func New() *Recorder {
	return &Recorder{}
}

// Record appends a result. The stored copy is normalized so that it
// survives a JSON round trip unchanged.
func (r *Recorder) Record(result models.TrialResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, Normalize(result))
}

// Len returns the number of recorded results.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

// Flush returns a copy of every result recorded so far, in order.
func (r *Recorder) Flush() []models.TrialResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.TrialResult, len(r.results))
	for i, res := range r.results {
		out[i] = clone(res)
	}
	return out
}

// Reset drops every result, as when a run restarts.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = nil
}

// Normalize puts a result in its canonical stored form: UTC millisecond
// timestamp and nil for empty lists.
func Normalize(res models.TrialResult) models.TrialResult {
	res.Timestamp = res.Timestamp.UTC().Truncate(time.Millisecond)
	res = clone(res)
	if len(res.Presented) == 0 {
		res.Presented = nil
	}
	if len(res.Expected) == 0 {
		res.Expected = nil
	}
	if len(res.Actual) == 0 {
		res.Actual = nil
	}
	if len(res.Categories) == 0 {
		res.Categories = nil
	}
	return res
}

func clone(res models.TrialResult) models.TrialResult {
	res.Presented = append([]string(nil), res.Presented...)
	res.Expected = append([]string(nil), res.Expected...)
	res.Actual = append([]string(nil), res.Actual...)
	res.Categories = append([]models.CategoryScore(nil), res.Categories...)
	return res
}
