package services

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"cogbattery/internal/battery"
	"cogbattery/internal/orchestrator"
	"cogbattery/internal/presentation"

	"go.uber.org/zap"
)

// ErrNoActiveRun is returned when a participant has no run of the
// requested task.
var ErrNoActiveRun = errors.New("no active task run")

// SinkFactory returns where a participant's completed runs are saved.
type SinkFactory interface {
	For(participantID string) orchestrator.Sink
}

// ManagerOptions configures a Manager. Zero values fall back to the
// system clock, runtime timers and a time-seeded source.
type ManagerOptions struct {
	Timers  presentation.Timers
	Now     func() time.Time
	NewRand func() *rand.Rand
	OnPhase func(participantID string, v orchestrator.View)
}

// Manager owns the single active task run of every participant.
type Manager struct {
	mu   sync.Mutex
	runs map[string]*orchestrator.Orchestrator

	registry *battery.Registry
	sinks    SinkFactory
	opts     ManagerOptions
	log      *zap.Logger
}

func NewManager(registry *battery.Registry, sinks SinkFactory, log *zap.Logger, opts ManagerOptions) *Manager {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewRand == nil {
		opts.NewRand = func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) }
	}
	return &Manager{
		runs:     make(map[string]*orchestrator.Orchestrator),
		registry: registry,
		sinks:    sinks,
		opts:     opts,
		log:      log,
	}
}

// Start tears down the participant's current run, if any, and starts a
// fresh run of taskKey.
func (m *Manager) Start(ctx context.Context, participantID, taskKey string) (*orchestrator.Orchestrator, error) {
	task, err := m.registry.Task(taskKey, m.opts.NewRand())
	if err != nil {
		return nil, err
	}

	opts := orchestrator.Options{
		ParticipantID: participantID,
		Timers:        m.opts.Timers,
		Now:           m.opts.Now,
		Logger:        m.log,
	}
	if m.sinks != nil {
		opts.Sink = m.sinks.For(participantID)
	}
	if hook := m.opts.OnPhase; hook != nil {
		opts.OnPhase = func(v orchestrator.View) { hook(participantID, v) }
	}
	run := orchestrator.New(task, opts)

	m.mu.Lock()
	previous := m.runs[participantID]
	m.runs[participantID] = run
	m.mu.Unlock()

	if previous != nil {
		m.log.Debug("Replacing active task run",
			zap.String("participant", participantID),
			zap.String("previous", previous.TaskKey()),
			zap.String("next", taskKey))
		previous.Leave()
	}
	if err := run.Start(ctx); err != nil {
		return nil, err
	}
	return run, nil
}

// Run returns the participant's active run of taskKey.
func (m *Manager) Run(participantID, taskKey string) (*orchestrator.Orchestrator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[participantID]
	if !ok || run.TaskKey() != taskKey {
		return nil, ErrNoActiveRun
	}
	return run, nil
}

// Leave abandons the participant's run of taskKey.
func (m *Manager) Leave(participantID, taskKey string) error {
	m.mu.Lock()
	run, ok := m.runs[participantID]
	if !ok || run.TaskKey() != taskKey {
		m.mu.Unlock()
		return ErrNoActiveRun
	}
	delete(m.runs, participantID)
	m.mu.Unlock()

	run.Leave()
	return nil
}

// LeaveAll abandons whatever run the participant has, reporting whether
// there was one.
func (m *Manager) LeaveAll(participantID string) bool {
	m.mu.Lock()
	run, ok := m.runs[participantID]
	delete(m.runs, participantID)
	m.mu.Unlock()

	if ok {
		run.Leave()
	}
	return ok
}

// Reap tears down runs that saw no activity for longer than idle and
// returns how many were removed.
func (m *Manager) Reap(idle time.Duration) int {
	cutoff := m.opts.Now().Add(-idle)

	m.mu.Lock()
	var stale []*orchestrator.Orchestrator
	for id, run := range m.runs {
		if run.IdleSince().Before(cutoff) {
			stale = append(stale, run)
			delete(m.runs, id)
		}
	}
	m.mu.Unlock()

	for _, run := range stale {
		run.Leave()
	}
	return len(stale)
}

// Active returns the number of participants with a run.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}

// Shutdown tears down every run.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	runs := m.runs
	m.runs = make(map[string]*orchestrator.Orchestrator)
	m.mu.Unlock()

	for _, run := range runs {
		run.Leave()
	}
}
