// Package orchestrator runs one task from its first trial to completion:
// generate, present, await a response, score, record, then let the
// difficulty controller pick the next step.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"cogbattery/internal/difficulty"
	"cogbattery/internal/models"
	"cogbattery/internal/presentation"
	"cogbattery/internal/recorder"
	"cogbattery/internal/scoring"
	"cogbattery/internal/stimulus"

	"go.uber.org/zap"
)

var (
	// ErrNotAwaitingResponse is returned when a response arrives outside
	// the response phase. The response is ignored.
	ErrNotAwaitingResponse = errors.New("not awaiting a response")
	// ErrNotPresenting is returned when Ready is called outside presentation.
	ErrNotPresenting = errors.New("no presentation in progress")
	// ErrEarlyExitUnavailable is returned when the running schedule cannot
	// be skipped.
	ErrEarlyExitUnavailable = errors.New("presentation cannot be skipped")
	// ErrAlreadyStarted is returned by Start on a run that is in progress.
	ErrAlreadyStarted = errors.New("task run already started")
	// ErrRunComplete is returned by Start on a finished run. Use Restart.
	ErrRunComplete = errors.New("task run is complete")
)

// Sink receives the full result list when a run completes.
type Sink interface {
	Save(ctx context.Context, taskKey string, results []models.TrialResult) error
}

// Task bundles the strategies that make one task behave the way it does.
type Task struct {
	Key        string
	Family     models.Family
	Categories []string
	Generator  stimulus.Generator
	Evaluator  scoring.Evaluator
	Controller difficulty.Config
	Schedule   func(spec models.TrialSpec) presentation.Schedule
}

// Options carries the collaborators of a run.
type Options struct {
	ParticipantID string
	Timers        presentation.Timers
	Now           func() time.Time
	Sink          Sink
	Logger        *zap.Logger
	// OnPhase is called after every visible state change, outside the
	// orchestrator's lock.
	OnPhase func(View)
}

// Outcome describes what a scored response led to.
type Outcome struct {
	Result   models.TrialResult
	Decision difficulty.Decision
}

// RunState is the bookkeeping of a run at one instant.
type RunState struct {
	Difficulty           int
	Attempt              int
	MaxDifficultyReached int
	Results              []models.TrialResult
	Phase                models.Phase
}

const noItem = -2

// Orchestrator drives a single task run. All methods are safe for
// concurrent use.
type Orchestrator struct {
	mu sync.Mutex

	task       Task
	opts       Options
	log        *zap.Logger
	driver     *presentation.Driver
	controller *difficulty.Controller
	recorder   *recorder.Recorder

	phase         models.Phase
	generation    uint64
	trial         *models.TrialSpec
	visible       int
	layoutVisible bool
	lastActivity  time.Time

	pending   []View
	toPersist []models.TrialResult
	persist   bool
}

// New prepares an idle run of task.
func New(task Task, opts Options) *Orchestrator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	o := &Orchestrator{
		task:       task,
		opts:       opts,
		log:        opts.Logger.With(zap.String("task", task.Key), zap.String("participant", opts.ParticipantID)),
		controller: difficulty.New(task.Controller),
		recorder:   recorder.New(),
		phase:      models.PhaseIdle,
		visible:    noItem,
	}
	o.lastActivity = opts.Now()
	o.driver = presentation.NewDriver(opts.Timers, o.dispatch)
	return o
}

// TaskKey returns the key of the task this run executes.
func (o *Orchestrator) TaskKey() string {
	return o.task.Key
}

// Start begins the first trial at the minimum difficulty.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	switch o.phase {
	case models.PhaseIdle:
	case models.PhaseComplete:
		o.mu.Unlock()
		return ErrRunComplete
	default:
		o.mu.Unlock()
		return ErrAlreadyStarted
	}
	o.touch()
	o.log.Info("Task run started", zap.Int("difficulty", o.controller.Difficulty()))
	o.beginTrial()
	o.unlockAndNotify(ctx)
	return nil
}

// Ready ends an early-exit presentation and opens the response phase.
func (o *Orchestrator) Ready(ctx context.Context) error {
	o.mu.Lock()
	if o.phase != models.PhasePresenting {
		o.mu.Unlock()
		return ErrNotPresenting
	}
	o.touch()
	if !o.driver.Ready() {
		o.mu.Unlock()
		return ErrEarlyExitUnavailable
	}
	o.unlockAndNotify(ctx)
	return nil
}

// SubmitResponse scores a response to the current trial. Outside the
// response phase it returns ErrNotAwaitingResponse and changes nothing. A
// response that cannot be scored returns an error wrapping
// scoring.ErrInvalidResponse and leaves the trial open.
func (o *Orchestrator) SubmitResponse(ctx context.Context, resp models.Response) (Outcome, error) {
	o.mu.Lock()
	if o.phase != models.PhaseAwaitingResponse || o.trial == nil {
		o.mu.Unlock()
		return Outcome{}, ErrNotAwaitingResponse
	}
	o.touch()

	spec := *o.trial
	eval, err := o.task.Evaluator.Evaluate(spec, resp)
	if err != nil {
		o.log.Debug("Rejected response", zap.Error(err))
		o.mu.Unlock()
		return Outcome{}, err
	}
	o.setPhase(models.PhaseEvaluating)

	result := models.TrialResult{
		ParticipantID:  o.opts.ParticipantID,
		Timestamp:      o.opts.Now(),
		TaskType:       o.task.Key,
		Difficulty:     spec.Difficulty,
		AttemptNumber:  o.controller.Attempt(),
		Presented:      spec.Tokens(),
		Expected:       eval.Expected,
		Actual:         eval.Actual,
		IsCorrect:      eval.IsCorrect,
		ScoreDelta:     eval.Score,
		CorrectCount:   eval.CorrectCount,
		IncorrectCount: eval.IncorrectCount,
		Categories:     eval.Categories,
	}
	o.recorder.Record(result)
	result = recorder.Normalize(result)

	o.setPhase(models.PhaseAdvancing)
	decision := o.controller.Record(eval.IsCorrect)
	o.log.Info("Trial scored",
		zap.Int("difficulty", spec.Difficulty),
		zap.Int("attempt", result.AttemptNumber),
		zap.Bool("correct", eval.IsCorrect),
		zap.Int("score", eval.Score),
		zap.Stringer("decision", decision),
	)

	if decision == difficulty.DecisionComplete {
		o.finish()
	} else {
		o.beginTrial()
	}
	o.unlockAndNotify(ctx)
	return Outcome{Result: result, Decision: decision}, nil
}

// Leave abandons the run: pending timers are cancelled and the run returns
// to idle with no results kept.
func (o *Orchestrator) Leave() {
	o.mu.Lock()
	o.teardown()
	o.setPhase(models.PhaseIdle)
	o.unlockAndNotify(context.Background())
}

// Restart abandons the run and starts over at the minimum difficulty.
func (o *Orchestrator) Restart(ctx context.Context) error {
	o.mu.Lock()
	o.teardown()
	o.phase = models.PhaseIdle
	o.touch()
	o.log.Info("Task run restarted")
	o.beginTrial()
	o.unlockAndNotify(ctx)
	return nil
}

// Results returns the trials recorded so far.
func (o *Orchestrator) Results() []models.TrialResult {
	return o.recorder.Flush()
}

// State returns the run's bookkeeping.
func (o *Orchestrator) State() RunState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return RunState{
		Difficulty:           o.controller.Difficulty(),
		Attempt:              o.controller.Attempt(),
		MaxDifficultyReached: o.controller.MaxReached(),
		Results:              o.recorder.Flush(),
		Phase:                o.phase,
	}
}

// Snapshot returns what the UI should currently show.
func (o *Orchestrator) Snapshot() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.view()
}

// IdleSince returns when the run last saw participant activity.
func (o *Orchestrator) IdleSince() time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastActivity
}

func (o *Orchestrator) beginTrial() {
	d := o.controller.Difficulty()
	spec := o.task.Generator.Generate(d)
	if want := o.task.Generator.Length(d); len(spec.Items) != want {
		o.log.Error("Generated trial has unexpected length",
			zap.Int("difficulty", d), zap.Int("want", want), zap.Int("got", len(spec.Items)))
	}

	o.generation++
	o.trial = nil
	o.visible = noItem
	o.layoutVisible = false

	// A level without items ends the run.
	if len(spec.Items) == 0 {
		o.log.Warn("Trial has no items, completing run", zap.Int("difficulty", d))
		o.finish()
		return
	}
	o.trial = &spec

	schedule := o.task.Schedule(spec)
	if schedule.Immediate() {
		o.setPhase(models.PhaseAwaitingResponse)
		return
	}

	gen := o.generation
	o.setPhase(models.PhasePresenting)
	o.driver.Start(schedule, presentation.Callbacks{
		OnShown: func(index int) {
			if gen != o.generation || o.phase != models.PhasePresenting {
				return
			}
			if index == presentation.WholeLayout {
				o.layoutVisible = true
			} else {
				o.visible = index
			}
			o.emit()
		},
		OnHidden: func(index int) {
			if gen != o.generation || o.phase != models.PhasePresenting {
				return
			}
			if index == presentation.WholeLayout {
				o.layoutVisible = false
			} else if o.visible == index {
				o.visible = noItem
			}
			o.emit()
		},
		OnComplete: func() {
			if gen != o.generation || o.phase != models.PhasePresenting {
				return
			}
			o.visible = noItem
			o.layoutVisible = false
			o.setPhase(models.PhaseAwaitingResponse)
		},
	})
}

func (o *Orchestrator) finish() {
	o.driver.Cancel()
	o.generation++
	o.trial = nil
	o.visible = noItem
	o.layoutVisible = false
	o.setPhase(models.PhaseComplete)
	o.toPersist = o.recorder.Flush()
	o.persist = true
	o.log.Info("Task run complete",
		zap.Int("trials", len(o.toPersist)),
		zap.Int("max_difficulty", o.controller.MaxReached()),
	)
}

func (o *Orchestrator) teardown() {
	o.driver.Cancel()
	o.generation++
	o.trial = nil
	o.visible = noItem
	o.layoutVisible = false
	o.controller.Reset()
	o.recorder.Reset()
	o.toPersist = nil
	o.persist = false
}

func (o *Orchestrator) touch() {
	o.lastActivity = o.opts.Now()
}

func (o *Orchestrator) setPhase(p models.Phase) {
	o.phase = p
	o.emit()
}

func (o *Orchestrator) emit() {
	if o.opts.OnPhase != nil {
		o.pending = append(o.pending, o.view())
	}
}

// dispatch serializes timer callbacks with the public methods.
func (o *Orchestrator) dispatch(fn func()) {
	o.mu.Lock()
	fn()
	o.unlockAndNotify(context.Background())
}

// unlockAndNotify releases the lock, then delivers queued views and hands
// a completed run to the sink.
func (o *Orchestrator) unlockAndNotify(ctx context.Context) {
	views := o.pending
	o.pending = nil
	persist, results := o.persist, o.toPersist
	o.persist, o.toPersist = false, nil
	o.mu.Unlock()

	if hook := o.opts.OnPhase; hook != nil {
		for _, v := range views {
			hook(v)
		}
	}
	if persist && o.opts.Sink != nil {
		// The response that completed the run may come from a client that
		// disconnects right after; the save must not inherit that.
		if err := o.opts.Sink.Save(context.WithoutCancel(ctx), o.task.Key, results); err != nil {
			o.log.Error("Failed to persist task results", zap.Error(err), zap.Int("trials", len(results)))
		}
	}
}
