// Package battery turns the YAML battery definition into runnable tasks and
// walks the fixed stage sequence.
package battery

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"cogbattery/internal/difficulty"
	"cogbattery/internal/models"
	"cogbattery/internal/orchestrator"
	"cogbattery/internal/presentation"
	"cogbattery/internal/scoring"
	"cogbattery/internal/stimulus"
)

//go:embed battery.yaml
var defaultDefinition []byte

// ErrUnknownTask is returned for a task key the battery does not define.
var ErrUnknownTask = errors.New("unknown task")

// Default parses the battery compiled into the binary.
func Default() (*models.Battery, error) {
	return models.ParseBattery(defaultDefinition)
}

// Load reads the battery at path, or the built-in one when path is empty.
func Load(path string) (*models.Battery, error) {
	if path == "" {
		return Default()
	}
	return models.LoadBattery(path)
}

// Registry builds tasks and answers navigation questions for one battery.
type Registry struct {
	battery *models.Battery
}

// NewRegistry wraps a parsed battery.
func NewRegistry(b *models.Battery) *Registry {
	return &Registry{battery: b}
}

// Battery returns the underlying definition.
func (r *Registry) Battery() *models.Battery {
	return r.battery
}

// Definition returns the definition of a task.
func (r *Registry) Definition(key string) (models.TaskDefinition, error) {
	def, ok := r.battery.Task(key)
	if !ok {
		return models.TaskDefinition{}, fmt.Errorf("%w: %q", ErrUnknownTask, key)
	}
	return def, nil
}

// Task assembles the generator, evaluator, controller and schedule of a
// task. rnd seeds the generator; a nil rnd uses a time-based seed.
func (r *Registry) Task(key string, rnd *rand.Rand) (orchestrator.Task, error) {
	def, err := r.Definition(key)
	if err != nil {
		return orchestrator.Task{}, err
	}
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	gen, err := stimulus.New(def, rnd)
	if err != nil {
		return orchestrator.Task{}, err
	}
	eval, err := scoring.New(def)
	if err != nil {
		return orchestrator.Task{}, err
	}
	return orchestrator.Task{
		Key:        def.Key,
		Family:     def.Family,
		Categories: append([]string(nil), def.Categories...),
		Generator:  gen,
		Evaluator:  eval,
		Controller: difficulty.ConfigFor(def),
		Schedule:   ScheduleFor(def),
	}, nil
}

// ScheduleFor returns the presentation schedule builder of a task.
func ScheduleFor(def models.TaskDefinition) func(models.TrialSpec) presentation.Schedule {
	timing := def.Timing
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }

	switch def.Family {
	case models.FamilyRecall, models.FamilyCounting:
		return func(spec models.TrialSpec) presentation.Schedule {
			return presentation.Sequential(len(spec.Items), ms(timing.DisplayMs), ms(timing.BlankMs))
		}
	case models.FamilySpatial:
		return func(models.TrialSpec) presentation.Schedule {
			s := presentation.Study(ms(timing.StudyMs), ms(timing.BufferMs))
			s.EarlyExit = timing.EarlyExit
			return s
		}
	default:
		return func(models.TrialSpec) presentation.Schedule {
			return presentation.Static()
		}
	}
}

// Stages returns the stage sequence.
func (r *Registry) Stages() []models.Stage {
	return append([]models.Stage(nil), r.battery.Stages...)
}

// TaskKeys returns the task keys in stage order.
func (r *Registry) TaskKeys() []string {
	var keys []string
	for _, s := range r.battery.Stages {
		if s.Task != "" {
			keys = append(keys, s.Task)
		}
	}
	return keys
}

// Next returns the stage after current, which may be a stage ID, a task key
// or a stage path. An empty current yields the first stage. It returns
// false at the final stage or when current is not part of the sequence.
func (r *Registry) Next(current string) (models.Stage, bool) {
	stages := r.battery.Stages
	if current == "" {
		if len(stages) == 0 {
			return models.Stage{}, false
		}
		return stages[0], true
	}
	for i, s := range stages {
		if s.ID == current || s.Path == current || (s.Task != "" && s.Task == current) {
			if i+1 < len(stages) {
				return stages[i+1], true
			}
			return models.Stage{}, false
		}
	}
	return models.Stage{}, false
}

// Stage looks up a stage by ID.
func (r *Registry) Stage(id string) (models.Stage, bool) {
	for _, s := range r.battery.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return models.Stage{}, false
}
