// Package difficulty decides, after each trial, whether to retry the same
// difficulty, move on, or end the task.
package difficulty

import "cogbattery/internal/models"

// Policy selects how results move the difficulty.
type Policy int

const (
	// Retry gives a failed difficulty further attempts and ends the task
	// when the last attempt fails.
	Retry Policy = iota
	// AlwaysAdvance moves to the next level after every trial, pass or
	// fail, and ends after the last level.
	AlwaysAdvance
)

// Decision is the controller's verdict on the trial just recorded.
type Decision int

const (
	DecisionRetry Decision = iota
	DecisionAdvance
	DecisionComplete
)

func (d Decision) String() string {
	switch d {
	case DecisionRetry:
		return "retry"
	case DecisionAdvance:
		return "advance"
	case DecisionComplete:
		return "complete"
	}
	return "unknown"
}

// Config bounds a controller.
type Config struct {
	Min         int
	Max         int
	Step        int
	MaxAttempts int
	Policy      Policy
}

// ConfigFor derives the controller settings for a task definition.
func ConfigFor(def models.TaskDefinition) Config {
	cfg := Config{
		Min:         def.MinDifficulty,
		Max:         def.MaxDifficulty,
		Step:        def.Step,
		MaxAttempts: def.MaxAttempts,
		Policy:      AlwaysAdvance,
	}
	if def.Family == models.FamilyRecall {
		cfg.Policy = Retry
		if cfg.MaxAttempts < 2 {
			cfg.MaxAttempts = 2
		}
	}
	return cfg
}

// Controller tracks difficulty and attempt number across one task run.
type Controller struct {
	cfg        Config
	difficulty int
	attempt    int
	maxReached int
	done       bool
}

// New returns a controller positioned at the minimum difficulty, attempt 1.
func New(cfg Config) *Controller {
	if cfg.Step <= 0 {
		cfg.Step = 1
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	c := &Controller{cfg: cfg}
	c.Reset()
	return c
}

// Reset returns to the minimum difficulty, as on an explicit restart.
func (c *Controller) Reset() {
	c.difficulty = c.cfg.Min
	c.attempt = 1
	c.maxReached = c.cfg.Min - 1
	if c.maxReached < 0 {
		c.maxReached = 0
	}
	c.done = false
}

func (c *Controller) Difficulty() int { return c.difficulty }

func (c *Controller) Attempt() int { return c.attempt }

// MaxReached is the highest difficulty answered correctly. Before any
// correct answer it is one below the minimum.
func (c *Controller) MaxReached() int { return c.maxReached }

func (c *Controller) Done() bool { return c.done }

func (c *Controller) Config() Config { return c.cfg }

// Record applies a trial outcome at the current difficulty and attempt.
func (c *Controller) Record(correct bool) Decision {
	if c.done {
		return DecisionComplete
	}
	if correct && c.difficulty > c.maxReached {
		c.maxReached = c.difficulty
	}

	if c.cfg.Policy == Retry && !correct {
		if c.attempt < c.cfg.MaxAttempts {
			c.attempt++
			return DecisionRetry
		}
		c.done = true
		return DecisionComplete
	}

	c.attempt = 1
	if c.difficulty+c.cfg.Step > c.cfg.Max {
		c.done = true
		return DecisionComplete
	}
	c.difficulty += c.cfg.Step
	return DecisionAdvance
}
