// battery.go
package models

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Stage is one step of the fixed participant journey.
type Stage struct {
	ID   string `yaml:"id" json:"id"`
	Path string `yaml:"path" json:"path"`
	Task string `yaml:"task,omitempty" json:"task,omitempty"`
}

// Timing holds presentation durations in milliseconds.
type Timing struct {
	DisplayMs int  `yaml:"display_ms"`
	BlankMs   int  `yaml:"blank_ms"`
	StudyMs   int  `yaml:"study_ms"`
	BufferMs  int  `yaml:"buffer_ms"`
	EarlyExit bool `yaml:"early_exit"`
}

// TaskDefinition configures one task of the battery.
type TaskDefinition struct {
	Key           string   `yaml:"key"`
	Title         string   `yaml:"title"`
	Family        Family   `yaml:"family"`
	Backward      bool     `yaml:"backward,omitempty"`
	Alphabet      []string `yaml:"alphabet,omitempty"`
	Categories    []string `yaml:"categories,omitempty"`
	Levels        []int    `yaml:"levels,omitempty"`
	Columns       int      `yaml:"columns,omitempty"`
	Tiles         []Tile   `yaml:"tiles,omitempty"`
	Puzzles       []Puzzle `yaml:"puzzles,omitempty"`
	MinDifficulty int      `yaml:"min_difficulty"`
	MaxDifficulty int      `yaml:"max_difficulty"`
	Step          int      `yaml:"step,omitempty"`
	MaxAttempts   int      `yaml:"max_attempts,omitempty"`
	Timing        Timing   `yaml:"timing"`
}

// Battery is the whole task battery: the stage order and every task.
type Battery struct {
	Stages []Stage          `yaml:"stages"`
	Tasks  []TaskDefinition `yaml:"tasks"`
	byKey  map[string]int
}

// LoadBattery reads and parses a battery YAML file.
func LoadBattery(path string) (*Battery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read battery file: %w", err)
	}
	return ParseBattery(data)
}

// ParseBattery parses battery YAML and checks it for consistency.
func ParseBattery(data []byte) (*Battery, error) {
	var battery Battery
	if err := yaml.Unmarshal(data, &battery); err != nil {
		return nil, fmt.Errorf("failed to unmarshal battery YAML: %w", err)
	}
	if err := battery.validate(); err != nil {
		return nil, err
	}
	return &battery, nil
}

// Task returns the definition for a task key.
func (b *Battery) Task(key string) (TaskDefinition, bool) {
	i, ok := b.byKey[key]
	if !ok {
		return TaskDefinition{}, false
	}
	return b.Tasks[i], true
}

func (b *Battery) validate() error {
	b.byKey = make(map[string]int, len(b.Tasks))
	for i := range b.Tasks {
		t := &b.Tasks[i]
		if t.Key == "" {
			return fmt.Errorf("task %d: missing key", i)
		}
		if _, dup := b.byKey[t.Key]; dup {
			return fmt.Errorf("task %q: duplicate key", t.Key)
		}
		if t.Step <= 0 {
			t.Step = 1
		}
		if t.MaxAttempts <= 0 {
			t.MaxAttempts = 1
		}
		if t.MinDifficulty < 1 || t.MaxDifficulty < t.MinDifficulty {
			return fmt.Errorf("task %q: invalid difficulty bounds [%d, %d]", t.Key, t.MinDifficulty, t.MaxDifficulty)
		}
		switch t.Family {
		case FamilyRecall:
			if len(t.Alphabet) == 0 {
				return fmt.Errorf("task %q: recall task needs an alphabet", t.Key)
			}
		case FamilyCounting:
			if len(t.Categories) != 3 {
				return fmt.Errorf("task %q: counting task needs exactly 3 categories", t.Key)
			}
			if len(t.Levels) < t.MaxDifficulty {
				return fmt.Errorf("task %q: %d levels defined, max difficulty is %d", t.Key, len(t.Levels), t.MaxDifficulty)
			}
		case FamilySpatial:
			if len(t.Levels) < t.MaxDifficulty {
				return fmt.Errorf("task %q: %d levels defined, max difficulty is %d", t.Key, len(t.Levels), t.MaxDifficulty)
			}
			if t.Columns <= 0 {
				t.Columns = 4
			}
			for _, rows := range t.Levels {
				if rows*t.Columns > len(t.Tiles) {
					return fmt.Errorf("task %q: %d cells need more than %d tiles", t.Key, rows*t.Columns, len(t.Tiles))
				}
			}
		case FamilyDeductive:
			if len(t.Puzzles) < t.MaxDifficulty {
				return fmt.Errorf("task %q: %d puzzles defined, max difficulty is %d", t.Key, len(t.Puzzles), t.MaxDifficulty)
			}
			for _, p := range t.Puzzles {
				if len(p.Correct) != 2 {
					return fmt.Errorf("task %q: puzzle %q must have exactly 2 correct cards", t.Key, p.ID)
				}
			}
		default:
			return fmt.Errorf("task %q: unknown family %q", t.Key, t.Family)
		}
		b.byKey[t.Key] = i
	}
	for _, s := range b.Stages {
		if s.Task == "" {
			continue
		}
		if _, ok := b.byKey[s.Task]; !ok {
			return fmt.Errorf("stage %q references unknown task %q", s.ID, s.Task)
		}
	}
	return nil
}
