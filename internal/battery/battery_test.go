package battery

import (
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"cogbattery/internal/difficulty"
	"cogbattery/internal/models"
)

func defaultRegistry(t *testing.T) *Registry {
	t.Helper()
	b, err := Default()
	if err != nil {
		t.Fatalf("default battery: %v", err)
	}
	return NewRegistry(b)
}

func TestDefaultBatteryWalksElevenStages(t *testing.T) {
	t.Parallel()

	r := defaultRegistry(t)
	want := []string{
		"demographics",
		"digitSpanForward", "digitSpanBackward",
		"objectSpanForward", "objectSpanBackward",
		"shapeCounting", "ecologicalCounting",
		"spatialWorkingMemory", "ecologicalSpatial",
		"deductiveReasoning", "ecologicalDeductive",
	}

	var got []string
	stage, ok := r.Next("")
	for ok {
		got = append(got, stage.ID)
		stage, ok = r.Next(stage.ID)
	}
	if len(got) != len(want) {
		t.Fatalf("walked %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stage %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestNextAcceptsTaskKeyAndPath(t *testing.T) {
	t.Parallel()

	r := defaultRegistry(t)
	tests := []struct {
		current string
		want    string
		ok      bool
	}{
		{"objectCounting", "spatialWorkingMemory", true},
		{"/tasks/shape-counting", "ecologicalCounting", true},
		{"ecologicalDeductive", "", false},
		{"no-such-stage", "", false},
	}
	for _, tt := range tests {
		got, ok := r.Next(tt.current)
		if ok != tt.ok || got.ID != tt.want {
			t.Errorf("Next(%q) = %q, %v; want %q, %v", tt.current, got.ID, ok, tt.want, tt.ok)
		}
	}
}

func TestTaskBuildsFamilyStrategies(t *testing.T) {
	t.Parallel()

	r := defaultRegistry(t)
	for _, key := range r.TaskKeys() {
		task, err := r.Task(key, rand.New(rand.NewSource(3)))
		if err != nil {
			t.Fatalf("Task(%q): %v", key, err)
		}
		def, _ := r.Battery().Task(key)
		spec := task.Generator.Generate(def.MinDifficulty)
		if len(spec.Items) != task.Generator.Length(def.MinDifficulty) {
			t.Errorf("%s: generated %d items, want %d", key, len(spec.Items), task.Generator.Length(def.MinDifficulty))
		}
		sched := task.Schedule(spec)
		switch def.Family {
		case models.FamilyRecall:
			if task.Controller.Policy != difficulty.Retry {
				t.Errorf("%s: policy %v, want retry", key, task.Controller.Policy)
			}
			if sched.EarlyExit || len(sched.Entries) != len(spec.Items) {
				t.Errorf("%s: schedule %+v", key, sched)
			}
		case models.FamilySpatial:
			if !sched.EarlyExit || sched.RevealAt != 10500*time.Millisecond {
				t.Errorf("%s: schedule %+v", key, sched)
			}
		case models.FamilyDeductive:
			if !sched.Immediate() {
				t.Errorf("%s: deductive schedule should be immediate", key)
			}
		}
	}
}

func TestUnknownTask(t *testing.T) {
	t.Parallel()

	r := defaultRegistry(t)
	if _, err := r.Task("nBack", nil); !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("err = %v, want ErrUnknownTask", err)
	}
}

func TestLoadRejectsInconsistentBattery(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "battery.yaml")
	data := []byte(`
stages:
  - id: a
    path: /a
    task: missing
tasks:
  - key: span
    family: recall
    alphabet: ["1"]
    min_difficulty: 1
    max_difficulty: 2
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for stage referencing unknown task")
	}
}
