package metrics

import (
	"math"
	"testing"

	"cogbattery/internal/models"
)

func TestCalculateTaskMetrics(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		min      int
		results  []models.TrialResult
		max      int
		correct  int
		accuracy float64
	}{
		{
			name: "digit span with retry failure",
			min:  3,
			results: []models.TrialResult{
				{Difficulty: 3, IsCorrect: true, ScoreDelta: 1},
				{Difficulty: 4, IsCorrect: false},
				{Difficulty: 4, IsCorrect: false},
			},
			max:      3,
			correct:  1,
			accuracy: 1.0 / 3,
		},
		{
			name: "no correct answer",
			min:  3,
			results: []models.TrialResult{
				{Difficulty: 3}, {Difficulty: 3},
			},
			max: 2,
		},
		{
			name: "floor at zero",
			min:  1,
			results: []models.TrialResult{
				{Difficulty: 1},
			},
			max: 0,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := CalculateTaskMetrics("digitSpanForward", tt.min, tt.results)
			if m.MaxDifficultyReached != tt.max {
				t.Errorf("max difficulty = %d, want %d", m.MaxDifficultyReached, tt.max)
			}
			if m.CorrectTrials != tt.correct || m.TotalTrials != len(tt.results) {
				t.Errorf("trials = %d/%d, want %d/%d", m.CorrectTrials, m.TotalTrials, tt.correct, len(tt.results))
			}
			if math.Abs(m.Accuracy.Value-tt.accuracy) > 1e-9 || !m.Accuracy.Calculated {
				t.Errorf("accuracy = %+v, want %v", m.Accuracy, tt.accuracy)
			}
		})
	}
}

func TestCategoryAccuracy(t *testing.T) {
	t.Parallel()

	results := []models.TrialResult{
		{Difficulty: 1, IsCorrect: true, Categories: []models.CategoryScore{
			{Name: "circle", Correct: true}, {Name: "square", Correct: true}, {Name: "triangle"},
		}},
		{Difficulty: 2, Categories: []models.CategoryScore{
			{Name: "circle", Correct: true}, {Name: "square"}, {Name: "triangle"},
		}},
	}
	m := CalculateTaskMetrics("shapeCounting", 1, results)
	if len(m.Categories) != 3 {
		t.Fatalf("categories = %+v", m.Categories)
	}
	want := map[string]float64{"circle": 1, "square": 0.5, "triangle": 0}
	for _, c := range m.Categories {
		if c.Accuracy.Value != want[c.Name] {
			t.Errorf("%s accuracy = %v, want %v", c.Name, c.Accuracy.Value, want[c.Name])
		}
	}
	if m.Categories[0].Name != "circle" {
		t.Errorf("categories not in first-seen order: %+v", m.Categories)
	}
}

func TestEmptyResults(t *testing.T) {
	t.Parallel()

	m := CalculateTaskMetrics("deductiveReasoning", 1, nil)
	if m.Accuracy.Calculated || m.MaxDifficultyReached != 0 || m.TotalTrials != 0 {
		t.Fatalf("metrics = %+v", m)
	}
}
