// Package metrics derives per-task aggregates from recorded trial results.
package metrics

import (
	"cogbattery/internal/models"
)

type MetricResult struct {
	Value      float64 `json:"value"`
	Calculated bool    `json:"calculated"`
	SampleSize int     `json:"sampleSize,omitempty"`
}

// CategoryAccuracy is how often one counting category was counted exactly.
type CategoryAccuracy struct {
	Name     string       `json:"name"`
	Correct  int          `json:"correct"`
	Accuracy MetricResult `json:"accuracy"`
}

// TaskMetrics summarizes one task run.
type TaskMetrics struct {
	TaskKey              string             `json:"taskKey"`
	TotalTrials          int                `json:"totalTrials"`
	CorrectTrials        int                `json:"correctTrials"`
	TotalScore           int                `json:"totalScore"`
	Accuracy             MetricResult       `json:"accuracy"`
	MaxDifficultyReached int                `json:"maxDifficultyReached"`
	Categories           []CategoryAccuracy `json:"categories,omitempty"`
}

// CalculateTaskMetrics aggregates results of a task that starts at
// minDifficulty. The highest difficulty reached is the highest one answered
// correctly; with no correct answer it is one below the lowest attempted.
func CalculateTaskMetrics(taskKey string, minDifficulty int, results []models.TrialResult) TaskMetrics {
	m := TaskMetrics{TaskKey: taskKey, TotalTrials: len(results)}

	highest := minDifficulty - 1 // Assume failure at the starting difficulty
	minAttempted := minDifficulty
	hasCorrect := false

	type tally struct{ correct, total int }
	var order []string
	categories := map[string]*tally{}

	for _, res := range results {
		m.TotalScore += res.ScoreDelta
		if res.Difficulty < minAttempted {
			minAttempted = res.Difficulty
		}
		if res.IsCorrect {
			m.CorrectTrials++
			hasCorrect = true
			if res.Difficulty > highest {
				highest = res.Difficulty
			}
		}
		for _, c := range res.Categories {
			t, ok := categories[c.Name]
			if !ok {
				t = &tally{}
				categories[c.Name] = t
				order = append(order, c.Name)
			}
			t.total++
			if c.Correct {
				t.correct++
			}
		}
	}

	if !hasCorrect && len(results) > 0 {
		highest = minAttempted - 1
	}
	if highest < 0 {
		highest = 0
	}
	m.MaxDifficultyReached = highest
	m.Accuracy = ratio(m.CorrectTrials, m.TotalTrials)

	for _, name := range order {
		t := categories[name]
		m.Categories = append(m.Categories, CategoryAccuracy{
			Name:     name,
			Correct:  t.correct,
			Accuracy: ratio(t.correct, t.total),
		})
	}
	return m
}

func ratio(n, total int) MetricResult {
	if total == 0 {
		return MetricResult{}
	}
	return MetricResult{Value: float64(n) / float64(total), Calculated: true, SampleSize: total}
}
