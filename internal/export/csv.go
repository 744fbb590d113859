// Package export renders a participant's stored results as one CSV
// document with a section per task.
package export

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"cogbattery/internal/metrics"
	"cogbattery/internal/models"
	"cogbattery/internal/store"
)

// Loader fetches the stored results of one participant's task.
type Loader interface {
	Load(ctx context.Context, participantID, taskKey string) ([]models.TrialResult, error)
}

var trialHeader = []string{
	"trial", "difficulty", "attempt", "presented", "expected", "actual",
	"is_correct", "score_delta", "correct_count", "incorrect_count", "timestamp",
}

// WriteCSV writes the participant preamble followed by one section per
// task, in stage order. Tasks without stored results get a section marked
// not_completed.
func WriteCSV(ctx context.Context, w io.Writer, participant models.Participant, battery *models.Battery, load Loader, now time.Time) error {
	cw := csv.NewWriter(w)

	preamble := [][]string{
		{"participant_id", participant.ID},
		{"participant_code", participant.Code},
		{"exported_at", now.UTC().Format(time.RFC3339)},
	}
	if err := cw.WriteAll(preamble); err != nil {
		return err
	}

	for _, stage := range battery.Stages {
		if stage.Task == "" {
			continue
		}
		def, ok := battery.Task(stage.Task)
		if !ok {
			continue
		}
		results, err := load.Load(ctx, participant.ID, def.Key)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("failed to load results for %s: %w", def.Key, err)
		}
		if err := writeSection(cw, def, results, err == nil); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeSection(cw *csv.Writer, def models.TaskDefinition, results []models.TrialResult, found bool) error {
	rows := [][]string{
		{},
		{"task", def.Key},
		{"title", def.Title},
		{"family", string(def.Family)},
	}
	if !found {
		rows = append(rows, []string{"status", "not_completed"})
		return cw.WriteAll(rows)
	}

	m := metrics.CalculateTaskMetrics(def.Key, def.MinDifficulty, results)
	rows = append(rows,
		[]string{"status", "completed"},
		[]string{"total_trials", strconv.Itoa(m.TotalTrials)},
		[]string{"correct_trials", strconv.Itoa(m.CorrectTrials)},
		[]string{"accuracy", formatRatio(m.Accuracy)},
		[]string{"max_difficulty_reached", strconv.Itoa(m.MaxDifficultyReached)},
		[]string{"total_score", strconv.Itoa(m.TotalScore)},
	)
	for _, c := range m.Categories {
		rows = append(rows, []string{"category_accuracy", c.Name, formatRatio(c.Accuracy)})
	}

	rows = append(rows, trialHeader)
	for i, res := range results {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(res.Difficulty),
			strconv.Itoa(res.AttemptNumber),
			strings.Join(res.Presented, " "),
			strings.Join(res.Expected, " "),
			strings.Join(res.Actual, " "),
			strconv.FormatBool(res.IsCorrect),
			strconv.Itoa(res.ScoreDelta),
			strconv.Itoa(res.CorrectCount),
			strconv.Itoa(res.IncorrectCount),
			res.Timestamp.UTC().Format(time.RFC3339Nano),
		})
	}
	return cw.WriteAll(rows)
}

func formatRatio(r metrics.MetricResult) string {
	if !r.Calculated {
		return ""
	}
	return strconv.FormatFloat(r.Value, 'f', 4, 64)
}
