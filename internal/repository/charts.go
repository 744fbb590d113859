package repository

import (
	"context"
	"errors"
	"time"

	"cogbattery/internal/models"

	"gorm.io/gorm"
)

type TimelineDataPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// TrialDataPoint is one trial of a run, placed by its order in the run.
type TrialDataPoint struct {
	Trial      int  `json:"trial"`
	Difficulty int  `json:"difficulty"`
	IsCorrect  bool `json:"isCorrect"`
}

// GetTimelineData returns one point per completed run of a task: when it
// finished and the highest difficulty reached.
func (r *Repository) GetTimelineData(ctx context.Context, participantID, taskKey string) ([]TimelineDataPoint, error) {
	var summaries []models.TaskSummary
	err := r.db.WithContext(ctx).
		Select("created_at", "max_difficulty_reached").
		Where("participant_id = ? AND task_key = ?", participantID, taskKey).
		Order("created_at, id").
		Find(&summaries).Error
	if err != nil {
		return nil, err
	}
	data := make([]TimelineDataPoint, 0, len(summaries))
	for _, s := range summaries {
		data = append(data, TimelineDataPoint{Date: s.CreatedAt, Value: float64(s.MaxDifficultyReached)})
	}
	return data, nil
}

// GetDifficultyProgression returns the trials of the latest run of a task,
// or nothing when the task was never completed.
func (r *Repository) GetDifficultyProgression(ctx context.Context, participantID, taskKey string) ([]TrialDataPoint, error) {
	summary, err := r.LatestSummary(ctx, participantID, taskKey)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []TrialDataPoint{}, nil
	}
	if err != nil {
		return nil, err
	}
	trials, err := r.TrialsForSummary(ctx, summary.ID)
	if err != nil {
		return nil, err
	}
	points := make([]TrialDataPoint, 0, len(trials))
	for i, t := range trials {
		points = append(points, TrialDataPoint{Trial: i + 1, Difficulty: t.Difficulty, IsCorrect: t.IsCorrect})
	}
	return points, nil
}
