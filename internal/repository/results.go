package repository

import (
	"context"
	"encoding/json"
	"strings"

	"cogbattery/internal/metrics"
	"cogbattery/internal/models"

	"gorm.io/gorm"
)

// BuildTaskRun turns a completed result list into its summary row and the
// flattened trial rows.
func BuildTaskRun(participantID, taskKey string, m metrics.TaskMetrics, results []models.TrialResult) (models.TaskSummary, []models.TrialRecord, error) {
	raw, err := json.Marshal(results)
	if err != nil {
		return models.TaskSummary{}, nil, err
	}
	summary := models.TaskSummary{
		ParticipantID:        participantID,
		TaskKey:              taskKey,
		MaxDifficultyReached: m.MaxDifficultyReached,
		TotalTrials:          m.TotalTrials,
		CorrectTrials:        m.CorrectTrials,
		Accuracy:             m.Accuracy.Value,
		RawData:              raw,
	}
	trials := make([]models.TrialRecord, 0, len(results))
	for _, res := range results {
		trials = append(trials, models.TrialRecord{
			ParticipantID: participantID,
			TaskKey:       taskKey,
			Difficulty:    res.Difficulty,
			Attempt:       res.AttemptNumber,
			Presented:     strings.Join(res.Presented, " "),
			Expected:      strings.Join(res.Expected, " "),
			Actual:        strings.Join(res.Actual, " "),
			IsCorrect:     res.IsCorrect,
			ScoreDelta:    res.ScoreDelta,
			Timestamp:     res.Timestamp,
		})
	}
	return summary, trials, nil
}

// SaveTaskRunTx saves the summary and all trials of a task run in a single
// transaction.
func (r *Repository) SaveTaskRunTx(ctx context.Context, summary *models.TaskSummary, trials []models.TrialRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(summary).Error; err != nil {
			return err
		}
		if len(trials) == 0 {
			return nil
		}
		for i := range trials {
			trials[i].SummaryID = summary.ID
		}
		return tx.Create(&trials).Error
	})
}

// LatestSummary returns the most recent summary of a participant's task.
func (r *Repository) LatestSummary(ctx context.Context, participantID, taskKey string) (*models.TaskSummary, error) {
	var summary models.TaskSummary
	err := r.db.WithContext(ctx).
		Where("participant_id = ? AND task_key = ?", participantID, taskKey).
		Order("created_at DESC, id DESC").
		First(&summary).Error
	return &summary, err
}

// TrialsForSummary returns the trials of one run in the order they were taken.
func (r *Repository) TrialsForSummary(ctx context.Context, summaryID int) ([]models.TrialRecord, error) {
	var trials []models.TrialRecord
	err := r.db.WithContext(ctx).Where("summary_id = ?", summaryID).Order("id").Find(&trials).Error
	return trials, err
}
