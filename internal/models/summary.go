package models

import (
	"encoding/json"
	"time"
)

// TaskSummary holds the aggregate metrics of one completed task run.
type TaskSummary struct {
	ID                   int    `gorm:"primaryKey"`
	ParticipantID        string `gorm:"index;size:36"`
	TaskKey              string `gorm:"index;size:64"`
	MaxDifficultyReached int
	TotalTrials          int
	CorrectTrials        int
	Accuracy             float64
	RawData              json.RawMessage
	CreatedAt            time.Time
}

// TrialRecord is a single trial within a task run, flattened for queries.
type TrialRecord struct {
	ID            int    `gorm:"primaryKey"`
	SummaryID     int    `gorm:"index"`
	ParticipantID string `gorm:"index;size:36"`
	TaskKey       string `gorm:"size:64"`
	Difficulty    int
	Attempt       int
	Presented     string
	Expected      string
	Actual        string
	IsCorrect     bool
	ScoreDelta    int
	Timestamp     time.Time
}
