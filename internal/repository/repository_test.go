package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"cogbattery/internal/metrics"
	"cogbattery/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.AutoMigrate(&models.Participant{}, &models.TaskSummary{}, &models.TrialRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(db)
}

func TestParticipantLifecycle(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	p, err := repo.CreateParticipant(ctx, "SITE-01")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.ID) != 36 {
		t.Fatalf("participant ID %q is not a UUID", p.ID)
	}
	if err := repo.UpdateStage(ctx, p.ID, "digitSpanForward"); err != nil {
		t.Fatal(err)
	}
	got, err := repo.GetParticipant(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Code != "SITE-01" || got.CurrentStage != "digitSpanForward" {
		t.Fatalf("participant = %+v", got)
	}
	if _, err := repo.GetParticipant(ctx, "nope"); !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("unknown participant err = %v", err)
	}
	if err := repo.UpdateStage(ctx, "nope", "x"); !errors.Is(err, ErrParticipantNotFound) {
		t.Fatalf("UpdateStage unknown err = %v", err)
	}
	all, err := repo.ListParticipants(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("ListParticipants = %v, %v", all, err)
	}
}

func TestSaveTaskRunAndProgression(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	results := []models.TrialResult{
		{ParticipantID: "p1", TaskType: "digitSpanForward", Difficulty: 3, AttemptNumber: 1, IsCorrect: true, ScoreDelta: 1, Presented: []string{"4", "7", "2"}, Timestamp: at},
		{ParticipantID: "p1", TaskType: "digitSpanForward", Difficulty: 4, AttemptNumber: 1, Timestamp: at.Add(time.Second)},
		{ParticipantID: "p1", TaskType: "digitSpanForward", Difficulty: 4, AttemptNumber: 2, Timestamp: at.Add(2 * time.Second)},
	}
	m := metrics.CalculateTaskMetrics("digitSpanForward", 3, results)
	summary, trials, err := BuildTaskRun("p1", "digitSpanForward", m, results)
	if err != nil {
		t.Fatal(err)
	}
	if trials[0].Presented != "4 7 2" {
		t.Errorf("presented = %q", trials[0].Presented)
	}
	if err := repo.SaveTaskRunTx(ctx, &summary, trials); err != nil {
		t.Fatalf("SaveTaskRunTx: %v", err)
	}
	if summary.ID == 0 {
		t.Fatal("summary ID not assigned")
	}

	points, err := repo.GetDifficultyProgression(ctx, "p1", "digitSpanForward")
	if err != nil {
		t.Fatal(err)
	}
	want := []int{3, 4, 4}
	if len(points) != len(want) {
		t.Fatalf("points = %+v", points)
	}
	for i, p := range points {
		if p.Difficulty != want[i] || p.Trial != i+1 {
			t.Errorf("point %d = %+v", i, p)
		}
	}

	timeline, err := repo.GetTimelineData(ctx, "p1", "digitSpanForward")
	if err != nil {
		t.Fatal(err)
	}
	if len(timeline) != 1 || timeline[0].Value != 3 {
		t.Fatalf("timeline = %+v", timeline)
	}
}
