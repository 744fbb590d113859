package services

import (
	"context"
	"fmt"

	"cogbattery/internal/battery"
	"cogbattery/internal/metrics"
	"cogbattery/internal/models"
	"cogbattery/internal/orchestrator"
	"cogbattery/internal/repository"
	"cogbattery/internal/store"

	"go.uber.org/zap"
)

// ResultSink saves completed runs to the result store and, when a
// repository is configured, as summary and trial rows.
type ResultSink struct {
	results  *store.ResultStore
	repo     *repository.Repository
	registry *battery.Registry
	log      *zap.Logger
}

func NewResultSink(results *store.ResultStore, repo *repository.Repository, registry *battery.Registry, log *zap.Logger) *ResultSink {
	return &ResultSink{results: results, repo: repo, registry: registry, log: log}
}

func (s *ResultSink) For(participantID string) orchestrator.Sink {
	return participantSink{ResultSink: s, participantID: participantID}
}

type participantSink struct {
	*ResultSink
	participantID string
}

func (p participantSink) Save(ctx context.Context, taskKey string, results []models.TrialResult) error {
	if err := p.results.Save(ctx, p.participantID, taskKey, results); err != nil {
		return err
	}
	if p.repo == nil {
		return nil
	}

	minDifficulty := 0
	if def, err := p.registry.Definition(taskKey); err == nil {
		minDifficulty = def.MinDifficulty
	}
	m := metrics.CalculateTaskMetrics(taskKey, minDifficulty, results)
	summary, trials, err := repository.BuildTaskRun(p.participantID, taskKey, m, results)
	if err != nil {
		return fmt.Errorf("failed to build task summary: %w", err)
	}
	if err := p.repo.SaveTaskRunTx(ctx, &summary, trials); err != nil {
		return fmt.Errorf("failed to save task summary: %w", err)
	}
	p.log.Info("Task run saved",
		zap.String("participant", p.participantID),
		zap.String("task", taskKey),
		zap.Int("max_difficulty", m.MaxDifficultyReached),
		zap.Int("trials", m.TotalTrials))
	return nil
}
