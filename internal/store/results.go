package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cogbattery/internal/models"

	"go.uber.org/zap"
)

const resultsPrefix = "results/"

// ResultKey is the key holding a participant's results for one task.
func ResultKey(participantID, taskKey string) string {
	return resultsPrefix + participantID + "/" + taskKey
}

// ResultStore keeps one JSON result list per participant and task. A write
// that fails on the primary store is retried once against the fallback.
type ResultStore struct {
	primary  KV
	fallback KV
	log      *zap.Logger
}

// NewResultStore returns a store writing to primary. fallback may be nil,
// in which case a failed write is retried once on primary.
func NewResultStore(primary, fallback KV, log *zap.Logger) *ResultStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &ResultStore{primary: primary, fallback: fallback, log: log}
}

// Save replaces the stored result list of a participant's task. The write
// is detached from ctx cancellation: a finished run is persisted even when
// the request that finished it has gone away.
func (s *ResultStore) Save(ctx context.Context, participantID, taskKey string, results []models.TrialResult) error {
	ctx = context.WithoutCancel(ctx)
	if results == nil {
		results = []models.TrialResult{}
	}
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	key := ResultKey(participantID, taskKey)

	err = s.primary.Set(ctx, key, data)
	if err == nil {
		// An older fallback copy would shadow this write on Load.
		if s.fallback != nil {
			if derr := s.fallback.Delete(ctx, key); derr != nil && !errors.Is(derr, ErrNotFound) {
				s.log.Warn("Failed to drop stale fallback results", zap.String("key", key), zap.Error(derr))
			}
		}
		return nil
	}
	s.log.Warn("Primary result write failed, using fallback", zap.String("key", key), zap.Error(err))

	backup := s.fallback
	if backup == nil {
		backup = s.primary
	}
	if ferr := backup.Set(ctx, key, data); ferr != nil {
		s.log.Error("Fallback result write failed", zap.String("key", key), zap.Error(ferr))
		return fmt.Errorf("failed to save results for %s: %w", key, errors.Join(err, ferr))
	}
	return nil
}

// Load returns the stored result list of a participant's task. The
// fallback only ever holds writes newer than the primary's copy, so it is
// consulted first.
func (s *ResultStore) Load(ctx context.Context, participantID, taskKey string) ([]models.TrialResult, error) {
	key := ResultKey(participantID, taskKey)
	var (
		data []byte
		err  = ErrNotFound
	)
	if s.fallback != nil {
		data, err = s.fallback.Get(ctx, key)
	}
	if err != nil {
		data, err = s.primary.Get(ctx, key)
	}
	if err != nil {
		return nil, err
	}
	var results []models.TrialResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to decode results for %s: %w", key, err)
	}
	return results, nil
}

// Delete removes a participant's task results from both stores.
func (s *ResultStore) Delete(ctx context.Context, participantID, taskKey string) error {
	key := ResultKey(participantID, taskKey)
	err := s.primary.Delete(ctx, key)
	if s.fallback != nil {
		if ferr := s.fallback.Delete(ctx, key); ferr != nil {
			err = errors.Join(err, ferr)
		}
	}
	return err
}

// Tasks lists the task keys holding results for a participant, when the
// primary store can enumerate keys.
func (s *ResultStore) Tasks(ctx context.Context, participantID string) ([]string, error) {
	lister, ok := s.primary.(Lister)
	if !ok {
		return nil, errors.New("store cannot list keys")
	}
	prefix := ResultKey(participantID, "")
	keys, err := lister.Keys(ctx, prefix)
	if err != nil {
		return nil, err
	}
	tasks := make([]string, 0, len(keys))
	for _, k := range keys {
		tasks = append(tasks, strings.TrimPrefix(k, prefix))
	}
	return tasks, nil
}

// Participant binds the store to one participant, giving the shape a task
// run hands its results to.
func (s *ResultStore) Participant(participantID string) ParticipantResults {
	return ParticipantResults{store: s, participantID: participantID}
}

// ParticipantResults saves result lists for a single participant.
type ParticipantResults struct {
	store         *ResultStore
	participantID string
}

func (p ParticipantResults) Save(ctx context.Context, taskKey string, results []models.TrialResult) error {
	return p.store.Save(ctx, p.participantID, taskKey, results)
}
