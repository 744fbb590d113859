package repository

import (
	"context"
	"errors"
	"fmt"

	"cogbattery/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrParticipantNotFound is returned for an unknown participant ID.
var ErrParticipantNotFound = errors.New("participant not found")

func (r *Repository) CreateParticipant(ctx context.Context, code string) (*models.Participant, error) {
	participant := &models.Participant{
		ID:   uuid.NewString(),
		Code: code,
	}
	if err := r.db.WithContext(ctx).Create(participant).Error; err != nil {
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}
	return participant, nil
}

func (r *Repository) GetParticipant(ctx context.Context, id string) (*models.Participant, error) {
	var participant models.Participant
	err := r.db.WithContext(ctx).First(&participant, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrParticipantNotFound
	}
	return &participant, err
}

func (r *Repository) ListParticipants(ctx context.Context) ([]models.Participant, error) {
	var participants []models.Participant
	err := r.db.WithContext(ctx).Order("created_at").Find(&participants).Error
	return participants, err
}

// UpdateStage records the stage a participant has reached.
func (r *Repository) UpdateStage(ctx context.Context, id, stage string) error {
	result := r.db.WithContext(ctx).Model(&models.Participant{}).Where("id = ?", id).Update("current_stage", stage)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrParticipantNotFound
	}
	return nil
}
