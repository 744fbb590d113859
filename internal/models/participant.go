package models

import "time"

// Participant is one person taking the battery. The ID is a UUID so it can
// be handed to the browser without exposing row counts.
type Participant struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Code         string    `gorm:"index;size:64" json:"code"`
	CurrentStage string    `gorm:"size:64" json:"currentStage"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
