package handlers

import (
	"errors"
	"net/http"

	"cogbattery/internal/battery"
	"cogbattery/internal/models"
	"cogbattery/internal/orchestrator"
	"cogbattery/internal/repository"
	"cogbattery/internal/scoring"
	"cogbattery/internal/services"
	"cogbattery/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Keys shared with the router middleware.
const (
	SessionParticipantKey = "participantID"
	ParticipantContextKey = "participant"
	CSRFTokenContextKey   = "csrf_token"
)

// CurrentParticipant returns the participant loaded for this request.
func CurrentParticipant(c *gin.Context) (*models.Participant, bool) {
	v, ok := c.Get(ParticipantContextKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*models.Participant)
	return p, ok
}

// respondError maps domain errors to HTTP statuses. Anything unrecognized
// is logged and reported as a 500.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, scoring.ErrInvalidResponse):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, orchestrator.ErrNotAwaitingResponse),
		errors.Is(err, orchestrator.ErrNotPresenting),
		errors.Is(err, orchestrator.ErrEarlyExitUnavailable),
		errors.Is(err, orchestrator.ErrAlreadyStarted),
		errors.Is(err, orchestrator.ErrRunComplete):
		status = http.StatusConflict
	case errors.Is(err, battery.ErrUnknownTask),
		errors.Is(err, services.ErrNoActiveRun),
		errors.Is(err, repository.ErrParticipantNotFound),
		errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
