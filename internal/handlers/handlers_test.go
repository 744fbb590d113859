package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cogbattery/internal/battery"
	"cogbattery/internal/models"
	"cogbattery/internal/orchestrator"
	"cogbattery/internal/repository"
	"cogbattery/internal/scoring"
	"cogbattery/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondErrorStatuses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: no cells selected", scoring.ErrInvalidResponse), http.StatusUnprocessableEntity},
		{orchestrator.ErrNotAwaitingResponse, http.StatusConflict},
		{orchestrator.ErrNotPresenting, http.StatusConflict},
		{orchestrator.ErrEarlyExitUnavailable, http.StatusConflict},
		{orchestrator.ErrRunComplete, http.StatusConflict},
		{fmt.Errorf("%w: %q", battery.ErrUnknownTask, "nBack"), http.StatusNotFound},
		{services.ErrNoActiveRun, http.StatusNotFound},
		{repository.ErrParticipantNotFound, http.StatusNotFound},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		respondError(c, zap.NewNop(), tt.err)
		if rec.Code != tt.want {
			t.Errorf("respondError(%v) = %d, want %d", tt.err, rec.Code, tt.want)
		}
	}
}

func TestInternalErrorsAreLoggedNotLeaked(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.ErrorLevel)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(c, zap.New(core), errors.New("connection refused"))
	if logs.Len() != 1 {
		t.Fatalf("logged %d entries, want 1", logs.Len())
	}
	if body := rec.Body.String(); body != `{"error":"internal error"}` {
		t.Fatalf("body = %s", body)
	}
}

func TestCurrentParticipant(t *testing.T) {
	t.Parallel()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if _, ok := CurrentParticipant(c); ok {
		t.Fatal("empty context reported a participant")
	}
	c.Set(ParticipantContextKey, &models.Participant{ID: "p1"})
	p, ok := CurrentParticipant(c)
	if !ok || p.ID != "p1" {
		t.Fatalf("CurrentParticipant = %+v, %v", p, ok)
	}
}

func TestAssetFailureIsLoggedAndAcknowledged(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	h := NewTaskHandler(zap.New(core), nil)

	engine := gin.New()
	engine.POST("/tasks/:task/assets", func(c *gin.Context) {
		c.Set(ParticipantContextKey, &models.Participant{ID: "p1"})
		h.AssetFailure(c)
	})
	req := httptest.NewRequest(http.MethodPost, "/tasks/objectSpanForward/assets", strings.NewReader(`{"asset":"apple.png","error":"404"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	entries := logs.FilterField(zap.String("asset", "apple.png")).All()
	if len(entries) != 1 || entries[0].ContextMap()["task"] != "objectSpanForward" {
		t.Fatalf("log entries = %+v", logs.All())
	}
}
