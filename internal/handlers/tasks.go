package handlers

import (
	"net/http"

	"cogbattery/internal/models"
	"cogbattery/internal/orchestrator"
	"cogbattery/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TaskHandler struct {
	log     *zap.Logger
	manager *services.Manager
}

func NewTaskHandler(log *zap.Logger, manager *services.Manager) *TaskHandler {
	return &TaskHandler{log: log, manager: manager}
}

// run resolves the participant's active run of :task, writing the error
// response itself when there is none.
func (h *TaskHandler) run(c *gin.Context) (*orchestrator.Orchestrator, bool) {
	p, _ := CurrentParticipant(c)
	run, err := h.manager.Run(p.ID, c.Param("task"))
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	return run, true
}

// Start begins a fresh run of :task, replacing any run in progress.
func (h *TaskHandler) Start(c *gin.Context) {
	p, _ := CurrentParticipant(c)
	run, err := h.manager.Start(c.Request.Context(), p.ID, c.Param("task"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, run.Snapshot())
}

// State returns what the UI should render right now.
func (h *TaskHandler) State(c *gin.Context) {
	run, ok := h.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, run.Snapshot())
}

// Ready ends a study phase early.
func (h *TaskHandler) Ready(c *gin.Context) {
	run, ok := h.run(c)
	if !ok {
		return
	}
	if err := run.Ready(c.Request.Context()); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, run.Snapshot())
}

// Respond scores the participant's answer to the current trial.
func (h *TaskHandler) Respond(c *gin.Context) {
	run, ok := h.run(c)
	if !ok {
		return
	}
	var resp models.Response
	if err := c.ShouldBindJSON(&resp); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid response body"})
		return
	}
	outcome, err := run.SubmitResponse(c.Request.Context(), resp)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"correct":  outcome.Result.IsCorrect,
		"decision": outcome.Decision.String(),
		"state":    run.Snapshot(),
	})
}

// Restart begins the current task again from its minimum difficulty.
func (h *TaskHandler) Restart(c *gin.Context) {
	run, ok := h.run(c)
	if !ok {
		return
	}
	if err := run.Restart(c.Request.Context()); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, run.Snapshot())
}

// Leave abandons the run; its timers are cancelled and nothing is saved.
func (h *TaskHandler) Leave(c *gin.Context) {
	p, _ := CurrentParticipant(c)
	if err := h.manager.Leave(p.ID, c.Param("task")); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type assetFailure struct {
	Asset string `json:"asset"`
	Error string `json:"error"`
}

// AssetFailure records an image that the browser could not load. The task
// carries on regardless.
func (h *TaskHandler) AssetFailure(c *gin.Context) {
	p, _ := CurrentParticipant(c)
	var report assetFailure
	if err := c.ShouldBindJSON(&report); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report"})
		return
	}
	h.log.Warn("Stimulus asset failed to load",
		zap.String("participant", p.ID),
		zap.String("task", c.Param("task")),
		zap.String("asset", report.Asset),
		zap.String("reason", report.Error))
	c.Status(http.StatusNoContent)
}
