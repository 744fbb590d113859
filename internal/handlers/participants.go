package handlers

import (
	"net/http"

	"cogbattery/internal/battery"
	"cogbattery/internal/repository"
	"cogbattery/internal/services"
	"cogbattery/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ParticipantHandler struct {
	log      *zap.Logger
	repo     *repository.Repository
	registry *battery.Registry
	manager  *services.Manager
}

func NewParticipantHandler(log *zap.Logger, repo *repository.Repository, registry *battery.Registry, manager *services.Manager) *ParticipantHandler {
	return &ParticipantHandler{log: log, repo: repo, registry: registry, manager: manager}
}

type registerRequest struct {
	Code string `json:"code"`
}

// Register creates a participant and binds it to the session.
func (h *ParticipantHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !utils.IsValidParticipantCode(req.Code) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Participant code must be 1-64 letters, digits, dashes or underscores"})
		return
	}

	participant, err := h.repo.CreateParticipant(c.Request.Context(), req.Code)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	session := sessions.Default(c)
	session.Set(SessionParticipantKey, participant.ID)
	if err := session.Save(); err != nil {
		h.log.Error("Failed to save session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save session"})
		return
	}

	h.log.Info("Participant registered", zap.String("participant", participant.ID))
	first, _ := h.registry.Next("")
	c.JSON(http.StatusCreated, gin.H{"participant": participant, "next": first})
}

// Session describes the current session: the participant, if any, and
// the CSRF token the client must echo on unsafe requests.
func (h *ParticipantHandler) Session(c *gin.Context) {
	token, _ := c.Get(CSRFTokenContextKey)
	resp := gin.H{"csrfToken": token}
	if p, ok := CurrentParticipant(c); ok {
		resp["participant"] = p
		if stage, found := h.registry.Stage(p.CurrentStage); found {
			resp["stage"] = stage
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Logout abandons the participant's task run, if any, and clears the
// session.
func (h *ParticipantHandler) Logout(c *gin.Context) {
	if p, ok := CurrentParticipant(c); ok && h.manager.LeaveAll(p.ID) {
		h.log.Info("Abandoned task run on logout", zap.String("participant", p.ID))
	}
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}
	c.Status(http.StatusNoContent)
}

// NextStage answers navigation: the stage after ?current=, or the first
// stage when current is empty. At the final stage it reports done.
func (h *ParticipantHandler) NextStage(c *gin.Context) {
	next, ok := h.registry.Next(c.Query("current"))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"done": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"done": false, "stage": next})
}

type stageRequest struct {
	Stage string `json:"stage" binding:"required"`
}

// UpdateStage records the stage the participant has reached.
func (h *ParticipantHandler) UpdateStage(c *gin.Context) {
	p, _ := CurrentParticipant(c)
	var req stageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if _, ok := h.registry.Stage(req.Stage); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown stage"})
		return
	}
	if err := h.repo.UpdateStage(c.Request.Context(), p.ID, req.Stage); err != nil {
		respondError(c, h.log, err)
		return
	}
	p.CurrentStage = req.Stage
	c.JSON(http.StatusOK, gin.H{"participant": p})
}
