package router

import (
	"crypto/subtle"
	"net/http"

	"cogbattery/internal/config"
	"cogbattery/internal/handlers"
	"cogbattery/internal/repository"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ParticipantLoader checks for a participant ID in the session. If found,
// it loads the participant and adds it to the context. Sessions naming a
// participant that no longer exists are cleared.
func ParticipantLoader(log *zap.Logger, repo *repository.Repository) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		participantID, ok := session.Get(handlers.SessionParticipantKey).(string)
		if !ok || participantID == "" {
			c.Next()
			return
		}

		participant, err := repo.GetParticipant(c.Request.Context(), participantID)
		if err != nil {
			log.Warn("Clearing session for unknown participant", zap.String("participant", participantID), zap.Error(err))
			session.Delete(handlers.SessionParticipantKey)
			if err := session.Save(); err != nil {
				log.Error("Failed to save session", zap.Error(err))
			}
			c.Next()
			return
		}

		c.Set(handlers.ParticipantContextKey, participant)
		c.Next()
	}
}

// ParticipantRequired rejects requests without a loaded participant.
func ParticipantRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := handlers.CurrentParticipant(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no participant session"})
			return
		}
		c.Next()
	}
}

// AdminRequired guards researcher endpoints with HTTP basic auth against
// the configured username and bcrypt hash. With no hash configured the
// endpoints are disabled.
func AdminRequired(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin := config.Get().Admin
		if admin.PasswordHash == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "admin access is not configured"})
			return
		}

		user, pass, ok := c.Request.BasicAuth()
		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(admin.Username)) == 1
		if !ok || !userOK || bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(pass)) != nil {
			log.Warn("Rejected admin credentials", zap.String("client_ip", c.ClientIP()))
			c.Header("WWW-Authenticate", `Basic realm="cogbattery"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
