package router

import (
	"net/http"
	"time"

	"cogbattery/internal/battery"
	"cogbattery/internal/config"
	"cogbattery/internal/export"
	"cogbattery/internal/handlers"
	"cogbattery/internal/repository"
	"cogbattery/internal/services"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"
)

// Dependencies are the services the HTTP layer is built on.
type Dependencies struct {
	Repo     *repository.Repository
	Registry *battery.Registry
	Manager  *services.Manager
	Results  export.Loader
}

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Try again at " + info.ResetTime.Format(time.RFC3339)})
}

func Setup(log *zap.Logger, deps Dependencies) *gin.Engine {
	conf := config.Get()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	store := cookie.NewStore([]byte(conf.Server.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   conf.Server.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400 * 7,
	})
	router.Use(sessions.Sessions("cogbattery", store))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
	})
	router.Use(func(c *gin.Context) {
		if err := secureMiddleware.Process(c.Writer, c.Request); err != nil {
			c.Abort()
			return
		}
		c.Next()
	})

	participantHandler := handlers.NewParticipantHandler(log, deps.Repo, deps.Registry, deps.Manager)
	taskHandler := handlers.NewTaskHandler(log, deps.Manager)
	resultsHandler := handlers.NewResultsHandler(log, deps.Repo, deps.Registry, deps.Results)

	limit := uint(conf.Server.RateLimit)
	if limit == 0 {
		limit = 10
	}
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: limit,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "activeRuns": deps.Manager.Active()})
	})

	api := router.Group("/api")
	api.Use(CSRFProtection(), ParticipantLoader(log, deps.Repo))
	{
		api.GET("/session", participantHandler.Session)
		api.DELETE("/session", participantHandler.Logout)
		api.POST("/participants", limiter, participantHandler.Register)
		api.GET("/stages/next", participantHandler.NextStage)

		authorized := api.Group("")
		authorized.Use(ParticipantRequired())
		{
			authorized.PUT("/session/stage", participantHandler.UpdateStage)

			tasks := authorized.Group("/tasks/:task")
			{
				tasks.GET("", taskHandler.State)
				tasks.POST("/start", taskHandler.Start)
				tasks.POST("/ready", taskHandler.Ready)
				tasks.POST("/response", taskHandler.Respond)
				tasks.POST("/restart", taskHandler.Restart)
				tasks.POST("/assets", taskHandler.AssetFailure)
				tasks.DELETE("", taskHandler.Leave)
			}
		}
	}

	admin := router.Group("/api/admin")
	admin.Use(AdminRequired(log))
	{
		admin.GET("/participants", resultsHandler.ListParticipants)
		admin.GET("/participants/:id/export.csv", resultsHandler.ExportCSV)
		admin.GET("/participants/:id/charts/:task", resultsHandler.Charts)
	}

	return router
}
