package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cogbattery/internal/battery"
	"cogbattery/internal/config"
	"cogbattery/internal/database"
	"cogbattery/internal/repository"
	"cogbattery/internal/router"
	"cogbattery/internal/services"
	"cogbattery/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		conf := config.Get()
		if conf.Server.SessionSecret == "" {
			return errors.New("server.session_secret must be set")
		}

		db, registry, err := openBackend(conf)
		if err != nil {
			return err
		}
		repo := repository.New(db)
		// Results that cannot reach the database are kept in memory so a
		// completed run is not lost to a transient outage.
		results := store.NewResultStore(store.NewGormKV(db), store.NewMemory(), log)
		manager := services.NewManager(registry, services.NewResultSink(results, repo, registry, log), log, services.ManagerOptions{})
		defer manager.Shutdown()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		services.NewScheduler(log, manager, conf.Server.ReapInterval, conf.Server.IdleTimeout).Start(ctx)

		gin.SetMode(gin.ReleaseMode)
		r := router.Setup(log, router.Dependencies{
			Repo:     repo,
			Registry: registry,
			Manager:  manager,
			Results:  results,
		})

		srv := &http.Server{Addr: ":" + conf.Server.Port, Handler: r}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("Server shutdown failed", zap.Error(err))
			}
		}()

		log.Info("Server listening on http://localhost:" + conf.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("running server: %w", err)
		}
		log.Info("Server stopped", zap.Int("abandoned_runs", manager.Active()))
		return nil
	},
}

func openBackend(conf *config.Config) (*gorm.DB, *battery.Registry, error) {
	db, err := database.Open(conf.Database, log)
	if err != nil {
		return nil, nil, err
	}
	b, err := battery.Load(conf.Battery.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading battery: %w", err)
	}
	log.Info("Battery loaded", zap.Int("stages", len(b.Stages)), zap.Int("tasks", len(b.Tasks)))
	return db, battery.NewRegistry(b), nil
}
