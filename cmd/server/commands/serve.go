package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/sessions"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/constants"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/handlers"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/lifecycle"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/middleware"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/repository"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/services"
)

const shutdownTimeout = 15 * time.Second

// ServeCmd creates the serve command
func ServeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, app)
		},
	}
}

func serve(ctx context.Context, app *App) error {
	cfg, logger := app.Cfg, app.Logger

	gin.SetMode(cfg.GinMode)

	db, err := app.OpenDB()
	if err != nil {
		return err
	}

	store, err := redisStore.NewStoreWithDB(
		10,
		"tcp",
		cfg.RedisAddr(),
		"",
		cfg.RedisPassword,
		cfg.RedisDBName(),
		[]byte(cfg.SessionSecret),
	)
	if err != nil {
		return fmt.Errorf("failed to create Redis session store: %w", err)
	}
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})

	orgRepo := repository.NewOrganizationRepository(db)
	orgService := services.NewOrganizationService(orgRepo)
	actorService := services.NewActorService(repository.NewUserRepository(db), orgRepo)
	engine := lifecycle.NewEngine(repository.NewStore(db), logger,
		lifecycle.WithMetrics(lifecycle.NewMetrics(prometheus.DefaultRegisterer)),
		lifecycle.WithClampCounterUnderflow(cfg.ClampCounterUnderflow),
	)

	r := gin.New()
	r.Use(middleware.RequestLogger(logger), middleware.Recovery(logger))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Volunteer Lifecycle API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api", middleware.RequireAuth(), middleware.ResolveActor(actorService, logger))
	handlers.RegisterRoutes(api, orgService, handlers.Handlers{
		Users:         handlers.NewUserHandler(actorService, logger),
		Organizations: handlers.NewOrganizationHandler(orgService, logger),
		Opportunities: handlers.NewOpportunityHandler(engine, logger),
		Applications:  handlers.NewApplicationHandler(engine, logger),
		Assignments:   handlers.NewAssignmentHandler(engine, logger),
		TimeLogs:      handlers.NewTimeLogHandler(engine, logger),
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           corsHandler.Handler(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
