package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/outbox"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/repository"
)

// RelayCmd creates the relay command, which publishes outbox events to the
// Redis event stream
func RelayCmd(app *App) *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Publish lifecycle events from the outbox to Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := app.OpenDB()
			if err != nil {
				return err
			}

			cfg := app.Cfg
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr(),
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			defer client.Close()

			if err := client.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("failed to connect to Redis: %w", err)
			}

			if metricsAddr != "" {
				go serveMetrics(ctx, app.Logger, metricsAddr)
			}

			relay := outbox.NewRelay(
				repository.NewStore(db),
				outbox.NewRedisStreamPublisher(client, cfg.Relay.Stream),
				app.Logger,
				cfg.Relay,
				prometheus.DefaultRegisterer,
			)
			relay.Run(ctx)
			return nil
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address to expose /metrics on (disabled when empty)")
	return cmd
}

func serveMetrics(ctx context.Context, logger *zap.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Metrics server failed", zap.Error(err))
	}
}
