package outbox

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/config"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/repository"
)

// Relay moves committed outbox events to the publisher. Events are published
// in id order; a failed event stops the batch so later events never overtake it.
// An event that has failed MaxAttempts times is abandoned and no longer
// holds back the events behind it.
type Relay struct {
	store       repository.Store
	publisher   Publisher
	logger      *zap.Logger
	batchSize   int
	interval    time.Duration
	maxAttempts int

	published prometheus.Counter
	failed    prometheus.Counter
	abandoned prometheus.Counter
}

// NewRelay creates a relay. Counters are registered with reg when it is not nil.
func NewRelay(store repository.Store, publisher Publisher, logger *zap.Logger, cfg config.Relay, reg prometheus.Registerer) *Relay {
	r := &Relay{
		store:       store,
		publisher:   publisher,
		logger:      logger.Named("relay"),
		batchSize:   cfg.BatchSize,
		interval:    cfg.Interval,
		maxAttempts: cfg.MaxAttempts,
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "volunteer",
			Subsystem: "outbox",
			Name:      "published_total",
			Help:      "Outbox events delivered to the event stream.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "volunteer",
			Subsystem: "outbox",
			Name:      "failed_total",
			Help:      "Outbox delivery attempts that failed.",
		}),
		abandoned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "volunteer",
			Subsystem: "outbox",
			Name:      "abandoned_total",
			Help:      "Outbox events given up on after reaching the attempt limit.",
		}),
	}
	if reg != nil {
		reg.MustRegister(r.published, r.failed, r.abandoned)
	}
	return r
}

// Run relays events every interval until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("Outbox relay started",
		zap.Duration("interval", r.interval),
		zap.Int("batch_size", r.batchSize),
		zap.Int("max_attempts", r.maxAttempts),
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Outbox relay stopped")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Warn("Outbox relay pass failed", zap.Error(err))
			}
		}
	}
}

// RunOnce publishes one batch and returns the number of delivered events.
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	delivered := 0
	err := r.store.Transaction(ctx, func(tx repository.Store) error {
		events, err := tx.Outbox().FetchUnpublished(ctx, r.batchSize, r.maxAttempts)
		if err != nil {
			return err
		}

		ids := make([]uint64, 0, len(events))
		for _, event := range events {
			if err := r.publisher.Publish(ctx, event); err != nil {
				abandon, markErr := r.recordFailure(ctx, tx, event, err)
				if markErr != nil {
					return markErr
				}
				if abandon {
					continue
				}
				break
			}
			ids = append(ids, event.ID)
		}

		if err := tx.Outbox().MarkPublished(ctx, ids, time.Now().UTC()); err != nil {
			return err
		}
		delivered = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if delivered > 0 {
		r.published.Add(float64(delivered))
		r.logger.Debug("Published outbox events", zap.Int("count", delivered))
	}
	return delivered, nil
}

// recordFailure stores a failed attempt and reports whether the event has
// now reached the attempt limit.
func (r *Relay) recordFailure(ctx context.Context, tx repository.Store, event models.OutboxEvent, cause error) (bool, error) {
	r.failed.Inc()
	attempts := event.Attempts + 1
	fields := []zap.Field{
		zap.Uint64("outbox_id", event.ID),
		zap.String("event_id", event.EventID.String()),
		zap.String("type", event.Type),
		zap.Int("attempts", attempts),
		zap.Error(cause),
	}

	if err := tx.Outbox().MarkFailed(ctx, event.ID, cause.Error()); err != nil {
		return false, err
	}

	if attempts >= r.maxAttempts {
		r.abandoned.Inc()
		r.logger.Error("Abandoning event after repeated delivery failures", fields...)
		return true, nil
	}
	r.logger.Warn("Failed to publish event", fields...)
	return false, nil
}
