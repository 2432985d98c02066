package lifecycle

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/repository"
)

// Engine owns the volunteer lifecycle: application review, assignments,
// time logging and the derived slot and hour counters. Every mutating
// operation runs in a single transaction and emits its events through the
// outbox of that transaction.
type Engine struct {
	store          repository.Store
	logger         *zap.Logger
	metrics        *Metrics
	clock          func() time.Time
	clampUnderflow bool
}

type Option func(*Engine)

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithMetrics sets the collectors operations are counted on.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClampCounterUnderflow makes Unapprove reset hours_completed to zero
// instead of failing with CounterUnderflow.
func WithClampCounterUnderflow(clamp bool) Option {
	return func(e *Engine) {
		e.clampUnderflow = clamp
	}
}

func NewEngine(store repository.Store, logger *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		logger: logger.Named("lifecycle"),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	return e
}

func (e *Engine) now() time.Time {
	return e.clock().UTC()
}

// run executes fn in a transaction and records the outcome.
func (e *Engine) run(ctx context.Context, op string, actor Actor, fn func(tx repository.Store) error) error {
	err := classify(op, "record", e.store.Transaction(ctx, fn))
	e.observe(op, actor, err)
	return err
}

// read records the outcome of a query.
func (e *Engine) read(op string, actor Actor, err error) error {
	err = classify(op, "record", err)
	e.observe(op, actor, err)
	return err
}

func (e *Engine) observe(op string, actor Actor, err error) {
	e.metrics.observe(op, err)
	if err == nil {
		return
	}

	fields := []zap.Field{
		zap.String("operation", op),
		zap.Uint64("actor_id", actor.UserID),
		zap.String("kind", string(KindOf(err))),
		zap.Error(err),
	}
	switch KindOf(err) {
	case KindCounterUnderflow:
		e.logger.Error("Derived counter underflow", fields...)
	case KindStorageUnavailable:
		e.logger.Warn("Storage failure", fields...)
	default:
		e.logger.Info("Operation refused", fields...)
	}
}

func loadOpportunity(ctx context.Context, tx repository.Store, op string, id uint64, lock bool) (*models.Opportunity, error) {
	find := tx.Opportunities().FindByID
	if lock {
		find = tx.Opportunities().FindByIDForUpdate
	}
	opp, err := find(ctx, id)
	if err != nil {
		return nil, classify(op, "opportunity", err)
	}
	return opp, nil
}

func loadApplication(ctx context.Context, tx repository.Store, op string, id uint64, lock bool) (*models.Application, error) {
	find := tx.Applications().FindByID
	if lock {
		find = tx.Applications().FindByIDForUpdate
	}
	app, err := find(ctx, id)
	if err != nil {
		return nil, classify(op, "application", err)
	}
	return app, nil
}

func loadAssignment(ctx context.Context, tx repository.Store, op string, id uint64, lock bool) (*models.Assignment, error) {
	find := tx.Assignments().FindByID
	if lock {
		find = tx.Assignments().FindByIDForUpdate
	}
	asg, err := find(ctx, id)
	if err != nil {
		return nil, classify(op, "assignment", err)
	}
	return asg, nil
}

func loadTimeLog(ctx context.Context, tx repository.Store, op string, id uint64, lock bool) (*models.TimeLog, error) {
	find := tx.TimeLogs().FindByID
	if lock {
		find = tx.TimeLogs().FindByIDForUpdate
	}
	log, err := find(ctx, id)
	if err != nil {
		return nil, classify(op, "time log", err)
	}
	return log, nil
}
