package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/config"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
	"github.com/yukikurage/volunteer-lifecycle-api/internal/repository"
)

type fakePublisher struct {
	published []models.OutboxEvent
	failOn    map[uint64]error
}

func (p *fakePublisher) Publish(_ context.Context, event models.OutboxEvent) error {
	if err := p.failOn[event.ID]; err != nil {
		return err
	}
	p.published = append(p.published, event)
	return nil
}

type RelayTestSuite struct {
	suite.Suite
	db        *gorm.DB
	store     repository.Store
	publisher *fakePublisher
	relay     *Relay
	ctx       context.Context
}

func (s *RelayTestSuite) SetupTest() {
	var err error
	s.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	s.Require().NoError(err)

	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.Require().NoError(s.db.AutoMigrate(&models.OutboxEvent{}))

	s.ctx = context.Background()
	s.store = repository.NewStore(s.db)
	s.publisher = &fakePublisher{failOn: map[uint64]error{}}
	s.relay = NewRelay(s.store, s.publisher, zaptest.NewLogger(s.T()), config.Relay{
		Interval:    time.Second,
		BatchSize:   10,
		MaxAttempts: 3,
	}, prometheus.NewRegistry())
}

func (s *RelayTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.Close()
}

func (s *RelayTestSuite) addEvents(n int) []models.OutboxEvent {
	events := make([]models.OutboxEvent, n)
	for i := range events {
		events[i] = models.OutboxEvent{
			EventID:    uuid.New(),
			Type:       "ApplicationAccepted",
			EntityType: "application",
			EntityID:   uint64(i + 1),
			ActorID:    100,
			Payload:    datatypes.JSON(`{"type":"ApplicationAccepted"}`),
			OccurredAt: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
		}
		s.Require().NoError(s.store.Outbox().Add(s.ctx, &events[i]))
	}
	return events
}

func (s *RelayTestSuite) unpublished() []models.OutboxEvent {
	var events []models.OutboxEvent
	s.Require().NoError(s.db.Where("published_at IS NULL").Order("id ASC").Find(&events).Error)
	return events
}

func (s *RelayTestSuite) TestRunOncePublishesInOrder() {
	events := s.addEvents(3)

	n, err := s.relay.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, n)
	s.Require().Len(s.publisher.published, 3)
	for i, event := range s.publisher.published {
		s.Equal(events[i].EventID, event.EventID)
	}
	s.Empty(s.unpublished())
	s.Equal(float64(3), testutil.ToFloat64(s.relay.published))

	n, err = s.relay.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *RelayTestSuite) TestFailureStopsBatch() {
	events := s.addEvents(3)
	s.publisher.failOn[events[1].ID] = errors.New("stream unavailable")

	n, err := s.relay.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)

	remaining := s.unpublished()
	s.Require().Len(remaining, 2)
	s.Equal(events[1].ID, remaining[0].ID)
	s.Equal(1, remaining[0].Attempts)
	s.Equal("stream unavailable", remaining[0].LastError)
	s.Equal(float64(1), testutil.ToFloat64(s.relay.failed))

	delete(s.publisher.failOn, events[1].ID)
	n, err = s.relay.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)
	s.Empty(s.unpublished())
}

func (s *RelayTestSuite) TestPoisonEventIsAbandonedAfterMaxAttempts() {
	events := s.addEvents(3)
	s.publisher.failOn[events[0].ID] = errors.New("payload rejected")

	for i := 0; i < 2; i++ {
		n, err := s.relay.RunOnce(s.ctx)
		s.Require().NoError(err)
		s.Zero(n)
	}
	s.Len(s.unpublished(), 3)
	s.Zero(testutil.ToFloat64(s.relay.abandoned))

	n, err := s.relay.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)
	s.Equal(float64(1), testutil.ToFloat64(s.relay.abandoned))
	s.Equal(float64(3), testutil.ToFloat64(s.relay.failed))

	remaining := s.unpublished()
	s.Require().Len(remaining, 1)
	s.Equal(events[0].ID, remaining[0].ID)
	s.Equal(3, remaining[0].Attempts)

	n, err = s.relay.RunOnce(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)
	s.Equal(float64(3), testutil.ToFloat64(s.relay.failed))
}

func (s *RelayTestSuite) TestRunStopsOnCancel() {
	s.addEvents(1)
	relay := NewRelay(s.store, s.publisher, zaptest.NewLogger(s.T()), config.Relay{
		Interval:    10 * time.Millisecond,
		BatchSize:   10,
		MaxAttempts: 3,
	}, nil)

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	s.Eventually(func() bool {
		var count int64
		s.db.Model(&models.OutboxEvent{}).Where("published_at IS NULL").Count(&count)
		return count == 0
	}, time.Second, 10*time.Millisecond)

	cancel()
	s.Eventually(func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}

func TestRelayTestSuite(t *testing.T) {
	suite.Run(t, new(RelayTestSuite))
}

func TestStreamValues(t *testing.T) {
	id := uuid.MustParse("3f1c2d4e-5a6b-4c7d-8e9f-0a1b2c3d4e5f")
	values := streamValues(models.OutboxEvent{
		EventID:    id,
		Type:       "TimeLogApproved",
		EntityType: "time_log",
		EntityID:   42,
		ActorID:    7,
		Payload:    datatypes.JSON(`{"hours":"5.00"}`),
		OccurredAt: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
	})

	assert.Equal(t, id.String(), values["event_id"])
	assert.Equal(t, "TimeLogApproved", values["type"])
	assert.Equal(t, "42", values["entity_id"])
	assert.Equal(t, "7", values["actor_id"])
	assert.Equal(t, "2026-10-15T12:00:00Z", values["occurred_at"])
	assert.Equal(t, `{"hours":"5.00"}`, values["payload"])
}
