package outbox

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yukikurage/volunteer-lifecycle-api/internal/models"
)

// Publisher delivers one outbox event to the event stream.
type Publisher interface {
	Publish(ctx context.Context, event models.OutboxEvent) error
}

// RedisStreamPublisher appends events to a Redis stream with XADD.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
}

func NewRedisStreamPublisher(client *redis.Client, stream string) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream}
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, event models.OutboxEvent) error {
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: streamValues(event),
	}).Err()
}

// streamValues flattens an event into the fields of a stream entry.
func streamValues(event models.OutboxEvent) map[string]interface{} {
	return map[string]interface{}{
		"event_id":    event.EventID.String(),
		"type":        event.Type,
		"entity_type": event.EntityType,
		"entity_id":   strconv.FormatUint(event.EntityID, 10),
		"actor_id":    strconv.FormatUint(event.ActorID, 10),
		"occurred_at": event.OccurredAt.UTC().Format(time.RFC3339Nano),
		"payload":     string(event.Payload),
	}
}
