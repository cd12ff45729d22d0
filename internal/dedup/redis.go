package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mydailysportsreport/whatsapp-bot/pkg/logging"
)

const redisKeyPrefix = "inbound_event:"

// Redis backs the dedup window with a shared Redis instance so retried
// deliveries are suppressed across process restarts. Admission fails open:
// when Redis is unreachable the event is processed rather than dropped.
type Redis struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
	logger *logging.Logger
}

func NewRedis(client *redis.Client, ttl time.Duration, logger *logging.Logger) *Redis {
	if client == nil {
		panic("dedup: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Redis{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("sportsreport.internal.dedup"),
		logger: logger,
	}
}

// Admit records the event ID with SETNX+TTL. A duplicate inside the window is
// rejected and its expiry refreshed, mirroring the memory cache semantics.
func (r *Redis) Admit(ctx context.Context, eventID string) bool {
	if eventID == "" {
		return true
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := r.tracer.Start(ctx, "dedup.admit")
	defer span.End()

	key := redisKeyPrefix + eventID
	set, err := r.redis.SetNX(ctx, key, 1, r.ttl).Result()
	if err != nil {
		span.RecordError(err)
		r.logger.Warn("dedup check failed, admitting event", "error", err, "event_id", eventID)
		return true
	}
	if !set {
		if err := r.redis.Expire(ctx, key, r.ttl).Err(); err != nil {
			span.RecordError(err)
		}
		return false
	}
	return true
}
