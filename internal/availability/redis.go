// Package availability provides the pool of users who marked themselves
// available for an event. The attendance service writes the pool; this core
// only reads it to annotate allocations.
package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	id "tabrela/pkg/domain"
)

var lookupDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "tabrela_availability_lookup_duration_ms",
	Help:    "Latency of availability lookups in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

// DefaultKeyPrefix prefixes the per-event set of available user ids.
const DefaultKeyPrefix = "tabrela:availability:"

// RedisPool reads one Redis set per event.
type RedisPool struct {
	client *redis.Client
	prefix string
}

type RedisOption func(*RedisPool)

func WithKeyPrefix(prefix string) RedisOption {
	return func(p *RedisPool) {
		if prefix != "" {
			p.prefix = prefix
		}
	}
}

func NewRedisPool(client *redis.Client, opts ...RedisOption) *RedisPool {
	p := &RedisPool{client: client, prefix: DefaultKeyPrefix}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *RedisPool) key(eventID id.EventID) string {
	return p.prefix + eventID.String()
}

func (p *RedisPool) IsAvailable(ctx context.Context, eventID id.EventID, userID id.UserID) (bool, error) {
	start := time.Now()
	defer func() {
		lookupDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()
	ok, err := p.client.SIsMember(ctx, p.key(eventID), userID.String()).Result()
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}
	return ok, nil
}

// Available lists the event's pool. Malformed members are skipped.
func (p *RedisPool) Available(ctx context.Context, eventID id.EventID) ([]id.UserID, error) {
	members, err := p.client.SMembers(ctx, p.key(eventID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	out := make([]id.UserID, 0, len(members))
	for _, m := range members {
		userID, err := id.ParseUserID(m)
		if err != nil {
			continue
		}
		out = append(out, userID)
	}
	sortUsers(out)
	return out, nil
}

// Replace swaps an event's pool atomically.
func (p *RedisPool) Replace(ctx context.Context, eventID id.EventID, users []id.UserID) error {
	key := p.key(eventID)
	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(users) == 0 {
			return nil
		}
		members := make([]any, 0, len(users))
		for _, u := range users {
			members = append(members, u.String())
		}
		pipe.SAdd(ctx, key, members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace availability: %w", err)
	}
	return nil
}
