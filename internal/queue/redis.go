// internal/queue/redis.go
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jason-s-yu/friendgraph/internal/config"
	"github.com/jason-s-yu/friendgraph/internal/models"
)

// DefaultQueueName is the Redis list profile-view records are pushed to.
const DefaultQueueName = "friendgraph_profile_views"

// Connect opens a Redis client for cfg and pings it.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr, err)
	}
	return rdb, nil
}

// ViewPublisher pushes profile-view records onto a Redis list for cmd/viewlog.
type ViewPublisher struct {
	rdb   *redis.Client
	queue string
	now   func() time.Time
}

func NewViewPublisher(rdb *redis.Client, queue string) *ViewPublisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &ViewPublisher{rdb: rdb, queue: queue, now: time.Now}
}

// PublishView records that viewerID opened targetID's profile.
func (p *ViewPublisher) PublishView(ctx context.Context, viewerID, targetID int64) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate view id: %w", err)
	}
	data, err := json.Marshal(models.ProfileView{
		ID:        id,
		ViewerID:  viewerID,
		TargetID:  targetID,
		Timestamp: p.now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal ProfileView: %w", err)
	}

	if err := p.rdb.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

// PopViews blocks up to timeout for the next record, then drains up to max-1 more
// without blocking. It returns no records and no error when the wait times out.
func PopViews(ctx context.Context, rdb *redis.Client, queue string, timeout time.Duration, max int) ([]models.ProfileView, []error, error) {
	res, err := rdb.BLPop(ctx, timeout, queue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("BLPop %s: %w", queue, err)
	}

	// res[0] is the queue name and res[1] the payload.
	payloads := []string{res[1]}
	if max > 1 {
		more, err := rdb.LPopCount(ctx, queue, max-1).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, nil, fmt.Errorf("LPopCount %s: %w", queue, err)
		}
		payloads = append(payloads, more...)
	}

	views := make([]models.ProfileView, 0, len(payloads))
	var bad []error
	for _, payload := range payloads {
		var v models.ProfileView
		if err := json.Unmarshal([]byte(payload), &v); err != nil {
			bad = append(bad, fmt.Errorf("invalid profile view record: %w", err))
			continue
		}
		views = append(views, v)
	}
	return views, bad, nil
}
