// Package viewlog drains profile-view records from Redis and persists them to
// Postgres in batches.
package viewlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jason-s-yu/friendgraph/internal/database"
	"github.com/jason-s-yu/friendgraph/internal/models"
	"github.com/jason-s-yu/friendgraph/internal/queue"
)

// Service encapsulates the Redis + DB logic for capturing profile views.
type Service struct {
	rdb        *redis.Client
	pool       database.Pool
	queueName  string
	batchSize  int
	flushDelay time.Duration
	logger     logrus.FieldLogger

	batch []models.ProfileView
}

func New(rdb *redis.Client, pool database.Pool, queueName string, batchSize int, flushDelay time.Duration, logger logrus.FieldLogger) *Service {
	if queueName == "" {
		queueName = queue.DefaultQueueName
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	if flushDelay <= 0 {
		flushDelay = 500 * time.Millisecond
	}
	return &Service{
		rdb:        rdb,
		pool:       pool,
		queueName:  queueName,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		logger:     logger,
		batch:      make([]models.ProfileView, 0, batchSize),
	}
}

// Run pops records until ctx is cancelled, flushing whenever the batch is full or
// flushDelay has passed since the last flush. Whatever is buffered at shutdown is
// flushed with a short grace period; a failure there is returned.
func (s *Service) Run(ctx context.Context) error {
	s.logger.WithField("queue", s.queueName).Info("viewlog service started")
	lastFlush := time.Now()

	for {
		if ctx.Err() != nil {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err := s.flush(flushCtx)
			cancel()
			s.logger.Info("viewlog service shutting down")
			if err != nil {
				return fmt.Errorf("final flush of %d views: %w", len(s.batch), err)
			}
			return nil
		}

		if err := s.Poll(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.WithError(err).Error("poll failed")
			// avoid spinning on a dead connection
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}

		if len(s.batch) >= s.batchSize || time.Since(lastFlush) >= s.flushDelay {
			if err := s.flush(ctx); err != nil {
				select {
				case <-ctx.Done():
				case <-time.After(s.flushDelay):
				}
			}
			lastFlush = time.Now()
		}
	}
}

// Poll waits up to flushDelay for records and appends them to the batch. It does
// nothing while the batch is full.
func (s *Service) Poll(ctx context.Context) error {
	room := s.batchSize - len(s.batch)
	if room <= 0 {
		return nil
	}
	views, bad, err := queue.PopViews(ctx, s.rdb, s.queueName, s.flushDelay, room)
	if err != nil {
		return err
	}
	for _, e := range bad {
		s.logger.WithError(e).Warn("dropping invalid view record")
	}
	s.batch = append(s.batch, views...)
	return nil
}

// flush writes the current batch in a single transaction. A failed batch is
// kept and retried on the next flush.
func (s *Service) flush(ctx context.Context) error {
	if len(s.batch) == 0 {
		return nil
	}
	if err := database.InsertProfileViews(ctx, s.pool, s.batch); err != nil {
		s.logger.WithError(err).WithField("pending", len(s.batch)).Error("flush failed")
		return err
	}
	s.logger.Debugf("Flushed %d profile views to DB.", len(s.batch))
	s.batch = s.batch[:0]
	return nil
}

// Pending reports how many records are buffered.
func (s *Service) Pending() int {
	return len(s.batch)
}
