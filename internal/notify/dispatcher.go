package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/timewise-hq/timewise/internal/shared"
)

// Sender delivers a single message over some transport (SMTP in production).
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// ErrDispatchLocked indicates another dispatcher run holds the lock.
var ErrDispatchLocked = errors.New("notify: dispatch already running")

const dispatchLockTTL = 2 * time.Minute

// Stats summarises one dispatcher run.
type Stats struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Failed    int `json:"failed"`
	Remaining int `json:"remaining"`
}

// Dispatcher drains the queue in bounded batches. A redis lock keeps the cron
// run and the manual admin trigger from processing the same rows twice.
type Dispatcher struct {
	logger     *slog.Logger
	repo       Repository
	sender     Sender
	locker     *redis.Client
	batchSize  int
	depthGauge func(int)
}

// NewDispatcher constructs a Dispatcher. locker and depthGauge may be nil
// (tests, single-process deployments).
func NewDispatcher(logger *slog.Logger, repo Repository, sender Sender, locker *redis.Client, batchSize int, depthGauge func(int)) *Dispatcher {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Dispatcher{
		logger:     logger,
		repo:       repo,
		sender:     sender,
		locker:     locker,
		batchSize:  batchSize,
		depthGauge: depthGauge,
	}
}

// Run processes at most one batch of pending messages. Delivery is
// at-least-once: a crash between send and MarkSent leaves the row pending and
// a later run re-sends it.
func (d *Dispatcher) Run(ctx context.Context) (Stats, error) {
	unlock, err := d.acquireLock(ctx)
	if err != nil {
		return Stats{}, err
	}
	defer unlock()

	msgs, err := d.repo.ListPending(ctx, d.batchSize)
	if err != nil {
		return Stats{}, fmt.Errorf("list pending notifications: %w", err)
	}

	stats := Stats{Processed: len(msgs)}
	for _, m := range msgs {
		if err := d.sender.Send(ctx, m); err != nil {
			stats.Failed++
			d.logger.Warn("notification delivery failed",
				slog.Int64("id", m.ID),
				slog.String("recipient", m.Recipient),
				slog.Any("error", err))
			if markErr := d.repo.MarkFailed(ctx, m.ID, err.Error()); markErr != nil {
				d.logger.Error("mark notification failed", slog.Int64("id", m.ID), slog.Any("error", markErr))
			}
			continue
		}
		stats.Sent++
		if err := d.repo.MarkSent(ctx, m.ID); err != nil {
			// The message went out but the row is still pending; the next run
			// re-delivers. Acceptable under at-least-once.
			d.logger.Error("mark notification sent", slog.Int64("id", m.ID), slog.Any("error", err))
		}
	}

	if remaining, err := d.repo.PendingCount(ctx); err == nil {
		stats.Remaining = remaining
		if d.depthGauge != nil {
			d.depthGauge(remaining)
		}
	}
	return stats, nil
}

func (d *Dispatcher) acquireLock(ctx context.Context) (func(), error) {
	if d.locker == nil {
		return func() {}, nil
	}
	ok, err := d.locker.SetNX(ctx, shared.NotificationDispatchLockKey, "1", dispatchLockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire dispatch lock: %w", err)
	}
	if !ok {
		return nil, ErrDispatchLocked
	}
	return func() {
		if err := d.locker.Del(context.WithoutCancel(ctx), shared.NotificationDispatchLockKey).Err(); err != nil {
			d.logger.Warn("release dispatch lock", slog.Any("error", err))
		}
	}, nil
}
