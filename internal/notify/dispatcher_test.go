package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/timewise-hq/timewise/internal/shared"
)

type memoryQueue struct {
	msgs map[int64]*Message
	next int64
}

func newMemoryQueue() *memoryQueue {
	return &memoryQueue{msgs: make(map[int64]*Message), next: 1}
}

func (q *memoryQueue) add(recipient, subject string) int64 {
	id := q.next
	q.next++
	q.msgs[id] = &Message{ID: id, Recipient: recipient, Subject: subject, Status: StatusPending, CreatedAt: time.Now()}
	return id
}

func (q *memoryQueue) ListPending(ctx context.Context, limit int) ([]Message, error) {
	var out []Message
	for id := int64(1); id < q.next && len(out) < limit; id++ {
		if m, ok := q.msgs[id]; ok && m.Status == StatusPending {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (q *memoryQueue) MarkSent(ctx context.Context, id int64) error {
	m, ok := q.msgs[id]
	if !ok {
		return errors.New("no such message")
	}
	now := time.Now()
	m.Status = StatusSent
	m.Attempts++
	m.SentAt = &now
	return nil
}

func (q *memoryQueue) MarkFailed(ctx context.Context, id int64, cause string) error {
	m, ok := q.msgs[id]
	if !ok {
		return errors.New("no such message")
	}
	m.Attempts++
	m.LastError = cause
	if m.Attempts >= MaxAttempts {
		m.Status = StatusFailed
	}
	return nil
}

func (q *memoryQueue) PendingCount(ctx context.Context) (int, error) {
	n := 0
	for _, m := range q.msgs {
		if m.Status == StatusPending {
			n++
		}
	}
	return n, nil
}

type fakeSender struct {
	sent    []Message
	failFor map[string]error
}

func (s *fakeSender) Send(ctx context.Context, m Message) error {
	if err, ok := s.failFor[m.Recipient]; ok {
		return err
	}
	s.sent = append(s.sent, m)
	return nil
}

func TestDispatcherSendsBatch(t *testing.T) {
	queue := newMemoryQueue()
	for i := 0; i < 3; i++ {
		queue.add(fmt.Sprintf("user%d@example.com", i), "PTO Request Approved")
	}
	sender := &fakeSender{}
	d := NewDispatcher(slog.Default(), queue, sender, nil, 10, nil)

	stats, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, stats.Processed)
	require.Equal(t, 3, stats.Sent)
	require.Zero(t, stats.Failed)
	require.Zero(t, stats.Remaining)
	require.Len(t, sender.sent, 3)
	for _, m := range queue.msgs {
		require.Equal(t, StatusSent, m.Status)
		require.NotNil(t, m.SentAt)
	}
}

func TestDispatcherBatchCap(t *testing.T) {
	queue := newMemoryQueue()
	for i := 0; i < 14; i++ {
		queue.add(fmt.Sprintf("user%d@example.com", i), "Reminder")
	}
	d := NewDispatcher(slog.Default(), queue, &fakeSender{}, nil, 10, nil)

	stats, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 10, stats.Processed)
	require.Equal(t, 4, stats.Remaining)

	stats, err = d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, stats.Processed)
	require.Zero(t, stats.Remaining)
}

func TestDispatcherFailureLeavesPending(t *testing.T) {
	queue := newMemoryQueue()
	id := queue.add("bounce@example.com", "PTO Request Denied")
	sender := &fakeSender{failFor: map[string]error{"bounce@example.com": errors.New("smtp 550")}}
	d := NewDispatcher(slog.Default(), queue, sender, nil, 10, nil)

	stats, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.Failed)

	m := queue.msgs[id]
	require.Equal(t, StatusPending, m.Status)
	require.Equal(t, 1, m.Attempts)
	require.Equal(t, "smtp 550", m.LastError)
}

func TestDispatcherParksAfterMaxAttempts(t *testing.T) {
	queue := newMemoryQueue()
	id := queue.add("bounce@example.com", "Reminder")
	sender := &fakeSender{failFor: map[string]error{"bounce@example.com": errors.New("smtp 550")}}
	d := NewDispatcher(slog.Default(), queue, sender, nil, 10, nil)

	for i := 0; i < MaxAttempts; i++ {
		_, err := d.Run(context.Background())
		require.NoError(t, err)
	}
	require.Equal(t, StatusFailed, queue.msgs[id].Status)

	stats, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Zero(t, stats.Processed)
}

func TestDispatcherLockExcludesConcurrentRun(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	queue := newMemoryQueue()
	queue.add("user@example.com", "Reminder")
	d := NewDispatcher(slog.Default(), queue, &fakeSender{}, client, 10, nil)

	require.NoError(t, client.SetNX(context.Background(), shared.NotificationDispatchLockKey, "1", time.Minute).Err())
	_, err := d.Run(context.Background())
	require.ErrorIs(t, err, ErrDispatchLocked)

	require.NoError(t, client.Del(context.Background(), shared.NotificationDispatchLockKey).Err())
	stats, err := d.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.Sent)

	// Lock released after the run.
	require.False(t, mr.Exists(shared.NotificationDispatchLockKey))
}

func TestEnqueueValidation(t *testing.T) {
	err := Enqueue(context.Background(), nil, Message{Recipient: "a@example.com", Subject: "x"})
	require.Error(t, err)
}
