package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/timewise-hq/timewise/internal/notify"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskTypeNotifyDispatch drains one batch of the notification queue.
	TaskTypeNotifyDispatch = "notify:dispatch"
	// TaskTypeIdemCleanup prunes expired idempotency keys.
	TaskTypeIdemCleanup = "maintenance:idempotency_cleanup"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// NewNotifyDispatchTask constructs the queue-drain task.
func NewNotifyDispatchTask() *asynq.Task {
	return asynq.NewTask(TaskTypeNotifyDispatch, nil)
}

// NewIdemCleanupTask constructs the idempotency maintenance task.
func NewIdemCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeIdemCleanup, nil)
}

// Mailer delivers one email over the configured transport.
type Mailer interface {
	SendMail(ctx context.Context, to, subject, body string) error
}

// NewSendEmailHandler processes TaskTypeSendEmail tasks through the mailer.
func NewSendEmailHandler(mailer Mailer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if err := mailer.SendMail(ctx, payload.To, payload.Subject, payload.Body); err != nil {
			logger.Warn("send email",
				slog.String("to", payload.To),
				slog.String("subject", payload.Subject),
				slog.Any("error", err))
			return err
		}
		return nil
	}
}

// NewNotifyDispatchHandler runs one dispatcher batch. A run skipped because
// another holds the lock is not a failure; asynq must not retry it.
func NewNotifyDispatchHandler(dispatcher *notify.Dispatcher, logger *slog.Logger, record func(job string, err error)) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		stats, err := dispatcher.Run(ctx)
		if record != nil {
			record(TaskTypeNotifyDispatch, err)
		}
		if err != nil {
			if errors.Is(err, notify.ErrDispatchLocked) {
				logger.Info("notification dispatch skipped, lock held")
				return nil
			}
			return err
		}
		logger.Info("notification dispatch complete",
			slog.Int("processed", stats.Processed),
			slog.Int("sent", stats.Sent),
			slog.Int("failed", stats.Failed),
			slog.Int("remaining", stats.Remaining))
		return nil
	}
}

// NewIdemCleanupHandler prunes idempotency keys older than the retention.
func NewIdemCleanupHandler(cleanup func(ctx context.Context) error, logger *slog.Logger, record func(job string, err error)) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		err := cleanup(ctx)
		if record != nil {
			record(TaskTypeIdemCleanup, err)
		}
		if err != nil {
			logger.Warn("idempotency cleanup", slog.Any("error", err))
		}
		return err
	}
}
