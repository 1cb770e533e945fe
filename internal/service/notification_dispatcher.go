package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parikshasetu/exam-platform/internal/models"
	"github.com/parikshasetu/exam-platform/pkg/jobs"
	"github.com/parikshasetu/exam-platform/pkg/middleware/requestid"
)

const notificationJobType = "notification.send"

type notificationSender interface {
	Send(ctx context.Context, n models.Notification) error
}

// DispatcherConfig sizes the notification queue.
type DispatcherConfig struct {
	Enabled    bool
	Workers    int
	BufferSize int
	Retries    int
	RetryDelay time.Duration
}

// NotificationDispatcher delivers notifications in the background. Callers
// never see delivery failures; they are retried, then logged and counted.
type NotificationDispatcher struct {
	sender  notificationSender
	queue   *jobs.Queue
	enabled bool
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationDispatcher constructs a dispatcher. Start must be called
// before notifications are queued.
func NewNotificationDispatcher(sender notificationSender, cfg DispatcherConfig, metrics *MetricsService, logger *zap.Logger) *NotificationDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &NotificationDispatcher{sender: sender, enabled: cfg.Enabled && sender != nil, metrics: metrics, logger: logger}
	d.queue = jobs.NewQueue("notifications", d.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return d
}

// Start launches the queue workers.
func (d *NotificationDispatcher) Start(ctx context.Context) {
	if d == nil || !d.enabled {
		return
	}
	d.queue.Start(ctx)
}

// Stop drains workers.
func (d *NotificationDispatcher) Stop() {
	if d == nil || !d.enabled {
		return
	}
	d.queue.Stop()
}

// Dispatch queues a message for userID. It never waits: when the queue is
// full the notification is dropped and counted.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, userID, message string) {
	if d == nil || !d.enabled {
		return
	}
	job := jobs.Job{
		ID:      uuid.NewString(),
		Type:    notificationJobType,
		Payload: models.Notification{UserID: userID, Message: message},
		Meta:    map[string]string{requestid.HeaderKey: requestid.FromContext(ctx)},
	}
	if err := d.queue.TryEnqueue(job); err != nil {
		d.metrics.RecordNotification("dropped")
		d.logger.Warn("notification not queued", zap.String("user_id", userID), zap.Error(err))
	}
}

func (d *NotificationDispatcher) handle(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.Notification)
	if !ok {
		d.logger.Error("unexpected notification payload", zap.String("job_id", job.ID))
		return nil
	}
	if id := job.Meta[requestid.HeaderKey]; id != "" {
		ctx = requestid.WithValue(ctx, id)
	}
	if err := d.sender.Send(ctx, n); err != nil {
		d.metrics.RecordNotification("failed")
		return fmt.Errorf("send notification to %s: %w", n.UserID, err)
	}
	d.metrics.RecordNotification("sent")
	return nil
}
