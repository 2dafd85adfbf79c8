package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/commerce-console/internal/carts"
	jobmetrics "github.com/odyssey-erp/commerce-console/internal/jobs"
)

// CartRecovery is the part of the carts service the worker drives.
type CartRecovery interface {
	DeliverReminder(ctx context.Context, id int64, attempt int) error
	ScanAbandoned(ctx context.Context) (carts.ScanResult, error)
}

// CartReminderJob handles abandoned cart tasks.
type CartReminderJob struct {
	Carts   CartRecovery
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewCartReminderJob initialises the cart handlers.
func NewCartReminderJob(svc CartRecovery, logger *slog.Logger, metrics *jobmetrics.Metrics) *CartReminderJob {
	return &CartReminderJob{Carts: svc, Logger: logger, Metrics: metrics}
}

// HandleReminder renders the reminder email for one booked attempt.
func (j *CartReminderJob) HandleReminder(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Carts == nil {
		return errors.New("cart reminder: handler not configured")
	}
	var payload CartReminderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.CartID <= 0 {
		return fmt.Errorf("cart reminder: invalid payload: %w", asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskCartReminder)
	defer func() {
		err = tracker.End(err)
	}()

	err = j.Carts.DeliverReminder(ctx, payload.CartID, payload.Attempt)
	if errors.Is(err, carts.ErrNotFound) {
		j.logger().Warn("cart reminder for missing cart", slog.Int64("cart_id", payload.CartID))
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}

// HandleScan runs one abandoned cart sweep.
func (j *CartReminderJob) HandleScan(ctx context.Context, _ *asynq.Task) (err error) {
	if j == nil || j.Carts == nil {
		return errors.New("cart scan: handler not configured")
	}
	tracker := j.Metrics.Track(TaskCartScan)
	defer func() {
		err = tracker.End(err)
	}()

	res, err := j.Carts.ScanAbandoned(ctx)
	logger := j.logger().With(
		slog.Int("candidates", res.Candidates),
		slog.Int("queued", res.Queued),
		slog.Int("skipped", res.Skipped),
	)
	if err != nil {
		logger.Error("abandoned cart scan failed", slog.Any("error", err))
		return err
	}
	logger.Info("abandoned cart scan completed")
	return nil
}

func (j *CartReminderJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
