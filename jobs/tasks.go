package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/commerce-console/internal/orders"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// QueueMail carries outbound email so slow SMTP servers do not hold up
	// other work.
	QueueMail = "mail"

	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskCartReminder renders and queues one abandoned cart reminder.
	TaskCartReminder = "carts:send_reminder"
	// TaskCartScan sweeps for carts due a reminder.
	TaskCartScan = "carts:scan_abandoned"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "maintenance:idempotency_cleanup"
	// TaskOrderEvent relays one committed order event to the event sink.
	TaskOrderEvent = "orders:publish_event"
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

// CartReminderPayload identifies a booked reminder.
type CartReminderPayload struct {
	CartID  int64 `json:"cart_id"`
	Attempt int   `json:"attempt"`
}

// NewCartReminderTask constructs a reminder task.
func NewCartReminderTask(payload CartReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCartReminder, data, asynq.MaxRetry(5), asynq.Timeout(time.Minute)), nil
}

// CartScanPayload is empty; the reminder policy comes from configuration.
type CartScanPayload struct{}

// NewCartScanTask constructs the periodic abandoned cart sweep.
func NewCartScanTask() (*asynq.Task, error) {
	data, err := json.Marshal(CartScanPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCartScan, data, asynq.MaxRetry(1), asynq.Timeout(5*time.Minute)), nil
}

// IdempotencyCleanupPayload overrides the configured retention when positive.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours,omitempty"`
}

// NewIdempotencyCleanupTask constructs the key pruning task.
func NewIdempotencyCleanupTask(retentionHours int) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: retentionHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data, asynq.MaxRetry(3)), nil
}

// NewOrderEventTask wraps an order event. The payload is the event itself.
func NewOrderEventTask(event orders.Event) (*asynq.Task, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderEvent, data, asynq.MaxRetry(10), asynq.Timeout(30*time.Second)), nil
}
