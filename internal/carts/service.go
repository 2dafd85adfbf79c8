package carts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/odyssey-erp/commerce-console/internal/platform/httpx"
	"github.com/odyssey-erp/commerce-console/internal/shared"
)

// Queue hands reminder work to the background worker.
type Queue interface {
	EnqueueCartReminder(ctx context.Context, cartID int64, attempt int) error
	EnqueueEmail(ctx context.Context, to, subject, body string) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Observer receives reminder outcomes. *jobmetrics.Metrics satisfies it.
type Observer interface {
	ObserveReminder(result string)
}

type noopObserver struct{}

func (noopObserver) ObserveReminder(string) {}

// Reminder outcomes reported to the Observer.
const (
	ReminderQueued   = "queued"
	ReminderRejected = "rejected"
	ReminderSent     = "sent"
	ReminderSkipped  = "skipped"
)

// Service coordinates abandoned cart listing and recovery.
type Service struct {
	repo     Repository
	queue    Queue
	audit    AuditPort
	observer Observer
	policy   Policy
	now      func() time.Time
}

// ServiceDeps groups optional collaborators.
type ServiceDeps struct {
	Audit    AuditPort
	Observer Observer
}

// NewService builds Service.
func NewService(repo Repository, queue Queue, policy Policy, deps ServiceDeps) *Service {
	observer := deps.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	if policy.ScanBatchSize <= 0 {
		policy.ScanBatchSize = 500
	}
	return &Service{
		repo:     repo,
		queue:    queue,
		audit:    deps.Audit,
		observer: observer,
		policy:   policy,
		now:      time.Now,
	}
}

// Policy returns the reminder policy in force.
func (s *Service) Policy() Policy {
	return s.policy
}

// Save records cart activity from the storefront.
func (s *Service) Save(ctx context.Context, in SaveInput) (Cart, error) {
	in.CustomerEmail = strings.ToLower(strings.TrimSpace(in.CustomerEmail))
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	if err := httpx.ValidateStruct(in); err != nil {
		return Cart{}, err
	}
	c, err := s.repo.Save(ctx, in)
	if err != nil {
		return Cart{}, fmt.Errorf("save cart: %w", err)
	}
	return c, nil
}

// Get loads one cart.
func (s *Service) Get(ctx context.Context, id int64) (Cart, error) {
	return s.repo.Get(ctx, id)
}

// ListAbandoned lists open carts idle for longer than the threshold together
// with their line value.
func (s *Service) ListAbandoned(ctx context.Context, req ListRequest) (ListResponse, error) {
	threshold := req.IdleFor
	if threshold <= 0 {
		threshold = s.policy.AbandonAfter
	}
	now := s.now()
	carts, total, err := s.repo.ListAbandoned(ctx, now.Add(-threshold), req.Page, req.PerPage)
	if err != nil {
		return ListResponse{}, fmt.Errorf("list abandoned carts: %w", err)
	}
	out := make([]AbandonedCart, 0, len(carts))
	for _, c := range carts {
		out = append(out, AbandonedCart{
			Cart:           c,
			Value:          c.Totals(),
			IdleSeconds:    int64(now.Sub(c.LastActivityAt) / time.Second),
			NextReminderAt: s.policy.NextReminderAt(c),
		})
	}
	return ListResponse{
		Carts:      out,
		Threshold:  threshold.String(),
		Pagination: shared.NewPagination(req.Page, req.PerPage, total),
	}, nil
}

// MarkRecovered flags a cart as recovered. Repeating the call is a no-op.
func (s *Service) MarkRecovered(ctx context.Context, id int64) (Cart, error) {
	changed, err := s.repo.MarkRecovered(ctx, id, s.now().UTC())
	if err != nil {
		return Cart{}, fmt.Errorf("recover cart: %w", err)
	}
	if changed {
		s.recordAudit(ctx, "CART_RECOVERED", id, nil)
	}
	return s.repo.Get(ctx, id)
}

// SendReminder books the next reminder for a cart and queues its delivery.
// The booking is rolled back when the task cannot be queued.
func (s *Service) SendReminder(ctx context.Context, id int64) (Cart, error) {
	now := s.now().UTC()
	var attempt int
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		c, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := s.policy.CheckReminder(c, now); err != nil {
			return err
		}
		if err := tx.RecordReminder(ctx, id, now); err != nil {
			return err
		}
		attempt = c.RemindersSent + 1
		return s.queue.EnqueueCartReminder(ctx, id, attempt)
	})
	if err != nil {
		if httpx.IsClientError(err) {
			s.observer.ObserveReminder(ReminderRejected)
		}
		return Cart{}, fmt.Errorf("send cart reminder: %w", err)
	}
	s.observer.ObserveReminder(ReminderQueued)
	s.recordAudit(ctx, "CART_REMINDER", id, map[string]any{"attempt": attempt})
	return s.repo.Get(ctx, id)
}

// ScanAbandoned queues reminders for every cart the policy allows, up to the
// batch size. Carts that became ineligible in the meantime are skipped.
func (s *Service) ScanAbandoned(ctx context.Context) (ScanResult, error) {
	now := s.now().UTC()
	carts, err := s.repo.ListRemindable(ctx,
		now.Add(-s.policy.AbandonAfter), now.Add(-s.policy.MinSpacing),
		s.policy.MaxReminders, s.policy.ScanBatchSize)
	if err != nil {
		return ScanResult{}, fmt.Errorf("scan abandoned carts: %w", err)
	}
	res := ScanResult{Candidates: len(carts)}
	var errs []error
	for _, c := range carts {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, err := s.SendReminder(ctx, c.ID); err != nil {
			if httpx.IsClientError(err) {
				res.Skipped++
				continue
			}
			errs = append(errs, fmt.Errorf("cart %d: %w", c.ID, err))
			continue
		}
		res.Queued++
	}
	return res, errors.Join(errs...)
}

// DeliverReminder composes the reminder email for a booked attempt and
// queues it for sending. Carts recovered since booking are skipped.
func (s *Service) DeliverReminder(ctx context.Context, id int64, attempt int) error {
	c, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("deliver cart reminder: %w", err)
	}
	if c.Recovered {
		s.observer.ObserveReminder(ReminderSkipped)
		return nil
	}
	subject, body := ReminderEmail(c, attempt)
	if err := s.queue.EnqueueEmail(ctx, c.CustomerEmail, subject, body); err != nil {
		return fmt.Errorf("deliver cart reminder: %w", err)
	}
	s.observer.ObserveReminder(ReminderSent)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	actor := shared.ActorFromContext(ctx)
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Actor:    actor.Name,
		Action:   action,
		Entity:   "cart",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
		At:       s.now().UTC(),
	})
}
