package discounts

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/commerce-console/internal/orders/pricing"
	"github.com/odyssey-erp/commerce-console/internal/platform/httpx"
	"github.com/odyssey-erp/commerce-console/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages discount codes.
type Service struct {
	repo   Repository
	audit  AuditPort
	now    func() time.Time
	lookup singleflight.Group
}

// NewService builds Service. audit may be nil.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// Create validates and stores a new active discount.
func (s *Service) Create(ctx context.Context, in Input) (Discount, error) {
	d, err := fromInput(in)
	if err != nil {
		return Discount{}, err
	}
	d.Active = true
	id, err := s.repo.Create(ctx, d)
	if err != nil {
		return Discount{}, fmt.Errorf("create discount: %w", err)
	}
	s.recordAudit(ctx, "DISCOUNT_CREATE", id, map[string]any{"code": d.Code, "kind": d.Kind, "value": d.Value})
	return s.repo.Get(ctx, id)
}

// Update replaces the editable fields of a discount. Usage counters and the
// active flag are untouched.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Discount, error) {
	d, err := fromInput(in)
	if err != nil {
		return Discount{}, err
	}
	d.ID = id
	if err := s.repo.Update(ctx, d); err != nil {
		return Discount{}, fmt.Errorf("update discount: %w", err)
	}
	s.recordAudit(ctx, "DISCOUNT_UPDATE", id, map[string]any{"code": d.Code})
	return s.repo.Get(ctx, id)
}

// Get loads one discount.
func (s *Service) Get(ctx context.Context, id int64) (Discount, error) {
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of discounts.
func (s *Service) List(ctx context.Context, req ListRequest) (ListResponse, error) {
	items, total, err := s.repo.List(ctx, req)
	if err != nil {
		return ListResponse{}, fmt.Errorf("list discounts: %w", err)
	}
	return ListResponse{Discounts: items, Pagination: shared.NewPagination(req.Page, req.PerPage, total)}, nil
}

// Deactivate switches a discount off. Deactivating twice is not an error.
func (s *Service) Deactivate(ctx context.Context, id int64) (Discount, error) {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return Discount{}, fmt.Errorf("deactivate discount: %w", err)
	}
	s.recordAudit(ctx, "DISCOUNT_DEACTIVATE", id, nil)
	return s.repo.Get(ctx, id)
}

// Preview reports what code takes off amount at now without consuming it.
func (s *Service) Preview(ctx context.Context, code string, amount float64, now time.Time) (PreviewResult, error) {
	d, err := s.byCode(ctx, code)
	if err != nil {
		return PreviewResult{}, err
	}
	if err := Applicable(d, amount, now); err != nil {
		return PreviewResult{}, err
	}
	return preview(d, amount), nil
}

// Redeem consumes one use of code for an order of amount.
func (s *Service) Redeem(ctx context.Context, code string, amount float64) (PreviewResult, error) {
	d, err := s.byCode(ctx, code)
	if err != nil {
		return PreviewResult{}, err
	}
	if err := Applicable(d, amount, s.now()); err != nil {
		return PreviewResult{}, err
	}
	updated, err := s.repo.IncrementUsage(ctx, d.ID)
	if err != nil {
		return PreviewResult{}, fmt.Errorf("redeem %s: %w", d.Code, err)
	}
	res := preview(updated, amount)
	s.recordAudit(ctx, "DISCOUNT_REDEEM", d.ID, map[string]any{"code": d.Code, "amount": amount, "discount": res.DiscountAmount})
	return res, nil
}

// byCode coalesces concurrent lookups of the same code into one query.
func (s *Service) byCode(ctx context.Context, code string) (Discount, error) {
	code = NormalizeCode(code)
	if code == "" {
		return Discount{}, httpx.FieldErrors{"code": "is required"}
	}
	v, err, _ := s.lookup.Do(code, func() (any, error) {
		return s.repo.GetByCode(ctx, code)
	})
	if err != nil {
		return Discount{}, err
	}
	return v.(Discount), nil
}

// Applicable checks the active flag, validity window, minimum amount and
// usage limit of d for an order of amount at now.
func Applicable(d Discount, amount float64, now time.Time) error {
	switch {
	case !d.Active:
		return ErrInactive
	case d.StartsAt != nil && now.Before(*d.StartsAt):
		return ErrNotStarted
	case d.EndsAt != nil && !now.Before(*d.EndsAt):
		return ErrDiscountExpired
	case amount < d.MinOrderAmount:
		return fmt.Errorf("%w (minimum %.2f)", ErrBelowMinimum, d.MinOrderAmount)
	case !d.Unlimited() && d.UsedCount >= d.UsageLimit:
		return ErrUsageLimitReached
	}
	return nil
}

func preview(d Discount, amount float64) PreviewResult {
	off := pricing.ComputeOrderDiscount(amount, d.Kind, d.Value)
	return PreviewResult{
		Code:           d.Code,
		Kind:           d.Kind,
		Value:          d.Value,
		Amount:         amount,
		DiscountAmount: off,
		AmountAfter:    pricing.Round2(amount - off),
		Remaining:      d.Remaining(),
	}
}

func fromInput(in Input) (Discount, error) {
	in.Code = NormalizeCode(in.Code)
	if kind, err := pricing.ParseDiscountKind(string(in.Kind)); err == nil && kind != pricing.DiscountNone {
		in.Kind = kind
	}
	errs := httpx.StructErrors(in)
	if in.Kind == pricing.DiscountPercentage && in.Value > 100 {
		errs["value"] = "percentage discount cannot exceed 100"
	}
	if in.StartsAt != nil && in.EndsAt != nil && !in.EndsAt.After(*in.StartsAt) {
		errs["ends_at"] = "must be after starts_at"
	}
	if len(errs) > 0 {
		return Discount{}, errs
	}
	return Discount{
		Code:           in.Code,
		Description:    in.Description,
		Kind:           in.Kind,
		Value:          in.Value,
		MinOrderAmount: in.MinOrderAmount,
		UsageLimit:     in.UsageLimit,
		StartsAt:       in.StartsAt,
		EndsAt:         in.EndsAt,
	}, nil
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
		Entity:   "discount",
		EntityID: fmt.Sprintf("%d", id),
		Meta:     meta,
		At:       s.now().UTC(),
	})
}
