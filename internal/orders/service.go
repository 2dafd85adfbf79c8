package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/commerce-console/internal/orders/pricing"
	"github.com/odyssey-erp/commerce-console/internal/orders/status"
	"github.com/odyssey-erp/commerce-console/internal/platform/httpx"
	"github.com/odyssey-erp/commerce-console/internal/shared"
)

const (
	idempotencyStatus = "orders.status"
	idempotencySubmit = "orders.submit"
)

// DraftPort abstracts draft storage.
type DraftPort interface {
	Save(ctx context.Context, draft Draft) error
	Get(ctx context.Context, id uuid.UUID) (Draft, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// IdempotencyPort deduplicates retried writes.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// Observer receives domain metrics. *observability.Metrics satisfies it.
type Observer interface {
	ObserveTransition(dimension, from, to string, accepted bool)
	ObservePricing(taxType string)
	ObserveDraft(action string)
	ObserveEvent(eventType string, ok bool)
}

type noopObserver struct{}

func (noopObserver) ObserveTransition(string, string, string, bool) {}
func (noopObserver) ObservePricing(string)                          {}
func (noopObserver) ObserveDraft(string)                            {}
func (noopObserver) ObserveEvent(string, bool)                      {}

// Service coordinates drafts, submission and status management.
type Service struct {
	repo        Repository
	drafts      DraftPort
	audit       AuditPort
	idempotency IdempotencyPort
	observer    Observer
	events      EventPublisher
	now         func() time.Time
}

// ServiceDeps groups optional collaborators.
type ServiceDeps struct {
	Audit       AuditPort
	Idempotency IdempotencyPort
	Observer    Observer
	Events      EventPublisher
}

// NewService builds Service.
func NewService(repo Repository, drafts DraftPort, deps ServiceDeps) *Service {
	observer := deps.Observer
	if observer == nil {
		observer = noopObserver{}
	}
	return &Service{
		repo:        repo,
		drafts:      drafts,
		audit:       deps.Audit,
		idempotency: deps.Idempotency,
		observer:    observer,
		events:      deps.Events,
		now:         time.Now,
	}
}

// PreviewPricing prices an input without storing anything. Sanity problems
// are reported next to the arithmetic result.
func (s *Service) PreviewPricing(in DraftInput) PricingPreview {
	normalizeInput(&in)
	priced := in.Price()
	s.observer.ObservePricing(string(priced.Tax.Type))

	items := make([]pricing.ItemTotal, 0, len(in.Items))
	for _, item := range in.Items {
		t := pricing.ComputeItemTotal(item)
		items = append(items, pricing.ItemTotal{
			Subtotal: pricing.Round2(t.Subtotal),
			Discount: pricing.Round2(t.Discount),
			Total:    pricing.Round2(t.Total),
		})
	}
	preview := PricingPreview{TaxType: priced.Tax.Type, Items: items, Pricing: priced}
	if errs := validateAmounts(in, priced); len(errs) > 0 {
		preview.Errors = errs
	}
	return preview
}

// CreateDraft stores a new draft with freshly computed pricing.
func (s *Service) CreateDraft(ctx context.Context, in DraftInput) (DraftResponse, error) {
	now := s.now().UTC()
	draft := Draft{ID: uuid.New(), CreatedAt: now}
	return s.saveDraft(ctx, draft, in, now)
}

// GetDraft loads a draft and its current validation state.
func (s *Service) GetDraft(ctx context.Context, id uuid.UUID) (DraftResponse, error) {
	draft, err := s.drafts.Get(ctx, id)
	if err != nil {
		return DraftResponse{}, err
	}
	return DraftResponse{Draft: draft, Errors: ValidateDraft(draft.DraftInput, draft.Pricing)}, nil
}

// UpdateDraft replaces the editable part of a draft and reprices it.
func (s *Service) UpdateDraft(ctx context.Context, id uuid.UUID, in DraftInput) (DraftResponse, error) {
	draft, err := s.drafts.Get(ctx, id)
	if err != nil {
		return DraftResponse{}, err
	}
	return s.saveDraft(ctx, draft, in, s.now().UTC())
}

func (s *Service) saveDraft(ctx context.Context, draft Draft, in DraftInput, now time.Time) (DraftResponse, error) {
	normalizeInput(&in)
	draft.DraftInput = in
	draft.Pricing = in.Price()
	draft.UpdatedAt = now
	if err := s.drafts.Save(ctx, draft); err != nil {
		return DraftResponse{}, err
	}
	s.observer.ObserveDraft("save")
	s.observer.ObservePricing(string(draft.Pricing.Tax.Type))
	return DraftResponse{Draft: draft, Errors: ValidateDraft(draft.DraftInput, draft.Pricing)}, nil
}

// DeleteDraft discards a draft.
func (s *Service) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	if err := s.drafts.Delete(ctx, id); err != nil {
		return err
	}
	s.observer.ObserveDraft("delete")
	return nil
}

// SubmitDraft validates a draft and persists it as a pending order.
func (s *Service) SubmitDraft(ctx context.Context, id uuid.UUID) (Order, error) {
	draft, err := s.drafts.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	normalizeInput(&draft.DraftInput)
	draft.Pricing = draft.Price()
	if errs := ValidateDraft(draft.DraftInput, draft.Pricing); errs != nil {
		return Order{}, errs
	}

	key := "draft:" + id.String()
	if err := s.claim(ctx, key, idempotencySubmit); err != nil {
		return Order{}, err
	}

	actor := shared.ActorFromContext(ctx)
	order := Order{
		Number:          orderNumber(id),
		CustomerID:      draft.CustomerID,
		CustomerEmail:   draft.CustomerEmail,
		ShippingAddress: draft.ShippingAddress,
		BillingAddress:  draft.BillingAddress,
		International:   draft.International,
		Items:           draft.Items,
		Pricing:         draft.Pricing,
		Status:          status.Initial(),
		Notes:           draft.Notes,
		CreatedBy:       actor.Name,
	}

	var orderID int64
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		newID, err := tx.Insert(ctx, order)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		orderID = newID
		_, err = tx.InsertHistory(ctx, StatusChange{
			OrderID:   orderID,
			Dimension: DimensionOrder,
			From:      string(status.OrderDraft),
			To:        string(order.Status.Order),
			Comment:   "submitted from draft",
			Actor:     actor.Name,
		})
		if err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
		return nil
	})
	if err != nil {
		s.release(ctx, key, idempotencySubmit)
		return Order{}, err
	}

	if err := s.drafts.Delete(ctx, id); err != nil && !errors.Is(err, ErrDraftNotFound) {
		return Order{}, fmt.Errorf("discard submitted draft: %w", err)
	}
	s.observer.ObserveDraft("submit")
	s.recordAudit(ctx, "ORDER_SUBMIT", orderID, map[string]any{
		"number":      order.Number,
		"draft_id":    id.String(),
		"grand_total": order.Pricing.GrandTotal,
	})

	created, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	s.publish(ctx, EventOrderSubmitted, created, nil)
	return created, nil
}

// Get loads one order.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	return s.repo.Get(ctx, id)
}

// List returns a page of orders.
func (s *Service) List(ctx context.Context, req ListRequest) (ListResponse, error) {
	req.Page, req.PerPage = shared.NormalizePage(req.Page, req.PerPage)
	orders, total, err := s.repo.List(ctx, req)
	if err != nil {
		return ListResponse{}, fmt.Errorf("list orders: %w", err)
	}
	return ListResponse{Orders: orders, Pagination: shared.NewPagination(req.Page, req.PerPage, total)}, nil
}

// History lists the status changes of an order.
func (s *Service) History(ctx context.Context, id int64) ([]StatusChange, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, id)
}

// Summary loads the order detail view. Order and history load concurrently.
func (s *Service) Summary(ctx context.Context, id int64) (Summary, error) {
	var (
		order   Order
		history []StatusChange
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		o, err := s.repo.Get(ctx, id)
		if err != nil {
			return err
		}
		order = o
		return nil
	})
	g.Go(func() error {
		h, err := s.repo.History(ctx, id)
		if err != nil {
			return err
		}
		history = h
		return nil
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return BuildSummary(order, history), nil
}

// UpdateStatus applies the requested status changes atomically. A non-empty
// idempotency key makes retries of the same request fail with
// ErrDuplicateRequest instead of applying twice.
func (s *Service) UpdateStatus(ctx context.Context, id int64, req StatusUpdateRequest, idempotencyKey string) (StatusUpdateResponse, error) {
	if req.IsEmpty() {
		return StatusUpdateResponse{}, ErrEmptyUpdate
	}
	if err := httpx.ValidateStruct(req); err != nil {
		return StatusUpdateResponse{}, err
	}

	key := ""
	if idempotencyKey != "" {
		key = fmt.Sprintf("order:%d:%s", id, idempotencyKey)
		if err := s.claim(ctx, key, idempotencyStatus); err != nil {
			return StatusUpdateResponse{}, err
		}
	}

	actor := shared.ActorFromContext(ctx)
	var plan transitionPlan
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		plan, err = planStatusUpdate(current, req)
		if err != nil {
			s.observeRejected(current.Status, req)
			return err
		}
		if err := tx.CompareAndSetStatus(ctx, id, current.Status, plan.Next, plan.Extras); err != nil {
			return err
		}
		for i := range plan.Changes {
			plan.Changes[i].OrderID = id
			plan.Changes[i].Actor = actor.Name
			changeID, err := tx.InsertHistory(ctx, plan.Changes[i])
			if err != nil {
				return fmt.Errorf("insert history: %w", err)
			}
			plan.Changes[i].ID = changeID
		}
		return nil
	})
	if err != nil {
		if key != "" {
			s.release(ctx, key, idempotencyStatus)
		}
		return StatusUpdateResponse{}, err
	}

	meta := map[string]any{}
	for _, c := range plan.Changes {
		s.observer.ObserveTransition(string(c.Dimension), c.From, c.To, true)
		meta[string(c.Dimension)] = c.From + "->" + c.To
	}
	s.recordAudit(ctx, "ORDER_STATUS_UPDATE", id, meta)

	order, err := s.repo.Get(ctx, id)
	if err != nil {
		return StatusUpdateResponse{}, err
	}
	if len(plan.Changes) > 0 {
		s.publish(ctx, EventOrderStatusChanged, order, plan.Changes)
	}
	return StatusUpdateResponse{
		Order:    order,
		Changes:  plan.Changes,
		Warnings: status.Warnings(order.Status.Order, order.Status.Payment, order.Status.Fulfillment),
	}, nil
}

func (s *Service) observeRejected(current status.Triple, req StatusUpdateRequest) {
	if req.OrderStatus != nil {
		s.observer.ObserveTransition(string(DimensionOrder), string(current.Order), string(*req.OrderStatus), false)
	}
	if req.PaymentStatus != nil {
		s.observer.ObserveTransition(string(DimensionPayment), string(current.Payment), string(*req.PaymentStatus), false)
	}
	if req.FulfillmentStatus != nil {
		s.observer.ObserveTransition(string(DimensionFulfillment), string(current.Fulfillment), string(*req.FulfillmentStatus), false)
	}
}

func (s *Service) claim(ctx context.Context, key, module string) error {
	if s.idempotency == nil {
		return nil
	}
	if err := s.idempotency.CheckAndInsert(ctx, key, module); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return ErrDuplicateRequest
		}
		return err
	}
	return nil
}

func (s *Service) release(ctx context.Context, key, module string) {
	if s.idempotency == nil {
		return
	}
	_ = s.idempotency.Delete(ctx, key, module)
}

func (s *Service) recordAudit(ctx context.Context, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	actor := shared.ActorFromContext(ctx)
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Actor:    actor.Name,
		Action:   action,
		Entity:   "order",
		EntityID: fmt.Sprintf("%d", orderID),
		Meta:     meta,
		At:       s.now().UTC(),
	})
}

// transitionPlan is the validated outcome of a status update request.
type transitionPlan struct {
	Next    status.Triple
	Extras  StatusExtras
	Changes []StatusChange
}

// planStatusUpdate checks every requested dimension against the transition
// rules and folds in the fulfillment state derived from an order move.
// Requesting the current value of a dimension is a no-op.
func planStatusUpdate(current Order, req StatusUpdateRequest) (transitionPlan, error) {
	plan := transitionPlan{Next: current.Status}
	fields := httpx.FieldErrors{}

	if req.OrderStatus != nil && !req.OrderStatus.IsValid() {
		fields["order_status"] = "unknown order status"
	}
	if req.PaymentStatus != nil && !req.PaymentStatus.IsValid() {
		fields["payment_status"] = "unknown payment status"
	}
	if req.FulfillmentStatus != nil && !req.FulfillmentStatus.IsValid() {
		fields["fulfillment_status"] = "unknown fulfillment status"
	}
	if len(fields) > 0 {
		return transitionPlan{}, fields
	}

	if target := req.OrderStatus; target != nil && *target != current.Status.Order {
		if !status.CanTransitionOrder(current.Status.Order, *target) {
			return transitionPlan{}, &TransitionError{Dimension: DimensionOrder, From: string(current.Status.Order), To: string(*target)}
		}
		switch status.RequiresConfirmation(*target) {
		case status.RequireTrackingNumber:
			tracking := strings.TrimSpace(req.TrackingNumber)
			if tracking == "" {
				tracking = current.TrackingNumber
			}
			if tracking == "" {
				return transitionPlan{}, ErrMissingTrackingNumber
			}
			plan.Extras.TrackingNumber = tracking
		case status.RequireCancellationReason:
			reason := strings.TrimSpace(req.CancellationReason)
			if reason == "" {
				reason = strings.TrimSpace(req.Comment)
			}
			if reason == "" {
				return transitionPlan{}, ErrMissingCancellationReason
			}
			plan.Extras.CancellationReason = reason
		}
		derived := status.Derive(current.Status, *target)
		plan.Next.Order = derived.Order
		plan.Changes = append(plan.Changes, StatusChange{
			Dimension: DimensionOrder,
			From:      string(current.Status.Order),
			To:        string(*target),
			Comment:   strings.TrimSpace(req.Comment),
		})
		if req.FulfillmentStatus == nil && derived.Fulfillment != current.Status.Fulfillment &&
			status.CanTransitionFulfillment(current.Status.Fulfillment, derived.Fulfillment) {
			plan.Next.Fulfillment = derived.Fulfillment
			plan.Changes = append(plan.Changes, StatusChange{
				Dimension: DimensionFulfillment,
				From:      string(current.Status.Fulfillment),
				To:        string(derived.Fulfillment),
				Comment:   "derived from order status " + string(*target),
			})
		}
	}

	if target := req.PaymentStatus; target != nil && *target != current.Status.Payment {
		if !status.CanTransitionPayment(current.Status.Payment, *target) {
			return transitionPlan{}, &TransitionError{Dimension: DimensionPayment, From: string(current.Status.Payment), To: string(*target)}
		}
		plan.Next.Payment = *target
		plan.Changes = append(plan.Changes, StatusChange{
			Dimension: DimensionPayment,
			From:      string(current.Status.Payment),
			To:        string(*target),
			Comment:   strings.TrimSpace(req.Comment),
		})
	}

	if target := req.FulfillmentStatus; target != nil && *target != current.Status.Fulfillment {
		if !status.CanTransitionFulfillment(current.Status.Fulfillment, *target) {
			return transitionPlan{}, &TransitionError{Dimension: DimensionFulfillment, From: string(current.Status.Fulfillment), To: string(*target)}
		}
		plan.Next.Fulfillment = *target
		plan.Changes = append(plan.Changes, StatusChange{
			Dimension: DimensionFulfillment,
			From:      string(current.Status.Fulfillment),
			To:        string(*target),
			Comment:   strings.TrimSpace(req.Comment),
		})
	}

	if len(plan.Changes) == 0 {
		return transitionPlan{}, ErrEmptyUpdate
	}
	return plan, nil
}

// normalizeInput canonicalises kinds and state codes in place. Unknown kinds
// are left as-is so validation can report them.
func normalizeInput(in *DraftInput) {
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	in.ShippingAddress.StateCode = strings.ToUpper(strings.TrimSpace(in.ShippingAddress.StateCode))
	in.BillingAddress.StateCode = strings.ToUpper(strings.TrimSpace(in.BillingAddress.StateCode))
	in.GiftCardCode = strings.TrimSpace(in.GiftCardCode)
	if kind, err := pricing.ParseDiscountKind(string(in.OrderDiscountKind)); err == nil {
		in.OrderDiscountKind = kind
	}
	for i := range in.Items {
		if kind, err := pricing.ParseDiscountKind(string(in.Items[i].DiscountKind)); err == nil {
			in.Items[i].DiscountKind = kind
		}
	}
}

func orderNumber(draftID uuid.UUID) string {
	compact := strings.ReplaceAll(draftID.String(), "-", "")
	return "ORD-" + strings.ToUpper(compact[:10])
}
