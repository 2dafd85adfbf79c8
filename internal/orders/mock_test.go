package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/commerce-console/internal/orders/pricing"
	"github.com/odyssey-erp/commerce-console/internal/orders/status"
	"github.com/odyssey-erp/commerce-console/internal/shared"
)

type memoryRepo struct {
	mu      sync.Mutex
	orders  map[int64]Order
	history []StatusChange
	nextID  int64
	casErr  error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{orders: map[int64]Order{}}
}

func (m *memoryRepo) seed(o Order) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	o.ID = m.nextID
	m.orders[o.ID] = o
	return o.ID
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (m *memoryRepo) List(_ context.Context, req ListRequest) ([]Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Order{}
	for _, o := range m.orders {
		if req.OrderStatus != "" && o.Status.Order != req.OrderStatus {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (m *memoryRepo) History(_ context.Context, orderID int64) ([]StatusChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []StatusChange{}
	for _, c := range m.history {
		if c.OrderID == orderID {
			out = append(out, c)
		}
	}
	return out, nil
}

// WithTx applies writes only when fn succeeds.
func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryTx{repo: m, orders: map[int64]Order{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, o := range tx.orders {
		m.orders[id] = o
	}
	m.history = append(m.history, tx.history...)
	return nil
}

type memoryTx struct {
	repo    *memoryRepo
	orders  map[int64]Order
	history []StatusChange
}

func (t *memoryTx) Insert(_ context.Context, o Order) (int64, error) {
	t.repo.mu.Lock()
	t.repo.nextID++
	o.ID = t.repo.nextID
	t.repo.mu.Unlock()
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	t.orders[o.ID] = o
	return o.ID, nil
}

func (t *memoryTx) Get(ctx context.Context, id int64) (Order, error) {
	if o, ok := t.orders[id]; ok {
		return o, nil
	}
	return t.repo.Get(ctx, id)
}

func (t *memoryTx) CompareAndSetStatus(ctx context.Context, id int64, from, to status.Triple, extras StatusExtras) error {
	if t.repo.casErr != nil {
		return t.repo.casErr
	}
	o, err := t.Get(ctx, id)
	if err != nil {
		return err
	}
	if o.Status != from {
		return ErrConflict
	}
	o.Status = to
	if extras.TrackingNumber != "" {
		o.TrackingNumber = extras.TrackingNumber
	}
	if extras.CancellationReason != "" {
		o.CancellationReason = extras.CancellationReason
	}
	t.orders[id] = o
	return nil
}

func (t *memoryTx) InsertHistory(_ context.Context, c StatusChange) (int64, error) {
	c.ID = int64(len(t.repo.history) + len(t.history) + 1)
	c.At = time.Now()
	t.history = append(t.history, c)
	return c.ID, nil
}

type memoryAudit struct {
	mu   sync.Mutex
	logs []shared.AuditLog
}

func (a *memoryAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemoryIdempotency() *memoryIdempotency {
	return &memoryIdempotency{keys: map[string]bool{}}
}

func (m *memoryIdempotency) CheckAndInsert(_ context.Context, key, module string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[module+"|"+key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[module+"|"+key] = true
	return nil
}

func (m *memoryIdempotency) Delete(_ context.Context, key, module string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, module+"|"+key)
	return nil
}

type countingObserver struct {
	mu          sync.Mutex
	accepted    int
	rejected    int
	pricingRuns int
	drafts      []string
	events      map[string]int
}

func (o *countingObserver) ObserveTransition(_, _, _ string, accepted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if accepted {
		o.accepted++
	} else {
		o.rejected++
	}
}

func (o *countingObserver) ObservePricing(string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pricingRuns++
}

func (o *countingObserver) ObserveDraft(action string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.drafts = append(o.drafts, action)
}

func (o *countingObserver) ObserveEvent(eventType string, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.events == nil {
		o.events = map[string]int{}
	}
	if !ok {
		eventType += ":failed"
	}
	o.events[eventType]++
}

type recordingEvents struct {
	mu     sync.Mutex
	err    error
	events []Event
}

func (r *recordingEvents) PublishOrderEvent(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

type fixture struct {
	service     *Service
	repo        *memoryRepo
	audit       *memoryAudit
	idempotency *memoryIdempotency
	observer    *countingObserver
	events      *recordingEvents
	redis       *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &fixture{
		repo:        newMemoryRepo(),
		audit:       &memoryAudit{},
		idempotency: newMemoryIdempotency(),
		observer:    &countingObserver{},
		events:      &recordingEvents{},
		redis:       mr,
	}
	f.service = NewService(f.repo, NewDraftStore(client, time.Hour), ServiceDeps{
		Audit:       f.audit,
		Idempotency: f.idempotency,
		Observer:    f.observer,
		Events:      f.events,
	})
	return f
}

// validInput is an intra-state draft: two items, 10% order discount, 18% GST.
func validInput() DraftInput {
	return DraftInput{
		CustomerEmail:   "buyer@example.com",
		ShippingAddress: Address{StateCode: "ka"},
		BillingAddress:  Address{StateCode: "KA "},
		Items: []pricing.OrderItem{
			{ProductID: 1, Name: "Mug", Quantity: 2, CostPrice: 250, AvailableStock: 10},
			{ProductID: 2, Name: "Tee", Quantity: 1, CostPrice: 500, DiscountKind: "percentage", DiscountValue: 10},
		},
		OrderDiscountKind:  "percentage",
		OrderDiscountValue: 10,
		GSTRate:            18,
		ShippingCharge:     50,
	}
}

func orderWith(t status.Triple) Order {
	return Order{Number: "ORD-TEST", CustomerEmail: "buyer@example.com", Status: t}
}
