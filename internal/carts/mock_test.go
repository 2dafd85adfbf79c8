package carts

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/odyssey-erp/commerce-console/internal/orders/pricing"
	"github.com/odyssey-erp/commerce-console/internal/shared"
)

type memoryRepo struct {
	mu     sync.Mutex
	carts  map[int64]Cart
	nextID int64
	now    func() time.Time
}

func newMemoryRepo(now func() time.Time) *memoryRepo {
	return &memoryRepo{carts: map[int64]Cart{}, now: now}
}

func (m *memoryRepo) seed(c Cart) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	m.carts[c.ID] = c
	return c.ID
}

func (m *memoryRepo) Save(_ context.Context, in SaveInput) (Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range m.carts {
		if c.CustomerEmail == in.CustomerEmail && !c.Recovered {
			c.CustomerName = in.CustomerName
			c.Items = in.Items
			c.LastActivityAt = m.now()
			c.RemindersSent = 0
			c.LastRemindedAt = nil
			m.carts[id] = c
			return c, nil
		}
	}
	m.nextID++
	c := Cart{
		ID:             m.nextID,
		CustomerEmail:  in.CustomerEmail,
		CustomerName:   in.CustomerName,
		Items:          in.Items,
		LastActivityAt: m.now(),
		CreatedAt:      m.now(),
	}
	m.carts[c.ID] = c
	return c, nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[id]
	if !ok {
		return Cart{}, ErrNotFound
	}
	return c, nil
}

func (m *memoryRepo) sorted(keep func(Cart) bool) []Cart {
	out := []Cart{}
	for _, c := range m.carts {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastActivityAt.Before(out[j].LastActivityAt) })
	return out
}

func (m *memoryRepo) ListAbandoned(_ context.Context, before time.Time, _, _ int) ([]Cart, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sorted(func(c Cart) bool { return !c.Recovered && !c.LastActivityAt.After(before) })
	return out, len(out), nil
}

func (m *memoryRepo) ListRemindable(_ context.Context, idleBefore, remindedBefore time.Time, maxReminders, limit int) ([]Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.sorted(func(c Cart) bool {
		return !c.Recovered && !c.LastActivityAt.After(idleBefore) && c.RemindersSent < maxReminders &&
			(c.LastRemindedAt == nil || !c.LastRemindedAt.After(remindedBefore))
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memoryRepo) MarkRecovered(_ context.Context, id int64, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[id]
	if !ok {
		return false, ErrNotFound
	}
	if c.Recovered {
		return false, nil
	}
	c.Recovered = true
	c.RecoveredAt = &at
	m.carts[id] = c
	return true, nil
}

// WithTx applies writes only when fn succeeds.
func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memoryTx{repo: m, carts: map[int64]Cart{}}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, c := range tx.carts {
		m.carts[id] = c
	}
	return nil
}

type memoryTx struct {
	repo  *memoryRepo
	carts map[int64]Cart
}

func (t *memoryTx) Get(ctx context.Context, id int64) (Cart, error) {
	if c, ok := t.carts[id]; ok {
		return c, nil
	}
	return t.repo.Get(ctx, id)
}

func (t *memoryTx) RecordReminder(ctx context.Context, id int64, at time.Time) error {
	c, err := t.Get(ctx, id)
	if err != nil {
		return err
	}
	c.RemindersSent++
	c.LastRemindedAt = &at
	t.carts[id] = c
	return nil
}

type queuedEmail struct {
	To      string
	Subject string
	Body    string
}

type memoryQueue struct {
	mu        sync.Mutex
	reminders []int64
	attempts  []int
	emails    []queuedEmail
	fail      error
}

func (q *memoryQueue) EnqueueCartReminder(_ context.Context, cartID int64, attempt int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fail != nil {
		return q.fail
	}
	q.reminders = append(q.reminders, cartID)
	q.attempts = append(q.attempts, attempt)
	return nil
}

func (q *memoryQueue) EnqueueEmail(_ context.Context, to, subject, body string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fail != nil {
		return q.fail
	}
	q.emails = append(q.emails, queuedEmail{To: to, Subject: subject, Body: body})
	return nil
}

type countingObserver struct {
	mu      sync.Mutex
	results map[string]int
}

func (o *countingObserver) ObserveReminder(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.results == nil {
		o.results = map[string]int{}
	}
	o.results[result]++
}

type memoryAudit struct {
	mu      sync.Mutex
	actions []string
}

func (a *memoryAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, log.Action)
	return nil
}

var errQueueDown = errors.New("redis: connection refused")

type fixture struct {
	service  *Service
	repo     *memoryRepo
	queue    *memoryQueue
	observer *countingObserver
	audit    *memoryAudit
	now      time.Time
}

var testPolicy = Policy{AbandonAfter: time.Hour, MaxReminders: 2, MinSpacing: 24 * time.Hour}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		queue:    &memoryQueue{},
		observer: &countingObserver{},
		audit:    &memoryAudit{},
		now:      time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.repo = newMemoryRepo(clock)
	f.service = NewService(f.repo, f.queue, testPolicy, ServiceDeps{Audit: f.audit, Observer: f.observer})
	f.service.now = clock
	return f
}

func (f *fixture) idleCart(email string, idle time.Duration) int64 {
	return f.repo.seed(Cart{
		CustomerEmail:  email,
		CustomerName:   "Asha",
		LastActivityAt: f.now.Add(-idle),
		Items: []pricing.OrderItem{
			{ProductID: 1, Name: "Mug", Quantity: 2, CostPrice: 250},
			{ProductID: 2, Name: "Tee", Quantity: 1, CostPrice: 500, DiscountKind: pricing.DiscountPercentage, DiscountValue: 10},
		},
	})
}
