package discounts

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/odyssey-erp/commerce-console/internal/shared"
)

type memoryRepo struct {
	mu        sync.Mutex
	discounts map[int64]Discount
	nextID    int64
	codeLoads atomic.Int32
	loadGate  chan struct{}
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{discounts: map[int64]Discount{}}
}

func (m *memoryRepo) Create(_ context.Context, d Discount) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.discounts {
		if existing.Code == d.Code {
			return 0, ErrDuplicateCode
		}
	}
	m.nextID++
	d.ID = m.nextID
	d.CreatedAt = time.Now()
	d.UpdatedAt = d.CreatedAt
	m.discounts[d.ID] = d
	return d.ID, nil
}

func (m *memoryRepo) Update(_ context.Context, d Discount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.discounts[d.ID]
	if !ok {
		return ErrNotFound
	}
	d.UsedCount = current.UsedCount
	d.Active = current.Active
	d.CreatedAt = current.CreatedAt
	m.discounts[d.ID] = d
	return nil
}

func (m *memoryRepo) Get(_ context.Context, id int64) (Discount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.discounts[id]
	if !ok {
		return Discount{}, ErrNotFound
	}
	return d, nil
}

func (m *memoryRepo) GetByCode(_ context.Context, code string) (Discount, error) {
	m.codeLoads.Add(1)
	if m.loadGate != nil {
		<-m.loadGate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.discounts {
		if d.Code == code {
			return d, nil
		}
	}
	return Discount{}, ErrNotFound
}

func (m *memoryRepo) List(_ context.Context, req ListRequest) ([]Discount, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Discount{}
	for _, d := range m.discounts {
		if req.Active != nil && d.Active != *req.Active {
			continue
		}
		if req.Search != "" && !strings.Contains(d.Code, strings.ToUpper(req.Search)) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *memoryRepo) SetActive(_ context.Context, id int64, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.discounts[id]
	if !ok {
		return ErrNotFound
	}
	d.Active = active
	m.discounts[id] = d
	return nil
}

func (m *memoryRepo) IncrementUsage(_ context.Context, id int64) (Discount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.discounts[id]
	if !ok {
		return Discount{}, ErrNotFound
	}
	if !d.Unlimited() && d.UsedCount >= d.UsageLimit {
		return Discount{}, ErrUsageLimitReached
	}
	d.UsedCount++
	m.discounts[id] = d
	return d, nil
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

func newTestService() (*Service, *memoryRepo, *memoryAudit) {
	repo := newMemoryRepo()
	audit := &memoryAudit{}
	return NewService(repo, audit), repo, audit
}
