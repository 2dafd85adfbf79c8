package discounts

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/commerce-console/internal/orders/pricing"
	"github.com/odyssey-erp/commerce-console/internal/platform/httpx"
)

func percentInput(code string, value float64) Input {
	return Input{Code: code, Kind: pricing.DiscountPercentage, Value: value}
}

func TestService_Create(t *testing.T) {
	svc, _, audit := newTestService()

	d, err := svc.Create(context.Background(), Input{Code: " save10 ", Kind: "Percentage", Value: 10, MinOrderAmount: 500})
	require.NoError(t, err)
	assert.Equal(t, "SAVE10", d.Code)
	assert.Equal(t, pricing.DiscountPercentage, d.Kind)
	assert.True(t, d.Active)
	assert.Equal(t, []string{"DISCOUNT_CREATE"}, audit.actions)

	_, err = svc.Create(context.Background(), percentInput("SAVE10", 5))
	assert.ErrorIs(t, err, ErrDuplicateCode)
	assert.ErrorIs(t, err, httpx.ErrDuplicate)
}

func TestService_CreateValidation(t *testing.T) {
	svc, _, _ := newTestService()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(-time.Hour)

	tests := []struct {
		name  string
		in    Input
		field string
	}{
		{"missing code", Input{Kind: pricing.DiscountFixed, Value: 10}, "code"},
		{"code with spaces", Input{Code: "SAVE 10", Kind: pricing.DiscountFixed, Value: 10}, "code"},
		{"unknown kind", Input{Code: "SAVE10", Kind: "bogo", Value: 10}, "discount_type"},
		{"none kind", Input{Code: "SAVE10", Kind: pricing.DiscountNone, Value: 10}, "discount_type"},
		{"zero value", Input{Code: "SAVE10", Kind: pricing.DiscountFixed}, "value"},
		{"percentage over 100", percentInput("SAVE10", 120), "value"},
		{"negative limit", Input{Code: "SAVE10", Kind: pricing.DiscountFixed, Value: 10, UsageLimit: -1}, "usage_limit"},
		{"window inverted", Input{Code: "SAVE10", Kind: pricing.DiscountFixed, Value: 10, StartsAt: &start, EndsAt: &end}, "ends_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.in)
			var fields httpx.FieldErrors
			require.ErrorAs(t, err, &fields)
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestService_UpdateKeepsCounters(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	d, err := svc.Create(ctx, percentInput("SAVE10", 10))
	require.NoError(t, err)
	_, err = repo.IncrementUsage(ctx, d.ID)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, d.ID, Input{Code: "SAVE15", Kind: pricing.DiscountPercentage, Value: 15, UsageLimit: 5})
	require.NoError(t, err)
	assert.Equal(t, "SAVE15", updated.Code)
	assert.Equal(t, 1, updated.UsedCount)
	assert.Equal(t, 4, updated.Remaining())

	_, err = svc.Update(ctx, 999, percentInput("NOPE1", 5))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Preview(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	_, err := svc.Create(ctx, Input{Code: "TENOFF", Kind: pricing.DiscountPercentage, Value: 10, MinOrderAmount: 500})
	require.NoError(t, err)
	_, err = svc.Create(ctx, Input{Code: "FLAT100", Kind: pricing.DiscountFixed, Value: 100})
	require.NoError(t, err)

	res, err := svc.Preview(ctx, "tenoff", 950, now)
	require.NoError(t, err)
	assert.Equal(t, 95.0, res.DiscountAmount)
	assert.Equal(t, 855.0, res.AmountAfter)
	assert.Equal(t, -1, res.Remaining)

	res, err = svc.Preview(ctx, "FLAT100", 40, now)
	require.NoError(t, err)
	assert.Equal(t, 100.0, res.DiscountAmount, "fixed order discounts are flat and unclamped")
	assert.Equal(t, -60.0, res.AmountAfter)

	_, err = svc.Preview(ctx, "TENOFF", 499.99, now)
	assert.ErrorIs(t, err, ErrBelowMinimum)

	_, err = svc.Preview(ctx, "MISSING", 100, now)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Preview(ctx, "  ", 100, now)
	var fields httpx.FieldErrors
	assert.ErrorAs(t, err, &fields)
}

func TestApplicable(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	later := now.Add(time.Hour)
	earlier := now.Add(-time.Hour)
	base := Discount{Code: "X", Kind: pricing.DiscountFixed, Value: 10, Active: true}

	tests := []struct {
		name   string
		mutate func(*Discount)
		amount float64
		want   error
	}{
		{"ok", func(*Discount) {}, 10, nil},
		{"inactive", func(d *Discount) { d.Active = false }, 10, ErrInactive},
		{"not started", func(d *Discount) { d.StartsAt = &later }, 10, ErrNotStarted},
		{"starts now", func(d *Discount) { d.StartsAt = &now }, 10, nil},
		{"expired", func(d *Discount) { d.EndsAt = &earlier }, 10, ErrDiscountExpired},
		{"ends now", func(d *Discount) { d.EndsAt = &now }, 10, ErrDiscountExpired},
		{"below minimum", func(d *Discount) { d.MinOrderAmount = 20 }, 10, ErrBelowMinimum},
		{"limit reached", func(d *Discount) { d.UsageLimit = 2; d.UsedCount = 2 }, 10, ErrUsageLimitReached},
		{"limit open", func(d *Discount) { d.UsageLimit = 2; d.UsedCount = 1 }, 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := base
			tt.mutate(&d)
			err := Applicable(d, tt.amount, now)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestService_RedeemRespectsLimit(t *testing.T) {
	svc, _, audit := newTestService()
	ctx := context.Background()
	_, err := svc.Create(ctx, Input{Code: "ONCE", Kind: pricing.DiscountFixed, Value: 50, UsageLimit: 1})
	require.NoError(t, err)

	res, err := svc.Redeem(ctx, "once", 200)
	require.NoError(t, err)
	assert.Equal(t, 50.0, res.DiscountAmount)
	assert.Equal(t, 0, res.Remaining)

	_, err = svc.Redeem(ctx, "ONCE", 200)
	assert.ErrorIs(t, err, ErrUsageLimitReached)
	assert.ErrorIs(t, err, httpx.ErrConflict)
	assert.Equal(t, []string{"DISCOUNT_CREATE", "DISCOUNT_REDEEM"}, audit.actions)
}

func TestService_Deactivate(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	d, err := svc.Create(ctx, percentInput("SUMMER", 5))
	require.NoError(t, err)

	d, err = svc.Deactivate(ctx, d.ID)
	require.NoError(t, err)
	assert.False(t, d.Active)

	_, err = svc.Redeem(ctx, "SUMMER", 100)
	assert.ErrorIs(t, err, ErrInactive)

	_, err = svc.Deactivate(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_LookupsAreCoalesced(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	_, err := svc.Create(ctx, percentInput("SHARED", 5))
	require.NoError(t, err)

	repo.loadGate = make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Preview(ctx, "SHARED", 100, time.Now())
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return repo.codeLoads.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(repo.loadGate)
	wg.Wait()

	assert.Less(t, repo.codeLoads.Load(), int32(8))
}

func TestService_List(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	a, err := svc.Create(ctx, percentInput("ALPHA", 5))
	require.NoError(t, err)
	_, err = svc.Create(ctx, percentInput("BETA", 5))
	require.NoError(t, err)
	_, err = svc.Deactivate(ctx, a.ID)
	require.NoError(t, err)

	active := true
	resp, err := svc.List(ctx, ListRequest{Active: &active})
	require.NoError(t, err)
	require.Len(t, resp.Discounts, 1)
	assert.Equal(t, "BETA", resp.Discounts[0].Code)
	assert.Equal(t, 1, resp.Pagination.Total)
}
