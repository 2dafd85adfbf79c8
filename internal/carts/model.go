// Package carts tracks storefront carts and drives abandoned-cart recovery.
package carts

import (
	"time"

	"github.com/odyssey-erp/commerce-console/internal/orders/pricing"
)

// Cart is a storefront basket that has not become an order.
type Cart struct {
	ID             int64               `json:"id"`
	CustomerEmail  string              `json:"customer_email"`
	CustomerName   string              `json:"customer_name,omitempty"`
	Items          []pricing.OrderItem `json:"items"`
	LastActivityAt time.Time           `json:"last_activity_at"`
	Recovered      bool                `json:"recovered"`
	RecoveredAt    *time.Time          `json:"recovered_at,omitempty"`
	RemindersSent  int                 `json:"reminders_sent"`
	LastRemindedAt *time.Time          `json:"last_reminded_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
}

// Totals prices the cart lines. Order-level discounts and tax are not applied.
func (c Cart) Totals() pricing.ItemsSummary {
	return pricing.ComputeItemsSubtotal(c.Items)
}

// Policy governs when a cart counts as abandoned and how often its owner may
// be reminded.
type Policy struct {
	AbandonAfter  time.Duration
	MaxReminders  int
	MinSpacing    time.Duration
	ScanBatchSize int
}

// CheckReminder reports why a reminder for c may not be sent at now, or nil.
func (p Policy) CheckReminder(c Cart, now time.Time) error {
	switch {
	case c.Recovered:
		return ErrRecovered
	case now.Sub(c.LastActivityAt) < p.AbandonAfter:
		return ErrNotAbandoned
	case c.RemindersSent >= p.MaxReminders:
		return ErrReminderLimit
	case c.LastRemindedAt != nil && now.Sub(*c.LastRemindedAt) < p.MinSpacing:
		return ErrReminderTooSoon
	}
	return nil
}

// NextReminderAt returns the earliest time a reminder may go out, or nil when
// no further reminder is allowed.
func (p Policy) NextReminderAt(c Cart) *time.Time {
	if c.Recovered || c.RemindersSent >= p.MaxReminders {
		return nil
	}
	next := c.LastActivityAt.Add(p.AbandonAfter)
	if c.LastRemindedAt != nil {
		if spaced := c.LastRemindedAt.Add(p.MinSpacing); spaced.After(next) {
			next = spaced
		}
	}
	return &next
}

// AbandonedCart is a cart listing row with its computed value.
type AbandonedCart struct {
	Cart
	Value          pricing.ItemsSummary `json:"value"`
	IdleSeconds    int64                `json:"idle_seconds"`
	NextReminderAt *time.Time           `json:"next_reminder_at,omitempty"`
}
