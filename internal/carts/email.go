package carts

import (
	"fmt"
	"strings"
)

// ReminderEmail renders the plain text reminder for a cart.
func ReminderEmail(c Cart, attempt int) (subject, body string) {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	noun := "items"
	if count == 1 {
		noun = "item"
	}
	subject = fmt.Sprintf("You left %d %s in your cart", count, noun)
	if attempt > 1 {
		subject = "Still thinking it over? " + subject
	}

	var b strings.Builder
	name := c.CustomerName
	if name == "" {
		name = "there"
	}
	fmt.Fprintf(&b, "Hi %s,\n\nYour cart is waiting for you:\n\n", name)
	for _, item := range c.Items {
		label := item.Name
		if label == "" {
			label = fmt.Sprintf("Product #%d", item.ProductID)
		}
		fmt.Fprintf(&b, "  %d x %s\n", item.Quantity, label)
	}
	totals := c.Totals()
	fmt.Fprintf(&b, "\nCart value: %.2f\n", totals.TotalAfterDiscounts)
	if totals.Discounts > 0 {
		fmt.Fprintf(&b, "You save %.2f on these items.\n", totals.Discounts)
	}
	b.WriteString("\nComplete your order before these items sell out.\n")
	return subject, b.String()
}
