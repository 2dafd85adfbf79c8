package carts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/commerce-console/internal/platform/db"
	"github.com/odyssey-erp/commerce-console/internal/shared"
)

// Repository defines persistence for carts.
type Repository interface {
	Save(ctx context.Context, in SaveInput) (Cart, error)
	Get(ctx context.Context, id int64) (Cart, error)
	// ListAbandoned pages through open carts idle since before.
	ListAbandoned(ctx context.Context, before time.Time, page, perPage int) ([]Cart, int, error)
	// ListRemindable returns open carts idle since idleBefore that have had
	// fewer than maxReminders and none since remindedBefore.
	ListRemindable(ctx context.Context, idleBefore, remindedBefore time.Time, maxReminders, limit int) ([]Cart, error)
	// MarkRecovered flags the cart and reports whether it changed.
	MarkRecovered(ctx context.Context, id int64, at time.Time) (bool, error)

	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional reminder bookkeeping.
type TxRepository interface {
	Get(ctx context.Context, id int64) (Cart, error)
	RecordReminder(ctx context.Context, id int64, at time.Time) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx wraps callback in a repeatable-read transaction.
func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const cartColumns = `
	id, customer_email, customer_name, items, last_activity_at, recovered, recovered_at,
	reminders_sent, last_reminded_at, created_at`

func scanCart(row pgx.Row) (Cart, error) {
	var (
		c     Cart
		items []byte
	)
	err := row.Scan(
		&c.ID, &c.CustomerEmail, &c.CustomerName, &items, &c.LastActivityAt, &c.Recovered, &c.RecoveredAt,
		&c.RemindersSent, &c.LastRemindedAt, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &c.Items); err != nil {
			return Cart{}, fmt.Errorf("carts: decode cart %d: %w", c.ID, err)
		}
	}
	return c, nil
}

func collect(rows pgx.Rows) ([]Cart, error) {
	defer rows.Close()
	out := []Cart{}
	for rows.Next() {
		c, err := scanCart(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Save upserts the open cart of a customer. Fresh activity restarts the
// reminder sequence.
func (r *repository) Save(ctx context.Context, in SaveInput) (Cart, error) {
	items, err := json.Marshal(in.Items)
	if err != nil {
		return Cart{}, err
	}
	return scanCart(r.pool.QueryRow(ctx, `
		INSERT INTO carts (customer_email, customer_name, items, last_activity_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (customer_email) WHERE NOT recovered DO UPDATE
		SET customer_name = EXCLUDED.customer_name, items = EXCLUDED.items,
		    last_activity_at = NOW(), reminders_sent = 0, last_reminded_at = NULL
		RETURNING `+cartColumns,
		in.CustomerEmail, in.CustomerName, items,
	))
}

// Get loads one cart.
func (r *repository) Get(ctx context.Context, id int64) (Cart, error) {
	return scanCart(r.pool.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, id))
}

// ListAbandoned returns the longest idle carts first.
func (r *repository) ListAbandoned(ctx context.Context, before time.Time, page, perPage int) ([]Cart, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM carts WHERE NOT recovered AND last_activity_at <= $1`, before).Scan(&total); err != nil {
		return nil, 0, err
	}
	page, perPage = shared.NormalizePage(page, perPage)
	rows, err := r.pool.Query(ctx, `
		SELECT `+cartColumns+`
		FROM carts
		WHERE NOT recovered AND last_activity_at <= $1
		ORDER BY last_activity_at, id
		LIMIT $2 OFFSET $3`,
		before, perPage, shared.Offset(page, perPage))
	if err != nil {
		return nil, 0, err
	}
	carts, err := collect(rows)
	return carts, total, err
}

// ListRemindable selects the carts the reminder sweep may contact.
func (r *repository) ListRemindable(ctx context.Context, idleBefore, remindedBefore time.Time, maxReminders, limit int) ([]Cart, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+cartColumns+`
		FROM carts
		WHERE NOT recovered
		  AND last_activity_at <= $1
		  AND reminders_sent < $2
		  AND (last_reminded_at IS NULL OR last_reminded_at <= $3)
		ORDER BY last_activity_at, id
		LIMIT $4`,
		idleBefore, maxReminders, remindedBefore, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// MarkRecovered sets the recovered flag once.
func (r *repository) MarkRecovered(ctx context.Context, id int64, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE carts SET recovered = TRUE, recovered_at = $2 WHERE id = $1 AND NOT recovered`, id, at)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}
	if _, err := r.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// Get loads a cart and locks its row until the transaction ends.
func (t *txRepository) Get(ctx context.Context, id int64) (Cart, error) {
	return scanCart(t.tx.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1 FOR UPDATE`, id))
}

// RecordReminder bumps the reminder counter.
func (t *txRepository) RecordReminder(ctx context.Context, id int64, at time.Time) error {
	tag, err := t.tx.Exec(ctx, `UPDATE carts SET reminders_sent = reminders_sent + 1, last_reminded_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
