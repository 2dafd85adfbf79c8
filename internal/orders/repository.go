package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/commerce-console/internal/orders/status"
	"github.com/odyssey-erp/commerce-console/internal/platform/db"
	"github.com/odyssey-erp/commerce-console/internal/platform/httpx"
	"github.com/odyssey-erp/commerce-console/internal/shared"
)

const serializationFailure = "40001"

// Repository defines persistence for submitted orders.
type Repository interface {
	Get(ctx context.Context, id int64) (Order, error)
	List(ctx context.Context, req ListRequest) ([]Order, int, error)
	History(ctx context.Context, orderID int64) ([]StatusChange, error)

	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes transactional write operations.
type TxRepository interface {
	Insert(ctx context.Context, order Order) (int64, error)
	Get(ctx context.Context, id int64) (Order, error)
	// CompareAndSetStatus moves the order from one triple to another and
	// fails with ErrConflict when the stored triple no longer equals from.
	CompareAndSetStatus(ctx context.Context, id int64, from, to status.Triple, extras StatusExtras) error
	InsertHistory(ctx context.Context, change StatusChange) (int64, error)
}

// StatusExtras are the supplementary fields captured with a transition.
type StatusExtras struct {
	TrackingNumber     string
	CancellationReason string
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

const orderColumns = `
	id, number, customer_id, customer_email, shipping_address, billing_address,
	international, items, pricing, order_status, payment_status, fulfillment_status,
	tracking_number, cancellation_reason, notes, created_by, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o                          Order
		shipping, billing          []byte
		items, priced              []byte
		orderSt, paymentSt, fulfil string
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.CustomerID, &o.CustomerEmail, &shipping, &billing,
		&o.International, &items, &priced, &orderSt, &paymentSt, &fulfil,
		&o.TrackingNumber, &o.CancellationReason, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	o.Status = status.Triple{
		Order:       status.OrderStatus(orderSt),
		Payment:     status.PaymentStatus(paymentSt),
		Fulfillment: status.FulfillmentStatus(fulfil),
	}
	for _, part := range []struct {
		raw  []byte
		dest any
	}{
		{shipping, &o.ShippingAddress},
		{billing, &o.BillingAddress},
		{items, &o.Items},
		{priced, &o.Pricing},
	} {
		if len(part.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(part.raw, part.dest); err != nil {
			return Order{}, fmt.Errorf("orders: decode order %d: %w", o.ID, err)
		}
	}
	return o, nil
}

func getOrder(ctx context.Context, q db.DBTX, id int64, lock bool) (Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	return scanOrder(q.QueryRow(ctx, query, id))
}

// Get loads one order.
func (r *repository) Get(ctx context.Context, id int64) (Order, error) {
	return getOrder(ctx, r.pool, id, false)
}

// List returns a filtered page of orders and the total match count.
func (r *repository) List(ctx context.Context, req ListRequest) ([]Order, int, error) {
	var (
		conditions []string
		args       []any
	)
	argPos := 1
	add := func(cond string, value any) {
		conditions = append(conditions, fmt.Sprintf(cond, argPos))
		args = append(args, value)
		argPos++
	}
	if req.OrderStatus != "" {
		add("order_status = $%d", req.OrderStatus)
	}
	if req.PaymentStatus != "" {
		add("payment_status = $%d", req.PaymentStatus)
	}
	if req.FulfillmentStatus != "" {
		add("fulfillment_status = $%d", req.FulfillmentStatus)
	}
	if search := strings.TrimSpace(req.Search); search != "" {
		conditions = append(conditions, fmt.Sprintf("(number ILIKE $%d OR customer_email ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+search+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, perPage := shared.NormalizePage(req.Page, req.PerPage)
	query := fmt.Sprintf(`SELECT %s FROM orders %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, argPos, argPos+1)
	args = append(args, perPage, shared.Offset(page, perPage))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

// History lists status changes oldest first.
func (r *repository) History(ctx context.Context, orderID int64) ([]StatusChange, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, dimension, from_status, to_status, comment, actor, created_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := []StatusChange{}
	for rows.Next() {
		var c StatusChange
		if err := rows.Scan(&c.ID, &c.OrderID, &c.Dimension, &c.From, &c.To, &c.Comment, &c.Actor, &c.At); err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// Insert stores a new order and returns its id.
func (t *txRepository) Insert(ctx context.Context, o Order) (int64, error) {
	shipping, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return 0, err
	}
	billing, err := json.Marshal(o.BillingAddress)
	if err != nil {
		return 0, err
	}
	items, err := json.Marshal(o.Items)
	if err != nil {
		return 0, err
	}
	priced, err := json.Marshal(o.Pricing)
	if err != nil {
		return 0, err
	}
	var id int64
	err = t.tx.QueryRow(ctx, `
		INSERT INTO orders (
			number, customer_id, customer_email, shipping_address, billing_address,
			international, items, pricing, grand_total, order_status, payment_status,
			fulfillment_status, notes, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`,
		o.Number, o.CustomerID, o.CustomerEmail, shipping, billing,
		o.International, items, priced, o.Pricing.GrandTotal, o.Status.Order, o.Status.Payment,
		o.Status.Fulfillment, o.Notes, o.CreatedBy,
	).Scan(&id)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return 0, fmt.Errorf("order %s: %w", o.Number, httpx.ErrDuplicate)
		}
		return 0, err
	}
	return id, nil
}

// Get loads an order and locks its row until the transaction ends.
func (t *txRepository) Get(ctx context.Context, id int64) (Order, error) {
	o, err := getOrder(ctx, t.tx, id, true)
	return o, mapConcurrency(err)
}

// CompareAndSetStatus updates all three status columns in one statement.
func (t *txRepository) CompareAndSetStatus(ctx context.Context, id int64, from, to status.Triple, extras StatusExtras) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE orders
		SET order_status = $2, payment_status = $3, fulfillment_status = $4,
		    tracking_number = COALESCE(NULLIF($5, ''), tracking_number),
		    cancellation_reason = COALESCE(NULLIF($6, ''), cancellation_reason),
		    updated_at = NOW()
		WHERE id = $1 AND order_status = $7 AND payment_status = $8 AND fulfillment_status = $9`,
		id, to.Order, to.Payment, to.Fulfillment,
		extras.TrackingNumber, extras.CancellationReason,
		from.Order, from.Payment, from.Fulfillment,
	)
	if err != nil {
		return mapConcurrency(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

// InsertHistory appends a status change row.
func (t *txRepository) InsertHistory(ctx context.Context, c StatusChange) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO order_status_history (order_id, dimension, from_status, to_status, comment, actor)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		c.OrderID, c.Dimension, c.From, c.To, c.Comment, c.Actor,
	).Scan(&id)
	return id, err
}

// mapConcurrency turns serialization failures into ErrConflict.
func mapConcurrency(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == serializationFailure {
		return ErrConflict
	}
	return err
}
