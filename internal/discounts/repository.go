package discounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/commerce-console/internal/shared"
)

// Repository defines persistence for discount codes.
type Repository interface {
	Create(ctx context.Context, d Discount) (int64, error)
	Update(ctx context.Context, d Discount) error
	Get(ctx context.Context, id int64) (Discount, error)
	GetByCode(ctx context.Context, code string) (Discount, error)
	List(ctx context.Context, req ListRequest) ([]Discount, int, error)
	SetActive(ctx context.Context, id int64, active bool) error
	// IncrementUsage consumes one redemption and fails with
	// ErrUsageLimitReached when the cap is already met.
	IncrementUsage(ctx context.Context, id int64) (Discount, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a pgx backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const discountColumns = `
	id, code, description, kind, value, min_order_amount, usage_limit, used_count,
	starts_at, ends_at, active, created_at, updated_at`

func scanDiscount(row pgx.Row) (Discount, error) {
	var d Discount
	err := row.Scan(
		&d.ID, &d.Code, &d.Description, &d.Kind, &d.Value, &d.MinOrderAmount, &d.UsageLimit, &d.UsedCount,
		&d.StartsAt, &d.EndsAt, &d.Active, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Discount{}, ErrNotFound
	}
	return d, err
}

// Create inserts a discount and returns its id.
func (r *repository) Create(ctx context.Context, d Discount) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO discounts (code, description, kind, value, min_order_amount, usage_limit, starts_at, ends_at, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		d.Code, d.Description, d.Kind, d.Value, d.MinOrderAmount, d.UsageLimit, d.StartsAt, d.EndsAt, d.Active,
	).Scan(&id)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return 0, ErrDuplicateCode
		}
		return 0, err
	}
	return id, nil
}

// Update overwrites the editable fields of a discount.
func (r *repository) Update(ctx context.Context, d Discount) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE discounts
		SET code = $2, description = $3, kind = $4, value = $5, min_order_amount = $6,
		    usage_limit = $7, starts_at = $8, ends_at = $9, updated_at = NOW()
		WHERE id = $1`,
		d.ID, d.Code, d.Description, d.Kind, d.Value, d.MinOrderAmount, d.UsageLimit, d.StartsAt, d.EndsAt,
	)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return ErrDuplicateCode
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get loads a discount by id.
func (r *repository) Get(ctx context.Context, id int64) (Discount, error) {
	return scanDiscount(r.pool.QueryRow(ctx, `SELECT `+discountColumns+` FROM discounts WHERE id = $1`, id))
}

// GetByCode loads a discount by its normalised code.
func (r *repository) GetByCode(ctx context.Context, code string) (Discount, error) {
	return scanDiscount(r.pool.QueryRow(ctx, `SELECT `+discountColumns+` FROM discounts WHERE code = $1`, code))
}

// List returns a page of discounts, newest first.
func (r *repository) List(ctx context.Context, req ListRequest) ([]Discount, int, error) {
	var (
		conditions []string
		args       []any
	)
	if req.Active != nil {
		args = append(args, *req.Active)
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)))
	}
	if search := strings.TrimSpace(req.Search); search != "" {
		args = append(args, "%"+search+"%")
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM discounts `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, perPage := shared.NormalizePage(req.Page, req.PerPage)
	query := fmt.Sprintf(`SELECT %s FROM discounts %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		discountColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, perPage, shared.Offset(page, perPage))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Discount{}
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, d)
	}
	return out, total, rows.Err()
}

// SetActive toggles the active flag.
func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE discounts SET active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementUsage bumps used_count in a single conditional statement so
// concurrent redemptions cannot exceed usage_limit.
func (r *repository) IncrementUsage(ctx context.Context, id int64) (Discount, error) {
	d, err := scanDiscount(r.pool.QueryRow(ctx, `
		UPDATE discounts
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE id = $1 AND (usage_limit = 0 OR used_count < usage_limit)
		RETURNING `+discountColumns, id))
	if errors.Is(err, ErrNotFound) {
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return Discount{}, getErr
		}
		return Discount{}, ErrUsageLimitReached
	}
	return d, err
}
