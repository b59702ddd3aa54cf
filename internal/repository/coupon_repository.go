package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tapandbuy/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const couponColumns = `id, code, description, discount_type, discount_value, max_discount, min_order_value,
	min_items, max_uses, used_count, valid_from, valid_until, is_active, created_at, updated_at`

type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

func scanCoupon(row pgx.Row, c *model.Coupon) error {
	return row.Scan(
		&c.ID, &c.Code, &c.Description, &c.DiscountType, &c.DiscountValue, &c.MaxDiscount, &c.MinOrderValue,
		&c.MinItems, &c.MaxUses, &c.UsedCount, &c.ValidFrom, &c.ValidUntil, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
	)
}

func (r *couponRepository) getOne(ctx context.Context, where string, arg any) (*model.Coupon, error) {
	var c model.Coupon
	if err := scanCoupon(r.pool.QueryRow(ctx, `SELECT `+couponColumns+` FROM coupons WHERE `+where, arg), &c); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}
	return &c, nil
}

func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	return r.getOne(ctx, `code = $1`, code)
}

func (r *couponRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *couponRepository) list(ctx context.Context, activeOnly bool) ([]model.Coupon, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+couponColumns+`
		FROM coupons
		WHERE NOT $1 OR is_active
		ORDER BY min_order_value, code
	`, activeOnly)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query coupons")
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		var c model.Coupon
		if err := scanCoupon(rows, &c); err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coupons: %w", err)
	}
	return coupons, nil
}

func (r *couponRepository) ListActive(ctx context.Context) ([]model.Coupon, error) {
	return r.list(ctx, true)
}

func (r *couponRepository) List(ctx context.Context) ([]model.Coupon, error) {
	return r.list(ctx, false)
}

func (r *couponRepository) Create(ctx context.Context, c *model.Coupon) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	if c.ValidFrom.IsZero() {
		c.ValidFrom = now
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO coupons (`+couponColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, c.ID, c.Code, c.Description, c.DiscountType, c.DiscountValue, c.MaxDiscount, c.MinOrderValue,
		c.MinItems, c.MaxUses, c.UsedCount, c.ValidFrom, c.ValidUntil, c.IsActive, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewDomainError(model.ErrCodeConflict, "coupon code already exists")
		}
		r.logger.Error().Err(err).Str("coupon_code", c.Code).Msg("failed to create coupon")
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	return nil
}

func (r *couponRepository) Update(ctx context.Context, c *model.Coupon) (bool, error) {
	c.UpdatedAt = time.Now().UTC()

	err := r.pool.QueryRow(ctx, `
		UPDATE coupons
		SET code = $2, description = $3, discount_type = $4, discount_value = $5, max_discount = $6,
		    min_order_value = $7, min_items = $8, max_uses = $9, valid_from = $10, valid_until = $11,
		    is_active = $12, updated_at = $13
		WHERE id = $1
		RETURNING used_count, created_at
	`, c.ID, c.Code, c.Description, c.DiscountType, c.DiscountValue, c.MaxDiscount,
		c.MinOrderValue, c.MinItems, c.MaxUses, c.ValidFrom, c.ValidUntil, c.IsActive, c.UpdatedAt,
	).Scan(&c.UsedCount, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		if isUniqueViolation(err) {
			return false, model.NewDomainError(model.ErrCodeConflict, "coupon code already exists")
		}
		return false, fmt.Errorf("failed to update coupon: %w", err)
	}
	return true, nil
}

// Delete deactivates a coupon that has usage history and removes it otherwise.
func (r *couponRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		if !isForeignKeyViolation(err) {
			return false, fmt.Errorf("failed to delete coupon: %w", err)
		}
		tag, err = r.pool.Exec(ctx, `UPDATE coupons SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
		if err != nil {
			return false, fmt.Errorf("failed to deactivate coupon: %w", err)
		}
	}
	return tag.RowsAffected() > 0, nil
}

func (r *couponRepository) Upsert(ctx context.Context, c *model.Coupon) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	now := time.Now().UTC()
	// A zero start keeps the stored one, or starts now for a new code.
	var validFrom *time.Time
	if !c.ValidFrom.IsZero() {
		validFrom = &c.ValidFrom
	}

	err := r.pool.QueryRow(ctx, `
		INSERT INTO coupons (id, code, description, discount_type, discount_value, max_discount,
		                     min_order_value, min_items, max_uses, valid_from, valid_until, is_active,
		                     created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, COALESCE($10::timestamptz, $13), $11, $12, $13, $13)
		ON CONFLICT (code) DO UPDATE
		SET description = EXCLUDED.description, discount_type = EXCLUDED.discount_type,
		    discount_value = EXCLUDED.discount_value, max_discount = EXCLUDED.max_discount,
		    min_order_value = EXCLUDED.min_order_value, min_items = EXCLUDED.min_items,
		    max_uses = EXCLUDED.max_uses,
		    valid_from = COALESCE($10::timestamptz, coupons.valid_from),
		    valid_until = EXCLUDED.valid_until,
		    is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at
		RETURNING id, used_count, valid_from, created_at, updated_at
	`, c.ID, c.Code, c.Description, c.DiscountType, c.DiscountValue, c.MaxDiscount,
		c.MinOrderValue, c.MinItems, c.MaxUses, validFrom, c.ValidUntil, c.IsActive, now,
	).Scan(&c.ID, &c.UsedCount, &c.ValidFrom, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_code", c.Code).Msg("failed to upsert coupon")
		return fmt.Errorf("failed to upsert coupon: %w", err)
	}
	return nil
}

// RecordUsage increments used_count only while it is below max_uses, then
// appends the usage row.
func (r *couponRepository) RecordUsage(ctx context.Context, tx pgx.Tx, usage *model.CouponUsage) error {
	if usage.ID == uuid.Nil {
		usage.ID = uuid.New()
	}
	if usage.UsedAt.IsZero() {
		usage.UsedAt = time.Now().UTC()
	}

	tag, err := tx.Exec(ctx, `
		UPDATE coupons
		SET used_count = used_count + 1, updated_at = NOW()
		WHERE id = $1 AND (max_uses IS NULL OR used_count < max_uses)
	`, usage.CouponID)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_id", usage.CouponID.String()).Msg("failed to increment coupon usage")
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn().Str("coupon_id", usage.CouponID.String()).Msg("coupon usage cap reached")
		return model.NewDomainError(model.ErrCodeCouponIneligible, "Coupon usage limit exceeded")
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO coupon_usages (id, coupon_id, order_id, user_id, discount_amount, used_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, usage.ID, usage.CouponID, usage.OrderID, usage.UserID, usage.DiscountAmount, usage.UsedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewDomainError(model.ErrCodeConflict, "coupon already recorded for this order")
		}
		return fmt.Errorf("failed to record coupon usage: %w", err)
	}
	return nil
}
