package repository

import (
	"context"
	"fmt"
	"time"

	"tapandbuy/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type profileRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProfileRepository creates a PostgreSQL-backed profile repository.
func NewProfileRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProfileRepository {
	return &profileRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "profile").Logger(),
	}
}

func (r *profileRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	var p model.Profile
	err := r.pool.QueryRow(ctx, `
		INSERT INTO profiles (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING user_id, full_name, phone, is_admin, first_order_coupon_used, created_at
	`, userID).Scan(&p.UserID, &p.FullName, &p.Phone, &p.IsAdmin, &p.FirstOrderCouponUsed, &p.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to load profile")
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return &p, nil
}

func (r *profileRepository) MarkFirstOrderUsed(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	tag, err := on(r.pool, tx).Exec(ctx, `
		INSERT INTO profiles (user_id, first_order_coupon_used) VALUES ($1, TRUE)
		ON CONFLICT (user_id) DO UPDATE SET first_order_coupon_used = TRUE
		WHERE NOT profiles.first_order_coupon_used
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark first order used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn().Str("user_id", userID.String()).Msg("account already redeemed first order discount")
		return model.NewDomainError(model.ErrCodeCouponIneligible, "First order discount already used on this account")
	}
	return nil
}

type deviceRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewDeviceRepository creates a PostgreSQL-backed first-order device repository.
func NewDeviceRepository(pool *pgxpool.Pool, logger zerolog.Logger) DeviceRepository {
	return &deviceRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "device").Logger(),
	}
}

func (r *deviceRepository) DeviceRedeemed(ctx context.Context, deviceID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM first_order_devices WHERE device_id = $1)
	`, deviceID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check device: %w", err)
	}
	return exists, nil
}

func (r *deviceRepository) RecordDevice(ctx context.Context, tx pgx.Tx, d *model.FirstOrderDevice) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	tag, err := on(r.pool, tx).Exec(ctx, `
		INSERT INTO first_order_devices (device_id, user_id, order_id, discount_applied, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (device_id) DO NOTHING
	`, d.DeviceID, d.UserID, d.OrderID, d.DiscountApplied, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn().Str("device_id", d.DeviceID).Msg("device already redeemed first order discount")
		return model.NewDomainError(model.ErrCodeCouponIneligible, "First order discount already used on this device")
	}
	return nil
}
