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

const returnColumns = `id, order_id, user_id, reason, status, admin_notes, refund_amount, version, created_at, updated_at`

type returnRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewReturnRepository creates a PostgreSQL-backed return request repository.
func NewReturnRepository(pool *pgxpool.Pool, logger zerolog.Logger) ReturnRepository {
	return &returnRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "return").Logger(),
	}
}

func scanReturn(row pgx.Row, rr *model.ReturnRequest) error {
	return row.Scan(&rr.ID, &rr.OrderID, &rr.UserID, &rr.Reason, &rr.Status, &rr.AdminNotes,
		&rr.RefundAmount, &rr.Version, &rr.CreatedAt, &rr.UpdatedAt)
}

func collectReturns(rows pgx.Rows) ([]model.ReturnRequest, error) {
	defer rows.Close()

	out := []model.ReturnRequest{}
	for rows.Next() {
		var rr model.ReturnRequest
		if err := scanReturn(rows, &rr); err != nil {
			return nil, fmt.Errorf("failed to scan return request: %w", err)
		}
		out = append(out, rr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating return requests: %w", err)
	}
	return out, nil
}

func (r *returnRepository) Create(ctx context.Context, rr *model.ReturnRequest) error {
	if rr.ID == uuid.Nil {
		rr.ID = uuid.New()
	}
	if rr.Version == 0 {
		rr.Version = 1
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO return_requests (`+returnColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, rr.ID, rr.OrderID, rr.UserID, rr.Reason, rr.Status, rr.AdminNotes, rr.RefundAmount, rr.Version, rr.CreatedAt, rr.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", rr.OrderID.String()).Msg("failed to create return request")
		return fmt.Errorf("failed to create return request: %w", err)
	}
	return nil
}

func (r *returnRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.ReturnRequest, error) {
	var rr model.ReturnRequest
	if err := scanReturn(r.pool.QueryRow(ctx, `SELECT `+returnColumns+` FROM return_requests WHERE id = $1`, id), &rr); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query return request: %w", err)
	}
	return &rr, nil
}

func (r *returnRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.ReturnRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+returnColumns+` FROM return_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query return requests: %w", err)
	}
	return collectReturns(rows)
}

func (r *returnRepository) List(ctx context.Context, status *model.ReturnStatus) ([]model.ReturnRequest, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+returnColumns+` FROM return_requests
		WHERE $1::text IS NULL OR status = $1
		ORDER BY created_at DESC
	`, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query return requests: %w", err)
	}
	return collectReturns(rows)
}

func (r *returnRepository) Update(ctx context.Context, rr *model.ReturnRequest) error {
	now := time.Now().UTC()

	var newVersion int
	err := r.pool.QueryRow(ctx, `
		UPDATE return_requests
		SET status = $3, admin_notes = $4, refund_amount = $5, updated_at = $6, version = version + 1
		WHERE id = $1 AND version = $2
		RETURNING version
	`, rr.ID, rr.Version, rr.Status, rr.AdminNotes, rr.RefundAmount, now).Scan(&newVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Warn().Str("return_id", rr.ID.String()).Int("version", rr.Version).Msg("return request version mismatch")
			return model.ErrConcurrentUpdate
		}
		return fmt.Errorf("failed to update return request: %w", err)
	}

	rr.Version = newVersion
	rr.UpdatedAt = now
	return nil
}
