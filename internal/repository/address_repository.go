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

const addressColumns = `id, user_id, full_name, phone, line1, line2, city, state, pincode, is_default, created_at`

type addressRepository struct {
	pool   *pgxpool.Pool
	tx     TxBeginner
	logger zerolog.Logger
}

// NewAddressRepository creates a PostgreSQL-backed address repository.
func NewAddressRepository(pool *pgxpool.Pool, logger zerolog.Logger) AddressRepository {
	logger = logger.With().Str("repository", "address").Logger()
	return &addressRepository{
		pool:   pool,
		tx:     poolBeginner{pool: pool, logger: logger},
		logger: logger,
	}
}

func scanAddress(row pgx.Row, a *model.Address) error {
	return row.Scan(&a.ID, &a.UserID, &a.FullName, &a.Phone, &a.Line1, &a.Line2,
		&a.City, &a.State, &a.Pincode, &a.IsDefault, &a.CreatedAt)
}

func (r *addressRepository) List(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+addressColumns+`
		FROM addresses
		WHERE user_id = $1
		ORDER BY is_default DESC, created_at
	`, userID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query addresses")
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}
	defer rows.Close()

	addresses := []model.Address{}
	for rows.Next() {
		var a model.Address
		if err := scanAddress(rows, &a); err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}
	return addresses, nil
}

func (r *addressRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*model.Address, error) {
	var a model.Address
	err := scanAddress(r.pool.QueryRow(ctx, `
		SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2
	`, id, userID), &a)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query address: %w", err)
	}
	return &a, nil
}

func (r *addressRepository) unsetDefault(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`, userID); err != nil {
		return fmt.Errorf("failed to unset default address: %w", err)
	}
	return nil
}

func (r *addressRepository) Create(ctx context.Context, a *model.Address) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now().UTC()

	return WithTx(ctx, r.tx, r.logger, func(tx pgx.Tx) error {
		if a.IsDefault {
			if err := r.unsetDefault(ctx, tx, a.UserID); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO addresses (`+addressColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, a.ID, a.UserID, a.FullName, a.Phone, a.Line1, a.Line2, a.City, a.State, a.Pincode, a.IsDefault, a.CreatedAt)
		if err != nil {
			r.logger.Error().Err(err).Str("user_id", a.UserID.String()).Msg("failed to create address")
			return fmt.Errorf("failed to create address: %w", err)
		}
		return nil
	})
}

func (r *addressRepository) Update(ctx context.Context, a *model.Address) (bool, error) {
	found := false
	err := WithTx(ctx, r.tx, r.logger, func(tx pgx.Tx) error {
		if a.IsDefault {
			if err := r.unsetDefault(ctx, tx, a.UserID); err != nil {
				return err
			}
		}
		err := tx.QueryRow(ctx, `
			UPDATE addresses
			SET full_name = $3, phone = $4, line1 = $5, line2 = $6, city = $7,
			    state = $8, pincode = $9, is_default = $10
			WHERE id = $1 AND user_id = $2
			RETURNING created_at
		`, a.ID, a.UserID, a.FullName, a.Phone, a.Line1, a.Line2, a.City, a.State, a.Pincode, a.IsDefault).Scan(&a.CreatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrNotFound
			}
			return fmt.Errorf("failed to update address: %w", err)
		}
		found = true
		return nil
	})
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	return found, err
}

func (r *addressRepository) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, model.NewDomainError(model.ErrCodeConflict, "address is used by an order")
		}
		return false, fmt.Errorf("failed to delete address: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *addressRepository) SetDefault(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	found := false
	err := WithTx(ctx, r.tx, r.logger, func(tx pgx.Tx) error {
		if err := r.unsetDefault(ctx, tx, userID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `UPDATE addresses SET is_default = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return fmt.Errorf("failed to set default address: %w", err)
		}
		found = tag.RowsAffected() > 0
		if !found {
			return model.ErrNotFound
		}
		return nil
	})
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	return found, err
}
