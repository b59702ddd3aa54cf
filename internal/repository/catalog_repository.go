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

type categoryRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCategoryRepository creates a PostgreSQL-backed category repository.
func NewCategoryRepository(pool *pgxpool.Pool, logger zerolog.Logger) CategoryRepository {
	return &categoryRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "category").Logger(),
	}
}

func (r *categoryRepository) List(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, slug, is_active, sort_order, created_at
		FROM categories
		WHERE NOT $1 OR is_active
		ORDER BY sort_order, name
	`, activeOnly)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query categories")
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.IsActive, &c.SortOrder, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var c model.Category
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, slug, is_active, sort_order, created_at
		FROM categories WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Slug, &c.IsActive, &c.SortOrder, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query category: %w", err)
	}
	return &c, nil
}

func (r *categoryRepository) Create(ctx context.Context, c *model.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO categories (id, name, slug, is_active, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.ID, c.Name, c.Slug, c.IsActive, c.SortOrder, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return model.NewDomainError(model.ErrCodeConflict, "category slug already exists")
		}
		r.logger.Error().Err(err).Str("slug", c.Slug).Msg("failed to create category")
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *categoryRepository) Update(ctx context.Context, c *model.Category) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE categories SET name = $2, slug = $3, is_active = $4, sort_order = $5
		WHERE id = $1
		RETURNING created_at
	`, c.ID, c.Name, c.Slug, c.IsActive, c.SortOrder).Scan(&c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		if isUniqueViolation(err) {
			return model.NewDomainError(model.ErrCodeConflict, "category slug already exists")
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete category: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

type bannerRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewBannerRepository creates a PostgreSQL-backed banner repository.
func NewBannerRepository(pool *pgxpool.Pool, logger zerolog.Logger) BannerRepository {
	return &bannerRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "banner").Logger(),
	}
}

func (r *bannerRepository) List(ctx context.Context, activeOnly bool) ([]model.Banner, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, image_url, link_url, is_active, sort_order, created_at
		FROM banners
		WHERE NOT $1 OR is_active
		ORDER BY sort_order, created_at
	`, activeOnly)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query banners")
		return nil, fmt.Errorf("failed to query banners: %w", err)
	}
	defer rows.Close()

	banners := []model.Banner{}
	for rows.Next() {
		var b model.Banner
		if err := rows.Scan(&b.ID, &b.Title, &b.ImageURL, &b.LinkURL, &b.IsActive, &b.SortOrder, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan banner: %w", err)
		}
		banners = append(banners, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating banners: %w", err)
	}
	return banners, nil
}

func (r *bannerRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Banner, error) {
	var b model.Banner
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, image_url, link_url, is_active, sort_order, created_at
		FROM banners WHERE id = $1
	`, id).Scan(&b.ID, &b.Title, &b.ImageURL, &b.LinkURL, &b.IsActive, &b.SortOrder, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query banner: %w", err)
	}
	return &b, nil
}

func (r *bannerRepository) Create(ctx context.Context, b *model.Banner) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	b.CreatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO banners (id, title, image_url, link_url, is_active, sort_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, b.ID, b.Title, b.ImageURL, b.LinkURL, b.IsActive, b.SortOrder, b.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to create banner")
		return fmt.Errorf("failed to create banner: %w", err)
	}
	return nil
}

func (r *bannerRepository) Update(ctx context.Context, b *model.Banner) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE banners SET title = $2, image_url = $3, link_url = $4, is_active = $5, sort_order = $6
		WHERE id = $1
		RETURNING created_at
	`, b.ID, b.Title, b.ImageURL, b.LinkURL, b.IsActive, b.SortOrder).Scan(&b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrNotFound
		}
		return fmt.Errorf("failed to update banner: %w", err)
	}
	return nil
}

func (r *bannerRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM banners WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete banner: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
