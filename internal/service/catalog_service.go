package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"tapandbuy/internal/model"
	"tapandbuy/internal/repository"
	"tapandbuy/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const bannerImageFolder = "banners"

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lower-cases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

type catalogService struct {
	categories repository.CategoryRepository
	banners    repository.BannerRepository
	files      storage.FileStorage
	logger     zerolog.Logger
}

// NewCatalogService creates the category and banner service.
func NewCatalogService(
	categories repository.CategoryRepository,
	banners repository.BannerRepository,
	files storage.FileStorage,
	logger zerolog.Logger,
) CatalogService {
	return &catalogService{
		categories: categories,
		banners:    banners,
		files:      files,
		logger:     logger.With().Str("service", "catalog").Logger(),
	}
}

func (s *catalogService) ListCategories(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	categories, err := s.categories.List(ctx, activeOnly)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list categories")
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	return categories, nil
}

func (s *catalogService) CreateCategory(ctx context.Context, c *model.Category) error {
	if err := normalizeCategory(c); err != nil {
		return err
	}
	c.ID = uuid.New()
	if err := s.categories.Create(ctx, c); err != nil {
		return err
	}
	s.logger.Info().Str("category_id", c.ID.String()).Str("slug", c.Slug).Msg("category created")
	return nil
}

func (s *catalogService) UpdateCategory(ctx context.Context, c *model.Category) error {
	if err := normalizeCategory(c); err != nil {
		return err
	}
	return s.categories.Update(ctx, c)
}

func (s *catalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.categories.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrNotFound
	}
	return nil
}

func (s *catalogService) ListBanners(ctx context.Context, activeOnly bool) ([]model.Banner, error) {
	banners, err := s.banners.List(ctx, activeOnly)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list banners")
		return nil, fmt.Errorf("failed to get banners: %w", err)
	}
	return banners, nil
}

func (s *catalogService) CreateBanner(ctx context.Context, b *model.Banner) error {
	b.Title = strings.TrimSpace(b.Title)
	if b.Title == "" {
		return model.ValidationError("title is required")
	}
	b.ID = uuid.New()
	return s.banners.Create(ctx, b)
}

// UpdateBanner keeps the stored image when the payload carries none.
func (s *catalogService) UpdateBanner(ctx context.Context, b *model.Banner) error {
	b.Title = strings.TrimSpace(b.Title)
	if b.Title == "" {
		return model.ValidationError("title is required")
	}

	existing, err := s.banners.GetByID(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("failed to get banner: %w", err)
	}
	if existing == nil {
		return model.ErrNotFound
	}
	if b.ImageURL == "" {
		b.ImageURL = existing.ImageURL
	}

	if err := s.banners.Update(ctx, b); err != nil {
		return err
	}
	if existing.ImageURL != b.ImageURL {
		removeStoredImage(ctx, s.files, existing.ImageURL, s.logger)
	}
	return nil
}

func (s *catalogService) DeleteBanner(ctx context.Context, id uuid.UUID) error {
	existing, err := s.banners.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get banner: %w", err)
	}
	if existing == nil {
		return model.ErrNotFound
	}

	deleted, err := s.banners.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrNotFound
	}
	removeStoredImage(ctx, s.files, existing.ImageURL, s.logger)
	return nil
}

func (s *catalogService) UploadBannerImage(ctx context.Context, id uuid.UUID, contentType string, data []byte) (*model.Banner, error) {
	if len(data) == 0 {
		return nil, model.ValidationError("image is empty")
	}
	key, err := storage.ImageKey(bannerImageFolder, contentType)
	if err != nil {
		return nil, model.ValidationError(err.Error())
	}

	b, err := s.banners.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get banner: %w", err)
	}
	if b == nil {
		return nil, model.ErrNotFound
	}

	url, err := s.files.Upload(ctx, key, contentType, data)
	if err != nil {
		s.logger.Error().Err(err).Str("banner_id", id.String()).Msg("failed to upload banner image")
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	previous := b.ImageURL
	b.ImageURL = url
	if err := s.banners.Update(ctx, b); err != nil {
		removeStoredImage(ctx, s.files, url, s.logger)
		return nil, err
	}
	removeStoredImage(ctx, s.files, previous, s.logger)

	return b, nil
}

func normalizeCategory(c *model.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return model.ValidationError("name is required")
	}
	c.Slug = Slugify(c.Slug)
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	if c.Slug == "" {
		return model.ValidationError("slug is required")
	}
	return nil
}
