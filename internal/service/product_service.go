package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tapandbuy/internal/cache"
	"tapandbuy/internal/model"
	"tapandbuy/internal/repository"
	"tapandbuy/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const productImageFolder = "products"

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	cache       cache.ProductCache
	files       storage.FileStorage
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	productCache cache.ProductCache,
	files storage.FileStorage,
	logger zerolog.Logger,
) ProductService {
	return &productService{
		productRepo: productRepo,
		cache:       productCache,
		files:       files,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// List retrieves active products with pagination.
func (s *productService) List(ctx context.Context, categoryID *uuid.UUID, limit, offset int) ([]model.Product, error) {
	limit, offset = clampPage(limit, offset)

	products, err := s.productRepo.List(ctx, model.ProductFilter{
		CategoryID: categoryID,
		ActiveOnly: true,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to list products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single active product, reading through the cache.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	if id == uuid.Nil {
		return nil, model.ErrProductNotFound
	}

	product, err := s.cache.Get(ctx, id)
	if err != nil {
		// A broken cache degrades to the database.
		s.logger.Warn().Err(err).Str("product_id", id.String()).Msg("product cache read failed")
		product = nil
	}

	if product == nil {
		product, err = s.productRepo.GetByID(ctx, id)
		if err != nil {
			s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product by ID")
			return nil, fmt.Errorf("failed to get product: %w", err)
		}
		if product == nil {
			s.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, model.ErrProductNotFound
		}
		if err := s.cache.Set(ctx, product); err != nil {
			s.logger.Warn().Err(err).Str("product_id", id.String()).Msg("failed to cache product")
		}
	}

	if !product.IsActive {
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// AdminList retrieves products of any status.
func (s *productService) AdminList(ctx context.Context, limit, offset int) ([]model.Product, error) {
	limit, offset = clampPage(limit, offset)

	products, err := s.productRepo.List(ctx, model.ProductFilter{Limit: limit, Offset: offset})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list products for admin")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return products, nil
}

// Create adds a product to the catalogue.
func (s *productService) Create(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	if err := validateProductInput(&in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &model.Product{
		ID:            uuid.New(),
		CategoryID:    in.CategoryID,
		Name:          in.Name,
		Description:   in.Description,
		Price:         in.Price,
		StockQuantity: in.StockQuantity,
		IsActive:      in.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.productRepo.Create(ctx, p); err != nil {
		s.logger.Error().Err(err).Str("name", p.Name).Msg("failed to create product")
		return nil, err
	}

	s.logger.Info().Str("product_id", p.ID.String()).Msg("product created")
	return p, nil
}

// Update replaces the editable fields of a product and drops it from the cache.
func (s *productService) Update(ctx context.Context, id uuid.UUID, in model.ProductInput) (*model.Product, error) {
	if err := validateProductInput(&in); err != nil {
		return nil, err
	}

	p, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if p == nil {
		return nil, model.ErrProductNotFound
	}

	p.CategoryID = in.CategoryID
	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.StockQuantity = in.StockQuantity
	p.IsActive = in.IsActive
	p.UpdatedAt = time.Now().UTC()

	if err := s.productRepo.Update(ctx, p); err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to update product")
		return nil, err
	}
	s.invalidate(ctx, id)

	return p, nil
}

// Delete removes a product and drops it from the cache.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get product: %w", err)
	}
	if p == nil {
		return model.ErrProductNotFound
	}

	deleted, err := s.productRepo.Delete(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to delete product")
		return err
	}
	if !deleted {
		return model.ErrProductNotFound
	}
	s.invalidate(ctx, id)
	s.removeImage(ctx, p.ImageURL)

	s.logger.Info().Str("product_id", id.String()).Msg("product deleted")
	return nil
}

// UploadImage stores the image, points the product at it and removes the
// previous object.
func (s *productService) UploadImage(ctx context.Context, id uuid.UUID, contentType string, data []byte) (*model.Product, error) {
	if len(data) == 0 {
		return nil, model.ValidationError("image is empty")
	}
	key, err := storage.ImageKey(productImageFolder, contentType)
	if err != nil {
		return nil, model.ValidationError(err.Error())
	}

	p, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if p == nil {
		return nil, model.ErrProductNotFound
	}

	url, err := s.files.Upload(ctx, key, contentType, data)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to upload product image")
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	if err := s.productRepo.SetImage(ctx, id, url); err != nil {
		s.removeImage(ctx, url)
		return nil, fmt.Errorf("failed to save image: %w", err)
	}
	s.invalidate(ctx, id)
	s.removeImage(ctx, p.ImageURL)

	p.ImageURL = url
	return p, nil
}

func (s *productService) invalidate(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("product_id", id.String()).Msg("failed to invalidate cached product")
	}
}

func (s *productService) removeImage(ctx context.Context, url string) {
	removeStoredImage(ctx, s.files, url, s.logger)
}

// removeStoredImage deletes an image this storage issued. Failures only leave
// an orphaned object behind, so they are logged.
func removeStoredImage(ctx context.Context, files storage.FileStorage, url string, logger zerolog.Logger) {
	key, ok := files.KeyOf(url)
	if !ok {
		return
	}
	if err := files.Remove(ctx, key); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("failed to remove image")
	}
}

func validateProductInput(in *model.ProductInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return model.ValidationError("name is required")
	}
	if in.Price.IsNegative() {
		return model.ValidationError("price cannot be negative")
	}
	if in.StockQuantity < 0 {
		return model.ValidationError("stock quantity cannot be negative")
	}
	return nil
}
