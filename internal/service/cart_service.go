package service

import (
	"context"
	"fmt"

	"tapandbuy/internal/model"
	"tapandbuy/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, logger zerolog.Logger) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

func (s *cartService) List(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	items, err := s.cartRepo.List(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to list cart")
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return items, nil
}

// Add puts quantity units of an active product in the cart, incrementing an
// existing line.
func (s *cartService) Add(ctx context.Context, userID uuid.UUID, req model.CartAddRequest) error {
	if req.Quantity <= 0 {
		return model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil || !product.IsActive {
		s.logger.Debug().Str("product_id", req.ProductID.String()).Msg("cannot add unavailable product")
		return model.ErrProductNotFound
	}

	if err := s.cartRepo.Add(ctx, userID, req.ProductID, req.Quantity); err != nil {
		s.logger.Error().Err(err).
			Str("user_id", userID.String()).
			Str("product_id", req.ProductID.String()).
			Msg("failed to add to cart")
		return fmt.Errorf("failed to add to cart: %w", err)
	}
	return nil
}

func (s *cartService) SetQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return model.ErrInvalidQuantity
	}

	found, err := s.cartRepo.SetQuantity(ctx, userID, productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}
	if !found {
		return model.ErrNotFound
	}
	return nil
}

func (s *cartService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	found, err := s.cartRepo.Remove(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}
	if !found {
		return model.ErrNotFound
	}
	return nil
}

func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.cartRepo.Clear(ctx, nil, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
