package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"tapandbuy/internal/model"
	"tapandbuy/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	phonePattern   = regexp.MustCompile(`^[6-9]\d{9}$`)
	pincodePattern = regexp.MustCompile(`^[1-9]\d{5}$`)
)

var errAddressNotFound = model.NewDomainError(model.ErrCodeNotFound, "Address not found")

type addressService struct {
	addressRepo repository.AddressRepository
	logger      zerolog.Logger
}

// NewAddressService creates a new address service.
func NewAddressService(addressRepo repository.AddressRepository, logger zerolog.Logger) AddressService {
	return &addressService{
		addressRepo: addressRepo,
		logger:      logger.With().Str("service", "address").Logger(),
	}
}

func (s *addressService) List(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	addresses, err := s.addressRepo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get addresses: %w", err)
	}
	return addresses, nil
}

func (s *addressService) Create(ctx context.Context, userID uuid.UUID, a *model.Address) error {
	if err := validateAddress(a); err != nil {
		return err
	}
	a.ID = uuid.New()
	a.UserID = userID

	if err := s.addressRepo.Create(ctx, a); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to create address")
		return fmt.Errorf("failed to create address: %w", err)
	}
	return nil
}

func (s *addressService) Update(ctx context.Context, userID uuid.UUID, a *model.Address) error {
	if err := validateAddress(a); err != nil {
		return err
	}
	a.UserID = userID

	found, err := s.addressRepo.Update(ctx, a)
	if err != nil {
		return fmt.Errorf("failed to update address: %w", err)
	}
	if !found {
		return errAddressNotFound
	}
	return nil
}

func (s *addressService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	found, err := s.addressRepo.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !found {
		return errAddressNotFound
	}
	return nil
}

func (s *addressService) SetDefault(ctx context.Context, userID, id uuid.UUID) error {
	found, err := s.addressRepo.SetDefault(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("failed to set default address: %w", err)
	}
	if !found {
		return errAddressNotFound
	}
	return nil
}

// validateAddress trims every field and checks the phone and pincode formats.
func validateAddress(a *model.Address) error {
	a.FullName = strings.TrimSpace(a.FullName)
	a.Phone = strings.TrimSpace(a.Phone)
	a.Line1 = strings.TrimSpace(a.Line1)
	a.Line2 = strings.TrimSpace(a.Line2)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.Pincode = strings.TrimSpace(a.Pincode)

	switch {
	case a.FullName == "":
		return model.ValidationError("full name is required")
	case !phonePattern.MatchString(a.Phone):
		return model.ValidationError("phone must be a 10 digit mobile number starting with 6-9")
	case a.Line1 == "":
		return model.ValidationError("address line 1 is required")
	case a.City == "":
		return model.ValidationError("city is required")
	case a.State == "":
		return model.ValidationError("state is required")
	case !pincodePattern.MatchString(a.Pincode):
		return model.ValidationError("pincode must be 6 digits and cannot start with 0")
	}
	return nil
}
