// Package fraud limits the first-order discount to one redemption per
// account and one per physical device.
//
// The device fingerprint is a best-effort heuristic derived from signals the
// client reports. It deduplicates casual repeat sign-ups; it is not an
// identity and must not be trusted for anything stronger.
package fraud

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"tapandbuy/internal/model"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const fingerprintPrefix = "dev_"

// Fingerprint deterministically hashes the device signals. The same signals
// always produce the same id.
func Fingerprint(d model.DeviceContext) string {
	parts := []string{
		d.UserAgent,
		d.Language,
		strconv.Itoa(d.ColorDepth),
		strconv.Itoa(d.ScreenWidth) + "x" + strconv.Itoa(d.ScreenHeight),
		strconv.Itoa(d.TimezoneOffset),
		strconv.FormatBool(d.StorageAvailable),
		d.CanvasHash,
	}
	return fingerprintPrefix + strconv.FormatUint(xxhash.Sum64String(strings.Join(parts, "|")), 16)
}

// DeviceID returns the id the client persisted, or derives one from the
// signals. An empty context yields an empty id.
func DeviceID(d model.DeviceContext) string {
	if id := strings.TrimSpace(d.ID); id != "" {
		return id
	}
	if d == (model.DeviceContext{}) {
		return ""
	}
	return Fingerprint(d)
}

// Store is the persistence the fraud check needs.
type Store interface {
	DeviceRedeemed(ctx context.Context, deviceID string) (bool, error)
	RecordDevice(ctx context.Context, tx pgx.Tx, device *model.FirstOrderDevice) error
}

// ProfileStore reads and updates the account's first-order flag.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error)
	MarkFirstOrderUsed(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error
}

// Checker decides first-order discount eligibility.
type Checker interface {
	// Eligible is true only when the account has never redeemed the
	// discount and the device has no redemption on record.
	Eligible(ctx context.Context, userID uuid.UUID, deviceID string) (bool, error)

	// RecordRedemption marks both the device and the account inside tx.
	RecordRedemption(ctx context.Context, tx pgx.Tx, device *model.FirstOrderDevice) error
}

type checker struct {
	devices  Store
	profiles ProfileStore
	logger   zerolog.Logger
}

// NewChecker creates a first-order fraud checker.
func NewChecker(devices Store, profiles ProfileStore, logger zerolog.Logger) Checker {
	return &checker{
		devices:  devices,
		profiles: profiles,
		logger:   logger.With().Str("component", "first-order-check").Logger(),
	}
}

func (c *checker) Eligible(ctx context.Context, userID uuid.UUID, deviceID string) (bool, error) {
	if deviceID == "" {
		c.logger.Debug().Str("user_id", userID.String()).Msg("no device id, first order discount withheld")
		return false, nil
	}

	profile, err := c.profiles.GetProfile(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load profile: %w", err)
	}
	if profile == nil || profile.FirstOrderCouponUsed {
		return false, nil
	}

	redeemed, err := c.devices.DeviceRedeemed(ctx, deviceID)
	if err != nil {
		return false, fmt.Errorf("failed to check device: %w", err)
	}
	if redeemed {
		c.logger.Info().
			Str("user_id", userID.String()).
			Str("device_id", deviceID).
			Msg("device already redeemed first order discount")
		return false, nil
	}

	return true, nil
}

func (c *checker) RecordRedemption(ctx context.Context, tx pgx.Tx, device *model.FirstOrderDevice) error {
	if err := c.devices.RecordDevice(ctx, tx, device); err != nil {
		return fmt.Errorf("failed to record first order device: %w", err)
	}
	if err := c.profiles.MarkFirstOrderUsed(ctx, tx, device.UserID); err != nil {
		return fmt.Errorf("failed to mark first order used: %w", err)
	}
	return nil
}
