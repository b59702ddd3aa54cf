package fraud

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tapandbuy/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) DeviceRedeemed(ctx context.Context, deviceID string) (bool, error) {
	args := m.Called(ctx, deviceID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) RecordDevice(ctx context.Context, tx pgx.Tx, device *model.FirstOrderDevice) error {
	args := m.Called(ctx, tx, device)
	return args.Error(0)
}

type MockProfileStore struct {
	mock.Mock
}

func (m *MockProfileStore) GetProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Profile), args.Error(1)
}

func (m *MockProfileStore) MarkFirstOrderUsed(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	args := m.Called(ctx, tx, userID)
	return args.Error(0)
}

var browser = model.DeviceContext{
	UserAgent:        "Mozilla/5.0 (Linux; Android 14)",
	Language:         "en-IN",
	ColorDepth:       24,
	ScreenWidth:      412,
	ScreenHeight:     915,
	TimezoneOffset:   -330,
	StorageAvailable: true,
	CanvasHash:       "a1b2c3",
}

func TestFingerprint(t *testing.T) {
	first := Fingerprint(browser)
	second := Fingerprint(browser)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(first, "dev_"))

	other := browser
	other.ScreenWidth = 390
	assert.NotEqual(t, first, Fingerprint(other))
}

func TestDeviceID(t *testing.T) {
	assert.Equal(t, "dev_persisted", DeviceID(model.DeviceContext{ID: " dev_persisted "}))
	assert.Equal(t, Fingerprint(browser), DeviceID(browser))
	assert.Empty(t, DeviceID(model.DeviceContext{}))
}

func TestChecker_Eligible(t *testing.T) {
	userID := uuid.New()
	deviceID := Fingerprint(browser)

	tests := []struct {
		name       string
		deviceID   string
		profile    *model.Profile
		redeemed   bool
		expected   bool
		checkStore bool
	}{
		{
			name:       "New account on new device",
			deviceID:   deviceID,
			profile:    &model.Profile{UserID: userID},
			expected:   true,
			checkStore: true,
		},
		{
			name:       "New account on a device that already redeemed",
			deviceID:   deviceID,
			profile:    &model.Profile{UserID: userID},
			redeemed:   true,
			expected:   false,
			checkStore: true,
		},
		{
			name:     "Account already redeemed",
			deviceID: deviceID,
			profile:  &model.Profile{UserID: userID, FirstOrderCouponUsed: true},
			expected: false,
		},
		{
			name:     "No device id",
			deviceID: "",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			devices := new(MockStore)
			profiles := new(MockProfileStore)
			if tt.profile != nil {
				profiles.On("GetProfile", ctx, userID).Return(tt.profile, nil)
			}
			if tt.checkStore {
				devices.On("DeviceRedeemed", ctx, tt.deviceID).Return(tt.redeemed, nil)
			}

			eligible, err := NewChecker(devices, profiles, zerolog.Nop()).Eligible(ctx, userID, tt.deviceID)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, eligible)
			devices.AssertExpectations(t)
			profiles.AssertExpectations(t)
			if !tt.checkStore {
				devices.AssertNotCalled(t, "DeviceRedeemed", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestChecker_Eligible_Errors(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	profiles := new(MockProfileStore)
	profiles.On("GetProfile", ctx, userID).Return(nil, errors.New("timeout"))
	_, err := NewChecker(new(MockStore), profiles, zerolog.Nop()).Eligible(ctx, userID, "dev_x")
	assert.ErrorContains(t, err, "failed to load profile")

	profiles = new(MockProfileStore)
	profiles.On("GetProfile", ctx, userID).Return(&model.Profile{UserID: userID}, nil)
	devices := new(MockStore)
	devices.On("DeviceRedeemed", ctx, "dev_x").Return(false, errors.New("timeout"))
	_, err = NewChecker(devices, profiles, zerolog.Nop()).Eligible(ctx, userID, "dev_x")
	assert.ErrorContains(t, err, "failed to check device")
}

func TestChecker_RecordRedemption(t *testing.T) {
	ctx := context.Background()
	device := &model.FirstOrderDevice{
		DeviceID:        "dev_abc",
		UserID:          uuid.New(),
		OrderID:         uuid.New(),
		DiscountApplied: decimal.NewFromInt(12),
	}

	devices := new(MockStore)
	profiles := new(MockProfileStore)
	devices.On("RecordDevice", ctx, nil, device).Return(nil)
	profiles.On("MarkFirstOrderUsed", ctx, nil, device.UserID).Return(nil)

	err := NewChecker(devices, profiles, zerolog.Nop()).RecordRedemption(ctx, nil, device)

	require.NoError(t, err)
	devices.AssertExpectations(t)
	profiles.AssertExpectations(t)
}
