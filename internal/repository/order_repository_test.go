package repository

import (
	"context"
	"testing"
	"time"

	"tapandbuy/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeTestOrder(t *testing.T, pool *pgxpool.Pool, repo OrderRepository, userID uuid.UUID, product model.Product, qty int) *model.Order {
	t.Helper()
	ctx := context.Background()
	address := seedAddress(t, pool, userID)

	now := time.Now().UTC().Truncate(time.Microsecond)
	subtotal := product.Price.Mul(decimal.NewFromInt(int64(qty)))
	order := &model.Order{
		ID:          uuid.New(),
		OrderCode:   "TAB-" + now.Format("20060102") + "-" + uuid.NewString()[:6],
		UserID:      userID,
		AddressID:   address.ID,
		Subtotal:    subtotal,
		PlatformFee: decimal.NewFromInt(10),
		DeliveryFee: decimal.NewFromInt(60),
		Total:       subtotal.Add(decimal.NewFromInt(70)),
		Status:      model.OrderStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	items := []model.OrderItem{{
		ID:           uuid.New(),
		OrderID:      order.ID,
		ProductID:    product.ID,
		ProductName:  product.Name,
		ProductPrice: product.Price,
		Quantity:     qty,
		Subtotal:     subtotal,
	}}

	err := WithTx(ctx, repo, zerolog.Nop(), func(tx pgx.Tx) error {
		if err := repo.CreateOrder(ctx, tx, order); err != nil {
			return err
		}
		return repo.CreateOrderItems(ctx, tx, items)
	})
	require.NoError(t, err)
	return order
}

func TestOrderRepository(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	repo := NewOrderRepository(pool, zerolog.Nop())
	userID := uuid.New()
	ghee := seedProduct(t, pool, "Ghee 1L", 550, 20)

	order := placeTestOrder(t, pool, repo, userID, ghee, 2)
	assert.Equal(t, 1, order.Version)

	t.Run("GetByID returns order and items", func(t *testing.T) {
		got, items, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, order.OrderCode, got.OrderCode)
		assert.Equal(t, "1170", got.Total.String())
		assert.Equal(t, model.OrderStatusPending, got.Status)
		require.Len(t, items, 1)
		assert.Equal(t, "Ghee 1L", items[0].ProductName)
		assert.Equal(t, "1100", items[0].Subtotal.String())
	})

	t.Run("GetByID not found", func(t *testing.T) {
		got, items, err := repo.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Nil(t, items)
	})

	t.Run("ListByUser scopes to owner", func(t *testing.T) {
		mine, err := repo.ListByUser(ctx, userID, 10, 0)
		require.NoError(t, err)
		assert.Len(t, mine, 1)

		theirs, err := repo.ListByUser(ctx, uuid.New(), 10, 0)
		require.NoError(t, err)
		assert.Empty(t, theirs)
	})

	t.Run("Update bumps version", func(t *testing.T) {
		current, _, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)

		current.Status = model.OrderStatusProcessing
		require.NoError(t, repo.Update(ctx, current))
		assert.Equal(t, 2, current.Version)

		processing := model.OrderStatusProcessing
		listed, err := repo.List(ctx, model.OrderFilter{Status: &processing, Limit: 10})
		require.NoError(t, err)
		assert.Len(t, listed, 1)
	})

	t.Run("Stale version is rejected", func(t *testing.T) {
		first, _, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		second := *first

		first.Status = model.OrderStatusShipped
		require.NoError(t, repo.Update(ctx, first))

		second.Status = model.OrderStatusCancelled
		err = repo.Update(ctx, &second)
		assert.ErrorIs(t, err, model.ErrConcurrentUpdate)

		stored, _, err := repo.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusShipped, stored.Status)
	})
}

func TestReturnRepository(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	userID := uuid.New()
	order := placeTestOrder(t, pool, NewOrderRepository(pool, zerolog.Nop()), userID, seedProduct(t, pool, "Atta 10kg", 420, 5), 1)
	repo := NewReturnRepository(pool, zerolog.Nop())

	now := time.Now().UTC()
	rr := &model.ReturnRequest{
		OrderID:   order.ID,
		UserID:    userID,
		Reason:    "Packet arrived torn",
		Status:    model.ReturnStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, repo.Create(ctx, rr))

	mine, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	pending := model.ReturnStatusPending
	listed, err := repo.List(ctx, &pending)
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	stale := *rr
	rr.Status = model.ReturnStatusApproved
	require.NoError(t, repo.Update(ctx, rr))
	assert.Equal(t, 2, rr.Version)

	stale.Status = model.ReturnStatusRejected
	assert.ErrorIs(t, repo.Update(ctx, &stale), model.ErrConcurrentUpdate)

	got, err := repo.GetByID(ctx, rr.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReturnStatusApproved, got.Status)
}
