package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tapandbuy/internal/auth"
	"tapandbuy/internal/cache"
	"tapandbuy/internal/coupon"
	"tapandbuy/internal/database"
	"tapandbuy/internal/events"
	"tapandbuy/internal/fraud"
	"tapandbuy/internal/handler"
	"tapandbuy/internal/repository"
	"tapandbuy/internal/router"
	"tapandbuy/internal/service"
	"tapandbuy/internal/storage"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testJWTSecret = "integration-secret"

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the application schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// testServer is the fully wired API backed by the test database, with
// in-process media storage, product cache and event log.
type testServer struct {
	handler  http.Handler
	verifier *auth.Verifier
	files    *storage.MemoryStorage
}

func newTestServer(t *testing.T, testDB *TestDB) *testServer {
	t.Helper()

	logger := zerolog.Nop()
	pool := testDB.Pool

	productRepo := repository.NewProductRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	addressRepo := repository.NewAddressRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)
	notificationRepo := repository.NewNotificationRepository(pool, logger)

	files := storage.NewMemoryStorage("http://media.test")
	publisher := events.NewLogPublisher(logger)
	validator := coupon.NewValidator(coupon.DefaultValidatorConfig(), couponRepo, logger)
	checker := fraud.NewChecker(
		repository.NewDeviceRepository(pool, logger),
		repository.NewProfileRepository(pool, logger),
		logger,
	)

	productService := service.NewProductService(productRepo, cache.NewMemoryProductCache(time.Minute), files, logger)
	catalogService := service.NewCatalogService(
		repository.NewCategoryRepository(pool, logger),
		repository.NewBannerRepository(pool, logger),
		files, logger)
	cartService := service.NewCartService(cartRepo, productRepo, logger)
	checkoutService := service.NewCheckoutService(service.CheckoutDeps{
		Orders:        orderRepo,
		Cart:          cartRepo,
		Products:      productRepo,
		Addresses:     addressRepo,
		Notifications: notificationRepo,
		Coupons:       validator,
		Fraud:         checker,
		Publisher:     publisher,
	}, logger)
	orderService := service.NewOrderService(orderRepo, repository.NewReturnRepository(pool, logger), notificationRepo, publisher, logger)

	verifier := auth.NewVerifier(testJWTSecret)
	h := router.New(router.Handlers{
		Products:      handler.NewProductHandler(productService, logger),
		Catalog:       handler.NewCatalogHandler(catalogService, logger),
		Cart:          handler.NewCartHandler(cartService, checkoutService, logger),
		Checkout:      handler.NewCheckoutHandler(checkoutService, logger),
		Orders:        handler.NewOrderHandler(orderService, logger),
		Coupons:       handler.NewCouponHandler(service.NewCouponService(couponRepo, cartRepo, validator, logger), logger),
		Addresses:     handler.NewAddressHandler(service.NewAddressService(addressRepo, logger), logger),
		Notifications: handler.NewNotificationHandler(service.NewNotificationService(notificationRepo, logger), logger),
	}, router.Options{
		Verifier:       verifier,
		RequestTimeout: 10 * time.Second,
		Ping:           pool.Ping,
	}, logger)

	return &testServer{handler: h, verifier: verifier, files: files}
}

// token signs a bearer token for user.
func (s *testServer) token(t *testing.T, user auth.User) string {
	t.Helper()
	token, err := s.verifier.Sign(user, time.Hour)
	require.NoError(t, err)
	return token
}

// do sends a JSON request and returns the recorded response.
func (s *testServer) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

// decode unmarshals a response body into v.
func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	tables := []string{
		"notifications", "return_requests", "coupon_usages", "first_order_devices",
		"order_items", "orders", "cart_items", "addresses", "coupons", "products",
		"categories", "banners", "profiles",
	}
	for _, table := range tables {
		if _, err := pool.Exec(context.Background(), "DELETE FROM "+table); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
