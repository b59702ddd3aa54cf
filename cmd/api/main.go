package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tapandbuy/internal/auth"
	"tapandbuy/internal/cache"
	"tapandbuy/internal/config"
	"tapandbuy/internal/coupon"
	"tapandbuy/internal/database"
	"tapandbuy/internal/events"
	"tapandbuy/internal/fraud"
	"tapandbuy/internal/handler"
	"tapandbuy/internal/repository"
	"tapandbuy/internal/router"
	"tapandbuy/internal/service"
	"tapandbuy/internal/storage"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting tapandbuy API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool and schema
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	categoryRepo := repository.NewCategoryRepository(pool, logger)
	bannerRepo := repository.NewBannerRepository(pool, logger)
	cartRepo := repository.NewCartRepository(pool, logger)
	addressRepo := repository.NewAddressRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	returnRepo := repository.NewReturnRepository(pool, logger)
	couponRepo := repository.NewCouponRepository(pool, logger)
	notificationRepo := repository.NewNotificationRepository(pool, logger)
	profileRepo := repository.NewProfileRepository(pool, logger)
	deviceRepo := repository.NewDeviceRepository(pool, logger)

	// Optional backends
	var s3Client *s3.Client
	if cfg.S3.Enabled {
		s3Client, err = storage.NewS3Client(ctx, cfg.S3.Region)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to initialise S3 client, using in-memory media storage")
		}
	}

	var files storage.FileStorage
	if s3Client != nil {
		files = storage.NewS3Storage(s3Client, cfg.S3.Bucket, cfg.S3.Region, cfg.S3.PublicBaseURL, logger)
	} else {
		files = storage.NewMemoryStorage(cfg.S3.PublicBaseURL)
		logger.Info().Msg("using in-memory media storage (S3 disabled)")
	}

	productCache, closeCache := newProductCache(ctx, cfg.Redis, logger)
	defer closeCache()

	publisher := newPublisher(cfg.Kafka, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close event publisher")
		}
	}()

	// Coupons and first-order fraud checks
	validator := coupon.NewValidator(coupon.DefaultValidatorConfig(), couponRepo, logger)
	fraudChecker := fraud.NewChecker(deviceRepo, profileRepo, logger)

	if cfg.Coupons.ImportFile != "" {
		importCoupons(ctx, cfg, s3Client, couponRepo, logger)
	}

	// Initialize services
	productService := service.NewProductService(productRepo, productCache, files, logger)
	catalogService := service.NewCatalogService(categoryRepo, bannerRepo, files, logger)
	cartService := service.NewCartService(cartRepo, productRepo, logger)
	checkoutService := service.NewCheckoutService(service.CheckoutDeps{
		Orders:        orderRepo,
		Cart:          cartRepo,
		Products:      productRepo,
		Addresses:     addressRepo,
		Notifications: notificationRepo,
		Coupons:       validator,
		Fraud:         fraudChecker,
		Publisher:     publisher,
	}, logger)
	orderService := service.NewOrderService(orderRepo, returnRepo, notificationRepo, publisher, logger)
	couponService := service.NewCouponService(couponRepo, cartRepo, validator, logger)
	addressService := service.NewAddressService(addressRepo, logger)
	notificationService := service.NewNotificationService(notificationRepo, logger)

	// Initialize router
	mux := router.New(router.Handlers{
		Products:      handler.NewProductHandler(productService, logger),
		Catalog:       handler.NewCatalogHandler(catalogService, logger),
		Cart:          handler.NewCartHandler(cartService, checkoutService, logger),
		Checkout:      handler.NewCheckoutHandler(checkoutService, logger),
		Orders:        handler.NewOrderHandler(orderService, logger),
		Coupons:       handler.NewCouponHandler(couponService, logger),
		Addresses:     handler.NewAddressHandler(addressService, logger),
		Notifications: handler.NewNotificationHandler(notificationService, logger),
	}, router.Options{
		Verifier:       auth.NewVerifier(cfg.Auth.JWTSecret),
		AllowedOrigin:  cfg.Server.AllowedOrigin,
		RequestTimeout: cfg.Server.RequestTimeout,
		Ping:           pool.Ping,
	}, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Channel to listen for errors from the server
	serverErrors := make(chan error, 1)

	// Start HTTP server in a goroutine
	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a signal or an error
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		// Create a context with timeout for shutdown
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			// Force close
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newProductCache connects to Redis when enabled and reachable, otherwise it
// falls back to an in-process cache.
func newProductCache(ctx context.Context, cfg config.RedisConfig, logger zerolog.Logger) (cache.ProductCache, func()) {
	if !cfg.Enabled {
		logger.Info().Msg("using in-memory product cache (Redis disabled)")
		return cache.NewMemoryProductCache(cfg.ProductTTL), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", cfg.Addr).Msg("redis unreachable, using in-memory product cache")
		_ = rdb.Close()
		return cache.NewMemoryProductCache(cfg.ProductTTL), func() {}
	}

	logger.Info().Str("addr", cfg.Addr).Msg("using redis product cache")
	return cache.NewRedisProductCache(rdb, cfg.ProductTTL, logger), func() {
		if err := rdb.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}

func newPublisher(cfg config.KafkaConfig, logger zerolog.Logger) events.Publisher {
	if !cfg.Enabled {
		logger.Info().Msg("logging domain events (Kafka disabled)")
		return events.NewLogPublisher(logger)
	}
	logger.Info().Strs("brokers", cfg.Brokers).Str("topic", cfg.Topic).Msg("publishing domain events to kafka")
	return events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Brokers, cfg.Topic), logger)
}

// importCoupons upserts the configured coupon file. Failures are logged and
// start-up continues with the coupons already stored.
func importCoupons(ctx context.Context, cfg *config.Config, s3Client *s3.Client, store coupon.Store, logger zerolog.Logger) {
	var bucket coupon.Loader
	if s3Client != nil {
		bucket = coupon.NewBucketLoader(s3Client, cfg.S3.Bucket, cfg.S3.Prefix, logger)
	}
	loader := coupon.NewChainLoader(logger, bucket, coupon.NewFileLoader(logger))

	n, err := coupon.NewImporter(loader, store, logger).Import(ctx, cfg.Coupons.ImportFile)
	if err != nil {
		logger.Error().Err(err).Str("file", cfg.Coupons.ImportFile).Msg("coupon import failed")
		return
	}
	logger.Info().Int("count", n).Str("file", cfg.Coupons.ImportFile).Msg("coupons imported")
}
