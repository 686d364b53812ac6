package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/tuanvm/fashionstore-backend/config"
	"github.com/tuanvm/fashionstore-backend/internal/api"
	carthandler "github.com/tuanvm/fashionstore-backend/internal/cart/handler"
	cartrepo "github.com/tuanvm/fashionstore-backend/internal/cart/repository"
	cartuc "github.com/tuanvm/fashionstore-backend/internal/cart/usecase"
	invhandler "github.com/tuanvm/fashionstore-backend/internal/inventory/handler"
	invrepo "github.com/tuanvm/fashionstore-backend/internal/inventory/repository"
	invuc "github.com/tuanvm/fashionstore-backend/internal/inventory/usecase"
	orderhandler "github.com/tuanvm/fashionstore-backend/internal/order/handler"
	orderrepo "github.com/tuanvm/fashionstore-backend/internal/order/repository"
	orderuc "github.com/tuanvm/fashionstore-backend/internal/order/usecase"
	payhandler "github.com/tuanvm/fashionstore-backend/internal/payment/handler"
	payrepo "github.com/tuanvm/fashionstore-backend/internal/payment/repository"
	payuc "github.com/tuanvm/fashionstore-backend/internal/payment/usecase"
	rethandler "github.com/tuanvm/fashionstore-backend/internal/returns/handler"
	retrepo "github.com/tuanvm/fashionstore-backend/internal/returns/repository"
	retuc "github.com/tuanvm/fashionstore-backend/internal/returns/usecase"
	shiprepo "github.com/tuanvm/fashionstore-backend/internal/shipment/repository"
	"github.com/tuanvm/fashionstore-backend/pkg/broker"
	"github.com/tuanvm/fashionstore-backend/pkg/cache"
	"github.com/tuanvm/fashionstore-backend/pkg/logger"
	"github.com/tuanvm/fashionstore-backend/pkg/postgres"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	log := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     cfg.Server.AppEnv == "dev",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, log logger.ZapLogger) error {
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("connected to postgres", zap.String("host", cfg.Postgres.Host))

	if err := runMigrations(cfg); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}
	log.Info("migrations applied")

	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("redis connect failed: %w", err)
		}
		defer redisClient.Close()
		log.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
	}

	var publisher broker.Publisher
	if cfg.Kafka.Enabled {
		publisher = broker.NewKafkaPublisher(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		defer publisher.Close()
		log.Info("kafka publisher ready", zap.String("topic", cfg.Kafka.Topic))
	}

	tm := postgres.NewTxManager(db)

	inventoryRepo := invrepo.NewPGRepository(db)
	cartRepo := cartrepo.NewPGRepository(db)
	orderRepo := orderrepo.NewPGRepository(db)
	paymentRepo := payrepo.NewPGRepository(db)
	shipmentRepo := shiprepo.NewPGRepository(db)
	returnsRepo := retrepo.NewPGRepository(db)

	inventoryUC := invuc.NewInventoryUseCase(inventoryRepo, tm, log)
	cartUC := cartuc.NewCartUseCase(cartRepo, inventoryRepo, tm, log)
	orderUC := orderuc.NewOrderUseCase(orderRepo, cartRepo, inventoryRepo, paymentRepo, shipmentRepo, tm, redisClient, publisher, log)
	paymentUC := payuc.NewPaymentUseCase(paymentRepo, orderRepo, log)
	returnsUC := retuc.NewReturnsUseCase(returnsRepo, orderRepo, inventoryRepo, paymentRepo, tm, redisClient, publisher, log, cfg.Returns.ProrateRefunds)

	cartHandler := carthandler.NewCartHandler(cartUC, log)
	orderHandler := orderhandler.NewOrderHandler(orderUC, log)
	inventoryHandler := invhandler.NewInventoryHandler(inventoryUC, log)
	paymentHandler := payhandler.NewPaymentHandler(paymentUC, log)
	returnsHandler := rethandler.NewReturnsHandler(returnsUC, log)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(api.RequestLogger(log))
	r.Use(api.Identity)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		api.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		cartHandler.MapRoutes(r)
		orderHandler.MapRoutes(r)
		returnsHandler.MapRoutes(r)

		r.Route("/admin", func(r chi.Router) {
			orderHandler.MapAdminRoutes(r)
			inventoryHandler.MapAdminRoutes(r)
			paymentHandler.MapAdminRoutes(r)
			returnsHandler.MapAdminRoutes(r)
		})
	})

	srv := &http.Server{
		Addr:         cfg.Server.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Server.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

func runMigrations(cfg *config.Config) error {
	dsn := fmt.Sprintf("pgx5://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(cfg.Postgres.User),
		url.QueryEscape(cfg.Postgres.Password),
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
	m, err := migrate.New(cfg.Server.MigrationsPath, dsn)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
