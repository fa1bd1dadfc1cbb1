package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/stylebook/backend/api/handler"
	"github.com/stylebook/backend/internal/config"
	amqpInfra "github.com/stylebook/backend/internal/infrastructure/amqp"
	"github.com/stylebook/backend/internal/infrastructure/monitor"
	"github.com/stylebook/backend/internal/infrastructure/outbox"
	pgInfra "github.com/stylebook/backend/internal/infrastructure/postgres"
	redisInfra "github.com/stylebook/backend/internal/infrastructure/redis"
	"github.com/stylebook/backend/internal/middleware"
	"github.com/stylebook/backend/internal/router"
	"github.com/stylebook/backend/internal/services"
	"github.com/stylebook/backend/internal/services/lifecycle"
	"github.com/stylebook/backend/pkg/httpcontext"
	"github.com/stylebook/backend/pkg/logger"
	"github.com/stylebook/backend/repository/postgres"
	redisRepo "github.com/stylebook/backend/repository/redis"
	bookingUC "github.com/stylebook/backend/usecase/booking"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	outboxStore, err := outbox.Open(cfg.Outbox.Path, "outbox")
	if err != nil {
		zapLogger.Fatal("failed to open outbox store", zap.Error(err))
	}
	manager.Register("outbox", func(ctx context.Context) error {
		return outboxStore.Close()
	})

	broker, err := amqpInfra.NewPublisher(cfg.Amqp.URL, zapLogger)
	if err != nil {
		zapLogger.Fatal("rabbitmq connection failed", zap.Error(err))
	}
	manager.Register("rabbitmq", func(ctx context.Context) error {
		return broker.Close()
	})

	mon := monitor.New(pool, redisClient, outboxStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	eventStore := postgres.NewEventStore(pool)
	catalogRepo := postgres.NewCatalogRepository(pool)
	projectionCache := redisRepo.NewProjectionCache(redisClient, cfg.Booking.CacheTTL)

	outboundProcessor := services.NewOutboundProcessor(
		outboxStore,
		broker,
		zapLogger,
		services.OutboundConfig{
			Interval:   cfg.Outbox.DrainInterval,
			BatchSize:  cfg.Outbox.BatchSize,
			MaxRetries: cfg.Outbox.MaxRetry,
		},
	)
	outboundProcessor.Start()
	manager.Register("outbound_processor", func(ctx context.Context) error {
		outboundProcessor.Stop(ctx)
		return nil
	})

	outboundBridge := services.NewOutboundBridge(outboundProcessor)

	bookingUseCase := bookingUC.New(
		eventStore,
		catalogRepo,
		projectionCache,
		outboundBridge,
		outboundBridge,
		zapLogger,
		bookingUC.Config{
			AcceptanceWindow: cfg.Booking.AcceptanceWindow,
			PaymentWindow:    cfg.Booking.PaymentWindow,
			StartGrace:       cfg.Booking.StartGrace,
			ExpiryGrace:      cfg.Booking.ExpiryGrace,
			PlatformFeeRate:  cfg.Booking.PlatformFeeRate,
			MaxAppendRetries: cfg.Booking.MaxAppendRetries,
		},
	)

	sweeper := services.NewSweeper(eventStore, bookingUseCase, zapLogger, services.SweeperConfig{
		Interval: cfg.Booking.SweepInterval,
	})
	sweeper.Start()
	manager.Register("sweeper", func(ctx context.Context) error {
		sweeper.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Booking: apiHandler.NewBookingHandler(bookingUseCase, ctxAdapter, zapLogger),
		Health:  apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(cfg.JWT.Secret, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
