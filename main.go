package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	appcart "github.com/Zhima-Mochi/minishop-storefront/internal/application/cart"
	appcatalog "github.com/Zhima-Mochi/minishop-storefront/internal/application/catalog"
	"github.com/Zhima-Mochi/minishop-storefront/internal/application/checkout"
	appinventory "github.com/Zhima-Mochi/minishop-storefront/internal/application/inventory"
	apporder "github.com/Zhima-Mochi/minishop-storefront/internal/application/order"
	apppayment "github.com/Zhima-Mochi/minishop-storefront/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/config"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/placement"
	"github.com/Zhima-Mochi/minishop-storefront/internal/domain/store"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/eventstream"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/payment"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/rediscache"
	"github.com/Zhima-Mochi/minishop-storefront/internal/infrastructure/sqlstore"
	"github.com/Zhima-Mochi/minishop-storefront/internal/observability"
	"github.com/Zhima-Mochi/minishop-storefront/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/minishop-storefront/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-storefront/internal/presentation/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	baseLogger, err := logging.NewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	if err != nil {
		return err
	}
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)
	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint, cfg.Env)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	tel := infraobs.NewStandard(
		prometrics.New(reg, "", ""),
		oteltrace.New(nil, cfg.ServiceName),
		zaplogger.Wrap(baseLogger),
	)
	log := tel.Logger()

	db, err := openPersistence(cfg)
	if err != nil {
		return err
	}
	log.Info("store_opened", observability.F("driver", cfg.DBDriver))

	cache := openCache(ctx, cfg, log)

	bus := outbox.NewBus(log, outbox.WithContextDecorator(workerpresentation.EventContextDecorator(tel)))
	appcatalog.NewWorker(bus, cache, tel).Start()
	appinventory.NewWorker(bus, tel).Start()
	apppayment.NewWorker(bus, tel).Start()

	var forwarder *eventstream.Forwarder
	if cfg.KafkaBrokers != "" {
		forwarder = eventstream.NewForwarder(eventstream.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic), tel)
		forwarder.Subscribe(bus,
			order.PlacedEvent{}.EventName(),
			order.PaymentCapturedNotPlacedEvent{}.EventName(),
			inventory.StockChangedEvent{}.EventName(),
			inventory.LowStockEvent{}.EventName(),
		)
		log.Info("event_forwarding_enabled", observability.F("topic", cfg.KafkaTopic))
	}
	bus.Start(ctx)

	ids := id.NewUUIDGenerator()
	gateway := payment.NewSimulator()
	svc := httppresentation.Services{
		Cart:    appcart.NewService(db.uow, tel),
		Catalog: appcatalog.NewService(db.uow, ids, cache, cfg.CacheTTL, bus, tel),
		Orders:  apporder.NewService(db.uow, tel),
		PlaceOrder: checkout.NewPlaceOrderUseCase(db.uow, gateway, ids, bus, db.audit, tel,
			checkout.Options{Timeout: cfg.PlacementTimeout, LowStockThreshold: cfg.LowStockThreshold}),
		Intents: checkout.NewCreatePaymentIntentUseCase(db.uow, gateway, db.audit, tel),
		Refunds: apppayment.NewRefundUseCase(gateway, db.audit, db.uow, tel),
	}

	if cfg.JWTSecret == "" {
		log.Warn("jwt_secret_missing", observability.F("detail", "trusting X-User-ID header"))
	}
	handler := httppresentation.NewHandler(svc, httppresentation.Options{
		Auth:        httppresentation.NewAuthenticator(cfg.JWTSecret),
		Limiter:     httppresentation.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		CORSOrigins: cfg.CORSOrigins,
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
		Ready:       db.ready,
	}, log, tel)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		systemLogger.Info("http_server_start", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			systemLogger.Error("http_server_error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error", zap.Error(err))
	} else {
		systemLogger.Info("http_server_stopped")
	}
	bus.Stop(shutdownCtx)
	if forwarder != nil {
		if err := forwarder.Close(); err != nil {
			systemLogger.Warn("event_forwarder_close_error", zap.Error(err))
		}
	}
	if err := db.close(); err != nil {
		systemLogger.Warn("store_close_error", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		systemLogger.Warn("tracer_shutdown_error", zap.Error(err))
	}
	return nil
}

type persistence struct {
	uow   store.UnitOfWork
	audit placement.Log
	ready func(ctx context.Context) error
	close func() error
}

func openPersistence(cfg config.Config) (*persistence, error) {
	if cfg.DBDriver == "memory" {
		return &persistence{
			uow:   memory.NewStore(),
			audit: memory.NewPlacementLog(),
			close: func() error { return nil },
		}, nil
	}
	s, err := sqlstore.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	return &persistence{
		uow:   s,
		audit: sqlstore.NewPlacementLog(s),
		ready: s.Ping,
		close: s.Close,
	}, nil
}

// openCache prefers Redis and degrades to the in-process cache when it is
// not configured or not reachable at start.
func openCache(ctx context.Context, cfg config.Config, log observability.Logger) appcatalog.Cache {
	if cfg.RedisAddr == "" {
		return memory.NewCache()
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rdb, err := rediscache.NewClient(pingCtx, cfg.RedisAddr, cfg.RedisPassword, 0)
	if err != nil {
		log.Warn("redis_unavailable", observability.F("error", err), observability.F("fallback", "memory"))
		return memory.NewCache()
	}
	return rediscache.New(rdb)
}
