package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/chairtimehq/chairtime/libs/clock"
	"github.com/chairtimehq/chairtime/libs/config"
	"github.com/chairtimehq/chairtime/libs/db"
	"github.com/chairtimehq/chairtime/libs/httpx"
	"github.com/chairtimehq/chairtime/libs/kafkax"
	otelx "github.com/chairtimehq/chairtime/libs/otel"
	"github.com/chairtimehq/chairtime/libs/runtime"
	"github.com/chairtimehq/chairtime/services/booking-service/internal/booking"
	"github.com/chairtimehq/chairtime/services/booking-service/internal/handlers"
	"github.com/chairtimehq/chairtime/services/booking-service/internal/observability/metrics"
	"github.com/chairtimehq/chairtime/services/booking-service/internal/outbox"
	"github.com/chairtimehq/chairtime/services/booking-service/internal/policy"
	"github.com/chairtimehq/chairtime/services/booking-service/internal/storage"
)

func main() {
	_ = godotenv.Load()

	service := config.String("SERVICE_NAME", "booking-service")
	port, err := config.Port("PORT", "8083")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL, db.Options{
		MaxConns: int32(config.Int("DB_MAX_CONNS", 10)),
		MinConns: int32(config.Int("DB_MIN_CONNS", 2)),
	})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	directory := storage.NewDirectoryRepository(pool)
	schedules := storage.NewScheduleRepository(pool)
	outboxRepo := outbox.NewRepository(pool)
	store := storage.NewBookingRepository(pool, outboxRepo)

	policyProvider := policy.NewTenantProvider(directory, config.Duration("CANCELLATION_CUTOFF", policy.DefaultCutoff))
	engine := booking.NewService(directory, schedules, store, policyProvider, clock.System(), logger)

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	outboxPublisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
		Brokers:   kafkaBrokers,
		PollEvery: config.Duration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		BatchSize: config.Int("OUTBOX_BATCH_SIZE", 50),
	})
	go outboxPublisher.Run(ctx)

	bookingMetrics := metrics.NewBookingMetrics(nil)
	handler := handlers.New(engine, bookingMetrics)

	checks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}
	if strings.TrimSpace(kafkaBrokers) != "" {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)})
	}

	var rdb *redis.Client
	if addr := config.String("REDIS_ADDR", ""); addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: addr})
		defer rdb.Close()
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: httpx.RedisReadyCheck(rdb)})
	}

	mux := runtime.NewBaseMux(checks...)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/v1/public/slots", handler.Slots)
	mux.HandleFunc("/api/v1/public/book", handler.Book)
	mux.HandleFunc("/api/v1/appointments", handler.ListAppointments)
	mux.HandleFunc("/api/v1/appointments/get", handler.GetAppointment)
	mux.HandleFunc("/api/v1/appointments/transition", handler.Transition)
	mux.HandleFunc("/api/v1/appointments/cancel", handler.Cancel)
	mux.HandleFunc("/api/v1/schedule", handler.UpsertSchedule)

	middlewares := []httpx.Middleware{
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(int64(config.Int("MAX_BODY_BYTES", 1<<20))),
	}
	if origins := config.String("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		middlewares = append(middlewares, httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins: strings.Split(origins, ","),
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut},
			AllowedHeaders: []string{"Content-Type", "X-Tenant-Id"},
			MaxAge:         10 * time.Minute,
		}))
	}
	rateLimit := config.Int("RATE_LIMIT_PER_MINUTE", 120)
	if rdb != nil {
		limiter := httpx.NewRedisRateLimiter(rdb, rateLimit, time.Minute, "ratelimit:"+service)
		middlewares = append(middlewares, limiter.Middleware(logger, true))
	} else {
		// Single-instance fallback when no Redis is configured.
		middlewares = append(middlewares, httpx.NewRateLimiter(rateLimit, time.Minute).Middleware())
	}

	httpHandler := httpx.Chain(mux, middlewares...)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}
