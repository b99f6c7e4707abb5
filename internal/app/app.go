// Package app wires the vault's dependencies and runs the HTTP server and the
// maintenance scheduler.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/auth"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/cipher"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/config"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/event"
	handler "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/handler/http"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/notification"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/repository/postgres"
	redisrepo "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/repository/redis"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/scheduler"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/service"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/storage"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/storage/memory"
	s3storage "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/storage/s3"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/migrations"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/database"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/health"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/httpclient"
	pkgkafka "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/kafka"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/middleware"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/tracing"
)

// ServiceName labels logs, traces and metrics.
const ServiceName = "trinity-vault"

// Version is stamped at build time with -ldflags.
var Version = "dev"

// App wires together all dependencies and runs the vault server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	scheduler      *scheduler.Scheduler
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		Enabled:        cfg.OTELEnabled,
		ServiceName:    ServiceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		Insecure:       cfg.OTELInsecure,
		SampleRatio:    cfg.OTELSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, tracerShutdown: tracerShutdown}
	if err := a.build(ctx); err != nil {
		_ = a.abort()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// PostgreSQL
	pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), logger)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	a.pool = pool
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(registry, pool); err != nil {
		return fmt.Errorf("register pool metrics: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")
	if cfg.SlowQuery > 0 {
		database.SetSlowQueryLogging(cfg.SlowQuery, logger)
	}

	// Redis
	rdb, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	a.redis = rdb
	logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))

	// Kafka. Without brokers events are dropped.
	var publisher event.Publisher = event.Discard{}
	if len(cfg.KafkaBrokers) > 0 {
		a.producer = pkgkafka.NewProducer(pkgkafka.ProducerConfig{
			Brokers:      cfg.KafkaBrokers,
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 5 * time.Second,
		}, pkgkafka.NewProducerMetrics(registry), logger)
		publisher = a.producer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Warn("no kafka brokers configured, domain events are discarded")
	}
	events := event.NewProducer(publisher)

	sender, err := newSender(cfg, registry, logger)
	if err != nil {
		return err
	}

	store, media, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}

	secrets, err := cipher.New(cfg.CipherKey, cfg.CipherSalt)
	if err != nil {
		return fmt.Errorf("init cipher: %w", err)
	}

	// Build the dependency graph.
	users := postgres.NewUserRepository(pool)
	refreshTokens := postgres.NewRefreshTokenRepository(pool)
	categories := postgres.NewCategoryRepository(pool)
	credentials := postgres.NewCredentialRepository(pool)
	auditLogs := postgres.NewAuditLogRepository(pool)
	codes := redisrepo.NewVerificationCodeRepository(rdb)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessExpiry)
	refresh := service.NewRefreshStore(refreshTokens, users, cfg.RefreshExpiry, logger)
	verification := service.NewVerificationService(codes, sender, notification.NewRenderer(cfg.EmailFrom, cfg.EmailSupport), logger)
	lifecycle := service.NewLifecycleService(users, refresh, auditLogs, events, logger)
	authService := service.NewAuthService(users, jwtManager, refresh, verification, lifecycle, auditLogs, events, cfg.PhoneRegion, logger)
	userService := service.NewUserService(users, refresh, store, auditLogs, events, cfg.PhoneRegion, logger)
	credentialService := service.NewCredentialService(credentials, categories, secrets, auditLogs, events, logger)
	categoryService := service.NewCategoryService(categories, auditLogs, logger)
	dashboardService := service.NewDashboardService(users, credentials, auditLogs)

	a.scheduler = scheduler.New(scheduler.NewMetrics(registry), logger,
		scheduler.Job{
			Name: "delete-frozen-accounts",
			Hour: 0,
			Run: func(ctx context.Context) error {
				_, err := lifecycle.SweepFrozen(ctx)
				return err
			},
		},
		scheduler.Job{
			Name: "purge-expired-refresh-tokens",
			Hour: 2,
			Run: func(ctx context.Context) error {
				_, err := refresh.SweepExpired(ctx)
				return err
			},
		},
	)

	// Health checks.
	healthHandler := health.NewHandler(2 * time.Second)
	healthHandler.Register("postgres", pool.Ping)
	healthHandler.Register("redis", codes.Ping)
	if a.producer != nil {
		healthHandler.Register("kafka", a.producer.Ping)
	}

	router := handler.NewRouter(handler.Services{
		Auth:          authService,
		Authenticator: authService,
		Verification:  verification,
		Lifecycle:     lifecycle,
		Users:         userService,
		Credentials:   credentialService,
		Categories:    categoryService,
		Dashboard:     dashboardService,
	}, healthHandler, middleware.NewHTTPMetrics(registry), registry, handler.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		PprofCIDRs:         cfg.PprofCIDRs,
		Media:              media,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return nil
}

// newSender picks the email transport. The HTTP relay sits behind retries and
// a circuit breaker.
func newSender(cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (notification.Sender, error) {
	switch cfg.EmailProvider {
	case "log":
		return notification.NewLogSender(logger), nil
	case "http":
		client := httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultBreakerConfig("email-relay"),
			httpclient.NewBreakerMetrics(reg),
			logger,
		)
		return notification.NewHTTPSender(client, cfg.EmailEndpoint, cfg.EmailAPIKey), nil
	}
	return nil, fmt.Errorf("unknown email provider %q", cfg.EmailProvider)
}

// newStorage picks the profile picture backend. The memory backend also
// returns the handler that serves its URLs.
func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, http.Handler, error) {
	switch cfg.StorageProvider {
	case "memory":
		mem := memory.New(cfg.PublicURL)
		return mem, mem, nil
	case "s3":
		store, err := s3storage.New(ctx, s3storage.Config{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			URLExpiry: cfg.S3URLExpiry,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init s3 storage: %w", err)
		}
		return store, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown storage provider %q", cfg.StorageProvider)
}

// Run starts the HTTP server and the scheduler and blocks until the context
// is canceled or the server fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	schedCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		a.scheduler.Run(schedCtx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case runErr = <-errCh:
	}
	stopScheduler()
	<-schedDone

	return errors.Join(runErr, a.Shutdown())
}

// Shutdown gracefully stops all components in order: HTTP server, tracer,
// Kafka producer, Redis, PostgreSQL.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// Flush spans after the HTTP drain so in-flight request spans are captured.
	errs = append(errs, a.flushTracer(), a.closeResources())

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// abort undoes a failed build: the tracer started before build is stopped
// along with whatever connections build managed to open.
func (a *App) abort() error {
	return errors.Join(a.flushTracer(), a.closeResources())
}

func (a *App) flushTracer() error {
	if a.tracerShutdown == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := a.tracerShutdown(ctx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// closeResources releases the connections opened by build. It tolerates a
// partially built App.
func (a *App) closeResources() error {
	var errs []error
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	return errors.Join(errs...)
}
