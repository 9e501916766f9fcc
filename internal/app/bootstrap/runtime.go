package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"gorm.io/gorm"

	cacheadapter "github.com/viralforge/storefront/internal/adapters/cache"
	"github.com/viralforge/storefront/internal/adapters/database"
	eventadapter "github.com/viralforge/storefront/internal/adapters/events"
	grpcadapter "github.com/viralforge/storefront/internal/adapters/grpc"
	httpadapter "github.com/viralforge/storefront/internal/adapters/http"
	"github.com/viralforge/storefront/internal/adapters/security"
	"github.com/viralforge/storefront/internal/application"
	"github.com/viralforge/storefront/internal/ports"
)

type Runtime struct {
	cfg     Config
	logger  *slog.Logger
	db      *gorm.DB
	redis   *redis.Client
	repos   database.Repositories
	service *application.Service
	closers []io.Closer
}

// NewRuntime opens storage, optional Redis, and builds the application service.
// Redis is optional; without it login throttling is disabled.
func NewRuntime(ctx context.Context, cfg Config, logger *slog.Logger) (*Runtime, error) {
	logger.Info("bootstrapping storefront",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"db_driver", cfg.DBDriver,
	)

	db, err := database.Connect(ctx, database.Options{
		Driver:   cfg.DBDriver,
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.MaxDBConns,
	})
	if err != nil {
		return nil, err
	}

	repos, err := database.NewRepositories(db)
	if err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("init repositories: %w", err)
	}

	tokens, err := security.NewHMACSessionTokens(cfg.SessionSecret)
	if err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("init session tokens: %w", err)
	}

	var (
		redisClient *redis.Client
		lockouts    ports.LockoutStore
	)
	if cfg.RedisURL != "" {
		redisClient, err = cacheadapter.Connect(ctx, cfg.RedisURL)
		if err != nil {
			_ = database.Close(db)
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		lockouts = cacheadapter.NewRedisLoginThrottle(redisClient)
	} else {
		logger.Warn("REDIS_URL not set, login throttling disabled")
	}

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			Session: application.SessionConfig{
				Secret:       cfg.SessionSecret,
				CookieName:   cfg.SessionCookieName,
				MaxAge:       cfg.SessionMaxAge,
				SecureCookie: cfg.SessionCookieSecure,
			},
			FailedLoginThreshold: cfg.FailedThreshold,
			LockoutDuration:      cfg.LockoutDuration,
		},
		Users:     repos.Users,
		Sessions:  repos.Sessions,
		Products:  repos.Products,
		Orders:    repos.Orders,
		Analytics: repos.Analytics,
		Lockouts:  lockouts,
		Hasher:    security.NewBcryptHasher(cfg.BcryptCost),
		Tokens:    tokens,
	})

	return &Runtime{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		redis:   redisClient,
		repos:   repos,
		service: svc,
	}, nil
}

// Migrate applies the embedded schema migrations.
func (r *Runtime) Migrate(ctx context.Context) error {
	if err := database.RunMigrations(ctx, r.db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	r.logger.Info("migrations applied", "db_driver", r.cfg.DBDriver)
	return nil
}

// Seed migrates and then inserts the demo accounts and sample catalog.
func (r *Runtime) Seed(ctx context.Context) (application.SeedReport, error) {
	if err := r.Migrate(ctx); err != nil {
		return application.SeedReport{}, err
	}
	report, err := r.service.Seed(ctx)
	if err != nil {
		return application.SeedReport{}, fmt.Errorf("seed: %w", err)
	}
	r.logger.Info("seed complete", "users", report.Users, "products_created", report.ProductsCreated)
	return report, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer r.Close()

	if r.cfg.AutoMigrate {
		if err := r.Migrate(ctx); err != nil {
			return err
		}
	}

	handler := httpadapter.NewHandler(r.service, r.ping)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", r.cfg.HTTPPort),
		Handler:           httpadapter.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	grpcadapter.Register(grpcServer, grpcadapter.NewSessionInternalServer(r.service))

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("listen gRPC: %w", err)
	}

	errCh := make(chan error, 2)
	go func() {
		r.logger.Info("http server started", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		r.logger.Info("grpc server started", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case runErr = <-errCh:
		r.logger.Error("server failure", "error", runErr)
	}

	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	return runErr
}

// RunWorker drives the outbox relay and the expired-session sweeper until shutdown.
func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer r.Close()

	if r.cfg.AutoMigrate {
		if err := r.Migrate(ctx); err != nil {
			return err
		}
	}

	publisher, err := r.publisher()
	if err != nil {
		return err
	}

	outbox := eventadapter.NewOutboxWorker(r.logger, r.repos.Outbox, publisher, eventadapter.OutboxWorkerConfig{
		Interval:   r.cfg.OutboxPollInterval,
		BatchSize:  r.cfg.OutboxBatchSize,
		ClaimTTL:   r.cfg.OutboxClaimTTL,
		MaxRetries: r.cfg.OutboxMaxRetries,
	})
	sweeper := eventadapter.NewSessionSweeper(r.logger, r.service, r.cfg.SessionSweepInterval, r.cfg.SessionSweepBatchSize)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() { errCh <- outbox.Run(ctx) }()
	go func() { errCh <- sweeper.Run(ctx) }()
	r.logger.Info("worker started", "kafka_brokers", r.cfg.KafkaBrokers)

	var runErr error
	for i := 0; i < 2; i++ {
		err := <-errCh
		if err != nil && !errors.Is(err, context.Canceled) && runErr == nil {
			runErr = err
			r.logger.Error("worker loop failed", "error", err)
		}
		cancel()
	}
	return runErr
}

// OnClose registers c to be closed together with the runtime.
func (r *Runtime) OnClose(c io.Closer) {
	r.closers = append(r.closers, c)
}

// Close releases every backing connection. Safe to call more than once.
func (r *Runtime) Close() {
	for _, c := range r.closers {
		_ = c.Close()
	}
	r.closers = nil
	if r.redis != nil {
		_ = r.redis.Close()
		r.redis = nil
	}
	if r.db != nil {
		_ = database.Close(r.db)
		r.db = nil
	}
}

func (r *Runtime) publisher() (ports.EventPublisher, error) {
	if len(r.cfg.KafkaBrokers) == 0 {
		r.logger.Warn("KAFKA_BROKERS not set, outbox events are logged only")
		return eventadapter.NewLoggingPublisher(r.logger), nil
	}
	kafkaPublisher, err := eventadapter.NewKafkaPublisher(r.cfg.KafkaBrokers, eventadapter.DefaultTopics)
	if err != nil {
		return nil, fmt.Errorf("init kafka publisher: %w", err)
	}
	r.closers = append(r.closers, kafkaPublisher)
	return kafkaPublisher, nil
}

func (r *Runtime) ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if r.redis != nil {
		if err := r.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}
