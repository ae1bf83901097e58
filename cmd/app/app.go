package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"communityboard/internal/config"
	"communityboard/internal/database"
	handlers "communityboard/internal/handler"
	"communityboard/internal/metrics"
	"communityboard/internal/middleware"
	"communityboard/internal/repository"
	"communityboard/internal/service"
	"communityboard/internal/storage"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// sweepInterval is how often idle in-memory rate limit buckets are dropped.
const sweepInterval = time.Minute

// App holds the wired application and the resources it must release.
type App struct {
	DB       *database.DB
	Repo     *repository.Repository
	Services *service.Service
	Handler  http.Handler

	redis *redis.Client
	log   logrus.FieldLogger
}

// New connects every dependency and builds the HTTP handler. Background
// work (rate limit sweeping) stops when ctx is cancelled.
func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	// connection DB
	db, err := database.ConnectDB(cfg, log)
	if err != nil {
		return nil, err
	}

	if err := db.RunMigrations(); err != nil {
		db.CloseDB()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	// connection MinIO
	minioClient, err := storage.NewMinIOClient(ctx, cfg.MinIO)
	if err != nil {
		db.CloseDB()
		return nil, fmt.Errorf("failed to initialize MinIO: %w", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	proxies, err := middleware.ParseProxies(cfg.TrustedProxies)
	if err != nil {
		db.CloseDB()
		return nil, fmt.Errorf("failed to parse TRUSTED_PROXIES: %w", err)
	}

	a := &App{DB: db, log: log}

	limiter, err := a.limiter(ctx, cfg)
	if err != nil {
		db.CloseDB()
		return nil, err
	}

	// enabling dependencies
	a.Repo = repository.NewRepository(db.DB)
	a.Services = service.NewService(a.Repo, cfg, minioClient, m, log)

	h := handlers.NewHandlers(a.Services, cfg, log)
	a.Handler = h.Router(handlers.RouterOptions{
		Limiter:  limiter,
		Observer: m,
		Metrics:  m.Handler(),
		Proxies:  proxies,
	})

	return a, nil
}

// limiter shares counters through Redis when REDIS_ADDR is set and falls
// back to per-process buckets otherwise.
func (a *App) limiter(ctx context.Context, cfg *config.Config) (middleware.Limiter, error) {
	if cfg.Redis.Addr == "" {
		limiter := middleware.NewMemoryLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		go limiter.Run(ctx, sweepInterval)
		a.log.Info("rate limiting with in-memory buckets")
		return limiter, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	a.redis = client
	a.log.WithField("addr", cfg.Redis.Addr).Info("rate limiting with redis")

	// the window admits the sustained rate plus the burst
	return middleware.NewRedisLimiter(client, cfg.RateLimit.RequestsPerSecond+cfg.RateLimit.Burst, time.Second), nil
}

func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("failed to close redis client")
		}
	}
	if err := a.DB.CloseDB(); err != nil {
		a.log.WithError(err).Warn("failed to close database")
	}
}
