package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/target/mmk-blog/config"
	"github.com/target/mmk-blog/internal/adapters/hasher"
	redisadapter "github.com/target/mmk-blog/internal/adapters/redis"
	"github.com/target/mmk-blog/internal/data"
	httpx "github.com/target/mmk-blog/internal/http"
	"github.com/target/mmk-blog/internal/service"
)

// ServiceDeps contains dependencies for creating services.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// ServiceContainer holds the wired application services.
type ServiceContainer struct {
	Auth  *service.AuthService
	Posts *service.PostService
}

// NewPasswordHasher builds the hasher selected by configuration.
func NewPasswordHasher(cfg config.PasswordConfig) (*hasher.Hasher, error) {
	return hasher.New(hasher.Options{
		Algorithm:  hasher.Algorithm(cfg.Algorithm),
		BcryptCost: cfg.BcryptCost,
		Argon2: hasher.Argon2Params{
			MemoryKB:    cfg.Argon2MemoryKB,
			Time:        cfg.Argon2Time,
			Parallelism: cfg.Argon2Parallelism,
		},
	})
}

// NewServices wires repositories, the session store and the password hasher
// into the auth and post services.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return ServiceContainer{}, errors.New("service deps and config are required")
	}
	if deps.DB == nil {
		return ServiceContainer{}, errors.New("database is required")
	}
	if deps.RedisClient == nil {
		return ServiceContainer{}, errors.New("redis client is required for sessions")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	h, err := NewPasswordHasher(deps.Config.Password)
	if err != nil {
		return ServiceContainer{}, fmt.Errorf("password hasher: %w", err)
	}
	sessions := redisadapter.NewSessionStoreWithOptions(redisadapter.SessionStoreOptions{
		Client: deps.RedisClient,
		Prefix: deps.Config.Session.KeyPrefix,
	})

	return ServiceContainer{
		Auth: service.NewAuthService(service.AuthServiceOptions{
			Users:      data.NewUserRepo(deps.DB),
			Sessions:   sessions,
			Hasher:     h,
			SessionTTL: deps.Config.Session.TTL,
			Logger:     logger,
		}),
		Posts: service.NewPostService(service.PostServiceOptions{
			Posts:  data.NewPostRepo(deps.DB),
			Logger: logger,
		}),
	}, nil
}

// HealthChecks returns readiness probes for PostgreSQL and Redis.
func HealthChecks(db *sql.DB, client redis.UniversalClient) []httpx.HealthCheck {
	var checks []httpx.HealthCheck
	if db != nil {
		checks = append(checks, httpx.HealthCheck{Name: "postgres", Check: db.PingContext})
	}
	if client != nil {
		checks = append(checks, httpx.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
	}
	return checks
}

// RouterConfig contains what BuildHandler needs to assemble the HTTP handler.
type RouterConfig struct {
	Config      *config.AppConfig
	Services    ServiceContainer
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildHandler assembles the application router with its middleware.
func BuildHandler(cfg RouterConfig) (http.Handler, error) {
	if cfg.Config == nil {
		return nil, errors.New("router config missing AppConfig")
	}
	return httpx.NewRouter(httpx.RouterServices{
		DB:           cfg.DB,
		Auth:         cfg.Services.Auth,
		Posts:        cfg.Services.Posts,
		HealthChecks: HealthChecks(cfg.DB, cfg.RedisClient),
		CookieDomain: cfg.Config.HTTP.CookieDomain,
		IsDev:        cfg.Config.IsDev,
		Logger:       cfg.Logger,
	})
}
