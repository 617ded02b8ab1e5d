// Command server runs the saasify API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/saasify/saasify-api/internal/auth"
	"github.com/saasify/saasify-api/internal/authz"
	"github.com/saasify/saasify-api/internal/config"
	"github.com/saasify/saasify-api/internal/logging"
	"github.com/saasify/saasify-api/internal/password"
	"github.com/saasify/saasify-api/internal/ratelimit"
	"github.com/saasify/saasify-api/internal/server"
	"github.com/saasify/saasify-api/internal/store"
	"github.com/saasify/saasify-api/internal/store/memory"
	sqlstore "github.com/saasify/saasify-api/internal/store/sql"
	"github.com/saasify/saasify-api/internal/token"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; containers inject real environment.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	codec, err := token.NewCodec(cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("session codec: %w", err)
	}

	userStore, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer userStore.Close()

	ctx := context.Background()
	if err := userStore.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}

	policy, err := loadPolicy(cfg)
	if err != nil {
		return fmt.Errorf("route policy: %w", err)
	}

	global, login := buildLimiters(cfg, logger)
	defer global.Close()
	defer login.Close()

	svc := auth.NewService(userStore, password.NewArgon2Hasher(nil), codec, logger,
		auth.WithSessionTTL(cfg.SessionTTL))

	srv, err := server.New(cfg, server.Deps{
		Auth:          svc,
		Codec:         codec,
		Policy:        policy,
		GlobalLimiter: global,
		LoginLimiter:  login,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", cfg.HTTPAddress(), "env", cfg.Env, "store", cfg.StoreBackend)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func openStore(cfg config.Config) (store.UserStore, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres:
		return sqlstore.New(&sqlstore.Config{Dialect: sqlstore.PostgreSQL, DSN: cfg.DatabaseURL})
	case config.StoreMySQL:
		return sqlstore.New(&sqlstore.Config{Dialect: sqlstore.MySQL, DSN: cfg.DatabaseURL})
	default:
		return memory.New(), nil
	}
}

func loadPolicy(cfg config.Config) (*authz.Policy, error) {
	if cfg.PolicyFile != "" {
		return authz.LoadFromFile(cfg.PolicyFile)
	}
	return authz.Default()
}

func buildLimiters(cfg config.Config, logger *slog.Logger) (ratelimit.Limiter, ratelimit.Limiter) {
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		logger.Info("rate limiting via redis", "addr", cfg.RedisAddr)
		return ratelimit.NewRedisLimiter(client, "rl:global:", cfg.GlobalRateLimit, cfg.RateLimitWindow),
			ratelimit.NewRedisLimiter(client, "rl:login:", cfg.LoginRateLimit, cfg.RateLimitWindow)
	}

	return ratelimit.NewMemoryLimiter(cfg.GlobalRateLimit, cfg.RateLimitWindow),
		ratelimit.NewMemoryLimiter(cfg.LoginRateLimit, cfg.RateLimitWindow)
}
