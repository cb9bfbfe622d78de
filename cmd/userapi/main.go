// Command userapi serves the paginated users API consumed by userlist.
//
// @title Users API
// @version 1.0
// @description Paginated user directory backing the userlist infinite-scroll client.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token from `userapi token`.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"userlist/config"
	_ "userlist/docs"
	"userlist/internal/adapters/auth"
	"userlist/internal/adapters/cache"
	delivery "userlist/internal/delivery/http"
	"userlist/internal/delivery/http/controllers"
	"userlist/internal/domain"
	"userlist/internal/observability"
	"userlist/internal/repository/postgres"
	"userlist/internal/services"
)

const usage = `usage: userapi [command] [flags]

commands:
  serve                 run the HTTP API (default)
  seed -n N             insert N generated users
  token -sub S -ttl D   print a bearer token for the client
`

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := config.NewLogger(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		err = runServe(ctx, cfg, logger)
	case "seed":
		err = runSeed(ctx, cfg, logger, args)
	case "token":
		err = runToken(cfg, args, os.Stdout)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("userapi failed", "command", cmd, "err", err)
		os.Exit(1)
	}
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// openCache connects to Redis when an address is configured. A nil client
// disables caching.
func openCache(ctx context.Context, cfg *config.ServerConfig, logger *slog.Logger) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	client, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("count cache disabled", "addr", cfg.RedisAddr, "err", err)
		return nil
	}
	return client
}

func newHandler(cfg *config.ServerConfig, repo domain.UserRepository, countCache domain.CountCache, logger *slog.Logger) http.Handler {
	metrics := observability.NewMetrics()
	svc := services.NewUserDirectoryService(repo, countCache, logger, cfg.RequestTimeout)
	users := controllers.NewUserController(logger, svc)
	users.Pages = metrics

	var verifier domain.TokenVerifier
	if cfg.JWTSecret != "" {
		verifier = auth.NewJWTVerifier(cfg.JWTSecret)
	}
	return delivery.NewRouter(delivery.RouterConfig{
		Logger:         logger,
		Users:          users,
		Metrics:        metrics,
		Verifier:       verifier,
		AllowedOrigins: cfg.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
		Production:     cfg.IsProduction(),
	})
}

func runServe(ctx context.Context, cfg *config.ServerConfig, logger *slog.Logger) error {
	db, err := openDB(ctx, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := openCache(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newHandler(cfg, postgres.NewUserRepository(db), cache.NewCountCache(redisClient, cfg.CountCacheTTL), logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("starting users API", "addr", srv.Addr, "auth", cfg.JWTSecret != "", "cache", redisClient != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down users API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("users API stopped")
	return nil
}

func runSeed(ctx context.Context, cfg *config.ServerConfig, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	n := fs.Int("n", 1000, "number of users to insert")
	batch := fs.Int("batch", 1000, "users per COPY batch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n <= 0 {
		return fmt.Errorf("seed: -n must be positive, got %d", *n)
	}

	db, err := openDB(ctx, cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := openCache(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	seeder := &services.Seeder{
		Repo:      postgres.NewUserRepository(db),
		Cache:     cache.NewCountCache(redisClient, cfg.CountCacheTTL),
		Logger:    logger,
		BatchSize: *batch,
	}
	written, err := seeder.Seed(ctx, *n, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)))
	if err != nil {
		return err
	}
	logger.Info("seed complete", "users", written)
	return nil
}

func runToken(cfg *config.ServerConfig, args []string, w io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	subject := fs.String("sub", "userlist", "token subject")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("token: %w", err)
	}
	if cfg.JWTSecret == "" {
		return errors.New("token: USERAPI_JWT_SECRET is not set")
	}
	token, err := auth.NewJWTIssuer(cfg.JWTSecret).Issue(*subject, *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}
