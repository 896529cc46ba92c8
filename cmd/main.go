package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ayosnow_backend/internal/config"
	"ayosnow_backend/internal/interfaces"
	"ayosnow_backend/internal/middleware"
	"ayosnow_backend/internal/repository"
	"ayosnow_backend/internal/service"
	grpcserver "ayosnow_backend/internal/transport/grpc"
	"ayosnow_backend/internal/transport/rest"
	"ayosnow_backend/internal/utils"
	"ayosnow_backend/internal/utils/emaillock"
	"ayosnow_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	lg, err := logger.New(cfg.Logger())
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer lg.Sync()

	if err := run(cfg, lg); err != nil {
		lg.Fatal("Server stopped with error", zap.Error(err))
	}
	lg.Info("Server stopped")
}

func run(cfg *config.Config, lg *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := middleware.InitTracer(ctx, middleware.TracerConfig{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
	}, lg)
	if err != nil {
		return err
	}
	defer shutdownTracer(context.Background())

	store, err := openStore(ctx, cfg, lg)
	if err != nil {
		return err
	}

	passwords, err := utils.NewPasswordMatcher(cfg.PasswordMode)
	if err != nil {
		return err
	}
	if cfg.PasswordMode == utils.PasswordModePlain {
		lg.Warn("Passwords are stored and compared in plain text")
	}

	var (
		locker          interfaces.Locker = emaillock.NewLocalLocker(cfg.RegistrationLockWait)
		registerHandler []echo.MiddlewareFunc
	)
	if cfg.RedisAddr != "" {
		redisClient, err := repository.NewRedisUniversalClient(cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}

		locker = emaillock.NewRedisLocker(redisClient, emaillock.RegistrationPrefix, cfg.RegistrationLockTTL, cfg.RegistrationLockWait, lg)
		registerHandler = append(registerHandler, idempotency(redisClient, cfg.IdempotencyTTL, lg))
		lg.Info("Redis enabled for registration locks and idempotency")
	}

	accounts := service.NewAccountService(store, passwords, locker, lg)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	rest.RegisterErrorHandler(e, lg)
	e.Use(middleware.Tracing(lg))
	rest.NewHTTPServer(accounts, func() time.Time { return time.Now().UTC() }, lg).RegisterRoutes(e, registerHandler...)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           middleware.CORS(cfg.CORSAllowedOrigins, e),
		ReadHeaderTimeout: 10 * time.Second,
	}

	healthLis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCHealthPort))
	if err != nil {
		return fmt.Errorf("failed to listen for health checks: %w", err)
	}
	healthServer := grpcserver.NewHealthServer(store.Ping, 5*time.Second, lg)

	errCh := make(chan error, 2)
	go func() {
		if err := healthServer.Serve(ctx, healthLis); err != nil {
			errCh <- fmt.Errorf("health server: %w", err)
		}
	}()
	go func() {
		lg.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		lg.Info("Shutting down...")
	case err = <-errCh:
		lg.Error("Server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	healthServer.Stop()
	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		lg.Error("HTTP shutdown error", zap.Error(shutdownErr))
	}
	return err
}

func openStore(ctx context.Context, cfg *config.Config, lg *zap.Logger) (interfaces.UserStore, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		lg.Warn("Using in-memory user store; data is lost on restart")
		return repository.NewMemoryUserRepository(), nil
	}

	db, err := repository.OpenPostgres(cfg.Postgres())
	if err != nil {
		return nil, err
	}
	repo := repository.NewUserRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to migrate users table: %w", err)
	}
	lg.Info("Connected to database", zap.String("host", cfg.DBHost), zap.String("db", cfg.DBName))
	return repo, nil
}

func idempotency(client redis.UniversalClient, ttl time.Duration, lg *zap.Logger) echo.MiddlewareFunc {
	return middleware.Idempotency(middleware.NewRedisCache(client, lg), ttl, lg)
}
