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

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/cashbook/internal/adapter/http"
	"github.com/iho/cashbook/internal/adapter/http/handler"
	"github.com/iho/cashbook/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/cashbook/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/cashbook/internal/adapter/repository/redis"
	"github.com/iho/cashbook/internal/infrastructure/auth"
	"github.com/iho/cashbook/internal/infrastructure/config"
	"github.com/iho/cashbook/internal/infrastructure/logger"
	"github.com/iho/cashbook/internal/infrastructure/metrics"
	"github.com/iho/cashbook/internal/infrastructure/postgres"
	"github.com/iho/cashbook/internal/infrastructure/redis"
	"github.com/iho/cashbook/internal/usecase"
)

const limiterCleanupInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	logs := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = logs

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate {
		if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, logs).Up(); err != nil {
			log.Fatal().Err(err).Msg("failed to run migrations")
		}
	}

	m := metrics.New()

	// The store connects in the background; requests fail fast until it is ready.
	provider := newStoreProvider(cfg, logs, m)
	provider.Start(ctx)
	defer provider.Close()

	var redisClient *goredis.Client
	if cfg.RedisEnabled {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL, redis.Options{
			PoolSize:    cfg.RedisPoolSize,
			DialTimeout: cfg.RedisDialTimeout,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiter.OnLimited = m.RateLimited
	go limiter.Run(ctx, limiterCleanupInterval)

	router := buildRouter(cfg, logs, provider, redisClient, m, limiter)
	server := newHTTPServer(cfg, router)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("version", cfg.Version).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		log.Error().Err(err).Msg("server failed")
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func newStoreProvider(cfg *config.Config, logs zerolog.Logger, m *metrics.Metrics) *postgres.Provider {
	connector := postgres.NewConnector(postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})

	return postgres.NewProvider(connector, postgres.ProviderOptions{
		ReconnectInterval: cfg.StoreReconnectInterval,
		HealthInterval:    cfg.StoreHealthInterval,
		Logger:            logs.With().Str("component", "store").Logger(),
		OnStateChange:     m.SetStoreState,
	})
}

// buildRouter wires repositories, use cases and handlers. redisClient may be
// nil, which disables the particular cache and idempotency.
func buildRouter(
	cfg *config.Config,
	logs zerolog.Logger,
	source postgresRepo.PoolSource,
	redisClient *goredis.Client,
	m *metrics.Metrics,
	limiter *middleware.RateLimiter,
) http.Handler {
	// Repositories
	txManager := postgresRepo.NewTxManager(source)
	retrier := postgresRepo.NewRetrier()
	if inv, ok := source.(postgresRepo.Invalidator); ok {
		retrier.WithInvalidator(inv)
	}
	bankRepo := postgresRepo.NewBankRepository(source)
	branchRepo := postgresRepo.NewBranchRepository(source)
	accountRepo := postgresRepo.NewAccountRepository(source)
	entryRepo := postgresRepo.NewEntryRepository(source)
	ledgerRepo := postgresRepo.NewLedgerRepository(source)
	particularRepo := postgresRepo.NewParticularRepository(source)
	expenseRepo := postgresRepo.NewExpenseRepository(source)
	refGen := postgresRepo.NewReferenceGenerator()

	// Use cases
	guard := usecase.NewUniquenessGuard(accountRepo)
	bankUC := usecase.NewBankUseCase(txManager, retrier, bankRepo, branchRepo, accountRepo, guard, m)
	branchUC := usecase.NewBranchUseCase(txManager, retrier, bankRepo, branchRepo, accountRepo, guard, m)
	accountUC := usecase.NewAccountUseCase(txManager, retrier, accountRepo, branchRepo, guard)
	ledgerUC := usecase.NewLedgerUseCase(txManager, retrier, accountRepo, entryRepo, particularRepo, expenseRepo, refGen, m)
	reconciliationUC := usecase.NewReconciliationUseCase(ledgerRepo)

	routerCfg := httpAdapter.RouterConfig{
		Logger:         logs,
		IdempotencyTTL: cfg.IdempotencyTTL,
		RateLimiter:    limiter,
		Metrics:        m,
	}

	var redisPinger handler.Pinger
	if redisClient != nil {
		ledgerUC.WithParticularCache(redisRepo.NewCache(redisClient), cfg.ParticularCacheTTL)
		routerCfg.IdempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		redisPinger = handler.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	if cfg.AuthEnabled {
		routerCfg.JWTManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}

	routerCfg.BankHandler = handler.NewBankHandler(bankUC)
	routerCfg.BranchHandler = handler.NewBranchHandler(branchUC)
	routerCfg.AccountHandler = handler.NewAccountHandler(accountUC)
	routerCfg.TransactionHandler = handler.NewTransactionHandler(ledgerUC)
	routerCfg.LedgerHandler = handler.NewLedgerHandler(reconciliationUC)
	routerCfg.HealthHandler = handler.NewHealthHandler(storePinger(source), redisPinger, cfg.Version)

	return httpAdapter.NewRouter(routerCfg)
}

// storePinger pings whatever pool the source currently holds.
func storePinger(source postgresRepo.PoolSource) handler.Pinger {
	return handler.PingerFunc(func(ctx context.Context) error {
		pool, err := source.Acquire()
		if err != nil {
			return err
		}
		return pool.Ping(ctx)
	})
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}
