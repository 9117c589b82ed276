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

	"narrative-engine/internal/api"
	"narrative-engine/internal/commands"
	"narrative-engine/internal/config"
	"narrative-engine/internal/convo"
	"narrative-engine/internal/generator"
	"narrative-engine/internal/llm"
	"narrative-engine/internal/logger"
	"narrative-engine/internal/messaging"
	"narrative-engine/internal/prompts"
	"narrative-engine/internal/repository"
	"narrative-engine/internal/service"
	"narrative-engine/internal/state"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	dbMaxRetries   = 30
	dbRetryDelay   = 3 * time.Second
	mqMaxRetries   = 5
	mqRetryDelay   = 5 * time.Second
	shutdownPeriod = 15 * time.Second
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	cfg.LogSummary(log)
	if err := run(cfg, log); err != nil {
		log.Fatal("Engine stopped with error", zap.Error(err))
	}
	log.Info("Engine stopped")
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := setupDatabase(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	if err := repository.Migrate(dbPool, log); err != nil {
		return err
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	defer func() { _ = redisClient.Close() }()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis at %s: %w", cfg.RedisAddr, err)
	}
	log.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))

	transport, err := llm.NewTransport(cfg, log)
	if err != nil {
		return err
	}
	llm.WarmTokenizer(log)

	provider, err := prompts.NewProvider(cfg.PromptsDir, log)
	if err != nil {
		return err
	}

	limits := convo.Limits{
		MaxContinuations: cfg.ConvoMaxContinuations,
		MaxResponseBytes: cfg.ConvoMaxResponseBytes,
	}
	gen := generator.New(transport, provider, limits, log)
	logic := service.NewLogic(gen, log)

	world := repository.NewWorldStore(dbPool, log)
	cache := repository.NewRedisCommandCache(redisClient, cfg.CommandCacheTTL, log)
	executor := commands.NewExecutor(logic, world, cache, log)
	newGame := func() *state.Game {
		return state.NewGame(world, logic, executor, cfg.StartPrompt, log)
	}

	handler := api.NewHandler(world, newGame, log)
	router := api.NewRouter(handler, api.Options{
		JWTSecret:          cfg.JWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Debug:              cfg.Env == "development",
	}, log)
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return provider.Watch(gctx)
	})

	g.Go(func() error {
		log.Info("Starting HTTP server", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownPeriod)
		defer cancel()
		log.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.WorkerEnabled {
		conn, err := connectRabbitMQ(gctx, cfg.RabbitMQURL, log)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		defer func() { _ = conn.Close() }()

		publisher, err := messaging.NewRabbitMQPublisher(conn, cfg.CommandResultQueue, log)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		defer func() { _ = publisher.Close() }()

		processor := messaging.NewTaskProcessor(newGame, publisher, cfg.LLMTimeout, log)
		consumer := messaging.NewConsumer(conn, cfg.CommandTaskQueue, processor, log)

		g.Go(func() error {
			if err := consumer.Start(gctx); err != nil {
				return fmt.Errorf("start command consumer: %w", err)
			}
			<-gctx.Done()
			return consumer.Stop()
		})
	}

	return g.Wait()
}

// setupDatabase подключается к PostgreSQL с повторами: база может подняться
// позже движка.
func setupDatabase(ctx context.Context, cfg *config.Config, log *zap.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	for attempt := 1; ; attempt++ {
		pool, err := connectOnce(ctx, poolConfig)
		if err == nil {
			log.Info("Connected to PostgreSQL", zap.String("dsn", cfg.MaskedDSN()))
			return pool, nil
		}
		if attempt == dbMaxRetries {
			return nil, fmt.Errorf("connect to PostgreSQL after %d attempts: %w", attempt, err)
		}
		log.Warn("PostgreSQL is not ready",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", dbMaxRetries),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dbRetryDelay):
		}
	}
}

func connectOnce(ctx context.Context, poolConfig *pgxpool.Config) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func connectRabbitMQ(ctx context.Context, url string, log *zap.Logger) (*amqp.Connection, error) {
	var lastErr error
	for attempt := 1; attempt <= mqMaxRetries; attempt++ {
		conn, err := amqp.Dial(url)
		if err == nil {
			log.Info("Connected to RabbitMQ")
			return conn, nil
		}
		lastErr = err
		log.Warn("RabbitMQ is not ready", zap.Int("attempt", attempt), zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(mqRetryDelay):
		}
	}
	return nil, fmt.Errorf("connect to RabbitMQ: %w", lastErr)
}
