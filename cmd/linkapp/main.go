package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"linkapp/internal/analytics/consumer"
	chrepo "linkapp/internal/analytics/repository/clickhouse"
	"linkapp/internal/analytics/sink"
	"linkapp/internal/cache"
	"linkapp/internal/config"
	deliveryhttp "linkapp/internal/delivery/http"
	"linkapp/internal/eventbus"
	linkpostgres "linkapp/internal/link/repository/postgres"
	linkusecase "linkapp/internal/link/usecase"
	statsusecase "linkapp/internal/stats/usecase"
	"linkapp/migrations"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "go.uber.org/automaxprocs"
)

var flagconf string

func init() {
	flag.StringVar(&flagconf, "conf", "configs/config.yaml", "config path, eg: -conf config.yaml")
}

func main() {
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Fatal("linkapp exited", zap.Error(err))
	}
}

func run(logger *zap.Logger) error {
	cfg, err := config.Load(flagconf)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Postgres: schema first, then the shared pool.
	if err := migrateUp(cfg.Postgres.DSN); err != nil {
		return err
	}
	pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	chConn, err := openClickHouse(ctx, cfg.ClickHouse)
	if err != nil {
		return err
	}
	defer chConn.Close()

	appendSink := sink.NewAppendSink(chConn, cfg.ClickHouse.Table)
	if err := appendSink.ValidateSchema(ctx); err != nil {
		// Schema mismatch is non-transient; stop here rather than let the
		// consumer spin on redelivery.
		return err
	}

	bus := eventbus.New(eventbus.NewZapLoggerAdapter(logger))
	defer bus.Close()

	linkRepo := linkpostgres.NewLinkRepository(pool)
	linkCache := cache.NewRedisLinkCache(rdb, cfg.Cache.LinkTTL.Std(), logger)
	statsCache := cache.NewRedisStatsCache(rdb, cfg.Cache.StatsTTL.Std(), logger)
	publisher := eventbus.NewPublisher(bus.Publisher())

	resolver := linkusecase.NewResolver(linkRepo, linkCache, publisher, logger)
	statsService := statsusecase.NewStatsService(
		linkRepo,
		chrepo.NewClickRepository(chConn, cfg.ClickHouse.Table),
		statsCache,
		logger,
	)

	clickConsumer := consumer.New(
		bus.Subscriber(),
		[]sink.Sink{sink.NewAuditSink(pool), appendSink},
		consumer.Config{
			Size:          cfg.Consumer.BatchSize,
			FlushInterval: cfg.Consumer.FlushInterval.Std(),
			PollInterval:  cfg.Consumer.PollInterval.Std(),
		},
		logger,
	)

	// The consumer outlives the signal context: it must keep draining while
	// the HTTP server shuts down, so clicks published mid-drain still flush.
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := clickConsumer.Run(consumerCtx); err != nil {
			logger.Error("click consumer stopped", zap.Error(err))
			stop()
		}
	}()

	handler := deliveryhttp.NewHandler(resolver, statsService, logger)
	gate := deliveryhttp.NewAdmissionGate(cfg.RateLimit.RequestsPerMinute)
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: deliveryhttp.NewRouter(handler, logger, gate),
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		stop()
		stopConsumer()
		wg.Wait()
		return fmt.Errorf("http server: %w", err)
	}

	// Drain HTTP first so no new clicks are published, then let the consumer
	// flush its final batch.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}

	stopConsumer()
	wg.Wait()
	logger.Info("shutdown complete")
	return nil
}

func migrateUp(dsn string) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open postgres for migrations: %w", err)
	}
	defer db.Close()

	if err := migrations.Up(db); err != nil {
		return err
	}
	return nil
}

func openClickHouse(ctx context.Context, cfg config.ClickHouseConfig) (driver.Conn, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("connect clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}

	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		short_code String,
		ip_address String,
		user_agent String,
		event_id   UUID,
		clicked_at DateTime
	) ENGINE = MergeTree ORDER BY (short_code, clicked_at)`, cfg.Table)
	if err := conn.Exec(ctx, ddl); err != nil {
		return nil, fmt.Errorf("ensure clickhouse table: %w", err)
	}

	return conn, nil
}
