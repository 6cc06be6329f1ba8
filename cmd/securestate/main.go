package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/xela07ax/securestate/internal/audit"
	"github.com/xela07ax/securestate/internal/catalog"
	"github.com/xela07ax/securestate/internal/codec"
	"github.com/xela07ax/securestate/internal/infra"
	"github.com/xela07ax/securestate/internal/kv"
	"github.com/xela07ax/securestate/internal/metrics"
	"github.com/xela07ax/securestate/internal/notify"
	"github.com/xela07ax/securestate/internal/ops"
	"github.com/xela07ax/securestate/internal/repository/postgres"
	"github.com/xela07ax/securestate/internal/repository/rediskv"
	"github.com/xela07ax/securestate/internal/security"
	"github.com/xela07ax/securestate/internal/validation"
)

func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("securestate stopped with error", zap.Error(err))
	}
}

func run(cfg *infra.Config, logger *zap.Logger) error {
	// Контекст для управления жизненным циклом фоновых горутин
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Метрики
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	probes := map[string]ops.Probe{}

	// 2. Инфраструктура и ресурсы
	var db *sql.DB
	if cfg.Database.URL != "" {
		var err error
		db, err = postgres.Open(cfg.Database.URL, postgres.PoolConfig{
			MaxOpenConns: cfg.Database.MaxConns,
			MaxIdleConns: cfg.Database.MinConns,
		})
		if err != nil {
			return err
		}
		defer db.Close()

		// Проверяем соединение с таймаутом
		pingCtx, pingCancel := context.WithTimeout(appCtx, 5*time.Second)
		err = postgres.Ping(pingCtx, db)
		pingCancel()
		if err != nil {
			return fmt.Errorf("database unreachable: %w", err)
		}
		probes["postgres"] = func(ctx context.Context) error { return postgres.Ping(ctx, db) }
	}

	var rdb *redis.Client
	if cfg.Store.Backend == "redis" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(appCtx).Err(); err != nil {
			return fmt.Errorf("redis unreachable: %w", err)
		}
		probes["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	// 3. Журнал безопасности: пачками в Postgres
	var sinks []audit.Sink
	if cfg.Audit.Persist {
		trail := audit.NewTrail(postgres.NewAuditRepo(db), audit.TrailConfig{
			BufferSize:    cfg.Audit.BufferSize,
			BatchSize:     cfg.Audit.BatchSize,
			FlushInterval: cfg.Audit.FlushInterval,
		}, logger, m)
		trail.Start()
		// Останавливаем до закрытия БД: defer-ы выполняются в обратном порядке
		defer trail.Stop()
		sinks = append(sinks, trail)
	}

	// 4. Контекст безопасности
	sc, err := security.NewContext(security.Config{
		CodecKey:        codecKey(cfg.Codec),
		FormMaxAttempts: cfg.Limiter.FormMaxAttempts,
		FormWindow:      cfg.Limiter.FormWindow,
		CustomRules:     customRules(cfg.Validation),
		Notifier:        notify.NewThrottled(notify.NewLogNotifier(logger), cfg.Notify.RatePerSecond, cfg.Notify.Burst, m),
		Development:     !cfg.IsProduction(),
	}, logger, m, sinks...)
	if err != nil {
		return err
	}

	// 5. Хранилище клиентского состояния
	backend, err := newBackend(cfg, db, rdb, logger, m)
	if err != nil {
		return err
	}

	customers := catalog.OpenCustomerBook(appCtx, sc, backend)
	inventory := catalog.OpenInventory(appCtx, sc, backend)
	logger.Info("client state loaded",
		zap.String("backend", cfg.Store.Backend),
		zap.Int("customers", len(customers.List())),
		zap.Int("products", len(inventory.List())),
		zap.Int("low_stock", len(inventory.LowStock())),
	)

	// Сигналы изменений от других инстансов
	if rdb != nil && cfg.Store.Watch {
		watcher := rediskv.NewWatcher(rdb, infra.RedisChanStateChanged(cfg.Redis.Namespace), logger)
		watcher.Watch(customers.Key(), customers.Refresh)
		watcher.Watch(inventory.Key(), inventory.Refresh)
		go watcher.Run(appCtx)
	}

	// 6. Служебный HTTP
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      ops.NewServer(logger, reg, probes),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("ops endpoint started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	}
	logger.Info("securestate stopping...")
	cancel()

	// Даем 5 секунд на завершение запросов
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("securestate exited properly")
	return nil
}

func codecKey(cfg infra.CodecConfig) []byte {
	if cfg.Salt != "" {
		return codec.DeriveKey(cfg.Key, cfg.Salt, cfg.Iterations)
	}
	return []byte(cfg.Key)
}

func customRules(cfg infra.ValidationConfig) map[string]validation.CustomRule {
	out := make(map[string]validation.CustomRule, len(cfg.CustomRules))
	for name, r := range cfg.CustomRules {
		out[name] = validation.CustomRule{Expr: r.Expr, Sanitizer: r.Sanitizer, Message: r.Message}
	}
	return out
}

// newBackend выбирает хранилище; внешние оборачиваются в Circuit Breaker и повторы.
func newBackend(cfg *infra.Config, db *sql.DB, rdb *redis.Client, logger *zap.Logger, m *metrics.Metrics) (kv.Backend, error) {
	breaker := kv.ResilientConfig{
		Name:             cfg.Store.Backend,
		MaxRequests:      cfg.Breaker.MaxRequests,
		Interval:         cfg.Breaker.Interval,
		Timeout:          cfg.Breaker.Timeout,
		FailureThreshold: cfg.Breaker.FailureThreshold,
		Attempts:         cfg.Breaker.RetryAttempts,
		RetryDelay:       cfg.Breaker.RetryDelay,
	}

	switch cfg.Store.Backend {
	case "memory":
		return kv.NewMemory(), nil
	case "redis":
		ns := cfg.Redis.Namespace
		next := rediskv.New(rdb, infra.RedisStatePrefix(ns), infra.RedisChanStateChanged(ns))
		return kv.NewResilient(next, breaker, logger, m), nil
	case "postgres":
		return kv.NewResilient(postgres.NewKVRepo(db), breaker, logger, m), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
