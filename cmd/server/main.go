package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"warehouse-be/internal/api"
	"warehouse-be/internal/auth"
	"warehouse-be/internal/cache"
	"warehouse-be/internal/config"
	"warehouse-be/internal/db"
	"warehouse-be/internal/inventory"
	"warehouse-be/internal/kafka"
	"warehouse-be/internal/logger"
	"warehouse-be/internal/metrics"
	"warehouse-be/internal/middleware"
	"warehouse-be/internal/order"
	"warehouse-be/internal/user"

	"go.uber.org/zap"
)

const (
	shutdownTimeout = 10 * time.Second
	producerBuffer  = 1024
)

var (
	initDBFunc      = db.InitDB
	startServerFunc = serve
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server exited", zap.Error(err))
	}
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv, zap.String("app", cfg.AppName))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn := initDBFunc(cfg)
	defer conn.Close()

	handler, cleanup := newServer(ctx, cfg, conn)
	defer cleanup()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return startServerFunc(ctx, srv)
}

// newServer wires every collaborator and returns the root handler plus a
// cleanup that stops background workers.
func newServer(ctx context.Context, cfg *config.Config, conn *sql.DB) (http.Handler, func()) {
	log := logger.L()
	reg := metrics.NewRegistry()

	users := user.NewRepository(conn)
	authSvc := auth.NewService(conn, users,
		auth.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL),
		auth.NewRefreshTokens(cfg.RefreshTokenSalt, cfg.RefreshTokenTTL),
	)

	opts := []order.Option{order.WithMetrics(reg)}
	var cleanups []func()

	if cfg.RedisAddr != "" {
		rdb := cache.NewClient(cfg.RedisAddr)
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := cache.Ping(pingCtx, rdb); err != nil {
			log.Warn("redis unreachable, order cache will miss until it recovers", zap.Error(err))
		}
		cancel()
		opts = append(opts, order.WithCache(cache.NewOrderCache(rdb, cfg.OrderCacheTTL)))
		cleanups = append(cleanups, func() { _ = rdb.Close() })
		log.Info("order cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	if len(cfg.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaOrderTopic, producerBuffer)
		producer.Start()
		opts = append(opts, order.WithPublisher(kafka.NewOrderEventPublisher(producer, cfg.AppName)))
		cleanups = append(cleanups, func() {
			producer.Close()
			producer.WaitClosed()
		})
		log.Info("order events enabled", zap.String("topic", cfg.KafkaOrderTopic))
	}

	limiter := middleware.NewRateLimiter(middleware.AuthPathsStrict)
	cleanups = append(cleanups, limiter.Stop)

	handler := api.NewRouter(api.Deps{
		AppName:  cfg.AppName,
		Auth:     authSvc,
		Orders:   order.NewService(conn, inventory.NewLedger(), opts...),
		Products: inventory.NewService(conn),
		DB:       conn,
		Metrics:  reg,
		Limiter:  limiter,
	})

	return handler, func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
}

// serve blocks until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server) error {
	log := logger.L()
	errCh := make(chan error, 1)

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
