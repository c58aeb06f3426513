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

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"golang.org/x/sync/errgroup"

	"github.com/fjod/go_cart/chat-service/internal/catalog"
	"github.com/fjod/go_cart/chat-service/internal/config"
	"github.com/fjod/go_cart/chat-service/internal/events"
	h "github.com/fjod/go_cart/chat-service/internal/http"
	"github.com/fjod/go_cart/chat-service/internal/logger"
	"github.com/fjod/go_cart/chat-service/internal/repository"
	"github.com/fjod/go_cart/chat-service/internal/service"
	"github.com/fjod/go_cart/chat-service/internal/store"
)

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{
		Service: "chat-service",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})

	if err := run(cfg, log); err != nil {
		log.Error("chat-service stopped with error", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("chat-service stopped")
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Catalog
	repo, err := repository.NewRepository(cfg.CatalogDriver, cfg.CatalogDSN)
	if err != nil {
		return fmt.Errorf("connect catalog database: %w", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("catalog migrations completed", slog.String("driver", cfg.CatalogDriver))

	products := catalog.NewCatalog(repo)
	if err := products.Reload(ctx); err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	// Sessions and carts
	st, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close()

	// Checkout events
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
		log.Info("publishing checkout events",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.String("topic", cfg.KafkaTopic),
		)
	}
	defer publisher.Close()

	chat := service.NewChatService(st, st, products,
		service.WithSessionTimeout(cfg.SessionTimeout),
		service.WithPublisher(publisher),
	)

	otel.SetTextMapPropagator(propagation.TraceContext{})
	chatHandler := h.NewChatHandler(chat, cfg.RequestTimeout, cfg.PublicBaseURL)
	router := h.NewRouter(chatHandler, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "chat-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("chat-service starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	if cfg.SessionSweepInterval > 0 {
		sweeper := service.NewSweeper(chat, cfg.SessionSweepInterval)
		g.Go(func() error {
			sweeper.Run(gctx)
			return nil
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		log.Info("using in-memory session store")
		return store.NewMemoryStore(), nil

	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		log.Info("redis ping succeeded", slog.String("addr", cfg.RedisAddr))
		return store.NewRedisStore(client), nil

	case config.StoreMongo:
		db, err := store.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, fmt.Errorf("connect to MongoDB: %w", err)
		}
		mongoStore := store.NewMongoStore(db)
		if err := mongoStore.CreateIndexes(ctx); err != nil {
			_ = mongoStore.Close()
			return nil, fmt.Errorf("create mongo indexes: %w", err)
		}
		log.Info("connected to MongoDB", slog.String("database", cfg.MongoDBName))
		return mongoStore, nil

	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
}
