package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/interceptor/api/dispatch"
	apiHandler "github.com/fastygo/interceptor/api/handler"
	"github.com/fastygo/interceptor/internal/catalog"
	"github.com/fastygo/interceptor/internal/config"
	"github.com/fastygo/interceptor/internal/events"
	"github.com/fastygo/interceptor/internal/infrastructure/buffer"
	kafkaInfra "github.com/fastygo/interceptor/internal/infrastructure/kafka"
	"github.com/fastygo/interceptor/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/interceptor/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/interceptor/internal/infrastructure/redis"
	"github.com/fastygo/interceptor/internal/proxy"
	"github.com/fastygo/interceptor/internal/router"
	"github.com/fastygo/interceptor/internal/services"
	"github.com/fastygo/interceptor/internal/services/lifecycle"
	"github.com/fastygo/interceptor/pkg/httpcontext"
	"github.com/fastygo/interceptor/repository"
	boltStore "github.com/fastygo/interceptor/repository/bolt"
	"github.com/fastygo/interceptor/repository/memory"
	pgStore "github.com/fastygo/interceptor/repository/postgres"
	redisStore "github.com/fastygo/interceptor/repository/redis"
	"github.com/fastygo/interceptor/usecase"
	insuranceUC "github.com/fastygo/interceptor/usecase/insurance"
	messagingUC "github.com/fastygo/interceptor/usecase/messaging"
	searchUC "github.com/fastygo/interceptor/usecase/search"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interception proxy",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, zapLogger, err := bootstrap()
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	appCtx, cancel := manager.Context(cmd.Context())
	defer cancel()

	if err := serve(appCtx, cfg, manager, zapLogger); err != nil {
		zapLogger.Error("startup failed", zap.Error(err))
		if shutdownErr := manager.Shutdown(context.Background()); shutdownErr != nil {
			zapLogger.Error("graceful shutdown error", zap.Error(shutdownErr))
		}
		return err
	}

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
		return err
	}
	return nil
}

// serve wires every component, registering each with manager as soon as it
// exists, and starts listening.
func serve(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) error {
	store, err := openStore(ctx, cfg, manager, zapLogger)
	if err != nil {
		return err
	}

	products := catalog.Default()
	if cfg.ProductsPath != "" {
		if products, err = catalog.Load(cfg.ProductsPath); err != nil {
			return fmt.Errorf("load products: %w", err)
		}
	}

	var sink usecase.EventPublisher = events.NewLogPublisher(zapLogger)
	if cfg.Kafka.Enabled {
		producer := kafkaInfra.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, zapLogger)
		manager.RegisterCloser("kafka", producer)
		sink = producer
	}

	outbox, err := buffer.Open(cfg.Outbox.Path)
	if err != nil {
		return fmt.Errorf("open outbox: %w", err)
	}
	manager.RegisterCloser("outbox", outbox)

	relay := services.NewOutboxRelay(outbox, sink, zapLogger, services.RelayConfig{
		Interval:   cfg.Outbox.SyncInterval,
		BatchSize:  cfg.Outbox.BatchSize,
		MaxRetries: cfg.Outbox.MaxRetry,
	})
	relay.Start()
	manager.Register("outbox_relay", func(ctx context.Context) error {
		relay.Stop(ctx)
		return nil
	})

	insuranceUseCase := insuranceUC.New(store, products, zapLogger, insuranceUC.WithEvents(relay))
	messagingUseCase := messagingUC.New(store, 0, relay, zapLogger)
	searchUseCase := searchUC.New(store, zapLogger)

	mon := monitor.New(store, cfg.Proxy.UpstreamURL, outbox, messagingUseCase, cfg.Monitor.Interval, zapLogger)
	mon.Start()
	manager.Register("monitor", func(context.Context) error {
		mon.Stop()
		return nil
	})

	handlers := router.Handlers{
		Insurance: apiHandler.NewInsuranceHandler(insuranceUseCase, zapLogger),
		Messages:  apiHandler.NewMessageHandler(messagingUseCase, zapLogger),
		Search:    apiHandler.NewSearchHandler(searchUseCase, zapLogger),
		Health:    apiHandler.NewHealthHandler(mon, zapLogger),
	}
	table, err := dispatch.NewTable(router.Routes(handlers)...)
	if err != nil {
		return err
	}

	forwarder, err := proxy.NewForwarder(cfg.Proxy.UpstreamURL, cfg.Proxy.ForwardTimeout, nil, zapLogger)
	if err != nil {
		return err
	}

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)
	dispatcher := dispatch.New(cfg.Proxy.BasePrefix, table, forwarder, ctxAdapter, zapLogger)
	r := router.New(cfg.HTTP.HealthPath, handlers.Health, dispatcher)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("base_prefix", cfg.Proxy.BasePrefix),
			zap.String("upstream", cfg.Proxy.UpstreamURL),
			zap.String("store", cfg.Store.Driver))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()
	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	return nil
}

func openStore(ctx context.Context, cfg *config.Config, manager *lifecycle.Manager, zapLogger *zap.Logger) (repository.Store, error) {
	var store repository.Store
	switch cfg.Store.Driver {
	case "memory":
		store = memory.NewStore()
	case "redis":
		client, err := redisInfra.NewClient(ctx, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		store = redisStore.NewStore(client, cfg.Store.RedisPrefix, cfg.Store.MaxRetries)
	case "postgres":
		if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
			return nil, fmt.Errorf("migrations failed: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, zapLogger)
		if err != nil {
			return nil, fmt.Errorf("postgres connection failed: %w", err)
		}
		store = pgStore.NewStore(pool)
	default:
		s, err := boltStore.Open(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		store = s
	}
	manager.RegisterCloser("store", store)
	zapLogger.Info("store opened", zap.String("driver", cfg.Store.Driver))
	return store, nil
}
