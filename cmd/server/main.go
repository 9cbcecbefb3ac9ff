package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/quorumhq/notify/notification"
	"github.com/quorumhq/notify/pkg/config"
	"github.com/quorumhq/notify/pkg/httpserver"
	"github.com/quorumhq/notify/pkg/logger"
	"github.com/quorumhq/notify/pkg/mongo"
	"github.com/quorumhq/notify/pkg/redis"
	"github.com/quorumhq/notify/pkg/registry"
)

type appConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"notify"`

	UnreadCacheEnabled bool `env:"UNREAD_CACHE_ENABLED" envDefault:"false"`

	LiveBufferSize    int           `env:"LIVE_BUFFER_SIZE" envDefault:"16"`
	LiveHeartbeatTTL  time.Duration `env:"LIVE_HEARTBEAT_TTL" envDefault:"90s"`
	LiveSweepInterval time.Duration `env:"LIVE_SWEEP_INTERVAL" envDefault:"30s"`
}

func main() {
	var (
		appCfg   appConfig
		mongoCfg mongo.Config
		httpCfg  httpserver.Config
		emailCfg notification.EmailConfig
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&mongoCfg)
	config.MustLoad(&httpCfg)
	config.MustLoad(&emailCfg)

	log := logger.New(
		logger.WithEnvironment(appCfg.Environment, appCfg.ServiceName),
		logger.WithContextValue("request_id", middleware.RequestIDKey),
	)
	logger.SetAsDefault(log)

	ctx := context.Background()

	connectCtx, cancel := context.WithTimeout(ctx, time.Minute)
	client, err := mongo.Connect(connectCtx, mongoCfg)
	cancel()
	if err != nil {
		log.Error("document store connection failed", logger.Error(err))
		os.Exit(1)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	store := notification.NewMongoStorage(client.Database(mongoCfg.Database))
	if err := store.EnsureIndexes(ctx); err != nil {
		log.Error("index creation failed", logger.Error(err))
		os.Exit(1)
	}

	readiness := []func(context.Context) error{mongo.Healthcheck(client)}

	var storage notification.Storage = store
	if appCfg.UnreadCacheEnabled {
		var redisCfg redis.Config
		config.MustLoad(&redisCfg)

		rdb, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			log.Error("redis connection failed", logger.Error(err))
			os.Exit(1)
		}
		defer func() { _ = rdb.Close() }()

		storage = notification.NewUnreadCache(store, rdb, notification.WithCacheLogger(log))
		readiness = append(readiness, redis.Healthcheck(rdb))
	}

	live := registry.New(
		registry.WithBufferSize(appCfg.LiveBufferSize),
		registry.WithHeartbeatTTL(appCfg.LiveHeartbeatTTL),
		registry.WithSweepInterval(appCfg.LiveSweepInterval),
		registry.WithLogger(log),
	)
	defer live.Close()

	deliverers := notification.MultiDeliverer{notification.NewRegistryDeliverer(live)}
	if emailCfg.Enabled() {
		emailer, err := notification.NewEmailDeliverer(emailCfg, log)
		if err != nil {
			log.Error("email channel setup failed", logger.Error(err))
			os.Exit(1)
		}
		deliverers = append(deliverers, emailer)
		log.Info("email copy channel enabled")
	}

	disp := notification.NewDispatcher(storage, live,
		notification.WithDeliverer(deliverers),
		notification.WithDispatcherLogger(log),
	)
	handler := notification.NewHandler(disp, live, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/health", httpserver.HealthCheckHandler(log, readiness...))
	r.Mount("/api", handler.Routes())

	srv := httpserver.NewFromConfig(httpCfg,
		httpserver.WithLogger(log),
		httpserver.WithStartHook(func(l *slog.Logger) {
			l.Info("server started", slog.String("addr", httpCfg.Addr))
		}),
		httpserver.WithStopHook(func(l *slog.Logger) {
			l.Info("server stopped")
		}),
	)
	if err := srv.Run(ctx, r); err != nil {
		log.Error("server exited with error", logger.Error(err))
		os.Exit(1)
	}
}
