package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "github.com/lib/pq"

	"github.com/avetikov/flowgram/internal/apperr"
	"github.com/avetikov/flowgram/internal/bot"
	"github.com/avetikov/flowgram/internal/database"
	"github.com/avetikov/flowgram/internal/i18n"
	"github.com/avetikov/flowgram/internal/idempotency"
	"github.com/avetikov/flowgram/internal/ratelimit"
	"github.com/avetikov/flowgram/internal/session"
	"github.com/avetikov/flowgram/pkg/config"
	"github.com/avetikov/flowgram/pkg/graceful"
	"github.com/avetikov/flowgram/pkg/logger"
	appredis "github.com/avetikov/flowgram/pkg/redis"
)

const localesDir = "locales"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)

	config.Watch(v, log, func(updated config.Config) {
		logger.SetLevel(updated.Logger.Level)
	})

	if cfg.Sentry.Enabled {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.AppEnv}); err != nil {
			log.Error("failed to init sentry", slog.Any("error", err))
			os.Exit(1)
		}
		defer sentry.Flush(2 * time.Second)
	}

	log.Info("starting flowgram bot",
		slog.String("env", cfg.AppEnv),
		slog.String("session_backend", cfg.Session.Backend),
	)

	var (
		rdb      *appredis.Client
		limiter  ratelimit.Limiter
		dedup    idempotency.Deduplicator
		sessions session.Store
	)

	needRedis := cfg.Session.Backend == "redis" || cfg.RateLimit.Enabled
	if needRedis {
		rdb, err = appredis.New(ctx, cfg.Redis)
		if err != nil {
			log.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if cerr := rdb.Close(); cerr != nil {
				log.Error("error closing redis", slog.Any("error", cerr))
			}
		}()

		dedup = idempotency.NewRedisDeduplicator(rdb, 24*time.Hour, log)
	}

	if cfg.RateLimit.Enabled {
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.Limit, cfg.RateLimit.Window, log)
	}

	switch cfg.Session.Backend {
	case "redis":
		sessions = session.NewRedisStore(rdb, log, session.WithTTL(cfg.Session.TTL))
	case "postgres":
		db, err := sql.Open("postgres", cfg.Postgres.DSN())
		if err != nil {
			log.Error("failed to open database", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				log.Error("error closing database", slog.Any("error", cerr))
			}
		}()

		if err := db.PingContext(ctx); err != nil {
			log.Error("failed to ping database", slog.Any("error", err))
			os.Exit(1)
		}

		if err := database.NewMigrator(db, log).ApplyDir(ctx, "migrations"); err != nil {
			log.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}

		sessions = session.NewPostgresStore(db, log)
	default:
		log.Warn("using in-memory session store; records will not survive restarts")
		sessions = session.NewMemoryStore()
	}

	translations, err := i18n.LoadFromDir(localesDir, "en")
	if err != nil {
		log.Error("failed to load translations", slog.Any("error", err))
		os.Exit(1)
	}

	errHandler := apperr.NewHandler(log, cfg.Sentry.Enabled)

	b, err := bot.New(*cfg, log, bot.Deps{
		Sessions:   sessions,
		Translator: translations.Translator("en"),
		Limiter:    limiter,
		Dedup:      dedup,
		ErrHandler: errHandler,
	})
	if err != nil {
		log.Error("failed to build bot", slog.Any("error", err))
		os.Exit(1)
	}

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})

		srv := graceful.NewServer(log, &http.Server{
			Addr:    cfg.Metrics.Addr,
			Handler: mux,
		}, cfg.Metrics.ShutdownTimeout)

		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				log.Error("metrics server error", slog.Any("error", err))
			}
		}()
	}

	go b.Start()

	<-ctx.Done()

	b.Stop()
	log.Info("flowgram bot shut down")
}
