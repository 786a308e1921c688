// Command server runs the discovery backend: HTTP API, audit worker and the
// optional postgres/redis/kafka backends. With nothing configured it runs
// fully in-memory, which is what local development uses.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"kindred/internal/account"
	"kindred/internal/audit"
	"kindred/internal/chat"
	"kindred/internal/geosvc"
	"kindred/internal/guard"
	"kindred/internal/identity"
	"kindred/internal/match"
	"kindred/internal/moderation"
	"kindred/internal/platform/config"
	"kindred/internal/platform/httpserver"
	"kindred/internal/platform/logger"
	"kindred/internal/platform/metrics"
	"kindred/internal/platform/redis"
	"kindred/internal/privacy"
	"kindred/internal/profile"
	"kindred/internal/recs"
	"kindred/internal/store"
	"kindred/internal/store/memory"
	"kindred/internal/store/postgres"
	transport "kindred/internal/transport/http"
)

const auditBuffer = 1024

func main() {
	log := logger.New()
	cfg := config.FromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// Stores: postgres when configured, memory otherwise.
	var (
		st         *store.Store
		auditStore audit.Store
	)
	if cfg.DatabaseURL != "" {
		pgStore, pool, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Error("postgres migrate failed", "error", err)
			os.Exit(1)
		}
		st = pgStore
		auditStore = audit.NewPostgresStore(pool)
		log.Info("using postgres store")
	} else {
		st = memory.New()
		auditStore = audit.NewMemoryStore()
		log.Info("using in-memory store")
	}

	rdb, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	if rdb != nil {
		log.Info("redis connected")
	}

	// Audit: entries are always persisted; a Kafka sink additionally receives
	// them through a buffered channel worker.
	var (
		sinkCh   chan audit.Entry
		auditLog *audit.Logger
	)
	g, gctx := errgroup.WithContext(ctx)
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka connect failed", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		sinkCh = make(chan audit.Entry, auditBuffer)
		worker := audit.NewWorker(sink, sinkCh, log)
		g.Go(func() error {
			if err := worker.Run(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
		log.Info("kafka audit sink enabled", "topic", cfg.KafkaTopic)
	}
	auditLog = audit.NewLogger(auditStore, sinkCh, m, log)

	chain := guard.NewChain(st.Privacy, st.Blocks, st.Matches, guard.Config{
		AllowMatchedPeers: cfg.IncognitoAllowMatched,
		PremiumBypass:     cfg.PremiumBypass,
	}, m)
	stats := match.NewStats(rdb, log)

	handlers := transport.NewHandlers(
		log, m,
		recs.NewEngine(st, auditLog, m),
		profile.NewService(st.Users, st.Profiles, st.Privacy, st.Discovery, auditLog),
		privacy.NewService(st.Privacy, st.Discovery, auditLog),
		match.NewService(chain, st.Likes, st.Matches, stats, auditLog, m),
		moderation.NewBlockService(chain, st.Blocks, auditLog),
		moderation.NewService(chain, st.Users, st.Reports, st.Flags, auditLog, m, log),
		moderation.NewModService(st.Users, auditLog),
		chat.NewService(chain, st.Messages, rdb, stats, auditLog),
		geosvc.NewService(chain, st.Users, st.Privacy, st.Locations, auditLog),
		account.NewService(st, auditLog),
		auditLog,
	)

	var verifier identity.Verifier = identity.NewTelegramVerifier(cfg.BotToken)
	if cfg.BotToken == "" {
		log.Warn("BOT_TOKEN not set; all identity checks will fail")
	}

	router := transport.NewRouter(handlers, log, m, transport.RouterConfig{
		Verifier:       verifier,
		Users:          st.Users,
		ModSigningKey:  cfg.ModSigningKey,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		Health: func(r *http.Request) error {
			if rdb != nil {
				return rdb.Health(r.Context())
			}
			return nil
		},
	})

	srv := httpserver.New(cfg.Addr, router)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
