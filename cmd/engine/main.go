// Package main - точка входа движка прогрессии рангов Guild Rank Hub.
//
// Движок ведёт иерархии рангов сообществ, машину состояний переходов
// участников и агрегацию рейтингов. Сами группы платформы движок не
// трогает: интеграции подписываются на события и синхронизируют
// членство самостоятельно.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: реализация репозиториев, кеш, шина событий
// - Interface: операционные HTTP endpoints
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/guild-hub/guild-rank-hub/config"

	// Application layer
	"github.com/guild-hub/guild-rank-hub/internal/application/command"
	"github.com/guild-hub/guild-rank-hub/internal/application/query"

	// Domain contracts
	"github.com/guild-hub/guild-rank-hub/internal/domain/leaderboard"
	"github.com/guild-hub/guild-rank-hub/internal/domain/member"
	"github.com/guild-hub/guild-rank-hub/internal/domain/rank"

	// Infrastructure layer
	"github.com/guild-hub/guild-rank-hub/internal/infrastructure/messaging"
	"github.com/guild-hub/guild-rank-hub/internal/infrastructure/persistence/bolt"
	"github.com/guild-hub/guild-rank-hub/internal/infrastructure/persistence/memory"
	"github.com/guild-hub/guild-rank-hub/internal/infrastructure/persistence/postgres"
	rediscache "github.com/guild-hub/guild-rank-hub/internal/infrastructure/persistence/redis"

	// Interface layer
	httpserver "github.com/guild-hub/guild-rank-hub/internal/interface/http"

	// Packages
	"github.com/guild-hub/guild-rank-hub/pkg/keymutex"
	"github.com/guild-hub/guild-rank-hub/pkg/logger"
	"github.com/guild-hub/guild-rank-hub/pkg/retry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─────────────────────────────────────────────────────────────────────────
	// Конфигурация и логгер
	// ─────────────────────────────────────────────────────────────────────────

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.Observability.AddCaller,
	})

	log.Info("starting guild-rank-hub",
		logger.String("version", cfg.App.Version),
		logger.String("environment", string(cfg.App.Environment)),
		logger.Backend(cfg.Engine.StoreBackend),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// Хранилище: memory, bolt или postgres
	// ─────────────────────────────────────────────────────────────────────────

	var (
		ranks    rank.Repository
		members  member.Repository
		checkers []httpserver.Checker
		closers  []func()
	)

	switch cfg.Engine.StoreBackend {
	case config.StoreMemory:
		ranks = memory.NewHierarchyRepository()
		members = memory.NewMemberRepository()

	case config.StoreBolt:
		store, err := bolt.Open(cfg.Engine.BoltPath)
		if err != nil {
			return fmt.Errorf("open bolt store: %w", err)
		}
		closers = append(closers, func() { _ = store.Close() })
		ranks = store
		members = store

	case config.StorePostgres:
		var conn *postgres.Connection
		err := retry.StoreConnectRetrier().Do(ctx, func(ctx context.Context) error {
			var connErr error
			conn, connErr = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
			return connErr
		})
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		closers = append(closers, conn.Close)

		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		ranks = postgres.NewHierarchyRepository(conn)
		members = postgres.NewMemberRepository(conn)
		checkers = append(checkers, httpserver.CheckerFunc{
			CheckerName: "postgres",
			Fn:          conn.Ping,
		})

	default:
		return fmt.Errorf("unknown store backend %q", cfg.Engine.StoreBackend)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Кеш рейтинга (опционально)
	// ─────────────────────────────────────────────────────────────────────────

	var cache leaderboard.Cache
	if !cfg.Redis.Disabled && cfg.Features.IsEnabled(config.FeatureLeaderboardCache) {
		var client *rediscache.Client
		err := retry.StoreConnectRetrier().Do(ctx, func(ctx context.Context) error {
			var connErr error
			client, connErr = rediscache.NewClient(ctx, rediscache.Config{
				Host:         cfg.Redis.Host,
				Port:         cfg.Redis.Port,
				Password:     cfg.Redis.Password,
				DB:           cfg.Redis.DB,
				PoolSize:     cfg.Redis.PoolSize,
				MinIdleConns: cfg.Redis.MinIdleConns,
				DialTimeout:  cfg.Redis.DialTimeout,
				ReadTimeout:  cfg.Redis.ReadTimeout,
				WriteTimeout: cfg.Redis.WriteTimeout,
			})
			return connErr
		})
		if err != nil {
			// Кеш не критичен: движок полностью работоспособен без него
			log.Warn("redis unavailable, leaderboard cache disabled", logger.Err(err))
		} else {
			closers = append(closers, func() { _ = client.Close() })
			cache = rediscache.NewLeaderboardCache(client, cfg.Engine.LeaderboardCacheTTL)
			checkers = append(checkers, httpserver.CheckerFunc{
				CheckerName: "redis",
				Fn:          client.Ping,
			})
			log.Info("leaderboard cache enabled")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Шина событий
	// ─────────────────────────────────────────────────────────────────────────

	var events command.EventPublisher
	var bus *messaging.InMemoryEventBus
	if cfg.Features.IsEnabled(config.FeatureEventPublishing) {
		bus = messaging.NewInMemoryEventBus(messaging.Config{
			AsyncMode:      cfg.Features.IsEnabled(config.FeatureEventAsync),
			WorkerPoolSize: 10,
			Logger:         log,
		})
		closers = append(closers, func() { _ = bus.Close() })
		events = bus
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Движок: обработчики команд и запросов
	// ─────────────────────────────────────────────────────────────────────────

	locks := keymutex.New()

	engine := &Engine{
		Promote:    command.NewPromoteMemberHandler(ranks, members, locks, cache, events),
		Demote:     command.NewDemoteMemberHandler(ranks, members, locks, cache, events),
		SetRank:    command.NewSetMemberRankHandler(ranks, members, locks, cache, events),
		Reset:      command.NewResetMemberHandler(ranks, members, locks, cache, events),
		AddRank:    command.NewAddRankHandler(ranks, locks, cache, events),
		RemoveRank: command.NewRemoveRankHandler(ranks, locks, cache, events),
		SetRanks:   command.NewReplaceHierarchyHandler(ranks, locks, cache, events),

		GetRanks:       query.NewGetRanksHandler(ranks),
		GetMember:      query.NewGetMemberHandler(ranks, members),
		GetLeaderboard: query.NewGetLeaderboardHandler(ranks, members, cache),
		GetStats:       query.NewGetCommunityStatsHandler(ranks, members),
	}
	log.Info("rank engine ready")

	// Прогрев кеша: заранее строим рейтинги всех известных сообществ
	if cache != nil {
		warmupLeaderboards(ctx, engine, ranks, log)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Операционный HTTP сервер и graceful shutdown
	// ─────────────────────────────────────────────────────────────────────────

	serverErr := make(chan error, 1)
	var ops *httpserver.Server
	if cfg.Ops.Enabled {
		ops = httpserver.NewServer(httpserver.Config{
			Host:         cfg.Ops.Host,
			Port:         cfg.Ops.Port,
			ReadTimeout:  httpserver.DefaultConfig().ReadTimeout,
			WriteTimeout: httpserver.DefaultConfig().WriteTimeout,
			IdleTimeout:  httpserver.DefaultConfig().IdleTimeout,
		}, log, checkers...)

		go func() {
			serverErr <- ops.Start()
		}()
	}

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			log.Error("ops server failed", logger.Err(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if ops != nil {
		if err := ops.Shutdown(shutdownCtx); err != nil {
			log.Error("ops server shutdown failed", logger.Err(err))
		}
	}

	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}

	log.Info("guild-rank-hub stopped")
	return nil
}

// warmupLeaderboards прогревает кеш рейтингов для всех сообществ,
// у которых есть сохранённая иерархия. Ошибки не критичны: сообщество
// с пустой иерархией просто пропускается.
func warmupLeaderboards(ctx context.Context, engine *Engine, ranks rank.Repository, log *logger.Logger) {
	communities, err := ranks.ListCommunities(ctx)
	if err != nil {
		log.Warn("cache warmup skipped", logger.Err(err))
		return
	}

	warmed := 0
	for _, id := range communities {
		_, err := engine.GetLeaderboard.Handle(ctx, query.GetLeaderboardQuery{
			CommunityID: string(id),
		})
		if err != nil {
			log.Debug("warmup failed", logger.CommunityID(string(id)), logger.Err(err))
			continue
		}
		warmed++
	}

	log.Info("leaderboard cache warmed", logger.Int("communities", warmed))
}

// Engine bundles the engine's command and query handlers.
// The embedding process (a Discord bot, an admin CLI) drives these
// directly; the engine itself exposes no domain API over the network.
type Engine struct {
	Promote    *command.PromoteMemberHandler
	Demote     *command.DemoteMemberHandler
	SetRank    *command.SetMemberRankHandler
	Reset      *command.ResetMemberHandler
	AddRank    *command.AddRankHandler
	RemoveRank *command.RemoveRankHandler
	SetRanks   *command.ReplaceHierarchyHandler

	GetRanks       *query.GetRanksHandler
	GetMember      *query.GetMemberHandler
	GetLeaderboard *query.GetLeaderboardHandler
	GetStats       *query.GetCommunityStatsHandler
}
