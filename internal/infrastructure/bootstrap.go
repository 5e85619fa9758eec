package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"motorvault/internal/catalog"
	"motorvault/internal/clock"
	"motorvault/internal/command"
	"motorvault/internal/config"
	"motorvault/internal/ledger"
	"motorvault/internal/logger"
	"motorvault/internal/notify"
	"motorvault/internal/registry"
	"motorvault/internal/repository"
	"motorvault/internal/rewards"
	"motorvault/internal/service"
	"motorvault/internal/trade"
	transportGRPC "motorvault/internal/transport/grpc"
	transportHTTP "motorvault/internal/transport/http"
	transportNATS "motorvault/internal/transport/nats"
	"motorvault/internal/worker"
)

// Bootstrap initialises all dependencies from config and wires up the application.
// Returns the App, a cleanup function, or an error. On error everything opened
// so far is already released.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	var cleanupFns []func()
	fail := func(err error) (*App, func(), error) {
		runCleanup(cleanupFns)()
		return nil, nil, err
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, nil, err
	}
	clk := clock.New()

	// ── Persistence ────────────────────────────────────────────────────────────
	var store repository.Store
	switch cfg.Store.Provider {
	case config.ProviderPostgres:
		db, err := connectPostgres(cfg.DSN(), cfg.Database.MaxConns)
		if err != nil {
			return fail(err)
		}
		store = repository.NewPostgresStore(db)
	case config.ProviderMemory:
		logger.WarnCtx(ctx, "using in-memory store, state is lost on restart")
		store = repository.NewMemoryStore()
	default:
		return fail(fmt.Errorf("unknown store provider %q", cfg.Store.Provider))
	}
	cleanupFns = append(cleanupFns, store.Close)

	var proposals repository.ProposalStore
	switch cfg.Proposals.Provider {
	case config.ProviderRedis:
		rdb, err := connectRedis(cfg.RedisAddr(), cfg.Redis.DB)
		if err != nil {
			return fail(err)
		}
		cleanupFns = append(cleanupFns, func() { _ = rdb.Close() })
		proposals = repository.NewRedisProposalStore(rdb, cfg.Proposals.Retention)
	case config.ProviderMemory:
		proposals = repository.NewMemoryProposalStore()
	default:
		return fail(fmt.Errorf("unknown proposals provider %q", cfg.Proposals.Provider))
	}

	// ── Messaging ──────────────────────────────────────────────────────────────
	nc, err := connectNats(cfg.NATS.URL)
	if err != nil {
		return fail(err)
	}

	var (
		bus      repository.MessageBus = repository.NopBus{}
		notifier notify.Notifier       = notify.LogNotifier{}
	)
	if nc != nil {
		cleanupFns = append(cleanupFns, nc.Close)
		natsBus := transportNATS.NewBus(nc)
		bus = natsBus
		notifier = notify.NewBusNotifier(natsBus, cfg.NATS.NoticeSubjectPrefix)
	} else {
		logger.WarnCtx(ctx, "NATS is not configured, notices go to the log and events are dropped")
	}

	notices := notify.NewDispatcher(notifier, cfg.Notify.PoolSize, cfg.Notify.QueueSize)
	cleanupFns = append(cleanupFns, notices.Stop)

	// ── Engines ────────────────────────────────────────────────────────────────
	l := ledger.New(cat, clk)
	reg := registry.New(cat, l, clk)
	selector := rewards.NewSelector(rewards.Config{
		DropCooldown: cfg.Rewards.DropCooldown,
		LuckCooldown: cfg.Rewards.LuckCooldown,
		MaxDraws:     cfg.Rewards.MaxDraws,
	}, cat, reg, l, clk)
	negotiator := trade.NewNegotiator(trade.Config{
		AdvisoryAfter:           cfg.Trade.AdvisoryAfter,
		CancelAdvisoryOnResolve: cfg.Trade.CancelAdvisoryOnResolve,
	}, store, proposals, cat, notices, clk)
	cleanupFns = append(cleanupFns, negotiator.Stop)

	economy := service.NewEconomy(service.Deps{
		Store:         store,
		Catalog:       cat,
		Ledger:        l,
		Registry:      reg,
		Selector:      selector,
		Negotiator:    negotiator,
		Bus:           bus,
		EventsSubject: cfg.NATS.EventsSubject,
		Clock:         clk,
	})
	dispatcher := command.NewDispatcher(economy)

	// ── Transports ─────────────────────────────────────────────────────────────
	servers := natsServers(cfg, nc, dispatcher, store)

	if addr, err := cfg.APIAddr(); err == nil {
		servers = append(servers, transportHTTP.NewServer(addr, cfg.Debug, cfg.API.AdminToken, economy, dispatcher))
	}
	if addr, err := cfg.GRPCAddr(); err == nil {
		servers = append(servers, transportGRPC.NewServer(addr, economy))
	}

	if len(servers) == 0 {
		return fail(errors.New("no transport enabled: configure NATS, the API or gRPC"))
	}

	logger.InfoCtx(ctx, "application wired",
		zap.String("store", cfg.Store.Provider),
		zap.String("proposals", cfg.Proposals.Provider),
		zap.Bool("nats", nc != nil),
		zap.Int("servers", len(servers)),
	)
	return NewApp(servers), runCleanup(cleanupFns), nil
}

func natsServers(cfg *config.Config, nc *nats.Conn, dispatcher *command.Dispatcher, store repository.Store) []Server {
	if nc == nil {
		return nil
	}
	return []Server{
		transportNATS.NewHandler(dispatcher, nc, cfg.NATS.CommandSubjectPrefix, cfg.NATS.QueueGroup,
			cfg.NATS.Workers, cfg.NATS.QueueSize),
		worker.NewAuditWorker(store, nc, cfg.NATS.EventsSubject, cfg.NATS.QueueGroup),
	}
}

// runCleanup returns a single function that calls all cleanup functions in reverse order.
func runCleanup(fns []func()) func() {
	return func() {
		for i := len(fns) - 1; i >= 0; i-- {
			fns[i]()
		}
	}
}
