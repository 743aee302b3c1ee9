package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mythra-labs/mythra-backend/api/routes"
	"github.com/mythra-labs/mythra-backend/internal/dao"
	"github.com/mythra-labs/mythra-backend/internal/distributions"
	"github.com/mythra-labs/mythra-backend/internal/events"
	"github.com/mythra-labs/mythra-backend/internal/investments"
	"github.com/mythra-labs/mythra-backend/internal/ledger"
	"github.com/mythra-labs/mythra-backend/internal/tickets"
	"github.com/mythra-labs/mythra-backend/pkg/chain"
	"github.com/mythra-labs/mythra-backend/pkg/config"
	"github.com/mythra-labs/mythra-backend/pkg/db"
	"github.com/mythra-labs/mythra-backend/pkg/instance"
	"github.com/mythra-labs/mythra-backend/pkg/logger"
	"github.com/mythra-labs/mythra-backend/pkg/metrics"
	"github.com/mythra-labs/mythra-backend/pkg/migrate"
	"github.com/mythra-labs/mythra-backend/pkg/outbox"
	"github.com/mythra-labs/mythra-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	chainLedger, err := chain.FromConfig(cfg.Ledger)
	if err != nil {
		logg.Error(context.Background(), "failed to build chain ledger", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	lifecycleMetrics := metrics.NewLifecycleMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	conn := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(conn), logg)
	eventRepo := events.NewRepository(conn)

	ledgerService, err := ledger.NewService(ledger.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	eventsService, err := events.NewService(events.ServiceParams{
		Repo:    eventRepo,
		Tx:      dbClient,
		Outbox:  outboxService,
		Ledger:  chainLedger,
		Metrics: lifecycleMetrics,
		Logger:  logg,
		Options: events.Options{AllowEmptyDAO: cfg.Lifecycle.AllowEmptyDAO},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create events service", err)
		os.Exit(1)
	}

	daoService, err := dao.NewService(dao.ServiceParams{
		Repo:        dao.NewRepository(conn),
		EventRepo:   eventRepo,
		Events:      eventsService,
		Tx:          dbClient,
		Outbox:      outboxService,
		Logger:      logg,
		AutoAdvance: cfg.Lifecycle.AutoAdvanceOnVote,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dao service", err)
		os.Exit(1)
	}

	investmentsService, err := investments.NewService(investments.ServiceParams{
		Repo:   investments.NewRepository(conn),
		Events: eventRepo,
		Tx:     dbClient,
		Outbox: outboxService,
		Ledger: ledgerService,
		Chain:  chainLedger,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create investments service", err)
		os.Exit(1)
	}

	platformFee := cfg.Lifecycle.PlatformFee()
	ticketsService, err := tickets.NewService(tickets.ServiceParams{
		Repo:      tickets.NewRepository(conn),
		EventRepo: eventRepo,
		Events:    eventsService,
		Tx:        dbClient,
		Outbox:    outboxService,
		Ledger:    ledgerService,
		Logger:    logg,
		Options: tickets.Options{
			PlatformFeePercent: &platformFee,
			RoundingPlaces:     cfg.Lifecycle.PayoutRoundingPlaces,
		},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create tickets service", err)
		os.Exit(1)
	}

	distributionsService, err := distributions.NewService(distributions.ServiceParams{
		Repo:      distributions.NewRepository(conn),
		EventRepo: eventRepo,
		Events:    eventsService,
		Tx:        dbClient,
		Outbox:    outboxService,
		Ledger:    ledgerService,
		Chain:     chainLedger,
		Metrics:   lifecycleMetrics,
		Logger:    logg,
		Options:   distributions.Options{RoundingPlaces: cfg.Lifecycle.PayoutRoundingPlaces},
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create distributions service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.ID(),
		"ledger":   cfg.Ledger.Mode,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			httpMetrics,
			eventsService,
			daoService,
			investmentsService,
			ticketsService,
			distributionsService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server shut down gracefully")
}
