package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/ticketdesk/ticketdesk/internal/api/http"
	"github.com/ticketdesk/ticketdesk/internal/api/http/handlers"
	"github.com/ticketdesk/ticketdesk/internal/auth"
	"github.com/ticketdesk/ticketdesk/internal/config"
	"github.com/ticketdesk/ticketdesk/internal/events"
	"github.com/ticketdesk/ticketdesk/internal/notify"
	"github.com/ticketdesk/ticketdesk/internal/observability"
	"github.com/ticketdesk/ticketdesk/internal/scheduler"
	"github.com/ticketdesk/ticketdesk/internal/service"
	"github.com/ticketdesk/ticketdesk/internal/state"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots, closeSnapshots, err := buildSnapshotter(ctx, cfg.Snapshot, logger)
	if err != nil {
		logger.Fatal("failed to init snapshot backend", zap.Error(err))
	}
	defer closeSnapshots()

	metrics := observability.NewMetrics()

	store, err := state.NewStore(ctx, snapshots, logger, metrics)
	if err != nil {
		logger.Fatal("failed to load state", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()

	ticketService := service.NewTicketService(store, dispatcher)
	dashboardService := service.NewDashboardService(store, dispatcher)
	settingsService := service.NewSettingsService(store, dispatcher)
	accessPolicy := service.NewAccessPolicy(store, dispatcher)
	queryService := service.NewQueryService(store)

	notifier := notify.NewNotifier(dispatcher, logger)
	notifier.RegisterHandlers()

	sweep := scheduler.New(store, ticketService, logger, metrics, cfg.Scheduler)
	go sweep.Run(ctx)

	authMiddleware := auth.NewMiddleware(auth.NewTokenVerifier(cfg.Auth.GatewaySecret))

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, snapshots),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Dashboards:     handlers.NewDashboardsHandler(dashboardService),
		Admin:          handlers.NewAdminHandler(settingsService, accessPolicy),
		Queries:        handlers.NewQueriesHandler(queryService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	_ = app.Shutdown()
}

func buildSnapshotter(ctx context.Context, cfg config.SnapshotConfig, logger *zap.Logger) (state.Snapshotter, func(), error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		snap, err := state.NewPostgresSnapshotter(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return snap, snap.Close, nil
	case config.BackendRedis:
		snap, err := state.NewRedisSnapshotter(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return snap, snap.Close, nil
	default:
		snap, err := state.NewFileSnapshotter(cfg.FilePath)
		if err != nil {
			return nil, nil, err
		}
		return snap, func() {}, nil
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
