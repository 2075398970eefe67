package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/kafka"
	"github.com/spec-kit/helpdesk-service/internal/locking"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

type repositories struct {
	tickets     repository.TicketRepository
	technicians repository.TechnicianRepository
	history     repository.TicketHistoryRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	repos := buildRepositories(pg, logger)

	var locker locking.Locker = locking.NewLocalLocker()
	if redis != nil {
		locker = locking.NewRedisLocker(redis.Client, cfg.Engine.LockTTL, cfg.Engine.LockTTL)
	}

	dispatcher := events.NewInMemoryDispatcher()
	var sink service.NotificationSink
	if len(cfg.Notification.KafkaBrokers) > 0 {
		producer := kafka.NewProducer(cfg.Notification.KafkaBrokers, cfg.Notification.KafkaTopic)
		defer producer.Close() //nolint:errcheck
		sink = producer
		logger.Info("notifications published to kafka", zap.String("topic", cfg.Notification.KafkaTopic))
	}
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, sink, logger, cfg.Notification))

	metrics := observability.NewMetrics()

	workloadService := service.NewWorkloadService(service.WorkloadDependencies{
		TicketRepo:     repos.tickets,
		TechnicianRepo: repos.technicians,
		Locker:         locker,
		Policy:         capacityPolicy(cfg.Engine),
		Logger:         logger,
	})
	lifecycleService := service.NewLifecycleService(service.LifecycleDependencies{
		TicketRepo:    repos.tickets,
		HistoryRepo:   repos.history,
		Workload:      workloadService,
		Dispatcher:    dispatcher,
		Logger:        logger,
		DueSoonWindow: cfg.Engine.DueSoonWindow,
		SweepBatch:    cfg.Engine.EscalationSweepBatchSize,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo:        repos.tickets,
		TechnicianRepo:    repos.technicians,
		HistoryRepo:       repos.history,
		Workload:          workloadService,
		Dispatcher:        dispatcher,
		Logger:            logger,
		OverloadThreshold: cfg.Engine.OverloadThreshold,
		RebalanceBatch:    cfg.Engine.RebalanceBatchSize,
	})

	if cfg.Engine.MaintenanceEnabled {
		maintenance := worker.NewMaintenanceWorker(assignmentService, lifecycleService, metrics, logger, cfg.Engine.MaintenanceInterval)
		go maintenance.Run(ctx)
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:        handlers.NewTicketsHandler(lifecycleService),
		Assignment:     handlers.NewAssignmentHandler(assignmentService, workloadService),
		Technicians:    handlers.NewTechniciansHandler(workloadService),
		Maintenance:    handlers.NewMaintenanceHandler(assignmentService, lifecycleService, metrics),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func buildRepositories(pg *persistence.Postgres, logger *zap.Logger) repositories {
	pool := pg.PoolHandle()
	if pool == nil {
		logger.Warn("running with in-memory repositories; state is lost on restart")
		store := memory.NewStore()
		return repositories{
			tickets:     store.Tickets(),
			technicians: store.Technicians(),
			history:     store.History(),
		}
	}
	return repositories{
		tickets:     repository.NewTicketRepository(pool),
		technicians: repository.NewTechnicianRepository(pool),
		history:     repository.NewTicketHistoryRepository(pool),
	}
}

func capacityPolicy(engine config.EngineConfig) domain.CapacityPolicy {
	policy := domain.DefaultCapacityPolicy()
	if engine.DefaultMaxTickets > 0 {
		policy.DefaultMaxTickets = engine.DefaultMaxTickets
	}
	if engine.AvailableBelowPercent > 0 {
		policy.AvailableBelowPercent = engine.AvailableBelowPercent
	}
	if engine.AcceptBelowPercent > 0 {
		policy.AcceptBelowPercent = engine.AcceptBelowPercent
	}
	if engine.BusyAtPercent > 0 {
		policy.BusyAtPercent = engine.BusyAtPercent
	}
	return policy
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
