package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk-service/internal/api/http"
	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/repository/memory"
	"github.com/spec-kit/helpdesk-service/internal/service"
	"github.com/spec-kit/helpdesk-service/internal/storage"
	"github.com/spec-kit/helpdesk-service/internal/worker"
)

const ticketSequenceKey = "helpdesk:ticket_seq"

type repositories struct {
	users     repository.UserRepository
	tickets   repository.TicketRepository
	worklogs  repository.WorklogRepository
	kb        repository.KBRepository
	audit     repository.AuditRepository
	snapshots repository.SnapshotStore
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, observability.Component(logger, "postgres"))
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, observability.Component(logger, "migrations")); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis, err := persistence.NewRedis(ctx, cfg.Redis, observability.Component(logger, "redis"))
	if err != nil {
		logger.Fatal("failed to connect redis", zap.Error(err))
	}
	defer redis.Close()

	repos := buildRepositories(pg)

	var sequence repository.TicketSequence = memory.NewTicketSequence(cfg.Tickets.SequenceStart)
	if redis.Enabled() {
		sequence = repository.NewRedisTicketSequence(redis.Client, ticketSequenceKey, cfg.Tickets.SequenceStart)
	}

	checks := map[string]handlers.Pinger{}
	if pg.Enabled() {
		checks["postgres"] = pg
	}
	if redis.Enabled() {
		checks["redis"] = redis
	}

	var blobs storage.BlobStore = storage.NewMemoryStore()
	if cfg.Storage.Endpoint != "" {
		minioStore, err := storage.NewMinioStore(ctx, cfg.Storage, observability.Component(logger, "storage"))
		if err != nil {
			logger.Fatal("failed to init attachment storage", zap.Error(err))
		}
		blobs = minioStore
		checks["storage"] = minioStore
	} else {
		logger.Warn("STORAGE_ENDPOINT not provided; attachments are kept in memory")
	}

	dispatcher := events.NewInMemoryDispatcher(observability.Component(logger, "events"))
	var natsConn *nats.Conn
	if cfg.NATS.URL != "" {
		natsConn, err = events.ConnectNATS(cfg.NATS.URL, cfg.App.Name)
		if err != nil {
			logger.Fatal("failed to connect nats", zap.Error(err))
		}
		events.NewNATSForwarder(natsConn, cfg.NATS.SubjectPrefix, observability.Component(logger, "nats")).Register(dispatcher)
		logger.Info("forwarding ticket events to nats", zap.String("prefix", cfg.NATS.SubjectPrefix))
	}

	auditWriter := worker.NewAuditWriter(repos.audit, observability.Component(logger, "audit"), 0)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo: repos.users,
		Audit:    auditWriter,
	})
	userService := service.NewUserService(service.UserDependencies{
		UserRepo:  repos.users,
		Audit:     auditWriter,
		Logger:    observability.Component(logger, "users"),
		Auth:      cfg.Auth,
		Bootstrap: cfg.Bootstrap,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:  repos.tickets,
		UserRepo:    repos.users,
		WorklogRepo: repos.worklogs,
		Sequence:    sequence,
		Blobs:       blobs,
		Audit:       auditWriter,
		Dispatcher:  dispatcher,
		Logger:      observability.Component(logger, "tickets"),
		Config:      cfg.Tickets,
	})
	assignmentService := service.NewAssignmentService(ticketService, repos.users)
	kbService := service.NewKBService(repos.kb, auditWriter, nil)
	reportService := service.NewReportService(repos.tickets, repos.worklogs, nil)
	auditService := service.NewAuditService(repos.audit)
	backupService := service.NewBackupService(service.BackupDependencies{
		UserRepo:     repos.users,
		TicketRepo:   repos.tickets,
		WorklogRepo:  repos.worklogs,
		KBRepo:       repos.kb,
		AuditRepo:    repos.audit,
		Snapshots:    repos.snapshots,
		Sequence:     sequence,
		TicketPrefix: cfg.Tickets.Prefix,
		Audit:        auditWriter,
		Logger:       observability.Component(logger, "backup"),
	})
	notificationService := service.NewNotificationService(dispatcher, repos.tickets, repos.users, observability.Component(logger, "notifications"), cfg.Notification)

	background := worker.StartBackground(auditWriter, notificationService, logger)

	if created, err := userService.EnsureBootstrapAdmin(ctx); err != nil {
		logger.Fatal("failed to bootstrap admin", zap.Error(err))
	} else if created {
		logger.Info("bootstrap administrator created", zap.String("username", cfg.Bootstrap.AdminUsername))
	}

	metrics := observability.NewMetrics()
	validate := handlers.NewValidator()

	bodyLimit := 4 << 20
	if limit := int(cfg.Tickets.AttachmentMaxBytes) + 1<<20; limit > bodyLimit {
		bodyLimit = limit
	}
	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: bodyLimit,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks, metrics),
		Auth:           handlers.NewAuthHandler(authService, validate),
		Tickets:        handlers.NewTicketsHandler(ticketService, assignmentService, validate),
		Users:          handlers.NewUsersHandler(userService, assignmentService, validate),
		KB:             handlers.NewKBHandler(kbService, validate),
		Reports:        handlers.NewReportsHandler(reportService, auditService),
		Admin:          handlers.NewAdminHandler(backupService, validate),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), repos.users),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	_ = background.Shutdown(shutdownCtx)
	if natsConn != nil {
		if err := natsConn.Drain(); err != nil {
			logger.Warn("nats drain", zap.Error(err))
		}
	}
}

func buildRepositories(pg *persistence.Postgres) repositories {
	if !pg.Enabled() {
		users := memory.NewUserRepository()
		tickets := memory.NewTicketRepository()
		worklogs := memory.NewWorklogRepository()
		kb := memory.NewKBRepository()
		audit := memory.NewAuditRepository()
		return repositories{
			users:     users,
			tickets:   tickets,
			worklogs:  worklogs,
			kb:        kb,
			audit:     audit,
			snapshots: memory.NewSnapshotStore(users, tickets, worklogs, kb, audit),
		}
	}
	pool := pg.PoolHandle()
	return repositories{
		users:     repository.NewUserRepository(pool),
		tickets:   repository.NewTicketRepository(pool),
		worklogs:  repository.NewWorklogRepository(pool),
		kb:        repository.NewKBRepository(pool),
		audit:     repository.NewAuditRepository(pool),
		snapshots: repository.NewSnapshotStore(pool),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
