package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/pomboexe/support-desk/internal/api/http"
	"github.com/pomboexe/support-desk/internal/api/http/handlers"
	"github.com/pomboexe/support-desk/internal/auth"
	"github.com/pomboexe/support-desk/internal/config"
	"github.com/pomboexe/support-desk/internal/events"
	"github.com/pomboexe/support-desk/internal/glpi"
	"github.com/pomboexe/support-desk/internal/observability"
	"github.com/pomboexe/support-desk/internal/persistence"
	"github.com/pomboexe/support-desk/internal/repository"
	"github.com/pomboexe/support-desk/internal/service"
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	conversationRepo := repository.NewConversationRepository(pool)
	knowledgeRepo := repository.NewKnowledgeRepository(pool)

	ticketRepo := repository.NewTicketRepository(pool)
	if cfg.GLPI.Enabled() {
		client := glpi.NewClient(cfg.GLPI, logger)
		ticketRepo = repository.NewGLPITicketRepository(ticketRepo, client, logger)
		defer client.KillSession(context.Background())
		logger.Info("glpi mirroring enabled", zap.String("api_url", cfg.GLPI.APIURL))
	}

	dispatcher := events.NewInMemoryDispatcher()

	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo: ticketRepo,
		Dispatcher: dispatcher,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:       ticketRepo,
		ConversationRepo: conversationRepo,
		UserRepo:         userRepo,
		Assignments:      assignmentService,
		Dispatcher:       dispatcher,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo: userRepo,
		Redis:    redis.Client,
		Logger:   logger,
	})
	knowledgeService := service.NewKnowledgeService(knowledgeRepo)
	notifications := service.NewNotificationService(dispatcher, logger)
	notifications.RegisterHandlers()

	authMiddleware := auth.NewMiddleware(authService.TokenManager(), userRepo, cfg.Auth.SessionCookieName)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService, cfg.Auth.SessionCookieName),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Knowledge:      handlers.NewKnowledgeHandler(knowledgeService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
