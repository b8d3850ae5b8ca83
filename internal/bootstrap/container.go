package bootstrap

import (
	"context"
	"log"

	"ai-studynotes-core/internal/config"
	"ai-studynotes-core/internal/controller"
	"ai-studynotes-core/internal/gateway"
	"ai-studynotes-core/internal/handler"
	"ai-studynotes-core/internal/mapper"
	"ai-studynotes-core/internal/pkg/logger"
	"ai-studynotes-core/internal/pkg/upload"
	"ai-studynotes-core/internal/repository/memory"
	"ai-studynotes-core/internal/service"
	"ai-studynotes-core/internal/websocket"
	"ai-studynotes-core/pkg/events"

	pktNats "ai-studynotes-core/pkg/nats"

	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	NoteController    controller.INoteController
	SessionController controller.ISessionController

	// Background Services (Exposed for main.go to run)
	MonitorService service.IMonitorService

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	// Event bus, exposed so main can close it on shutdown.
	Bus *events.Bus
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	bus := events.NewBus("note-lifecycle")

	// Optional NATS bridge for external consumers. The in-process bus keeps
	// working without it.
	var publisher events.Publisher = bus
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			publisher = events.NewFanout(bus, natsPub)
		}
	}

	// Optional Redis for cross-instance websocket fan-out.
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// 3. WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Gateway selection. Everything downstream only sees the interface,
	// so mock and remote are swappable without touching the services.
	var gw gateway.NoteGateway
	if cfg.Backend.MockMode {
		log.Printf("[INFO] Using MOCK note gateway (no processing backend required)")
		gw = gateway.NewMockGateway(cfg.Mock, gateway.NewTimerScheduler())
	} else {
		log.Printf("[INFO] Using REMOTE note gateway: %s", cfg.Backend.BaseURL)
		gw = gateway.NewRemoteGateway(cfg.Backend.BaseURL, cfg.Backend.RequestTimeout)
	}

	// 5. Repositories & Services
	trackers := memory.NewTrackerRepository()
	noteMapper := mapper.NewNoteMapper()
	uploadValidator := upload.NewValidator(cfg.Upload.MaxSizeBytes, cfg.Upload.AllowedTypes)

	monitorService := service.NewMonitorService(
		gw,
		trackers,
		publisher,
		sysLogger,
		cfg.Backend.PollInterval,
		cfg.Backend.MaxWait,
	)

	noteService := service.NewNoteService(
		gw,
		trackers,
		publisher,
		monitorService,
		uploadValidator,
		noteMapper,
		sysLogger,
		cfg.App.UploadsDir,
		cfg.Quiz.QuestionCount,
		cfg.Quiz.Difficulty,
	)

	sessionService := service.NewSessionService(trackers)

	// 6. Notification System
	notifService := service.NewNotificationService(wsHub, wsLogger)
	if err := notifService.Start(context.Background(), bus); err != nil {
		log.Printf("[WARN] Notification service not started: %v", err)
	}

	notifHandler := handler.NewNotificationHandler(notifService, wsHub, wsLogger)

	// 7. Controllers
	return &Container{
		NoteController:      controller.NewNoteController(noteService, noteMapper),
		SessionController:   controller.NewSessionController(sessionService),
		MonitorService:      monitorService,
		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
		Bus:                 bus,
	}
}
