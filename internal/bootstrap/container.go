package bootstrap

import (
	"context"
	"log"
	"time"

	"resume-ai-helper-be/internal/config"
	"resume-ai-helper-be/internal/controller"
	"resume-ai-helper-be/internal/pkg/logger"
	"resume-ai-helper-be/internal/repository/implementation"
	"resume-ai-helper-be/internal/repository/memory"
	"resume-ai-helper-be/internal/service"
	"resume-ai-helper-be/internal/websocket"
	"resume-ai-helper-be/pkg/assistant"

	pktNats "resume-ai-helper-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// WebSockets
	WebSocketHub    *websocket.Hub
	WebSocketLogger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Infrastructure
	// NATS (optional: session lifecycle events for out-of-process consumers)
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		}
	}

	// Session persistence
	sessionStore, err := implementation.NewFileSessionStore(cfg.App.DataDir, sysLogger)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize session store: %v", err)
	}

	// Backend status probe cache
	statusCache := memory.NewStatusCache(time.Duration(cfg.Backend.StatusCacheSeconds) * time.Second)

	// Inference backend collaborator
	backend := assistant.NewHTTPBackend(cfg.Backend.BaseURL)
	log.Printf("[INFO] Using inference backend at %s", cfg.Backend.BaseURL)

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	wsHub := websocket.NewHub(wsLogger)
	go wsHub.Run()

	// Feed state changes from the bus into the hub
	if err := wsHub.ConsumeStateChanges(context.Background(), pubSub, cfg.App.StateTopic); err != nil {
		log.Printf("[WARN] Failed to subscribe hub to state changes: %v", err)
	}

	// 4. Services
	publisherService := service.NewPublisherService(cfg.App.StateTopic, pubSub)
	chatService := service.NewChatService(
		sessionStore,
		backend,
		statusCache,
		publisherService,
		natsPub,
		sysLogger,
	)

	// 5. Controllers
	return &Container{
		ChatController:  controller.NewChatController(chatService),
		WebSocketHub:    wsHub,
		WebSocketLogger: wsLogger,
	}
}
