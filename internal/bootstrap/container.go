package bootstrap

import (
	"context"
	"log"

	"riverai-be/internal/config"
	"riverai-be/internal/constant"
	"riverai-be/internal/controller"
	"riverai-be/internal/pkg/logger"
	"riverai-be/internal/repository/memory"
	"riverai-be/internal/repository/unitofwork"
	"riverai-be/internal/service"
	"riverai-be/internal/websocket"
	"riverai-be/pkg/agent"
	"riverai-be/pkg/embedding"
	"riverai-be/pkg/knowledge"
	"riverai-be/pkg/llm/factory"

	pktNats "riverai-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController   controller.IAuthController
	ChatController   controller.IChatController
	UploadController controller.IUploadController
	EventsController *controller.EventsController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "gemini" {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	} else {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		cfg.Ai.LLMApiKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 4. Knowledge Base
	store, err := knowledge.NewStore(uowFactory, embeddingProvider, sysLogger)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize knowledge store: %v", err)
	}
	retriever, err := knowledge.NewRetriever(uowFactory, embeddingProvider, cfg.Ai.SearchTopK)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize retriever: %v", err)
	}

	// 5. Session Memory and Agent
	sessionRepo := memory.NewSessionRepository()
	sessionMemory := agent.NewSessionMemory(sessionRepo, uowFactory, constant.SessionMemoryNamespace)

	baseAgent, err := agent.NewAgent(llmProvider, retriever, sessionMemory, sysLogger)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize agent: %v", err)
	}

	// 6. Infrastructure
	// NATS is auxiliary. Boot without it when unavailable.
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/events.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 7. Services
	publisherService := service.NewPublisherService(cfg.Keys.IngestTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Keys.IngestTopic,
		natsPub,
		wsHub,
	)

	authService := service.NewAuthService(uowFactory)
	chatService := service.NewChatService(uowFactory, sessionMemory, sysLogger)
	streamService := service.NewStreamService(chatService, baseAgent, uowFactory, cfg.Ai, sysLogger)
	ingestionService := service.NewIngestionService(
		uowFactory,
		store,
		publisherService,
		cfg.App.UploadsDir,
		sysLogger,
	)

	return &Container{
		AuthController:   controller.NewAuthController(authService),
		ChatController:   controller.NewChatController(chatService, streamService),
		UploadController: controller.NewUploadController(ingestionService, cfg.App.UploadsDir),
		EventsController: controller.NewEventsController(wsHub, wsLogger),

		ConsumerService: consumerService,
		WebSocketHub:    wsHub,
	}
}
