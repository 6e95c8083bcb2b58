package bootstrap

import (
	"context"
	"log"
	"path/filepath"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"docuchat-be/internal/config"
	"docuchat-be/internal/controller"
	"docuchat-be/internal/handler"
	"docuchat-be/internal/pkg/logger"
	"docuchat-be/internal/pkg/mailer"
	"docuchat-be/internal/repository/implementation"
	"docuchat-be/internal/repository/unitofwork"
	"docuchat-be/internal/service"
	"docuchat-be/internal/websocket"
	"docuchat-be/pkg/blob"
	"docuchat-be/pkg/embedding"
	"docuchat-be/pkg/feed"
	"docuchat-be/pkg/indexing"
	"docuchat-be/pkg/llm/factory"
	"docuchat-be/pkg/llm/gemini"
	pktNats "docuchat-be/pkg/nats"
	"docuchat-be/pkg/toolcache"
	"docuchat-be/pkg/watcher"
)

type Container struct {
	// Controllers
	UserController     controller.IUserController
	AuthController     controller.IAuthController
	OAuthController    controller.IOAuthController
	DocumentController controller.IDocumentController
	ChatbotController  controller.IChatbotController

	// Background workers (exposed for main.go to run)
	NotificationService *service.NotificationService
	Watcher             *watcher.IngestionWatcher

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	textProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.TextModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.GoogleGemini,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using Text Model: %s", cfg.Ai.TextModel)

	// Vision always goes through Gemini. Ollama text models have no
	// image input here.
	visionProvider := gemini.NewGeminiProvider(cfg.Keys.GoogleGemini, cfg.Ai.VisionModel)

	var indexer indexing.Service
	if cfg.Ai.IndexingProvider == "pgvector" {
		indexer = indexing.NewPgvectorService(db, embeddingProvider, textProvider)
		log.Printf("[INFO] Using Indexing Provider: PGVECTOR")
	} else {
		indexer = indexing.NewGoogleService(cfg.Keys.GoogleGemini, cfg.Ai.TextModel)
		log.Printf("[INFO] Using Indexing Provider: GOOGLE")
	}

	toolCache := toolcache.New(cfg.Cache.GlobalTTL, cfg.Cache.SessionTTL)

	// 4. Infrastructure
	blobStore, err := blob.NewFsStore(cfg.App.UploadDir)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize blob store: %v", err)
	}

	// Assign through a typed nil check so a failed connect leaves the
	// interface truly nil and the service's nil guard still fires.
	var eventPublisher service.EventPublisher
	if natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL); err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
	}
	changeFeed, err := feed.NewNatsFeed(cfg.App.NatsURL, cfg.Watcher.FeedDurable)
	if err != nil {
		log.Fatalf("[FATAL] Failed to connect to NATS change feed: %v", err)
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
	wsLogger := logger.NewIsolatedLogger("logs/notification.log")
	wsHub := websocket.NewHub(rdb, wsLogger)

	// 5. Services
	documentService := service.NewDocumentService(
		uowFactory,
		blobStore,
		indexer,
		eventPublisher,
		toolCache,
		sysLogger,
	)

	// Resolve the shared law store once at startup.
	lawStoreRef := ""
	if cfg.Ai.LawMainStoreName != "" {
		lawStoreRef, err = indexer.CreateOrGetStore(context.Background(), cfg.Ai.LawMainStoreName)
		if err != nil {
			log.Printf("[WARN] Failed to resolve law store %q: %v", cfg.Ai.LawMainStoreName, err)
		}
	}

	chatbotService := service.NewChatbotService(
		uowFactory,
		textProvider,
		visionProvider,
		indexer,
		toolCache,
		documentService,
		lawStoreRef,
		sysLogger,
	)

	userService := service.NewUserService(uowFactory)
	authService := service.NewAuthService(uowFactory, emailService, cfg)
	oauthService := service.NewOAuthService(uowFactory)

	// 6. Notifications
	notifRepo := implementation.NewNotificationRepository(db)
	notifService := service.NewNotificationService(notifRepo, pubSub, wsHub, wsLogger)
	notifHandler := handler.NewNotificationHandler(notifService, wsHub, wsLogger)

	// 7. Ingestion Watcher
	ingestionWatcher := watcher.NewIngestionWatcher(
		documentService,
		blobStore,
		indexer,
		changeFeed,
		pubSub,
		sysLogger,
		cfg.Watcher.PollInterval,
		cfg.Watcher.RetryDelay,
	)

	return &Container{
		UserController:     controller.NewUserController(userService),
		AuthController:     controller.NewAuthController(authService),
		OAuthController:    controller.NewOAuthController(oauthService),
		DocumentController: controller.NewDocumentController(documentService),
		ChatbotController:  controller.NewChatbotController(chatbotService, filepath.Join(cfg.App.UploadDir, "chat-images")),

		NotificationService: notifService,
		Watcher:             ingestionWatcher,

		NotificationHandler: notifHandler,
		WebSocketHub:        wsHub,
	}
}
