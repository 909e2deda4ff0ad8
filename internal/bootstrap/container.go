package bootstrap

import (
	"context"
	"log"

	"ai-interview-be/internal/config"
	"ai-interview-be/internal/controller"
	"ai-interview-be/internal/handler"
	"ai-interview-be/internal/pkg/logger"
	"ai-interview-be/internal/pkg/mailer"
	"ai-interview-be/internal/repository/unitofwork"
	"ai-interview-be/internal/service"
	"ai-interview-be/internal/websocket"
	"ai-interview-be/pkg/callprovider"
	"ai-interview-be/pkg/llm/factory"
	"ai-interview-be/pkg/scoring"

	pktNats "ai-interview-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ResponseController controller.IResponseController
	WebhookController  controller.IWebhookController
	AdminController    controller.IAdminController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Dashboard
	DashboardHandler *handler.DashboardHandler
	WebSocketHub     *websocket.Hub
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

	// 2. Event Bus (in-process analysis jobs)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// Call Provider
	callProvider := callprovider.NewClient(
		cfg.CallProvider.BaseURL,
		cfg.CallProvider.APIKey,
		cfg.CallProvider.WebhookSecret,
	)

	// LLM-backed scorer
	llmBaseURL := cfg.Ai.LLMBaseURL
	if cfg.Ai.LLMProvider == "ollama" {
		llmBaseURL = cfg.Ai.OllamaBaseURL
	}
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		llmBaseURL,
		cfg.Ai.LLMAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	scorer := scoring.NewLLMScorer(llmProvider)

	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
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
		rdb = nil
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/dashboard.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Services
	interviewService := service.NewInterviewService(uowFactory)
	eligibilityService := service.NewEligibilityService(uowFactory, interviewService, sysLogger)

	responseService := service.NewResponseService(
		uowFactory,
		eligibilityService,
		interviewService,
		callProvider,
		natsPub,
		emailService,
		cfg.Pipeline.AlertEmail,
		cfg.CallProvider.DefaultAgentId,
		sysLogger,
	)

	analyticsService := service.NewAnalyticsService(
		uowFactory,
		interviewService,
		callProvider,
		scorer,
		natsPub,
		wsHub, // Hub implements LifecycleNotifier
		sysLogger,
	)

	publisherService := service.NewPublisherService(cfg.Pipeline.AnalysisTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Pipeline.AnalysisTopic,
		analyticsService,
		sysLogger,
	)

	// 3.5 Dashboard event bridge
	notifService := service.NewNotificationService(natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go notifService.Start()
	}

	dashboardHandler := handler.NewDashboardHandler(wsHub, wsLogger)

	// 4. Controllers
	return &Container{
		ResponseController: controller.NewResponseController(responseService, analyticsService, sysLogger),
		WebhookController:  controller.NewWebhookController(responseService, publisherService, callProvider, sysLogger),
		AdminController:    controller.NewAdminController(responseService, analyticsService, sysLogger),

		DashboardHandler: dashboardHandler,
		WebSocketHub:     wsHub,

		ConsumerService: consumerService,
	}
}
