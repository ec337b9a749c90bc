package bootstrap

import (
	"context"
	"log"

	"nova-advisor-be/internal/config"
	"nova-advisor-be/internal/controller"
	"nova-advisor-be/internal/pkg/logger"
	"nova-advisor-be/internal/repository/unitofwork"
	"nova-advisor-be/internal/service"
	"nova-advisor-be/pkg/advisor"
	"nova-advisor-be/pkg/events"
	"nova-advisor-be/pkg/extract"
	"nova-advisor-be/pkg/extract/vision"
	"nova-advisor-be/pkg/llm"
	"nova-advisor-be/pkg/llm/factory"
	"nova-advisor-be/pkg/search"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController    controller.IAuthController
	SessionController controller.ISessionController
	ChatController    controller.IChatController

	// Auth collaborators exposed for middleware wiring
	TokenDenylist *service.TokenDenylist

	// Background services (run from main)
	ConsumerService service.IConsumerService
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	auditLogger := logger.NewIsolatedLogger(cfg.App.AuditLogFilePath)

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermillLogger)
	turnPublisher := events.NewPublisher(pubSub, cfg.App.TurnTopicName)

	// 3. Model provider
	llmProvider, err := factory.NewLLMProvider(cfg.Ai)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s", cfg.Ai.Provider)

	// 4. Redis (quota counters)
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// 5. Advisory engine
	var ocr extract.OCR
	if cfg.Vision.Endpoint != "" && cfg.Vision.APIKey != "" {
		ocr = vision.NewClient(cfg.Vision.Endpoint, cfg.Vision.APIKey)
	}
	extractor := extract.NewExtractor(ocr, sysLogger)

	specialists := map[string]*advisor.Specialist{
		advisor.DomainLegal: advisor.NewSpecialist(
			advisor.DomainLegal,
			llmProvider,
			newSearcher(cfg, cfg.Search.LegalIndex, llmProvider, sysLogger),
			sysLogger,
		),
		advisor.DomainFinancial: advisor.NewSpecialist(
			advisor.DomainFinancial,
			llmProvider,
			newSearcher(cfg, cfg.Search.FinancialIndex, llmProvider, sysLogger),
			sysLogger,
		),
	}

	pipeline := advisor.NewPipeline(
		extractor,
		advisor.NewRouter(llmProvider, sysLogger),
		specialists,
		advisor.NewRedactor(llmProvider),
		sysLogger,
	)
	orchestrator := advisor.NewOrchestrator(pipeline)
	guardrail := advisor.NewGuardrail(llmProvider)

	// 6. Services
	denylist := service.NewTokenDenylist()
	quotaService := service.NewQuotaService(rdb, cfg.App.DailyQueryLimit, sysLogger)
	authService := service.NewAuthService(uowFactory, denylist, cfg.Auth)
	sessionService := service.NewSessionService(uowFactory, cfg.App.UploadDir, cfg.Auth.SessionWelcome, sysLogger)
	chatService := service.NewChatService(
		uowFactory,
		orchestrator,
		guardrail,
		quotaService,
		turnPublisher,
		cfg.App.UploadDir,
		sysLogger,
	)
	consumerService := service.NewConsumerService(pubSub, cfg.App.TurnTopicName, auditLogger)

	return &Container{
		AuthController:    controller.NewAuthController(authService),
		SessionController: controller.NewSessionController(sessionService),
		ChatController:    controller.NewChatController(chatService),
		TokenDenylist:     denylist,
		ConsumerService:   consumerService,
	}
}

// newSearcher builds the retrieval client for one domain index. A missing
// index name disables retrieval for that specialist.
func newSearcher(cfg *config.Config, indexName string, provider llm.LLMProvider, log logger.ILogger) search.Searcher {
	if cfg.Search.Endpoint == "" || indexName == "" {
		return nil
	}
	return search.NewClient(
		cfg.Search.Endpoint,
		cfg.Search.APIKey,
		indexName,
		cfg.Search.VectorField,
		cfg.Search.MinScore,
		provider,
		log,
	)
}
