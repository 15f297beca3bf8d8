package main

import (
	"context"
	"time"

	"voyo/api_curator/internal/api"
	curatorconfig "voyo/api_curator/internal/config"
	"voyo/api_curator/internal/curator"
	"voyo/api_curator/internal/events"
	"voyo/api_curator/internal/knowledge"
	"voyo/api_curator/internal/stores"
	"voyo/api_curator/pkg/config"
	"voyo/api_curator/pkg/database"
	"voyo/api_curator/pkg/llm"
	"voyo/api_curator/pkg/logging"
	"voyo/api_curator/pkg/middleware"
	"voyo/api_curator/pkg/monitoring"
	"voyo/api_curator/pkg/redis"
	"voyo/api_curator/pkg/server"
	"voyo/api_curator/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("curator")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting Curator (Session Curation API)")

	cfg := curatorconfig.LoadConfig()
	deps := curator.Deps{Logger: logger}

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("curator", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("curator", version.Version, version.GitCommit)
	deps.Metrics = metricsCollector.CreateCurationMetrics()

	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"PORT": cfg.Port,
	}))

	// Connect to database for knowledge and collective stores. The core
	// curation loop runs without it; fallback output degrades to static seeds.
	var knowledgeStore *knowledge.Store
	if cfg.DatabaseURL != "" {
		dbConfig := database.DefaultConfig()
		dbConfig.URL = cfg.DatabaseURL
		db, err := database.Connect(dbConfig, logger)
		if err != nil {
			logger.WithError(err).Warn("Database unavailable - knowledge and collective sources disabled")
		} else {
			defer func() { _ = db.Close() }()
			healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))

			knowledgeStore = knowledge.NewStore(db)
			deps.Knowledge = knowledgeStore
			deps.Collective = stores.NewCollectiveStore(db)
		}
	} else {
		logger.Warn("DATABASE_URL not set - knowledge and collective sources disabled")
	}

	// Connect to Redis for mixboard intent weights.
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err := redis.NewClientFromURL(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable - intent weights disabled")
		} else {
			defer func() { _ = redisClient.Close() }()
			healthChecker.AddCheck("redis", monitoring.RedisHealthCheck(redisClient))
			deps.Intent = stores.NewIntentStore(redisClient, logger)
		}
	} else {
		logger.Warn("REDIS_URL not set - intent weights disabled")
	}

	// Connect the Kafka event publisher.
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := events.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		if err != nil {
			logger.WithError(err).Warn("Kafka unavailable - curator events disabled")
		} else {
			defer publisher.Close()
			healthChecker.AddCheck("kafka", monitoring.KafkaProducerHealthCheck(publisher.Client()))
			deps.Events = publisher
		}
	} else {
		logger.Warn("KAFKA_BROKERS not set - curator events disabled")
	}

	// Create the LLM provider. Without one every curation cycle produces
	// fallback output, which keeps the session loop fully functional.
	llmConfig := llm.LoadConfig()
	if llmConfig.Configured() {
		provider, err := llm.NewProvider(llmConfig)
		if err != nil {
			logger.WithError(err).Warn("LLM provider misconfigured - running on fallback curation")
		} else {
			deps.Provider = provider
			logger.WithField("provider", llmConfig.Provider).Info("LLM provider configured")
		}
	} else {
		logger.Warn("LLM not configured - running on fallback curation")
	}

	// Setup router with unified monitoring
	router := server.SetupServiceRouter(logger, "curator", healthChecker, metricsCollector)

	manager := curator.NewManager(cfg, deps)
	api.NewHandlers(manager, logger).Register(router.Group("/api/curator"))

	// Knowledge admin endpoints need the database and a JWT secret. Embedding
	// is optional; without it vibe search just won't index new tracks.
	if knowledgeStore != nil && cfg.JWTSecret != "" {
		var embedder *knowledge.Embedder
		embeddingConfig := llm.LoadEmbeddingConfig()
		if embeddingConfig.Configured() {
			embeddingClient, err := llm.NewEmbeddingClient(embeddingConfig)
			if err != nil {
				logger.WithError(err).Warn("Embedding client misconfigured - knowledge tracks stored without vectors")
			} else {
				embedder = knowledge.NewEmbedder(embeddingClient)
			}
		}

		adminGroup := router.Group("/api/curator/admin")
		adminGroup.Use(middleware.JWTAuthMiddleware([]byte(cfg.JWTSecret)))
		adminGroup.Use(middleware.RequireRole("admin"))
		knowledge.NewAdminHandlers(knowledgeStore, embedder, logger).Register(adminGroup)
	} else {
		logger.Warn("Knowledge admin API disabled - requires database and JWT_SECRET")
	}

	// Start HTTP server with graceful shutdown
	serverConfig := server.DefaultConfig("curator", cfg.Port)
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}
}
