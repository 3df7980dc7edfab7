package main

import (
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/promptsim/backend/internal/api/handlers"
	"github.com/promptsim/backend/internal/docstore/redisstore"
	"github.com/promptsim/backend/internal/llm"
	"github.com/promptsim/backend/internal/metrics"
	"github.com/promptsim/backend/internal/middleware/ratelimit"
	"github.com/promptsim/backend/internal/migration"
	"github.com/promptsim/backend/internal/simulation"
	"github.com/promptsim/backend/internal/store"
	"github.com/promptsim/backend/internal/synthesis"
	"github.com/promptsim/backend/pkg/config"
	appLogger "github.com/promptsim/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting prompt testing workbench API server")

	metrics.Init()

	docs, err := redisstore.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		appLogger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer docs.Close()

	st := store.New(docs)

	legacyDB, err := sql.Open("sqlite3", cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to open legacy database", zap.Error(err))
	}
	defer legacyDB.Close()

	llmClient := llm.NewClient(
		cfg.LLM.APIKey,
		cfg.LLM.Model,
		cfg.LLM.Temperature,
		cfg.LLM.MaxTokens,
	)

	pipeline := simulation.NewPipeline(st, llmClient)
	synthesizer := synthesis.New(st, llmClient, cfg.LLM.SynthesisMaxTokens)
	migrator := migration.New(legacyDB, docs)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.MaxRequestsPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()
	app.Use(limiter.Middleware())

	clientHandler := handlers.NewClientHandler(st)
	scenarioHandler := handlers.NewScenarioHandler(st)
	runHandler := handlers.NewRunHandler(st)
	suggestionHandler := handlers.NewSuggestionHandler(st)
	simulationHandler := handlers.NewSimulationHandler(pipeline)
	synthesisHandler := handlers.NewSynthesisHandler(synthesizer)
	migrationHandler := handlers.NewMigrationHandler(migrator)

	api := app.Group("/api/v1")

	api.Get("/clients", clientHandler.List)
	api.Post("/clients", clientHandler.Create)
	api.Get("/clients/:id", clientHandler.Get)
	api.Put("/clients/:id", clientHandler.Update)
	api.Delete("/clients/:id", clientHandler.Delete)

	api.Get("/scenarios", scenarioHandler.List)
	api.Post("/scenarios", scenarioHandler.Create)
	api.Get("/scenarios/:id", scenarioHandler.Get)
	api.Put("/scenarios/:id", scenarioHandler.Update)
	api.Delete("/scenarios/:id", scenarioHandler.Delete)

	api.Get("/simulation-runs", runHandler.List)
	api.Get("/simulation-runs/:id", runHandler.Get)
	api.Post("/simulate", simulationHandler.Simulate)

	api.Get("/final-prompts", suggestionHandler.List)
	api.Post("/synthesize-prompt", synthesisHandler.Synthesize)

	api.Get("/migrate", migrationHandler.Status)
	api.Post("/migrate", migrationHandler.Migrate)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
