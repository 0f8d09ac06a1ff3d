package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/storage/redis/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"studyplan/internal/config"
	"studyplan/internal/dataset"
	"studyplan/internal/db"
	"studyplan/internal/handlers"
	"studyplan/internal/handlers/api"
	"studyplan/internal/jobs"
	"studyplan/internal/llm"
	"studyplan/internal/metrics"
	"studyplan/internal/planner"
	"studyplan/internal/render"
	"studyplan/internal/resources"
	"studyplan/internal/server"
)

func main() {
	cfg := config.Load()

	level := slog.LevelInfo
	if cfg.IsDev() {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	yamlCfg, err := config.LoadYAMLConfig()
	if err != nil {
		log.Fatalf("Failed to load config file: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional database: plan history and topic lookup metrics
	var database *db.DB
	if cfg.HasDatabase() {
		database, err = db.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Migrations completed successfully")
	} else {
		log.Println("DATABASE_URL not set; plan history and lookup metrics are disabled")
	}

	// Optional shared storage: scan cache, sessions and rate limits
	var storage fiber.Storage
	var scanCache dataset.Storage
	if cfg.HasRedis() {
		store := redis.New(redis.Config{URL: cfg.RedisURL})
		defer store.Close()
		storage = store
		scanCache = store
		log.Println("Using Redis for sessions, rate limits and the scan cache")
	}

	var lookups metrics.LookupStore
	if database != nil {
		lookups = database
	}
	observer := metrics.Init(lookups)

	// Language models
	groq := llm.NewClient(llm.Config{
		Name:       "groq",
		BaseURL:    cfg.GroqBaseURL,
		APIKey:     cfg.GroqAPIKey,
		Model:      cfg.TranslateModel,
		Timeout:    cfg.LLMTimeout,
		RatePerSec: cfg.LLMRatePerSec,
		Observer:   observer,
		Logger:     logger,
	})
	openai := llm.NewClient(llm.Config{
		Name:       "openai",
		BaseURL:    cfg.OpenAIBaseURL,
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.PlanModel,
		Timeout:    cfg.LLMTimeout,
		RatePerSec: cfg.LLMRatePerSec,
		Observer:   observer,
		Logger:     logger,
	})
	if !openai.Configured() {
		log.Println("Warning: OPENAI_API_KEY not set; plan generation will fail")
	}

	var translator dataset.Translator
	if groq.Configured() {
		translator = llm.NewTranslator(groq, cfg.TranslateModel)
	} else {
		log.Println("GROQ_API_KEY not set; unmapped topics are searched untranslated")
	}

	// Dataset search
	fetcher := dataset.NewFetcher(&http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}, dataset.FetcherConfig{
		FileID:      cfg.DatasetFileID,
		HostURL:     cfg.DatasetHostURL,
		DownloadURL: cfg.DatasetDownloadURL,
	})
	scanCfg := dataset.ScannerConfig{
		Budget: dataset.Budget{
			TimeLimit:  cfg.ScanTimeBudget,
			MaxRows:    cfg.ScanMaxRows,
			MaxMatches: cfg.ScanMaxMatches,
		},
		ChunkSize: cfg.ScanChunkSize,
	}
	if yamlCfg != nil {
		scanCfg.Columns = dataset.Columns{
			Skill:   yamlCfg.Dataset.SkillColumn,
			Problem: yamlCfg.Dataset.ProblemColumn,
			Correct: yamlCfg.Dataset.CorrectColumn,
		}
	}

	var source dataset.Source
	var cached *dataset.CachedSource
	if cfg.IsCachedDataset() {
		cached = dataset.NewCachedSource(fetcher, scanCfg, logger)
		source = cached
	} else {
		source = dataset.NewScanner(fetcher, scanCfg, logger)
	}

	search := dataset.NewService(
		dataset.NewResolver(yamlCfg.TopicMap(), translator, logger),
		source,
		dataset.ServiceConfig{
			Cache:    scanCache,
			CacheTTL: cfg.ScanCacheTTL,
			Observer: observer,
			Logger:   logger,
		},
	)

	// Documents and plans
	renderer, err := render.New(cfg.OutputDir, cfg.PDFFontFile)
	if err != nil {
		log.Fatalf("Failed to prepare output directory: %v", err)
	}

	var history planner.History
	if database != nil {
		history = database
	}
	plans := planner.NewService(planner.Config{
		Searcher:  search,
		Completer: openai,
		Renderer:  renderer,
		History:   history,
		Observer:  observer,
		Model:     cfg.PlanModel,
		Logger:    logger,
	})

	finder := resources.NewClient(resources.Config{
		WikipediaURL: cfg.WikipediaURL,
		ArxivURL:     cfg.ArxivURL,
		Logger:       logger,
	})

	// HTTP server
	var (
		pinger       handlers.Pinger
		planStore    api.PlanStore
		datasetState handlers.DatasetState
		pruner       jobs.HistoryPruner
	)
	if database != nil {
		pinger, planStore, pruner = database, database, database
	}
	if cached != nil {
		datasetState = cached
	}

	srv := server.New(cfg, storage)
	srv.RegisterRoutes(server.Handlers{
		Pages:     handlers.NewPageHandler(cfg),
		Plans:     handlers.NewPlanHandler(plans, renderer.Dir(), cfg),
		Resources: handlers.NewResourceHandler(finder, cfg),
		Probe:     handlers.NewProbeHandler(pinger, datasetState),
		Search:    api.NewSearchHandler(search),
		History:   api.NewPlansHandler(planStore),
	})

	// Supervised services
	sup := jobs.NewSupervisor(logger)
	sup.Add(jobs.NewServerService(srv, 10*time.Second))
	sup.Add(jobs.NewJanitor(renderer.Dir(), cfg.OutputTTL, cfg.JanitorInterval, pruner))
	if cached != nil {
		sup.Add(jobs.NewWarmer(cached, logger))
	}

	log.Printf("Server starting on %s (dataset mode: %s)", cfg.ServerAddr, cfg.DatasetMode)
	if err := sup.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Supervisor stopped: %v", err)
	}
	log.Println("Server exited")
}
