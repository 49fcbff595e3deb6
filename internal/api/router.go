package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/cassandra-labs/foresight/internal/api/handlers"
	mw "github.com/cassandra-labs/foresight/internal/api/middleware"
	"github.com/cassandra-labs/foresight/internal/buildconfig"
	"github.com/cassandra-labs/foresight/internal/config"
	"github.com/cassandra-labs/foresight/internal/domain"
	"github.com/cassandra-labs/foresight/internal/llm"
	"github.com/cassandra-labs/foresight/internal/research"
	"github.com/cassandra-labs/foresight/internal/search"
	"github.com/cassandra-labs/foresight/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router plus request metrics for the /metrics endpoint.
type App struct {
	Router       *chi.Mux
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	forecastStore := store.NewForecastStore(db)

	// External clients via provider factory
	llmProvider := config.LLMProvider()
	genClient, err := llm.NewClient(llmProvider, config.LLMAPIKey())
	if err != nil {
		logger.Warn("LLM client initialization failed", zap.String("provider", llmProvider), zap.Error(err))
		genClient = llm.NewMockClient()
	} else {
		logger.Info("LLM client initialized", zap.String("provider", llmProvider))
	}

	searchProvider := config.SearchProvider()
	searchClient, err := search.NewClient(searchProvider, config.SearchAPIKey())
	if err != nil {
		logger.Warn("search client initialization failed", zap.String("provider", searchProvider), zap.Error(err))
		searchClient = search.NewMockSearcher()
	} else {
		logger.Info("search client initialized", zap.String("provider", searchProvider))
	}

	// Services
	driverSvc := research.NewDriverService(genClient, searchClient, logger)
	driverSvc.SetSearchRate(config.SearchRatePerMinute())
	keyFactorSvc := research.NewKeyFactorService(genClient, logger)
	baseRateSvc := research.NewBaseRateService(genClient, logger)
	researchSvc := research.NewResearchService(driverSvc, keyFactorSvc, baseRateSvc, searchClient, logger)
	researchSvc.SetMaxConcurrent(config.ResearchMaxConcurrent())
	forecaster := research.NewForecaster(logger)

	// Handlers
	researchHandler := handlers.NewResearchHandler(researchSvc)
	forecastHandler := handlers.NewForecastHandler(forecastStore, forecaster)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(config.APIKey()))

		r.Post("/research", researchHandler.Run)

		r.Route("/questions/{id}", func(r chi.Router) {
			r.Post("/forecasts", forecastHandler.Record)
			r.Get("/forecasts", forecastHandler.List)
			r.Post("/aggregate", forecastHandler.Aggregate)
		})
	})

	return app
}

// NewRouter returns just the chi.Mux.
func NewRouter(db *pgxpool.Pool, logger *zap.Logger) *chi.Mux {
	return NewApp(db, logger).Router
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"version": buildconfig.Version(),
		})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"version":    buildconfig.VersionInfo(),
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.ForecastStore    = (*store.ForecastStore)(nil)
	_ domain.GenerationClient = (*llm.OpenAIClient)(nil)
	_ domain.GenerationClient = (*llm.AnthropicClient)(nil)
	_ domain.GenerationClient = (*llm.GeminiClient)(nil)
	_ domain.GenerationClient = (*llm.CerebrasClient)(nil)
	_ domain.GenerationClient = (*llm.MockClient)(nil)
	_ domain.SearchClient     = (*search.AskNewsClient)(nil)
	_ domain.SearchClient     = (*search.MockSearcher)(nil)
)
