package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"envisionWeb/handlers"
	"envisionWeb/internal/config"
	"envisionWeb/internal/render"
	"envisionWeb/internal/storage"
	"envisionWeb/middleware"
	"envisionWeb/services"

	_ "net/http/pprof"
)

var (
	cfg              *config.Config
	logger           *zap.Logger
	store            storage.BlobStore
	generationClient *services.GenerationClient
	historyService   *services.HistoryService
	createService    *services.CreateService
	renderer         *render.Renderer
)

func init() {
	var (
		envFound bool
		err      error
	)
	cfg, envFound, err = config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	logger, err = newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatal("Failed to initialize logger: ", err)
	}
	if !envFound {
		logger.Info("No .env file found")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cfg.DatabaseURL != "" {
		store, err = storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("Failed to connect to Postgres", zap.Error(err))
		}
		logger.Info("History stored in Postgres")
	} else {
		store, err = storage.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal("Failed to open SQLite database", zap.String("path", cfg.SQLitePath), zap.Error(err))
		}
		logger.Info("History stored in SQLite", zap.String("path", cfg.SQLitePath))
	}

	generationClient, err = services.NewGenerationClient(cfg.GenerationAPIURL, cfg.GenerationTimeout, logger.Named("generation"))
	if err != nil {
		logger.Fatal("Failed to create generation client", zap.Error(err))
	}

	historyService = services.NewHistoryService(store, logger.Named("history"))
	createService = services.NewCreateService(generationClient, historyService, cfg.SessionTTL, logger.Named("create"))

	renderer, err = render.New()
	if err != nil {
		logger.Fatal("Failed to parse templates", zap.Error(err))
	}

	middleware.InitPrometheus()
	services.InitPrometheus()
}

func newLogger(level string) (*zap.Logger, error) {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = atomicLevel
	return zapConfig.Build()
}

func main() {
	defer logger.Sync()
	defer func() {
		logger.Info("Closing history store...")
		if err := store.Close(); err != nil {
			logger.Error("Failed to close history store", zap.Error(err))
		}
	}()

	janitorCtx, stopJanitors := context.WithCancel(context.Background())
	defer stopJanitors()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go rateLimiter.CleanupVisitors(janitorCtx)
	go createService.CleanupSessions(janitorCtx, time.Minute)

	pageHandler := handlers.NewPageHandler(renderer, logger)
	createHandler := handlers.NewCreateHandler(createService, generationClient, renderer, logger)
	historyHandler := handlers.NewHistoryHandler(historyService, generationClient, renderer, logger)
	manifestationHandler := handlers.NewManifestationHandler(generationClient, historyService, logger)

	r := mux.NewRouter()

	standardRouter := r.PathPrefix("/").Subrouter()

	standardRouter.Use(rateLimiter.Middleware)
	standardRouter.Use(middleware.MonitorMiddleware)
	standardRouter.Use(middleware.VisitorMiddleware(cfg.SecureCookies))

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)(promhttp.Handler()))
	standardRouter.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(cfg.PprofSecret)(http.DefaultServeMux))

	standardRouter.PathPrefix("/assets/").Handler(http.StripPrefix("/assets/", render.Assets()))

	standardRouter.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := store.Ping(ctx); err != nil {
			logger.Warn("Health check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "history store unavailable"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "envision-web"}`))
	}).Methods("GET")

	handlers.RegisterRoutes(standardRouter, pageHandler, createHandler, historyHandler, manifestationHandler)

	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins(cfg.CORSOrigins),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", middleware.VisitorHeader, "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length"}),
	)
	recovery := gorillaHandlers.RecoveryHandler(
		gorillaHandlers.RecoveryLogger(zap.NewStdLog(logger)),
		gorillaHandlers.PrintRecoveryStack(true),
	)

	port := ":" + cfg.Port

	server := http.Server{
		Addr:        port,
		Handler:     recovery(gorillaHandlers.CombinedLoggingHandler(os.Stdout, corsHandler(r))),
		ReadTimeout: 5 * time.Second,
		// Generation requests are answered only after the upstream call returns.
		WriteTimeout: cfg.GenerationTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Error starting server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Got signal", zap.String("signal", sig.String()))

	stopJanitors()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Server shutdown complete")
}
