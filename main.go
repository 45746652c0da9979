package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/winecollections/winecollections/pkg/audit"
	"github.com/winecollections/winecollections/pkg/auth"
	"github.com/winecollections/winecollections/pkg/config"
	"github.com/winecollections/winecollections/pkg/crawler"
	"github.com/winecollections/winecollections/pkg/database"
	"github.com/winecollections/winecollections/pkg/handlers"
	"github.com/winecollections/winecollections/pkg/logging"
	"github.com/winecollections/winecollections/pkg/middleware"
	"github.com/winecollections/winecollections/pkg/repositories"
	"github.com/winecollections/winecollections/pkg/retry"
	"github.com/winecollections/winecollections/pkg/services"
	"github.com/winecollections/winecollections/pkg/services/workqueue"
	"github.com/winecollections/winecollections/ui"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())),
		zap.String("crawl_start_url", cfg.Crawler.StartURL),
		zap.String("crawl_schedule", cfg.Crawler.Schedule))

	db, err := database.Connect(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	}, retry.DefaultConfig(), logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.RunMigrations(db, cfg.MigrationsPath, logger); err != nil {
		return err
	}

	// Repositories
	catalogRepo := repositories.NewCatalogRepository(db)
	matchRepo := repositories.NewWineMatchRepository(db)
	recRepo := repositories.NewRecommendationRepository(db)
	userRepo := repositories.NewUserRepository(db)

	// Crawler
	markup := crawler.DefaultMarkup()
	if cfg.Crawler.MarkupPath != "" {
		if markup, err = crawler.LoadMarkup(cfg.Crawler.MarkupPath); err != nil {
			return err
		}
	}
	fetcher := crawler.NewHTTPFetcher(crawler.FetcherOptions{
		UserAgent:         cfg.Crawler.UserAgent,
		Timeout:           cfg.Crawler.FetchTimeout,
		RequestsPerSecond: cfg.Crawler.RequestsPerSecond,
	})
	catalogCrawler := crawler.New(fetcher, crawler.NewMarkupExtractor(markup), markup.Labels, catalogRepo, logger)

	// Services
	queueLogger := logger.Named("workqueue")
	queue := workqueue.New(queueLogger, workqueue.WithOnUpdate(func(snap workqueue.TaskSnapshot) {
		queueLogger.Info("Task status changed",
			zap.String("task_id", snap.ID),
			zap.String("task", snap.Name),
			zap.String("status", string(snap.Status)),
			zap.String("error", snap.Error))
	}))
	crawlService := services.NewCrawlService(catalogCrawler, cfg.Crawler.StartURL, queue, logger)
	wineService := services.NewWineService(matchRepo, logger)
	recService := services.NewRecommendationService(recRepo, logger)
	userService := services.NewUserService(userRepo, logger)

	var scheduler *services.CrawlScheduler
	if cfg.Crawler.Schedule != "" {
		scheduler = services.NewCrawlScheduler(ctx, crawlService, logger)
		if err := scheduler.Schedule(cfg.Crawler.Schedule); err != nil {
			return err
		}
		scheduler.Start()
	}

	// Auth
	sessions := auth.NewSessionManager(cfg.SessionSecret, auth.DeriveCookieSettings(cfg.BaseURL, cfg.CookieDomain))
	auditor := audit.NewSecurityAuditor(logger)
	authMiddleware := auth.NewMiddleware(sessions, cfg.SecretKey, auditor, logger.Named("auth"))

	// Routes
	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, db, logger).RegisterRoutes(mux)
	handlers.NewIndexHandler(ui.DistFS(), logger).RegisterRoutes(mux)
	handlers.NewCrawlHandler(crawlService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewWineHandler(wineService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewUserHandler(userService, sessions, auditor, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewRecommendationHandler(recService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewUploadHandler(recService, logger).RegisterRoutes(mux, authMiddleware)

	server := &http.Server{
		Addr: cfg.ListenAddr(),
		Handler: middleware.Chain(mux,
			middleware.Recoverer(logger),
			middleware.RequestLogger(logger.Named("http"))),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting winecollections",
			zap.String("addr", server.Addr),
			zap.String("version", cfg.Version))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if scheduler != nil {
		scheduler.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := queue.Shutdown(shutdownCtx); err != nil {
		logger.Error("Crawl did not stop before shutdown deadline", zap.Error(err))
	}
	return nil
}
