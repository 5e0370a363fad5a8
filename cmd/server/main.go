package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"delivery_notes_app_go/config"
	"delivery_notes_app_go/db"
	"delivery_notes_app_go/handlers"
	"delivery_notes_app_go/middleware"
	"delivery_notes_app_go/services"
	"delivery_notes_app_go/services/jobs"
	"delivery_notes_app_go/templates"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg := config.Load()
	config.SetupLogger(cfg.Environment)

	// Initialize database
	if err := db.Initialize(cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	snapshots := services.NewGormSnapshotStore(db.DB)
	if err := snapshots.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	ctx := context.Background()
	store, err := services.NewStore(ctx, snapshots, cfg.NoteNumberSeed)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load state")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Warn().Err(err).Str("timezone", cfg.Timezone).Msg("Unknown timezone, using UTC")
		loc = time.UTC
	}

	company := templates.Company{
		Name:     cfg.CompanyName,
		TaxID:    cfg.CompanyTaxID,
		Activity: cfg.CompanyActivity,
	}

	storage := services.NewStorage(cfg)
	documents := services.NewDocumentPublisher(services.NewPDFDocumentRenderer(company, cfg.ChromePath), storage)
	mailer := services.NewResendMailer(cfg)

	notes := services.NewNoteService(store, documents, mailer, services.NoteServiceConfig{
		DefaultOrigin: cfg.DefaultOrigin,
		Location:      loc,
		NotifyEmail:   cfg.NotifyEmail,
		AppURL:        cfg.AppURL,
	})

	api := &handlers.API{
		Branches: services.NewBranchService(store),
		Catalog:  services.NewCatalogService(store),
		Importer: services.NewProductImporter(store),
		Notes:    notes,
		Orders:   services.NewOrderService(store, notes),
		Storage:  storage,
		Company:  company,
	}

	// Background jobs
	scheduler, err := jobs.StartScheduler(&jobs.PendingDigest{
		Notes:     notes,
		Mailer:    mailer,
		Recipient: cfg.NotifyEmail,
		MinAge:    time.Duration(cfg.DigestMinAgeHours) * time.Hour,
	}, cfg.DigestCron, loc)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start job scheduler")
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewRequestValidator()

	// Middleware
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil {
				event = log.Warn().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("Request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
	}))

	// Locally stored documents
	e.Static(services.LocalURLPrefix(cfg.StorageDir), cfg.StorageDir)

	api.RegisterRoutes(e,
		middleware.ScanRateLimiter().Middleware(),
		middleware.ImportRateLimiter().Middleware(),
	)

	// Start server
	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("Server starting")
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}
