package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/probegrid/probegrid/internal/api/handlers"
	"github.com/probegrid/probegrid/internal/api/router"
	"github.com/probegrid/probegrid/internal/config"
	"github.com/probegrid/probegrid/internal/notifier"
	"github.com/probegrid/probegrid/internal/pkg/logger"
	"github.com/probegrid/probegrid/internal/pkg/validator"
	"github.com/probegrid/probegrid/internal/probe"
	"github.com/probegrid/probegrid/internal/repository/postgres"
	"github.com/probegrid/probegrid/internal/services"
	"github.com/probegrid/probegrid/internal/worker"
	"github.com/probegrid/probegrid/migrations"
)

// @title ProbeGrid API
// @version 1.0
// @description Tenant-scoped monitoring: alerts, service checks, polling schedules, and an append-only event log.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	db, err := postgres.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db, migrations.GetFS()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	alertRepo := postgres.NewAlertRepository(db)
	checkRepo := postgres.NewCheckRepository(db)
	scheduleRepo := postgres.NewScheduleRepository(db)
	eventRepo := postgres.NewEventRepository(db)

	// Services
	eventService := services.NewEventService(eventRepo, log)
	alertService := services.NewAlertService(alertRepo, eventService, log)
	checkService := services.NewCheckService(checkRepo, eventService, log)
	scheduleService := services.NewScheduleService(scheduleRepo, eventService, cfg.Scanner, log)

	// HTTP layer
	val := validator.New()
	h := &router.Handlers{
		Health:   handlers.NewHealthHandler(db, log),
		Alert:    handlers.NewAlertHandler(alertService, log, val),
		Check:    handlers.NewCheckHandler(checkService, log, val),
		Schedule: handlers.NewScheduleHandler(scheduleService, log, val),
		Event:    handlers.NewEventHandler(eventService, log, val),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional in-process scanner. Small deployments run everything in one
	// binary; fleets disable this and run dedicated executor nodes instead.
	scannerDone := make(chan error, 1)
	if cfg.Scanner.Enabled {
		scanner := worker.NewTriggerScanner(
			alertService,
			checkService,
			scheduleService,
			worker.NewCombinedTenantSource(alertRepo, checkRepo, scheduleRepo),
			probe.NewRunner(),
			notifier.NewWebhookNotifier(cfg.Notifier, log),
			cfg.Scanner,
			log,
		)
		go func() { scannerDone <- scanner.Start(ctx) }()
	} else {
		close(scannerDone)
	}

	go func() {
		log.Infof("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorWithErr(err, "Server shutdown failed")
	}
	if err := <-scannerDone; err != nil {
		log.ErrorWithErr(err, "Scanner stopped with error")
	}

	log.Info("Server stopped")
}
