package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/probegrid/probegrid/internal/config"
	"github.com/probegrid/probegrid/internal/notifier"
	"github.com/probegrid/probegrid/internal/pkg/logger"
	"github.com/probegrid/probegrid/internal/probe"
	"github.com/probegrid/probegrid/internal/repository/postgres"
	"github.com/probegrid/probegrid/internal/services"
	"github.com/probegrid/probegrid/internal/worker"
	"github.com/probegrid/probegrid/migrations"
)

// Standalone executor node. Runs only the trigger scanner against the shared
// database; any number of these can run side by side, coordinating through
// the per-schedule locks.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if !cfg.Scanner.Enabled {
		fmt.Fprintln(os.Stderr, "Scanner is disabled (SCANNER_ENABLED=false), nothing to do")
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

	alertRepo := postgres.NewAlertRepository(db)
	checkRepo := postgres.NewCheckRepository(db)
	scheduleRepo := postgres.NewScheduleRepository(db)
	eventRepo := postgres.NewEventRepository(db)

	eventService := services.NewEventService(eventRepo, log)
	alertService := services.NewAlertService(alertRepo, eventService, log)
	checkService := services.NewCheckService(checkRepo, eventService, log)
	scheduleService := services.NewScheduleService(scheduleRepo, eventService, cfg.Scanner, log)

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := scanner.Start(ctx); err != nil {
		log.Fatalf("Scanner failed: %v", err)
	}
}
