package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/infinite-experiment/vatwatch/internal/api"
	"github.com/infinite-experiment/vatwatch/internal/audit"
	"github.com/infinite-experiment/vatwatch/internal/buffer"
	"github.com/infinite-experiment/vatwatch/internal/cache"
	"github.com/infinite-experiment/vatwatch/internal/config"
	"github.com/infinite-experiment/vatwatch/internal/filter"
	"github.com/infinite-experiment/vatwatch/internal/logging"
	"github.com/infinite-experiment/vatwatch/internal/metrics"
	"github.com/infinite-experiment/vatwatch/internal/pipeline"
	"github.com/infinite-experiment/vatwatch/internal/routes"
	"github.com/infinite-experiment/vatwatch/internal/scheduler"
	"github.com/infinite-experiment/vatwatch/internal/sectorcache"
	"github.com/infinite-experiment/vatwatch/internal/sectors"
	"github.com/infinite-experiment/vatwatch/internal/session"
	"github.com/infinite-experiment/vatwatch/internal/store"
	"github.com/infinite-experiment/vatwatch/internal/store/repositories"
	"github.com/infinite-experiment/vatwatch/internal/upstream"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("vatwatch starting up", "environment", cfg.AppEnv, "timestamp", time.Now().Format(time.RFC3339))

	if err := store.InitPostgres(cfg); err != nil {
		logging.Fatal("failed to connect to postgres via sqlx", "error", err)
	}
	if _, err := store.InitPostgresORM(cfg.DSN()); err != nil {
		logging.Fatal("failed to connect to postgres via gorm", "error", err)
	}

	metricsReg := metrics.NewRegistry()

	backingCache, err := buildCache(cfg, metricsReg)
	if err != nil {
		logging.Fatal("failed to initialize cache", "error", err)
	}

	sectorLoader, err := sectors.NewLoader(cfg.SectorDefinitionsPath)
	if err != nil {
		logging.Fatal("failed to load sector definitions", "error", err)
	}
	stopWatch := make(chan struct{})
	go func() {
		if err := sectorLoader.Watch(stopWatch); err != nil {
			logging.WithComponent("sectors").Warnw("sector file watch ended", "error", err)
		}
	}()
	sectorIndex := sectors.NewIndex(sectorLoader)

	sectorDefRepo := repositories.NewSectorDefinitionRepository(store.PgDB)
	if err := sectorDefRepo.ReplaceAll(context.Background(), sectorLoader.Sectors()); err != nil {
		logging.WithComponent("sectors").Warnw("failed to persist sector definitions to the static table", "error", err)
	}

	polygons, err := filter.LoadPolygons(cfg.GeographicPolygonsPath)
	if err != nil {
		logging.Fatal("failed to load geographic admission polygons", "error", err)
	}

	flightRepo := repositories.NewFlightRepository(store.DB)
	controllerRepo := repositories.NewControllerRepository(store.DB)
	transceiverRepo := repositories.NewTransceiverRepository(store.DB)
	occupancyRepo := repositories.NewSectorOccupancyRepository(store.DB)
	sessionRepo := repositories.NewSessionRepository(store.DB)
	summaryRepo := repositories.NewSummaryRepository(store.DB)
	archiveRepo := repositories.NewArchiveRepository(store.DB)

	chain := filter.New(polygons, cfg.ExcludedCallsignPatterns, cfg.CallsignCaseSensitive, metricsReg)
	buf := buffer.New(metricsReg)
	client := upstream.New(cfg)
	engine := sectors.NewEngine(sectorIndex, occupancyRepo, cfg.SectorEnterKts, cfg.SectorExitKts, cfg.SectorExitDebounce, metricsReg)
	cleaner := sectors.NewCleaner(occupancyRepo, occupancyRepo, cfg.FlightTimeout, metricsReg)
	writer := pipeline.NewWriter(store.DB, buf, flightRepo, controllerRepo, transceiverRepo, metricsReg)
	sectorView := sectorcache.New(backingCache)
	poller := pipeline.NewPoller(client, chain, buf, engine, sectorView)
	detector := session.New(sessionRepo, summaryRepo, archiveRepo, cfg.ReconnectionThreshold, cfg.ControllerInteractionRadiusNM, metricsReg)
	auditor := audit.New(store.DB)

	jobs := []scheduler.Job{
		{Name: "poller", Interval: cfg.PollInterval, Run: poller.Tick},
		{Name: "batch_writer", Interval: cfg.WriteInterval, Run: writer.Flush},
		{Name: "stale_sector_cleanup", Interval: cfg.StaleSectorCleanup, Run: pipeline.CleanupTick(cleaner, engine, flightRepo)},
		{Name: "session_completion", Interval: cfg.SummaryInterval, Run: pipeline.CompletionTick(detector, transceiverRepo, cfg)},
	}
	if cfg.AuditInterval > 0 {
		jobs = append(jobs, scheduler.Job{Name: "invariant_audit", Interval: cfg.AuditInterval, Run: auditor.Run})
	}

	sched := scheduler.New(jobs...)

	ctx, cancel := context.WithCancel(context.Background())
	go sched.Start(ctx)

	handlers := api.NewHandlers(flightRepo, controllerRepo, summaryRepo, sectorView, detector)
	upSince := time.Now()
	router := routes.RegisterRoutes(store.DB, metricsReg, handlers, upSince)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", router)

	httpServer := &http.Server{Addr: ":8080", Handler: mux}

	go func() {
		logging.Info("http server starting", "port", 8080)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatal("http server failed", "error", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logging.Info("shutting down")
	close(stopWatch)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
}

func buildCache(cfg *config.Config, reg *metrics.Registry) (cache.Interface, error) {
	if cfg.RedisHost == "" {
		return cache.NewMemoryCacheWithMetrics(300, 600, reg), nil
	}
	return cache.NewRedisCache()
}
