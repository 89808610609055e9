package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"foodbridge/internal/app"
	"foodbridge/internal/config"
	"foodbridge/internal/geo"
	"foodbridge/internal/handler"
	internalRedis "foodbridge/internal/redis"
	"foodbridge/internal/repository/postgres"
	"foodbridge/internal/service"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic first so the database and Redis clients can be
	// instrumented.
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s", cfg.NewRelic.AppName)
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	server, coordinator := wireServer(db, redisClient, nrApp, cfg)

	// Background expiry sweeper.
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	go runSweeper(sweepCtx, coordinator, cfg.Matching.SweepInterval)

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	sweepCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// runSweeper expires overdue donations on a fixed cadence.
func runSweeper(ctx context.Context, coordinator *service.MatchingCoordinator, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepCtx, cancel := context.WithTimeout(ctx, interval)
			expired, err := coordinator.SweepExpired(sweepCtx)
			cancel()
			if err != nil {
				log.Printf("expiry sweep failed: %v", err)
				continue
			}
			if expired > 0 {
				log.Printf("expiry sweep: %d donation(s) expired", expired)
			}
		}
	}
}

// wireServer wires all dependencies and returns the HTTP server plus the
// coordinator for the background sweeper.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *service.MatchingCoordinator) {
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	var geoIndex geo.Index
	if cfg.Matching.GeoBackend == "memory" {
		geoIndex = geo.NewMemoryIndex()
	} else {
		geoIndex = internalRedis.NewGeoIndex(redisClient)
	}

	actorRepo := postgres.NewActorRepository(db)
	donationRepo := postgres.NewDonationRepository(db)

	notificationService := service.NewNotificationService()
	ranker := service.NewRanker(service.RankWeights{
		Distance:    cfg.Matching.WeightDistance,
		Reliability: cfg.Matching.WeightReliability,
		Headroom:    cfg.Matching.WeightHeadroom,
	}, service.NewGreatCircleOracle(), cfg.Matching.RoutingTimeout)

	coordinator := service.NewMatchingCoordinator(
		geoIndex,
		lockStore,
		cacheStore,
		actorRepo,
		donationRepo,
		ranker,
		notificationService,
		service.MatchingOptions{
			SearchRadiusKm: cfg.Matching.SearchRadiusKm,
			AutoAssign:     cfg.Matching.AutoAssign,
		},
	)

	actorService := service.NewActorService(geoIndex, cacheStore, actorRepo)
	reportService := service.NewReportService(donationRepo)
	predictor := service.NewHeuristicPredictor(geoIndex, donationRepo)

	donationHandler := handler.NewDonationHandler(coordinator, donationRepo)
	actorHandler := handler.NewActorHandler(actorService)
	reportHandler := handler.NewReportHandler(reportService, predictor)

	router := app.NewRouter(app.RouterDeps{
		DonationHandler: donationHandler,
		ActorHandler:    actorHandler,
		ReportHandler:   reportHandler,
		RedisClient:     redisClient,
		NewRelicApp:     nrApp,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, coordinator
}
