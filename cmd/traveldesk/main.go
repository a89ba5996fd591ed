package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/DennisVerbeek/TravelDesk/app/controllers"
	"github.com/DennisVerbeek/TravelDesk/app/repository"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/bookingstore"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/cache"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/compositor"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/database"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/env"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/router"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/s3backup"
	"github.com/DennisVerbeek/TravelDesk/internal/pkg/syncqueue"
)

func main() {
	app, shutdown := NewApplication()
	defer shutdown()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() (*fiber.App, func()) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/traveldesk to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "public"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	multi, err := compositor.NewMultiClientFromEnv()
	if err != nil {
		log.Fatalf("booking API credentials: %v", err)
	}
	configs := compositor.AvailableConfigurations()
	if len(configs) == 0 {
		log.Fatal("no booking API configuration found, set TRAVEL_COMPOSITOR_USERNAME/PASSWORD/MICROSITE_ID")
	}

	store := bookingstore.NewStore(bookingstore.NewRedisKV())
	fetchers := make(map[int]bookingstore.BookingFetcher, len(configs))
	for i, n := range configs {
		fetchers[n] = multi.Clients()[i]
	}
	syncService := bookingstore.NewSyncService(store, fetchers)

	if s3cfg, err := s3backup.LoadConfig(); err != nil {
		log.Fatalf("snapshot backup config: %v", err)
	} else if s3cfg.IsEnabled() {
		backup, err := s3backup.NewClient(s3cfg)
		if err != nil {
			log.Fatalf("snapshot backup: %v", err)
		}
		syncService = syncService.WithSnapshotBackup(backup)
	}

	queue := syncqueue.NewQueue(cache.GetClient(), syncService, env.GetEnvInt("SYNC_WORKERS", 2))
	checkInterval := time.Duration(env.GetEnvInt("SYNC_CHECK_INTERVAL_MINUTES", 15)) * time.Minute
	manager := syncqueue.NewManager(queue, store, configs, checkInterval)
	manager.Start()

	controllers.Initialize(&controllers.Deps{
		Multi: multi,
		Sync:  syncService,
		Queue: queue,
		Repos: repository.NewRepositories(database.GetDB()),
	})

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName: "TravelDesk",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app, manager.Stop
}
