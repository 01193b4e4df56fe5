package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dsneed123/another-social-media-app/internal/relay/app"
	"github.com/dsneed123/another-social-media-app/internal/relay/repository"
	"github.com/dsneed123/another-social-media-app/internal/relay/router"
	"github.com/dsneed123/another-social-media-app/pkg/config"
	"github.com/dsneed123/another-social-media-app/pkg/database"
	"github.com/dsneed123/another-social-media-app/pkg/logger"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.RelayService, config.EnvConfig.RelayServiceLogPath)
	// Debug logging stays on for local runs only.
	logger.Log.SetDebugMode(config.IsLocal())
	cfg := config.LoadConfig[config.Relay](config.EnvConfig.RelayService, config.EnvConfig.RelayServiceYAMLPath)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL: pgx pool for the hot message path, gorm for the asset rows.
	pgURI := fmt.Sprintf("postgres://%s:%s@%s:%d/%s",
		cfg.PostgreSQL.User,
		cfg.PostgreSQL.Password,
		cfg.PostgreSQL.Host,
		cfg.PostgreSQL.Port,
		cfg.PostgreSQL.Database,
	)
	pgConn := database.Connection{
		ConnectStr:    pgURI,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	}
	pool, err := database.NewDatabaseConnection(pgConn)
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgreSQL database after retries",
			zap.String("address", fmt.Sprintf("[%s:%d]", cfg.PostgreSQL.Host, cfg.PostgreSQL.Port)),
			zap.Error(err),
		)
	}
	defer pool.Close()

	gormDB, err := database.NewGormConnection(pgConn)
	if err != nil {
		logger.Log.Fatal("Unable to open gorm connection after retries", zap.Error(err))
	}

	// Redis: presence, typing, unread counters.
	masterName, sentinel := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}

	// MinIO: message media bytes.
	minioClient, err := database.NewMinIOConnection(database.MinIOConnection{
		Endpoint:      cfg.MinIO.Endpoint,
		User:          cfg.MinIO.User,
		Password:      cfg.MinIO.Password,
		BucketName:    cfg.MinIO.Bucket,
		UseSSL:        cfg.MinIO.UseSSL,
		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: time.Duration(cfg.MinIO.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("Unable to connect to minio after retries", zap.Error(err))
	}

	// Repositories
	msgRepo := repository.NewMessageRepository(pool)
	roomRepo := repository.NewRoomRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	presenceRepo := repository.NewPresenceRepository(redisClient)
	mediaRepo := repository.NewMediaAssetRepo(gormDB)
	if err := mediaRepo.AutoMigrate(); err != nil {
		logger.Log.Fatal("media_assets migration failed", zap.Error(err))
	}

	// UseCases
	registry := app.NewConnectionRegistry()
	eventUC := app.NewEventUseCase(registry, msgRepo, roomRepo, userRepo, presenceRepo)
	roomUC := app.NewRoomUseCase(roomRepo, msgRepo, userRepo, presenceRepo)
	mediaUC := app.NewMediaUseCase(mediaRepo, minioClient)

	sweeper := app.NewExpirationSweeper(
		msgRepo,
		mediaRepo,
		minioClient,
		cfg.MinIO.Bucket,
		time.Duration(cfg.Sweep.IntervalSeconds)*time.Second,
		cfg.Sweep.ViewOncePass,
	)
	go sweeper.Run(ctx)

	// Fiber
	r := fiber.New(fiber.Config{
		DisableStartupMessage: config.IsProduction(),
	})
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.RelayServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file,
	}))

	wsHandler := app.NewRelayWebsocketHandler(registry, eventUC, presenceRepo)
	httpHandler := app.NewRelayHTTPHandler(roomUC, mediaUC)
	router.RegisterRoutes(r, wsHandler, httpHandler)

	port := ":" + cfg.Port
	log.Printf("Relay Service listening on %s", port)
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
