package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/slotcast/configs"
	"github.com/maheshrc27/slotcast/internal/api/handlers"
	"github.com/maheshrc27/slotcast/internal/api/middleware"
	job "github.com/maheshrc27/slotcast/internal/jobs"
	"github.com/maheshrc27/slotcast/internal/logger"
	"github.com/maheshrc27/slotcast/internal/queue"
	"github.com/maheshrc27/slotcast/internal/repository"
	"github.com/maheshrc27/slotcast/internal/service"
	"github.com/maheshrc27/slotcast/internal/twitter"
	"github.com/robfig/cron/v3"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	logger.Init(cfg.LogLevel)

	grid, err := cfg.Grid()
	if err != nil {
		fatal("Invalid slot grid", err)
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		fatal("Failed to connect to database", err)
	}
	if err := db.Ping(); err != nil {
		fatal("Database is unreachable", err)
	}

	ctx := context.Background()
	storage, err := service.NewR2Storage(ctx, cfg.R2)
	if err != nil {
		fatal("Failed to configure object storage", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()
	enqueuer := queue.NewEnqueuer(client)

	userRepo := repository.NewUserRepository(db)
	apiKeyRepo := repository.NewApiKeyRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	legacyRepo := repository.NewLegacyCredentialRepository(db)
	itemRepo := repository.NewItemRepository(db)
	attemptRepo := repository.NewPublishAttemptRepository(db)

	twitterClients := twitter.NewFactory(twitter.Options{
		UploadURL:         cfg.Twitter.UploadURL,
		APIURL:            cfg.Twitter.APIURL,
		RequestsPerSecond: cfg.Twitter.RequestsPerSecond,
	})

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(userRepo)
	apiKeyService := service.NewApiKeyService(apiKeyRepo)
	accountService := service.NewAccountService(groupRepo, accountRepo, legacyRepo,
		service.AppKeyPair{Key: cfg.Twitter.AppKey, Secret: cfg.Twitter.AppSecret}, cfg.SecretKey)
	mediaService := service.NewMediaService(storage)
	publishService := service.NewPublishService(itemRepo, attemptRepo, accountService, twitterClients, mediaService, cfg.PublishTimeout)
	itemService := service.NewItemService(itemRepo, accountRepo, storage, enqueuer, grid)
	bulkService := service.NewBulkService(itemRepo, accountRepo, storage, enqueuer, grid)

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			slog.Error("unhandled error", "path", c.Path(), "request_id", middleware.GetRequestID(c), "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error(), "code": service.CodeInternal})
		},
	})

	app.Use(middleware.RequestID())
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:request_id} ${status} ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-API-Key, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)
	app.Post("/logout", auth.Logout)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)
	api.Post("/user/remove", user.RemoveUser)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListApiKeys)
	api.Post("/api_key/remove", apiKeys.RemoveApiKey)

	accounts := handlers.NewAccountHandler(accountService)
	api.Get("/groups", accounts.ListGroups)
	api.Post("/groups/create", accounts.CreateGroup)
	api.Get("/accounts", accounts.ListAccounts)
	api.Post("/accounts/create", accounts.CreateAccount)
	api.Post("/accounts/import_legacy", accounts.ImportLegacy)

	items := handlers.NewItemHandler(itemService, publishService, bulkService)
	api.Post("/items/create", items.CreateItem)
	api.Get("/items", items.ListItems)
	api.Post("/items/status", items.UpdateStatus)
	api.Post("/items/update", items.UpdateItem)
	api.Post("/items/remove", items.RemoveItem)
	api.Post("/items/publish", items.PublishItem)
	api.Get("/items/next_slot", items.NextSlot)
	api.Post("/items/bulk", items.BulkSchedule)

	// cron jobs
	sweepJob := job.NewPublishSweepJob(itemRepo, publishService, cfg.SweepPageSize, cfg.StaleProcessingAfter)
	c, err := job.NewScheduler(grid.Location(), cfg.SweepInterval, sweepJob.Run)
	if err != nil {
		fatal("Failed to register sweep job", err)
	}
	c.Start()

	// queue
	worker := queue.NewQueue(publishService)
	server := asynq.NewServer(redisConn, asynq.Config{
		Concurrency: 10,
		Logger:      logger.NewAsynqLogger(slog.Default()),
	})
	go func() {
		slog.Info("Starting the Asynq server...")
		if err := server.Run(worker.Mux()); err != nil {
			fatal("Could not start Asynq server", err)
		}
	}()

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			fatal("Failed to start server", err)
		}
	}()
	slog.Info("Server is running", "port", cfg.Port)

	gracefulShutdown(app, server, c, db)
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}

func closeDB(db *sql.DB) {
	slog.Info("Closing database connection")
	if err := db.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}

func gracefulShutdown(app *fiber.App, server *asynq.Server, c *cron.Cron, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	slog.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		slog.Error("Failed to shut down server", "error", err)
	}
	<-c.Stop().Done()
	server.Shutdown()

	closeDB(db)
	slog.Info("Server shutdown complete.")
}
