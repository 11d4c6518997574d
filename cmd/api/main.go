package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"hajzi/internal/adapter/api"
	"hajzi/internal/adapter/api/handler"
	apimiddleware "hajzi/internal/adapter/api/middleware"
	"hajzi/internal/adapter/api/router"
	"hajzi/internal/adapter/repository"
	domainrepo "hajzi/internal/domain/repository"
	"hajzi/internal/domain/service"
	"hajzi/internal/infrastructure/firebase"
	"hajzi/internal/infrastructure/identity"
	"hajzi/internal/infrastructure/ratelimit"
	"hajzi/internal/infrastructure/redisbus"
	"hajzi/internal/infrastructure/storage"
	"hajzi/internal/infrastructure/websocket"
	"hajzi/internal/usecase"
	"hajzi/pkg/config"
	"hajzi/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	logger.Configure(!cfg.IsProduction())
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		chatRepo     domainrepo.ChatRepository
		slotRepo     domainrepo.AppointmentRepository
		userRepo     domainrepo.UserRepository
		verifier     apimiddleware.TokenVerifier
		files        service.FileUploadService
		firebaseApps *firebase.Clients
		devTokens    *handler.DevTokenHandler
	)

	if cfg.UsesMemoryStore() {
		if cfg.IsProduction() {
			logger.Error("STORE_DRIVER=memory is not allowed in production")
			os.Exit(1)
		}
		logger.Warn("Using in-memory store; data is lost on restart")
		chatRepo = repository.NewMemoryChatRepository()
		slotRepo = repository.NewMemoryAppointmentRepository()
		memoryUsers := repository.NewMemoryUserRepository()
		userRepo = memoryUsers
		verifier = firebase.DevTokenVerifier{}
		devTokens = handler.NewDevTokenHandler(memoryUsers)
	} else {
		firebaseApps, err = firebase.NewClients(ctx, cfg)
		if err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
		defer firebaseApps.Close()

		chatRepo = repository.NewFirestoreChatRepository(firebaseApps.Firestore)
		slotRepo = repository.NewFirestoreAppointmentRepository(firebaseApps.Firestore)
		userRepo = repository.NewFirestoreUserRepository(firebaseApps.Firestore)
		verifier = firebase.NewFirebaseAuthClient(firebaseApps.Auth)
	}

	if cfg.StorageBucket != "" {
		credentials, err := firebase.CredentialsOption(cfg)
		if err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
		var storageClient *storage.CloudStorageClient
		if credentials != nil {
			storageClient, err = storage.NewCloudStorageClient(ctx, cfg.StorageBucket, credentials)
		} else {
			storageClient, err = storage.NewCloudStorageClient(ctx, cfg.StorageBucket)
		}
		if err != nil {
			logger.Error("Failed to initialize Cloud Storage: %v", err)
			os.Exit(1)
		}
		defer storageClient.Close()
		files = storageClient
	} else {
		logger.Warn("STORAGE_BUCKET is not set; media uploads are disabled")
	}

	wsManager := websocket.NewManager(cfg.WSMessagesPerSecond)

	var publisher service.RealtimePublisher = wsManager
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()

		bus := redisbus.New(rdb, cfg.RedisChannel, wsManager)
		// Run resubscribes on its own and only stops with ctx.
		go func() { _ = bus.Run(ctx) }()
		publisher = bus
	}

	directory := identity.NewDirectory(userRepo, identity.Settings{
		MaxFailures: cfg.IdentityBreakerFailures,
		OpenTimeout: time.Duration(cfg.IdentityBreakerTimeout) * time.Second,
	})

	chatUseCase := usecase.NewChatUseCase(chatRepo, directory, publisher, files, cfg.MaxUploadBytes)
	slotUseCase := usecase.NewSlotUseCase(slotRepo)

	limiter := ratelimit.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiter.StartCleanupRoutine(ctx)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.AllowedOrigins}))
	} else {
		e.Use(middleware.CORS())
	}
	e.Use(middleware.BodyLimit("6M"))

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(verifier)

	router.Setup(e, router.Handlers{
		Chat:      handler.NewChatHandler(chatUseCase, cfg.MaxUploadBytes),
		Slot:      handler.NewSlotHandler(slotUseCase),
		WebSocket: handler.NewWebSocketHandler(wsManager, authMiddleware, chatUseCase, cfg.AllowedOrigins),
		Health:    handler.NewHealthHandler(wsManager, cfg.StoreDriver),
		DevToken:  devTokens,
	}, authMiddleware, apimiddleware.RateLimit(limiter))

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			logger.Error("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
	logger.Info("Server stopped")
}
