package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"roomsync/moderation"
	"roomsync/repositories"
	"roomsync/runtime"
	"roomsync/runtime/workers"
	"roomsync/search"
	"roomsync/services"
	"roomsync/ws"
)

// Exit codes give a meaningful status to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// main is a thin wrapper: run() owns the lifecycle so deferred
	// cleanup executes before the process exits.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	charReplacement, err := config.CharacterRune()
	if err != nil {
		return exitConfig, err
	}

	logger := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	badgerOpts := badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Search index (Bluge)
	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 4. Repositories & domain collaborators
	messageRepository := repositories.NewMessageRepository(db, logger, config.LimitMessages)
	whiteboardRepository := repositories.NewWhiteboardRepository(db, logger)
	activityRepository := repositories.NewActivityRepository(db, logger)
	userRepository := repositories.NewUserRepository(db, logger)

	moderator, err := moderation.NewModerator(config.CensoredWordList(), charReplacement)
	if err != nil {
		return exitConfig, fmt.Errorf("moderator init failed: %w", err)
	}
	index := search.NewIndex(blugeWriter, logger)

	orchestrator := runtime.NewOrchestrator(logger, runtime.OrchestratorOptions{
		MessageStore:      messageRepository,
		WhiteboardStore:   whiteboardRepository,
		Activity:          activityRepository,
		Moderator:         &moderator,
		Index:             index,
		TypingTTL:         config.TypingTTL,
		DeliveryTimeout:   config.DeliveryTimeout,
		MaxContentLength:  config.MaxContentLength,
		MaxAttachmentSize: config.MaxAttachmentSize,
	})

	roomService := services.NewRoomService(orchestrator)
	authService := services.NewAuthService(userRepository, config.AuthTokenDuration)

	// 5. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 6. Background workers under supervision
	supervisor := workers.NewSupervisor(logger, config.RestartInterval)
	supervisor.Add(
		workers.NewTypingSweeperWorker(orchestrator, config.TypingSweepInterval, logger),
		workers.NewTelemetryWorker(logger, config.MetricInterval),
	)
	go supervisor.Run(ctx)

	// 7. HTTP surface: auth endpoints + websocket upgrade
	authHandler := ws.NewAuthHandler(logger, authService)
	wsHandler := ws.NewHandler(logger, roomService, authService, config.ConnectionBufferSize)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.Handle("/ws", wsHandler)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, fmt.Errorf("http server error: %w", err)
	}

	// 8. Graceful shutdown: stop accepting, drain, stop workers.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", "error", err)
	}
	supervisor.Stop()
	// Give in-flight deliveries a beat before the stores close.
	time.Sleep(100 * time.Millisecond)

	logger.Info("Server stopped")
	return exitOK, nil
}
