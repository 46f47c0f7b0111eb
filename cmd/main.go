package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"textnest/auth"
	"textnest/infrastructure/httpapi"
	"textnest/infrastructure/ws"
	"textnest/observability"
	"textnest/repositories"
	"textnest/runtime"
	"textnest/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the relay and manages its lifecycle. Returning an error instead of
// exiting keeps the defers (database close in particular) running on every
// shutdown path.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Persistence & relay core
	users := repositories.NewUserRepository(db)
	groups := repositories.NewGroupRepository(db)
	messages := repositories.NewMessageRepository(db, log)

	stats := observability.NewStats(log)
	registry := runtime.NewRegistry()
	membership := runtime.NewMembershipIndex(log, groups)
	router := runtime.NewRouter(log, registry, membership, messages, stats)

	// 4. Services & transport
	issuer := auth.NewTokenIssuer(config.AuthTokenSecret, config.AuthTokenDuration)
	authService := services.NewAuthService(users, issuer)
	directory := services.NewDirectoryService(users, messages)

	socket := ws.NewHandler(log, registry, membership, router, stats,
		config.AllowedOrigins, config.SessionBufferSize)
	api := httpapi.NewServer(log, authService, directory, membership, socket)

	// 5. Context & signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go stats.Listen(ctx, config.StatsInterval)

	// 6. HTTP server
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:    address,
		Handler: api.Routes(config.AllowedOrigins),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting server", "address", address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}

	log.Info("Program stopped cleanly")
	return nil
}
