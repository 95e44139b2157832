package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-relay/contract"
	"chat-relay/infrastructure/httpapi"
	"chat-relay/infrastructure/ws"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/projection"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/search"
	"chat-relay/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

//go:embed censored/*
var censoredFS embed.FS

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and manages the server lifecycle, so deferred
// cleanup executes before the process exits and the wiring stays testable.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Message store
	store, cleanup, err := openStore(config, log)
	if err != nil {
		return fmt.Errorf("message store opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing message store...")
		_ = cleanup()
	}()

	// 3. Moderation
	mask, err := config.CharacterRune()
	if err != nil {
		return err
	}
	dictionaries, err := moderation.NewLoader(censoredFS).LoadAll("censored")
	if err != nil {
		return fmt.Errorf("censored words loading failed: %w", err)
	}
	moderator, err := moderation.New(dictionaries.Words, mask)
	if err != nil {
		return fmt.Errorf("moderator build failed: %w", err)
	}
	log.Info("Moderation ready", "words", len(dictionaries.Words), "languages", dictionaries.Languages)

	// 4. Read-side projections
	index, err := search.Open(config.BlugeFilepath, log)
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing search index...")
		_ = index.Close()
	}()
	timeline := projection.NewTimeline(config.TimelineCapacity)

	// 5. Coordinator & service facade
	stats := observability.NewStats()
	registry := runtime.NewRegistry()
	coordinator := runtime.NewCoordinator(log, registry, store, runtime.CoordinatorConfig{
		Moderator:      moderator,
		Stats:          stats,
		PermanentSinks: []contract.EventSink{index, timeline},
		SinkTimeout:    config.SinkTimeout,
	})
	service := services.NewChatService(coordinator, index, timeline, stats)

	// 6. Background workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewTelemetryWorker(log, stats, coordinator, config.MetricInterval))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sup.Run(ctx)

	// 7. HTTP & WebSocket surface
	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewHandler(log, service, ws.HandlerConfig{
		BufferSize:       config.ConnectionBufferSize,
		WriteTimeout:     config.WriteTimeout,
		MaxContentLength: config.MaxContentLength,
		Stats:            stats,
	}))
	httpapi.NewHandler(log, service).Register(mux)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: mux}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting relay server", "address", address, "store", config.StoreDriver, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 8. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}

// openStore selects the persistence driver. Badger is the default; sqlite
// is the lighter single-file alternative. The returned cleanup closes the
// store and any underlying handle it does not own itself.
func openStore(config Config, log *slog.Logger) (contract.MessageStore, func() error, error) {
	switch config.StoreDriver {
	case "badger":
		db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
			WithSyncWrites(true).
			WithLoggingLevel(badger.WARNING))
		if err != nil {
			return nil, nil, err
		}
		store, err := repositories.NewBadgerStore(db, log)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, func() error {
			_ = store.Close()
			return db.Close()
		}, nil
	case "sqlite":
		store, err := repositories.OpenSQLiteStore(config.SQLiteFilepath, log)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", config.StoreDriver)
	}
}
