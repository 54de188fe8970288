package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"deckgen-backend/infrastructure/config"
	"deckgen-backend/infrastructure/di"
	"deckgen-backend/interfaces/http/rest"

	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	// Optional hot-reloaded overrides file
	var watcher *config.OverridesWatcher
	if cfg.OverridesPath != "" {
		watcher, err = config.NewOverridesWatcher(cfg.OverridesPath, container.Logger)
		if err != nil {
			container.Logger.Warn("overrides watcher disabled", zap.Error(err))
		} else {
			watcher.OnChange(func(o *config.Overrides) {
				container.Logger.Info("runtime overrides applied",
					zap.Int("maxHistory", o.Limits.MaxHistory),
					zap.Bool("historyPersistence", o.Features.HistoryPersistence))
			})
			defer watcher.Stop()
		}
	}

	handler := rest.NewRouter(container)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		container.Logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("persistence", cfg.PersistenceDriver),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	container.Logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("Server shutdown error", zap.Error(err))
	}
	if err := container.Tracing.Shutdown(shutdownCtx); err != nil {
		container.Logger.Error("Tracing shutdown error", zap.Error(err))
	}

	if err := container.Logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}

	log.Println("Server stopped")
}
