// Package main provides the dashboard API server entry point.
package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"

	"github.com/rschaeff/archaea-vis/internal/db"
	"github.com/rschaeff/archaea-vis/internal/server"
)

func main() {
	var (
		listenAddr   string
		databaseType string
		databaseDSN  string
		dataRoot     string
		migrate      bool
	)

	flag.StringVar(&listenAddr, "listen", "", "Address to listen on (overrides ARCHAEA_LISTEN_ADDR)")
	flag.StringVar(&databaseType, "db-type", "postgres", "Database type (postgres, mysql, or sqlite)")
	flag.StringVar(&databaseDSN, "db-dsn", "", "Database connection string")
	flag.StringVar(&dataRoot, "data-root", "", "Artifact directory (overrides ARCHAEA_DATA_ROOT)")
	flag.BoolVar(&migrate, "migrate", false, "Run schema migration before serving")
	flag.Parse()

	_ = flag.Set("logtostderr", "true")

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := server.ConfigFromEnv()
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if dataRoot != "" {
		cfg.DataRoot = dataRoot
	}

	if databaseDSN == "" {
		databaseDSN = os.Getenv("ARCHAEA_DB_DSN")
	}
	if v := os.Getenv("ARCHAEA_DB_TYPE"); v != "" && databaseType == "postgres" {
		databaseType = v
	}

	gormDB, err := db.Connect(db.Config{Type: databaseType, DSN: databaseDSN})
	if err != nil {
		glog.Fatalf("Failed to connect to database: %v", err)
	}

	srv := server.New(gormDB, cfg, logger)
	if migrate {
		if err := srv.Migrate(); err != nil {
			glog.Fatalf("Failed to migrate schema: %v", err)
		}
		logger.Info("schema migrated")
	}

	router := srv.MountRoutes()

	logger.Info("archaea-vis server ready",
		"listen", cfg.ListenAddr,
		"dbType", databaseType,
		"dataRoot", cfg.DataRoot,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("archaea-vis server stopped")
}
