// Package main provides the bulk TSV loader entry point. It is run once
// per pipeline release to replace the bulk tables and seed curation
// candidates for newly classified proteins.
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/golang/glog"

	"github.com/rschaeff/archaea-vis/internal/db"
	"github.com/rschaeff/archaea-vis/internal/loader"
	"github.com/rschaeff/archaea-vis/pkg/archaea"
	"github.com/rschaeff/archaea-vis/pkg/curation"
)

func main() {
	var (
		manifestPath string
		databaseType string
		databaseDSN  string
	)

	flag.StringVar(&manifestPath, "manifest", "manifest.yaml", "Path to the load manifest")
	flag.StringVar(&databaseType, "db-type", "postgres", "Database type (postgres, mysql, or sqlite)")
	flag.StringVar(&databaseDSN, "db-dsn", "", "Database connection string")
	flag.Parse()

	_ = flag.Set("logtostderr", "true")

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if databaseDSN == "" {
		databaseDSN = os.Getenv("ARCHAEA_DB_DSN")
	}

	manifest, err := loader.LoadManifest(manifestPath)
	if err != nil {
		glog.Fatalf("Failed to load manifest: %v", err)
	}

	gormDB, err := db.Connect(db.Config{Type: databaseType, DSN: databaseDSN})
	if err != nil {
		glog.Fatalf("Failed to connect to database: %v", err)
	}

	if err := archaea.NewStore(gormDB).AutoMigrate(); err != nil {
		glog.Fatalf("Failed to migrate bulk tables: %v", err)
	}
	if err := curation.NewStore(gormDB).AutoMigrate(); err != nil {
		glog.Fatalf("Failed to migrate curation tables: %v", err)
	}

	if err := loader.New(gormDB, logger).Run(manifest); err != nil {
		glog.Fatalf("Load failed: %v", err)
	}

	logger.Info("load complete", "manifest", manifestPath)
}
