package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"shiplog/internal/config"
	"shiplog/internal/database/migrations"
	"shiplog/internal/logbook"
)

// StoreFile is the database filename inside the configured data directory.
const StoreFile = "shiplog.db"

// NewStoreFromConfig opens the store described by the config, migrates it
// to the latest schema version, and only then hands it out: nothing else
// sees a half-migrated store. The migration result carries the one-shot
// "schema upgraded" signal for the caller to surface.
func NewStoreFromConfig(ctx context.Context, cfg config.DatabaseConfig, clock logbook.Clock) (logbook.Store, migrations.Result, error) {
	var path string
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, migrations.Result{}, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, migrations.Result{}, fmt.Errorf("creating data directory: %w", err)
		}
		path = filepath.Join(cfg.DataDir, StoreFile)
	case "memory":
		path = ":memory:"
	default:
		return nil, migrations.Result{}, fmt.Errorf("unknown database type: %s", cfg.Type)
	}

	db, err := OpenConnection(path)
	if err != nil {
		return nil, migrations.Result{}, err
	}

	res, err := migrations.Run(ctx, db, migrations.Steps)
	if err != nil {
		db.Close()
		return nil, res, err
	}

	return NewSQLiteStore(db, clock), res, nil
}
