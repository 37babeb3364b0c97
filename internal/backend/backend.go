// Package backend creates the tables backend selected by configuration.
package backend

import (
	"context"
	"fmt"

	"lifeplan/internal/config"
	"lifeplan/internal/log"
	"lifeplan/internal/tables"
	"lifeplan/internal/tables/google"
	"lifeplan/internal/tables/memory"
	"lifeplan/internal/tables/sqlite"
)

type Type string

const (
	Memory Type = "memory"
	Sheets Type = "sheets"
	SQLite Type = "sqlite"
)

// CleanupFunc releases backend resources; nil when nothing needs closing.
type CleanupFunc func() error

// Result carries the store and its optional cleanup.
type Result struct {
	Store   tables.Store
	Cleanup CleanupFunc
}

// New builds the tables backend named by cfg.DataBackend.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Result, error) {
	logger = logger.WithComponent(log.ComponentBackend)

	switch Type(cfg.DataBackend) {
	case Memory:
		store := memory.NewFromFiles(cfg.DataDirectory)
		logger.Info("Initialized memory backend", "data_directory", cfg.DataDirectory)
		return &Result{Store: store}, nil

	case Sheets:
		store, err := google.NewFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("initialize sheets backend: %w", err)
		}
		logger.Info("Initialized Google Sheets backend", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		return &Result{Store: store}, nil

	case SQLite:
		store, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: store, Cleanup: store.Close}, nil
	}

	return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
}
