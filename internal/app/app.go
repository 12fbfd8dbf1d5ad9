package app

import (
	"context"
	"fmt"
	"os"

	"shiplog/internal/config"
	"shiplog/internal/database"
	"shiplog/internal/destination"
	"shiplog/internal/logbook"
	"shiplog/internal/model"
)

// App is the application layer between the CLI and the logbook service. It
// constructs every dependency from config, runs migrations before anything
// else touches the store, and manages lifecycle on Close.
type App struct {
	cfg     *config.Config
	store   logbook.Store
	service *logbook.Service
	op      *Operation
	logFile *os.File
	logger  logbook.Logger
}

// NewApp creates a fully wired App from the given config. operation
// identifies the CLI command being run (e.g. "Import", "BackupNow"). The
// caller must call Close when done.
func NewApp(ctx context.Context, cfg *config.Config, operation string) (*App, error) {
	op := NewOperation(operation)

	slogger, logFile, err := newLogger(cfg.LogDir, op.ID)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger := &slogAdapter{l: slogger}

	clock := logbook.RealClock{}
	store, migrated, err := database.NewStoreFromConfig(ctx, cfg.Database, clock)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if migrated.Upgraded {
		// One-shot notice: the schema changed under this invocation.
		logger.Info("schema upgraded", "from", migrated.From, "to", migrated.To)
		fmt.Fprintf(os.Stderr, "Note: data store upgraded from schema version %d to %d.\n",
			migrated.From, migrated.To)
	}

	fallback, err := destination.NewFallbackFromConfig(cfg.Destination)
	if err != nil {
		store.Close()
		logFile.Close()
		return nil, fmt.Errorf("creating fallback destination: %w", err)
	}
	resolver := destination.NewResolver(destination.NewTerminalPrompter(), fallback, logger)

	service := logbook.NewService(store, resolver, logger, clock)

	return &App{
		cfg:     cfg,
		store:   store,
		service: service,
		op:      op,
		logFile: logFile,
		logger:  logger,
	}, nil
}

// Service exposes the logbook service for commands that need it directly.
func (a *App) Service() *logbook.Service { return a.service }

// persistOperation saves the operation record. Only DB-mutating commands
// call this.
func (a *App) persistOperation(ctx context.Context) error {
	if a.op.Persisted() {
		return nil
	}
	err := a.store.CreateOperation(ctx, model.Operation{
		ID:        a.op.ID,
		Name:      a.op.Name,
		Status:    a.op.Status,
		StartedAt: logbook.Timestamp(logbook.RealClock{}.Now()),
	})
	if err != nil {
		return fmt.Errorf("persisting operation: %w", err)
	}
	a.op.persisted = true
	return nil
}

// Fail marks the current operation failed for the history record.
func (a *App) Fail() { a.op.Fail() }

// ExportSnapshot returns the canonical JSON export of the whole store.
func (a *App) ExportSnapshot(ctx context.Context) ([]byte, error) {
	return a.service.ExportSnapshot(ctx)
}

// ExportArchive returns the zip archive export with extracted attachments.
func (a *App) ExportArchive(ctx context.Context) ([]byte, error) {
	return a.service.ExportArchive(ctx)
}

// Import reads a backup file (JSON or zip) and replaces the store's
// contents with it.
func (a *App) Import(ctx context.Context, path string) error {
	if err := a.persistOperation(ctx); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading backup file: %w", err)
	}
	return a.service.Import(ctx, data)
}

// BackupNow runs an interactive backup and returns the written path.
func (a *App) BackupNow(ctx context.Context) (string, error) {
	if err := a.persistOperation(ctx); err != nil {
		return "", err
	}
	return a.service.BackupNow(ctx)
}

// RunScheduledBackup runs the silent auto-backup check.
func (a *App) RunScheduledBackup(ctx context.Context) error {
	if err := a.persistOperation(ctx); err != nil {
		return err
	}
	a.service.RunScheduledBackup(ctx)
	return nil
}

// SetDestination validates and persists the backup destination handle.
func (a *App) SetDestination(ctx context.Context, dir string) error {
	if err := a.persistOperation(ctx); err != nil {
		return err
	}
	return a.service.ChooseDestination(ctx, dir)
}

// ClearDestination removes the persisted destination handle.
func (a *App) ClearDestination(ctx context.Context) error {
	if err := a.persistOperation(ctx); err != nil {
		return err
	}
	return a.service.ClearDestination(ctx)
}

// SetAutoBackup toggles the daily auto-backup setting.
func (a *App) SetAutoBackup(ctx context.Context, enabled bool) error {
	if err := a.persistOperation(ctx); err != nil {
		return err
	}
	return a.service.SetAutoBackup(ctx, enabled)
}

// Status summarizes the store.
func (a *App) Status(ctx context.Context) (*logbook.Status, error) {
	return a.service.Status(ctx)
}

// History returns recent recorded operations.
func (a *App) History(ctx context.Context, limit int) ([]model.Operation, error) {
	return a.service.History(ctx, limit)
}

// Close finalizes the operation record and releases all resources.
func (a *App) Close() error {
	var firstErr error

	if a.op.Persisted() {
		status := a.op.Status
		if status == model.OperationRunning {
			status = model.OperationOK
		}
		if err := a.store.FinishOperation(context.Background(), a.op.ID, status); err != nil {
			firstErr = fmt.Errorf("finishing operation: %w", err)
		}
	}

	if err := a.store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing store: %w", err)
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
