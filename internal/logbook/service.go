package logbook

import (
	"context"
	"errors"
	"fmt"

	"shiplog/internal/model"
)

// settingsID is the fixed id of the single settings record, seeded by the
// first migration step.
const settingsID = 1

// DestinationResolver writes backup files through the fallback chain:
// stored handle, interactive prompt, fallback directory.
type DestinationResolver interface {
	// Write stores data under filename at the first usable destination
	// and returns the final path. handleDir is the persisted destination
	// handle ("" for none); interactive gates the prompt step.
	Write(ctx context.Context, handleDir, filename string, data []byte, interactive bool) (string, error)

	// Validate checks that a directory is usable as a stored handle.
	Validate(dir string) error
}

// Service is the orchestration layer that coordinates the store, the backup
// pipeline and the destination resolver for the operations the UI calls.
type Service struct {
	store    Store
	resolver DestinationResolver
	logger   Logger
	clock    Clock
}

// NewService creates a Service with the provided dependencies.
func NewService(store Store, resolver DestinationResolver, logger Logger, clock Clock) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		logger:   logger,
		clock:    clock,
	}
}

// Store exposes the entity store for CRUD callers.
func (s *Service) Store() Store { return s.store }

// ExportSnapshot serializes every table into the canonical JSON document.
func (s *Service) ExportSnapshot(ctx context.Context) ([]byte, error) {
	snap, err := Serialize(ctx, s.store, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return snap.Encode()
}

// ExportArchive serializes the store and packs it with all attachments into
// a zip archive.
func (s *Service) ExportArchive(ctx context.Context) ([]byte, error) {
	snap, err := Serialize(ctx, s.store, s.clock.Now())
	if err != nil {
		return nil, err
	}
	return Pack(ctx, snap)
}

// ImportSnapshot validates a JSON backup document and replaces the store's
// contents with it.
func (s *Service) ImportSnapshot(ctx context.Context, data []byte) error {
	snap, err := DecodeSnapshot(data)
	if err != nil {
		return err
	}
	s.logger.Info("importing snapshot", "formatVersion", snap.FormatVersion, "exportedAt", snap.ExportedAt)
	return RestoreSnapshot(ctx, s.store, snap)
}

// ImportArchive validates a zip backup archive and replaces the store's
// contents with it.
func (s *Service) ImportArchive(ctx context.Context, data []byte) error {
	snap, err := Unpack(data)
	if err != nil {
		return err
	}
	s.logger.Info("importing archive", "formatVersion", snap.FormatVersion, "exportedAt", snap.ExportedAt)
	return RestoreSnapshot(ctx, s.store, snap)
}

// Import detects the input form (zip archive or raw JSON) and restores it.
func (s *Service) Import(ctx context.Context, data []byte) error {
	if IsArchive(data) {
		return s.ImportArchive(ctx, data)
	}
	return s.ImportSnapshot(ctx, data)
}

// BackupNow runs the full backup chain for an interactive caller: errors
// propagate so the UI can surface them.
func (s *Service) BackupNow(ctx context.Context) (string, error) {
	return s.writeBackup(ctx, true)
}

// writeBackup is the shared serialize → pack → resolve → write chain. The
// last-backup marker is updated only after the write fully succeeded.
func (s *Service) writeBackup(ctx context.Context, interactive bool) (string, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return "", err
	}
	data, err := s.ExportArchive(ctx)
	if err != nil {
		return "", err
	}
	filename := BackupFilename(s.clock.Now(), "zip")
	path, err := s.resolver.Write(ctx, settings.BackupDir, filename, data, interactive)
	if err != nil {
		return "", err
	}
	err = s.UpdateSettings(ctx, func(st *model.Settings) {
		st.LastBackupDate = Timestamp(s.clock.Now())
	})
	if err != nil {
		return path, fmt.Errorf("backup written but marker update failed: %w", err)
	}
	return path, nil
}

// ChooseDestination validates a directory and persists it as the backup
// destination handle.
func (s *Service) ChooseDestination(ctx context.Context, dir string) error {
	if err := s.resolver.Validate(dir); err != nil {
		return fmt.Errorf("destination not usable: %w", err)
	}
	return s.UpdateSettings(ctx, func(st *model.Settings) {
		st.BackupDir = dir
	})
}

// ClearDestination removes the persisted destination handle.
func (s *Service) ClearDestination(ctx context.Context) error {
	return s.UpdateSettings(ctx, func(st *model.Settings) {
		st.BackupDir = ""
	})
}

// SetAutoBackup toggles the daily auto-backup.
func (s *Service) SetAutoBackup(ctx context.Context, enabled bool) error {
	return s.UpdateSettings(ctx, func(st *model.Settings) {
		st.AutoBackup = enabled
	})
}

// Settings reads the single settings record. A store that predates the
// settings seed yields zero-value settings rather than an error.
func (s *Service) Settings(ctx context.Context) (model.Settings, error) {
	rec, err := s.store.Get(ctx, model.SettingsTable, settingsID)
	if errors.Is(err, ErrNotFound) {
		return model.Settings{}, nil
	}
	if err != nil {
		return model.Settings{}, err
	}
	var settings model.Settings
	if err := model.FromRecord(rec, &settings); err != nil {
		return model.Settings{}, err
	}
	return settings, nil
}

// UpdateSettings applies fn to the settings record and writes it back.
func (s *Service) UpdateSettings(ctx context.Context, fn func(*model.Settings)) error {
	settings, err := s.Settings(ctx)
	if err != nil {
		return err
	}
	fn(&settings)
	rec, err := model.ToRecord(settings)
	if err != nil {
		return err
	}
	// Make cleared string fields explicit: omitempty drops them from the
	// typed encoding, but Update merges and must overwrite stale values.
	if settings.BackupDir == "" {
		rec["backupDir"] = ""
	}
	if settings.LastBackupDate == "" {
		rec["lastBackupDate"] = ""
	}
	err = s.store.Update(ctx, model.SettingsTable, settingsID, rec)
	if errors.Is(err, ErrNotFound) {
		rec[model.FieldID] = int64(settingsID)
		_, err = s.store.Insert(ctx, model.SettingsTable, rec)
	}
	return err
}

// Status summarizes the store for the status command.
type Status struct {
	SchemaVersion  int
	Counts         map[string]int64
	AutoBackup     bool
	LastBackupDate string
	BackupDir      string
}

// Status reports the schema version, per-table record counts and the
// backup-related settings.
func (s *Service) Status(ctx context.Context) (*Status, error) {
	version, err := s.store.SchemaVersion(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(model.Tables))
	for _, table := range model.Tables {
		n, err := s.store.Count(ctx, table.Name)
		if err != nil {
			return nil, fmt.Errorf("counting %s: %w", table.Name, err)
		}
		counts[table.Name] = n
	}
	settings, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}
	return &Status{
		SchemaVersion:  version,
		Counts:         counts,
		AutoBackup:     settings.AutoBackup,
		LastBackupDate: settings.LastBackupDate,
		BackupDir:      settings.BackupDir,
	}, nil
}

// History returns the most recent recorded operations.
func (s *Service) History(ctx context.Context, limit int) ([]model.Operation, error) {
	return s.store.RecentOperations(ctx, limit)
}
