package logbook

import (
	"context"
	"fmt"

	"shiplog/internal/model"
)

// Restore validates a backup (raw snapshot JSON or zip archive) and
// replaces the store's contents with it. Validation happens before any
// existing data is touched: malformed input fails with ErrInvalidFormat and
// leaves the store unmodified. Record ids and timestamps round-trip
// unchanged; restore is not re-insertion.
func Restore(ctx context.Context, store Store, input []byte) error {
	var snap *Snapshot
	var err error
	if IsArchive(input) {
		snap, err = Unpack(input)
	} else {
		snap, err = DecodeSnapshot(input)
	}
	if err != nil {
		return err
	}
	return RestoreSnapshot(ctx, store, snap)
}

// RestoreSnapshot loads an already-decoded snapshot into the store.
// Snapshot tables that are not in the registry (a newer export format, say)
// are ignored rather than rejected.
func RestoreSnapshot(ctx context.Context, store Store, snap *Snapshot) error {
	known := make(map[string][]model.Record, len(model.Tables))
	for _, table := range model.Tables {
		recs := snap.Tables[table.Name]
		if recs == nil {
			recs = []model.Record{}
		}
		known[table.Name] = recs
	}
	if err := store.ReplaceAll(ctx, known); err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}
	return nil
}
