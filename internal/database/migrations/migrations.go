// Package migrations brings a store opened at any prior schema version
// forward to the version this build expects. Migration is forward-only and
// completes before the store is exposed to anything else.
package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"shiplog/internal/logbook"
)

// Step is one schema-version transition. Structural DDL and the optional
// Transform run as a single transaction: a step either lands completely or
// not at all. Transforms must be idempotent because a step may be re-entered
// after an interrupted prior run is repaired.
type Step struct {
	TargetVersion int
	Label         string
	Structural    []string
	Transform     func(ctx context.Context, tx *sql.Tx) error
}

// Result reports what a migration run did. Upgraded is the one-shot
// "schema upgraded" signal for the caller to surface; it is set only when a
// structural step actually ran.
type Result struct {
	From     int
	To       int
	Upgraded bool
}

const createSchemaInfo = `CREATE TABLE IF NOT EXISTS schema_info (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    version INTEGER NOT NULL,
    dirty INTEGER NOT NULL DEFAULT 0
);`

// Run applies every step with TargetVersion greater than the store's
// current version, in ascending order. A store left dirty by an interrupted
// run is refused outright: the failure is fatal and must be repaired with
// Force before the store can be used again.
func Run(ctx context.Context, db *sql.DB, steps []Step) (Result, error) {
	if err := validateSteps(steps); err != nil {
		return Result{}, err
	}

	version, dirty, err := readState(ctx, db)
	if err != nil {
		return Result{}, err
	}
	if dirty {
		return Result{}, fmt.Errorf("schema version %d: %w", version, logbook.ErrMigrationDirty)
	}

	latest := Latest(steps)
	if version > latest {
		return Result{}, fmt.Errorf("store schema version %d is ahead of this build's %d", version, latest)
	}

	res := Result{From: version, To: version}
	for _, step := range steps {
		if step.TargetVersion <= version {
			continue
		}
		if err := applyStep(ctx, db, step); err != nil {
			return res, fmt.Errorf("migrating to version %d (%s): %w", step.TargetVersion, step.Label, err)
		}
		version = step.TargetVersion
		res.To = version
		if len(step.Structural) > 0 {
			res.Upgraded = true
		}
	}
	return res, nil
}

// applyStep marks the store dirty, runs the step in one transaction and
// clears the flag. A crash mid-step leaves dirty set with the transaction
// rolled back, so the next open refuses the store instead of retrying.
func applyStep(ctx context.Context, db *sql.DB, step Step) error {
	if err := setDirty(ctx, db, true); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ddl := range step.Structural {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("applying structural change: %w", err)
		}
	}
	if step.Transform != nil {
		if err := step.Transform(ctx, tx); err != nil {
			return fmt.Errorf("running data transform: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE schema_info SET version = ? WHERE id = 1`, step.TargetVersion); err != nil {
		return fmt.Errorf("recording version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}

	return setDirty(ctx, db, false)
}

// Status returns the store's version and dirty flag without migrating.
func Status(ctx context.Context, db *sql.DB) (version int, dirty bool, err error) {
	return readState(ctx, db)
}

// Force overwrites the recorded version and clears the dirty flag. This is
// the repair path after an interrupted run; the re-entered step relies on
// its transform being idempotent.
func Force(ctx context.Context, db *sql.DB, version int) error {
	if _, err := db.ExecContext(ctx, createSchemaInfo); err != nil {
		return fmt.Errorf("ensuring schema_info: %w", err)
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO schema_info (id, version, dirty) VALUES (1, ?, 0)
		 ON CONFLICT(id) DO UPDATE SET version = excluded.version, dirty = 0`, version)
	if err != nil {
		return fmt.Errorf("forcing version: %w", err)
	}
	return nil
}

// Latest returns the highest target version in the step list.
func Latest(steps []Step) int {
	latest := 0
	for _, s := range steps {
		if s.TargetVersion > latest {
			latest = s.TargetVersion
		}
	}
	return latest
}

func validateSteps(steps []Step) error {
	prev := 0
	for _, s := range steps {
		if s.TargetVersion <= prev {
			return fmt.Errorf("migration steps out of order: version %d after %d", s.TargetVersion, prev)
		}
		prev = s.TargetVersion
	}
	return nil
}

func readState(ctx context.Context, db *sql.DB) (int, bool, error) {
	if _, err := db.ExecContext(ctx, createSchemaInfo); err != nil {
		return 0, false, fmt.Errorf("ensuring schema_info: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO schema_info (id, version, dirty) VALUES (1, 0, 0)`); err != nil {
		return 0, false, fmt.Errorf("initializing schema_info: %w", err)
	}
	var version, dirty int
	err := db.QueryRowContext(ctx, `SELECT version, dirty FROM schema_info WHERE id = 1`).Scan(&version, &dirty)
	if err != nil {
		return 0, false, fmt.Errorf("reading schema state: %w", err)
	}
	return version, dirty != 0, nil
}

func setDirty(ctx context.Context, db *sql.DB, dirty bool) error {
	v := 0
	if dirty {
		v = 1
	}
	if _, err := db.ExecContext(ctx, `UPDATE schema_info SET dirty = ? WHERE id = 1`, v); err != nil {
		return fmt.Errorf("setting dirty flag: %w", err)
	}
	return nil
}
