package logbook

import "errors"

// Error taxonomy for the data layer. Structural errors (migration, format
// validation) always reach a decision point before anything destructive
// happens; the single-record errors are recoverable by the caller.
var (
	// ErrNotFound is returned by Get/Update/Delete for an unknown id.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned by Insert when a caller-supplied id collides
	// with an existing record.
	ErrConflict = errors.New("record id conflict")

	// ErrInvalidFormat is returned by the restore pipeline when the input
	// is not a recognizable backup. The store is left untouched.
	ErrInvalidFormat = errors.New("invalid backup format")

	// ErrDestinationUnavailable is returned when every mechanism in the
	// destination fallback chain has failed.
	ErrDestinationUnavailable = errors.New("no backup destination available")

	// ErrMigrationDirty is returned when a previous migration run was
	// interrupted mid-step. The store must not be used until repaired.
	ErrMigrationDirty = errors.New("store is dirty from an interrupted migration")
)
