package logbook

import (
	"context"

	"shiplog/internal/model"
)

// Range selects records from an index. Leading index fields listed in
// Prefix are matched exactly; Low/High bound the next field. A nil bound
// is unbounded; Open flags exclude the bound itself.
type Range struct {
	Prefix   []any
	Low      any
	High     any
	LowOpen  bool
	HighOpen bool
}

// Store is the entity store: typed tables of records with store-assigned
// integer ids and secondary indexes. Insert and Update stamp createdAt and
// updatedAt; the bulk operations exist for the restore pipeline and
// preserve whatever the records already carry.
type Store interface {
	// Insert adds a record and returns its id. A caller-supplied id is
	// honored; a colliding one fails with ErrConflict.
	Insert(ctx context.Context, table string, rec model.Record) (int64, error)

	// Update merges changes into an existing record and bumps updatedAt.
	// Unknown id fails with ErrNotFound. Store-managed fields in changes
	// are ignored.
	Update(ctx context.Context, table string, id int64, changes model.Record) error

	// Delete removes a record. Unknown id fails with ErrNotFound.
	Delete(ctx context.Context, table string, id int64) error

	// Get returns one record, or ErrNotFound.
	Get(ctx context.Context, table string, id int64) (model.Record, error)

	// Query returns records matching a declared index range, ordered by
	// the index fields.
	Query(ctx context.Context, table, index string, r Range) ([]model.Record, error)

	// All returns every record of a table ordered by id.
	All(ctx context.Context, table string) ([]model.Record, error)

	// Count returns the number of records in a table.
	Count(ctx context.Context, table string) (int64, error)

	// BulkInsert adds records verbatim: ids, createdAt and updatedAt are
	// taken from the records when present.
	BulkInsert(ctx context.Context, table string, recs []model.Record) error

	// Clear removes all records from a table.
	Clear(ctx context.Context, table string) error

	// ReplaceAll clears every entity table and bulk-inserts the given
	// records in a single transaction: an interrupted restore rolls back
	// instead of leaving the store empty.
	ReplaceAll(ctx context.Context, tables map[string][]model.Record) error

	// SchemaVersion returns the store's current schema version.
	SchemaVersion(ctx context.Context) (int, error)

	// Operation log (local infrastructure, excluded from snapshots).
	CreateOperation(ctx context.Context, op model.Operation) error
	FinishOperation(ctx context.Context, id, status string) error
	RecentOperations(ctx context.Context, limit int) ([]model.Operation, error)

	Close() error
}
