package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"shiplog/internal/logbook"
	"shiplog/internal/model"
)

// SQLiteStore implements the logbook.Store interface. Each entity table is
// a row-per-record table with the record as JSON in the data column;
// declared indexes are expression indexes over json_extract, and queries
// use the identical expressions so SQLite picks them up.
type SQLiteStore struct {
	db    *sql.DB
	clock logbook.Clock
}

// NewSQLiteStore wraps an already-opened and already-migrated connection.
func NewSQLiteStore(db *sql.DB, clock logbook.Clock) *SQLiteStore {
	return &SQLiteStore{db: db, clock: clock}
}

// OpenConnection opens and configures a SQLite connection. path can be a
// file path or ":memory:". The pool is capped at one connection: the data
// layer assumes a single local writer, and an in-memory database exists
// per connection anyway.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

var _ logbook.Store = (*SQLiteStore)(nil)

func (s *SQLiteStore) Insert(ctx context.Context, table string, rec model.Record) (int64, error) {
	if _, ok := model.TableByName(table); !ok {
		return 0, fmt.Errorf("unknown table: %s", table)
	}
	now := logbook.Timestamp(s.clock.Now())
	rec = rec.Clone()
	rec[model.FieldCreatedAt] = now
	rec[model.FieldUpdatedAt] = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := insertRecord(ctx, tx, table, rec, now, now)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing insert: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) Update(ctx context.Context, table string, id int64, changes model.Record) error {
	now := logbook.Timestamp(s.clock.Now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx,
		fmt.Sprintf("SELECT data FROM %s WHERE id = ?", table), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s id %d: %w", table, id, logbook.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("reading %s %d: %w", table, id, err)
	}

	rec, err := model.DecodeRecord([]byte(raw))
	if err != nil {
		return fmt.Errorf("decoding %s %d: %w", table, id, err)
	}
	for k, v := range changes {
		// Callers never move a record's identity or rewrite its history.
		if k == model.FieldID || k == model.FieldCreatedAt || k == model.FieldUpdatedAt {
			continue
		}
		rec[k] = v
	}
	rec[model.FieldUpdatedAt] = now

	data, err := model.EncodeRecord(rec)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET updated_at = ?, data = ? WHERE id = ?", table),
		now, string(data), id); err != nil {
		return fmt.Errorf("updating %s %d: %w", table, id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing update: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, table string, id int64) error {
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return fmt.Errorf("deleting %s %d: %w", table, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting %s %d: %w", table, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s id %d: %w", table, id, logbook.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, table string, id int64) (model.Record, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT data FROM %s WHERE id = ?", table), id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s id %d: %w", table, id, logbook.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s %d: %w", table, id, err)
	}
	return model.DecodeRecord([]byte(raw))
}

func (s *SQLiteStore) Query(ctx context.Context, table, index string, r logbook.Range) ([]model.Record, error) {
	def, ok := model.TableByName(table)
	if !ok {
		return nil, fmt.Errorf("unknown table: %s", table)
	}
	idx, ok := def.IndexByName(index)
	if !ok {
		return nil, fmt.Errorf("table %s has no index %q", table, index)
	}
	if len(r.Prefix) > len(idx.Fields) {
		return nil, fmt.Errorf("index %s.%s: prefix longer than index", table, index)
	}

	exprs := make([]string, len(idx.Fields))
	for i, f := range idx.Fields {
		exprs[i] = fmt.Sprintf("json_extract(data, '$.%s')", f)
	}

	var where []string
	var args []any
	for i, v := range r.Prefix {
		where = append(where, exprs[i]+" = ?")
		args = append(args, v)
	}
	if r.Low != nil || r.High != nil {
		if len(r.Prefix) >= len(idx.Fields) {
			return nil, fmt.Errorf("index %s.%s: no field left to bound", table, index)
		}
		bounded := exprs[len(r.Prefix)]
		if r.Low != nil {
			op := ">="
			if r.LowOpen {
				op = ">"
			}
			where = append(where, bounded+" "+op+" ?")
			args = append(args, r.Low)
		}
		if r.High != nil {
			op := "<="
			if r.HighOpen {
				op = "<"
			}
			where = append(where, bounded+" "+op+" ?")
			args = append(args, r.High)
		}
	}

	query := fmt.Sprintf("SELECT data FROM %s", table)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY " + strings.Join(exprs, ", ") + ", id"

	return s.selectRecords(ctx, query, args...)
}

func (s *SQLiteStore) All(ctx context.Context, table string) ([]model.Record, error) {
	if _, ok := model.TableByName(table); !ok {
		return nil, fmt.Errorf("unknown table: %s", table)
	}
	return s.selectRecords(ctx, fmt.Sprintf("SELECT data FROM %s ORDER BY id", table))
}

func (s *SQLiteStore) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting %s: %w", table, err)
	}
	return n, nil
}

func (s *SQLiteStore) BulkInsert(ctx context.Context, table string, recs []model.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := bulkInsertTx(ctx, tx, table, recs, logbook.Timestamp(s.clock.Now())); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing bulk insert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context, table string) error {
	if _, ok := model.TableByName(table); !ok {
		return fmt.Errorf("unknown table: %s", table)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clearing %s: %w", table, err)
	}
	return nil
}

// ReplaceAll swaps the store's entire entity contents in one transaction.
// An interrupted restore rolls back rather than leaving the store empty.
func (s *SQLiteStore) ReplaceAll(ctx context.Context, tables map[string][]model.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := logbook.Timestamp(s.clock.Now())
	for _, def := range model.Tables {
		recs, ok := tables[def.Name]
		if !ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+def.Name); err != nil {
			return fmt.Errorf("clearing %s: %w", def.Name, err)
		}
		if err := bulkInsertTx(ctx, tx, def.Name, recs, now); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing replace: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_info WHERE id = 1").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}

func (s *SQLiteStore) CreateOperation(ctx context.Context, op model.Operation) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO operations (id, name, status, started_at) VALUES (?, ?, ?, ?)",
		op.ID, op.Name, op.Status, op.StartedAt)
	if err != nil {
		return fmt.Errorf("recording operation: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FinishOperation(ctx context.Context, id, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE operations SET status = ?, finished_at = ? WHERE id = ?",
		status, logbook.Timestamp(s.clock.Now()), id)
	if err != nil {
		return fmt.Errorf("finishing operation: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecentOperations(ctx context.Context, limit int) ([]model.Operation, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, status, started_at, COALESCE(finished_at, '') FROM operations ORDER BY started_at DESC, id LIMIT ?",
		limit)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []model.Operation
	for rows.Next() {
		var op model.Operation
		if err := rows.Scan(&op.ID, &op.Name, &op.Status, &op.StartedAt, &op.FinishedAt); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		ops = append(ops, op)
	}
	return ops, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) selectRecords(ctx context.Context, query string, args ...any) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var recs []model.Record
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		rec, err := model.DecodeRecord([]byte(raw))
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// insertRecord inserts one record whose createdAt/updatedAt are already
// set. A record carrying its own id keeps it; a colliding id fails with
// ErrConflict. Records without an id get the table's next one, which is
// then written back into the stored JSON.
func insertRecord(ctx context.Context, tx *sql.Tx, table string, rec model.Record, createdAt, updatedAt string) (int64, error) {
	if id := rec.ID(); id != 0 {
		data, err := model.EncodeRecord(rec)
		if err != nil {
			return 0, err
		}
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (id, created_at, updated_at, data) VALUES (?, ?, ?, ?)", table),
			id, createdAt, updatedAt, string(data))
		if isConstraintErr(err) {
			return 0, fmt.Errorf("%s id %d: %w", table, id, logbook.ErrConflict)
		}
		if err != nil {
			return 0, fmt.Errorf("inserting into %s: %w", table, err)
		}
		return id, nil
	}

	res, err := tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (created_at, updated_at, data) VALUES (?, ?, '{}')", table),
		createdAt, updatedAt)
	if err != nil {
		return 0, fmt.Errorf("inserting into %s: %w", table, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("inserting into %s: %w", table, err)
	}
	rec[model.FieldID] = id
	data, err := model.EncodeRecord(rec)
	if err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET data = ? WHERE id = ?", table), string(data), id); err != nil {
		return 0, fmt.Errorf("inserting into %s: %w", table, err)
	}
	return id, nil
}

// bulkInsertTx inserts records verbatim for the restore path: ids and
// timestamps are preserved exactly as stored; only records missing them get
// fresh ones.
func bulkInsertTx(ctx context.Context, tx *sql.Tx, table string, recs []model.Record, now string) error {
	if _, ok := model.TableByName(table); !ok {
		return fmt.Errorf("unknown table: %s", table)
	}
	for _, rec := range recs {
		rec = rec.Clone()
		createdAt := rec.CreatedAt()
		if createdAt == "" {
			createdAt = now
			rec[model.FieldCreatedAt] = createdAt
		}
		updatedAt := rec.UpdatedAt()
		if updatedAt == "" {
			updatedAt = now
			rec[model.FieldUpdatedAt] = updatedAt
		}
		if _, err := insertRecord(ctx, tx, table, rec, createdAt, updatedAt); err != nil {
			return err
		}
	}
	return nil
}

func isConstraintErr(err error) bool {
	var serr sqlite3.Error
	return errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint
}
