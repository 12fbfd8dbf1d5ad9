package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"shiplog/internal/logbook"
	"shiplog/internal/model"
)

// Steps is the migration chain for this build. Every entity table uses the
// same shape: an autoincrement id, the store-managed timestamps, and the
// record itself as JSON in data. Secondary indexes are expression indexes
// over json_extract, matching the expressions the store queries with.
var Steps = []Step{
	{
		TargetVersion: 1,
		Label:         "core tables",
		Structural: []string{
			entityTable(model.VesselsTable),
			entityTable(model.CrewTable),
			entityTable(model.LogbookEntriesTable),
			entityTable(model.SettingsTable),
			indexDDL(model.VesselsTable, "name", "name"),
			indexDDL(model.CrewTable, "name", "name"),
			indexDDL(model.LogbookEntriesTable, "date", "date"),
			createOperations,
		},
		Transform: seedDefaultSettings,
	},
	{
		TargetVersion: 2,
		Label:         "passages and maintenance",
		Structural: []string{
			entityTable(model.PassagesTable),
			entityTable(model.MaintenanceTasksTable),
			indexDDL(model.PassagesTable, "start", "start"),
			indexDDL(model.MaintenanceTasksTable, "due", "dueDate"),
			indexDDL(model.LogbookEntriesTable, "passage_date", "passageId", "date"),
		},
	},
	{
		TargetVersion: 3,
		Label:         "watch entries and safety checklists",
		Structural: []string{
			entityTable(model.WatchEntriesTable),
			entityTable(model.SafetyChecklistsTable),
			indexDDL(model.WatchEntriesTable, "passage_start", "passageId", "start"),
			indexDDL(model.SafetyChecklistsTable, "name", "name"),
		},
		Transform: seedChecklists(defaultChecklists),
	},
	{
		TargetVersion: 4,
		Label:         "onboard storage",
		Structural: []string{
			entityTable(model.StorageAreasTable),
			entityTable(model.StorageSectionsTable),
			entityTable(model.StorageItemsTable),
			indexDDL(model.StorageSectionsTable, "area", "areaId"),
			indexDDL(model.StorageItemsTable, "section", "sectionId"),
			indexDDL(model.StorageItemsTable, "name", "name"),
		},
		Transform: convertLegacyPhotos,
	},
	{
		TargetVersion: 5,
		Label:         "extended checklist seed",
		// Redefines the checklist seed set for stores created before
		// version 3 shipped; the non-empty guard leaves existing data
		// alone.
		Transform: seedChecklists(extendedChecklists),
	},
}

const createOperations = `CREATE TABLE IF NOT EXISTS operations (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    status TEXT NOT NULL,
    started_at TEXT NOT NULL,
    finished_at TEXT
);`

// entityTable returns the DDL shared by all entity tables.
func entityTable(name string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    data TEXT NOT NULL
);`, name)
}

// indexDDL returns an expression index over json_extract for the given
// record fields.
func indexDDL(table, index string, fields ...string) string {
	exprs := make([]string, len(fields))
	for i, f := range fields {
		exprs[i] = fmt.Sprintf("json_extract(data, '$.%s')", f)
	}
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s (%s);",
		table, index, table, strings.Join(exprs, ", "))
}

// seedIfEmpty writes default rows unless the table already has any. The
// guard makes seeding safe under repeated partial-run recovery and lets a
// later step redefine an earlier step's seed set.
func seedIfEmpty(ctx context.Context, tx *sql.Tx, table string, values []any) error {
	var n int64
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return fmt.Errorf("counting %s: %w", table, err)
	}
	if n > 0 {
		return nil
	}
	now := logbook.Timestamp(time.Now())
	for _, v := range values {
		rec, err := model.ToRecord(v)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (created_at, updated_at, data) VALUES (?, ?, '{}')", table),
			now, now)
		if err != nil {
			return fmt.Errorf("seeding %s: %w", table, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("seeding %s: %w", table, err)
		}
		rec[model.FieldID] = id
		rec[model.FieldCreatedAt] = now
		rec[model.FieldUpdatedAt] = now
		data, err := model.EncodeRecord(rec)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("UPDATE %s SET data = ? WHERE id = ?", table), string(data), id); err != nil {
			return fmt.Errorf("seeding %s: %w", table, err)
		}
	}
	return nil
}

func seedDefaultSettings(ctx context.Context, tx *sql.Tx) error {
	return seedIfEmpty(ctx, tx, model.SettingsTable, []any{
		model.Settings{AutoBackup: false, Units: "metric", Language: "en"},
	})
}

var defaultChecklists = []any{
	model.SafetyChecklist{Name: "Before departure", Items: []string{
		"Weather briefing", "Life jackets on board", "Bilge dry", "Fuel checked",
	}},
	model.SafetyChecklist{Name: "Man overboard", Items: []string{
		"Shout and point", "Throw lifebuoy", "Press MOB", "Start engine",
	}},
}

var extendedChecklists = append(defaultChecklists[:len(defaultChecklists):len(defaultChecklists)],
	model.SafetyChecklist{Name: "Heavy weather", Items: []string{
		"Reef early", "Secure hatches", "Rig jacklines", "Brief the crew",
	}},
)

// seedChecklists returns a transform seeding the given checklist set.
func seedChecklists(set []any) func(context.Context, *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		return seedIfEmpty(ctx, tx, model.SafetyChecklistsTable, set)
	}
}

// convertLegacyPhotos rewrites the pre-v4 single "photo" data URI field on
// log entries into the attachments list. Entries without the legacy field
// are untouched, so re-running is a no-op.
func convertLegacyPhotos(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx,
		fmt.Sprintf("SELECT id, data FROM %s WHERE json_extract(data, '$.photo') IS NOT NULL",
			model.LogbookEntriesTable))
	if err != nil {
		return fmt.Errorf("scanning legacy photos: %w", err)
	}
	type patch struct {
		id   int64
		data string
	}
	var patches []patch
	for rows.Next() {
		var id int64
		var raw string
		if err := rows.Scan(&id, &raw); err != nil {
			rows.Close()
			return fmt.Errorf("scanning legacy photo row: %w", err)
		}
		rec, err := model.DecodeRecord([]byte(raw))
		if err != nil {
			rows.Close()
			return fmt.Errorf("decoding log entry %d: %w", id, err)
		}
		photo, ok := rec["photo"].(string)
		if !ok || !strings.HasPrefix(photo, "data:") {
			continue
		}
		mimeType, payload, err := model.DecodeDataURI(photo)
		if err != nil {
			rows.Close()
			return fmt.Errorf("decoding legacy photo on entry %d: %w", id, err)
		}
		att, err := model.ToRecord(model.Attachment{
			Name: fmt.Sprintf("photo-%d%s", id, extensionFor(mimeType)),
			Type: mimeType,
			Size: int64(len(payload)),
			Data: photo,
		})
		if err != nil {
			rows.Close()
			return err
		}
		list, _ := rec["attachments"].([]any)
		rec["attachments"] = append(list, map[string]any(att))
		delete(rec, "photo")
		data, err := model.EncodeRecord(rec)
		if err != nil {
			rows.Close()
			return err
		}
		patches = append(patches, patch{id: id, data: string(data)})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("scanning legacy photos: %w", err)
	}

	for _, p := range patches {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("UPDATE %s SET data = ? WHERE id = ?", model.LogbookEntriesTable),
			p.data, p.id); err != nil {
			return fmt.Errorf("updating log entry %d: %w", p.id, err)
		}
	}
	return nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	default:
		return ""
	}
}
