package logbook_test

import (
	"context"
	"strings"
	"testing"

	"shiplog/internal/destination"
	"shiplog/internal/logbook"
	"shiplog/internal/model"
	"shiplog/internal/testutil"
)

func newTestService(t *testing.T) (*logbook.Service, *testutil.StubClock) {
	t.Helper()
	clock := testutil.FixedClock()
	store := testutil.NewTestStore(t, clock)
	resolver := destination.NewResolver(nil, destination.NewMemoryDestination(), logbook.NewNopLogger())
	return logbook.NewService(store, resolver, logbook.NewNopLogger(), clock), clock
}

// mustInsert converts a typed entity and inserts it.
func mustInsert(t *testing.T, svc *logbook.Service, table string, v any) int64 {
	t.Helper()
	rec, err := model.ToRecord(v)
	if err != nil {
		t.Fatalf("ToRecord() error = %v", err)
	}
	id, err := svc.Store().Insert(context.Background(), table, rec)
	if err != nil {
		t.Fatalf("Insert into %s error = %v", table, err)
	}
	return id
}

func TestService_ExportImport(t *testing.T) {
	ctx := context.Background()

	t.Run("full backup and restore of a small logbook", func(t *testing.T) {
		svc, _ := newTestService(t)

		photo := model.NewAttachment("sunset over the sound.jpg", "image/jpeg",
			[]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 0x4A, 0x46})

		mustInsert(t, svc, model.VesselsTable, model.Vessel{
			Name: "Wanderer", Registration: "GBR-1234", LengthM: 11.3,
		})
		mustInsert(t, svc, model.CrewTable, model.CrewMember{Name: "Alex", Role: "skipper"})
		mustInsert(t, svc, model.CrewTable, model.CrewMember{Name: "Sam", Role: "first mate"})
		entryID := mustInsert(t, svc, model.LogbookEntriesTable, model.LogbookEntry{
			Date:        "2024-06-14",
			Position:    "54°10.5'N 012°05.2'E",
			SpeedKn:     6.5,
			WindBft:     4,
			Notes:       "rounded the point before dusk",
			Attachments: []model.Attachment{photo},
		})

		archive, err := svc.ExportArchive(ctx)
		if err != nil {
			t.Fatalf("ExportArchive() error = %v", err)
		}

		// Import into a second, freshly migrated service.
		other, _ := newTestService(t)
		if err := other.Import(ctx, archive); err != nil {
			t.Fatalf("Import() error = %v", err)
		}

		status, err := other.Status(ctx)
		if err != nil {
			t.Fatalf("Status() error = %v", err)
		}
		if status.Counts[model.VesselsTable] != 1 {
			t.Errorf("vessels = %d, want 1", status.Counts[model.VesselsTable])
		}
		if status.Counts[model.CrewTable] != 2 {
			t.Errorf("crew = %d, want 2", status.Counts[model.CrewTable])
		}
		if status.Counts[model.LogbookEntriesTable] != 1 {
			t.Errorf("log entries = %d, want 1", status.Counts[model.LogbookEntriesTable])
		}

		rec, err := other.Store().Get(ctx, model.LogbookEntriesTable, entryID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		var entry model.LogbookEntry
		if err := model.FromRecord(rec, &entry); err != nil {
			t.Fatalf("FromRecord() error = %v", err)
		}
		if len(entry.Attachments) != 1 {
			t.Fatalf("attachments = %d, want 1", len(entry.Attachments))
		}
		data, err := entry.Attachments[0].Bytes()
		if err != nil {
			t.Fatalf("Bytes() error = %v", err)
		}
		if len(data) != 8 {
			t.Errorf("attachment payload = %d bytes, want 8", len(data))
		}
	})

	t.Run("snapshot export equals the archive's embedded snapshot", func(t *testing.T) {
		svc, _ := newTestService(t)
		mustInsert(t, svc, model.VesselsTable, model.Vessel{Name: "Wanderer"})

		plain, err := svc.ExportSnapshot(ctx)
		if err != nil {
			t.Fatalf("ExportSnapshot() error = %v", err)
		}
		archive, err := svc.ExportArchive(ctx)
		if err != nil {
			t.Fatalf("ExportArchive() error = %v", err)
		}
		embedded := readEntry(t, archive, "backup.json")
		if string(plain) != string(embedded) {
			t.Error("snapshot export and archive snapshot differ")
		}
	})

	t.Run("import detects raw JSON", func(t *testing.T) {
		svc, _ := newTestService(t)
		mustInsert(t, svc, model.VesselsTable, model.Vessel{Name: "Wanderer"})

		plain, err := svc.ExportSnapshot(ctx)
		if err != nil {
			t.Fatalf("ExportSnapshot() error = %v", err)
		}

		other, _ := newTestService(t)
		if err := other.Import(ctx, plain); err != nil {
			t.Fatalf("Import() error = %v", err)
		}
		n, err := other.Store().Count(ctx, model.VesselsTable)
		if err != nil {
			t.Fatalf("Count() error = %v", err)
		}
		if n != 1 {
			t.Errorf("vessels = %d, want 1", n)
		}
	})
}

func TestService_BackupNow(t *testing.T) {
	ctx := context.Background()
	clock := testutil.FixedClock()
	store := testutil.NewTestStore(t, clock)
	dest := destination.NewMemoryDestination()
	resolver := destination.NewResolver(nil, dest, logbook.NewNopLogger())
	svc := logbook.NewService(store, resolver, logbook.NewNopLogger(), clock)

	path, err := svc.BackupNow(ctx)
	if err != nil {
		t.Fatalf("BackupNow() error = %v", err)
	}
	if !strings.HasPrefix(path, "memory://shiplog-backup-20240615-") {
		t.Errorf("path = %q", path)
	}

	settings, err := svc.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if settings.LastBackupDate != "2024-06-15T10:30:00Z" {
		t.Errorf("LastBackupDate = %q", settings.LastBackupDate)
	}

	data, err := dest.Only()
	if err != nil {
		t.Fatalf("Only() error = %v", err)
	}
	if !logbook.IsArchive(data) {
		t.Error("backup is not a zip archive")
	}
}

func TestService_Destination(t *testing.T) {
	ctx := context.Background()

	t.Run("choose and clear", func(t *testing.T) {
		svc, _ := newTestService(t)
		dir := t.TempDir()

		if err := svc.ChooseDestination(ctx, dir); err != nil {
			t.Fatalf("ChooseDestination() error = %v", err)
		}
		settings, err := svc.Settings(ctx)
		if err != nil {
			t.Fatalf("Settings() error = %v", err)
		}
		if settings.BackupDir != dir {
			t.Errorf("BackupDir = %q, want %q", settings.BackupDir, dir)
		}

		if err := svc.ClearDestination(ctx); err != nil {
			t.Fatalf("ClearDestination() error = %v", err)
		}
		settings, err = svc.Settings(ctx)
		if err != nil {
			t.Fatalf("Settings() error = %v", err)
		}
		if settings.BackupDir != "" {
			t.Errorf("BackupDir = %q after clear, want empty", settings.BackupDir)
		}
	})

	t.Run("rejects an unusable directory", func(t *testing.T) {
		svc, _ := newTestService(t)

		err := svc.ChooseDestination(ctx, "/nonexistent/backups")
		if err == nil {
			t.Fatal("ChooseDestination() accepted a missing directory")
		}
		settings, err := svc.Settings(ctx)
		if err != nil {
			t.Fatalf("Settings() error = %v", err)
		}
		if settings.BackupDir != "" {
			t.Errorf("BackupDir = %q after rejected choice, want empty", settings.BackupDir)
		}
	})
}

func TestService_Settings(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	// The first migration seeds the defaults.
	settings, err := svc.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if settings.AutoBackup {
		t.Error("AutoBackup enabled by default")
	}
	if settings.Units != "metric" {
		t.Errorf("Units = %q, want metric", settings.Units)
	}
	if settings.Language != "en" {
		t.Errorf("Language = %q, want en", settings.Language)
	}

	if err := svc.SetAutoBackup(ctx, true); err != nil {
		t.Fatalf("SetAutoBackup() error = %v", err)
	}
	settings, err = svc.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if !settings.AutoBackup {
		t.Error("AutoBackup still disabled after SetAutoBackup(true)")
	}
	if settings.Units != "metric" {
		t.Errorf("Units = %q after toggling AutoBackup, want metric", settings.Units)
	}
}

func TestService_History(t *testing.T) {
	ctx := context.Background()
	clock := testutil.FixedClock()
	store := testutil.NewTestStore(t, clock)
	svc := logbook.NewService(store, nil, logbook.NewNopLogger(), clock)

	for _, op := range []model.Operation{
		{ID: "op-1", Name: "Export", Status: model.OperationOK, StartedAt: "2024-06-15T09:00:00Z"},
		{ID: "op-2", Name: "Import", Status: model.OperationFailed, StartedAt: "2024-06-15T10:00:00Z"},
	} {
		if err := store.CreateOperation(ctx, op); err != nil {
			t.Fatalf("CreateOperation() error = %v", err)
		}
	}

	ops, err := svc.History(ctx, 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(ops) != 2 {
		t.Fatalf("History() = %d operations, want 2", len(ops))
	}
	if ops[0].ID != "op-2" {
		t.Errorf("most recent operation = %s, want op-2", ops[0].ID)
	}

	ops, err = svc.History(ctx, 1)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(ops) != 1 {
		t.Errorf("History(1) = %d operations, want 1", len(ops))
	}
}
