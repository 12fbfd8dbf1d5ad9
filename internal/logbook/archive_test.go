package logbook_test

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"shiplog/internal/logbook"
	"shiplog/internal/model"
)

func testSnapshot(t *testing.T, atts ...model.Attachment) *logbook.Snapshot {
	t.Helper()
	entry := model.Record{
		"id":        int64(1),
		"date":      "2024-06-14",
		"notes":     "rounded the point",
		"createdAt": "2024-06-14T18:00:00Z",
		"updatedAt": "2024-06-14T18:00:00Z",
	}
	if len(atts) > 0 {
		var list []any
		for _, a := range atts {
			rec, err := model.ToRecord(a)
			if err != nil {
				t.Fatalf("ToRecord() error = %v", err)
			}
			list = append(list, map[string]any(rec))
		}
		entry["attachments"] = list
	}
	return &logbook.Snapshot{
		FormatVersion: logbook.FormatVersion,
		ExportedAt:    "2024-06-15T10:30:00Z",
		Tables: map[string][]model.Record{
			model.LogbookEntriesTable: {entry},
			model.VesselsTable:        {},
		},
	}
}

func readEntry(t *testing.T, archive []byte, name string) []byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("zip.NewReader() error = %v", err)
	}
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("opening %s: %v", name, err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("reading %s: %v", name, err)
		}
		return data
	}
	t.Fatalf("archive has no entry %s", name)
	return nil
}

func TestPack(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshot entry is byte-identical to a plain export", func(t *testing.T) {
		snap := testSnapshot(t)
		archive, err := logbook.Pack(ctx, snap)
		if err != nil {
			t.Fatalf("Pack() error = %v", err)
		}

		plain, err := snap.Encode()
		if err != nil {
			t.Fatalf("Encode() error = %v", err)
		}
		inArchive := readEntry(t, archive, "backup.json")
		if !bytes.Equal(plain, inArchive) {
			t.Error("backup.json differs from the plain export of the same snapshot")
		}
	})

	t.Run("extracts attachments under category folders", func(t *testing.T) {
		payload := []byte{0xFF, 0xD8, 0xFF, 0xE0}
		att := model.NewAttachment("My Passport (2024)!!.jpg", "image/jpeg", payload)
		snap := testSnapshot(t, att)

		archive, err := logbook.Pack(ctx, snap)
		if err != nil {
			t.Fatalf("Pack() error = %v", err)
		}

		extracted := readEntry(t, archive, "Attachments/LogEntries/My_Passport_2024_.jpg")
		if !bytes.Equal(extracted, payload) {
			t.Errorf("extracted attachment = %x, want %x", extracted, payload)
		}
	})

	t.Run("identical input packs identically", func(t *testing.T) {
		att := model.NewAttachment("sunset.jpg", "image/jpeg", []byte("jpeg bytes"))
		a, err := logbook.Pack(ctx, testSnapshot(t, att))
		if err != nil {
			t.Fatalf("Pack() error = %v", err)
		}
		b, err := logbook.Pack(ctx, testSnapshot(t, att))
		if err != nil {
			t.Fatalf("Pack() error = %v", err)
		}
		if !bytes.Equal(a, b) {
			t.Error("two packs of identical input differ")
		}
	})

	t.Run("cancellation aborts packing", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		if _, err := logbook.Pack(cancelled, testSnapshot(t)); !errors.Is(err, context.Canceled) {
			t.Errorf("Pack() error = %v, want context.Canceled", err)
		}
	})
}

func TestUnpack(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		att := model.NewAttachment("sunset.jpg", "image/jpeg", []byte("jpeg bytes"))
		snap := testSnapshot(t, att)

		archive, err := logbook.Pack(ctx, snap)
		if err != nil {
			t.Fatalf("Pack() error = %v", err)
		}
		back, err := logbook.Unpack(archive)
		if err != nil {
			t.Fatalf("Unpack() error = %v", err)
		}

		entries := back.Tables[model.LogbookEntriesTable]
		if len(entries) != 1 {
			t.Fatalf("log entries = %d, want 1", len(entries))
		}
		atts := model.CollectAttachments(entries[0])
		if len(atts) != 1 {
			t.Fatalf("attachments = %d, want 1", len(atts))
		}
		data, err := atts[0].Bytes()
		if err != nil {
			t.Fatalf("Bytes() error = %v", err)
		}
		if string(data) != "jpeg bytes" {
			t.Errorf("attachment payload = %q", data)
		}
	})

	t.Run("rejects non-zip input", func(t *testing.T) {
		if _, err := logbook.Unpack([]byte("not a zip")); !errors.Is(err, logbook.ErrInvalidFormat) {
			t.Errorf("error = %v, want ErrInvalidFormat", err)
		}
	})

	t.Run("rejects archive without backup.json", func(t *testing.T) {
		var buf bytes.Buffer
		zw := zip.NewWriter(&buf)
		w, err := zw.Create("README.txt")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if _, err := w.Write([]byte("nothing here")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if err := zw.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}

		if _, err := logbook.Unpack(buf.Bytes()); !errors.Is(err, logbook.ErrInvalidFormat) {
			t.Errorf("error = %v, want ErrInvalidFormat", err)
		}
	})
}

func TestIsArchive(t *testing.T) {
	archive, err := logbook.Pack(context.Background(), testSnapshot(t))
	if err != nil {
		t.Fatalf("Pack() error = %v", err)
	}
	if !logbook.IsArchive(archive) {
		t.Error("IsArchive() = false for a packed archive")
	}
	if logbook.IsArchive([]byte(`{"formatVersion": 2}`)) {
		t.Error("IsArchive() = true for JSON")
	}
	if logbook.IsArchive([]byte("PK")) {
		t.Error("IsArchive() = true for a short prefix")
	}
}
