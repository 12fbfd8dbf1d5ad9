package logbook

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"time"

	"shiplog/internal/model"
)

// Archive layout constants. backup.json sits at the archive root; every
// attachment is duplicated under Attachments/<Category>/<sanitizedName>.
// The JSON keeps its embedded copies, so the archive is self-contained even
// if the extracted files are ignored.
const (
	archiveSnapshotName  = "backup.json"
	archiveAttachmentDir = "Attachments"

	// Compression is pinned so repeated packaging of identical input is
	// reproducible for testing.
	archiveCompressionLevel = flate.BestCompression

	// Cancellation is checked between batches of this many records.
	packBatchSize = 32
)

// Pack bundles a snapshot and all embedded attachments into one zip
// archive. The context is checked between attachment-extraction batches;
// on cancellation no partial archive is returned.
func Pack(ctx context.Context, snap *Snapshot) ([]byte, error) {
	encoded, err := snap.Encode()
	if err != nil {
		return nil, err
	}

	// Entries carry the snapshot's own timestamp rather than wall time so
	// identical input packs identically.
	stamp, err := time.Parse(time.RFC3339, snap.ExportedAt)
	if err != nil {
		stamp = time.Unix(0, 0).UTC()
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, archiveCompressionLevel)
	})

	if err := writeArchiveFile(zw, archiveSnapshotName, stamp, encoded); err != nil {
		return nil, err
	}

	// Walk tables in sorted order for a deterministic entry sequence.
	names := make([]string, 0, len(snap.Tables))
	for name := range snap.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	processed := 0
	for _, name := range names {
		table, ok := model.TableByName(name)
		if !ok {
			continue
		}
		category := table.Category
		if category == "" {
			continue
		}
		for _, rec := range snap.Tables[name] {
			if processed%packBatchSize == 0 {
				if err := ctx.Err(); err != nil {
					return nil, fmt.Errorf("packing archive: %w", err)
				}
			}
			processed++

			for _, att := range model.CollectAttachments(rec) {
				data, err := att.Bytes()
				if err != nil {
					return nil, fmt.Errorf("extracting attachment %q from %s: %w", att.Name, name, err)
				}
				entry := path.Join(archiveAttachmentDir, category, SanitizeName(att.Name))
				// Collisions within a category are last-write-wins; the
				// zip spec allows duplicate names and readers take the
				// last entry.
				if err := writeArchiveFile(zw, entry, stamp, data); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Unpack locates backup.json inside an archive and decodes it. An archive
// without backup.json fails with ErrInvalidFormat.
func Unpack(data []byte) (*Snapshot, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a zip archive: %v", ErrInvalidFormat, err)
	}
	for _, f := range zr.File {
		if f.Name != archiveSnapshotName {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", archiveSnapshotName, err)
		}
		encoded, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", archiveSnapshotName, err)
		}
		return DecodeSnapshot(encoded)
	}
	return nil, fmt.Errorf("%w: archive has no %s", ErrInvalidFormat, archiveSnapshotName)
}

// IsArchive reports whether data starts with a zip signature.
func IsArchive(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], []byte("PK\x03\x04"))
}

func writeArchiveFile(zw *zip.Writer, name string, stamp time.Time, data []byte) error {
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: stamp,
	})
	if err != nil {
		return fmt.Errorf("creating archive entry %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing archive entry %s: %w", name, err)
	}
	return nil
}
