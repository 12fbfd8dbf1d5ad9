package logbook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shiplog/internal/model"
)

// FormatVersion is stamped into every snapshot produced by this build.
// Restore checks the field's presence before touching the store but accepts
// newer versions, ignoring tables it does not know.
const FormatVersion = 2

// Snapshot is the canonical JSON serialization of the entire store at one
// point in time.
type Snapshot struct {
	FormatVersion int                       `json:"formatVersion"`
	ExportedAt    string                    `json:"exportedAt"`
	Tables        map[string][]model.Record `json:"tables"`
}

// Serialize reads every entity table in full and produces one snapshot.
func Serialize(ctx context.Context, store Store, exportedAt time.Time) (*Snapshot, error) {
	snap := &Snapshot{
		FormatVersion: FormatVersion,
		ExportedAt:    Timestamp(exportedAt),
		Tables:        make(map[string][]model.Record, len(model.Tables)),
	}
	for _, table := range model.Tables {
		recs, err := store.All(ctx, table.Name)
		if err != nil {
			return nil, fmt.Errorf("reading table %s: %w", table.Name, err)
		}
		if recs == nil {
			recs = []model.Record{}
		}
		snap.Tables[table.Name] = recs
	}
	return snap, nil
}

// Encode renders the snapshot as indented JSON. The archive packager uses
// the same encoding, so backup.json inside an archive is byte-identical to
// a plain export of the same snapshot.
func (s *Snapshot) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeSnapshot parses and validates a snapshot document. A document
// without a positive formatVersion or without a tables field fails with
// ErrInvalidFormat; nothing is written anywhere.
func DecodeSnapshot(data []byte) (*Snapshot, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	versionRaw, ok := raw["formatVersion"]
	if !ok {
		return nil, fmt.Errorf("%w: missing formatVersion", ErrInvalidFormat)
	}
	var version int
	if err := json.Unmarshal(versionRaw, &version); err != nil || version < 1 {
		return nil, fmt.Errorf("%w: bad formatVersion", ErrInvalidFormat)
	}
	tablesRaw, ok := raw["tables"]
	if !ok {
		return nil, fmt.Errorf("%w: missing tables", ErrInvalidFormat)
	}

	snap := &Snapshot{FormatVersion: version}
	if exportedRaw, ok := raw["exportedAt"]; ok {
		_ = json.Unmarshal(exportedRaw, &snap.ExportedAt)
	}

	tdec := json.NewDecoder(bytes.NewReader(tablesRaw))
	tdec.UseNumber()
	if err := tdec.Decode(&snap.Tables); err != nil {
		return nil, fmt.Errorf("%w: malformed tables: %v", ErrInvalidFormat, err)
	}
	return snap, nil
}
