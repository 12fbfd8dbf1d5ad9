package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is the generic currency of the store and the backup pipeline: one
// row of an entity table, decoded from JSON with numbers preserved as
// json.Number so that ids and field values survive export/import byte-exact.
type Record map[string]any

// Reserved field names managed by the store. Callers never set these on
// insert or update; the restore path preserves them verbatim.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// ID returns the record's integer id, or 0 if the record has none.
func (r Record) ID() int64 {
	id, _ := asInt64(r[FieldID])
	return id
}

// CreatedAt returns the record's creation timestamp as stored, or "".
func (r Record) CreatedAt() string {
	s, _ := r[FieldCreatedAt].(string)
	return s
}

// UpdatedAt returns the record's last-update timestamp as stored, or "".
func (r Record) UpdatedAt() string {
	s, _ := r[FieldUpdatedAt].(string)
	return s
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// asInt64 converts the JSON representations an id can take after a decode
// round trip (int64 from the store, json.Number from a snapshot).
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case float64:
		return int64(n), true
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

// DecodeRecord parses one JSON object into a Record, preserving numeric
// fidelity via json.Number.
func DecodeRecord(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return rec, nil
}

// EncodeRecord serializes a Record to JSON. Map keys are emitted in sorted
// order, so encoding is deterministic for identical content.
func EncodeRecord(rec Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	return data, nil
}

// ToRecord converts a typed entity value to its Record form via JSON.
func ToRecord(v any) (Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("converting to record: %w", err)
	}
	return DecodeRecord(data)
}

// FromRecord decodes a Record into a typed entity value via JSON.
func FromRecord(rec Record, v any) error {
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("converting from record: %w", err)
	}
	return nil
}
