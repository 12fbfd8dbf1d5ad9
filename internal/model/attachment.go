package model

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Attachment is a binary payload embedded inline in its owning record as a
// data URI. Attachments have no identity of their own: they travel with the
// record through every export/import cycle and are never referenced by id.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"` // MIME type
	Size int64  `json:"size,omitempty"` // decoded byte length
	Data string `json:"data"`           // data URI: data:<mime>;base64,<payload>
}

// NewAttachment builds an attachment from raw bytes.
func NewAttachment(name, mimeType string, data []byte) Attachment {
	return Attachment{
		Name: name,
		Type: mimeType,
		Size: int64(len(data)),
		Data: EncodeDataURI(mimeType, data),
	}
}

// Bytes decodes the attachment payload.
func (a Attachment) Bytes() ([]byte, error) {
	_, data, err := DecodeDataURI(a.Data)
	return data, err
}

// EncodeDataURI encodes raw bytes as a base64 data URI.
func EncodeDataURI(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI parses a base64 data URI and returns the MIME type and the
// decoded payload.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URI: no payload separator")
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("unsupported data URI encoding: %q", meta)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decoding data URI payload: %w", err)
	}
	return mimeType, data, nil
}

// IsAttachment reports whether a decoded JSON value looks like an inline
// attachment: an object with a "name" string and a "data" data URI.
func IsAttachment(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	if _, ok := m["name"].(string); !ok {
		return false
	}
	data, ok := m["data"].(string)
	return ok && strings.HasPrefix(data, "data:")
}

// CollectAttachments walks a record's fields and returns every inline
// attachment found, either as a single object or inside a list. The record
// itself is not modified.
func CollectAttachments(rec Record) []Attachment {
	var out []Attachment
	for _, v := range rec {
		switch val := v.(type) {
		case map[string]any:
			if IsAttachment(val) {
				out = append(out, toAttachment(val))
			}
		case []any:
			for _, item := range val {
				if IsAttachment(item) {
					out = append(out, toAttachment(item.(map[string]any)))
				}
			}
		}
	}
	return out
}

func toAttachment(m map[string]any) Attachment {
	a := Attachment{}
	a.Name, _ = m["name"].(string)
	a.Type, _ = m["type"].(string)
	a.Data, _ = m["data"].(string)
	if size, ok := asInt64(m["size"]); ok {
		a.Size = size
	}
	return a
}
