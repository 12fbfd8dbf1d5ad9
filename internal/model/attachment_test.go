package model_test

import (
	"bytes"
	"testing"

	"shiplog/internal/model"
)

func TestAttachment_RoundTrip(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	att := model.NewAttachment("sunset.jpg", "image/jpeg", payload)

	if att.Size != int64(len(payload)) {
		t.Errorf("Size = %d, want %d", att.Size, len(payload))
	}

	got, err := att.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Bytes() = %x, want %x", got, payload)
	}
}

func TestDecodeDataURI(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		mimeType, data, err := model.DecodeDataURI("data:text/plain;base64,aGVsbG8=")
		if err != nil {
			t.Fatalf("DecodeDataURI() error = %v", err)
		}
		if mimeType != "text/plain" {
			t.Errorf("mimeType = %q, want text/plain", mimeType)
		}
		if string(data) != "hello" {
			t.Errorf("data = %q, want hello", data)
		}
	})

	t.Run("not a data URI", func(t *testing.T) {
		if _, _, err := model.DecodeDataURI("https://example.com/x.png"); err == nil {
			t.Error("expected error for non-data URI")
		}
	})

	t.Run("missing payload separator", func(t *testing.T) {
		if _, _, err := model.DecodeDataURI("data:image/png"); err == nil {
			t.Error("expected error for URI without payload")
		}
	})

	t.Run("non-base64 encoding", func(t *testing.T) {
		if _, _, err := model.DecodeDataURI("data:text/plain,hello"); err == nil {
			t.Error("expected error for plain-text data URI")
		}
	})
}

func TestIsAttachment(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"attachment object", map[string]any{"name": "a.png", "data": "data:image/png;base64,"}, true},
		{"missing data prefix", map[string]any{"name": "a.png", "data": "https://x"}, false},
		{"missing name", map[string]any{"data": "data:image/png;base64,"}, false},
		{"not an object", "data:image/png;base64,", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := model.IsAttachment(tt.v); got != tt.want {
				t.Errorf("IsAttachment() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCollectAttachments(t *testing.T) {
	single := model.NewAttachment("deck-plan.pdf", "application/pdf", []byte("pdf"))
	listed := model.NewAttachment("sunset.jpg", "image/jpeg", []byte("jpeg"))

	rec := model.Record{
		"id":    int64(1),
		"notes": "calm seas",
		"plan": map[string]any{
			"name": single.Name, "type": single.Type,
			"size": single.Size, "data": single.Data,
		},
		"attachments": []any{
			map[string]any{
				"name": listed.Name, "type": listed.Type,
				"size": listed.Size, "data": listed.Data,
			},
			"not an attachment",
		},
	}

	atts := model.CollectAttachments(rec)
	if len(atts) != 2 {
		t.Fatalf("CollectAttachments() returned %d attachments, want 2", len(atts))
	}
	names := map[string]bool{}
	for _, a := range atts {
		names[a.Name] = true
	}
	if !names["deck-plan.pdf"] || !names["sunset.jpg"] {
		t.Errorf("CollectAttachments() names = %v", names)
	}
}
