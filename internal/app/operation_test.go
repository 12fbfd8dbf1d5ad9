package app

import (
	"testing"

	"shiplog/internal/model"
)

func TestNewOperation(t *testing.T) {
	op := NewOperation("Import")

	if op.Name != "Import" {
		t.Errorf("Name = %q, want Import", op.Name)
	}
	if op.Status != model.OperationRunning {
		t.Errorf("Status = %q, want %q", op.Status, model.OperationRunning)
	}
	if op.ID == "" {
		t.Error("ID is empty")
	}
	if op.Persisted() {
		t.Error("Persisted() = true for a fresh operation")
	}

	other := NewOperation("Import")
	if other.ID == op.ID {
		t.Errorf("two operations share an id: %s", op.ID)
	}
}

func TestOperation_Fail(t *testing.T) {
	op := NewOperation("BackupNow")
	op.Fail()
	if op.Status != model.OperationFailed {
		t.Errorf("Status = %q, want %q", op.Status, model.OperationFailed)
	}
}
