package app

import (
	"github.com/google/uuid"

	"shiplog/internal/model"
)

// Operation tracks one CLI invocation. Mutating commands persist it to the
// operations table when they start; Close finalizes the record.
type Operation struct {
	ID        string
	Name      string
	Status    string
	persisted bool
}

// NewOperation creates an operation record for the named command.
func NewOperation(name string) *Operation {
	return &Operation{
		ID:     uuid.NewString(),
		Name:   name,
		Status: model.OperationRunning,
	}
}

// Persisted reports whether the operation has been written to the store.
func (o *Operation) Persisted() bool { return o.persisted }

// Fail marks the operation as failed for the final record.
func (o *Operation) Fail() { o.Status = model.OperationFailed }
