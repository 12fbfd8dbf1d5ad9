package destination

import (
	"context"
	"fmt"
	"sync"
)

// MemoryDestination keeps written backups in a map. It backs the "memory"
// config type and doubles as the failure-injecting fake in tests.
type MemoryDestination struct {
	mu    sync.Mutex
	files map[string][]byte

	// Injected failures for tests.
	ValidateErr error
	WriteErr    error
}

func NewMemoryDestination() *MemoryDestination {
	return &MemoryDestination{files: make(map[string][]byte)}
}

func (d *MemoryDestination) Name() string { return "memory" }

func (d *MemoryDestination) Validate() error { return d.ValidateErr }

func (d *MemoryDestination) Write(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if d.WriteErr != nil {
		return "", d.WriteErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	d.files[filename] = buf
	return "memory://" + filename, nil
}

// File returns a written backup by name.
func (d *MemoryDestination) File(filename string) ([]byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	data, ok := d.files[filename]
	return data, ok
}

// Files returns the number of backups written.
func (d *MemoryDestination) Files() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.files)
}

// Only returns the single written backup, failing if there is not exactly
// one.
func (d *MemoryDestination) Only() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.files) != 1 {
		return nil, fmt.Errorf("expected exactly one backup, have %d", len(d.files))
	}
	for _, data := range d.files {
		return data, nil
	}
	return nil, nil
}

var _ Destination = (*MemoryDestination)(nil)
