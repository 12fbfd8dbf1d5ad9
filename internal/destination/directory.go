package destination

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirectoryDestination writes backups into a local directory. With create
// set, a missing directory is made on validation (the fallback location);
// without it, a missing directory means the stored handle is stale.
type DirectoryDestination struct {
	dir    string
	create bool
}

// NewDirectoryDestination wraps an existing directory, typically the
// persisted destination handle.
func NewDirectoryDestination(dir string) *DirectoryDestination {
	return &DirectoryDestination{dir: dir}
}

// NewFallbackDirectory wraps a directory that is created on demand.
func NewFallbackDirectory(dir string) *DirectoryDestination {
	return &DirectoryDestination{dir: dir, create: true}
}

func (d *DirectoryDestination) Name() string { return d.dir }

// Validate checks the directory exists and is actually writable by
// creating and removing a probe file. A stat alone misses permission
// revocations.
func (d *DirectoryDestination) Validate() error {
	if d.create {
		if err := os.MkdirAll(d.dir, 0755); err != nil {
			return fmt.Errorf("creating destination directory: %w", err)
		}
	}
	info, err := os.Stat(d.dir)
	if err != nil {
		return fmt.Errorf("destination not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("destination is not a directory: %s", d.dir)
	}
	probe, err := os.CreateTemp(d.dir, ".shiplog-probe-*")
	if err != nil {
		return fmt.Errorf("destination not writable: %w", err)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)
	return nil
}

// Write stores the file atomically via temp file + rename, so a crashed
// write never leaves a truncated backup at the final name.
func (d *DirectoryDestination) Write(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	destPath := filepath.Join(d.dir, filename)

	tmp, err := os.CreateTemp(d.dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return destPath, nil
}

var _ Destination = (*DirectoryDestination)(nil)
