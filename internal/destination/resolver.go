package destination

import (
	"context"
	"fmt"

	"shiplog/internal/logbook"
)

// Resolver walks the destination fallback chain: the persisted handle, an
// interactive prompt, then the configured last-resort location. A handle
// that fails revalidation is never retried silently; the chain just moves
// on, and only when everything failed does the error surface.
type Resolver struct {
	prompter Prompter
	fallback Destination
	logger   logbook.Logger
}

// NewResolver creates a resolver. prompter may be nil for contexts that can
// never prompt; fallback may be nil when no last-resort location exists.
func NewResolver(prompter Prompter, fallback Destination, logger logbook.Logger) *Resolver {
	return &Resolver{prompter: prompter, fallback: fallback, logger: logger}
}

var _ logbook.DestinationResolver = (*Resolver)(nil)

// Validate checks that a directory is usable as a stored handle.
func (r *Resolver) Validate(dir string) error {
	return NewDirectoryDestination(dir).Validate()
}

// Write tries each mechanism in order and returns the path the backup
// ended up at.
func (r *Resolver) Write(ctx context.Context, handleDir, filename string, data []byte, interactive bool) (string, error) {
	if handleDir != "" {
		d := NewDirectoryDestination(handleDir)
		if err := d.Validate(); err != nil {
			r.logger.Warn("stored backup destination unusable", "dir", handleDir, "error", err)
		} else if path, err := d.Write(ctx, filename, data); err != nil {
			r.logger.Warn("writing to stored backup destination failed", "dir", handleDir, "error", err)
		} else {
			return path, nil
		}
	}

	if interactive && r.prompter != nil && r.prompter.Interactive() {
		if path, err := r.writePrompted(ctx, filename, data); err != nil {
			r.logger.Warn("prompted backup destination failed", "error", err)
		} else {
			return path, nil
		}
	}

	if r.fallback != nil {
		if err := r.fallback.Validate(); err != nil {
			r.logger.Warn("fallback backup destination unusable", "dest", r.fallback.Name(), "error", err)
		} else if path, err := r.fallback.Write(ctx, filename, data); err != nil {
			r.logger.Warn("writing to fallback backup destination failed", "dest", r.fallback.Name(), "error", err)
		} else {
			return path, nil
		}
	}

	return "", fmt.Errorf("all destinations failed: %w", logbook.ErrDestinationUnavailable)
}

func (r *Resolver) writePrompted(ctx context.Context, filename string, data []byte) (string, error) {
	dir, err := r.prompter.PromptDir()
	if err != nil {
		return "", err
	}
	if dir == "" {
		return "", fmt.Errorf("no directory given")
	}
	d := NewDirectoryDestination(dir)
	if err := d.Validate(); err != nil {
		return "", err
	}
	return d.Write(ctx, filename, data)
}
