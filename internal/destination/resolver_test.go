package destination_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"shiplog/internal/destination"
	"shiplog/internal/logbook"
)

// stubPrompter answers PromptDir with a fixed directory.
type stubPrompter struct {
	interactive bool
	dir         string
	err         error
	calls       int
}

func (p *stubPrompter) Interactive() bool { return p.interactive }

func (p *stubPrompter) PromptDir() (string, error) {
	p.calls++
	return p.dir, p.err
}

func TestResolver_Write(t *testing.T) {
	ctx := context.Background()
	logger := logbook.NewNopLogger()

	t.Run("stored handle wins", func(t *testing.T) {
		handle := t.TempDir()
		fallback := destination.NewMemoryDestination()
		r := destination.NewResolver(nil, fallback, logger)

		path, err := r.Write(ctx, handle, "backup.zip", []byte("x"), true)
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if path != filepath.Join(handle, "backup.zip") {
			t.Errorf("path = %q", path)
		}
		if fallback.Files() != 0 {
			t.Errorf("fallback used despite a valid handle")
		}
	})

	t.Run("stale handle falls through to the fallback", func(t *testing.T) {
		stale := filepath.Join(t.TempDir(), "unplugged-drive")
		fallback := destination.NewMemoryDestination()
		r := destination.NewResolver(nil, fallback, logger)

		path, err := r.Write(ctx, stale, "backup.zip", []byte("x"), true)
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if path != "memory://backup.zip" {
			t.Errorf("path = %q", path)
		}
	})

	t.Run("prompt consulted between handle and fallback", func(t *testing.T) {
		chosen := t.TempDir()
		prompter := &stubPrompter{interactive: true, dir: chosen}
		fallback := destination.NewMemoryDestination()
		r := destination.NewResolver(prompter, fallback, logger)

		path, err := r.Write(ctx, "", "backup.zip", []byte("x"), true)
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if path != filepath.Join(chosen, "backup.zip") {
			t.Errorf("path = %q", path)
		}
		if prompter.calls != 1 {
			t.Errorf("prompter called %d times, want 1", prompter.calls)
		}
		if fallback.Files() != 0 {
			t.Error("fallback used despite a prompted directory")
		}
	})

	t.Run("non-interactive call never prompts", func(t *testing.T) {
		prompter := &stubPrompter{interactive: true, dir: t.TempDir()}
		fallback := destination.NewMemoryDestination()
		r := destination.NewResolver(prompter, fallback, logger)

		if _, err := r.Write(ctx, "", "backup.zip", []byte("x"), false); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if prompter.calls != 0 {
			t.Errorf("prompter called %d times during a scheduled run", prompter.calls)
		}
		if fallback.Files() != 1 {
			t.Errorf("fallback writes = %d, want 1", fallback.Files())
		}
	})

	t.Run("declined prompt falls through to the fallback", func(t *testing.T) {
		prompter := &stubPrompter{interactive: true, err: errors.New("aborted")}
		fallback := destination.NewMemoryDestination()
		r := destination.NewResolver(prompter, fallback, logger)

		if _, err := r.Write(ctx, "", "backup.zip", []byte("x"), true); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		if fallback.Files() != 1 {
			t.Errorf("fallback writes = %d, want 1", fallback.Files())
		}
	})

	t.Run("everything failing surfaces ErrDestinationUnavailable", func(t *testing.T) {
		fallback := destination.NewMemoryDestination()
		fallback.ValidateErr = errors.New("read-only filesystem")
		r := destination.NewResolver(&stubPrompter{}, fallback, logger)

		_, err := r.Write(ctx, filepath.Join(t.TempDir(), "gone"), "backup.zip", []byte("x"), true)
		if !errors.Is(err, logbook.ErrDestinationUnavailable) {
			t.Errorf("Write() error = %v, want ErrDestinationUnavailable", err)
		}
	})

	t.Run("no fallback configured", func(t *testing.T) {
		r := destination.NewResolver(nil, nil, logger)

		_, err := r.Write(ctx, "", "backup.zip", []byte("x"), true)
		if !errors.Is(err, logbook.ErrDestinationUnavailable) {
			t.Errorf("Write() error = %v, want ErrDestinationUnavailable", err)
		}
	})
}

func TestResolver_Validate(t *testing.T) {
	r := destination.NewResolver(nil, nil, logbook.NewNopLogger())

	if err := r.Validate(t.TempDir()); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if err := r.Validate(filepath.Join(t.TempDir(), "gone")); err == nil {
		t.Error("Validate() accepted a missing directory")
	}

	file := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := r.Validate(file); err == nil {
		t.Error("Validate() accepted a regular file")
	}
}
