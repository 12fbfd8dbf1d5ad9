// Package destination provides write targets for backup files and the
// fallback chain that picks one.
package destination

import "context"

// Destination is one write-capable backup location. Validate re-checks
// permissions and must be called before every Write: a location that was
// usable last session may have been revoked since.
type Destination interface {
	// Name identifies the destination for logs.
	Name() string

	// Validate verifies the destination is accessible and writable.
	Validate() error

	// Write stores data under filename and returns the final path.
	Write(ctx context.Context, filename string, data []byte) (string, error)
}
