package destination

import (
	"fmt"

	"shiplog/internal/config"
)

// NewFallbackFromConfig creates the last-resort destination based on the
// destination config type.
func NewFallbackFromConfig(cfg config.DestinationConfig) (Destination, error) {
	switch cfg.Type {
	case "directory":
		if cfg.FallbackDir == "" {
			return nil, fmt.Errorf("directory destination requires fallback_dir to be set")
		}
		return NewFallbackDirectory(cfg.FallbackDir), nil
	case "memory":
		return NewMemoryDestination(), nil
	default:
		return nil, fmt.Errorf("unknown destination type: %s", cfg.Type)
	}
}
