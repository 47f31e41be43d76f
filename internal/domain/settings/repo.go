package settings

import "context"

// Repository defines storage for the configuration record.
type Repository interface {
	// Get returns the stored configuration or a not-found error.
	Get(ctx context.Context) (*Config, error)

	// Save upserts the single configuration record.
	Save(ctx context.Context, cfg *Config) error
}
