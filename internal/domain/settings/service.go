package settings

import (
	"context"

	"fornada/internal/core/apperror"
	"fornada/pkg/logger"
)

// Service provides configuration access with defaults.
type Service struct {
	repo Repository
}

// NewService creates a new settings service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the stored configuration, falling back to defaults when
// nothing has been saved yet.
func (s *Service) Get(ctx context.Context) (*Config, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		if apperror.IsNotFound(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// Update validates and stores the configuration.
func (s *Service) Update(ctx context.Context, cfg *Config) error {
	if err := cfg.Validate(ctx); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, cfg); err != nil {
		return err
	}
	logger.Info(ctx, "settings updated", "consume_stage", cfg.ConsumeStage)
	return nil
}
