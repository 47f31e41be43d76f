package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"fornada/internal/core/apperror"
	"fornada/internal/domain/settings"
)

// SettingsRepo implements settings.Repository over the single-row
// sys_config table.
type SettingsRepo struct {
	txManager *TxManager
}

// NewSettingsRepo creates a new settings repository.
func NewSettingsRepo(txManager *TxManager) *SettingsRepo {
	return &SettingsRepo{txManager: txManager}
}

var _ settings.Repository = (*SettingsRepo)(nil)

// Get returns the stored configuration.
func (r *SettingsRepo) Get(ctx context.Context) (*settings.Config, error) {
	sql := `
		SELECT margin_default, stages, consume_stage, updated_at
		FROM sys_config
		WHERE id = 1
	`

	var cfg settings.Config
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &cfg, sql); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("settings", "config")
		}
		return nil, fmt.Errorf("get config: %w", err)
	}
	return &cfg, nil
}

// Save upserts the single configuration record.
func (r *SettingsRepo) Save(ctx context.Context, cfg *settings.Config) error {
	cfg.UpdatedAt = time.Now().UTC()
	sql := `
		INSERT INTO sys_config (id, margin_default, stages, consume_stage, updated_at)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			margin_default = EXCLUDED.margin_default,
			stages = EXCLUDED.stages,
			consume_stage = EXCLUDED.consume_stage,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql,
		cfg.MarginDefault, cfg.Stages, cfg.ConsumeStage, cfg.UpdatedAt); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}
