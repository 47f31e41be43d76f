package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"fornada/pkg/logger"
)

//go:embed schema.sql
var schemaSQL string

// ApplySchema creates all tables and indexes if they do not exist yet.
// The DDL is idempotent, so it is safe to run on every startup.
func ApplySchema(ctx context.Context, pool *Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	logger.Info(ctx, "database schema applied")
	return nil
}
