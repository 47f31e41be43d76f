package handlers

import (
	"context"

	"fornada/internal/core/id"
	"fornada/internal/infrastructure/storage/postgres"
	"fornada/pkg/logger"
)

// auditLog writes a best-effort audit record. Audit failures are logged
// and never fail the request that triggered them.
func auditLog(ctx context.Context, auditor *postgres.AuditService, entityType string, entityID id.ID, action postgres.AuditAction, changes map[string]any) {
	if auditor == nil {
		return
	}
	if err := auditor.LogChange(ctx, entityType, entityID, action, changes); err != nil {
		logger.Warn(ctx, "audit write failed",
			"entity_type", entityType,
			"entity_id", entityID,
			"action", action,
			"error", err,
		)
	}
}
