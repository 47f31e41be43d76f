// Package memory provides in-memory repository implementations.
// Used in tests and for running the engine without a database.
package memory

import (
	"context"

	"fornada/internal/core/tx"
)

// TxManager is a no-op transaction manager. In-memory repositories
// guard their state with mutexes, so fn just runs directly.
type TxManager struct{}

// NewTxManager creates a no-op transaction manager.
func NewTxManager() *TxManager {
	return &TxManager{}
}

var _ tx.ReadOnlyManager = (*TxManager)(nil)

// RunInTransaction executes fn directly.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// ReadOnly executes fn directly.
func (m *TxManager) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
