package persistence

import (
	"context"

	"github.com/bridgecart/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// txKey carries the transactional *gorm.DB through the context so that
// repositories called inside WithinTransaction join the same transaction.
type txKey struct{}

// GormTransactionManager implements shared.TransactionManager on a GORM
// connection.
type GormTransactionManager struct {
	db *gorm.DB
}

// NewGormTransactionManager creates a new GormTransactionManager
func NewGormTransactionManager(db *gorm.DB) *GormTransactionManager {
	return &GormTransactionManager{db: db}
}

// WithinTransaction runs fn inside a single database transaction. The
// transactional handle is placed in the context; any repository created
// with this package picks it up via dbFromContext.
func (m *GormTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Nested calls reuse the already-open transaction.
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFromContext returns the transactional handle from the context if one
// is present, otherwise the repository's own connection.
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback
}

var _ shared.TransactionManager = (*GormTransactionManager)(nil)
