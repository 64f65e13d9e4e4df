package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/churchops/backend/internal/domain/shared"
)

type txContextKey struct{}

// GormUnitOfWork implements shared.UnitOfWork on top of GORM transactions.
// The open transaction is carried in the context, so every repository that
// resolves its handle through dbFromContext joins the same transaction and
// all writes commit or roll back as one.
type GormUnitOfWork struct {
	db *gorm.DB
}

// NewGormUnitOfWork creates a unit of work bound to the given connection
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{db: db}
}

// InTransaction runs fn inside a database transaction. Nested calls join the
// transaction already carried in the context instead of opening a new one.
func (u *GormUnitOfWork) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

func txFromContext(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txContextKey{}).(*gorm.DB); ok {
		return tx
	}
	return nil
}

// dbFromContext returns the transaction carried in the context, falling back
// to the repository's own connection.
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return fallback
}

var _ shared.UnitOfWork = (*GormUnitOfWork)(nil)
