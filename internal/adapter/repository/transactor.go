package repository

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainRepo "github.com/dheerajsingh9334/mern-Blog/internal/domain/repository"
)

type txKey struct{}

type transactor struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewTransactor creates a Transactor whose transaction is picked up by every
// repository in this package through the context.
func NewTransactor(db *gorm.DB, logger *zap.Logger) domainRepo.Transactor {
	return &transactor{
		db:     db,
		logger: logger,
	}
}

// WithinTransaction runs fn in a transaction. Nested calls reuse the outer one.
func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or db outside of one.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// lockedConn is conn with SELECT ... FOR UPDATE when ctx carries a transaction.
func lockedConn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db.WithContext(ctx)
}
