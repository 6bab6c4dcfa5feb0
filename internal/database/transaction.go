package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Transaction is one open database transaction. It finishes exactly once,
// either by Commit or by Rollback.
type Transaction struct {
	tx       *gorm.DB
	finished bool
}

// NewTransaction begins a transaction on db.
func NewTransaction(ctx context.Context, db Database) (Transaction, error) {
	tx := db.Session(ctx).Begin()
	if tx.Error != nil {
		return Transaction{}, fmt.Errorf("begin transaction: %w", tx.Error)
	}
	return Transaction{tx: tx}, nil
}

// Session returns the GORM handle bound to the transaction.
func (t Transaction) Session() *gorm.DB {
	return t.tx
}

// Commit commits the transaction. It is a no-op once finished.
func (t *Transaction) Commit() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if err := t.tx.Commit().Error; err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback aborts the transaction. It is a no-op once finished.
func (t *Transaction) Rollback() error {
	if t.finished {
		return nil
	}
	t.finished = true
	if err := t.tx.Rollback().Error; err != nil {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}

// WithTransactionResult runs fn in a transaction and returns its result once
// committed. Any error, including a failed commit, leaves nothing written
// and yields the zero T.
func WithTransactionResult[T any](ctx context.Context, db Database, fn func(tx *gorm.DB) (T, error)) (T, error) {
	var zero T

	txn, err := NewTransaction(ctx, db)
	if err != nil {
		return zero, err
	}
	defer func() { _ = txn.Rollback() }()

	result, err := fn(txn.Session())
	if err != nil {
		return zero, err
	}
	if err := txn.Commit(); err != nil {
		return zero, err
	}
	return result, nil
}
