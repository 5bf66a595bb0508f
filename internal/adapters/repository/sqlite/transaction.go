package sqlite

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

type txContextKey struct{}

// TransactionManager は gorm のトランザクションをコンテキストで引き回します。
// 入れ子の呼び出しは外側のトランザクションをそのまま使います。
type TransactionManager struct {
	db *gorm.DB
}

// NewTransactionManager は TransactionManager を生成します。
func NewTransactionManager(db *gorm.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// WithinReadOnly はトランザクション内で fn を実行します。SQLite には読み取り専用トランザクションがないため読み書きと同じ扱いです。
func (m *TransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return m.within(ctx, fn)
}

// WithinReadWrite はトランザクション内で fn を実行し、エラー時はロールバックします。
func (m *TransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return m.within(ctx, fn)
}

func (m *TransactionManager) within(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("sqlite: transaction function is required")
	}
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txContextKey{}, tx))
	})
}

func txFromContext(ctx context.Context) (*gorm.DB, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(txContextKey{}).(*gorm.DB)
	return tx, ok
}

// dbFromContext はコンテキスト内のトランザクションがあればそれを、なければ fallback を返します。
func dbFromContext(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}
