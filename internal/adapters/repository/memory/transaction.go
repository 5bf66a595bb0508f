package memory

import (
	"context"
	"fmt"
)

type txContextKey struct{}

type txState struct {
	writable bool
}

// TransactionManager は Store のロックをトランザクション境界として扱います。
// 読み書きトランザクションは開始時の状態を控え、fn がエラーを返した場合に元へ戻します。
// 入れ子の呼び出しは外側のトランザクションをそのまま使います。
type TransactionManager struct {
	store *Store
}

// NewTransactionManager は TransactionManager を生成します。
func NewTransactionManager(store *Store) *TransactionManager {
	return &TransactionManager{store: store}
}

// WithinReadOnly は共有ロックを取得して fn を実行します。
func (m *TransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("memory: transaction function is required")
	}
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}

	m.store.mu.RLock()
	defer m.store.mu.RUnlock()
	return fn(context.WithValue(ctx, txContextKey{}, &txState{writable: false}))
}

// WithinReadWrite は排他ロックを取得して fn を実行し、エラー時は変更を破棄します。
func (m *TransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return fmt.Errorf("memory: transaction function is required")
	}
	if tx, ok := txFromContext(ctx); ok {
		if !tx.writable {
			return ErrReadOnlyTransaction
		}
		return fn(ctx)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	saved := m.store.snapshot()
	if err := fn(context.WithValue(ctx, txContextKey{}, &txState{writable: true})); err != nil {
		m.store.data = saved
		return err
	}
	return nil
}

func txFromContext(ctx context.Context) (*txState, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(txContextKey{}).(*txState)
	return tx, ok
}
