package assignment

import (
	"context"

	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/conflict"
)

// Lookup はリポジトリを直接参照して日付をカバーする割り当てを探します。
// 衝突検出と不在登録時の警告計算が、割り当てサービスを経由せずに使います。
type Lookup struct {
	repo Repository
	tx   TransactionManager
}

// NewLookup は Lookup を生成します。
func NewLookup(repo Repository, tx TransactionManager) *Lookup {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Lookup{repo: repo, tx: tx}
}

// CoveringAssignment は date を含む最初の割り当てを返します。excludeID と同じ割り当ては無視します。
func (l *Lookup) CoveringAssignment(ctx context.Context, memberID string, date calendar.Date, excludeID string) (*conflict.AssignmentRef, error) {
	var ref *conflict.AssignmentRef
	err := l.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := l.repo.List(txCtx, ListFilter{MemberID: memberID, Range: &calendar.Range{Start: date, End: date}})
		if err != nil {
			return err
		}
		for _, a := range found {
			if a.ID != excludeID && a.Covers(date) {
				ref = a.Ref()
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ref, nil
}
