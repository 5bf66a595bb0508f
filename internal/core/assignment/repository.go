package assignment

import (
	"context"

	"github.com/ogurasousui/teamplan/internal/core/calendar"
)

// Repository は割り当てボードの永続化の抽象です。
//
// Update は保存済みのバージョンが a.Version と一致する場合のみ更新し、
// バージョンを 1 進めたエンティティを返します。
// List は最初の割り当て日、ID の順に並べて返します。
type Repository interface {
	Create(ctx context.Context, a *Assignment) (*Assignment, error)
	Update(ctx context.Context, a *Assignment) (*Assignment, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Assignment, error)
	List(ctx context.Context, filter ListFilter) ([]*Assignment, error)
	CountByMember(ctx context.Context, memberID string) (int, error)
	// LockMember は同一メンバーへの衝突判定と書き込みを直列化するため、トランザクション終了までメンバーをロックします。
	// メンバーが存在しない場合は member.ErrMemberNotFound を返します。
	LockMember(ctx context.Context, memberID string) error
}

// ListFilter は一覧取得用フィルタです。ゼロ値の項目は絞り込みに使いません。
// Range を指定すると、期間内の日付を 1 日以上含む割り当てだけを返します。
type ListFilter struct {
	MemberID  string
	ProjectID string
	PhaseID   string
	Range     *calendar.Range
}
