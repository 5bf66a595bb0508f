package absence

import (
	"context"

	"github.com/ogurasousui/teamplan/internal/core/calendar"
)

// Repository は不在台帳の永続化の抽象です。
//
// Update は保存済みのバージョンが a.Version と一致する場合のみ更新し、
// バージョンを 1 進めたエンティティを返します。
// List は開始日、ID の順に並べて返します。
type Repository interface {
	Create(ctx context.Context, a *Absence) (*Absence, error)
	Update(ctx context.Context, a *Absence) (*Absence, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Absence, error)
	List(ctx context.Context, filter ListFilter) ([]*Absence, error)
	CountByMember(ctx context.Context, memberID string) (int, error)
}

// ListFilter は一覧取得用フィルタです。Range を指定すると期間と 1 日以上重なる不在だけを返します。
type ListFilter struct {
	MemberID string
	Range    *calendar.Range
}
