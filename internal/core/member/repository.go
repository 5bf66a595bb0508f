package member

import (
	"context"

	"github.com/ogurasousui/teamplan/internal/core/calendar"
)

// Repository はメンバー永続化の抽象です。
//
// Update は保存済みのバージョンが m.Version と一致する場合のみ更新し、
// バージョンを 1 進めたエンティティを返します。一致しない場合は ErrVersionConflict です。
type Repository interface {
	Create(ctx context.Context, m *Member) (*Member, error)
	Update(ctx context.Context, m *Member) (*Member, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Member, error)
	FindByEmail(ctx context.Context, agencyID, email string) (*Member, error)
	List(ctx context.Context, filter ListFilter) ([]*Member, error)
}

// ListFilter は一覧取得用フィルタです。ゼロ値の項目は絞り込みに使いません。
type ListFilter struct {
	AgencyID   string
	Active     *bool
	Role       *Role
	Profession string
}

// ReferenceCounter はメンバーを参照しているレコード数を数えます。
// 不在台帳と割り当てボードのリポジトリが実装します。
type ReferenceCounter interface {
	CountByMember(ctx context.Context, memberID string) (int, error)
}

// DefaultsProvider はエージェンシー単位の勤務テンプレートを提供します。
type DefaultsProvider interface {
	ScheduleDefaults(ctx context.Context, agencyID string) (calendar.WeekdaySet, calendar.TimeRange, error)
}
