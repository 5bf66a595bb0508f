package conflict

import (
	"context"

	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/member"
)

// MemberFinder はメンバーを取得します。存在しない場合は member.ErrMemberNotFound を返します。
type MemberFinder interface {
	GetMember(ctx context.Context, id string) (*member.Member, error)
}

// AbsenceProvider は日付を丸ごと塞ぐ (部分休ではない) 不在を返します。該当がなければ nil です。
type AbsenceProvider interface {
	BlockingAbsence(ctx context.Context, memberID string, date calendar.Date) (*AbsenceRef, error)
}

// AssignmentProvider は日付をカバーする割り当てを返します。excludeID に一致する割り当ては無視します。
type AssignmentProvider interface {
	CoveringAssignment(ctx context.Context, memberID string, date calendar.Date, excludeID string) (*AssignmentRef, error)
}

// HolidayProvider はエージェンシーの祝日カレンダーを返します。地域未設定なら nil です。
type HolidayProvider interface {
	HolidayCalendar(ctx context.Context, agencyID string) (*calendar.HolidayCalendar, error)
}

// Checker は衝突検出の公開インターフェースです。割り当てボードと申請ワークフローが利用します。
type Checker interface {
	CheckConflicts(ctx context.Context, memberID string, dates []calendar.Date, excludeAssignmentID string) ([]Conflict, error)
}

// AssignmentCollisions は dates のうち既存の割り当てと重なる日を衝突として返します。
// 不在登録時の警告に使われ、勤務曜日や他の不在は見ません。
func AssignmentCollisions(ctx context.Context, p AssignmentProvider, memberID string, dates []calendar.Date) ([]Conflict, error) {
	var conflicts []Conflict
	for _, d := range calendar.SortUnique(dates) {
		ref, err := p.CoveringAssignment(ctx, memberID, d, "")
		if err != nil {
			return nil, err
		}
		if ref != nil {
			conflicts = append(conflicts, assignmentConflict(d, ref))
		}
	}
	return conflicts, nil
}

func assignmentConflict(d calendar.Date, ref *AssignmentRef) Conflict {
	return Conflict{
		Date: d,
		Type: TypeAssignment,
		Details: Details{
			AssignmentID: ref.ID,
			ProjectID:    ref.ProjectID,
			PhaseID:      ref.PhaseID,
		},
	}
}
