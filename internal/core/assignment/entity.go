package assignment

import (
	"sort"
	"time"

	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/conflict"
)

// Assignment はメンバーをプロジェクトのフェーズに日単位で割り当てます。
// Dates は常に昇順・重複なしで保持されます。
type Assignment struct {
	ID          string
	MemberID    string
	ProjectID   string
	PhaseID     string
	Dates       []calendar.Date
	TimeSlots   []calendar.TimeRange
	ProjectRole string
	Note        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
}

// Covers は d が割り当て日に含まれるかどうかを返します。
func (a *Assignment) Covers(d calendar.Date) bool {
	i := sort.Search(len(a.Dates), func(i int) bool { return !a.Dates[i].Before(d) })
	return i < len(a.Dates) && a.Dates[i] == d
}

// Span は最初と最後の割り当て日を返します。
func (a *Assignment) Span() (calendar.Range, bool) {
	if len(a.Dates) == 0 {
		return calendar.Range{}, false
	}
	return calendar.Range{Start: a.Dates[0], End: a.Dates[len(a.Dates)-1]}, true
}

// Ref は衝突判定用の参照を返します。
func (a *Assignment) Ref() *conflict.AssignmentRef {
	return &conflict.AssignmentRef{ID: a.ID, ProjectID: a.ProjectID, PhaseID: a.PhaseID}
}

// Clone は複製を返します。
func (a *Assignment) Clone() *Assignment {
	if a == nil {
		return nil
	}
	c := *a
	c.Dates = append([]calendar.Date(nil), a.Dates...)
	c.TimeSlots = append([]calendar.TimeRange(nil), a.TimeSlots...)
	return &c
}
