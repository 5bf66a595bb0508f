package absence

import (
	"time"

	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/conflict"
)

// Type は不在の種類です。
type Type string

const (
	TypeVacation     Type = "vacation"
	TypeSick         Type = "sick"
	TypeOtherProject Type = "other_project"
	TypeTraining     Type = "training"
	TypeOther        Type = "other"
)

// Valid は既知の種類かどうかを返します。
func (t Type) Valid() bool {
	switch t {
	case TypeVacation, TypeSick, TypeOtherProject, TypeTraining, TypeOther:
		return true
	default:
		return false
	}
}

// Absence は承認済みの不在です。StartDate と EndDate はどちらも含みます。
type Absence struct {
	ID        string
	MemberID  string
	Type      Type
	StartDate calendar.Date
	EndDate   calendar.Date
	IsPartial bool
	// Partial は部分休の時間帯です。IsPartial が true でも省略できます。
	Partial   *calendar.TimeRange
	Note      string
	RequestID string
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
}

// Range は不在期間を返します。
func (a *Absence) Range() calendar.Range {
	return calendar.Range{Start: a.StartDate, End: a.EndDate}
}

// Covers は d が不在期間に含まれるかどうかを返します。
func (a *Absence) Covers(d calendar.Date) bool {
	return a.Range().Contains(d)
}

// Blocks は d を丸ごと塞ぐかどうかを返します。部分休は塞ぎません。
func (a *Absence) Blocks(d calendar.Date) bool {
	return !a.IsPartial && a.Covers(d)
}

// Ref は衝突判定用の参照を返します。
func (a *Absence) Ref() *conflict.AbsenceRef {
	return &conflict.AbsenceRef{ID: a.ID, Type: string(a.Type), StartDate: a.StartDate, EndDate: a.EndDate}
}

// Clone は複製を返します。
func (a *Absence) Clone() *Absence {
	if a == nil {
		return nil
	}
	c := *a
	if a.Partial != nil {
		p := *a.Partial
		c.Partial = &p
	}
	return &c
}

// Overlap は同じメンバーの重なっている不在の組です。
type Overlap struct {
	First  *Absence
	Second *Absence
}
