package conflict

import "github.com/ogurasousui/teamplan/internal/core/calendar"

// Type は衝突の種類です。
type Type string

const (
	TypeNonWorking Type = "non_working"
	TypeAbsence    Type = "absence"
	TypeAssignment Type = "assignment"
)

// Details は衝突相手の情報です。Type に応じて該当する項目だけが埋まります。
type Details struct {
	Weekday      string
	HolidayName  string
	AbsenceID    string
	AbsenceType  string
	AbsenceStart calendar.Date
	AbsenceEnd   calendar.Date
	AssignmentID string
	ProjectID    string
	PhaseID      string
}

// Conflict は 1 日分のスケジュール衝突です。同じ日付に対して 2 件以上生成されることはありません。
type Conflict struct {
	Date    calendar.Date
	Type    Type
	Details Details
}

// AbsenceRef は衝突判定に必要な不在の情報です。
type AbsenceRef struct {
	ID        string
	Type      string
	StartDate calendar.Date
	EndDate   calendar.Date
}

// AssignmentRef は衝突判定に必要な割り当ての情報です。
type AssignmentRef struct {
	ID        string
	ProjectID string
	PhaseID   string
}

// DayStatus はメンバーのある 1 日の状態です。
type DayStatus string

const (
	StatusFree       DayStatus = "free"
	StatusNonWorking DayStatus = "non_working"
	StatusAbsent     DayStatus = "absent"
	StatusBusy       DayStatus = "busy"
)
