package utilization

import "github.com/ogurasousui/teamplan/internal/core/calendar"

// Report はメンバー 1 人分の稼働率です。
type Report struct {
	MemberID      string
	MemberName    string
	Range         calendar.Range
	WorkingDays   int
	AvailableDays int
	AssignedDays  int
	AbsentDays    int
	// Percentage は AssignedDays / AvailableDays を百分率に丸めた値です。AvailableDays が 0 のときは 0 です。
	Percentage int
}

// TeamReport はチーム全体の稼働率です。
type TeamReport struct {
	Range             calendar.Range
	Members           []Report
	WorkingDays       int
	AvailableDays     int
	AssignedDays      int
	AbsentDays        int
	AveragePercentage int
}
