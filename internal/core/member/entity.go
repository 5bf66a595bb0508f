package member

import (
	"time"

	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/permission"
)

// Role はチーム内の役割です。projectlead は権限チェックの対象外になります。
type Role string

const (
	RoleProjectLead Role = "projectlead"
	RoleMember      Role = "member"
)

// EmploymentType は雇用形態です。
type EmploymentType string

const (
	EmploymentFullTime  EmploymentType = "fulltime"
	EmploymentPartTime  EmploymentType = "parttime"
	EmploymentFreelance EmploymentType = "freelance"
	EmploymentIntern    EmploymentType = "intern"
)

// Member はチームメンバーエンティティです。
type Member struct {
	ID                  string
	AgencyID            string
	Name                string
	Email               string
	Phone               string
	Position            string
	Professions         []string
	Skills              []string
	EmploymentType      EmploymentType
	WorkingDays         calendar.WeekdaySet
	WorkingHours        calendar.TimeRange
	Role                Role
	PermissionOverrides permission.Overrides
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Version             int64
}

// IsProjectLead はプロジェクトリードかどうかを返します。
func (m *Member) IsProjectLead() bool {
	return m != nil && m.Role == RoleProjectLead
}

// PermissionSubject は権限判定用のビューを返します。
func (m *Member) PermissionSubject() permission.Subject {
	if m == nil {
		return permission.Subject{}
	}
	return permission.Subject{
		MemberID:      m.ID,
		IsProjectLead: m.IsProjectLead(),
		Overrides:     m.PermissionOverrides,
	}
}

// WorksOn は d がメンバーの勤務曜日かどうかを返します。
func (m *Member) WorksOn(d calendar.Date) bool {
	return m != nil && m.WorkingDays.Has(d.Weekday())
}

// Clone はスライスとマップを含めて複製します。
func (m *Member) Clone() *Member {
	if m == nil {
		return nil
	}
	c := *m
	c.Professions = append([]string(nil), m.Professions...)
	c.Skills = append([]string(nil), m.Skills...)
	c.PermissionOverrides = m.PermissionOverrides.Clone()
	return &c
}
