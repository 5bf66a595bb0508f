package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/ogurasousui/teamplan/internal/core/absence"
	"github.com/ogurasousui/teamplan/internal/core/agency"
	"github.com/ogurasousui/teamplan/internal/core/assignment"
	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/member"
	"github.com/ogurasousui/teamplan/internal/core/notification"
	"github.com/ogurasousui/teamplan/internal/core/permission"
	"github.com/ogurasousui/teamplan/internal/core/request"
)

// 日付は YYYY-MM-DD の文字列で保存するため、文字列比較がそのまま日付比較になります。

type memberRow struct {
	ID                  string          `gorm:"primaryKey;type:text"`
	AgencyID            string          `gorm:"type:text;not null;index:idx_members_agency_email"`
	Name                string          `gorm:"type:text;not null"`
	Email               string          `gorm:"type:text;not null;default:'';index:idx_members_agency_email"`
	Phone               string          `gorm:"type:text;not null;default:''"`
	Position            string          `gorm:"type:text;not null;default:''"`
	Professions         []string        `gorm:"serializer:json"`
	Skills              []string        `gorm:"serializer:json"`
	EmploymentType      string          `gorm:"type:varchar(20);not null"`
	WorkingDays         int             `gorm:"not null"`
	WorkStart           int             `gorm:"not null"`
	WorkEnd             int             `gorm:"not null"`
	Role                string          `gorm:"type:varchar(20);not null"`
	PermissionOverrides map[string]bool `gorm:"serializer:json"`
	IsActive            bool            `gorm:"not null;index"`
	CreatedAt           time.Time       `gorm:"autoCreateTime:false"`
	UpdatedAt           time.Time       `gorm:"autoUpdateTime:false"`
	Version             int64           `gorm:"not null"`
}

func (memberRow) TableName() string {
	return "members"
}

func toMemberRow(m *member.Member) memberRow {
	return memberRow{
		ID:                  m.ID,
		AgencyID:            m.AgencyID,
		Name:                m.Name,
		Email:               m.Email,
		Phone:               m.Phone,
		Position:            m.Position,
		Professions:         m.Professions,
		Skills:              m.Skills,
		EmploymentType:      string(m.EmploymentType),
		WorkingDays:         int(m.WorkingDays),
		WorkStart:           int(m.WorkingHours.Start),
		WorkEnd:             int(m.WorkingHours.End),
		Role:                string(m.Role),
		PermissionOverrides: encodeOverrides(m.PermissionOverrides),
		IsActive:            m.IsActive,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
		Version:             m.Version,
	}
}

func (r memberRow) toEntity() *member.Member {
	return &member.Member{
		ID:                  r.ID,
		AgencyID:            r.AgencyID,
		Name:                r.Name,
		Email:               r.Email,
		Phone:               r.Phone,
		Position:            r.Position,
		Professions:         r.Professions,
		Skills:              r.Skills,
		EmploymentType:      member.EmploymentType(r.EmploymentType),
		WorkingDays:         calendar.WeekdaySet(r.WorkingDays),
		WorkingHours:        calendar.TimeRange{Start: calendar.TimeOfDay(r.WorkStart), End: calendar.TimeOfDay(r.WorkEnd)},
		Role:                member.Role(r.Role),
		PermissionOverrides: decodeOverrides(r.PermissionOverrides),
		IsActive:            r.IsActive,
		CreatedAt:           r.CreatedAt.UTC(),
		UpdatedAt:           r.UpdatedAt.UTC(),
		Version:             r.Version,
	}
}

type agencySettingsRow struct {
	AgencyID           string          `gorm:"primaryKey;type:text"`
	WorkingDays        int             `gorm:"not null"`
	WorkStart          int             `gorm:"not null"`
	WorkEnd            int             `gorm:"not null"`
	HolidayRegion      string          `gorm:"type:varchar(8);not null;default:''"`
	PermissionDefaults map[string]bool `gorm:"serializer:json"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime:false"`
	Version            int64           `gorm:"not null"`
}

func (agencySettingsRow) TableName() string {
	return "agency_settings"
}

func toAgencySettingsRow(s *agency.Settings) agencySettingsRow {
	return agencySettingsRow{
		AgencyID:           s.AgencyID,
		WorkingDays:        int(s.WorkingDays),
		WorkStart:          int(s.WorkingHours.Start),
		WorkEnd:            int(s.WorkingHours.End),
		HolidayRegion:      s.HolidayRegion,
		PermissionDefaults: encodeOverrides(s.PermissionDefaults),
		UpdatedAt:          s.UpdatedAt,
		Version:            s.Version,
	}
}

func (r agencySettingsRow) toEntity() *agency.Settings {
	return &agency.Settings{
		AgencyID:           r.AgencyID,
		WorkingDays:        calendar.WeekdaySet(r.WorkingDays),
		WorkingHours:       calendar.TimeRange{Start: calendar.TimeOfDay(r.WorkStart), End: calendar.TimeOfDay(r.WorkEnd)},
		HolidayRegion:      r.HolidayRegion,
		PermissionDefaults: decodeOverrides(r.PermissionDefaults),
		UpdatedAt:          r.UpdatedAt.UTC(),
		Version:            r.Version,
	}
}

type absenceRow struct {
	ID           string `gorm:"primaryKey;type:text"`
	MemberID     string `gorm:"type:text;not null;index"`
	Type         string `gorm:"type:varchar(20);not null"`
	StartDate    string `gorm:"type:char(10);not null;index"`
	EndDate      string `gorm:"type:char(10);not null"`
	IsPartial    bool   `gorm:"not null"`
	PartialStart *int
	PartialEnd   *int
	Note         string    `gorm:"type:text;not null;default:''"`
	RequestID    string    `gorm:"type:text;not null;default:''"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false"`
	Version      int64     `gorm:"not null"`
}

func (absenceRow) TableName() string {
	return "absences"
}

func toAbsenceRow(a *absence.Absence) absenceRow {
	start, end := encodeTimeRange(a.Partial)
	return absenceRow{
		ID:           a.ID,
		MemberID:     a.MemberID,
		Type:         string(a.Type),
		StartDate:    a.StartDate.String(),
		EndDate:      a.EndDate.String(),
		IsPartial:    a.IsPartial,
		PartialStart: start,
		PartialEnd:   end,
		Note:         a.Note,
		RequestID:    a.RequestID,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		Version:      a.Version,
	}
}

func (r absenceRow) toEntity() (*absence.Absence, error) {
	start, err := calendar.Parse(r.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := calendar.Parse(r.EndDate)
	if err != nil {
		return nil, err
	}
	return &absence.Absence{
		ID:        r.ID,
		MemberID:  r.MemberID,
		Type:      absence.Type(r.Type),
		StartDate: start,
		EndDate:   end,
		IsPartial: r.IsPartial,
		Partial:   decodeTimeRange(r.PartialStart, r.PartialEnd),
		Note:      r.Note,
		RequestID: r.RequestID,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
		Version:   r.Version,
	}, nil
}

type assignmentRow struct {
	ID          string    `gorm:"primaryKey;type:text"`
	MemberID    string    `gorm:"type:text;not null;index"`
	ProjectID   string    `gorm:"type:text;not null;index"`
	PhaseID     string    `gorm:"type:text;not null;default:''"`
	FirstDate   string    `gorm:"type:char(10);not null;index"`
	LastDate    string    `gorm:"type:char(10);not null"`
	Dates       []string  `gorm:"serializer:json"`
	TimeSlots   []string  `gorm:"serializer:json"`
	ProjectRole string    `gorm:"type:text;not null;default:''"`
	Note        string    `gorm:"type:text;not null;default:''"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
	Version     int64     `gorm:"not null"`
}

func (assignmentRow) TableName() string {
	return "assignments"
}

func toAssignmentRow(a *assignment.Assignment) assignmentRow {
	row := assignmentRow{
		ID:          a.ID,
		MemberID:    a.MemberID,
		ProjectID:   a.ProjectID,
		PhaseID:     a.PhaseID,
		Dates:       calendar.Strings(a.Dates),
		TimeSlots:   make([]string, 0, len(a.TimeSlots)),
		ProjectRole: a.ProjectRole,
		Note:        a.Note,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		Version:     a.Version,
	}
	if span, ok := a.Span(); ok {
		row.FirstDate = span.Start.String()
		row.LastDate = span.End.String()
	}
	for _, s := range a.TimeSlots {
		row.TimeSlots = append(row.TimeSlots, s.String())
	}
	return row
}

func (r assignmentRow) toEntity() (*assignment.Assignment, error) {
	dates, err := calendar.ParseAll(r.Dates)
	if err != nil {
		return nil, err
	}
	slots, err := decodeSlots(r.TimeSlots)
	if err != nil {
		return nil, err
	}
	return &assignment.Assignment{
		ID:          r.ID,
		MemberID:    r.MemberID,
		ProjectID:   r.ProjectID,
		PhaseID:     r.PhaseID,
		Dates:       dates,
		TimeSlots:   slots,
		ProjectRole: r.ProjectRole,
		Note:        r.Note,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
		Version:     r.Version,
	}, nil
}

type requestRow struct {
	ID              string `gorm:"primaryKey;type:text"`
	MemberID        string `gorm:"type:text;not null;index"`
	Type            string `gorm:"type:varchar(20);not null"`
	StartDate       string `gorm:"type:char(10);not null"`
	EndDate         string `gorm:"type:char(10);not null"`
	IsPartial       bool   `gorm:"not null"`
	PartialStart    *int
	PartialEnd      *int
	Reason          string `gorm:"type:text;not null;default:''"`
	Status          string `gorm:"type:varchar(10);not null;index"`
	ReviewedBy      string `gorm:"type:text;not null;default:''"`
	ReviewedAt      *time.Time
	RejectionReason string    `gorm:"type:text;not null;default:''"`
	AbsenceID       string    `gorm:"type:text;not null;default:''"`
	CreatedAt       time.Time `gorm:"autoCreateTime:false;index"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime:false"`
	Version         int64     `gorm:"not null"`
}

func (requestRow) TableName() string {
	return "absence_requests"
}

func toRequestRow(r *request.Request) requestRow {
	start, end := encodeTimeRange(r.Partial)
	return requestRow{
		ID:              r.ID,
		MemberID:        r.MemberID,
		Type:            string(r.Type),
		StartDate:       r.StartDate.String(),
		EndDate:         r.EndDate.String(),
		IsPartial:       r.IsPartial,
		PartialStart:    start,
		PartialEnd:      end,
		Reason:          r.Reason,
		Status:          string(r.Status),
		ReviewedBy:      r.ReviewedBy,
		ReviewedAt:      r.ReviewedAt,
		RejectionReason: r.RejectionReason,
		AbsenceID:       r.AbsenceID,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		Version:         r.Version,
	}
}

func (r requestRow) toEntity() (*request.Request, error) {
	start, err := calendar.Parse(r.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := calendar.Parse(r.EndDate)
	if err != nil {
		return nil, err
	}
	var reviewedAt *time.Time
	if r.ReviewedAt != nil {
		t := r.ReviewedAt.UTC()
		reviewedAt = &t
	}
	return &request.Request{
		ID:              r.ID,
		MemberID:        r.MemberID,
		Type:            absence.Type(r.Type),
		StartDate:       start,
		EndDate:         end,
		IsPartial:       r.IsPartial,
		Partial:         decodeTimeRange(r.PartialStart, r.PartialEnd),
		Reason:          r.Reason,
		Status:          request.Status(r.Status),
		ReviewedBy:      r.ReviewedBy,
		ReviewedAt:      reviewedAt,
		RejectionReason: r.RejectionReason,
		AbsenceID:       r.AbsenceID,
		CreatedAt:       r.CreatedAt.UTC(),
		UpdatedAt:       r.UpdatedAt.UTC(),
		Version:         r.Version,
	}, nil
}

type notificationRow struct {
	Seq       uint              `gorm:"primaryKey;autoIncrement"`
	ID        string            `gorm:"type:text;not null;uniqueIndex"`
	Type      string            `gorm:"type:varchar(40);not null"`
	ForRole   string            `gorm:"type:varchar(20);not null;default:''"`
	MemberID  string            `gorm:"type:text;not null;default:''"`
	RequestID string            `gorm:"type:text;not null;default:''"`
	Payload   map[string]string `gorm:"serializer:json"`
	Read      bool              `gorm:"not null;index"`
	CreatedAt time.Time         `gorm:"autoCreateTime:false"`
}

func (notificationRow) TableName() string {
	return "notifications"
}

func toNotificationRow(n *notification.Notification) notificationRow {
	return notificationRow{
		ID:        n.ID,
		Type:      string(n.Type),
		ForRole:   string(n.ForRole),
		MemberID:  n.MemberID,
		RequestID: n.RequestID,
		Payload:   n.Payload,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func (r notificationRow) toEntity() *notification.Notification {
	return &notification.Notification{
		ID:        r.ID,
		Type:      notification.Type(r.Type),
		ForRole:   member.Role(r.ForRole),
		MemberID:  r.MemberID,
		RequestID: r.RequestID,
		Payload:   r.Payload,
		Read:      r.Read,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

func encodeOverrides(o permission.Overrides) map[string]bool {
	if len(o) == 0 {
		return nil
	}
	out := make(map[string]bool, len(o))
	for k, v := range o {
		out[string(k)] = v
	}
	return out
}

func decodeOverrides(raw map[string]bool) permission.Overrides {
	if len(raw) == 0 {
		return nil
	}
	out := make(permission.Overrides, len(raw))
	for k, v := range raw {
		out[permission.Key(k)] = v
	}
	return out
}

func encodeTimeRange(r *calendar.TimeRange) (*int, *int) {
	if r == nil {
		return nil, nil
	}
	start, end := int(r.Start), int(r.End)
	return &start, &end
}

func decodeTimeRange(start, end *int) *calendar.TimeRange {
	if start == nil || end == nil {
		return nil
	}
	return &calendar.TimeRange{Start: calendar.TimeOfDay(*start), End: calendar.TimeOfDay(*end)}
}

func decodeSlots(raw []string) ([]calendar.TimeRange, error) {
	out := make([]calendar.TimeRange, 0, len(raw))
	for _, r := range raw {
		start, end, ok := strings.Cut(r, "-")
		if !ok {
			return nil, fmt.Errorf("sqlite: malformed time slot %q", r)
		}
		tr, err := calendar.ParseTimeRange(start, end)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}
