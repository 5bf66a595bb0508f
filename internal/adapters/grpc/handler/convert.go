package handler

import (
	"time"

	v1 "github.com/ogurasousui/teamplan/internal/adapters/grpc/teamplanv1"
	"github.com/ogurasousui/teamplan/internal/core/absence"
	"github.com/ogurasousui/teamplan/internal/core/agency"
	"github.com/ogurasousui/teamplan/internal/core/assignment"
	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/conflict"
	"github.com/ogurasousui/teamplan/internal/core/member"
	"github.com/ogurasousui/teamplan/internal/core/notification"
	"github.com/ogurasousui/teamplan/internal/core/permission"
	"github.com/ogurasousui/teamplan/internal/core/request"
	"github.com/ogurasousui/teamplan/internal/core/utilization"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTimeRange(tr *v1.TimeRange) (*calendar.TimeRange, error) {
	if tr == nil {
		return nil, nil
	}
	parsed, err := calendar.ParseTimeRange(tr.Start, tr.End)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseTimeRanges(raw []v1.TimeRange) ([]calendar.TimeRange, error) {
	out := make([]calendar.TimeRange, 0, len(raw))
	for i := range raw {
		tr, err := parseTimeRange(&raw[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *tr)
	}
	return out, nil
}

func toWireTimeRange(tr calendar.TimeRange) v1.TimeRange {
	return v1.TimeRange{Start: tr.Start.String(), End: tr.End.String()}
}

func toWireTimeRangePtr(tr *calendar.TimeRange) *v1.TimeRange {
	if tr == nil {
		return nil
	}
	w := toWireTimeRange(*tr)
	return &w
}

func parseOptionalDate(raw *string) (*calendar.Date, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := calendar.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// parseRange は start と end が両方空なら nil を返します。
func parseRange(start, end string) (*calendar.Range, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	s, err := calendar.Parse(start)
	if err != nil {
		return nil, err
	}
	e, err := calendar.Parse(end)
	if err != nil {
		return nil, err
	}
	rng, err := calendar.NewRange(s, e)
	if err != nil {
		return nil, err
	}
	return &rng, nil
}

func parseRequiredRange(start, end string) (calendar.Range, error) {
	rng, err := parseRange(start, end)
	if err != nil {
		return calendar.Range{}, err
	}
	if rng == nil {
		return calendar.Range{}, calendar.ErrInvalidDate
	}
	return *rng, nil
}

func parseWeekdays(raw *[]string) (*calendar.WeekdaySet, error) {
	if raw == nil {
		return nil, nil
	}
	set, err := calendar.ParseWeekdaySet(*raw)
	if err != nil {
		return nil, err
	}
	return &set, nil
}

func toOverrides(raw map[string]bool) (permission.Overrides, error) {
	if raw == nil {
		return nil, nil
	}
	out := make(permission.Overrides, len(raw))
	for k, v := range raw {
		key, err := permission.ParseKey(k)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

func toWireOverrides(o permission.Overrides) map[string]bool {
	if len(o) == 0 {
		return nil
	}
	out := make(map[string]bool, len(o))
	for k, v := range o {
		out[string(k)] = v
	}
	return out
}

func toWireMember(m *member.Member) *v1.Member {
	if m == nil {
		return nil
	}
	return &v1.Member{
		ID:                  m.ID,
		AgencyID:            m.AgencyID,
		Name:                m.Name,
		Email:               m.Email,
		Phone:               m.Phone,
		Position:            m.Position,
		Professions:         m.Professions,
		Skills:              m.Skills,
		EmploymentType:      string(m.EmploymentType),
		WorkingDays:         m.WorkingDays.Strings(),
		WorkingHours:        toWireTimeRange(m.WorkingHours),
		Role:                string(m.Role),
		PermissionOverrides: toWireOverrides(m.PermissionOverrides),
		IsActive:            m.IsActive,
		CreatedAt:           formatTime(m.CreatedAt),
		UpdatedAt:           formatTime(m.UpdatedAt),
		Version:             m.Version,
	}
}

func toWireMembers(members []*member.Member) []*v1.Member {
	out := make([]*v1.Member, 0, len(members))
	for _, m := range members {
		out = append(out, toWireMember(m))
	}
	return out
}

func toWireConflicts(conflicts []conflict.Conflict) []v1.Conflict {
	if len(conflicts) == 0 {
		return nil
	}
	out := make([]v1.Conflict, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, v1.Conflict{
			Date:         c.Date.String(),
			Type:         string(c.Type),
			Weekday:      c.Details.Weekday,
			HolidayName:  c.Details.HolidayName,
			AbsenceID:    c.Details.AbsenceID,
			AbsenceType:  c.Details.AbsenceType,
			AbsenceStart: c.Details.AbsenceStart.String(),
			AbsenceEnd:   c.Details.AbsenceEnd.String(),
			AssignmentID: c.Details.AssignmentID,
			ProjectID:    c.Details.ProjectID,
			PhaseID:      c.Details.PhaseID,
		})
	}
	return out
}

func toWireAbsence(a *absence.Absence) *v1.Absence {
	if a == nil {
		return nil
	}
	return &v1.Absence{
		ID:        a.ID,
		MemberID:  a.MemberID,
		Type:      string(a.Type),
		StartDate: a.StartDate.String(),
		EndDate:   a.EndDate.String(),
		IsPartial: a.IsPartial,
		Partial:   toWireTimeRangePtr(a.Partial),
		Note:      a.Note,
		RequestID: a.RequestID,
		CreatedAt: formatTime(a.CreatedAt),
		UpdatedAt: formatTime(a.UpdatedAt),
		Version:   a.Version,
	}
}

func toWireAbsences(absences []*absence.Absence) []*v1.Absence {
	out := make([]*v1.Absence, 0, len(absences))
	for _, a := range absences {
		out = append(out, toWireAbsence(a))
	}
	return out
}

func toWireAssignment(a *assignment.Assignment) *v1.Assignment {
	if a == nil {
		return nil
	}
	var slots []v1.TimeRange
	for _, s := range a.TimeSlots {
		slots = append(slots, toWireTimeRange(s))
	}
	return &v1.Assignment{
		ID:          a.ID,
		MemberID:    a.MemberID,
		ProjectID:   a.ProjectID,
		PhaseID:     a.PhaseID,
		Dates:       calendar.Strings(a.Dates),
		TimeSlots:   slots,
		ProjectRole: a.ProjectRole,
		Note:        a.Note,
		CreatedAt:   formatTime(a.CreatedAt),
		UpdatedAt:   formatTime(a.UpdatedAt),
		Version:     a.Version,
	}
}

func toWireAssignments(assignments []*assignment.Assignment) []*v1.Assignment {
	out := make([]*v1.Assignment, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, toWireAssignment(a))
	}
	return out
}

func toWireRequest(r *request.Request) *v1.AbsenceRequest {
	if r == nil {
		return nil
	}
	w := &v1.AbsenceRequest{
		ID:              r.ID,
		MemberID:        r.MemberID,
		Type:            string(r.Type),
		StartDate:       r.StartDate.String(),
		EndDate:         r.EndDate.String(),
		IsPartial:       r.IsPartial,
		Partial:         toWireTimeRangePtr(r.Partial),
		Reason:          r.Reason,
		Status:          string(r.Status),
		ReviewedBy:      r.ReviewedBy,
		RejectionReason: r.RejectionReason,
		AbsenceID:       r.AbsenceID,
		CreatedAt:       formatTime(r.CreatedAt),
		UpdatedAt:       formatTime(r.UpdatedAt),
		Version:         r.Version,
	}
	if r.ReviewedAt != nil {
		w.ReviewedAt = formatTime(*r.ReviewedAt)
	}
	return w
}

func toWireRequests(requests []*request.Request) []*v1.AbsenceRequest {
	out := make([]*v1.AbsenceRequest, 0, len(requests))
	for _, r := range requests {
		out = append(out, toWireRequest(r))
	}
	return out
}

func toWireOutcome(o *request.Outcome) *v1.RequestOutcome {
	return &v1.RequestOutcome{
		Request:   toWireRequest(o.Request),
		Absence:   toWireAbsence(o.Absence),
		Conflicts: toWireConflicts(o.Conflicts),
	}
}

func toWireReport(r utilization.Report) v1.UtilizationReport {
	return v1.UtilizationReport{
		MemberID:      r.MemberID,
		MemberName:    r.MemberName,
		Start:         r.Range.Start.String(),
		End:           r.Range.End.String(),
		WorkingDays:   r.WorkingDays,
		AvailableDays: r.AvailableDays,
		AssignedDays:  r.AssignedDays,
		AbsentDays:    r.AbsentDays,
		Percentage:    r.Percentage,
	}
}

func toWireSettings(s *agency.Settings) *v1.AgencySettings {
	if s == nil {
		return nil
	}
	return &v1.AgencySettings{
		AgencyID:           s.AgencyID,
		WorkingDays:        s.WorkingDays.Strings(),
		WorkingHours:       toWireTimeRange(s.WorkingHours),
		HolidayRegion:      s.HolidayRegion,
		PermissionDefaults: toWireOverrides(s.PermissionDefaults),
		UpdatedAt:          formatTime(s.UpdatedAt),
		Version:            s.Version,
	}
}

func toWireNotification(n *notification.Notification) *v1.Notification {
	if n == nil {
		return nil
	}
	return &v1.Notification{
		ID:        n.ID,
		Type:      string(n.Type),
		ForRole:   string(n.ForRole),
		MemberID:  n.MemberID,
		RequestID: n.RequestID,
		Payload:   n.Payload,
		Read:      n.Read,
		CreatedAt: formatTime(n.CreatedAt),
	}
}
