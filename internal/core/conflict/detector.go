package conflict

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/member"
	"github.com/sirupsen/logrus"
)

// Detector はメンバー・不在・割り当てを組み合わせてスケジュール衝突を導出します。
type Detector struct {
	members     MemberFinder
	absences    AbsenceProvider
	assignments AssignmentProvider
	holidays    HolidayProvider
	log         logrus.FieldLogger
}

// Option は Detector の任意設定です。
type Option func(*Detector)

// WithHolidays は祝日カレンダーの提供元を設定します。設定すると祝日も non_working として扱います。
func WithHolidays(p HolidayProvider) Option {
	return func(d *Detector) { d.holidays = p }
}

// WithLogger はロガーを設定します。
func WithLogger(l logrus.FieldLogger) Option {
	return func(d *Detector) {
		if l != nil {
			d.log = l
		}
	}
}

// NewDetector は Detector を生成します。
func NewDetector(members MemberFinder, absences AbsenceProvider, assignments AssignmentProvider, opts ...Option) *Detector {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	d := &Detector{members: members, absences: absences, assignments: assignments, log: quiet}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CheckConflicts は候補日ごとに最初に該当した衝突を 1 件だけ返します。
// 優先順位は non_working、absence、assignment の順です。候補日は昇順・重複なしに整えてから評価します。
func (d *Detector) CheckConflicts(ctx context.Context, memberID string, dates []calendar.Date, excludeAssignmentID string) ([]Conflict, error) {
	m, hc, err := d.load(ctx, memberID)
	if err != nil {
		return nil, err
	}

	var conflicts []Conflict
	for _, date := range calendar.SortUnique(dates) {
		c, err := d.check(ctx, m, hc, date, excludeAssignmentID)
		if err != nil {
			return nil, err
		}
		if c != nil {
			conflicts = append(conflicts, *c)
		}
	}

	if len(conflicts) > 0 {
		d.log.WithFields(logrus.Fields{"member_id": m.ID, "conflicts": len(conflicts)}).Debug("conflicts detected")
	}
	return conflicts, nil
}

// DayStatus はメンバーのその日の状態を返します。稼働率計算と同じ判定を使います。
func (d *Detector) DayStatus(ctx context.Context, memberID string, date calendar.Date) (DayStatus, error) {
	statuses, err := d.DayStatuses(ctx, memberID, []calendar.Date{date})
	if err != nil {
		return "", err
	}
	return statuses[0], nil
}

// DayStatuses は dates と同じ順序で各日の状態を返します。
func (d *Detector) DayStatuses(ctx context.Context, memberID string, dates []calendar.Date) ([]DayStatus, error) {
	m, hc, err := d.load(ctx, memberID)
	if err != nil {
		return nil, err
	}

	statuses := make([]DayStatus, len(dates))
	for i, date := range dates {
		c, err := d.check(ctx, m, hc, date, "")
		if err != nil {
			return nil, err
		}
		statuses[i] = statusOf(c)
	}
	return statuses, nil
}

func statusOf(c *Conflict) DayStatus {
	if c == nil {
		return StatusFree
	}
	switch c.Type {
	case TypeNonWorking:
		return StatusNonWorking
	case TypeAbsence:
		return StatusAbsent
	default:
		return StatusBusy
	}
}

func (d *Detector) load(ctx context.Context, memberID string) (*member.Member, *calendar.HolidayCalendar, error) {
	id := strings.TrimSpace(memberID)
	if id == "" {
		return nil, nil, ErrInvalidMemberID
	}
	m, err := d.members.GetMember(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return nil, nil, member.ErrMemberNotFound
	}

	if d.holidays == nil {
		return m, nil, nil
	}
	hc, err := d.holidays.HolidayCalendar(ctx, m.AgencyID)
	if err != nil {
		return nil, nil, fmt.Errorf("conflict: holiday calendar: %w", err)
	}
	return m, hc, nil
}

func (d *Detector) check(ctx context.Context, m *member.Member, hc *calendar.HolidayCalendar, date calendar.Date, excludeAssignmentID string) (*Conflict, error) {
	if !m.WorksOn(date) {
		return &Conflict{
			Date:    date,
			Type:    TypeNonWorking,
			Details: Details{Weekday: strings.ToLower(date.Weekday().String()[:3])},
		}, nil
	}
	if name, ok := hc.Holiday(date); ok {
		return &Conflict{
			Date:    date,
			Type:    TypeNonWorking,
			Details: Details{Weekday: strings.ToLower(date.Weekday().String()[:3]), HolidayName: name},
		}, nil
	}

	abs, err := d.absences.BlockingAbsence(ctx, m.ID, date)
	if err != nil {
		return nil, err
	}
	if abs != nil {
		return &Conflict{
			Date: date,
			Type: TypeAbsence,
			Details: Details{
				AbsenceID:    abs.ID,
				AbsenceType:  abs.Type,
				AbsenceStart: abs.StartDate,
				AbsenceEnd:   abs.EndDate,
			},
		}, nil
	}

	ref, err := d.assignments.CoveringAssignment(ctx, m.ID, date, excludeAssignmentID)
	if err != nil {
		return nil, err
	}
	if ref != nil {
		c := assignmentConflict(date, ref)
		return &c, nil
	}
	return nil, nil
}
