package utilization

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/conflict"
	"github.com/ogurasousui/teamplan/internal/core/member"
	"github.com/sirupsen/logrus"
)

// MaxRangeDays は 1 回の計算で扱える最大日数です。
const MaxRangeDays = calendar.MaxRangeDays

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// StatusSource は衝突検出と同じ判定で日ごとの状態を返します。
type StatusSource interface {
	DayStatuses(ctx context.Context, memberID string, dates []calendar.Date) ([]conflict.DayStatus, error)
}

// MemberFinder は対象メンバーを取得します。
type MemberFinder interface {
	GetMember(ctx context.Context, id string) (*member.Member, error)
	ListActive(ctx context.Context, agencyID string) ([]*member.Member, error)
}

// Service は稼働率の計算を行います。状態を持たず、同じ入力と同じ台帳に対しては常に同じ結果を返します。
type Service struct {
	members  MemberFinder
	statuses StatusSource
	tx       TransactionManager
	log      logrus.FieldLogger
}

// UseCase は稼働率ユースケースの公開インターフェースです。
type UseCase interface {
	MemberUtilization(ctx context.Context, memberID string, rng calendar.Range) (*Report, error)
	TeamUtilization(ctx context.Context, agencyID string, rng calendar.Range) (*TeamReport, error)
}

// Option は Service の任意設定です。
type Option func(*Service)

// WithLogger はロガーを設定します。
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService は Service を生成します。
func NewService(members MemberFinder, statuses StatusSource, tx TransactionManager, opts ...Option) *Service {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	s := &Service{members: members, statuses: statuses, tx: tx, log: quiet}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MemberUtilization は期間内のメンバーの稼働率を返します。
func (s *Service) MemberUtilization(ctx context.Context, memberID string, rng calendar.Range) (*Report, error) {
	id := strings.TrimSpace(memberID)
	if id == "" {
		return nil, ErrInvalidMemberID
	}
	if err := validateRange(rng); err != nil {
		return nil, err
	}

	var report *Report
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		m, err := s.members.GetMember(txCtx, id)
		if err != nil {
			return err
		}
		r, err := s.compute(txCtx, m, rng)
		if err != nil {
			return err
		}
		report = r
		return nil
	}); err != nil {
		return nil, err
	}
	return report, nil
}

// TeamUtilization は有効なメンバー全員の稼働率と、その百分率の平均を返します。メンバーがいなければ平均は 0 です。
func (s *Service) TeamUtilization(ctx context.Context, agencyID string, rng calendar.Range) (*TeamReport, error) {
	if err := validateRange(rng); err != nil {
		return nil, err
	}

	team := &TeamReport{Range: rng}
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		active, err := s.members.ListActive(txCtx, agencyID)
		if err != nil {
			return err
		}
		team.Members = make([]Report, 0, len(active))
		for _, m := range active {
			r, err := s.compute(txCtx, m, rng)
			if err != nil {
				return fmt.Errorf("utilization: member %s: %w", m.ID, err)
			}
			team.Members = append(team.Members, *r)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	sum := 0
	for _, r := range team.Members {
		team.WorkingDays += r.WorkingDays
		team.AvailableDays += r.AvailableDays
		team.AssignedDays += r.AssignedDays
		team.AbsentDays += r.AbsentDays
		sum += r.Percentage
	}
	team.AveragePercentage = percentage(sum, len(team.Members)*100)

	s.log.WithFields(logrus.Fields{
		"agency_id": agencyID,
		"members":   len(team.Members),
		"average":   team.AveragePercentage,
	}).Debug("team utilization computed")
	return team, nil
}

func (s *Service) compute(ctx context.Context, m *member.Member, rng calendar.Range) (*Report, error) {
	days := rng.Days()
	statuses, err := s.statuses.DayStatuses(ctx, m.ID, days)
	if err != nil {
		return nil, err
	}

	r := &Report{MemberID: m.ID, MemberName: m.Name, Range: rng}
	for _, st := range statuses {
		switch st {
		case conflict.StatusNonWorking:
			continue
		case conflict.StatusAbsent:
			r.AbsentDays++
		case conflict.StatusBusy:
			r.AssignedDays++
		}
		r.WorkingDays++
	}
	r.AvailableDays = r.WorkingDays - r.AbsentDays
	r.Percentage = percentage(r.AssignedDays, r.AvailableDays)
	return r, nil
}

// percentage は part/whole を百分率に丸めます。whole が 0 以下なら 0 です。
func percentage(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

func validateRange(rng calendar.Range) error {
	if err := rng.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	if rng.Len() > MaxRangeDays {
		return fmt.Errorf("%w: %d days", ErrRangeTooLong, rng.Len())
	}
	return nil
}
