package absence

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/conflict"
	"github.com/ogurasousui/teamplan/internal/core/member"
	"github.com/sirupsen/logrus"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

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

// MemberFinder は不在の所有者であるメンバーを取得します。
type MemberFinder interface {
	GetMember(ctx context.Context, id string) (*member.Member, error)
}

// Service は不在台帳のユースケースをまとめます。
type Service struct {
	repo        Repository
	members     MemberFinder
	assignments conflict.AssignmentProvider
	clock       Clock
	tx          TransactionManager
	newID       func() string
	log         logrus.FieldLogger
}

// UseCase は不在台帳ユースケースの公開インターフェースです。
type UseCase interface {
	AddAbsence(ctx context.Context, in AddAbsenceInput) (*Result, error)
	UpdateAbsence(ctx context.Context, in UpdateAbsenceInput) (*Result, error)
	RemoveAbsence(ctx context.Context, id string) error
	GetAbsence(ctx context.Context, id string) (*Absence, error)
	ForMember(ctx context.Context, memberID string, rng *calendar.Range) ([]*Absence, error)
	ForRange(ctx context.Context, rng calendar.Range) ([]*Absence, error)
	IsAbsent(ctx context.Context, memberID string, date calendar.Date) (bool, error)
	AbsenceOnDate(ctx context.Context, memberID string, date calendar.Date) (*Absence, error)
	Overlaps(ctx context.Context, memberID string) ([]Overlap, error)
}

// Option は Service の任意設定です。
type Option func(*Service)

// WithAssignments は登録時の警告計算に使う割り当て参照を設定します。未設定なら警告は計算しません。
func WithAssignments(p conflict.AssignmentProvider) Option {
	return func(s *Service) { s.assignments = p }
}

// WithLogger はロガーを設定します。
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithIDGenerator は ID 生成関数を差し替えます。
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService は Service を生成します。
func NewService(repo Repository, members MemberFinder, clock Clock, tx TransactionManager, opts ...Option) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	s := &Service{repo: repo, members: members, clock: clock, tx: tx, newID: uuid.NewString, log: quiet}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddAbsenceInput は不在登録時の入力です。
type AddAbsenceInput struct {
	MemberID  string
	Type      Type
	StartDate calendar.Date
	EndDate   calendar.Date
	IsPartial bool
	Partial   *calendar.TimeRange
	Note      string
	RequestID string
}

// UpdateAbsenceInput は不在更新時の入力です。nil の項目は変更しません。
type UpdateAbsenceInput struct {
	ID              string
	ExpectedVersion *int64
	Type            *Type
	StartDate       *calendar.Date
	EndDate         *calendar.Date
	IsPartial       *bool
	Partial         *calendar.TimeRange
	Note            *string
}

// Result は保存された不在と、既存の割り当てとの衝突警告です。警告があっても保存は行われます。
type Result struct {
	Absence  *Absence
	Warnings []conflict.Conflict
}

// AddAbsence は不在を登録します。登録前に既存の割り当てとの衝突を計算し警告として返します。
func (s *Service) AddAbsence(ctx context.Context, in AddAbsenceInput) (*Result, error) {
	memberID := strings.TrimSpace(in.MemberID)
	if memberID == "" {
		return nil, ErrInvalidMemberID
	}
	if !in.Type.Valid() {
		return nil, ErrInvalidType
	}
	now := s.clock.Now()
	a := &Absence{
		ID:        s.newID(),
		MemberID:  memberID,
		Type:      in.Type,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		IsPartial: in.IsPartial,
		Partial:   clonePartial(in.Partial),
		Note:      strings.TrimSpace(in.Note),
		RequestID: strings.TrimSpace(in.RequestID),
		CreatedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	if err := validate(a); err != nil {
		return nil, err
	}

	var result Result
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.members.GetMember(txCtx, memberID); err != nil {
			return err
		}
		warnings, err := s.warnings(txCtx, a)
		if err != nil {
			return err
		}
		created, err := s.repo.Create(txCtx, a)
		if err != nil {
			return err
		}
		result = Result{Absence: created, Warnings: warnings}
		return nil
	}); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"absence_id": result.Absence.ID,
		"member_id":  memberID,
		"type":       result.Absence.Type,
		"warnings":   len(result.Warnings),
	}).Info("absence added")
	return &result, nil
}

// UpdateAbsence は不在を更新します。期間が変わった場合のみ警告を再計算します。
func (s *Service) UpdateAbsence(ctx context.Context, in UpdateAbsenceInput) (*Result, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result Result
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID)
		if err != nil {
			return err
		}
		if in.ExpectedVersion != nil && *in.ExpectedVersion != existing.Version {
			return ErrVersionConflict
		}

		rangeChanged := false
		if in.Type != nil {
			if !in.Type.Valid() {
				return ErrInvalidType
			}
			existing.Type = *in.Type
		}
		if in.StartDate != nil && *in.StartDate != existing.StartDate {
			existing.StartDate = *in.StartDate
			rangeChanged = true
		}
		if in.EndDate != nil && *in.EndDate != existing.EndDate {
			existing.EndDate = *in.EndDate
			rangeChanged = true
		}
		if in.IsPartial != nil {
			existing.IsPartial = *in.IsPartial
			if !existing.IsPartial {
				existing.Partial = nil
			}
		}
		if in.Partial != nil {
			existing.Partial = clonePartial(in.Partial)
		}
		if in.Note != nil {
			existing.Note = strings.TrimSpace(*in.Note)
		}
		if err := validate(existing); err != nil {
			return err
		}

		if rangeChanged {
			warnings, err := s.warnings(txCtx, existing)
			if err != nil {
				return err
			}
			result.Warnings = warnings
		}

		existing.UpdatedAt = s.clock.Now()
		updated, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}
		result.Absence = updated
		return nil
	}); err != nil {
		return nil, err
	}
	return &result, nil
}

// RemoveAbsence は不在を削除します。
func (s *Service) RemoveAbsence(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, id)
	}); err != nil {
		return err
	}
	s.log.WithField("absence_id", id).Info("absence removed")
	return nil
}

// GetAbsence は不在を取得します。
func (s *Service) GetAbsence(ctx context.Context, id string) (*Absence, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}
	var result *Absence
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// ForMember はメンバーの不在を返します。rng が nil の場合は全期間です。
func (s *Service) ForMember(ctx context.Context, memberID string, rng *calendar.Range) ([]*Absence, error) {
	id := strings.TrimSpace(memberID)
	if id == "" {
		return nil, ErrInvalidMemberID
	}
	if rng != nil {
		if err := rng.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
		}
	}
	return s.list(ctx, ListFilter{MemberID: id, Range: rng})
}

// ForRange は期間と重なる全メンバーの不在を返します。
func (s *Service) ForRange(ctx context.Context, rng calendar.Range) ([]*Absence, error) {
	if err := rng.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	return s.list(ctx, ListFilter{Range: &rng})
}

// IsAbsent はその日に不在 (部分休を含む) があるかどうかを返します。
func (s *Service) IsAbsent(ctx context.Context, memberID string, date calendar.Date) (bool, error) {
	a, err := s.AbsenceOnDate(ctx, memberID, date)
	if err != nil {
		return false, err
	}
	return a != nil, nil
}

// AbsenceOnDate はその日をカバーする最初の不在を返します。部分休も対象で、該当がなければ nil です。
func (s *Service) AbsenceOnDate(ctx context.Context, memberID string, date calendar.Date) (*Absence, error) {
	found, err := s.onDate(ctx, memberID, date)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	return found[0], nil
}

// BlockingAbsence は日付を丸ごと塞ぐ不在を衝突判定用の参照として返します。
func (s *Service) BlockingAbsence(ctx context.Context, memberID string, date calendar.Date) (*conflict.AbsenceRef, error) {
	found, err := s.onDate(ctx, memberID, date)
	if err != nil {
		return nil, err
	}
	for _, a := range found {
		if a.Blocks(date) {
			return a.Ref(), nil
		}
	}
	return nil, nil
}

// Overlaps はメンバーの不在のうち期間が重なっている組を返します。
func (s *Service) Overlaps(ctx context.Context, memberID string) ([]Overlap, error) {
	all, err := s.ForMember(ctx, memberID, nil)
	if err != nil {
		return nil, err
	}

	var overlaps []Overlap
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			// 開始日順に並んでいるので、それ以降の不在は重ならない。
			if all[j].StartDate.After(all[i].EndDate) {
				break
			}
			overlaps = append(overlaps, Overlap{First: all[i], Second: all[j]})
		}
	}
	return overlaps, nil
}

func (s *Service) onDate(ctx context.Context, memberID string, date calendar.Date) ([]*Absence, error) {
	if date.IsZero() {
		return nil, calendar.ErrInvalidDate
	}
	rng := calendar.Range{Start: date, End: date}
	return s.ForMember(ctx, memberID, &rng)
}

func (s *Service) list(ctx context.Context, filter ListFilter) ([]*Absence, error) {
	var result []*Absence
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.List(txCtx, filter)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) warnings(ctx context.Context, a *Absence) ([]conflict.Conflict, error) {
	if s.assignments == nil {
		return nil, nil
	}
	return conflict.AssignmentCollisions(ctx, s.assignments, a.MemberID, a.Range().Days())
}

func validate(a *Absence) error {
	if err := a.Range().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	if err := a.Range().ValidateLength(calendar.MaxRangeDays); err != nil {
		return fmt.Errorf("%w: %v", ErrRangeTooLong, err)
	}
	if a.Partial != nil {
		if !a.IsPartial {
			return fmt.Errorf("%w: time range requires the partial flag", ErrInvalidPartialHours)
		}
		if err := a.Partial.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidPartialHours, err)
		}
	}
	return nil
}

func clonePartial(p *calendar.TimeRange) *calendar.TimeRange {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
