package assignment

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
	"github.com/ogurasousui/teamplan/internal/core/notification"
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

// Dispatcher はコミット後にドメインイベントを配信します。
type Dispatcher interface {
	Dispatch(ctx context.Context, events ...notification.Event) ([]*notification.Notification, error)
}

// Service は割り当てボードのユースケースをまとめます。
type Service struct {
	repo       Repository
	checker    conflict.Checker
	clock      Clock
	tx         TransactionManager
	dispatcher Dispatcher
	newID      func() string
	log        logrus.FieldLogger
}

// UseCase は割り当てユースケースの公開インターフェースです。
type UseCase interface {
	CreateAssignment(ctx context.Context, in CreateAssignmentInput) (*Result, error)
	UpdateAssignment(ctx context.Context, in UpdateAssignmentInput) (*Result, error)
	RemoveAssignment(ctx context.Context, id string) error
	GetAssignment(ctx context.Context, id string) (*Assignment, error)
	ForMember(ctx context.Context, memberID string, rng *calendar.Range) ([]*Assignment, error)
	ForProject(ctx context.Context, projectID string) ([]*Assignment, error)
	ForPhase(ctx context.Context, phaseID string) ([]*Assignment, error)
	AssignmentOnDate(ctx context.Context, memberID string, date calendar.Date) (*Assignment, error)
}

// Option は Service の任意設定です。
type Option func(*Service)

// WithDispatcher はイベント配信先を設定します。
func WithDispatcher(d Dispatcher) Option {
	return func(s *Service) { s.dispatcher = d }
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
func NewService(repo Repository, checker conflict.Checker, clock Clock, tx TransactionManager, opts ...Option) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	s := &Service{repo: repo, checker: checker, clock: clock, tx: tx, newID: uuid.NewString, log: quiet}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAssignmentInput は割り当て作成時の入力です。
type CreateAssignmentInput struct {
	MemberID    string
	ProjectID   string
	PhaseID     string
	Dates       []calendar.Date
	TimeSlots   []calendar.TimeRange
	ProjectRole string
	Note        string
}

// UpdateAssignmentInput は割り当て更新時の入力です。nil の項目は変更しません。
type UpdateAssignmentInput struct {
	ID              string
	ExpectedVersion *int64
	ProjectID       *string
	PhaseID         *string
	Dates           *[]calendar.Date
	TimeSlots       *[]calendar.TimeRange
	ProjectRole     *string
	Note            *string
}

// Result は保存された割り当てと検出された衝突です。衝突は参考情報で、保存を妨げません。
type Result struct {
	Assignment *Assignment
	Conflicts  []conflict.Conflict
	Events     []notification.Event
}

// CreateAssignment は衝突を確認してから割り当てを作成します。
func (s *Service) CreateAssignment(ctx context.Context, in CreateAssignmentInput) (*Result, error) {
	memberID := strings.TrimSpace(in.MemberID)
	if memberID == "" {
		return nil, ErrInvalidMemberID
	}
	projectID := strings.TrimSpace(in.ProjectID)
	if projectID == "" {
		return nil, ErrInvalidProjectID
	}
	dates, err := normalizeDates(in.Dates)
	if err != nil {
		return nil, err
	}
	slots, err := normalizeSlots(in.TimeSlots)
	if err != nil {
		return nil, err
	}

	var result Result
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.repo.LockMember(txCtx, memberID); err != nil {
			return err
		}
		conflicts, err := s.checker.CheckConflicts(txCtx, memberID, dates, "")
		if err != nil {
			return err
		}

		now := s.clock.Now()
		created, err := s.repo.Create(txCtx, &Assignment{
			ID:          s.newID(),
			MemberID:    memberID,
			ProjectID:   projectID,
			PhaseID:     strings.TrimSpace(in.PhaseID),
			Dates:       dates,
			TimeSlots:   slots,
			ProjectRole: strings.TrimSpace(in.ProjectRole),
			Note:        strings.TrimSpace(in.Note),
			CreatedAt:   now,
			UpdatedAt:   now,
			Version:     1,
		})
		if err != nil {
			return err
		}
		result = Result{Assignment: created, Conflicts: conflicts, Events: []notification.Event{createdEvent(created)}}
		return nil
	}); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"assignment_id": result.Assignment.ID,
		"member_id":     memberID,
		"project_id":    projectID,
		"conflicts":     len(result.Conflicts),
	}).Info("assignment created")
	s.dispatch(ctx, result.Events)
	return &result, nil
}

// UpdateAssignment は割り当てを更新します。割り当て日が変わった場合のみ衝突を再計算します。
func (s *Service) UpdateAssignment(ctx context.Context, in UpdateAssignmentInput) (*Result, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}
	var newDates []calendar.Date
	if in.Dates != nil {
		d, err := normalizeDates(*in.Dates)
		if err != nil {
			return nil, err
		}
		newDates = d
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

		if in.ProjectID != nil {
			projectID := strings.TrimSpace(*in.ProjectID)
			if projectID == "" {
				return ErrInvalidProjectID
			}
			existing.ProjectID = projectID
		}
		if in.PhaseID != nil {
			existing.PhaseID = strings.TrimSpace(*in.PhaseID)
		}
		if in.TimeSlots != nil {
			slots, err := normalizeSlots(*in.TimeSlots)
			if err != nil {
				return err
			}
			existing.TimeSlots = slots
		}
		if in.ProjectRole != nil {
			existing.ProjectRole = strings.TrimSpace(*in.ProjectRole)
		}
		if in.Note != nil {
			existing.Note = strings.TrimSpace(*in.Note)
		}

		if newDates != nil && !sameDates(existing.Dates, newDates) {
			if err := s.repo.LockMember(txCtx, existing.MemberID); err != nil {
				return err
			}
			conflicts, err := s.checker.CheckConflicts(txCtx, existing.MemberID, newDates, existing.ID)
			if err != nil {
				return err
			}
			existing.Dates = newDates
			result.Conflicts = conflicts
		}

		existing.UpdatedAt = s.clock.Now()
		updated, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}
		result.Assignment = updated
		return nil
	}); err != nil {
		return nil, err
	}
	return &result, nil
}

// RemoveAssignment は割り当てを削除します。
func (s *Service) RemoveAssignment(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.Delete(txCtx, id)
	}); err != nil {
		return err
	}
	s.log.WithField("assignment_id", id).Info("assignment removed")
	return nil
}

// GetAssignment は割り当てを取得します。
func (s *Service) GetAssignment(ctx context.Context, id string) (*Assignment, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}
	var result *Assignment
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

// ForMember はメンバーの割り当てを返します。rng を指定すると期間内の日付を含むものだけを返します。
func (s *Service) ForMember(ctx context.Context, memberID string, rng *calendar.Range) ([]*Assignment, error) {
	id := strings.TrimSpace(memberID)
	if id == "" {
		return nil, ErrInvalidMemberID
	}
	if rng != nil {
		if err := rng.Validate(); err != nil {
			return nil, err
		}
	}
	return s.list(ctx, ListFilter{MemberID: id, Range: rng})
}

// ForProject はプロジェクトの割り当てを返します。
func (s *Service) ForProject(ctx context.Context, projectID string) ([]*Assignment, error) {
	id := strings.TrimSpace(projectID)
	if id == "" {
		return nil, ErrInvalidProjectID
	}
	return s.list(ctx, ListFilter{ProjectID: id})
}

// ForPhase はフェーズの割り当てを返します。
func (s *Service) ForPhase(ctx context.Context, phaseID string) ([]*Assignment, error) {
	id := strings.TrimSpace(phaseID)
	if id == "" {
		return nil, fmt.Errorf("phase id: %w", ErrInvalidID)
	}
	return s.list(ctx, ListFilter{PhaseID: id})
}

// AssignmentOnDate はその日の最初の割り当てを返します。該当がなければ nil です。
func (s *Service) AssignmentOnDate(ctx context.Context, memberID string, date calendar.Date) (*Assignment, error) {
	if date.IsZero() {
		return nil, calendar.ErrInvalidDate
	}
	found, err := s.ForMember(ctx, memberID, &calendar.Range{Start: date, End: date})
	if err != nil {
		return nil, err
	}
	for _, a := range found {
		if a.Covers(date) {
			return a, nil
		}
	}
	return nil, nil
}

func (s *Service) list(ctx context.Context, filter ListFilter) ([]*Assignment, error) {
	var result []*Assignment
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

func (s *Service) dispatch(ctx context.Context, events []notification.Event) {
	if s.dispatcher == nil || len(events) == 0 {
		return
	}
	if _, err := s.dispatcher.Dispatch(ctx, events...); err != nil {
		s.log.WithError(err).Warn("failed to dispatch assignment events")
	}
}

func createdEvent(a *Assignment) notification.Event {
	payload := map[string]string{
		"assignment_id": a.ID,
		"project_id":    a.ProjectID,
		"phase_id":      a.PhaseID,
	}
	if span, ok := a.Span(); ok {
		payload["start_date"] = span.Start.String()
		payload["end_date"] = span.End.String()
	}
	return notification.Event{
		Type:     notification.TypeAssignmentCreated,
		ForRole:  member.RoleMember,
		MemberID: a.MemberID,
		Payload:  payload,
	}
}

func normalizeDates(dates []calendar.Date) ([]calendar.Date, error) {
	if len(dates) == 0 {
		return nil, ErrInvalidDates
	}
	for _, d := range dates {
		if d.IsZero() {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDates, calendar.ErrInvalidDate)
		}
	}
	return calendar.SortUnique(dates), nil
}

func normalizeSlots(slots []calendar.TimeRange) ([]calendar.TimeRange, error) {
	if len(slots) == 0 {
		return nil, nil
	}
	out := make([]calendar.TimeRange, 0, len(slots))
	for _, slot := range slots {
		if err := slot.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTimeSlot, err)
		}
		out = append(out, slot)
	}
	return out, nil
}

func sameDates(a, b []calendar.Date) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
