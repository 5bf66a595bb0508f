package request

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/teamplan/internal/core/absence"
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

// MemberFinder は申請者を取得します。
type MemberFinder interface {
	GetMember(ctx context.Context, id string) (*member.Member, error)
}

// AbsenceCreator は承認時に不在台帳へ不在を登録します。
type AbsenceCreator interface {
	AddAbsence(ctx context.Context, in absence.AddAbsenceInput) (*absence.Result, error)
}

// MemberLocker は承認処理の間メンバーをロックします。
type MemberLocker interface {
	LockMember(ctx context.Context, memberID string) error
}

// Dispatcher はコミット後にドメインイベントを配信します。
type Dispatcher interface {
	Dispatch(ctx context.Context, events ...notification.Event) ([]*notification.Notification, error)
}

// Service は不在申請ワークフローのユースケースをまとめます。
type Service struct {
	repo       Repository
	members    MemberFinder
	absences   AbsenceCreator
	checker    conflict.Checker
	clock      Clock
	tx         TransactionManager
	locker     MemberLocker
	dispatcher Dispatcher
	newID      func() string
	log        logrus.FieldLogger
}

// UseCase は不在申請ユースケースの公開インターフェースです。
type UseCase interface {
	CreateRequest(ctx context.Context, in CreateRequestInput) (*Outcome, error)
	ApproveRequest(ctx context.Context, id, reviewerID string) (*Outcome, error)
	RejectRequest(ctx context.Context, id, reviewerID, reason string) (*Outcome, error)
	WithdrawRequest(ctx context.Context, id string) error
	DeleteRequest(ctx context.Context, id string) error
	GetRequest(ctx context.Context, id string) (*Request, error)
	ByStatus(ctx context.Context, status *Status) ([]*Request, error)
	ForMember(ctx context.Context, memberID string) ([]*Request, error)
	Pending(ctx context.Context) ([]*Request, error)
	PendingCount(ctx context.Context) (int, error)
}

// Option は Service の任意設定です。
type Option func(*Service)

// WithDispatcher はイベント配信先を設定します。
func WithDispatcher(d Dispatcher) Option {
	return func(s *Service) { s.dispatcher = d }
}

// WithMemberLocker は承認時のメンバーロックを設定します。
func WithMemberLocker(l MemberLocker) Option {
	return func(s *Service) { s.locker = l }
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
func NewService(repo Repository, members MemberFinder, absences AbsenceCreator, checker conflict.Checker, clock Clock, tx TransactionManager, opts ...Option) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	s := &Service{
		repo:     repo,
		members:  members,
		absences: absences,
		checker:  checker,
		clock:    clock,
		tx:       tx,
		newID:    uuid.NewString,
		log:      quiet,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRequestInput は申請作成時の入力です。
type CreateRequestInput struct {
	MemberID  string
	Type      absence.Type
	StartDate calendar.Date
	EndDate   calendar.Date
	IsPartial bool
	Partial   *calendar.TimeRange
	Reason    string
}

// Outcome はワークフロー操作の結果です。Events はコミット後に Dispatcher へ渡されたイベントです。
type Outcome struct {
	Request   *Request
	Absence   *absence.Absence
	Conflicts []conflict.Conflict
	Events    []notification.Event
}

// CreateRequest は審査待ちの申請を作成し、プロジェクトリード向けのイベントを発行します。
// 衝突は割り当てボードと同じ方法で計算されますが参考情報です。
func (s *Service) CreateRequest(ctx context.Context, in CreateRequestInput) (*Outcome, error) {
	memberID := strings.TrimSpace(in.MemberID)
	if memberID == "" {
		return nil, ErrInvalidMemberID
	}
	if !in.Type.Valid() {
		return nil, ErrInvalidType
	}
	rng := calendar.Range{Start: in.StartDate, End: in.EndDate}
	if err := rng.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRange, err)
	}
	if err := rng.ValidateLength(calendar.MaxRangeDays); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRangeTooLong, err)
	}
	partial, err := normalizePartial(in.IsPartial, in.Partial)
	if err != nil {
		return nil, err
	}

	var out Outcome
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		m, err := s.members.GetMember(txCtx, memberID)
		if err != nil {
			return err
		}
		conflicts, err := s.checker.CheckConflicts(txCtx, memberID, rng.Days(), "")
		if err != nil {
			return err
		}

		now := s.clock.Now()
		created, err := s.repo.Create(txCtx, &Request{
			ID:        s.newID(),
			MemberID:  memberID,
			Type:      in.Type,
			StartDate: in.StartDate,
			EndDate:   in.EndDate,
			IsPartial: in.IsPartial,
			Partial:   partial,
			Reason:    strings.TrimSpace(in.Reason),
			Status:    StatusPending,
			CreatedAt: now,
			UpdatedAt: now,
			Version:   1,
		})
		if err != nil {
			return err
		}

		payload := requestPayload(created)
		payload["member_name"] = m.Name
		out = Outcome{
			Request:   created,
			Conflicts: conflicts,
			Events: []notification.Event{{
				Type:      notification.TypeAbsenceRequestNew,
				ForRole:   member.RoleProjectLead,
				RequestID: created.ID,
				Payload:   payload,
			}},
		}
		return nil
	}); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"request_id": out.Request.ID, "member_id": memberID}).Info("absence request created")
	s.dispatch(ctx, out.Events)
	return &out, nil
}

// ApproveRequest は審査待ちの申請を承認し、同じトランザクションで対応する不在を登録します。
// 審査待ち以外の申請に対しては何もせず nil を返します。
func (s *Service) ApproveRequest(ctx context.Context, id, reviewerID string) (*Outcome, error) {
	reviewer, err := validateReview(id, reviewerID)
	if err != nil {
		return nil, err
	}

	var out *Outcome
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		req, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if !req.IsPending() {
			return nil
		}
		if s.locker != nil {
			if err := s.locker.LockMember(txCtx, req.MemberID); err != nil {
				return err
			}
		}

		added, err := s.absences.AddAbsence(txCtx, absence.AddAbsenceInput{
			MemberID:  req.MemberID,
			Type:      req.Type,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			IsPartial: req.IsPartial,
			Partial:   req.Partial,
			Note:      req.Reason,
			RequestID: req.ID,
		})
		if err != nil {
			return fmt.Errorf("request: create absence: %w", err)
		}

		now := s.clock.Now()
		req.Status = StatusApproved
		req.ReviewedBy = reviewer
		req.ReviewedAt = &now
		req.AbsenceID = added.Absence.ID
		req.UpdatedAt = now
		updated, err := s.repo.Update(txCtx, req)
		if err != nil {
			return err
		}

		out = &Outcome{
			Request:   updated,
			Absence:   added.Absence,
			Conflicts: added.Warnings,
			Events: []notification.Event{{
				Type:      notification.TypeAbsenceRequestApproved,
				ForRole:   member.RoleMember,
				MemberID:  updated.MemberID,
				RequestID: updated.ID,
				Payload:   requestPayload(updated),
			}},
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if out == nil {
		s.log.WithField("request_id", id).Debug("approve ignored for non-pending request")
		return nil, nil
	}

	s.log.WithFields(logrus.Fields{
		"request_id": id,
		"absence_id": out.Absence.ID,
		"reviewer":   reviewer,
	}).Info("absence request approved")
	s.dispatch(ctx, out.Events)
	return out, nil
}

// RejectRequest は審査待ちの申請を却下します。審査待ち以外の申請に対しては何もせず nil を返します。
func (s *Service) RejectRequest(ctx context.Context, id, reviewerID, reason string) (*Outcome, error) {
	reviewer, err := validateReview(id, reviewerID)
	if err != nil {
		return nil, err
	}

	var out *Outcome
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		req, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if !req.IsPending() {
			return nil
		}

		now := s.clock.Now()
		req.Status = StatusRejected
		req.ReviewedBy = reviewer
		req.ReviewedAt = &now
		req.RejectionReason = strings.TrimSpace(reason)
		req.UpdatedAt = now
		updated, err := s.repo.Update(txCtx, req)
		if err != nil {
			return err
		}

		payload := requestPayload(updated)
		if updated.RejectionReason != "" {
			payload["rejection_reason"] = updated.RejectionReason
		}
		out = &Outcome{
			Request: updated,
			Events: []notification.Event{{
				Type:      notification.TypeAbsenceRequestRejected,
				ForRole:   member.RoleMember,
				MemberID:  updated.MemberID,
				RequestID: updated.ID,
				Payload:   payload,
			}},
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if out == nil {
		s.log.WithField("request_id", id).Debug("reject ignored for non-pending request")
		return nil, nil
	}

	s.log.WithFields(logrus.Fields{"request_id": id, "reviewer": reviewer}).Info("absence request rejected")
	s.dispatch(ctx, out.Events)
	return out, nil
}

// WithdrawRequest は審査待ちの申請を完全に削除します。審査済みの申請は ErrInvalidState です。
func (s *Service) WithdrawRequest(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		req, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if !req.IsPending() {
			return fmt.Errorf("%w: cannot withdraw %s request", ErrInvalidState, req.Status)
		}
		return s.repo.Delete(txCtx, id)
	}); err != nil {
		return err
	}
	s.log.WithField("request_id", id).Info("absence request withdrawn")
	return nil
}

// DeleteRequest は審査済みの申請を削除します。承認で生成された不在は削除しません。
// 審査待ちの申請は WithdrawRequest で取り下げる必要があります。
func (s *Service) DeleteRequest(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		req, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if req.IsPending() {
			return fmt.Errorf("%w: pending requests must be withdrawn", ErrInvalidState)
		}
		return s.repo.Delete(txCtx, id)
	}); err != nil {
		return err
	}
	s.log.WithField("request_id", id).Info("absence request deleted")
	return nil
}

// GetRequest は申請を取得します。
func (s *Service) GetRequest(ctx context.Context, id string) (*Request, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}
	var result *Request
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

// ByStatus は状態で絞り込んだ申請を返します。status が nil の場合はすべてです。
func (s *Service) ByStatus(ctx context.Context, status *Status) ([]*Request, error) {
	if status != nil && !status.Valid() {
		return nil, ErrInvalidStatus
	}
	return s.list(ctx, ListFilter{Status: status})
}

// ForMember はメンバーの申請を返します。
func (s *Service) ForMember(ctx context.Context, memberID string) ([]*Request, error) {
	id := strings.TrimSpace(memberID)
	if id == "" {
		return nil, ErrInvalidMemberID
	}
	return s.list(ctx, ListFilter{MemberID: id})
}

// Pending は審査待ちの申請を返します。
func (s *Service) Pending(ctx context.Context) ([]*Request, error) {
	status := StatusPending
	return s.list(ctx, ListFilter{Status: &status})
}

// PendingCount は審査待ちの申請数を返します。
func (s *Service) PendingCount(ctx context.Context) (int, error) {
	status := StatusPending
	var count int
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		n, err := s.repo.Count(txCtx, ListFilter{Status: &status})
		if err != nil {
			return err
		}
		count = n
		return nil
	}); err != nil {
		return 0, err
	}
	return count, nil
}

// RemindPending は審査待ちの申請があればプロジェクトリード向けのリマインダーを発行し、その件数を返します。
func (s *Service) RemindPending(ctx context.Context) (int, error) {
	count, err := s.PendingCount(ctx)
	if err != nil || count == 0 {
		return count, err
	}
	s.dispatch(ctx, []notification.Event{{
		Type:    notification.TypeAbsenceRequestReminder,
		ForRole: member.RoleProjectLead,
		Payload: map[string]string{"pending_count": strconv.Itoa(count)},
	}})
	return count, nil
}

func (s *Service) list(ctx context.Context, filter ListFilter) ([]*Request, error) {
	var result []*Request
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

// dispatch はコミット済みの操作のイベントを配信します。配信の失敗は操作自体を失敗させません。
func (s *Service) dispatch(ctx context.Context, events []notification.Event) {
	if s.dispatcher == nil || len(events) == 0 {
		return
	}
	if _, err := s.dispatcher.Dispatch(ctx, events...); err != nil {
		s.log.WithError(err).WithField("events", len(events)).Warn("failed to dispatch request events")
	}
}

func validateReview(id, reviewerID string) (string, error) {
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("id: %w", ErrInvalidID)
	}
	reviewer := strings.TrimSpace(reviewerID)
	if reviewer == "" {
		return "", ErrInvalidReviewer
	}
	return reviewer, nil
}

func normalizePartial(isPartial bool, partial *calendar.TimeRange) (*calendar.TimeRange, error) {
	if partial == nil {
		return nil, nil
	}
	if !isPartial {
		return nil, fmt.Errorf("%w: time range requires the partial flag", ErrInvalidPartialHours)
	}
	if err := partial.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPartialHours, err)
	}
	c := *partial
	return &c, nil
}

func requestPayload(r *Request) map[string]string {
	return map[string]string{
		"member_id":  r.MemberID,
		"type":       string(r.Type),
		"start_date": r.StartDate.String(),
		"end_date":   r.EndDate.String(),
	}
}
