package member

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/permission"
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

// Service はメンバー登録簿のユースケースをまとめます。
type Service struct {
	repo     Repository
	clock    Clock
	tx       TransactionManager
	refs     []ReferenceCounter
	defaults DefaultsProvider
	newID    func() string
	log      logrus.FieldLogger
}

// UseCase はメンバーユースケースの公開インターフェースです。
type UseCase interface {
	CreateMember(ctx context.Context, in CreateMemberInput) (*Member, error)
	UpdateMember(ctx context.Context, in UpdateMemberInput) (*Member, error)
	DeactivateMember(ctx context.Context, id string) (*Member, error)
	ReactivateMember(ctx context.Context, id string) (*Member, error)
	DeleteMember(ctx context.Context, id string) error
	GetMember(ctx context.Context, id string) (*Member, error)
	ListActive(ctx context.Context, agencyID string) ([]*Member, error)
	ListByRole(ctx context.Context, agencyID string, role Role) ([]*Member, error)
	ListByProfession(ctx context.Context, agencyID, profession string) ([]*Member, error)
	Search(ctx context.Context, agencyID, query string) ([]*Member, error)
	SetPermissionOverride(ctx context.Context, id string, key permission.Key, value bool) (*Member, error)
	ClearPermissionOverride(ctx context.Context, id string, key permission.Key) (*Member, error)
}

// Option は Service の任意設定です。
type Option func(*Service)

// WithReferenceCounters は削除時に参照を確認するカウンタを設定します。
func WithReferenceCounters(counters ...ReferenceCounter) Option {
	return func(s *Service) { s.refs = append(s.refs, counters...) }
}

// WithDefaults はエージェンシー既定の勤務テンプレート提供元を設定します。
func WithDefaults(p DefaultsProvider) Option {
	return func(s *Service) { s.defaults = p }
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
func NewService(repo Repository, clock Clock, tx TransactionManager, opts ...Option) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	s := &Service{repo: repo, clock: clock, tx: tx, newID: uuid.NewString, log: quiet}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateMemberInput はメンバー作成時の入力です。WorkingDays と WorkingHours は省略するとエージェンシー既定値になります。
type CreateMemberInput struct {
	AgencyID            string
	Name                string
	Email               string
	Phone               string
	Position            string
	Professions         []string
	Skills              []string
	EmploymentType      EmploymentType
	WorkingDays         *calendar.WeekdaySet
	WorkingHours        *calendar.TimeRange
	Role                Role
	PermissionOverrides permission.Overrides
}

// UpdateMemberInput はメンバー更新時の入力です。nil の項目は変更しません。
type UpdateMemberInput struct {
	ID                  string
	ExpectedVersion     *int64
	Name                *string
	Email               *string
	Phone               *string
	Position            *string
	Professions         *[]string
	Skills              *[]string
	EmploymentType      *EmploymentType
	WorkingDays         *calendar.WeekdaySet
	WorkingHours        *calendar.TimeRange
	Role                *Role
	PermissionOverrides *permission.Overrides
}

// CreateMember は新しいメンバーを作成します。
func (s *Service) CreateMember(ctx context.Context, in CreateMemberInput) (*Member, error) {
	agencyID := strings.TrimSpace(in.AgencyID)
	if agencyID == "" {
		return nil, ErrInvalidAgencyID
	}
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	role := RoleMember
	if in.Role != "" {
		if !isValidRole(in.Role) {
			return nil, ErrInvalidRole
		}
		role = in.Role
	}

	employment := EmploymentFullTime
	if in.EmploymentType != "" {
		if !isValidEmploymentType(in.EmploymentType) {
			return nil, ErrInvalidEmploymentType
		}
		employment = in.EmploymentType
	}

	var created *Member
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		days, hours, err := s.scheduleDefaults(txCtx, agencyID)
		if err != nil {
			return err
		}
		if in.WorkingDays != nil {
			days = *in.WorkingDays
		}
		if in.WorkingHours != nil {
			hours = *in.WorkingHours
		}
		if err := validateSchedule(days, hours); err != nil {
			return err
		}

		if err := s.ensureEmailNotExists(txCtx, agencyID, email, ""); err != nil {
			return err
		}

		now := s.clock.Now()
		m := &Member{
			ID:                  s.newID(),
			AgencyID:            agencyID,
			Name:                name,
			Email:               email,
			Phone:               strings.TrimSpace(in.Phone),
			Position:            strings.TrimSpace(in.Position),
			Professions:         normalizeTags(in.Professions),
			Skills:              normalizeTags(in.Skills),
			EmploymentType:      employment,
			WorkingDays:         days,
			WorkingHours:        hours,
			Role:                role,
			PermissionOverrides: in.PermissionOverrides.Clone(),
			IsActive:            true,
			CreatedAt:           now,
			UpdatedAt:           now,
			Version:             1,
		}

		result, err := s.repo.Create(txCtx, m)
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"member_id": created.ID, "agency_id": created.AgencyID}).Info("member created")
	return created, nil
}

// UpdateMember はメンバー情報を更新します。
func (s *Service) UpdateMember(ctx context.Context, in UpdateMemberInput) (*Member, error) {
	return s.mutate(ctx, in.ID, in.ExpectedVersion, func(txCtx context.Context, existing *Member) error {
		if in.Name != nil {
			name, err := normalizeName(*in.Name)
			if err != nil {
				return err
			}
			existing.Name = name
		}
		if in.Email != nil {
			email, err := normalizeEmail(*in.Email)
			if err != nil {
				return err
			}
			if email != existing.Email {
				if err := s.ensureEmailNotExists(txCtx, existing.AgencyID, email, existing.ID); err != nil {
					return err
				}
				existing.Email = email
			}
		}
		if in.Phone != nil {
			existing.Phone = strings.TrimSpace(*in.Phone)
		}
		if in.Position != nil {
			existing.Position = strings.TrimSpace(*in.Position)
		}
		if in.Professions != nil {
			existing.Professions = normalizeTags(*in.Professions)
		}
		if in.Skills != nil {
			existing.Skills = normalizeTags(*in.Skills)
		}
		if in.EmploymentType != nil {
			if !isValidEmploymentType(*in.EmploymentType) {
				return ErrInvalidEmploymentType
			}
			existing.EmploymentType = *in.EmploymentType
		}
		if in.WorkingDays != nil {
			existing.WorkingDays = *in.WorkingDays
		}
		if in.WorkingHours != nil {
			existing.WorkingHours = *in.WorkingHours
		}
		if err := validateSchedule(existing.WorkingDays, existing.WorkingHours); err != nil {
			return err
		}
		if in.Role != nil {
			if !isValidRole(*in.Role) {
				return ErrInvalidRole
			}
			existing.Role = *in.Role
		}
		if in.PermissionOverrides != nil {
			existing.PermissionOverrides = in.PermissionOverrides.Clone()
		}
		return nil
	})
}

// DeactivateMember はメンバーを論理削除します。既に無効な場合はそのまま返します。
func (s *Service) DeactivateMember(ctx context.Context, id string) (*Member, error) {
	return s.setActive(ctx, id, false)
}

// ReactivateMember は無効化されたメンバーを再度有効にします。
func (s *Service) ReactivateMember(ctx context.Context, id string) (*Member, error) {
	return s.setActive(ctx, id, true)
}

// DeleteMember はメンバーを物理削除します。不在または割り当てが残っている場合は ErrReferentialIntegrity を返します。
func (s *Service) DeleteMember(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("id: %w", ErrInvalidID)
	}

	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.FindByID(txCtx, id); err != nil {
			return err
		}

		total := 0
		for _, ref := range s.refs {
			n, err := ref.CountByMember(txCtx, id)
			if err != nil {
				return err
			}
			total += n
		}
		if total > 0 {
			return fmt.Errorf("%w: %d references", ErrReferentialIntegrity, total)
		}

		return s.repo.Delete(txCtx, id)
	}); err != nil {
		return err
	}

	s.log.WithField("member_id", id).Info("member deleted")
	return nil
}

// GetMember はメンバーを取得します。
func (s *Service) GetMember(ctx context.Context, id string) (*Member, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var result *Member
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

// WorkingDays はメンバーの勤務曜日を返します。
func (s *Service) WorkingDays(ctx context.Context, id string) (calendar.WeekdaySet, error) {
	m, err := s.GetMember(ctx, id)
	if err != nil {
		return 0, err
	}
	return m.WorkingDays, nil
}

// ListActive は有効なメンバーを名前順に返します。agencyID が空の場合は全エージェンシーが対象です。
func (s *Service) ListActive(ctx context.Context, agencyID string) ([]*Member, error) {
	return s.list(ctx, ListFilter{AgencyID: strings.TrimSpace(agencyID), Active: boolPtr(true)})
}

// ListByRole は指定した役割の有効なメンバーを返します。
func (s *Service) ListByRole(ctx context.Context, agencyID string, role Role) ([]*Member, error) {
	if !isValidRole(role) {
		return nil, ErrInvalidRole
	}
	return s.list(ctx, ListFilter{AgencyID: strings.TrimSpace(agencyID), Active: boolPtr(true), Role: &role})
}

// ListByProfession は職種を持つ有効なメンバーを返します。職種の比較は大文字小文字を区別しません。
func (s *Service) ListByProfession(ctx context.Context, agencyID, profession string) ([]*Member, error) {
	p := strings.TrimSpace(profession)
	if p == "" {
		return s.ListActive(ctx, agencyID)
	}
	return s.list(ctx, ListFilter{AgencyID: strings.TrimSpace(agencyID), Active: boolPtr(true), Profession: p})
}

// Search は名前・役職・スキル・メールアドレスを大文字小文字を区別せず部分一致で検索します。
// 空のクエリは有効なメンバー全員を返します。
func (s *Service) Search(ctx context.Context, agencyID, query string) ([]*Member, error) {
	active, err := s.ListActive(ctx, agencyID)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return active, nil
	}

	matches := make([]*Member, 0, len(active))
	for _, m := range active {
		if matchesQuery(m, q) {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

// SetPermissionOverride はメンバー個別の権限上書きを設定します。
func (s *Service) SetPermissionOverride(ctx context.Context, id string, key permission.Key, value bool) (*Member, error) {
	if _, err := permission.ParseKey(string(key)); err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, nil, func(_ context.Context, existing *Member) error {
		if existing.PermissionOverrides == nil {
			existing.PermissionOverrides = permission.Overrides{}
		}
		existing.PermissionOverrides[key] = value
		return nil
	})
}

// ClearPermissionOverride はメンバー個別の権限上書きを削除し、上位の階層へフォールバックさせます。
func (s *Service) ClearPermissionOverride(ctx context.Context, id string, key permission.Key) (*Member, error) {
	return s.mutate(ctx, id, nil, func(_ context.Context, existing *Member) error {
		delete(existing.PermissionOverrides, key)
		if len(existing.PermissionOverrides) == 0 {
			existing.PermissionOverrides = nil
		}
		return nil
	})
}

func (s *Service) setActive(ctx context.Context, id string, active bool) (*Member, error) {
	m, err := s.mutate(ctx, id, nil, func(_ context.Context, existing *Member) error {
		existing.IsActive = active
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"member_id": id, "active": active}).Info("member activation changed")
	return m, nil
}

func (s *Service) mutate(ctx context.Context, id string, expectedVersion *int64, apply func(context.Context, *Member) error) (*Member, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}

	var updated *Member
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if expectedVersion != nil && *expectedVersion != existing.Version {
			return ErrVersionConflict
		}
		if err := apply(txCtx, existing); err != nil {
			return err
		}
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) list(ctx context.Context, filter ListFilter) ([]*Member, error) {
	var members []*Member
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.List(txCtx, filter)
		if err != nil {
			return err
		}
		members = found
		return nil
	}); err != nil {
		return nil, err
	}
	sort.SliceStable(members, func(i, j int) bool {
		return strings.ToLower(members[i].Name) < strings.ToLower(members[j].Name)
	})
	return members, nil
}

func (s *Service) scheduleDefaults(ctx context.Context, agencyID string) (calendar.WeekdaySet, calendar.TimeRange, error) {
	if s.defaults == nil {
		return calendar.DefaultWorkingDays, calendar.DefaultWorkingHours, nil
	}
	return s.defaults.ScheduleDefaults(ctx, agencyID)
}

func (s *Service) ensureEmailNotExists(ctx context.Context, agencyID, email, selfID string) error {
	if email == "" {
		return nil
	}
	found, err := s.repo.FindByEmail(ctx, agencyID, email)
	if err != nil && !errors.Is(err, ErrMemberNotFound) {
		return err
	}
	if found != nil && found.ID != selfID {
		return ErrEmailAlreadyExists
	}
	return nil
}

func matchesQuery(m *Member, q string) bool {
	if strings.Contains(strings.ToLower(m.Name), q) ||
		strings.Contains(strings.ToLower(m.Position), q) ||
		strings.Contains(strings.ToLower(m.Email), q) {
		return true
	}
	for _, skill := range m.Skills {
		if strings.Contains(strings.ToLower(skill), q) {
			return true
		}
	}
	return false
}

func normalizeName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidName
	}
	return trimmed, nil
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return "", ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}

func normalizeTags(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, tag := range raw {
		trimmed := strings.TrimSpace(tag)
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

func validateSchedule(days calendar.WeekdaySet, hours calendar.TimeRange) error {
	if days.IsEmpty() {
		return ErrInvalidWorkingDays
	}
	if err := hours.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWorkingHours, err)
	}
	return nil
}

func isValidRole(role Role) bool {
	switch role {
	case RoleProjectLead, RoleMember:
		return true
	default:
		return false
	}
}

func isValidEmploymentType(t EmploymentType) bool {
	switch t {
	case EmploymentFullTime, EmploymentPartTime, EmploymentFreelance, EmploymentIntern:
		return true
	default:
		return false
	}
}

func boolPtr(v bool) *bool {
	return &v
}
