package agency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/permission"
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

// Defaults は保存された設定がないエージェンシーに使う既定値です。通常は設定ファイルから渡されます。
type Defaults struct {
	WorkingDays        calendar.WeekdaySet
	WorkingHours       calendar.TimeRange
	HolidayRegion      string
	PermissionDefaults permission.Overrides
}

// Service はエージェンシー設定のユースケースをまとめます。
type Service struct {
	repo     Repository
	clock    Clock
	tx       TransactionManager
	fallback Defaults

	mu       sync.Mutex
	holidays map[string]*calendar.HolidayCalendar
}

// UseCase はエージェンシー設定ユースケースの公開インターフェースです。
type UseCase interface {
	GetSettings(ctx context.Context, agencyID string) (*Settings, error)
	UpdateSettings(ctx context.Context, in UpdateSettingsInput) (*Settings, error)
	SetPermissionDefault(ctx context.Context, agencyID string, key permission.Key, value bool) (*Settings, error)
	ClearPermissionDefault(ctx context.Context, agencyID string, key permission.Key) (*Settings, error)
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager, fallback Defaults) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	if fallback.WorkingDays.IsEmpty() {
		fallback.WorkingDays = calendar.DefaultWorkingDays
	}
	if fallback.WorkingHours.IsZero() {
		fallback.WorkingHours = calendar.DefaultWorkingHours
	}
	return &Service{
		repo:     repo,
		clock:    clock,
		tx:       tx,
		fallback: fallback,
		holidays: make(map[string]*calendar.HolidayCalendar),
	}
}

// UpdateSettingsInput は設定更新時の入力です。nil の項目は変更しません。
type UpdateSettingsInput struct {
	AgencyID        string
	ExpectedVersion *int64
	WorkingDays     *calendar.WeekdaySet
	WorkingHours    *calendar.TimeRange
	HolidayRegion   *string
}

// GetSettings は保存済みの設定を返します。未保存の場合は既定値から組み立てた設定 (Version 0) を返します。
func (s *Service) GetSettings(ctx context.Context, agencyID string) (*Settings, error) {
	id, err := normalizeAgencyID(agencyID)
	if err != nil {
		return nil, err
	}

	var result *Settings
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.load(txCtx, id)
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

// UpdateSettings は勤務テンプレートと祝日地域を更新します。
func (s *Service) UpdateSettings(ctx context.Context, in UpdateSettingsInput) (*Settings, error) {
	return s.mutate(ctx, in.AgencyID, in.ExpectedVersion, func(existing *Settings) error {
		if in.WorkingDays != nil {
			if in.WorkingDays.IsEmpty() {
				return ErrInvalidWorkingDays
			}
			existing.WorkingDays = *in.WorkingDays
		}
		if in.WorkingHours != nil {
			if err := in.WorkingHours.Validate(); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidWorkingHours, err)
			}
			existing.WorkingHours = *in.WorkingHours
		}
		if in.HolidayRegion != nil {
			region := strings.ToUpper(strings.TrimSpace(*in.HolidayRegion))
			if _, err := calendar.NewHolidayCalendar(region); err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidHolidayRegion, err)
			}
			existing.HolidayRegion = region
		}
		return nil
	})
}

// SetPermissionDefault はエージェンシー既定の権限値を設定します。
func (s *Service) SetPermissionDefault(ctx context.Context, agencyID string, key permission.Key, value bool) (*Settings, error) {
	if _, err := permission.ParseKey(string(key)); err != nil {
		return nil, err
	}
	return s.mutate(ctx, agencyID, nil, func(existing *Settings) error {
		if existing.PermissionDefaults == nil {
			existing.PermissionDefaults = permission.Overrides{}
		}
		existing.PermissionDefaults[key] = value
		return nil
	})
}

// ClearPermissionDefault はエージェンシー既定の権限値を削除し、システム既定値へフォールバックさせます。
func (s *Service) ClearPermissionDefault(ctx context.Context, agencyID string, key permission.Key) (*Settings, error) {
	return s.mutate(ctx, agencyID, nil, func(existing *Settings) error {
		delete(existing.PermissionDefaults, key)
		return nil
	})
}

// ScheduleDefaults はメンバー作成時に使う勤務テンプレートを返します。
func (s *Service) ScheduleDefaults(ctx context.Context, agencyID string) (calendar.WeekdaySet, calendar.TimeRange, error) {
	settings, err := s.GetSettings(ctx, agencyID)
	if err != nil {
		return 0, calendar.TimeRange{}, err
	}
	return settings.WorkingDays, settings.WorkingHours, nil
}

// PermissionDefaults はエージェンシー既定の権限上書きを返します。
func (s *Service) PermissionDefaults(ctx context.Context, agencyID string) (permission.Overrides, error) {
	settings, err := s.GetSettings(ctx, agencyID)
	if err != nil {
		return nil, err
	}
	return settings.PermissionDefaults, nil
}

// HolidayCalendar はエージェンシーの祝日カレンダーを返します。地域が未設定なら nil です。
func (s *Service) HolidayCalendar(ctx context.Context, agencyID string) (*calendar.HolidayCalendar, error) {
	settings, err := s.GetSettings(ctx, agencyID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if hc, ok := s.holidays[settings.HolidayRegion]; ok {
		return hc, nil
	}
	hc, err := calendar.NewHolidayCalendar(settings.HolidayRegion)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHolidayRegion, err)
	}
	s.holidays[settings.HolidayRegion] = hc
	return hc, nil
}

func (s *Service) mutate(ctx context.Context, agencyID string, expectedVersion *int64, apply func(*Settings) error) (*Settings, error) {
	id, err := normalizeAgencyID(agencyID)
	if err != nil {
		return nil, err
	}

	var saved *Settings
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.load(txCtx, id)
		if err != nil {
			return err
		}
		if expectedVersion != nil && *expectedVersion != existing.Version {
			return ErrVersionConflict
		}
		if err := apply(existing); err != nil {
			return err
		}
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Save(txCtx, existing)
		if err != nil {
			return err
		}
		saved = result
		return nil
	}); err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *Service) load(ctx context.Context, agencyID string) (*Settings, error) {
	found, err := s.repo.Find(ctx, agencyID)
	if err == nil {
		return found, nil
	}
	if !errors.Is(err, ErrSettingsNotFound) {
		return nil, err
	}
	return &Settings{
		AgencyID:           agencyID,
		WorkingDays:        s.fallback.WorkingDays,
		WorkingHours:       s.fallback.WorkingHours,
		HolidayRegion:      strings.ToUpper(strings.TrimSpace(s.fallback.HolidayRegion)),
		PermissionDefaults: s.fallback.PermissionDefaults.Clone(),
	}, nil
}

func normalizeAgencyID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidAgencyID
	}
	return trimmed, nil
}
