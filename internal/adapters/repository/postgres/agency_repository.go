package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/ogurasousui/teamplan/internal/core/agency"
	"github.com/ogurasousui/teamplan/internal/core/calendar"
	pgdb "github.com/ogurasousui/teamplan/internal/platform/db/postgres"
)

const agencySettingsColumns = `agency_id, working_days, work_start, work_end, holiday_region, permission_defaults, updated_at, version`

// AgencySettingsRepository は PostgreSQL を利用したエージェンシー設定永続化の実装です。
type AgencySettingsRepository struct {
	pool pgdb.Queryer
}

// NewAgencySettingsRepository は AgencySettingsRepository を生成します。
func NewAgencySettingsRepository(pool pgdb.Queryer) *AgencySettingsRepository {
	return &AgencySettingsRepository{pool: pool}
}

// Find は設定を取得します。
func (r *AgencySettingsRepository) Find(ctx context.Context, agencyID string) (*agency.Settings, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+agencySettingsColumns+`
          FROM agency_settings
         WHERE agency_id = $1
    `, agencyID)

	found, err := scanAgencySettings(row)
	if err != nil {
		return nil, translateAgencyPgError(err)
	}
	return found, nil
}

// Save は Version が 0 なら新規作成し、それ以外はバージョンが一致する場合のみ更新します。
func (r *AgencySettingsRepository) Save(ctx context.Context, s *agency.Settings) (*agency.Settings, error) {
	defaults, err := encodeOverrides(s.PermissionDefaults)
	if err != nil {
		return nil, err
	}
	if defaults == nil {
		defaults = []byte("{}")
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var row pgx.Row
	if s.Version == 0 {
		row = exec.QueryRow(ctx, `
        INSERT INTO agency_settings (`+agencySettingsColumns+`)
        VALUES ($1, $2, $3, $4, $5, $6, $7, 1)
        RETURNING `+agencySettingsColumns+`
    `,
			s.AgencyID,
			int16(s.WorkingDays),
			int16(s.WorkingHours.Start),
			int16(s.WorkingHours.End),
			s.HolidayRegion,
			defaults,
			s.UpdatedAt,
		)
	} else {
		row = exec.QueryRow(ctx, `
        UPDATE agency_settings
           SET working_days = $1,
               work_start = $2,
               work_end = $3,
               holiday_region = $4,
               permission_defaults = $5,
               updated_at = $6,
               version = version + 1
         WHERE agency_id = $7 AND version = $8
        RETURNING `+agencySettingsColumns+`
    `,
			int16(s.WorkingDays),
			int16(s.WorkingHours.Start),
			int16(s.WorkingHours.End),
			s.HolidayRegion,
			defaults,
			s.UpdatedAt,
			s.AgencyID,
			s.Version,
		)
	}

	saved, err := scanAgencySettings(row)
	if errors.Is(err, agency.ErrSettingsNotFound) {
		return nil, agency.ErrVersionConflict
	}
	if err != nil {
		return nil, translateAgencyPgError(err)
	}
	return saved, nil
}

func scanAgencySettings(row pgx.Row) (*agency.Settings, error) {
	var (
		s           agency.Settings
		workingDays int16
		workStart   int16
		workEnd     int16
		defaults    []byte
		updatedAt   time.Time
	)

	if err := row.Scan(
		&s.AgencyID,
		&workingDays,
		&workStart,
		&workEnd,
		&s.HolidayRegion,
		&defaults,
		&updatedAt,
		&s.Version,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, agency.ErrSettingsNotFound
		}
		return nil, err
	}

	decoded, err := decodeOverrides(defaults)
	if err != nil {
		return nil, err
	}
	s.WorkingDays = calendar.WeekdaySet(workingDays)
	s.WorkingHours = calendar.TimeRange{Start: calendar.TimeOfDay(workStart), End: calendar.TimeOfDay(workEnd)}
	s.PermissionDefaults = decoded
	s.UpdatedAt = updatedAt.UTC()
	return &s, nil
}

func translateAgencyPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return agency.ErrSettingsNotFound
	}
	if pgErr, ok := asPgError(err); ok {
		switch pgErr.Code {
		case uniqueViolationCode:
			return agency.ErrVersionConflict
		case checkViolationCode:
			return agency.ErrInvalidWorkingHours
		}
	}
	return err
}
