package sqlite

import (
	"context"
	"errors"

	"github.com/ogurasousui/teamplan/internal/core/agency"
	"gorm.io/gorm"
)

// AgencySettingsRepository は gorm と SQLite を利用したエージェンシー設定永続化の実装です。
type AgencySettingsRepository struct {
	db *gorm.DB
}

// NewAgencySettingsRepository は agency_settings テーブルをマイグレーションして AgencySettingsRepository を生成します。
func NewAgencySettingsRepository(db *gorm.DB) (*AgencySettingsRepository, error) {
	if err := db.AutoMigrate(&agencySettingsRow{}); err != nil {
		return nil, err
	}
	return &AgencySettingsRepository{db: db}, nil
}

// Find は設定を取得します。
func (r *AgencySettingsRepository) Find(ctx context.Context, agencyID string) (*agency.Settings, error) {
	var row agencySettingsRow
	if err := dbFromContext(ctx, r.db).First(&row, "agency_id = ?", agencyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, agency.ErrSettingsNotFound
		}
		return nil, err
	}
	return row.toEntity(), nil
}

// Save は Version が 0 なら新規作成し、それ以外はバージョンが一致する場合のみ更新します。
func (r *AgencySettingsRepository) Save(ctx context.Context, s *agency.Settings) (*agency.Settings, error) {
	db := dbFromContext(ctx, r.db)
	row := toAgencySettingsRow(s)
	row.Version = s.Version + 1

	if s.Version == 0 {
		if err := db.Create(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, agency.ErrVersionConflict
			}
			return nil, err
		}
		return row.toEntity(), nil
	}

	res := db.Model(&agencySettingsRow{AgencyID: s.AgencyID}).
		Where("version = ?", s.Version).
		Select("*").Omit("agency_id").
		Updates(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, agency.ErrVersionConflict
	}
	return row.toEntity(), nil
}
