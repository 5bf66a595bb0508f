package sqlite

import (
	"context"
	"errors"

	"github.com/ogurasousui/teamplan/internal/core/absence"
	"github.com/ogurasousui/teamplan/internal/core/member"
	"gorm.io/gorm"
)

// AbsenceRepository は gorm と SQLite を利用した不在台帳の実装です。
type AbsenceRepository struct {
	db *gorm.DB
}

// NewAbsenceRepository は absences テーブルをマイグレーションして AbsenceRepository を生成します。
func NewAbsenceRepository(db *gorm.DB) (*AbsenceRepository, error) {
	if err := db.AutoMigrate(&absenceRow{}); err != nil {
		return nil, err
	}
	return &AbsenceRepository{db: db}, nil
}

// Create は不在を保存します。メンバーが存在しない場合は member.ErrMemberNotFound です。
func (r *AbsenceRepository) Create(ctx context.Context, a *absence.Absence) (*absence.Absence, error) {
	db := dbFromContext(ctx, r.db)
	if err := memberExists(db, a.MemberID); err != nil {
		return nil, err
	}
	row := toAbsenceRow(a)
	if err := db.Create(&row).Error; err != nil {
		return nil, err
	}
	return row.toEntity()
}

// Update はバージョンが一致する場合のみ不在を更新します。
func (r *AbsenceRepository) Update(ctx context.Context, a *absence.Absence) (*absence.Absence, error) {
	db := dbFromContext(ctx, r.db)
	row := toAbsenceRow(a)
	row.Version = a.Version + 1

	res := db.Model(&absenceRow{ID: a.ID}).
		Where("version = ?", a.Version).
		Select("*").Omit("id", "member_id", "request_id", "created_at").
		Updates(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, missingRow(db, &absenceRow{}, a.ID, absence.ErrAbsenceNotFound, absence.ErrVersionConflict)
	}
	return r.FindByID(ctx, a.ID)
}

// Delete は不在を削除します。
func (r *AbsenceRepository) Delete(ctx context.Context, id string) error {
	res := dbFromContext(ctx, r.db).Delete(&absenceRow{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return absence.ErrAbsenceNotFound
	}
	return nil
}

// FindByID は ID で不在を取得します。
func (r *AbsenceRepository) FindByID(ctx context.Context, id string) (*absence.Absence, error) {
	var row absenceRow
	if err := dbFromContext(ctx, r.db).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, absence.ErrAbsenceNotFound
		}
		return nil, err
	}
	return row.toEntity()
}

// List は条件に合う不在を開始日、ID の順に返します。
func (r *AbsenceRepository) List(ctx context.Context, filter absence.ListFilter) ([]*absence.Absence, error) {
	q := dbFromContext(ctx, r.db)
	if filter.MemberID != "" {
		q = q.Where("member_id = ?", filter.MemberID)
	}
	if filter.Range != nil {
		q = q.Where("start_date <= ? AND end_date >= ?", filter.Range.End.String(), filter.Range.Start.String())
	}

	var rows []absenceRow
	if err := q.Order("start_date, id").Find(&rows).Error; err != nil {
		return nil, err
	}

	absences := make([]*absence.Absence, 0, len(rows))
	for _, row := range rows {
		a, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		absences = append(absences, a)
	}
	return absences, nil
}

// CountByMember はメンバーの不在件数を返します。
func (r *AbsenceRepository) CountByMember(ctx context.Context, memberID string) (int, error) {
	var n int64
	if err := dbFromContext(ctx, r.db).Model(&absenceRow{}).Where("member_id = ?", memberID).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func memberExists(db *gorm.DB, memberID string) error {
	var n int64
	if err := db.Model(&memberRow{}).Where("id = ?", memberID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return member.ErrMemberNotFound
	}
	return nil
}
