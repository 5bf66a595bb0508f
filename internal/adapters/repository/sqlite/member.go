package sqlite

import (
	"context"
	"errors"
	"strings"

	"github.com/ogurasousui/teamplan/internal/core/member"
	"gorm.io/gorm"
)

// MemberRepository は gorm と SQLite を利用したメンバー永続化の実装です。
type MemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository は members テーブルをマイグレーションして MemberRepository を生成します。
func NewMemberRepository(db *gorm.DB) (*MemberRepository, error) {
	if err := db.AutoMigrate(&memberRow{}); err != nil {
		return nil, err
	}
	return &MemberRepository{db: db}, nil
}

// Create はメンバーを保存します。
func (r *MemberRepository) Create(ctx context.Context, m *member.Member) (*member.Member, error) {
	db := dbFromContext(ctx, r.db)
	if err := r.ensureEmailFree(db, m); err != nil {
		return nil, err
	}
	row := toMemberRow(m)
	if err := db.Create(&row).Error; err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// Update はバージョンが一致する場合のみメンバーを更新します。
func (r *MemberRepository) Update(ctx context.Context, m *member.Member) (*member.Member, error) {
	db := dbFromContext(ctx, r.db)
	if err := r.ensureEmailFree(db, m); err != nil {
		return nil, err
	}

	row := toMemberRow(m)
	row.Version = m.Version + 1
	res := db.Model(&memberRow{ID: m.ID}).
		Where("version = ?", m.Version).
		Select("*").Omit("id", "agency_id", "created_at").
		Updates(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, missingRow(db, &memberRow{}, m.ID, member.ErrMemberNotFound, member.ErrVersionConflict)
	}
	return r.FindByID(ctx, m.ID)
}

// Delete はメンバーを削除します。不在または割り当てが残っている場合は削除しません。
func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	db := dbFromContext(ctx, r.db)
	for _, model := range []any{&absenceRow{}, &assignmentRow{}} {
		var n int64
		if err := db.Model(model).Where("member_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return member.ErrReferentialIntegrity
		}
	}

	res := db.Delete(&memberRow{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return member.ErrMemberNotFound
	}
	return nil
}

// FindByID は ID でメンバーを取得します。
func (r *MemberRepository) FindByID(ctx context.Context, id string) (*member.Member, error) {
	var row memberRow
	if err := dbFromContext(ctx, r.db).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, member.ErrMemberNotFound
		}
		return nil, err
	}
	return row.toEntity(), nil
}

// FindByEmail はエージェンシー内でメールアドレスが一致するメンバーを取得します。
func (r *MemberRepository) FindByEmail(ctx context.Context, agencyID, email string) (*member.Member, error) {
	if email == "" {
		return nil, member.ErrMemberNotFound
	}
	var row memberRow
	err := dbFromContext(ctx, r.db).
		Where("agency_id = ? AND email = ?", agencyID, email).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, member.ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// List は条件に合うメンバーを作成日時、ID の順に返します。
func (r *MemberRepository) List(ctx context.Context, filter member.ListFilter) ([]*member.Member, error) {
	q := dbFromContext(ctx, r.db)
	if filter.AgencyID != "" {
		q = q.Where("agency_id = ?", filter.AgencyID)
	}
	if filter.Active != nil {
		q = q.Where("is_active = ?", *filter.Active)
	}
	if filter.Role != nil {
		q = q.Where("role = ?", string(*filter.Role))
	}

	var rows []memberRow
	if err := q.Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}

	members := make([]*member.Member, 0, len(rows))
	for _, row := range rows {
		if filter.Profession != "" && !hasProfession(row.Professions, filter.Profession) {
			continue
		}
		members = append(members, row.toEntity())
	}
	return members, nil
}

func (r *MemberRepository) ensureEmailFree(db *gorm.DB, m *member.Member) error {
	if m.Email == "" {
		return nil
	}
	var n int64
	err := db.Model(&memberRow{}).
		Where("agency_id = ? AND email = ? AND id <> ?", m.AgencyID, m.Email, m.ID).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return member.ErrEmailAlreadyExists
	}
	return nil
}

func hasProfession(professions []string, want string) bool {
	for _, p := range professions {
		if strings.EqualFold(p, want) {
			return true
		}
	}
	return false
}

// missingRow は version 条件付き更新が 0 行だった理由を判別します。
func missingRow(db *gorm.DB, model any, id string, notFound, conflict error) error {
	var n int64
	if err := db.Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return conflict
	}
	return notFound
}
