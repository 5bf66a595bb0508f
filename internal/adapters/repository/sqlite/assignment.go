package sqlite

import (
	"context"
	"errors"

	"github.com/ogurasousui/teamplan/internal/core/assignment"
	"github.com/ogurasousui/teamplan/internal/core/member"
	"gorm.io/gorm"
)

// AssignmentRepository は gorm と SQLite を利用した割り当てボードの実装です。
type AssignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository は assignments テーブルをマイグレーションして AssignmentRepository を生成します。
func NewAssignmentRepository(db *gorm.DB) (*AssignmentRepository, error) {
	if err := db.AutoMigrate(&assignmentRow{}); err != nil {
		return nil, err
	}
	return &AssignmentRepository{db: db}, nil
}

// Create は割り当てを保存します。メンバーが存在しない場合は member.ErrMemberNotFound です。
func (r *AssignmentRepository) Create(ctx context.Context, a *assignment.Assignment) (*assignment.Assignment, error) {
	db := dbFromContext(ctx, r.db)
	if err := memberExists(db, a.MemberID); err != nil {
		return nil, err
	}
	row := toAssignmentRow(a)
	if err := db.Create(&row).Error; err != nil {
		return nil, err
	}
	return row.toEntity()
}

// Update はバージョンが一致する場合のみ割り当てを更新します。
func (r *AssignmentRepository) Update(ctx context.Context, a *assignment.Assignment) (*assignment.Assignment, error) {
	db := dbFromContext(ctx, r.db)
	row := toAssignmentRow(a)
	row.Version = a.Version + 1

	res := db.Model(&assignmentRow{ID: a.ID}).
		Where("version = ?", a.Version).
		Select("*").Omit("id", "member_id", "created_at").
		Updates(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, missingRow(db, &assignmentRow{}, a.ID, assignment.ErrAssignmentNotFound, assignment.ErrVersionConflict)
	}
	return r.FindByID(ctx, a.ID)
}

// Delete は割り当てを削除します。
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	res := dbFromContext(ctx, r.db).Delete(&assignmentRow{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return assignment.ErrAssignmentNotFound
	}
	return nil
}

// FindByID は ID で割り当てを取得します。
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*assignment.Assignment, error) {
	var row assignmentRow
	if err := dbFromContext(ctx, r.db).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, assignment.ErrAssignmentNotFound
		}
		return nil, err
	}
	return row.toEntity()
}

// List は条件に合う割り当てを最初の割り当て日、ID の順に返します。
// Range は first_date と last_date で候補を絞り、個々の日付は読み込み後に判定します。
func (r *AssignmentRepository) List(ctx context.Context, filter assignment.ListFilter) ([]*assignment.Assignment, error) {
	q := dbFromContext(ctx, r.db)
	if filter.MemberID != "" {
		q = q.Where("member_id = ?", filter.MemberID)
	}
	if filter.ProjectID != "" {
		q = q.Where("project_id = ?", filter.ProjectID)
	}
	if filter.PhaseID != "" {
		q = q.Where("phase_id = ?", filter.PhaseID)
	}
	if filter.Range != nil {
		q = q.Where("first_date <= ? AND last_date >= ?", filter.Range.End.String(), filter.Range.Start.String())
	}

	var rows []assignmentRow
	if err := q.Order("first_date, id").Find(&rows).Error; err != nil {
		return nil, err
	}

	assignments := make([]*assignment.Assignment, 0, len(rows))
	for _, row := range rows {
		a, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		if filter.Range != nil && !touches(a, filter) {
			continue
		}
		assignments = append(assignments, a)
	}
	return assignments, nil
}

// CountByMember はメンバーの割り当て件数を返します。
func (r *AssignmentRepository) CountByMember(ctx context.Context, memberID string) (int, error) {
	var n int64
	if err := dbFromContext(ctx, r.db).Model(&assignmentRow{}).Where("member_id = ?", memberID).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

// LockMember はメンバー行に空更新をかけ、SQLite の書き込みロックをトランザクション終了まで保持します。
func (r *AssignmentRepository) LockMember(ctx context.Context, memberID string) error {
	res := dbFromContext(ctx, r.db).Exec(`UPDATE members SET version = version WHERE id = ?`, memberID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return member.ErrMemberNotFound
	}
	return nil
}

func touches(a *assignment.Assignment, filter assignment.ListFilter) bool {
	for _, d := range a.Dates {
		if filter.Range.Contains(d) {
			return true
		}
	}
	return false
}
