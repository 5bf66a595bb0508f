package sqlite

import (
	"context"
	"errors"

	"github.com/ogurasousui/teamplan/internal/core/request"
	"gorm.io/gorm"
)

// RequestRepository は gorm と SQLite を利用した不在申請の実装です。
type RequestRepository struct {
	db *gorm.DB
}

// NewRequestRepository は absence_requests テーブルをマイグレーションして RequestRepository を生成します。
func NewRequestRepository(db *gorm.DB) (*RequestRepository, error) {
	if err := db.AutoMigrate(&requestRow{}); err != nil {
		return nil, err
	}
	return &RequestRepository{db: db}, nil
}

// Create は申請を保存します。
func (r *RequestRepository) Create(ctx context.Context, req *request.Request) (*request.Request, error) {
	db := dbFromContext(ctx, r.db)
	if err := memberExists(db, req.MemberID); err != nil {
		return nil, err
	}
	row := toRequestRow(req)
	if err := db.Create(&row).Error; err != nil {
		return nil, err
	}
	return row.toEntity()
}

// Update はバージョンが一致する場合のみ申請を更新します。
func (r *RequestRepository) Update(ctx context.Context, req *request.Request) (*request.Request, error) {
	db := dbFromContext(ctx, r.db)
	row := toRequestRow(req)
	row.Version = req.Version + 1

	res := db.Model(&requestRow{ID: req.ID}).
		Where("version = ?", req.Version).
		Select("*").Omit("id", "member_id", "created_at").
		Updates(&row)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, missingRow(db, &requestRow{}, req.ID, request.ErrRequestNotFound, request.ErrVersionConflict)
	}
	return r.FindByID(ctx, req.ID)
}

// Delete は申請を削除します。
func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	res := dbFromContext(ctx, r.db).Delete(&requestRow{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return request.ErrRequestNotFound
	}
	return nil
}

// FindByID は ID で申請を取得します。
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*request.Request, error) {
	var row requestRow
	if err := dbFromContext(ctx, r.db).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, request.ErrRequestNotFound
		}
		return nil, err
	}
	return row.toEntity()
}

// List は条件に合う申請を作成日時、ID の順に返します。
func (r *RequestRepository) List(ctx context.Context, filter request.ListFilter) ([]*request.Request, error) {
	var rows []requestRow
	if err := r.filtered(ctx, filter).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}

	requests := make([]*request.Request, 0, len(rows))
	for _, row := range rows {
		req, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}

// Count は条件に合う申請の件数を返します。
func (r *RequestRepository) Count(ctx context.Context, filter request.ListFilter) (int, error) {
	var n int64
	if err := r.filtered(ctx, filter).Model(&requestRow{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *RequestRepository) filtered(ctx context.Context, filter request.ListFilter) *gorm.DB {
	q := dbFromContext(ctx, r.db)
	if filter.MemberID != "" {
		q = q.Where("member_id = ?", filter.MemberID)
	}
	if filter.Status != nil {
		q = q.Where("status = ?", string(*filter.Status))
	}
	return q
}
