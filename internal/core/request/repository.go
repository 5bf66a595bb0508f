package request

import "context"

// Repository は不在申請の永続化の抽象です。
//
// Update は保存済みのバージョンが r.Version と一致する場合のみ更新し、
// バージョンを 1 進めたエンティティを返します。
// List は作成日時、ID の順に並べて返します。
type Repository interface {
	Create(ctx context.Context, r *Request) (*Request, error)
	Update(ctx context.Context, r *Request) (*Request, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (*Request, error)
	List(ctx context.Context, filter ListFilter) ([]*Request, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
}

// ListFilter は一覧取得用フィルタです。ゼロ値の項目は絞り込みに使いません。
type ListFilter struct {
	MemberID string
	Status   *Status
}
