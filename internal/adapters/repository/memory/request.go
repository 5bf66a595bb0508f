package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/ogurasousui/teamplan/internal/core/member"
	"github.com/ogurasousui/teamplan/internal/core/request"
)

// RequestRepository はメモリ上の不在申請の実装です。
type RequestRepository struct {
	store *Store
}

// NewRequestRepository は RequestRepository を生成します。
func NewRequestRepository(store *Store) *RequestRepository {
	return &RequestRepository{store: store}
}

// Create は申請を保存します。
func (r *RequestRepository) Create(ctx context.Context, req *request.Request) (*request.Request, error) {
	var created *request.Request
	err := r.store.write(ctx, func() error {
		if _, ok := r.store.members[req.MemberID]; !ok {
			return member.ErrMemberNotFound
		}
		if _, ok := r.store.requests[req.ID]; ok {
			return fmt.Errorf("memory: duplicate request id %s", req.ID)
		}
		r.store.requests[req.ID] = req.Clone()
		created = req.Clone()
		return nil
	})
	return created, err
}

// Update はバージョンが一致する場合のみ申請を更新します。
func (r *RequestRepository) Update(ctx context.Context, req *request.Request) (*request.Request, error) {
	var updated *request.Request
	err := r.store.write(ctx, func() error {
		stored, ok := r.store.requests[req.ID]
		if !ok {
			return request.ErrRequestNotFound
		}
		if stored.Version != req.Version {
			return request.ErrVersionConflict
		}
		next := req.Clone()
		next.Version++
		r.store.requests[req.ID] = next
		updated = next.Clone()
		return nil
	})
	return updated, err
}

// Delete は申請を削除します。
func (r *RequestRepository) Delete(ctx context.Context, id string) error {
	return r.store.write(ctx, func() error {
		if _, ok := r.store.requests[id]; !ok {
			return request.ErrRequestNotFound
		}
		delete(r.store.requests, id)
		return nil
	})
}

// FindByID は ID で申請を取得します。
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*request.Request, error) {
	var found *request.Request
	r.store.read(ctx, func() {
		found = r.store.requests[id].Clone()
	})
	if found == nil {
		return nil, request.ErrRequestNotFound
	}
	return found, nil
}

// List は条件に合う申請を作成日時、ID の順に返します。
func (r *RequestRepository) List(ctx context.Context, filter request.ListFilter) ([]*request.Request, error) {
	var result []*request.Request
	r.store.read(ctx, func() {
		for _, req := range r.store.requests {
			if matchesRequest(req, filter) {
				result = append(result, req.Clone())
			}
		}
	})
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// Count は条件に合う申請の件数を返します。
func (r *RequestRepository) Count(ctx context.Context, filter request.ListFilter) (int, error) {
	n := 0
	r.store.read(ctx, func() {
		for _, req := range r.store.requests {
			if matchesRequest(req, filter) {
				n++
			}
		}
	})
	return n, nil
}

func matchesRequest(req *request.Request, filter request.ListFilter) bool {
	if filter.MemberID != "" && req.MemberID != filter.MemberID {
		return false
	}
	if filter.Status != nil && req.Status != *filter.Status {
		return false
	}
	return true
}
