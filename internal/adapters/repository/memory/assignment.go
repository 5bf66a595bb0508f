package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/ogurasousui/teamplan/internal/core/assignment"
	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/member"
)

// AssignmentRepository はメモリ上の割り当てボードの実装です。
type AssignmentRepository struct {
	store *Store
}

// NewAssignmentRepository は AssignmentRepository を生成します。
func NewAssignmentRepository(store *Store) *AssignmentRepository {
	return &AssignmentRepository{store: store}
}

// Create は割り当てを保存します。メンバーが存在しない場合は member.ErrMemberNotFound です。
func (r *AssignmentRepository) Create(ctx context.Context, a *assignment.Assignment) (*assignment.Assignment, error) {
	var created *assignment.Assignment
	err := r.store.write(ctx, func() error {
		if _, ok := r.store.members[a.MemberID]; !ok {
			return member.ErrMemberNotFound
		}
		if _, ok := r.store.assignments[a.ID]; ok {
			return fmt.Errorf("memory: duplicate assignment id %s", a.ID)
		}
		r.store.assignments[a.ID] = a.Clone()
		created = a.Clone()
		return nil
	})
	return created, err
}

// Update はバージョンが一致する場合のみ割り当てを更新します。
func (r *AssignmentRepository) Update(ctx context.Context, a *assignment.Assignment) (*assignment.Assignment, error) {
	var updated *assignment.Assignment
	err := r.store.write(ctx, func() error {
		stored, ok := r.store.assignments[a.ID]
		if !ok {
			return assignment.ErrAssignmentNotFound
		}
		if stored.Version != a.Version {
			return assignment.ErrVersionConflict
		}
		next := a.Clone()
		next.Version++
		r.store.assignments[a.ID] = next
		updated = next.Clone()
		return nil
	})
	return updated, err
}

// Delete は割り当てを削除します。
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	return r.store.write(ctx, func() error {
		if _, ok := r.store.assignments[id]; !ok {
			return assignment.ErrAssignmentNotFound
		}
		delete(r.store.assignments, id)
		return nil
	})
}

// FindByID は ID で割り当てを取得します。
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*assignment.Assignment, error) {
	var found *assignment.Assignment
	r.store.read(ctx, func() {
		found = r.store.assignments[id].Clone()
	})
	if found == nil {
		return nil, assignment.ErrAssignmentNotFound
	}
	return found, nil
}

// List は条件に合う割り当てを最初の割り当て日、ID の順に返します。
func (r *AssignmentRepository) List(ctx context.Context, filter assignment.ListFilter) ([]*assignment.Assignment, error) {
	var result []*assignment.Assignment
	r.store.read(ctx, func() {
		for _, a := range r.store.assignments {
			if matchesAssignment(a, filter) {
				result = append(result, a.Clone())
			}
		}
	})
	sort.Slice(result, func(i, j int) bool {
		if c := firstDate(result[i]).Compare(firstDate(result[j])); c != 0 {
			return c < 0
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// CountByMember はメンバーの割り当て件数を返します。
func (r *AssignmentRepository) CountByMember(ctx context.Context, memberID string) (int, error) {
	n := 0
	r.store.read(ctx, func() {
		for _, a := range r.store.assignments {
			if a.MemberID == memberID {
				n++
			}
		}
	})
	return n, nil
}

// LockMember はメンバーの存在だけを確認します。読み書きトランザクション中はストア全体が排他ロックされているため、追加のロックは不要です。
func (r *AssignmentRepository) LockMember(ctx context.Context, memberID string) error {
	var ok bool
	r.store.read(ctx, func() {
		_, ok = r.store.members[memberID]
	})
	if !ok {
		return member.ErrMemberNotFound
	}
	return nil
}

func matchesAssignment(a *assignment.Assignment, filter assignment.ListFilter) bool {
	if filter.MemberID != "" && a.MemberID != filter.MemberID {
		return false
	}
	if filter.ProjectID != "" && a.ProjectID != filter.ProjectID {
		return false
	}
	if filter.PhaseID != "" && a.PhaseID != filter.PhaseID {
		return false
	}
	if filter.Range != nil {
		for _, d := range a.Dates {
			if filter.Range.Contains(d) {
				return true
			}
		}
		return false
	}
	return true
}

func firstDate(a *assignment.Assignment) calendar.Date {
	if len(a.Dates) == 0 {
		return calendar.Date{}
	}
	return a.Dates[0]
}
