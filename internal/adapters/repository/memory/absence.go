package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/ogurasousui/teamplan/internal/core/absence"
	"github.com/ogurasousui/teamplan/internal/core/member"
)

// AbsenceRepository はメモリ上の不在台帳の実装です。
type AbsenceRepository struct {
	store *Store
}

// NewAbsenceRepository は AbsenceRepository を生成します。
func NewAbsenceRepository(store *Store) *AbsenceRepository {
	return &AbsenceRepository{store: store}
}

// Create は不在を保存します。メンバーが存在しない場合は member.ErrMemberNotFound です。
func (r *AbsenceRepository) Create(ctx context.Context, a *absence.Absence) (*absence.Absence, error) {
	var created *absence.Absence
	err := r.store.write(ctx, func() error {
		if _, ok := r.store.members[a.MemberID]; !ok {
			return member.ErrMemberNotFound
		}
		if _, ok := r.store.absences[a.ID]; ok {
			return fmt.Errorf("memory: duplicate absence id %s", a.ID)
		}
		r.store.absences[a.ID] = a.Clone()
		created = a.Clone()
		return nil
	})
	return created, err
}

// Update はバージョンが一致する場合のみ不在を更新します。
func (r *AbsenceRepository) Update(ctx context.Context, a *absence.Absence) (*absence.Absence, error) {
	var updated *absence.Absence
	err := r.store.write(ctx, func() error {
		stored, ok := r.store.absences[a.ID]
		if !ok {
			return absence.ErrAbsenceNotFound
		}
		if stored.Version != a.Version {
			return absence.ErrVersionConflict
		}
		next := a.Clone()
		next.Version++
		r.store.absences[a.ID] = next
		updated = next.Clone()
		return nil
	})
	return updated, err
}

// Delete は不在を削除します。
func (r *AbsenceRepository) Delete(ctx context.Context, id string) error {
	return r.store.write(ctx, func() error {
		if _, ok := r.store.absences[id]; !ok {
			return absence.ErrAbsenceNotFound
		}
		delete(r.store.absences, id)
		return nil
	})
}

// FindByID は ID で不在を取得します。
func (r *AbsenceRepository) FindByID(ctx context.Context, id string) (*absence.Absence, error) {
	var found *absence.Absence
	r.store.read(ctx, func() {
		found = r.store.absences[id].Clone()
	})
	if found == nil {
		return nil, absence.ErrAbsenceNotFound
	}
	return found, nil
}

// List は条件に合う不在を開始日、ID の順に返します。
func (r *AbsenceRepository) List(ctx context.Context, filter absence.ListFilter) ([]*absence.Absence, error) {
	var result []*absence.Absence
	r.store.read(ctx, func() {
		for _, a := range r.store.absences {
			if filter.MemberID != "" && a.MemberID != filter.MemberID {
				continue
			}
			if filter.Range != nil && !a.Range().Overlaps(*filter.Range) {
				continue
			}
			result = append(result, a.Clone())
		}
	})
	sort.Slice(result, func(i, j int) bool {
		if c := result[i].StartDate.Compare(result[j].StartDate); c != 0 {
			return c < 0
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// CountByMember はメンバーの不在件数を返します。
func (r *AbsenceRepository) CountByMember(ctx context.Context, memberID string) (int, error) {
	n := 0
	r.store.read(ctx, func() {
		for _, a := range r.store.absences {
			if a.MemberID == memberID {
				n++
			}
		}
	})
	return n, nil
}
