package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ogurasousui/teamplan/internal/core/member"
)

// MemberRepository はメモリ上のメンバー永続化の実装です。
type MemberRepository struct {
	store *Store
}

// NewMemberRepository は MemberRepository を生成します。
func NewMemberRepository(store *Store) *MemberRepository {
	return &MemberRepository{store: store}
}

// Create はメンバーを保存します。
func (r *MemberRepository) Create(ctx context.Context, m *member.Member) (*member.Member, error) {
	var created *member.Member
	err := r.store.write(ctx, func() error {
		if _, ok := r.store.members[m.ID]; ok {
			return fmt.Errorf("memory: duplicate member id %s", m.ID)
		}
		if r.emailTaken(m.AgencyID, m.Email, m.ID) {
			return member.ErrEmailAlreadyExists
		}
		r.store.members[m.ID] = m.Clone()
		created = m.Clone()
		return nil
	})
	return created, err
}

// Update はバージョンが一致する場合のみメンバーを更新します。
func (r *MemberRepository) Update(ctx context.Context, m *member.Member) (*member.Member, error) {
	var updated *member.Member
	err := r.store.write(ctx, func() error {
		stored, ok := r.store.members[m.ID]
		if !ok {
			return member.ErrMemberNotFound
		}
		if stored.Version != m.Version {
			return member.ErrVersionConflict
		}
		if r.emailTaken(m.AgencyID, m.Email, m.ID) {
			return member.ErrEmailAlreadyExists
		}
		next := m.Clone()
		next.Version++
		r.store.members[m.ID] = next
		updated = next.Clone()
		return nil
	})
	return updated, err
}

// Delete はメンバーを削除します。不在または割り当てが参照している場合は削除しません。
func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	return r.store.write(ctx, func() error {
		if _, ok := r.store.members[id]; !ok {
			return member.ErrMemberNotFound
		}
		for _, a := range r.store.absences {
			if a.MemberID == id {
				return member.ErrReferentialIntegrity
			}
		}
		for _, a := range r.store.assignments {
			if a.MemberID == id {
				return member.ErrReferentialIntegrity
			}
		}
		delete(r.store.members, id)
		return nil
	})
}

// FindByID は ID でメンバーを取得します。
func (r *MemberRepository) FindByID(ctx context.Context, id string) (*member.Member, error) {
	var found *member.Member
	r.store.read(ctx, func() {
		found = r.store.members[id].Clone()
	})
	if found == nil {
		return nil, member.ErrMemberNotFound
	}
	return found, nil
}

// FindByEmail はエージェンシー内でメールアドレスが一致するメンバーを取得します。
func (r *MemberRepository) FindByEmail(ctx context.Context, agencyID, email string) (*member.Member, error) {
	var found *member.Member
	r.store.read(ctx, func() {
		for _, m := range r.store.members {
			if m.AgencyID == agencyID && m.Email != "" && m.Email == email {
				found = m.Clone()
				return
			}
		}
	})
	if found == nil {
		return nil, member.ErrMemberNotFound
	}
	return found, nil
}

// List は条件に合うメンバーを作成日時、ID の順に返します。
func (r *MemberRepository) List(ctx context.Context, filter member.ListFilter) ([]*member.Member, error) {
	var result []*member.Member
	r.store.read(ctx, func() {
		for _, m := range r.store.members {
			if matchesMember(m, filter) {
				result = append(result, m.Clone())
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

func (r *MemberRepository) emailTaken(agencyID, email, selfID string) bool {
	if email == "" {
		return false
	}
	for _, m := range r.store.members {
		if m.ID != selfID && m.AgencyID == agencyID && m.Email == email {
			return true
		}
	}
	return false
}

func matchesMember(m *member.Member, filter member.ListFilter) bool {
	if filter.AgencyID != "" && m.AgencyID != filter.AgencyID {
		return false
	}
	if filter.Active != nil && m.IsActive != *filter.Active {
		return false
	}
	if filter.Role != nil && m.Role != *filter.Role {
		return false
	}
	if filter.Profession != "" {
		for _, p := range m.Professions {
			if strings.EqualFold(p, filter.Profession) {
				return true
			}
		}
		return false
	}
	return true
}
