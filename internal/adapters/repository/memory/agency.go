package memory

import (
	"context"

	"github.com/ogurasousui/teamplan/internal/core/agency"
)

// AgencySettingsRepository はメモリ上のエージェンシー設定永続化の実装です。
type AgencySettingsRepository struct {
	store *Store
}

// NewAgencySettingsRepository は AgencySettingsRepository を生成します。
func NewAgencySettingsRepository(store *Store) *AgencySettingsRepository {
	return &AgencySettingsRepository{store: store}
}

// Find は設定を取得します。
func (r *AgencySettingsRepository) Find(ctx context.Context, agencyID string) (*agency.Settings, error) {
	var found *agency.Settings
	r.store.read(ctx, func() {
		found = r.store.settings[agencyID].Clone()
	})
	if found == nil {
		return nil, agency.ErrSettingsNotFound
	}
	return found, nil
}

// Save は Version が 0 なら新規作成し、それ以外はバージョンが一致する場合のみ更新します。
func (r *AgencySettingsRepository) Save(ctx context.Context, s *agency.Settings) (*agency.Settings, error) {
	var saved *agency.Settings
	err := r.store.write(ctx, func() error {
		stored, ok := r.store.settings[s.AgencyID]
		switch {
		case !ok && s.Version != 0:
			return agency.ErrVersionConflict
		case ok && stored.Version != s.Version:
			return agency.ErrVersionConflict
		}
		next := s.Clone()
		next.Version++
		r.store.settings[s.AgencyID] = next
		saved = next.Clone()
		return nil
	})
	return saved, err
}
