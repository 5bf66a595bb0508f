package agency

import "context"

// Repository はエージェンシー設定の永続化の抽象です。
//
// Save は Version が 0 なら新規作成し、それ以外は保存済みのバージョンが一致する場合のみ更新します。
// どちらの場合もバージョンを 1 進めた設定を返します。
type Repository interface {
	Find(ctx context.Context, agencyID string) (*Settings, error)
	Save(ctx context.Context, s *Settings) (*Settings, error)
}
