package access

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ogurasousui/teamplan/internal/core/member"
	"github.com/ogurasousui/teamplan/internal/core/permission"
	"github.com/sirupsen/logrus"
)

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// MemberFinder は判定対象のメンバーを取得します。
type MemberFinder interface {
	GetMember(ctx context.Context, id string) (*member.Member, error)
}

// AgencyDefaults はエージェンシー既定の権限上書きを返します。
type AgencyDefaults interface {
	PermissionDefaults(ctx context.Context, agencyID string) (permission.Overrides, error)
}

// Service は保存済みのメンバー情報とエージェンシー既定値を集め、permission パッケージで実効権限を判定します。
// プロジェクト単位の上書きは外部のプロジェクト管理が所有しているため、呼び出し側が渡します。
type Service struct {
	members MemberFinder
	agency  AgencyDefaults
	tx      TransactionManager
	log     logrus.FieldLogger
}

// UseCase は権限判定ユースケースの公開インターフェースです。
type UseCase interface {
	Resolve(ctx context.Context, memberID string, key permission.Key, project *permission.ProjectPermissions) (*permission.Decision, error)
	Effective(ctx context.Context, memberID string, project *permission.ProjectPermissions) ([]permission.Decision, error)
	Authorize(ctx context.Context, memberID string, key permission.Key, project *permission.ProjectPermissions) error
}

// Option は Service の任意設定です。
type Option func(*Service)

// WithLogger はロガーを設定します。
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService は Service を生成します。agency が nil の場合はエージェンシー階層を飛ばします。
func NewService(members MemberFinder, agency AgencyDefaults, tx TransactionManager, opts ...Option) *Service {
	if tx == nil {
		tx = noopTransactionManager{}
	}
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	s := &Service{members: members, agency: agency, tx: tx, log: quiet}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve は 1 つのキーの実効値と、値を決定した階層を返します。
func (s *Service) Resolve(ctx context.Context, memberID string, key permission.Key, project *permission.ProjectPermissions) (*permission.Decision, error) {
	k, err := permission.ParseKey(string(key))
	if err != nil {
		return nil, err
	}
	subject, defaults, err := s.load(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return &permission.Decision{
		Key:     k,
		Allowed: permission.Resolve(k, subject, project, defaults),
		Level:   permission.Source(k, subject, project, defaults),
	}, nil
}

// Effective は既知のキーすべての判定結果を返します。
func (s *Service) Effective(ctx context.Context, memberID string, project *permission.ProjectPermissions) ([]permission.Decision, error) {
	subject, defaults, err := s.load(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return permission.Effective(subject, project, defaults), nil
}

// Authorize は実効値が false のとき ErrForbidden を返します。
func (s *Service) Authorize(ctx context.Context, memberID string, key permission.Key, project *permission.ProjectPermissions) error {
	d, err := s.Resolve(ctx, memberID, key, project)
	if err != nil {
		return err
	}
	if !d.Allowed {
		s.log.WithFields(logrus.Fields{"member_id": memberID, "key": key, "level": d.Level}).Info("permission denied")
		return fmt.Errorf("%w: %s", ErrForbidden, key)
	}
	return nil
}

func (s *Service) load(ctx context.Context, memberID string) (permission.Subject, permission.Overrides, error) {
	id := strings.TrimSpace(memberID)
	if id == "" {
		return permission.Subject{}, nil, ErrInvalidMemberID
	}

	var (
		subject  permission.Subject
		defaults permission.Overrides
	)
	err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		m, err := s.members.GetMember(txCtx, id)
		if err != nil {
			return err
		}
		subject = m.PermissionSubject()
		if s.agency == nil {
			return nil
		}
		d, err := s.agency.PermissionDefaults(txCtx, m.AgencyID)
		if err != nil {
			return err
		}
		defaults = d
		return nil
	})
	return subject, defaults, err
}
