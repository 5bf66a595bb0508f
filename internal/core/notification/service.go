package notification

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

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

// Service は通知ログのユースケースをまとめます。
type Service struct {
	repo  Repository
	clock Clock
	tx    TransactionManager
	newID func() string
	log   logrus.FieldLogger
}

// UseCase は通知ユースケースの公開インターフェースです。
type UseCase interface {
	Dispatch(ctx context.Context, events ...Event) ([]*Notification, error)
	List(ctx context.Context, filter Filter) ([]*Notification, error)
	UnreadCount(ctx context.Context, filter Filter) (int, error)
	MarkAsRead(ctx context.Context, id string) (*Notification, error)
	MarkAllAsRead(ctx context.Context, filter Filter) (int, error)
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

// WithIDGenerator は ID 生成関数を差し替えます。
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager, opts ...Option) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	s := &Service{repo: repo, clock: clock, tx: tx, newID: uuid.NewString, log: quiet}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch はイベントを通知として追記します。すべて追記されるか、1 件も追記されないかのどちらかです。
func (s *Service) Dispatch(ctx context.Context, events ...Event) ([]*Notification, error) {
	if len(events) == 0 {
		return nil, nil
	}
	for i, ev := range events {
		if strings.TrimSpace(string(ev.Type)) == "" {
			return nil, fmt.Errorf("event %d: %w", i, ErrInvalidType)
		}
		if ev.ForRole == "" && strings.TrimSpace(ev.MemberID) == "" {
			return nil, fmt.Errorf("event %d: %w", i, ErrNoRecipient)
		}
	}

	created := make([]*Notification, 0, len(events))
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		now := s.clock.Now()
		for _, ev := range events {
			n := &Notification{
				ID:        s.newID(),
				Type:      ev.Type,
				ForRole:   ev.ForRole,
				MemberID:  strings.TrimSpace(ev.MemberID),
				RequestID: ev.RequestID,
				Payload:   ev.Payload,
				CreatedAt: now,
			}
			stored, err := s.repo.Append(txCtx, n.Clone())
			if err != nil {
				return err
			}
			created = append(created, stored)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	for _, n := range created {
		s.log.WithFields(logrus.Fields{
			"notification_id": n.ID,
			"type":            n.Type,
			"for_role":        n.ForRole,
			"member_id":       n.MemberID,
		}).Info("notification dispatched")
	}
	return created, nil
}

// List は条件に合う通知を作成順に返します。
func (s *Service) List(ctx context.Context, filter Filter) ([]*Notification, error) {
	var result []*Notification
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.List(txCtx, filter)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// UnreadCount は条件に合う未読通知の件数を返します。
func (s *Service) UnreadCount(ctx context.Context, filter Filter) (int, error) {
	filter.UnreadOnly = true
	unread, err := s.List(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(unread), nil
}

// MarkAsRead は通知を既読にします。既に既読でもエラーにはなりません。
func (s *Service) MarkAsRead(ctx context.Context, id string) (*Notification, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("id: %w", ErrInvalidID)
	}
	var result *Notification
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		n, err := s.repo.MarkAsRead(txCtx, id)
		if err != nil {
			return err
		}
		result = n
		return nil
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkAllAsRead は条件に合う未読通知をすべて既読にし、更新件数を返します。
func (s *Service) MarkAllAsRead(ctx context.Context, filter Filter) (int, error) {
	filter.UnreadOnly = true
	var count int
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		n, err := s.repo.MarkAllAsRead(txCtx, filter)
		if err != nil {
			return err
		}
		count = n
		return nil
	}); err != nil {
		return 0, err
	}
	return count, nil
}
