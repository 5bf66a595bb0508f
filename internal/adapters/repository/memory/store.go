package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/ogurasousui/teamplan/internal/core/absence"
	"github.com/ogurasousui/teamplan/internal/core/agency"
	"github.com/ogurasousui/teamplan/internal/core/assignment"
	"github.com/ogurasousui/teamplan/internal/core/member"
	"github.com/ogurasousui/teamplan/internal/core/notification"
	"github.com/ogurasousui/teamplan/internal/core/request"
)

// ErrReadOnlyTransaction は読み取り専用トランザクション内で書き込みを行おうとした場合に返却されます。
var ErrReadOnlyTransaction = errors.New("memory: write inside read-only transaction")

// Store はプロセス内に全集約を保持するストアです。
// すべての操作は 1 つの RWMutex で直列化され、保存・取得のたびにエンティティを複製します。
type Store struct {
	mu sync.RWMutex
	data
}

type data struct {
	members       map[string]*member.Member
	settings      map[string]*agency.Settings
	absences      map[string]*absence.Absence
	assignments   map[string]*assignment.Assignment
	requests      map[string]*request.Request
	notifications []*notification.Notification
}

// NewStore は空の Store を生成します。
func NewStore() *Store {
	return &Store{data: data{
		members:     make(map[string]*member.Member),
		settings:    make(map[string]*agency.Settings),
		absences:    make(map[string]*absence.Absence),
		assignments: make(map[string]*assignment.Assignment),
		requests:    make(map[string]*request.Request),
	}}
}

// snapshot はロールバック用にマップを浅く複製します。格納済みのエンティティは書き換えずに差し替えるため浅い複製で足ります。
func (d *data) snapshot() data {
	cp := data{
		members:       make(map[string]*member.Member, len(d.members)),
		settings:      make(map[string]*agency.Settings, len(d.settings)),
		absences:      make(map[string]*absence.Absence, len(d.absences)),
		assignments:   make(map[string]*assignment.Assignment, len(d.assignments)),
		requests:      make(map[string]*request.Request, len(d.requests)),
		notifications: append([]*notification.Notification(nil), d.notifications...),
	}
	for k, v := range d.members {
		cp.members[k] = v
	}
	for k, v := range d.settings {
		cp.settings[k] = v
	}
	for k, v := range d.absences {
		cp.absences[k] = v
	}
	for k, v := range d.assignments {
		cp.assignments[k] = v
	}
	for k, v := range d.requests {
		cp.requests[k] = v
	}
	return cp
}

func (s *Store) read(ctx context.Context, fn func()) {
	if _, ok := txFromContext(ctx); ok {
		fn()
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

func (s *Store) write(ctx context.Context, fn func() error) error {
	if tx, ok := txFromContext(ctx); ok {
		if !tx.writable {
			return ErrReadOnlyTransaction
		}
		return fn()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}
