package main

import (
	"context"
	"fmt"

	"github.com/ogurasousui/teamplan/internal/adapters/repository/memory"
	"github.com/ogurasousui/teamplan/internal/adapters/repository/postgres"
	"github.com/ogurasousui/teamplan/internal/adapters/repository/sqlite"
	"github.com/ogurasousui/teamplan/internal/core/absence"
	"github.com/ogurasousui/teamplan/internal/core/agency"
	"github.com/ogurasousui/teamplan/internal/core/assignment"
	"github.com/ogurasousui/teamplan/internal/core/member"
	"github.com/ogurasousui/teamplan/internal/core/notification"
	"github.com/ogurasousui/teamplan/internal/core/request"
	"github.com/ogurasousui/teamplan/internal/platform/config"
	pg "github.com/ogurasousui/teamplan/internal/platform/db/postgres"
	sqlitedb "github.com/ogurasousui/teamplan/internal/platform/db/sqlite"
	"github.com/sirupsen/logrus"
)

type transactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type absenceStore interface {
	absence.Repository
	member.ReferenceCounter
}

type assignmentStore interface {
	assignment.Repository
	member.ReferenceCounter
	request.MemberLocker
}

// backend はドライバーごとに組み立てたリポジトリ群です。
type backend struct {
	tx            transactionManager
	members       member.Repository
	agencies      agency.Repository
	absences      absenceStore
	assignments   assignmentStore
	requests      request.Repository
	notifications notification.Repository
	close         func()
}

func openBackend(ctx context.Context, cfg config.DatabaseConfig, log logrus.FieldLogger) (*backend, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, log)
	case config.DriverSQLite:
		return openSQLite(cfg.SQLitePath, log)
	case config.DriverMemory:
		return openMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg config.DatabaseConfig, log logrus.FieldLogger) (*backend, error) {
	pool, err := pg.NewPool(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("initialize database pool: %w", err)
	}

	return &backend{
		tx:            pg.NewTransactionManager(pool),
		members:       postgres.NewMemberRepository(pool),
		agencies:      postgres.NewAgencySettingsRepository(pool),
		absences:      postgres.NewAbsenceRepository(pool),
		assignments:   postgres.NewAssignmentRepository(pool),
		requests:      postgres.NewRequestRepository(pool),
		notifications: postgres.NewNotificationRepository(pool),
		close:         pool.Close,
	}, nil
}

func openSQLite(path string, log logrus.FieldLogger) (_ *backend, err error) {
	db, err := sqlitedb.Open(path, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = sqlitedb.Close(db)
		}
	}()

	b := &backend{
		tx: sqlite.NewTransactionManager(db),
		close: func() {
			if err := sqlitedb.Close(db); err != nil {
				log.WithError(err).Warn("close sqlite database")
			}
		},
	}

	// 外部キーの参照先から順に作成します。
	members, err := sqlite.NewMemberRepository(db)
	if err != nil {
		return nil, err
	}
	b.members = members
	if b.agencies, err = sqlite.NewAgencySettingsRepository(db); err != nil {
		return nil, err
	}
	if b.absences, err = sqlite.NewAbsenceRepository(db); err != nil {
		return nil, err
	}
	if b.assignments, err = sqlite.NewAssignmentRepository(db); err != nil {
		return nil, err
	}
	if b.requests, err = sqlite.NewRequestRepository(db); err != nil {
		return nil, err
	}
	if b.notifications, err = sqlite.NewNotificationRepository(db); err != nil {
		return nil, err
	}
	return b, nil
}

func openMemory() *backend {
	store := memory.NewStore()
	return &backend{
		tx:            memory.NewTransactionManager(store),
		members:       memory.NewMemberRepository(store),
		agencies:      memory.NewAgencySettingsRepository(store),
		absences:      memory.NewAbsenceRepository(store),
		assignments:   memory.NewAssignmentRepository(store),
		requests:      memory.NewRequestRepository(store),
		notifications: memory.NewNotificationRepository(store),
		close:         func() {},
	}
}
