package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/ogurasousui/teamplan/internal/core/member"
	"github.com/ogurasousui/teamplan/internal/core/notification"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

var notificationColumnNames = []string{"id", "type", "for_role", "member_id", "request_id", "payload", "read", "created_at"}

func TestNotificationRepository_List_Unread(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewNotificationRepository(mock)
	now := time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM notifications WHERE for_role = $1 AND read = FALSE`)).
		WithArgs("projectlead").
		WillReturnRows(pgxmock.NewRows(notificationColumnNames).
			AddRow("n1", "absence_request_new", "projectlead", "", "r1", []byte(`{"member_name":"Anna"}`), false, now))

	got, err := repo.List(context.Background(), notification.Filter{ForRole: member.RoleProjectLead, UnreadOnly: true})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(got) != 1 || got[0].Payload["member_name"] != "Anna" || got[0].ForRole != member.RoleProjectLead {
		t.Fatalf("unexpected notifications %+v", got)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNotificationRepository_MarkAllAsRead(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewNotificationRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE notifications SET read = TRUE WHERE member_id = $1 AND read = FALSE`)).
		WithArgs("m1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	n, err := repo.MarkAllAsRead(context.Background(), notification.Filter{MemberID: "m1"})
	if err != nil {
		t.Fatalf("MarkAllAsRead returned error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 updated notifications, got %d", n)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestNotificationRepository_MarkAsRead_NotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewNotificationRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE notifications`)).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(notificationColumnNames))

	if _, err := repo.MarkAsRead(context.Background(), "missing"); !errors.Is(err, notification.ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
