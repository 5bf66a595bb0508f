package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/teamplan/internal/core/request"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestScanRequest_Reviewed(t *testing.T) {
	t.Parallel()

	reviewed := time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC)
	start := time.Date(2025, 3, 24, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC)

	row := stubRow{scanFn: func(dest ...interface{}) error {
		if len(dest) != 17 {
			return errors.New("unexpected dest length")
		}
		*(dest[0].(*string)) = "r1"
		*(dest[1].(*string)) = "m1"
		*(dest[2].(*string)) = "vacation"
		*(dest[3].(*time.Time)) = start
		*(dest[4].(*time.Time)) = end
		*(dest[9].(*string)) = string(request.StatusApproved)
		*(dest[10].(*string)) = "lead-1"

		reviewedDest := dest[11].(*sql.NullTime)
		reviewedDest.Time = reviewed
		reviewedDest.Valid = true

		absenceDest := dest[13].(*sql.NullString)
		absenceDest.String = "a1"
		absenceDest.Valid = true

		*(dest[16].(*int64)) = 1
		return nil
	}}

	req, err := scanRequest(row)
	if err != nil {
		t.Fatalf("scanRequest returned error: %v", err)
	}
	if req.Status != request.StatusApproved || req.ReviewedBy != "lead-1" || req.AbsenceID != "a1" {
		t.Fatalf("unexpected review fields %+v", req)
	}
	if req.ReviewedAt == nil || !req.ReviewedAt.Equal(reviewed) {
		t.Fatalf("expected reviewed at %v, got %v", reviewed, req.ReviewedAt)
	}
	if req.StartDate.String() != "2025-03-24" || req.EndDate.String() != "2025-03-28" {
		t.Fatalf("unexpected range %s", req.Range())
	}
	if req.Partial != nil {
		t.Fatalf("expected no partial hours")
	}
}

func TestRequestRepository_Count(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewRequestRepository(mock)
	pending := request.StatusPending

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM absence_requests WHERE status = $1`)).
		WithArgs("pending").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.Count(context.Background(), request.ListFilter{Status: &pending})
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 pending requests, got %d", n)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRequestRepository_Update_NotFound(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewRequestRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE absence_requests`)).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "member_id", "type", "start_date", "end_date", "is_partial", "partial_start", "partial_end", "reason",
			"status", "reviewed_by", "reviewed_at", "rejection_reason", "absence_id", "created_at", "updated_at", "version",
		}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM absence_requests WHERE id = $1)`)).
		WithArgs("r1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	_, err = repo.Update(context.Background(), &request.Request{ID: "r1", Status: request.StatusRejected})
	if !errors.Is(err, request.ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTranslateRequestPgError(t *testing.T) {
	t.Parallel()

	statusErr := &pgconn.PgError{Code: checkViolationCode, ConstraintName: "absence_requests_status_check"}
	if !errors.Is(translateRequestPgError(statusErr), request.ErrInvalidStatus) {
		t.Fatalf("expected check violation to map to ErrInvalidStatus")
	}
}
