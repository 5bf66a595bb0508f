package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/member"
	"github.com/ogurasousui/teamplan/internal/core/permission"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

type stubRow struct {
	scanFn func(dest ...interface{}) error
}

func (s stubRow) Scan(dest ...interface{}) error {
	return s.scanFn(dest...)
}

var memberColumnNames = []string{
	"id", "agency_id", "name", "email", "phone", "position", "professions", "skills", "employment_type",
	"working_days", "work_start", "work_end", "role", "permission_overrides", "is_active", "created_at", "updated_at", "version",
}

func TestScanMember_NoRows(t *testing.T) {
	t.Parallel()

	row := stubRow{scanFn: func(dest ...interface{}) error {
		return pgx.ErrNoRows
	}}

	if _, err := scanMember(row); !errors.Is(err, member.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestTranslateMemberPgError(t *testing.T) {
	t.Parallel()

	uniqueErr := &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "members_agency_email_key"}
	if !errors.Is(translateMemberPgError(uniqueErr), member.ErrEmailAlreadyExists) {
		t.Fatalf("expected unique violation to map to ErrEmailAlreadyExists")
	}

	fkErr := &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "absences_member_id_fkey"}
	if !errors.Is(translateMemberPgError(fkErr), member.ErrReferentialIntegrity) {
		t.Fatalf("expected fk violation to map to ErrReferentialIntegrity")
	}

	checkErr := &pgconn.PgError{Code: checkViolationCode, ConstraintName: "members_role_check"}
	if !errors.Is(translateMemberPgError(checkErr), member.ErrInvalidRole) {
		t.Fatalf("expected check violation to map to ErrInvalidRole")
	}

	other := errors.New("other")
	if translateMemberPgError(other) != other {
		t.Fatalf("unexpected translation for generic error")
	}
}

func TestMemberRepository_List_WithFilters(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewMemberRepository(mock)
	active := true
	role := member.RoleMember

	query := regexp.QuoteMeta(`FROM members WHERE agency_id = $1 AND is_active = $2 AND role = $3 AND EXISTS (SELECT 1 FROM unnest(professions) AS p WHERE lower(p) = lower($4))`)

	now := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(memberColumnNames).
		AddRow("m1", "agency-1", "Anna", "anna@example.com", "", "", []string{"Design"}, []string{"figma"}, "fulltime",
			int16(calendar.DefaultWorkingDays), int16(540), int16(1080), "member", []byte(`{"canSeeBudget":true}`), true, now, now, int64(2))

	mock.ExpectQuery(query).
		WithArgs("agency-1", true, "member", "design").
		WillReturnRows(rows)

	members, err := repo.List(context.Background(), member.ListFilter{
		AgencyID:   "agency-1",
		Active:     &active,
		Role:       &role,
		Profession: "design",
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(members))
	}

	got := members[0]
	if got.WorkingDays != calendar.DefaultWorkingDays || got.WorkingHours != calendar.DefaultWorkingHours {
		t.Fatalf("unexpected schedule %v %s", got.WorkingDays.Strings(), got.WorkingHours)
	}
	if v, ok := got.PermissionOverrides.Lookup(permission.KeyCanSeeBudget); !ok || !v {
		t.Fatalf("expected decoded permission override, got %v", got.PermissionOverrides)
	}
	if got.Version != 2 {
		t.Fatalf("expected version 2, got %d", got.Version)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMemberRepository_Update_VersionConflict(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewMemberRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE members`)).
		WillReturnRows(pgxmock.NewRows(memberColumnNames))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS (SELECT 1 FROM members WHERE id = $1)`)).
		WithArgs("m1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	_, err = repo.Update(context.Background(), &member.Member{
		ID:           "m1",
		AgencyID:     "agency-1",
		Name:         "Anna",
		WorkingDays:  calendar.DefaultWorkingDays,
		WorkingHours: calendar.DefaultWorkingHours,
		Role:         member.RoleMember,
		Version:      1,
	})
	if !errors.Is(err, member.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMemberRepository_Delete(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	repo := NewMemberRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM members WHERE id = $1`)).
		WithArgs("m1").
		WillReturnError(&pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "assignments_member_id_fkey"})
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM members WHERE id = $1`)).
		WithArgs("m2").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), "m1"); !errors.Is(err, member.ErrReferentialIntegrity) {
		t.Fatalf("expected ErrReferentialIntegrity, got %v", err)
	}
	if err := repo.Delete(context.Background(), "m2"); !errors.Is(err, member.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
