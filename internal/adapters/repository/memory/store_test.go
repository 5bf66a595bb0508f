package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ogurasousui/teamplan/internal/core/absence"
	"github.com/ogurasousui/teamplan/internal/core/agency"
	"github.com/ogurasousui/teamplan/internal/core/assignment"
	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/member"
	"github.com/ogurasousui/teamplan/internal/core/notification"
	"github.com/ogurasousui/teamplan/internal/core/request"
)

func seedMember(t *testing.T, repo *MemberRepository, id, email string) *member.Member {
	t.Helper()
	m, err := repo.Create(context.Background(), &member.Member{
		ID:           id,
		AgencyID:     "agency-1",
		Name:         "Member " + id,
		Email:        email,
		WorkingDays:  calendar.DefaultWorkingDays,
		WorkingHours: calendar.DefaultWorkingHours,
		Role:         member.RoleMember,
		IsActive:     true,
		CreatedAt:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("seed member: %v", err)
	}
	return m
}

func dates(raws ...string) []calendar.Date {
	out := make([]calendar.Date, 0, len(raws))
	for _, r := range raws {
		out = append(out, calendar.MustParse(r))
	}
	return out
}

func TestTransactionManager_RollbackOnError(t *testing.T) {
	t.Parallel()

	store := NewStore()
	tx := NewTransactionManager(store)
	members := NewMemberRepository(store)
	seedMember(t, members, "m1", "a@example.com")

	boom := errors.New("boom")
	err := tx.WithinReadWrite(context.Background(), func(ctx context.Context) error {
		if _, err := members.Create(ctx, &member.Member{ID: "m2", AgencyID: "agency-1", Email: "b@example.com"}); err != nil {
			return err
		}
		if err := members.Delete(ctx, "m1"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, err := members.FindByID(context.Background(), "m2"); !errors.Is(err, member.ErrMemberNotFound) {
		t.Fatalf("expected m2 to be rolled back, got %v", err)
	}
	if _, err := members.FindByID(context.Background(), "m1"); err != nil {
		t.Fatalf("expected m1 to survive rollback, got %v", err)
	}
}

func TestTransactionManager_NestedReuse(t *testing.T) {
	t.Parallel()

	store := NewStore()
	tx := NewTransactionManager(store)
	members := NewMemberRepository(store)

	err := tx.WithinReadWrite(context.Background(), func(ctx context.Context) error {
		return tx.WithinReadWrite(ctx, func(inner context.Context) error {
			_, err := members.Create(inner, &member.Member{ID: "m1", AgencyID: "agency-1"})
			return err
		})
	})
	if err != nil {
		t.Fatalf("nested transaction returned error: %v", err)
	}
	if _, err := members.FindByID(context.Background(), "m1"); err != nil {
		t.Fatalf("expected committed member, got %v", err)
	}
}

func TestTransactionManager_ReadOnlyRejectsWrites(t *testing.T) {
	t.Parallel()

	store := NewStore()
	tx := NewTransactionManager(store)
	members := NewMemberRepository(store)

	err := tx.WithinReadOnly(context.Background(), func(ctx context.Context) error {
		_, err := members.Create(ctx, &member.Member{ID: "m1"})
		return err
	})
	if !errors.Is(err, ErrReadOnlyTransaction) {
		t.Fatalf("expected ErrReadOnlyTransaction, got %v", err)
	}

	err = tx.WithinReadOnly(context.Background(), func(ctx context.Context) error {
		return tx.WithinReadWrite(ctx, func(context.Context) error { return nil })
	})
	if !errors.Is(err, ErrReadOnlyTransaction) {
		t.Fatalf("expected nested read-write to be rejected, got %v", err)
	}
}

func TestMemberRepository_Update_VersionConflict(t *testing.T) {
	t.Parallel()

	store := NewStore()
	members := NewMemberRepository(store)
	m := seedMember(t, members, "m1", "a@example.com")

	m.Name = "Renamed"
	updated, err := members.Update(context.Background(), m)
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Version != 1 {
		t.Fatalf("expected version 1, got %d", updated.Version)
	}

	m.Name = "Stale"
	if _, err := members.Update(context.Background(), m); !errors.Is(err, member.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	seedMember(t, members, "m2", "b@example.com")
	updated.Email = "b@example.com"
	if _, err := members.Update(context.Background(), updated); !errors.Is(err, member.ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestMemberRepository_DeleteReferenced(t *testing.T) {
	t.Parallel()

	store := NewStore()
	members := NewMemberRepository(store)
	absences := NewAbsenceRepository(store)
	seedMember(t, members, "m1", "")

	_, err := absences.Create(context.Background(), &absence.Absence{
		ID: "a1", MemberID: "m1", Type: absence.TypeVacation,
		StartDate: calendar.MustParse("2025-10-20"), EndDate: calendar.MustParse("2025-10-22"),
	})
	if err != nil {
		t.Fatalf("Create absence returned error: %v", err)
	}
	if err := members.Delete(context.Background(), "m1"); !errors.Is(err, member.ErrReferentialIntegrity) {
		t.Fatalf("expected ErrReferentialIntegrity, got %v", err)
	}
	if _, err := absences.Create(context.Background(), &absence.Absence{ID: "a2", MemberID: "ghost"}); !errors.Is(err, member.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestAbsenceRepository_ListByRange(t *testing.T) {
	t.Parallel()

	store := NewStore()
	seedMember(t, NewMemberRepository(store), "m1", "")
	repo := NewAbsenceRepository(store)
	ctx := context.Background()

	for _, a := range []*absence.Absence{
		{ID: "late", MemberID: "m1", StartDate: calendar.MustParse("2025-11-03"), EndDate: calendar.MustParse("2025-11-05")},
		{ID: "early", MemberID: "m1", StartDate: calendar.MustParse("2025-10-20"), EndDate: calendar.MustParse("2025-10-21")},
		{ID: "outside", MemberID: "m1", StartDate: calendar.MustParse("2025-12-01"), EndDate: calendar.MustParse("2025-12-01")},
	} {
		if _, err := repo.Create(ctx, a); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	rng := calendar.Range{Start: calendar.MustParse("2025-10-21"), End: calendar.MustParse("2025-11-03")}
	got, err := repo.List(ctx, absence.ListFilter{MemberID: "m1", Range: &rng})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "early" || got[1].ID != "late" {
		t.Fatalf("unexpected absences %+v", got)
	}

	n, _ := repo.CountByMember(ctx, "m1")
	if n != 3 {
		t.Fatalf("expected 3 absences, got %d", n)
	}
}

func TestAssignmentRepository_ListAndLock(t *testing.T) {
	t.Parallel()

	store := NewStore()
	seedMember(t, NewMemberRepository(store), "m1", "")
	repo := NewAssignmentRepository(store)
	ctx := context.Background()

	if _, err := repo.Create(ctx, &assignment.Assignment{
		ID: "as1", MemberID: "m1", ProjectID: "p1", PhaseID: "ph1",
		Dates: dates("2025-10-20", "2025-10-24"),
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := repo.Create(ctx, &assignment.Assignment{
		ID: "as2", MemberID: "m1", ProjectID: "p2",
		Dates: dates("2025-10-13"),
	}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// 10/21-10/23 は as1 の割り当て日の隙間
	gap := calendar.Range{Start: calendar.MustParse("2025-10-21"), End: calendar.MustParse("2025-10-23")}
	got, _ := repo.List(ctx, assignment.ListFilter{MemberID: "m1", Range: &gap})
	if len(got) != 0 {
		t.Fatalf("expected no assignment inside the gap, got %+v", got)
	}

	all, _ := repo.List(ctx, assignment.ListFilter{MemberID: "m1"})
	if len(all) != 2 || all[0].ID != "as2" || all[1].ID != "as1" {
		t.Fatalf("expected assignments ordered by first date, got %+v", all)
	}
	byPhase, _ := repo.List(ctx, assignment.ListFilter{PhaseID: "ph1"})
	if len(byPhase) != 1 || byPhase[0].ID != "as1" {
		t.Fatalf("unexpected phase filter result %+v", byPhase)
	}

	if err := repo.LockMember(ctx, "m1"); err != nil {
		t.Fatalf("LockMember returned error: %v", err)
	}
	if err := repo.LockMember(ctx, "ghost"); !errors.Is(err, member.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestRequestRepository_ListByStatus(t *testing.T) {
	t.Parallel()

	store := NewStore()
	seedMember(t, NewMemberRepository(store), "m1", "")
	repo := NewRequestRepository(store)
	ctx := context.Background()
	base := time.Date(2025, 10, 1, 9, 0, 0, 0, time.UTC)

	for i, status := range []request.Status{request.StatusPending, request.StatusApproved, request.StatusPending} {
		if _, err := repo.Create(ctx, &request.Request{
			ID:        []string{"r1", "r2", "r3"}[i],
			MemberID:  "m1",
			Status:    status,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("Create returned error: %v", err)
		}
	}

	pending := request.StatusPending
	got, _ := repo.List(ctx, request.ListFilter{Status: &pending})
	if len(got) != 2 || got[0].ID != "r1" || got[1].ID != "r3" {
		t.Fatalf("unexpected pending requests %+v", got)
	}
	n, _ := repo.Count(ctx, request.ListFilter{Status: &pending})
	if n != 2 {
		t.Fatalf("expected 2 pending, got %d", n)
	}

	stale := got[0].Clone()
	got[0].Status = request.StatusRejected
	if _, err := repo.Update(ctx, got[0]); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if _, err := repo.Update(ctx, stale); !errors.Is(err, request.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestNotificationRepository_MarkAllAsRead(t *testing.T) {
	t.Parallel()

	store := NewStore()
	repo := NewNotificationRepository(store)
	ctx := context.Background()

	for _, n := range []*notification.Notification{
		{ID: "n1", Type: notification.TypeAbsenceRequestNew, ForRole: member.RoleProjectLead},
		{ID: "n2", Type: notification.TypeAbsenceRequestApproved, MemberID: "m1"},
		{ID: "n3", Type: notification.TypeAbsenceRequestNew, ForRole: member.RoleProjectLead},
	} {
		if _, err := repo.Append(ctx, n); err != nil {
			t.Fatalf("Append returned error: %v", err)
		}
	}

	if _, err := repo.MarkAsRead(ctx, "n1"); err != nil {
		t.Fatalf("MarkAsRead returned error: %v", err)
	}
	count, err := repo.MarkAllAsRead(ctx, notification.Filter{ForRole: member.RoleProjectLead})
	if err != nil || count != 1 {
		t.Fatalf("expected 1 newly read notification, got %d %v", count, err)
	}

	unread, _ := repo.List(ctx, notification.Filter{UnreadOnly: true})
	if len(unread) != 1 || unread[0].ID != "n2" {
		t.Fatalf("unexpected unread notifications %+v", unread)
	}
	if _, err := repo.MarkAsRead(ctx, "missing"); !errors.Is(err, notification.ErrNotificationNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}
}

func TestAgencySettingsRepository_Save(t *testing.T) {
	t.Parallel()

	repo := NewAgencySettingsRepository(NewStore())
	ctx := context.Background()

	saved, err := repo.Save(ctx, &agency.Settings{AgencyID: "agency-1", HolidayRegion: "DE"})
	if err != nil || saved.Version != 1 {
		t.Fatalf("unexpected insert result %+v %v", saved, err)
	}
	if _, err := repo.Save(ctx, &agency.Settings{AgencyID: "agency-1"}); !errors.Is(err, agency.ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	found, err := repo.Find(ctx, "agency-1")
	if err != nil || found.HolidayRegion != "DE" {
		t.Fatalf("unexpected settings %+v %v", found, err)
	}
	if _, err := repo.Find(ctx, "agency-2"); !errors.Is(err, agency.ErrSettingsNotFound) {
		t.Fatalf("expected ErrSettingsNotFound, got %v", err)
	}
}
