package request

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/ogurasousui/teamplan/internal/core/absence"
	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/conflict"
	"github.com/ogurasousui/teamplan/internal/core/member"
	"github.com/ogurasousui/teamplan/internal/core/notification"
)

type stubClock struct {
	now time.Time
}

func (s *stubClock) Now() time.Time {
	return s.now
}

type fakeRequestRepo struct {
	items map[string]*Request
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{items: make(map[string]*Request)}
}

func (r *fakeRequestRepo) Create(_ context.Context, req *Request) (*Request, error) {
	r.items[req.ID] = req.Clone()
	return req.Clone(), nil
}

func (r *fakeRequestRepo) Update(_ context.Context, req *Request) (*Request, error) {
	stored, ok := r.items[req.ID]
	if !ok {
		return nil, ErrRequestNotFound
	}
	if stored.Version != req.Version {
		return nil, ErrVersionConflict
	}
	next := req.Clone()
	next.Version++
	r.items[req.ID] = next
	return next.Clone(), nil
}

func (r *fakeRequestRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return ErrRequestNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeRequestRepo) FindByID(_ context.Context, id string) (*Request, error) {
	req, ok := r.items[id]
	if !ok {
		return nil, ErrRequestNotFound
	}
	return req.Clone(), nil
}

func (r *fakeRequestRepo) List(_ context.Context, filter ListFilter) ([]*Request, error) {
	var result []*Request
	for _, req := range r.items {
		if filter.MemberID != "" && req.MemberID != filter.MemberID {
			continue
		}
		if filter.Status != nil && req.Status != *filter.Status {
			continue
		}
		result = append(result, req.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *fakeRequestRepo) Count(ctx context.Context, filter ListFilter) (int, error) {
	found, err := r.List(ctx, filter)
	return len(found), err
}

type stubMembers map[string]*member.Member

func (s stubMembers) GetMember(_ context.Context, id string) (*member.Member, error) {
	m, ok := s[id]
	if !ok {
		return nil, member.ErrMemberNotFound
	}
	return m, nil
}

type fakeAbsences struct {
	added []absence.AddAbsenceInput
	fail  error
}

func (f *fakeAbsences) AddAbsence(_ context.Context, in absence.AddAbsenceInput) (*absence.Result, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.added = append(f.added, in)
	return &absence.Result{Absence: &absence.Absence{
		ID:        fmt.Sprintf("abs-%d", len(f.added)),
		MemberID:  in.MemberID,
		Type:      in.Type,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		RequestID: in.RequestID,
	}}, nil
}

type stubChecker struct {
	conflicts []conflict.Conflict
}

func (c stubChecker) CheckConflicts(context.Context, string, []calendar.Date, string) ([]conflict.Conflict, error) {
	return c.conflicts, nil
}

type recordingDispatcher struct {
	events []notification.Event
}

func (d *recordingDispatcher) Dispatch(_ context.Context, events ...notification.Event) ([]*notification.Notification, error) {
	d.events = append(d.events, events...)
	return nil, nil
}

type recordingLocker struct {
	locked []string
}

func (l *recordingLocker) LockMember(_ context.Context, memberID string) error {
	l.locked = append(l.locked, memberID)
	return nil
}

type fixture struct {
	svc        *Service
	repo       *fakeRequestRepo
	absences   *fakeAbsences
	dispatcher *recordingDispatcher
	locker     *recordingLocker
	clock      *stubClock
}

func newFixture(checker stubChecker) *fixture {
	f := &fixture{
		repo:       newFakeRequestRepo(),
		absences:   &fakeAbsences{},
		dispatcher: &recordingDispatcher{},
		locker:     &recordingLocker{},
		clock:      &stubClock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)},
	}
	n := 0
	members := stubMembers{"m-1": {ID: "m-1", Name: "Lena Vogel"}}
	f.svc = NewService(f.repo, members, f.absences, checker, f.clock, nil,
		WithDispatcher(f.dispatcher),
		WithMemberLocker(f.locker),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("r-%d", n)
		}),
	)
	return f
}

func (f *fixture) createVacation(t *testing.T) *Request {
	t.Helper()
	out, err := f.svc.CreateRequest(context.Background(), CreateRequestInput{
		MemberID:  "m-1",
		Type:      absence.TypeVacation,
		StartDate: calendar.MustParse("2025-03-24"),
		EndDate:   calendar.MustParse("2025-03-28"),
		Reason:    "Familienurlaub",
	})
	if err != nil {
		t.Fatalf("CreateRequest returned error: %v", err)
	}
	return out.Request
}

func TestService_CreateRequest(t *testing.T) {
	t.Parallel()

	day := calendar.MustParse("2025-03-26")
	f := newFixture(stubChecker{conflicts: []conflict.Conflict{{Date: day, Type: conflict.TypeAssignment}}})

	out, err := f.svc.CreateRequest(context.Background(), CreateRequestInput{
		MemberID: "m-1", Type: absence.TypeVacation, StartDate: calendar.MustParse("2025-03-24"), EndDate: calendar.MustParse("2025-03-28"),
	})
	if err != nil {
		t.Fatalf("CreateRequest returned error: %v", err)
	}
	if out.Request.Status != StatusPending || out.Request.Version != 1 {
		t.Fatalf("unexpected request %+v", out.Request)
	}
	if len(out.Conflicts) != 1 {
		t.Fatalf("expected informational conflict, got %+v", out.Conflicts)
	}
	if len(f.dispatcher.events) != 1 {
		t.Fatalf("expected one dispatched event, got %d", len(f.dispatcher.events))
	}
	ev := f.dispatcher.events[0]
	if ev.Type != notification.TypeAbsenceRequestNew || ev.ForRole != member.RoleProjectLead || ev.RequestID != "r-1" {
		t.Fatalf("unexpected event %+v", ev)
	}
	if ev.Payload["member_name"] != "Lena Vogel" || ev.Payload["start_date"] != "2025-03-24" {
		t.Fatalf("unexpected payload %+v", ev.Payload)
	}
}

func TestService_CreateRequest_Validation(t *testing.T) {
	t.Parallel()

	f := newFixture(stubChecker{})
	ctx := context.Background()
	start := calendar.MustParse("2025-03-24")

	cases := []struct {
		name string
		in   CreateRequestInput
		want error
	}{
		{"missing member", CreateRequestInput{Type: absence.TypeSick, StartDate: start, EndDate: start}, ErrInvalidMemberID},
		{"bad type", CreateRequestInput{MemberID: "m-1", Type: "party", StartDate: start, EndDate: start}, ErrInvalidType},
		{"reversed range", CreateRequestInput{MemberID: "m-1", Type: absence.TypeSick, StartDate: start, EndDate: start.AddDays(-2)}, ErrInvalidRange},
		{"longer than a year", CreateRequestInput{MemberID: "m-1", Type: absence.TypeVacation, StartDate: calendar.MustParse("0001-01-01"), EndDate: calendar.MustParse("9999-12-31")}, ErrRangeTooLong},
		{"bad partial", CreateRequestInput{MemberID: "m-1", Type: absence.TypeOther, StartDate: start, EndDate: start, IsPartial: true, Partial: &calendar.TimeRange{Start: 700, End: 600}}, ErrInvalidPartialHours},
		{"unknown member", CreateRequestInput{MemberID: "ghost", Type: absence.TypeSick, StartDate: start, EndDate: start}, member.ErrMemberNotFound},
	}
	for _, tc := range cases {
		if _, err := f.svc.CreateRequest(ctx, tc.in); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	if len(f.dispatcher.events) != 0 {
		t.Fatalf("failed creations must not emit events")
	}
}

func TestService_ApproveRequest_CreatesMatchingAbsence(t *testing.T) {
	t.Parallel()

	f := newFixture(stubChecker{})
	req := f.createVacation(t)
	f.dispatcher.events = nil

	out, err := f.svc.ApproveRequest(context.Background(), req.ID, "lead-1")
	if err != nil {
		t.Fatalf("ApproveRequest returned error: %v", err)
	}
	if out == nil {
		t.Fatalf("expected outcome for pending request")
	}

	if len(f.absences.added) != 1 {
		t.Fatalf("expected exactly one absence, got %d", len(f.absences.added))
	}
	added := f.absences.added[0]
	if added.Type != absence.TypeVacation || added.StartDate.String() != "2025-03-24" || added.EndDate.String() != "2025-03-28" || added.RequestID != req.ID {
		t.Fatalf("absence does not match request: %+v", added)
	}

	stored := f.repo.items[req.ID]
	if stored.Status != StatusApproved || stored.ReviewedBy != "lead-1" || stored.ReviewedAt == nil || stored.AbsenceID != out.Absence.ID {
		t.Fatalf("unexpected stored request %+v", stored)
	}
	if len(f.locker.locked) != 1 || f.locker.locked[0] != "m-1" {
		t.Fatalf("expected member lock during approval, got %v", f.locker.locked)
	}

	if len(f.dispatcher.events) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(f.dispatcher.events))
	}
	ev := f.dispatcher.events[0]
	if ev.Type != notification.TypeAbsenceRequestApproved || ev.MemberID != "m-1" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestService_ApproveAndReject_AreNoOpsWhenNotPending(t *testing.T) {
	t.Parallel()

	f := newFixture(stubChecker{})
	ctx := context.Background()
	req := f.createVacation(t)

	if _, err := f.svc.ApproveRequest(ctx, req.ID, "lead-1"); err != nil {
		t.Fatalf("ApproveRequest returned error: %v", err)
	}
	before := f.repo.items[req.ID].Clone()
	events := len(f.dispatcher.events)

	out, err := f.svc.ApproveRequest(ctx, req.ID, "lead-2")
	if err != nil || out != nil {
		t.Fatalf("second approval must be a no-op, got %+v (%v)", out, err)
	}
	out, err = f.svc.RejectRequest(ctx, req.ID, "lead-2", "zu spät")
	if err != nil || out != nil {
		t.Fatalf("rejecting an approved request must be a no-op, got %+v (%v)", out, err)
	}

	after := f.repo.items[req.ID]
	if after.Status != before.Status || after.ReviewedBy != before.ReviewedBy || after.Version != before.Version {
		t.Fatalf("request changed: before %+v after %+v", before, after)
	}
	if len(f.absences.added) != 1 || len(f.dispatcher.events) != events {
		t.Fatalf("no-ops must not create absences or events")
	}
}

func TestService_RejectRequest(t *testing.T) {
	t.Parallel()

	f := newFixture(stubChecker{})
	req := f.createVacation(t)
	f.dispatcher.events = nil

	out, err := f.svc.RejectRequest(context.Background(), req.ID, "lead-1", "  Deadline  ")
	if err != nil {
		t.Fatalf("RejectRequest returned error: %v", err)
	}
	if out.Request.Status != StatusRejected || out.Request.RejectionReason != "Deadline" || out.Absence != nil {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if len(f.absences.added) != 0 {
		t.Fatalf("rejection must not create an absence")
	}
	if len(f.dispatcher.events) != 1 || f.dispatcher.events[0].Type != notification.TypeAbsenceRequestRejected {
		t.Fatalf("unexpected events %+v", f.dispatcher.events)
	}
	if f.dispatcher.events[0].Payload["rejection_reason"] != "Deadline" {
		t.Fatalf("rejection reason missing from payload")
	}

	if _, err := f.svc.RejectRequest(context.Background(), req.ID, "", "x"); !errors.Is(err, ErrInvalidReviewer) {
		t.Fatalf("expected ErrInvalidReviewer, got %v", err)
	}
}

func TestService_ApproveRequest_RollsBackWhenAbsenceFails(t *testing.T) {
	t.Parallel()

	f := newFixture(stubChecker{})
	req := f.createVacation(t)
	f.dispatcher.events = nil
	f.absences.fail = member.ErrMemberNotFound

	if _, err := f.svc.ApproveRequest(context.Background(), req.ID, "lead-1"); !errors.Is(err, member.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
	if f.repo.items[req.ID].Status != StatusPending {
		t.Fatalf("request must stay pending")
	}
	if len(f.dispatcher.events) != 0 {
		t.Fatalf("failed approval must not emit events")
	}
}

func TestService_WithdrawRequest(t *testing.T) {
	t.Parallel()

	f := newFixture(stubChecker{})
	ctx := context.Background()

	pending := f.createVacation(t)
	if err := f.svc.WithdrawRequest(ctx, pending.ID); err != nil {
		t.Fatalf("WithdrawRequest returned error: %v", err)
	}
	if _, ok := f.repo.items[pending.ID]; ok {
		t.Fatalf("withdrawn request must be removed")
	}

	approved := f.createVacation(t)
	out, err := f.svc.ApproveRequest(ctx, approved.ID, "lead-1")
	if err != nil {
		t.Fatalf("ApproveRequest returned error: %v", err)
	}
	before := f.repo.items[approved.ID].Clone()

	if err := f.svc.WithdrawRequest(ctx, approved.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	after, ok := f.repo.items[approved.ID]
	if !ok || after.Status != before.Status || after.Version != before.Version {
		t.Fatalf("approved request must be untouched")
	}
	if len(f.absences.added) != 1 || out.Absence.ID != after.AbsenceID {
		t.Fatalf("spawned absence must be untouched")
	}
}

func TestService_DeleteRequest_KeepsAbsence(t *testing.T) {
	t.Parallel()

	f := newFixture(stubChecker{})
	ctx := context.Background()

	pending := f.createVacation(t)
	if err := f.svc.DeleteRequest(ctx, pending.ID); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for pending request, got %v", err)
	}

	if _, err := f.svc.ApproveRequest(ctx, pending.ID, "lead-1"); err != nil {
		t.Fatalf("ApproveRequest returned error: %v", err)
	}
	if err := f.svc.DeleteRequest(ctx, pending.ID); err != nil {
		t.Fatalf("DeleteRequest returned error: %v", err)
	}
	if _, err := f.svc.GetRequest(ctx, pending.ID); !errors.Is(err, ErrRequestNotFound) {
		t.Fatalf("expected ErrRequestNotFound, got %v", err)
	}
	if len(f.absences.added) != 1 {
		t.Fatalf("deleting the request must not touch the absence")
	}
}

func TestService_Queries(t *testing.T) {
	t.Parallel()

	f := newFixture(stubChecker{})
	ctx := context.Background()

	first := f.createVacation(t)
	f.createVacation(t)
	third := f.createVacation(t)
	if _, err := f.svc.ApproveRequest(ctx, first.ID, "lead-1"); err != nil {
		t.Fatalf("ApproveRequest returned error: %v", err)
	}
	if _, err := f.svc.RejectRequest(ctx, third.ID, "lead-1", ""); err != nil {
		t.Fatalf("RejectRequest returned error: %v", err)
	}

	pending, err := f.svc.Pending(ctx)
	if err != nil || len(pending) != 1 || pending[0].ID != "r-2" {
		t.Fatalf("unexpected pending %+v (%v)", pending, err)
	}
	if n, err := f.svc.PendingCount(ctx); err != nil || n != 1 {
		t.Fatalf("expected pending count 1, got %d (%v)", n, err)
	}
	approved := StatusApproved
	if got, _ := f.svc.ByStatus(ctx, &approved); len(got) != 1 || got[0].ID != first.ID {
		t.Fatalf("unexpected approved list %+v", got)
	}
	if got, _ := f.svc.ByStatus(ctx, nil); len(got) != 3 {
		t.Fatalf("expected all requests, got %d", len(got))
	}
	bogus := Status("archived")
	if _, err := f.svc.ByStatus(ctx, &bogus); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if got, _ := f.svc.ForMember(ctx, "m-1"); len(got) != 3 {
		t.Fatalf("expected 3 requests for m-1, got %d", len(got))
	}
}

func TestService_RemindPending(t *testing.T) {
	t.Parallel()

	f := newFixture(stubChecker{})
	ctx := context.Background()

	if n, err := f.svc.RemindPending(ctx); err != nil || n != 0 || len(f.dispatcher.events) != 0 {
		t.Fatalf("no reminder expected without pending requests, got %d (%v)", n, err)
	}

	f.createVacation(t)
	f.createVacation(t)
	f.dispatcher.events = nil

	n, err := f.svc.RemindPending(ctx)
	if err != nil || n != 2 {
		t.Fatalf("expected 2 pending, got %d (%v)", n, err)
	}
	if len(f.dispatcher.events) != 1 {
		t.Fatalf("expected one reminder, got %d", len(f.dispatcher.events))
	}
	ev := f.dispatcher.events[0]
	if ev.Type != notification.TypeAbsenceRequestReminder || ev.ForRole != member.RoleProjectLead || ev.Payload["pending_count"] != "2" {
		t.Fatalf("unexpected reminder %+v", ev)
	}
}
