package assignment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

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

type fakeAssignmentRepo struct {
	items   map[string]*Assignment
	members map[string]bool
	locked  []string
}

func newFakeAssignmentRepo(memberIDs ...string) *fakeAssignmentRepo {
	r := &fakeAssignmentRepo{items: make(map[string]*Assignment), members: make(map[string]bool)}
	for _, id := range memberIDs {
		r.members[id] = true
	}
	return r
}

func (r *fakeAssignmentRepo) Create(_ context.Context, a *Assignment) (*Assignment, error) {
	if _, ok := r.items[a.ID]; ok {
		return nil, fmt.Errorf("duplicate id %s", a.ID)
	}
	r.items[a.ID] = a.Clone()
	return a.Clone(), nil
}

func (r *fakeAssignmentRepo) Update(_ context.Context, a *Assignment) (*Assignment, error) {
	stored, ok := r.items[a.ID]
	if !ok {
		return nil, ErrAssignmentNotFound
	}
	if stored.Version != a.Version {
		return nil, ErrVersionConflict
	}
	next := a.Clone()
	next.Version++
	r.items[a.ID] = next
	return next.Clone(), nil
}

func (r *fakeAssignmentRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return ErrAssignmentNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *fakeAssignmentRepo) FindByID(_ context.Context, id string) (*Assignment, error) {
	a, ok := r.items[id]
	if !ok {
		return nil, ErrAssignmentNotFound
	}
	return a.Clone(), nil
}

func (r *fakeAssignmentRepo) List(_ context.Context, filter ListFilter) ([]*Assignment, error) {
	var result []*Assignment
	for _, a := range r.items {
		if filter.MemberID != "" && a.MemberID != filter.MemberID {
			continue
		}
		if filter.ProjectID != "" && a.ProjectID != filter.ProjectID {
			continue
		}
		if filter.PhaseID != "" && a.PhaseID != filter.PhaseID {
			continue
		}
		if filter.Range != nil && !anyDateIn(a.Dates, *filter.Range) {
			continue
		}
		result = append(result, a.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if c := result[i].Dates[0].Compare(result[j].Dates[0]); c != 0 {
			return c < 0
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func anyDateIn(dates []calendar.Date, rng calendar.Range) bool {
	for _, d := range dates {
		if rng.Contains(d) {
			return true
		}
	}
	return false
}

func (r *fakeAssignmentRepo) CountByMember(_ context.Context, memberID string) (int, error) {
	n := 0
	for _, a := range r.items {
		if a.MemberID == memberID {
			n++
		}
	}
	return n, nil
}

func (r *fakeAssignmentRepo) LockMember(_ context.Context, memberID string) error {
	if !r.members[memberID] {
		return member.ErrMemberNotFound
	}
	r.locked = append(r.locked, memberID)
	return nil
}

type checkCall struct {
	memberID  string
	dates     []calendar.Date
	excludeID string
}

type stubChecker struct {
	calls     []checkCall
	conflicts []conflict.Conflict
}

func (c *stubChecker) CheckConflicts(_ context.Context, memberID string, dates []calendar.Date, excludeID string) ([]conflict.Conflict, error) {
	c.calls = append(c.calls, checkCall{memberID: memberID, dates: dates, excludeID: excludeID})
	return c.conflicts, nil
}

type recordingDispatcher struct {
	events []notification.Event
}

func (d *recordingDispatcher) Dispatch(_ context.Context, events ...notification.Event) ([]*notification.Notification, error) {
	d.events = append(d.events, events...)
	return nil, nil
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("as-%d", n)
	}
}

func newTestService(repo *fakeAssignmentRepo, checker *stubChecker, opts ...Option) *Service {
	clk := &stubClock{now: time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithIDGenerator(sequentialIDs())}, opts...)
	return NewService(repo, checker, clk, nil, opts...)
}

func TestService_CreateAssignment_SortsAndDeduplicatesDates(t *testing.T) {
	t.Parallel()

	repo := newFakeAssignmentRepo("m-1")
	checker := &stubChecker{}
	dispatcher := &recordingDispatcher{}
	svc := newTestService(repo, checker, WithDispatcher(dispatcher))

	dates, err := calendar.ParseAll([]string{"2025-01-20", "2025-01-22", "2025-01-21", "2025-01-22"})
	if err != nil {
		t.Fatalf("ParseAll returned error: %v", err)
	}
	res, err := svc.CreateAssignment(context.Background(), CreateAssignmentInput{
		MemberID: "m-1", ProjectID: "p-1", PhaseID: "ph-1", Dates: dates, ProjectRole: " Editor ",
	})
	if err != nil {
		t.Fatalf("CreateAssignment returned error: %v", err)
	}

	got := calendar.Strings(res.Assignment.Dates)
	want := []string{"2025-01-20", "2025-01-21", "2025-01-22"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if stored := calendar.Strings(repo.items["as-1"].Dates); fmt.Sprint(stored) != fmt.Sprint(want) {
		t.Fatalf("stored dates %v", stored)
	}
	if res.Assignment.ProjectRole != "Editor" {
		t.Fatalf("project role not trimmed: %q", res.Assignment.ProjectRole)
	}
	if len(repo.locked) != 1 || repo.locked[0] != "m-1" {
		t.Fatalf("member row must be locked before the conflict check, got %v", repo.locked)
	}
	if len(checker.calls) != 1 || len(checker.calls[0].dates) != 3 || checker.calls[0].excludeID != "" {
		t.Fatalf("unexpected checker calls %+v", checker.calls)
	}
	if len(dispatcher.events) != 1 || dispatcher.events[0].Type != notification.TypeAssignmentCreated || dispatcher.events[0].MemberID != "m-1" {
		t.Fatalf("unexpected events %+v", dispatcher.events)
	}
	if dispatcher.events[0].Payload["start_date"] != "2025-01-20" || dispatcher.events[0].Payload["end_date"] != "2025-01-22" {
		t.Fatalf("unexpected event payload %+v", dispatcher.events[0].Payload)
	}
}

func TestService_CreateAssignment_ConflictsAreAdvisory(t *testing.T) {
	t.Parallel()

	repo := newFakeAssignmentRepo("m-1")
	day := calendar.MustParse("2025-01-25")
	checker := &stubChecker{conflicts: []conflict.Conflict{{Date: day, Type: conflict.TypeNonWorking}}}
	svc := newTestService(repo, checker)

	res, err := svc.CreateAssignment(context.Background(), CreateAssignmentInput{MemberID: "m-1", ProjectID: "p-1", Dates: []calendar.Date{day}})
	if err != nil {
		t.Fatalf("CreateAssignment returned error: %v", err)
	}
	if len(res.Conflicts) != 1 || res.Conflicts[0].Type != conflict.TypeNonWorking {
		t.Fatalf("expected conflict to be reported, got %+v", res.Conflicts)
	}
	if _, ok := repo.items[res.Assignment.ID]; !ok {
		t.Fatalf("assignment must be created despite conflicts")
	}
}

func TestService_CreateAssignment_Validation(t *testing.T) {
	t.Parallel()

	svc := newTestService(newFakeAssignmentRepo("m-1"), &stubChecker{})
	ctx := context.Background()
	day := []calendar.Date{calendar.MustParse("2025-01-20")}

	cases := []struct {
		name string
		in   CreateAssignmentInput
		want error
	}{
		{"missing member", CreateAssignmentInput{ProjectID: "p-1", Dates: day}, ErrInvalidMemberID},
		{"missing project", CreateAssignmentInput{MemberID: "m-1", Dates: day}, ErrInvalidProjectID},
		{"no dates", CreateAssignmentInput{MemberID: "m-1", ProjectID: "p-1"}, ErrInvalidDates},
		{"zero date", CreateAssignmentInput{MemberID: "m-1", ProjectID: "p-1", Dates: []calendar.Date{{}}}, ErrInvalidDates},
		{"bad slot", CreateAssignmentInput{MemberID: "m-1", ProjectID: "p-1", Dates: day, TimeSlots: []calendar.TimeRange{{Start: 600, End: 540}}}, ErrInvalidTimeSlot},
		{"unknown member", CreateAssignmentInput{MemberID: "ghost", ProjectID: "p-1", Dates: day}, member.ErrMemberNotFound},
	}
	for _, tc := range cases {
		if _, err := svc.CreateAssignment(ctx, tc.in); !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestService_UpdateAssignment_RechecksOnlyWhenDatesChange(t *testing.T) {
	t.Parallel()

	repo := newFakeAssignmentRepo("m-1")
	checker := &stubChecker{}
	svc := newTestService(repo, checker)
	ctx := context.Background()

	original := []calendar.Date{calendar.MustParse("2025-01-20"), calendar.MustParse("2025-01-21")}
	res, err := svc.CreateAssignment(ctx, CreateAssignmentInput{MemberID: "m-1", ProjectID: "p-1", Dates: original})
	if err != nil {
		t.Fatalf("CreateAssignment returned error: %v", err)
	}

	note := "Schnitt"
	same := []calendar.Date{original[1], original[0]}
	updated, err := svc.UpdateAssignment(ctx, UpdateAssignmentInput{ID: res.Assignment.ID, Note: &note, Dates: &same})
	if err != nil {
		t.Fatalf("UpdateAssignment returned error: %v", err)
	}
	if len(checker.calls) != 1 {
		t.Fatalf("unchanged dates must not trigger a conflict check, got %d calls", len(checker.calls))
	}
	if updated.Assignment.Note != note || updated.Assignment.Version != 2 {
		t.Fatalf("unexpected update %+v", updated.Assignment)
	}

	moved := []calendar.Date{calendar.MustParse("2025-01-23")}
	checker.conflicts = []conflict.Conflict{{Date: moved[0], Type: conflict.TypeAssignment}}
	updated, err = svc.UpdateAssignment(ctx, UpdateAssignmentInput{ID: res.Assignment.ID, Dates: &moved})
	if err != nil {
		t.Fatalf("UpdateAssignment returned error: %v", err)
	}
	if len(checker.calls) != 2 || checker.calls[1].excludeID != res.Assignment.ID {
		t.Fatalf("expected recheck excluding itself, got %+v", checker.calls)
	}
	if len(updated.Conflicts) != 1 || updated.Assignment.Dates[0] != moved[0] {
		t.Fatalf("unexpected result %+v", updated)
	}

	stale := int64(1)
	if _, err := svc.UpdateAssignment(ctx, UpdateAssignmentInput{ID: res.Assignment.ID, ExpectedVersion: &stale, Note: &note}); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestService_Queries(t *testing.T) {
	t.Parallel()

	repo := newFakeAssignmentRepo("m-1", "m-2")
	svc := newTestService(repo, &stubChecker{})
	ctx := context.Background()

	inputs := []CreateAssignmentInput{
		{MemberID: "m-1", ProjectID: "p-1", PhaseID: "ph-1", Dates: []calendar.Date{calendar.MustParse("2025-01-20"), calendar.MustParse("2025-01-22")}},
		{MemberID: "m-1", ProjectID: "p-2", PhaseID: "ph-2", Dates: []calendar.Date{calendar.MustParse("2025-01-27")}},
		{MemberID: "m-2", ProjectID: "p-1", PhaseID: "ph-1", Dates: []calendar.Date{calendar.MustParse("2025-01-21")}},
	}
	for _, in := range inputs {
		if _, err := svc.CreateAssignment(ctx, in); err != nil {
			t.Fatalf("CreateAssignment returned error: %v", err)
		}
	}

	if got, _ := svc.ForProject(ctx, "p-1"); len(got) != 2 {
		t.Fatalf("expected 2 assignments for p-1, got %d", len(got))
	}
	if got, _ := svc.ForPhase(ctx, "ph-2"); len(got) != 1 || got[0].ID != "as-2" {
		t.Fatalf("unexpected phase result %+v", got)
	}
	week, _ := calendar.NewRange(calendar.MustParse("2025-01-20"), calendar.MustParse("2025-01-24"))
	if got, _ := svc.ForMember(ctx, "m-1", &week); len(got) != 1 || got[0].ID != "as-1" {
		t.Fatalf("unexpected member result %+v", got)
	}

	on, err := svc.AssignmentOnDate(ctx, "m-1", calendar.MustParse("2025-01-22"))
	if err != nil || on == nil || on.ID != "as-1" {
		t.Fatalf("expected as-1, got %+v (%v)", on, err)
	}
	gap, err := svc.AssignmentOnDate(ctx, "m-1", calendar.MustParse("2025-01-21"))
	if err != nil || gap != nil {
		t.Fatalf("expected no assignment between dates, got %+v (%v)", gap, err)
	}

	lookup := NewLookup(repo, nil)
	ref, err := lookup.CoveringAssignment(ctx, "m-1", calendar.MustParse("2025-01-22"), "")
	if err != nil || ref == nil || ref.ProjectID != "p-1" {
		t.Fatalf("unexpected lookup %+v (%v)", ref, err)
	}
	ref, err = lookup.CoveringAssignment(ctx, "m-1", calendar.MustParse("2025-01-22"), "as-1")
	if err != nil || ref != nil {
		t.Fatalf("excluded assignment must be skipped, got %+v (%v)", ref, err)
	}

	if err := svc.RemoveAssignment(ctx, "as-1"); err != nil {
		t.Fatalf("RemoveAssignment returned error: %v", err)
	}
	if _, err := svc.GetAssignment(ctx, "as-1"); !errors.Is(err, ErrAssignmentNotFound) {
		t.Fatalf("expected ErrAssignmentNotFound, got %v", err)
	}
}
