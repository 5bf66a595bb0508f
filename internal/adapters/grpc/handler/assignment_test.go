package handler

import (
	"context"
	"testing"

	v1 "github.com/ogurasousui/teamplan/internal/adapters/grpc/teamplanv1"
	"github.com/ogurasousui/teamplan/internal/core/assignment"
	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type stubAssignmentUseCase struct {
	assignment.UseCase

	createInput assignment.CreateAssignmentInput
	called      string
	err         error
}

func (s *stubAssignmentUseCase) CreateAssignment(_ context.Context, in assignment.CreateAssignmentInput) (*assignment.Result, error) {
	s.createInput = in
	if s.err != nil {
		return nil, s.err
	}
	return &assignment.Result{Assignment: &assignment.Assignment{
		ID:        "asg-1",
		MemberID:  in.MemberID,
		ProjectID: in.ProjectID,
		Dates:     in.Dates,
		TimeSlots: in.TimeSlots,
	}}, nil
}

func (s *stubAssignmentUseCase) ForProject(context.Context, string) ([]*assignment.Assignment, error) {
	s.called = "project"
	return nil, s.err
}

func (s *stubAssignmentUseCase) ForPhase(context.Context, string) ([]*assignment.Assignment, error) {
	s.called = "phase"
	return nil, s.err
}

func TestAssignmentGrpcHandler_CreateAssignment(t *testing.T) {
	t.Parallel()

	stub := &stubAssignmentUseCase{}
	handler := NewAssignmentGrpcHandler(stub)

	resp, err := handler.CreateAssignment(context.Background(), &v1.CreateAssignmentRequest{
		MemberID:  "member-1",
		ProjectID: "proj-1",
		Dates:     []string{"2025-03-03", "2025-03-04"},
		TimeSlots: []v1.TimeRange{{Start: "09:00", End: "13:00"}},
	})
	if err != nil {
		t.Fatalf("CreateAssignment returned error: %v", err)
	}
	if len(stub.createInput.Dates) != 2 || stub.createInput.Dates[1] != calendar.MustParse("2025-03-04") {
		t.Errorf("unexpected dates %v", stub.createInput.Dates)
	}
	if len(resp.Assignment.TimeSlots) != 1 || resp.Assignment.TimeSlots[0].End != "13:00" {
		t.Errorf("unexpected time slots %+v", resp.Assignment.TimeSlots)
	}
	if resp.Conflicts != nil {
		t.Errorf("expected no conflicts, got %+v", resp.Conflicts)
	}

	if _, err := handler.CreateAssignment(context.Background(), &v1.CreateAssignmentRequest{MemberID: "member-1", ProjectID: "proj-1", TimeSlots: []v1.TimeRange{{Start: "25:00", End: "26:00"}}}); status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument for bad slot, got %v", err)
	}

	failing := NewAssignmentGrpcHandler(&stubAssignmentUseCase{err: assignment.ErrInvalidDates})
	if _, err := failing.CreateAssignment(context.Background(), &v1.CreateAssignmentRequest{MemberID: "member-1", ProjectID: "proj-1"}); status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument for empty dates, got %v", err)
	}
}

func TestAssignmentGrpcHandler_ListAssignments(t *testing.T) {
	t.Parallel()

	stub := &stubAssignmentUseCase{}
	handler := NewAssignmentGrpcHandler(stub)

	if _, err := handler.ListAssignments(context.Background(), &v1.ListAssignmentsRequest{ProjectID: "proj-1"}); err != nil || stub.called != "project" {
		t.Errorf("expected project listing, got %s %v", stub.called, err)
	}
	if _, err := handler.ListAssignments(context.Background(), &v1.ListAssignmentsRequest{PhaseID: "phase-1"}); err != nil || stub.called != "phase" {
		t.Errorf("expected phase listing, got %s %v", stub.called, err)
	}
	if _, err := handler.ListAssignments(context.Background(), &v1.ListAssignmentsRequest{}); status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
}
