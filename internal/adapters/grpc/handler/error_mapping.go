package handler

import (
	"errors"

	"github.com/ogurasousui/teamplan/internal/core/absence"
	"github.com/ogurasousui/teamplan/internal/core/access"
	"github.com/ogurasousui/teamplan/internal/core/agency"
	"github.com/ogurasousui/teamplan/internal/core/assignment"
	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/conflict"
	"github.com/ogurasousui/teamplan/internal/core/member"
	"github.com/ogurasousui/teamplan/internal/core/notification"
	"github.com/ogurasousui/teamplan/internal/core/permission"
	"github.com/ogurasousui/teamplan/internal/core/request"
	"github.com/ogurasousui/teamplan/internal/core/utilization"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var invalidArgumentErrors = []error{
	calendar.ErrInvalidDate,
	calendar.ErrInvalidRange,
	calendar.ErrInvalidTime,
	calendar.ErrInvalidTimeRange,
	calendar.ErrInvalidWeekday,
	calendar.ErrUnknownRegion,
	permission.ErrInvalidKey,
	member.ErrInvalidID,
	member.ErrInvalidAgencyID,
	member.ErrInvalidName,
	member.ErrInvalidEmail,
	member.ErrInvalidRole,
	member.ErrInvalidEmploymentType,
	member.ErrInvalidWorkingDays,
	member.ErrInvalidWorkingHours,
	agency.ErrInvalidAgencyID,
	agency.ErrInvalidWorkingDays,
	agency.ErrInvalidWorkingHours,
	agency.ErrInvalidHolidayRegion,
	absence.ErrInvalidID,
	absence.ErrInvalidMemberID,
	absence.ErrInvalidType,
	absence.ErrInvalidRange,
	absence.ErrRangeTooLong,
	absence.ErrInvalidPartialHours,
	assignment.ErrInvalidID,
	assignment.ErrInvalidMemberID,
	assignment.ErrInvalidProjectID,
	assignment.ErrInvalidDates,
	assignment.ErrInvalidTimeSlot,
	conflict.ErrInvalidMemberID,
	request.ErrInvalidID,
	request.ErrInvalidMemberID,
	request.ErrInvalidType,
	request.ErrInvalidRange,
	request.ErrRangeTooLong,
	request.ErrInvalidPartialHours,
	request.ErrInvalidReviewer,
	request.ErrInvalidStatus,
	utilization.ErrInvalidMemberID,
	utilization.ErrInvalidRange,
	utilization.ErrRangeTooLong,
	access.ErrInvalidMemberID,
	notification.ErrInvalidID,
	notification.ErrInvalidType,
	notification.ErrNoRecipient,
}

var notFoundErrors = []error{
	member.ErrMemberNotFound,
	absence.ErrAbsenceNotFound,
	assignment.ErrAssignmentNotFound,
	request.ErrRequestNotFound,
	notification.ErrNotificationNotFound,
	agency.ErrSettingsNotFound,
}

var versionConflictErrors = []error{
	member.ErrVersionConflict,
	agency.ErrVersionConflict,
	absence.ErrVersionConflict,
	assignment.ErrVersionConflict,
	request.ErrVersionConflict,
}

func toStatusError(err error) error {
	switch {
	case err == nil:
		return nil
	case isAny(err, invalidArgumentErrors):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, member.ErrEmailAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case isAny(err, notFoundErrors):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, member.ErrReferentialIntegrity), errors.Is(err, request.ErrInvalidState):
		return status.Error(codes.FailedPrecondition, err.Error())
	case isAny(err, versionConflictErrors):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, access.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
