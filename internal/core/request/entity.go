package request

import (
	"time"

	"github.com/ogurasousui/teamplan/internal/core/absence"
	"github.com/ogurasousui/teamplan/internal/core/calendar"
)

// Status は不在申請の状態です。approved と rejected は終端状態です。
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid は既知の状態かどうかを返します。
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Request はメンバーが提出する不在申請です。承認で生成された不在とは別エンティティで、AbsenceID で参照するだけです。
type Request struct {
	ID              string
	MemberID        string
	Type            absence.Type
	StartDate       calendar.Date
	EndDate         calendar.Date
	IsPartial       bool
	Partial         *calendar.TimeRange
	Reason          string
	Status          Status
	ReviewedBy      string
	ReviewedAt      *time.Time
	RejectionReason string
	AbsenceID       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
}

// Range は申請期間を返します。
func (r *Request) Range() calendar.Range {
	return calendar.Range{Start: r.StartDate, End: r.EndDate}
}

// IsPending は審査待ちかどうかを返します。
func (r *Request) IsPending() bool {
	return r != nil && r.Status == StatusPending
}

// Clone は複製を返します。
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	c := *r
	if r.Partial != nil {
		p := *r.Partial
		c.Partial = &p
	}
	if r.ReviewedAt != nil {
		at := *r.ReviewedAt
		c.ReviewedAt = &at
	}
	return &c
}
