package notification

import (
	"time"

	"github.com/ogurasousui/teamplan/internal/core/member"
)

// Type は通知の種類です。
type Type string

const (
	TypeAbsenceRequestNew      Type = "absence_request_new"
	TypeAbsenceRequestApproved Type = "absence_request_approved"
	TypeAbsenceRequestRejected Type = "absence_request_rejected"
	TypeAbsenceRequestReminder Type = "absence_request_reminder"
	TypeAssignmentCreated      Type = "assignment_created"
)

// Event はユースケースが返すドメインイベントです。Dispatch で通知として永続化されます。
type Event struct {
	Type      Type
	ForRole   member.Role
	MemberID  string
	RequestID string
	Payload   map[string]string
}

// Notification は追記専用の通知です。作成後に変化するのは Read だけです。
type Notification struct {
	ID        string
	Type      Type
	ForRole   member.Role
	MemberID  string
	RequestID string
	Payload   map[string]string
	Read      bool
	CreatedAt time.Time
}

// Clone は複製を返します。
func (n *Notification) Clone() *Notification {
	if n == nil {
		return nil
	}
	c := *n
	if n.Payload != nil {
		c.Payload = make(map[string]string, len(n.Payload))
		for k, v := range n.Payload {
			c.Payload[k] = v
		}
	}
	return &c
}

// Filter は通知の絞り込み条件です。ゼロ値の項目は使わず、指定した項目はすべて満たす必要があります。
type Filter struct {
	ForRole    member.Role
	MemberID   string
	UnreadOnly bool
}

// Matches は n が条件を満たすかどうかを返します。
func (f Filter) Matches(n *Notification) bool {
	if f.ForRole != "" && n.ForRole != f.ForRole {
		return false
	}
	if f.MemberID != "" && n.MemberID != f.MemberID {
		return false
	}
	if f.UnreadOnly && n.Read {
		return false
	}
	return true
}
