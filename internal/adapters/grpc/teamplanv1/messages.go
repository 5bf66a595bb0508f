package teamplanv1

// 日付は YYYY-MM-DD、時刻は HH:MM の文字列で送受信します。

// TimeRange は 1 日の中の時間帯です。
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Member はチームメンバーです。
type Member struct {
	ID                  string          `json:"id"`
	AgencyID            string          `json:"agency_id"`
	Name                string          `json:"name"`
	Email               string          `json:"email,omitempty"`
	Phone               string          `json:"phone,omitempty"`
	Position            string          `json:"position,omitempty"`
	Professions         []string        `json:"professions,omitempty"`
	Skills              []string        `json:"skills,omitempty"`
	EmploymentType      string          `json:"employment_type"`
	WorkingDays         []string        `json:"working_days"`
	WorkingHours        TimeRange       `json:"working_hours"`
	Role                string          `json:"role"`
	PermissionOverrides map[string]bool `json:"permission_overrides,omitempty"`
	IsActive            bool            `json:"is_active"`
	CreatedAt           string          `json:"created_at"`
	UpdatedAt           string          `json:"updated_at"`
	Version             int64           `json:"version"`
}

type CreateMemberRequest struct {
	AgencyID            string          `json:"agency_id"`
	Name                string          `json:"name"`
	Email               string          `json:"email,omitempty"`
	Phone               string          `json:"phone,omitempty"`
	Position            string          `json:"position,omitempty"`
	Professions         []string        `json:"professions,omitempty"`
	Skills              []string        `json:"skills,omitempty"`
	EmploymentType      string          `json:"employment_type,omitempty"`
	WorkingDays         []string        `json:"working_days,omitempty"`
	WorkingHours        *TimeRange      `json:"working_hours,omitempty"`
	Role                string          `json:"role,omitempty"`
	PermissionOverrides map[string]bool `json:"permission_overrides,omitempty"`
}

// UpdateMemberRequest は部分更新です。nil の項目は変更しません。
type UpdateMemberRequest struct {
	ID                  string           `json:"id"`
	ExpectedVersion     *int64           `json:"expected_version,omitempty"`
	Name                *string          `json:"name,omitempty"`
	Email               *string          `json:"email,omitempty"`
	Phone               *string          `json:"phone,omitempty"`
	Position            *string          `json:"position,omitempty"`
	Professions         *[]string        `json:"professions,omitempty"`
	Skills              *[]string        `json:"skills,omitempty"`
	EmploymentType      *string          `json:"employment_type,omitempty"`
	WorkingDays         *[]string        `json:"working_days,omitempty"`
	WorkingHours        *TimeRange       `json:"working_hours,omitempty"`
	Role                *string          `json:"role,omitempty"`
	PermissionOverrides *map[string]bool `json:"permission_overrides,omitempty"`
}

type MemberIDRequest struct {
	ID string `json:"id"`
}

type MemberResponse struct {
	Member *Member `json:"member"`
}

// ListMembersRequest はいずれか 1 つの条件で絞り込みます。優先順位は query, role, profession, 有効メンバー全件です。
type ListMembersRequest struct {
	AgencyID   string `json:"agency_id"`
	Query      string `json:"query,omitempty"`
	Role       string `json:"role,omitempty"`
	Profession string `json:"profession,omitempty"`
}

type ListMembersResponse struct {
	Members []*Member `json:"members"`
}

type PermissionOverrideRequest struct {
	MemberID string `json:"member_id"`
	Key      string `json:"key"`
	Value    *bool  `json:"value,omitempty"`
}

type Empty struct{}

// Conflict は 1 日分のスケジュール衝突です。
type Conflict struct {
	Date         string `json:"date"`
	Type         string `json:"type"`
	Weekday      string `json:"weekday,omitempty"`
	HolidayName  string `json:"holiday_name,omitempty"`
	AbsenceID    string `json:"absence_id,omitempty"`
	AbsenceType  string `json:"absence_type,omitempty"`
	AbsenceStart string `json:"absence_start,omitempty"`
	AbsenceEnd   string `json:"absence_end,omitempty"`
	AssignmentID string `json:"assignment_id,omitempty"`
	ProjectID    string `json:"project_id,omitempty"`
	PhaseID      string `json:"phase_id,omitempty"`
}

// Absence は確定した不在です。
type Absence struct {
	ID        string     `json:"id"`
	MemberID  string     `json:"member_id"`
	Type      string     `json:"type"`
	StartDate string     `json:"start_date"`
	EndDate   string     `json:"end_date"`
	IsPartial bool       `json:"is_partial"`
	Partial   *TimeRange `json:"partial,omitempty"`
	Note      string     `json:"note,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
	CreatedAt string     `json:"created_at"`
	UpdatedAt string     `json:"updated_at"`
	Version   int64      `json:"version"`
}

type AddAbsenceRequest struct {
	MemberID  string     `json:"member_id"`
	Type      string     `json:"type"`
	StartDate string     `json:"start_date"`
	EndDate   string     `json:"end_date"`
	IsPartial bool       `json:"is_partial,omitempty"`
	Partial   *TimeRange `json:"partial,omitempty"`
	Note      string     `json:"note,omitempty"`
}

type UpdateAbsenceRequest struct {
	ID              string     `json:"id"`
	ExpectedVersion *int64     `json:"expected_version,omitempty"`
	Type            *string    `json:"type,omitempty"`
	StartDate       *string    `json:"start_date,omitempty"`
	EndDate         *string    `json:"end_date,omitempty"`
	IsPartial       *bool      `json:"is_partial,omitempty"`
	Partial         *TimeRange `json:"partial,omitempty"`
	Note            *string    `json:"note,omitempty"`
}

// AbsenceResponse の Warnings は割り当てとの重なりで、保存は成功しています。
type AbsenceResponse struct {
	Absence  *Absence   `json:"absence"`
	Warnings []Conflict `json:"warnings,omitempty"`
}

type AbsenceIDRequest struct {
	ID string `json:"id"`
}

type GetAbsenceResponse struct {
	Absence *Absence `json:"absence"`
}

// ListAbsencesRequest は member_id が空なら期間内の全メンバーの不在を返します。その場合 start と end は必須です。
type ListAbsencesRequest struct {
	MemberID string `json:"member_id,omitempty"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
}

type ListAbsencesResponse struct {
	Absences []*Absence `json:"absences"`
}

type ListOverlapsRequest struct {
	MemberID string `json:"member_id"`
}

type Overlap struct {
	First  *Absence `json:"first"`
	Second *Absence `json:"second"`
}

type ListOverlapsResponse struct {
	Overlaps []Overlap `json:"overlaps"`
}

// Assignment は日単位のプロジェクト割り当てです。
type Assignment struct {
	ID          string      `json:"id"`
	MemberID    string      `json:"member_id"`
	ProjectID   string      `json:"project_id"`
	PhaseID     string      `json:"phase_id,omitempty"`
	Dates       []string    `json:"dates"`
	TimeSlots   []TimeRange `json:"time_slots,omitempty"`
	ProjectRole string      `json:"project_role,omitempty"`
	Note        string      `json:"note,omitempty"`
	CreatedAt   string      `json:"created_at"`
	UpdatedAt   string      `json:"updated_at"`
	Version     int64       `json:"version"`
}

type CreateAssignmentRequest struct {
	MemberID    string      `json:"member_id"`
	ProjectID   string      `json:"project_id"`
	PhaseID     string      `json:"phase_id,omitempty"`
	Dates       []string    `json:"dates"`
	TimeSlots   []TimeRange `json:"time_slots,omitempty"`
	ProjectRole string      `json:"project_role,omitempty"`
	Note        string      `json:"note,omitempty"`
}

type UpdateAssignmentRequest struct {
	ID              string       `json:"id"`
	ExpectedVersion *int64       `json:"expected_version,omitempty"`
	ProjectID       *string      `json:"project_id,omitempty"`
	PhaseID         *string      `json:"phase_id,omitempty"`
	Dates           *[]string    `json:"dates,omitempty"`
	TimeSlots       *[]TimeRange `json:"time_slots,omitempty"`
	ProjectRole     *string      `json:"project_role,omitempty"`
	Note            *string      `json:"note,omitempty"`
}

// AssignmentResponse の Conflicts は警告であり、割り当ては保存されています。
type AssignmentResponse struct {
	Assignment *Assignment `json:"assignment"`
	Conflicts  []Conflict  `json:"conflicts,omitempty"`
}

type AssignmentIDRequest struct {
	ID string `json:"id"`
}

type GetAssignmentResponse struct {
	Assignment *Assignment `json:"assignment"`
}

// ListAssignmentsRequest は member_id, project_id, phase_id のいずれか 1 つを指定します。
type ListAssignmentsRequest struct {
	MemberID  string `json:"member_id,omitempty"`
	ProjectID string `json:"project_id,omitempty"`
	PhaseID   string `json:"phase_id,omitempty"`
	Start     string `json:"start,omitempty"`
	End       string `json:"end,omitempty"`
}

type ListAssignmentsResponse struct {
	Assignments []*Assignment `json:"assignments"`
}

// AbsenceRequest は不在申請です。
type AbsenceRequest struct {
	ID              string     `json:"id"`
	MemberID        string     `json:"member_id"`
	Type            string     `json:"type"`
	StartDate       string     `json:"start_date"`
	EndDate         string     `json:"end_date"`
	IsPartial       bool       `json:"is_partial"`
	Partial         *TimeRange `json:"partial,omitempty"`
	Reason          string     `json:"reason,omitempty"`
	Status          string     `json:"status"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	ReviewedAt      string     `json:"reviewed_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	AbsenceID       string     `json:"absence_id,omitempty"`
	CreatedAt       string     `json:"created_at"`
	UpdatedAt       string     `json:"updated_at"`
	Version         int64      `json:"version"`
}

type CreateRequestRequest struct {
	MemberID  string     `json:"member_id"`
	Type      string     `json:"type"`
	StartDate string     `json:"start_date"`
	EndDate   string     `json:"end_date"`
	IsPartial bool       `json:"is_partial,omitempty"`
	Partial   *TimeRange `json:"partial,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

type ReviewRequestRequest struct {
	ID         string `json:"id"`
	ReviewerID string `json:"reviewer_id"`
	Reason     string `json:"reason,omitempty"`
}

type RequestIDRequest struct {
	ID string `json:"id"`
}

// RequestOutcome は申請操作の結果です。承認時のみ Absence が埋まります。
type RequestOutcome struct {
	Request   *AbsenceRequest `json:"request"`
	Absence   *Absence        `json:"absence,omitempty"`
	Conflicts []Conflict      `json:"conflicts,omitempty"`
}

type GetRequestResponse struct {
	Request *AbsenceRequest `json:"request"`
}

type ListRequestsRequest struct {
	MemberID string `json:"member_id,omitempty"`
	Status   string `json:"status,omitempty"`
}

type ListRequestsResponse struct {
	Requests []*AbsenceRequest `json:"requests"`
}

type CountResponse struct {
	Count int `json:"count"`
}

type CheckConflictsRequest struct {
	MemberID            string   `json:"member_id"`
	Dates               []string `json:"dates"`
	ExcludeAssignmentID string   `json:"exclude_assignment_id,omitempty"`
}

type CheckConflictsResponse struct {
	Conflicts []Conflict `json:"conflicts"`
}

type DayStatusesRequest struct {
	MemberID string `json:"member_id"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

type DayStatus struct {
	Date   string `json:"date"`
	Status string `json:"status"`
}

type DayStatusesResponse struct {
	Days []DayStatus `json:"days"`
}

type UtilizationRequest struct {
	MemberID string `json:"member_id,omitempty"`
	AgencyID string `json:"agency_id,omitempty"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

// UtilizationReport は 1 メンバーの稼働率です。
type UtilizationReport struct {
	MemberID      string `json:"member_id"`
	MemberName    string `json:"member_name"`
	Start         string `json:"start"`
	End           string `json:"end"`
	WorkingDays   int    `json:"working_days"`
	AvailableDays int    `json:"available_days"`
	AssignedDays  int    `json:"assigned_days"`
	AbsentDays    int    `json:"absent_days"`
	Percentage    int    `json:"percentage"`
}

type TeamUtilizationResponse struct {
	Start             string              `json:"start"`
	End               string              `json:"end"`
	Members           []UtilizationReport `json:"members"`
	WorkingDays       int                 `json:"working_days"`
	AvailableDays     int                 `json:"available_days"`
	AssignedDays      int                 `json:"assigned_days"`
	AbsentDays        int                 `json:"absent_days"`
	AveragePercentage int                 `json:"average_percentage"`
}

// ProjectPermissions は呼び出し側のプロジェクト管理が持つ上書きです。
type ProjectPermissions struct {
	Defaults        map[string]bool            `json:"defaults,omitempty"`
	MemberOverrides map[string]map[string]bool `json:"member_overrides,omitempty"`
}

type ResolvePermissionRequest struct {
	MemberID string              `json:"member_id"`
	Key      string              `json:"key,omitempty"`
	Project  *ProjectPermissions `json:"project,omitempty"`
}

type PermissionDecision struct {
	Key     string `json:"key"`
	Allowed bool   `json:"allowed"`
	Level   string `json:"level"`
}

type ResolvePermissionResponse struct {
	Decision PermissionDecision `json:"decision"`
}

type EffectivePermissionsResponse struct {
	Decisions []PermissionDecision `json:"decisions"`
}

// AgencySettings はエージェンシー単位の既定値です。Version 0 は未保存を表します。
type AgencySettings struct {
	AgencyID           string          `json:"agency_id"`
	WorkingDays        []string        `json:"working_days"`
	WorkingHours       TimeRange       `json:"working_hours"`
	HolidayRegion      string          `json:"holiday_region,omitempty"`
	PermissionDefaults map[string]bool `json:"permission_defaults,omitempty"`
	UpdatedAt          string          `json:"updated_at,omitempty"`
	Version            int64           `json:"version"`
}

type AgencyIDRequest struct {
	AgencyID string `json:"agency_id"`
}

type UpdateAgencySettingsRequest struct {
	AgencyID        string     `json:"agency_id"`
	ExpectedVersion *int64     `json:"expected_version,omitempty"`
	WorkingDays     *[]string  `json:"working_days,omitempty"`
	WorkingHours    *TimeRange `json:"working_hours,omitempty"`
	HolidayRegion   *string    `json:"holiday_region,omitempty"`
}

// AgencyPermissionDefaultRequest の Value が nil の場合は既定値を削除します。
type AgencyPermissionDefaultRequest struct {
	AgencyID string `json:"agency_id"`
	Key      string `json:"key"`
	Value    *bool  `json:"value,omitempty"`
}

type AgencySettingsResponse struct {
	Settings *AgencySettings `json:"settings"`
}

// Notification は追記専用の通知です。
type Notification struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	ForRole   string            `json:"for_role,omitempty"`
	MemberID  string            `json:"member_id,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Payload   map[string]string `json:"payload,omitempty"`
	Read      bool              `json:"read"`
	CreatedAt string            `json:"created_at"`
}

type NotificationFilter struct {
	ForRole    string `json:"for_role,omitempty"`
	MemberID   string `json:"member_id,omitempty"`
	UnreadOnly bool   `json:"unread_only,omitempty"`
}

type ListNotificationsResponse struct {
	Notifications []*Notification `json:"notifications"`
}

type NotificationIDRequest struct {
	ID string `json:"id"`
}

type NotificationResponse struct {
	Notification *Notification `json:"notification"`
}
