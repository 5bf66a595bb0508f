package permission

import (
	"sort"
	"strings"
)

// Key は権限を識別するキーです。
type Key string

const (
	KeyCanSeeBudget       Key = "canSeeBudget"
	KeyCanSeeRates        Key = "canSeeRates"
	KeyCanEditProject     Key = "canEditProject"
	KeyCanManageTeam      Key = "canManageTeam"
	KeyCanBookFreelancers Key = "canBookFreelancers"
	KeyCanEditSchedule    Key = "canEditSchedule"
	KeyCanSeeSchedule     Key = "canSeeSchedule"
	KeyCanRequestAbsence  Key = "canRequestAbsence"
	KeyCanApproveAbsence  Key = "canApproveAbsence"
	KeyCanSeeUtilization  Key = "canSeeUtilization"
)

var systemDefaults = map[Key]bool{
	KeyCanSeeBudget:       false,
	KeyCanSeeRates:        false,
	KeyCanEditProject:     false,
	KeyCanManageTeam:      false,
	KeyCanBookFreelancers: false,
	KeyCanEditSchedule:    true,
	KeyCanSeeSchedule:     true,
	KeyCanRequestAbsence:  true,
	KeyCanApproveAbsence:  false,
	KeyCanSeeUtilization:  false,
}

// Level は権限値がどの階層で決定されたかを表します。
type Level string

const (
	LevelRole           Level = "role"
	LevelProjectMember  Level = "project_member"
	LevelProjectDefault Level = "project_default"
	LevelMember         Level = "member"
	LevelAgency         Level = "agency"
	LevelSystem         Level = "system"
)

// Overrides は疎な権限上書きです。キーが存在しない場合は「未設定」であり false とは区別されます。
type Overrides map[Key]bool

// Lookup は値と設定有無を返します。nil でも安全に呼び出せます。
func (o Overrides) Lookup(key Key) (value bool, ok bool) {
	if o == nil {
		return false, false
	}
	value, ok = o[key]
	return value, ok
}

// Clone は複製を返します。nil は nil のままです。
func (o Overrides) Clone() Overrides {
	if o == nil {
		return nil
	}
	out := make(Overrides, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}

// ProjectPermissions は外部のプロジェクト管理から渡されるプロジェクト単位の上書きです。
type ProjectPermissions struct {
	Defaults        Overrides
	MemberOverrides map[string]Overrides
}

// Subject は権限判定の対象となるメンバーの最小限のビューです。
type Subject struct {
	MemberID      string
	IsProjectLead bool
	Overrides     Overrides
}

// Decision は 1 つのキーに対する判定結果です。
type Decision struct {
	Key     Key
	Allowed bool
	Level   Level
}

// Resolve は優先順位に従って実効権限を返します。project と agency は省略可能です。
func Resolve(key Key, subject Subject, project *ProjectPermissions, agency Overrides) bool {
	allowed, _ := resolve(key, subject, project, agency)
	return allowed
}

// Source は Resolve と同じ優先順位で、値を決定した階層を返します。
func Source(key Key, subject Subject, project *ProjectPermissions, agency Overrides) Level {
	_, level := resolve(key, subject, project, agency)
	return level
}

// Effective は既知のキーと各階層に現れたキーすべての判定結果をキー順に返します。
func Effective(subject Subject, project *ProjectPermissions, agency Overrides) []Decision {
	keys := make(map[Key]struct{}, len(systemDefaults))
	for k := range systemDefaults {
		keys[k] = struct{}{}
	}
	collect := func(o Overrides) {
		for k := range o {
			keys[k] = struct{}{}
		}
	}
	collect(subject.Overrides)
	collect(agency)
	if project != nil {
		collect(project.Defaults)
		collect(project.MemberOverrides[subject.MemberID])
	}

	decisions := make([]Decision, 0, len(keys))
	for k := range keys {
		allowed, level := resolve(k, subject, project, agency)
		decisions = append(decisions, Decision{Key: k, Allowed: allowed, Level: level})
	}
	sort.Slice(decisions, func(i, j int) bool { return decisions[i].Key < decisions[j].Key })
	return decisions
}

// SystemDefault はシステム既定値を返します。未知のキーは false です。
func SystemDefault(key Key) bool {
	return systemDefaults[key]
}

// KnownKeys はシステム既定値を持つキーをソートして返します。
func KnownKeys() []Key {
	keys := make([]Key, 0, len(systemDefaults))
	for k := range systemDefaults {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// ParseKey は空白を取り除いたキーを返します。空文字列は ErrInvalidKey です。
func ParseKey(raw string) (Key, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidKey
	}
	return Key(trimmed), nil
}

func resolve(key Key, subject Subject, project *ProjectPermissions, agency Overrides) (bool, Level) {
	if subject.IsProjectLead {
		return true, LevelRole
	}
	if project != nil {
		if v, ok := project.MemberOverrides[subject.MemberID].Lookup(key); ok {
			return v, LevelProjectMember
		}
		if v, ok := project.Defaults.Lookup(key); ok {
			return v, LevelProjectDefault
		}
	}
	if v, ok := subject.Overrides.Lookup(key); ok {
		return v, LevelMember
	}
	if v, ok := agency.Lookup(key); ok {
		return v, LevelAgency
	}
	return systemDefaults[key], LevelSystem
}
