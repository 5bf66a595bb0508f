package agency

import (
	"time"

	"github.com/ogurasousui/teamplan/internal/core/calendar"
	"github.com/ogurasousui/teamplan/internal/core/permission"
)

// Settings はエージェンシー単位の既定値です。
type Settings struct {
	AgencyID           string
	WorkingDays        calendar.WeekdaySet
	WorkingHours       calendar.TimeRange
	HolidayRegion      string
	PermissionDefaults permission.Overrides
	UpdatedAt          time.Time
	// Version は 0 のとき未保存 (設定ファイルからのフォールバック) を意味します。
	Version int64
}

// Clone は複製を返します。
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}
	c := *s
	c.PermissionDefaults = s.PermissionDefaults.Clone()
	return &c
}
