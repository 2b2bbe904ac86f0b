package schedule

import "time"

// ShiftConfig is the timing and threshold configuration of one shift.
// Times of day are minutes after local midnight in the branch timezone.
type ShiftConfig struct {
	ID                string
	CompanyID         string
	Name              string
	StartMinute       int
	EndMinute         int
	BreakMinutes      int
	GraceMinutes      int
	OTAfterMinutes    *int
	MinHalfDayMinutes int
	MinFullDayMinutes int
}

// CrossesMidnight reports a night shift ending on the following day.
func (s ShiftConfig) CrossesMidnight() bool {
	return s.EndMinute <= s.StartMinute
}

// StartOn anchors the shift start on day in loc.
func (s ShiftConfig) StartOn(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc).
		Add(time.Duration(s.StartMinute) * time.Minute)
}

// EndOn anchors the shift end for a shift starting on day, moving it to the
// next day for night shifts.
func (s ShiftConfig) EndOn(day time.Time, loc *time.Location) time.Time {
	end := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc).
		Add(time.Duration(s.EndMinute) * time.Minute)
	if s.CrossesMidnight() {
		end = end.AddDate(0, 0, 1)
	}
	return end
}

// Scope tags where a rule or assignment comes from. Lookups walk scopes in
// Precedence order and stop at the first scope that has an answer.
type Scope string

const (
	ScopeEmployee Scope = "employee"
	ScopeLocation Scope = "location"
)

var Precedence = []Scope{ScopeEmployee, ScopeLocation}

// ShiftAssignment binds a shift to an employee or to a location (branch) for
// an effective date range. EffectiveTo is inclusive; nil means open-ended.
type ShiftAssignment struct {
	ID            string
	Scope         Scope
	EmployeeID    *string
	BranchID      *string
	EffectiveFrom time.Time
	EffectiveTo   *time.Time
	Shift         ShiftConfig
}

func (a ShiftAssignment) EffectiveOn(day time.Time) bool {
	if day.Before(a.EffectiveFrom) {
		return false
	}
	return a.EffectiveTo == nil || !day.After(*a.EffectiveTo)
}

// WeeklyOffRule marks a weekday as off (or, with IsOff=false, as a working
// day) for an employee or a location. WeekOfMonth restricts the rule to the
// n-th week (days 1-7 = week 1); nil applies to every week.
type WeeklyOffRule struct {
	ID          string
	Scope       Scope
	EmployeeID  *string
	BranchID    *string
	Weekday     time.Weekday
	WeekOfMonth *int
	IsOff       bool
}

// Holiday is company-wide when BranchID is nil.
type Holiday struct {
	ID       string
	Date     time.Time
	Name     string
	BranchID *string
}

// DayKind is the calendar classification of a day before any attendance is
// recorded.
type DayKind string

const (
	DayKindWorking   DayKind = "working"
	DayKindWeeklyOff DayKind = "weekly_off"
	DayKindHoliday   DayKind = "holiday"
)

// EmployeeRef is the slice of an employee the resolvers need.
type EmployeeRef struct {
	ID       string
	BranchID string
}

// ParseClock converts "HH:MM" to minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, ErrInvalidShiftTime
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock is the inverse of ParseClock.
func FormatClock(minutes int) string {
	return time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(minutes) * time.Minute).Format("15:04")
}
