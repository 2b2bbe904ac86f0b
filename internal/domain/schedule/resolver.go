package schedule

import (
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/calendar"
)

// ShiftPlan resolves the shift of an employee on a day from a preloaded set of
// assignments: employee assignment first, then the employee's location.
type ShiftPlan struct {
	byEmployee map[string][]ShiftAssignment
	byBranch   map[string][]ShiftAssignment
}

func NewShiftPlan(assignments []ShiftAssignment) ShiftPlan {
	p := ShiftPlan{
		byEmployee: make(map[string][]ShiftAssignment),
		byBranch:   make(map[string][]ShiftAssignment),
	}
	for _, a := range assignments {
		switch {
		case a.Scope == ScopeEmployee && a.EmployeeID != nil:
			p.byEmployee[*a.EmployeeID] = append(p.byEmployee[*a.EmployeeID], a)
		case a.Scope == ScopeLocation && a.BranchID != nil:
			p.byBranch[*a.BranchID] = append(p.byBranch[*a.BranchID], a)
		}
	}
	return p
}

// Resolve returns nil when neither the employee nor the location has a shift
// effective on day.
func (p ShiftPlan) Resolve(emp EmployeeRef, day time.Time) *ShiftConfig {
	for _, scope := range Precedence {
		var candidates []ShiftAssignment
		switch scope {
		case ScopeEmployee:
			candidates = p.byEmployee[emp.ID]
		case ScopeLocation:
			candidates = p.byBranch[emp.BranchID]
		}
		if a, ok := latestEffective(candidates, day); ok {
			shift := a.Shift
			return &shift
		}
	}
	return nil
}

func latestEffective(assignments []ShiftAssignment, day time.Time) (ShiftAssignment, bool) {
	var (
		best  ShiftAssignment
		found bool
	)
	for _, a := range assignments {
		if !a.EffectiveOn(day) {
			continue
		}
		if !found || a.EffectiveFrom.After(best.EffectiveFrom) {
			best = a
			found = true
		}
	}
	return best, found
}

// DayCalendar classifies days as working, weekly off or holiday.
type DayCalendar struct {
	employeeRules  map[string][]WeeklyOffRule
	branchRules    map[string][]WeeklyOffRule
	companyHoliday map[time.Time]Holiday
	branchHoliday  map[string]map[time.Time]Holiday
}

func NewDayCalendar(rules []WeeklyOffRule, holidays []Holiday) DayCalendar {
	c := DayCalendar{
		employeeRules:  make(map[string][]WeeklyOffRule),
		branchRules:    make(map[string][]WeeklyOffRule),
		companyHoliday: make(map[time.Time]Holiday),
		branchHoliday:  make(map[string]map[time.Time]Holiday),
	}
	for _, r := range rules {
		switch {
		case r.Scope == ScopeEmployee && r.EmployeeID != nil:
			c.employeeRules[*r.EmployeeID] = append(c.employeeRules[*r.EmployeeID], r)
		case r.Scope == ScopeLocation && r.BranchID != nil:
			c.branchRules[*r.BranchID] = append(c.branchRules[*r.BranchID], r)
		}
	}
	for _, h := range holidays {
		date := calendar.DateOnly(h.Date)
		if h.BranchID == nil {
			c.companyHoliday[date] = h
			continue
		}
		if c.branchHoliday[*h.BranchID] == nil {
			c.branchHoliday[*h.BranchID] = make(map[time.Time]Holiday)
		}
		c.branchHoliday[*h.BranchID][date] = h
	}
	return c
}

// Classify applies the holiday calendar first, then the weekly-off chain.
// day must be a UTC-midnight calendar day.
func (c DayCalendar) Classify(emp EmployeeRef, day time.Time) DayKind {
	if _, ok := c.HolidayOn(emp, day); ok {
		return DayKindHoliday
	}
	if c.IsWeeklyOff(emp, day) {
		return DayKindWeeklyOff
	}
	return DayKindWorking
}

func (c DayCalendar) HolidayOn(emp EmployeeRef, day time.Time) (Holiday, bool) {
	day = calendar.DateOnly(day)
	if h, ok := c.branchHoliday[emp.BranchID][day]; ok {
		return h, true
	}
	h, ok := c.companyHoliday[day]
	return h, ok
}

// IsWeeklyOff walks employee rules, then location rules; a scope without a
// matching rule defers to the next one, and no match at all means a working
// day.
func (c DayCalendar) IsWeeklyOff(emp EmployeeRef, day time.Time) bool {
	for _, scope := range Precedence {
		var rules []WeeklyOffRule
		switch scope {
		case ScopeEmployee:
			rules = c.employeeRules[emp.ID]
		case ScopeLocation:
			rules = c.branchRules[emp.BranchID]
		}
		if r, ok := matchRule(rules, day); ok {
			return r.IsOff
		}
	}
	return false
}

// matchRule prefers a rule pinned to the day's week of month over a rule that
// applies to every week.
func matchRule(rules []WeeklyOffRule, day time.Time) (WeeklyOffRule, bool) {
	week := calendar.WeekOfMonth(day)
	var (
		general WeeklyOffRule
		hasGen  bool
	)
	for _, r := range rules {
		if r.Weekday != day.Weekday() {
			continue
		}
		if r.WeekOfMonth == nil {
			general, hasGen = r, true
			continue
		}
		if *r.WeekOfMonth == week {
			return r, true
		}
	}
	return general, hasGen
}
