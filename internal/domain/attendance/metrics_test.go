package attendance

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/schedule"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var wib = time.FixedZone("WIB", 7*3600)

func officeShift() *schedule.ShiftConfig {
	otAfter := 480
	return &schedule.ShiftConfig{
		ID:                "office",
		StartMinute:       9 * 60,
		EndMinute:         18 * 60,
		BreakMinutes:      60,
		GraceMinutes:      10,
		OTAfterMinutes:    &otAfter,
		MinHalfDayMinutes: 240,
		MinFullDayMinutes: 480,
	}
}

func at(day time.Time, hour, minute int) *time.Time {
	t := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, wib)
	return &t
}

var june3 = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

func TestComputeMetrics_WithinGraceWithOvertime(t *testing.T) {
	m := ComputeMetrics(june3, at(june3, 9, 5), at(june3, 18, 30), officeShift(), wib)

	// 9h25m attended minus the break; grace does not shorten work time
	assert.Equal(t, 505, m.WorkMinutes)
	assert.Equal(t, 0, m.LateMinutes)
	assert.Equal(t, 0, m.EarlyLeaveMinutes)
	assert.Equal(t, 25, m.OTMinutes)
	assert.True(t, m.DayFraction.Equal(FractionFull))
}

func TestComputeMetrics_OnTimeFullShift(t *testing.T) {
	m := ComputeMetrics(june3, at(june3, 9, 0), at(june3, 18, 0), officeShift(), wib)

	assert.Equal(t, 480, m.WorkMinutes)
	assert.Equal(t, 0, m.LateMinutes)
	assert.Equal(t, 0, m.EarlyLeaveMinutes)
	assert.Equal(t, 0, m.OTMinutes)
	assert.True(t, m.DayFraction.Equal(FractionFull))
}

func TestComputeMetrics_EarlyArrivalCountsAsWork(t *testing.T) {
	m := ComputeMetrics(june3, at(june3, 7, 0), at(june3, 16, 0), officeShift(), wib)

	assert.Equal(t, 480, m.WorkMinutes)
	assert.Equal(t, 0, m.LateMinutes)
	assert.Equal(t, 120, m.EarlyLeaveMinutes)
	assert.True(t, m.DayFraction.Equal(FractionFull))
}

func TestComputeMetrics_LateAndShort(t *testing.T) {
	m := ComputeMetrics(june3, at(june3, 9, 20), at(june3, 13, 0), officeShift(), wib)

	assert.Equal(t, 160, m.WorkMinutes)
	assert.Equal(t, 10, m.LateMinutes)
	assert.Equal(t, 300, m.EarlyLeaveMinutes)
	assert.Equal(t, 0, m.OTMinutes)
	assert.True(t, m.DayFraction.Equal(FractionNone))
}

func TestComputeMetrics_HalfDay(t *testing.T) {
	m := ComputeMetrics(june3, at(june3, 9, 0), at(june3, 14, 0), officeShift(), wib)

	assert.Equal(t, 240, m.WorkMinutes)
	assert.True(t, m.DayFraction.Equal(FractionHalf))
}

func TestComputeMetrics_MissingTimes(t *testing.T) {
	m := ComputeMetrics(june3, at(june3, 9, 0), nil, officeShift(), wib)

	assert.Equal(t, Metrics{DayFraction: FractionNone}, m)
}

func TestComputeMetrics_NoOTThreshold(t *testing.T) {
	shift := officeShift()
	shift.OTAfterMinutes = nil

	m := ComputeMetrics(june3, at(june3, 8, 0), at(june3, 21, 0), shift, wib)

	assert.Equal(t, 720, m.WorkMinutes)
	assert.Equal(t, 0, m.OTMinutes)
}

func TestComputeMetrics_ShorterThanBreak(t *testing.T) {
	m := ComputeMetrics(june3, at(june3, 9, 0), at(june3, 9, 45), officeShift(), wib)

	assert.Equal(t, 0, m.WorkMinutes)
	assert.Equal(t, 0, m.LateMinutes)
	assert.True(t, m.DayFraction.Equal(FractionNone))
}

func TestComputeMetrics_NightShift(t *testing.T) {
	otAfter := 420
	night := &schedule.ShiftConfig{
		StartMinute:       22 * 60,
		EndMinute:         6 * 60,
		BreakMinutes:      30,
		GraceMinutes:      5,
		OTAfterMinutes:    &otAfter,
		MinHalfDayMinutes: 210,
		MinFullDayMinutes: 420,
	}
	june4 := june3.AddDate(0, 0, 1)

	t.Run("full night", func(t *testing.T) {
		m := ComputeMetrics(june3, at(june3, 22, 15), at(june4, 7, 0), night, wib)

		assert.Equal(t, 8*60+45-30, m.WorkMinutes)
		assert.Equal(t, 10, m.LateMinutes)
		assert.Equal(t, 0, m.EarlyLeaveMinutes)
		assert.Equal(t, 8*60+15-420, m.OTMinutes)
		assert.True(t, m.DayFraction.Equal(FractionFull))
	})

	t.Run("left early after midnight", func(t *testing.T) {
		m := ComputeMetrics(june3, at(june3, 22, 0), at(june4, 4, 0), night, wib)

		assert.Equal(t, 0, m.LateMinutes)
		assert.Equal(t, 120, m.EarlyLeaveMinutes)
		assert.Equal(t, 6*60-30, m.WorkMinutes)
		assert.True(t, m.DayFraction.Equal(FractionHalf))
	})

	t.Run("left before midnight", func(t *testing.T) {
		m := ComputeMetrics(june3, at(june3, 22, 0), at(june3, 23, 30), night, wib)

		// checkout is not on the shift-end date
		assert.Equal(t, 0, m.EarlyLeaveMinutes)
		assert.Equal(t, 60, m.WorkMinutes)
	})
}

func TestComputeMetrics_NoShift(t *testing.T) {
	m := ComputeMetrics(june3, at(june3, 9, 0), at(june3, 17, 30), nil, wib)

	assert.Equal(t, 510, m.WorkMinutes)
	assert.Equal(t, 0, m.LateMinutes)
	assert.True(t, m.DayFraction.Equal(FractionFull))
}

func TestComputeMetrics_Idempotent(t *testing.T) {
	in, out := at(june3, 9, 20), at(june3, 18, 45)
	first := ComputeMetrics(june3, in, out, officeShift(), wib)
	second := ComputeMetrics(june3, in, out, officeShift(), wib)

	assert.Equal(t, first, second)
}

func TestDerive_StatusRules(t *testing.T) {
	half := decimal.NewFromFloat(0.5)
	shift := officeShift()

	tests := []struct {
		name string
		day  Day
		want decimal.Decimal
	}{
		{"present without times", Day{Date: june3, Status: StatusPresent}, FractionFull},
		{"present with short times", Day{Date: june3, Status: StatusPresent, CheckInAt: at(june3, 9, 20), CheckOutAt: at(june3, 13, 0)}, FractionNone},
		{"absent", Day{Date: june3, Status: StatusAbsent}, FractionNone},
		{"leave default", Day{Date: june3, Status: StatusLeave}, FractionFull},
		{"half day leave", Day{Date: june3, Status: StatusLeave, LeaveFraction: &half}, FractionHalf},
		{"holiday worked", Day{Date: june3, Status: StatusHoliday, CheckInAt: at(june3, 9, 0), CheckOutAt: at(june3, 18, 0)}, FractionNone},
		{"weekly off", Day{Date: june3, Status: StatusWeeklyOff}, FractionNone},
		{"unmarked", Day{Date: june3, Status: StatusUnmarked}, FractionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Derive(tt.day, shift, wib)
			assert.True(t, tt.want.Equal(got.DayFraction), "want %s got %s", tt.want, got.DayFraction)
		})
	}
}

func TestDerive_HolidayWorkKeepsOvertime(t *testing.T) {
	d := Day{Date: june3, Status: StatusHoliday, CheckInAt: at(june3, 9, 0), CheckOutAt: at(june3, 18, 30)}

	m := Derive(d, officeShift(), wib)

	assert.Equal(t, 510, m.WorkMinutes)
	assert.Equal(t, 30, m.OTMinutes)
}

func TestDay_CanChangeStatus(t *testing.T) {
	leaveDay := Day{Status: StatusLeave, Source: SourceLeave}
	assert.False(t, leaveDay.CanChangeStatus(StatusPresent))
	assert.True(t, leaveDay.CanChangeStatus(StatusLeave))

	holiday := Day{Status: StatusHoliday, Source: SourceHolidayCalendar}
	assert.False(t, holiday.CanChangeStatus(StatusAbsent))

	offRule := Day{Status: StatusWeeklyOff, Source: SourceWeeklyOffRule}
	assert.True(t, offRule.CanChangeStatus(StatusPresent))
}
