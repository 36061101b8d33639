package sla

import (
	"math"
	"time"
)

// Calendar describes the weekly window during which SLA clocks run.
// Business days are Monday through Friday.
type Calendar struct {
	Location  *time.Location
	StartHour float64
	EndHour   float64
}

// DefaultCalendar is Mon-Fri 08:00-18:00 at a fixed UTC-3 offset.
var DefaultCalendar = Calendar{
	Location:  time.FixedZone("BRT", -3*60*60),
	StartHour: 8,
	EndHour:   18,
}

// ElapsedBusinessHours returns DefaultCalendar.ElapsedHours(start, end).
func ElapsedBusinessHours(start, end time.Time) float64 {
	return DefaultCalendar.ElapsedHours(start, end)
}

// ElapsedHours returns the business hours between start and end, rounded to
// two decimal places. It is 0 when end is not after start.
func (c Calendar) ElapsedHours(start, end time.Time) float64 {
	if !end.After(start) {
		return 0
	}

	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	localStart := start.In(loc)
	localEnd := end.In(loc)

	startDay := dateOf(localStart)
	endDay := dateOf(localEnd)

	total := 0.0
	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		if !isWeekday(day) {
			continue
		}

		from := c.StartHour
		to := c.EndHour
		if day.Equal(startDay) {
			from = hourOfDay(localStart)
		}
		if day.Equal(endDay) {
			to = hourOfDay(localEnd)
		}
		total += c.clip(from, to)
	}

	return math.Round(total*100) / 100
}

func (c Calendar) clip(from, to float64) float64 {
	effectiveStart := math.Max(from, c.StartHour)
	effectiveEnd := math.Min(to, c.EndHour)
	return math.Max(0, effectiveEnd-effectiveStart)
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func isWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

func hourOfDay(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600 +
		float64(t.Nanosecond())/3.6e12
}
