package sla

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/spec-kit/support-insights/internal/clock"
)

// StatusAt classifies an issue created at createdAt as of now.
func StatusAt(priority string, metric Metric, createdAt, now time.Time) Status {
	return DefaultPolicy().statusAt(priority, metric, createdAt, now)
}

// TimeRemainingAt returns the business hours left before the target is hit.
// It is negative once breached and +Inf when no target applies.
func TimeRemainingAt(priority string, metric Metric, createdAt, now time.Time) float64 {
	return DefaultPolicy().timeRemainingAt(priority, metric, createdAt, now)
}

// Policy evaluates SLA targets against a calendar and a clock.
type Policy struct {
	Calendar Calendar
	Clock    clock.Clock
}

// DefaultPolicy uses DefaultCalendar and the wall clock.
func DefaultPolicy() Policy {
	return Policy{Calendar: DefaultCalendar, Clock: clock.Real()}
}

// NewPolicy builds a policy on DefaultCalendar with the given clock.
func NewPolicy(c clock.Clock) Policy {
	if c == nil {
		c = clock.Real()
	}
	return Policy{Calendar: DefaultCalendar, Clock: c}
}

// Status classifies an issue as of the policy clock.
func (p Policy) Status(priority string, metric Metric, createdAt time.Time) Status {
	return p.statusAt(priority, metric, createdAt, p.now())
}

// TimeRemaining reports hours left as of the policy clock.
func (p Policy) TimeRemaining(priority string, metric Metric, createdAt time.Time) float64 {
	return p.timeRemainingAt(priority, metric, createdAt, p.now())
}

// Evaluation is the SLA view of a single issue.
type Evaluation struct {
	Status        Status
	HoursLeft     float64
	HasTarget     bool
	RemainingText string
}

// Evaluate computes status and time remaining together. A nil priority means
// no SLA applies.
func (p Policy) Evaluate(priority *string, metric Metric, createdAt time.Time) Evaluation {
	if priority == nil {
		return Evaluation{Status: StatusOK, HoursLeft: math.Inf(1), RemainingText: RemainingLabel(math.Inf(1))}
	}
	now := p.now()
	left := p.timeRemainingAt(*priority, metric, createdAt, now)
	return Evaluation{
		Status:        p.statusAt(*priority, metric, createdAt, now),
		HoursLeft:     left,
		HasTarget:     !math.IsInf(left, 1),
		RemainingText: RemainingLabel(left),
	}
}

// RemainingLabel renders hours left the way the action queue shows it.
func RemainingLabel(hoursLeft float64) string {
	switch {
	case math.IsInf(hoursLeft, 1):
		return "—"
	case hoursLeft <= 0:
		return fmt.Sprintf("breached by %sh", formatHours(math.Abs(hoursLeft)))
	default:
		return fmt.Sprintf("%sh left", formatHours(hoursLeft))
	}
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

func (p Policy) statusAt(priority string, metric Metric, createdAt, now time.Time) Status {
	target := TargetHours(priority, metric)
	if math.IsInf(target, 1) {
		return StatusOK
	}

	elapsed := p.Calendar.ElapsedHours(createdAt, now)
	switch {
	case elapsed >= target:
		return StatusBreached
	case elapsed >= target*AtRiskThreshold:
		return StatusAtRisk
	default:
		return StatusOK
	}
}

func (p Policy) timeRemainingAt(priority string, metric Metric, createdAt, now time.Time) float64 {
	target := TargetHours(priority, metric)
	if math.IsInf(target, 1) {
		return target
	}
	elapsed := p.Calendar.ElapsedHours(createdAt, now)
	return math.Round((target-elapsed)*100) / 100
}

func (p Policy) now() time.Time {
	if p.Clock == nil {
		return time.Now()
	}
	return p.Clock.Now()
}
