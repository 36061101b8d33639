package sla

import "math"

// Priority is an SLA tier.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Metric selects which SLA clock is evaluated.
type Metric string

const (
	MetricResponse   Metric = "response"
	MetricResolution Metric = "resolution"
)

// Status is the derived compliance state of an issue.
type Status string

const (
	StatusOK       Status = "ok"
	StatusAtRisk   Status = "at_risk"
	StatusBreached Status = "breached"
)

// AtRiskThreshold is the fraction of a target after which an issue is at risk.
const AtRiskThreshold = 0.75

// Target holds the business-hour targets of a tier.
type Target struct {
	Response   float64
	Resolution float64
}

// Tiers lists priorities from most to least urgent.
var Tiers = []Priority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}

// Targets maps each tier to its targets in business hours.
var Targets = map[Priority]Target{
	PriorityUrgent: {Response: 1, Resolution: 4},
	PriorityHigh:   {Response: 4, Resolution: 10},
	PriorityMedium: {Response: 10, Resolution: 30},
	PriorityLow:    {Response: 30, Resolution: 50},
}

// TargetHours returns the target for priority and metric, or +Inf when the
// priority is not a known tier.
func TargetHours(priority string, metric Metric) float64 {
	target, ok := Targets[Priority(priority)]
	if !ok {
		return math.Inf(1)
	}
	switch metric {
	case MetricResponse:
		return target.Response
	case MetricResolution:
		return target.Resolution
	default:
		return math.Inf(1)
	}
}
