// Package sla holds the priority matrix and the response/resolution budgets
// that drive ticket due dates and breach detection.
package sla

import "github.com/spec-kit/helpdesk-service/internal/domain"

const (
	MinLevel     = 1
	MaxLevel     = 3
	DefaultLevel = 2
)

// PriorityFromImpactUrgency maps impact and urgency (1-3 each) to a tier.
// Callers validate the inputs; out-of-range pairs fall through to P4.
func PriorityFromImpactUrgency(impact, urgency int) domain.Priority {
	switch {
	case impact == 3 && urgency == 3:
		return domain.PriorityP1
	case (impact == 3 && urgency == 2) || (impact == 2 && urgency == 3):
		return domain.PriorityP2
	case (impact == 2 && urgency == 2) || (impact == 3 && urgency == 1) || (impact == 1 && urgency == 3):
		return domain.PriorityP3
	default:
		return domain.PriorityP4
	}
}

// ValidLevel reports whether v is an allowed impact or urgency value.
func ValidLevel(v int) bool {
	return v >= MinLevel && v <= MaxLevel
}
