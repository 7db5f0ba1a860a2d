package sla

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Targets are the time budgets for a tier, in minutes.
type Targets struct {
	FirstResponseMinutes int
	ResolutionMinutes    int
}

var targetsByTier = map[domain.Priority]Targets{
	domain.PriorityP1: {FirstResponseMinutes: 15, ResolutionMinutes: 240},
	domain.PriorityP2: {FirstResponseMinutes: 30, ResolutionMinutes: 480},
	domain.PriorityP3: {FirstResponseMinutes: 60, ResolutionMinutes: 1440},
	domain.PriorityP4: {FirstResponseMinutes: 120, ResolutionMinutes: 2880},
}

// TargetsFor returns the budgets for a tier. Unknown tiers get the P4 budgets.
func TargetsFor(p domain.Priority) Targets {
	if t, ok := targetsByTier[p]; ok {
		return t
	}
	return targetsByTier[domain.PriorityP4]
}

// ComputeDueDates fills unset due timestamps from CreatedAt plus the tier budget.
// Already-set due timestamps are left alone, so repeated calls are no-ops.
func ComputeDueDates(t *domain.Ticket) {
	targets := TargetsFor(t.Priority)
	if t.FirstResponseDueAt == nil {
		due := t.CreatedAt.Add(time.Duration(targets.FirstResponseMinutes) * time.Minute)
		t.FirstResponseDueAt = &due
	}
	if t.ResolutionDueAt == nil {
		due := t.CreatedAt.Add(time.Duration(targets.ResolutionMinutes) * time.Minute)
		t.ResolutionDueAt = &due
	}
}

// Reclassify recomputes the tier from impact and urgency and re-anchors both
// due timestamps to the original creation time.
func Reclassify(t *domain.Ticket) {
	t.Priority = PriorityFromImpactUrgency(t.Impact, t.Urgency)
	t.FirstResponseDueAt = nil
	t.ResolutionDueAt = nil
	ComputeDueDates(t)
}

// Breach reports which targets a ticket has missed.
type Breach struct {
	FirstResponseBreached bool `json:"first_response_breached"`
	ResolutionBreached    bool `json:"resolution_breached"`
}

// BreachStatus evaluates t against now without mutating it.
func BreachStatus(t *domain.Ticket, now time.Time) Breach {
	var b Breach
	if t.FirstResponseDueAt != nil && t.FirstResponseAt == nil && now.After(*t.FirstResponseDueAt) {
		b.FirstResponseBreached = true
	}
	done := t.ResolvedAt != nil || t.ClosedAt != nil
	if t.ResolutionDueAt != nil && !done && now.After(*t.ResolutionDueAt) {
		b.ResolutionBreached = true
	}
	return b
}
