package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestPriorityFromImpactUrgency(t *testing.T) {
	expected := map[[2]int]domain.Priority{
		{3, 3}: domain.PriorityP1,
		{3, 2}: domain.PriorityP2,
		{2, 3}: domain.PriorityP2,
		{2, 2}: domain.PriorityP3,
		{3, 1}: domain.PriorityP3,
		{1, 3}: domain.PriorityP3,
		{2, 1}: domain.PriorityP4,
		{1, 2}: domain.PriorityP4,
		{1, 1}: domain.PriorityP4,
	}
	for impact := MinLevel; impact <= MaxLevel; impact++ {
		for urgency := MinLevel; urgency <= MaxLevel; urgency++ {
			got := PriorityFromImpactUrgency(impact, urgency)
			assert.Equal(t, expected[[2]int{impact, urgency}], got, "impact=%d urgency=%d", impact, urgency)
		}
	}
}

func TestTargetsFor(t *testing.T) {
	assert.Equal(t, Targets{15, 240}, TargetsFor(domain.PriorityP1))
	assert.Equal(t, Targets{30, 480}, TargetsFor(domain.PriorityP2))
	assert.Equal(t, Targets{60, 1440}, TargetsFor(domain.PriorityP3))
	assert.Equal(t, Targets{120, 2880}, TargetsFor(domain.PriorityP4))
	assert.Equal(t, Targets{120, 2880}, TargetsFor(domain.Priority("P9")))
}

func TestComputeDueDatesIsIdempotent(t *testing.T) {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{Priority: domain.PriorityP1, CreatedAt: created}

	ComputeDueDates(ticket)
	require.NotNil(t, ticket.FirstResponseDueAt)
	require.NotNil(t, ticket.ResolutionDueAt)
	first, resolution := *ticket.FirstResponseDueAt, *ticket.ResolutionDueAt
	assert.Equal(t, created.Add(15*time.Minute), first)
	assert.Equal(t, created.Add(240*time.Minute), resolution)

	ticket.Priority = domain.PriorityP4
	ComputeDueDates(ticket)
	assert.Equal(t, first, *ticket.FirstResponseDueAt)
	assert.Equal(t, resolution, *ticket.ResolutionDueAt)
}

func TestReclassifyAnchorsToCreation(t *testing.T) {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{Impact: 1, Urgency: 1, CreatedAt: created}
	Reclassify(ticket)
	assert.Equal(t, domain.PriorityP4, ticket.Priority)
	assert.Equal(t, created.Add(120*time.Minute), *ticket.FirstResponseDueAt)

	ticket.Impact, ticket.Urgency = 3, 3
	Reclassify(ticket)
	assert.Equal(t, domain.PriorityP1, ticket.Priority)
	assert.Equal(t, created.Add(15*time.Minute), *ticket.FirstResponseDueAt)
	assert.Equal(t, created.Add(240*time.Minute), *ticket.ResolutionDueAt)
}

func TestBreachStatus(t *testing.T) {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	ticket := &domain.Ticket{Priority: domain.PriorityP1, CreatedAt: created}
	ComputeDueDates(ticket)

	t.Run("first response", func(t *testing.T) {
		assert.True(t, BreachStatus(ticket, created.Add(16*time.Minute)).FirstResponseBreached)
		assert.False(t, BreachStatus(ticket, created.Add(10*time.Minute)).FirstResponseBreached)
	})

	t.Run("responded ticket never breaches first response", func(t *testing.T) {
		c := ticket.Clone()
		at := created.Add(20 * time.Minute)
		c.FirstResponseAt = &at
		assert.False(t, BreachStatus(c, created.Add(time.Hour)).FirstResponseBreached)
	})

	t.Run("resolution", func(t *testing.T) {
		late := created.Add(241 * time.Minute)
		assert.True(t, BreachStatus(ticket, late).ResolutionBreached)

		c := ticket.Clone()
		c.ClosedAt = &late
		assert.False(t, BreachStatus(c, late.Add(time.Hour)).ResolutionBreached)
	})

	t.Run("read only", func(t *testing.T) {
		before := ticket.Clone()
		BreachStatus(ticket, created.Add(500*time.Minute))
		BreachStatus(ticket, created.Add(500*time.Minute))
		assert.Equal(t, before, ticket)
	})
}
