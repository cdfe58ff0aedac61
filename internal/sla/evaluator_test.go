package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/sla-dashboard/internal/domain"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("parse %q: %v", value, err)
	}
	return parsed
}

func TestResolveWholesaleHigh(t *testing.T) {
	policy := DefaultPolicyTable().Resolve(domain.CustomerTypeWholesale, domain.TicketPriorityHigh)
	assert.Equal(t, 4*time.Hour, policy.ResponseTarget)
	assert.Equal(t, 12*time.Hour, policy.ResolutionTarget)
}

func TestResolveUnknownCustomerTypeFallsBackToEnterprise(t *testing.T) {
	table := DefaultPolicyTable()
	for _, priority := range []domain.TicketPriority{
		domain.TicketPriorityCritical,
		domain.TicketPriorityHigh,
		domain.TicketPriorityMedium,
		domain.TicketPriorityLow,
	} {
		got := table.Resolve(domain.CustomerTypeUnknown, priority)
		want := table.Resolve(domain.CustomerTypeEnterprise, priority)
		assert.Equal(t, want, got, string(priority))
	}
}

func TestResolveUnknownPriorityFallsBackToMedium(t *testing.T) {
	table := DefaultPolicyTable()
	got := table.Resolve(domain.CustomerTypeWholesale, domain.TicketPriority("P0"))
	want := table.Resolve(domain.CustomerTypeWholesale, domain.TicketPriorityMedium)
	assert.Equal(t, want, got)
}

func TestEvaluateDueDates(t *testing.T) {
	createdAt := mustTime(t, "2024-01-01T00:00:00Z")
	eval := NewEvaluator(DefaultPolicyTable())

	res := eval.Evaluate(createdAt, createdAt, domain.TicketPriorityHigh, domain.CustomerTypeWholesale, createdAt)
	assert.Equal(t, createdAt.Add(4*time.Hour), res.FirstResponseDue)
	assert.Equal(t, createdAt.Add(12*time.Hour), res.ResolutionDue)
}

func TestEvaluateUnknownTypeMatchesEnterprise(t *testing.T) {
	createdAt := mustTime(t, "2024-01-01T00:00:00Z")
	now := createdAt.Add(30 * time.Minute)
	eval := NewEvaluator(DefaultPolicyTable())

	unknown := eval.Evaluate(createdAt, createdAt, domain.TicketPriorityCritical, domain.CustomerTypeUnknown, now)
	enterprise := eval.Evaluate(createdAt, createdAt, domain.TicketPriorityCritical, domain.CustomerTypeEnterprise, now)
	assert.Equal(t, enterprise, unknown)
}

func TestEvaluateOpenCriticalBreachScenario(t *testing.T) {
	createdAt := mustTime(t, "2024-01-01T00:00:00Z")
	now := mustTime(t, "2024-01-01T06:00:00Z")
	eval := NewEvaluator(DefaultPolicyTable())

	// no update yet: "now" stands in for the first response
	res := eval.Evaluate(createdAt, createdAt, domain.TicketPriorityCritical, domain.CustomerTypeEnterprise, now)
	assert.True(t, res.ResolutionBreach, "resolution was due at +4h")
	assert.True(t, res.FirstResponseBreach, "response was due at +1h")
	assert.True(t, res.SLABreach)
}

func TestEvaluateFirstResponseUsesUpdateTime(t *testing.T) {
	createdAt := mustTime(t, "2024-01-01T00:00:00Z")
	now := mustTime(t, "2024-01-01T06:00:00Z")
	eval := NewEvaluator(DefaultPolicyTable())

	// updated within the 1h response target: no response breach even though
	// the evaluation runs much later
	updatedAt := createdAt.Add(30 * time.Minute)
	res := eval.Evaluate(createdAt, updatedAt, domain.TicketPriorityCritical, domain.CustomerTypeEnterprise, now)
	assert.False(t, res.FirstResponseBreach)
	assert.True(t, res.ResolutionBreach)
	assert.True(t, res.SLABreach)

	// updated after the target: breach regardless of "now"
	updatedAt = createdAt.Add(2 * time.Hour)
	res = eval.Evaluate(createdAt, updatedAt, domain.TicketPriorityCritical, domain.CustomerTypeEnterprise, createdAt.Add(10*time.Minute))
	assert.True(t, res.FirstResponseBreach)
}

func TestEvaluateResolutionBreachIgnoresResolvedState(t *testing.T) {
	// the literal rule compares "now" even when the ticket resolved in time
	createdAt := mustTime(t, "2024-01-01T00:00:00Z")
	resolvedAt := createdAt.Add(2 * time.Hour)
	now := mustTime(t, "2024-01-02T00:00:00Z")
	eval := NewEvaluator(DefaultPolicyTable())

	literal := eval.Evaluate(createdAt, createdAt.Add(time.Minute), domain.TicketPriorityCritical, domain.CustomerTypeEnterprise, now)
	assert.True(t, literal.ResolutionBreach)

	corrected := eval.EvaluateResolved(createdAt, createdAt.Add(time.Minute), domain.TicketPriorityCritical, domain.CustomerTypeEnterprise, now, resolvedAt)
	assert.False(t, corrected.ResolutionBreach)
	assert.False(t, corrected.SLABreach)
}

func TestDefinitionsCoverFullMatrix(t *testing.T) {
	defs := DefaultPolicyTable().Definitions()
	assert.Len(t, defs, 12)

	seen := map[string]bool{}
	for _, def := range defs {
		seen[string(def.CustomerType)+"/"+string(def.Priority)] = true
		assert.Equal(t, 99.9, def.AvailabilityPercentage)
	}
	assert.True(t, seen["wholesale/High"])
	assert.True(t, seen["local_enterprise/Low"])
}
