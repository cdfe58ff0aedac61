// Package sla holds the SLA policy table and the breach evaluator used by
// the import pipeline.
package sla

import (
	"time"

	"github.com/spec-kit/sla-dashboard/internal/domain"
)

// Policy is one resolved target pair for a (customer type, priority) cell.
type Policy struct {
	ResponseTarget         time.Duration
	ResolutionTarget       time.Duration
	AvailabilityPercentage float64
}

// PolicyTable maps (customer type, priority) to SLA targets. Lookups never
// miss: an unknown customer type resolves through the enterprise rows and an
// unknown priority through the Medium row.
type PolicyTable struct {
	rows map[domain.CustomerType]map[domain.TicketPriority]Policy
}

const defaultAvailability = 99.9

func hoursPolicy(response, resolution int) Policy {
	return Policy{
		ResponseTarget:         time.Duration(response) * time.Hour,
		ResolutionTarget:       time.Duration(resolution) * time.Hour,
		AvailabilityPercentage: defaultAvailability,
	}
}

// DefaultPolicyTable returns the contracted policy matrix. Enterprise and
// local enterprise share targets; wholesale runs on relaxed ones.
func DefaultPolicyTable() *PolicyTable {
	enterprise := map[domain.TicketPriority]Policy{
		domain.TicketPriorityCritical: hoursPolicy(1, 4),
		domain.TicketPriorityHigh:     hoursPolicy(2, 8),
		domain.TicketPriorityMedium:   hoursPolicy(4, 24),
		domain.TicketPriorityLow:      hoursPolicy(8, 72),
	}
	localEnterprise := map[domain.TicketPriority]Policy{
		domain.TicketPriorityCritical: hoursPolicy(1, 4),
		domain.TicketPriorityHigh:     hoursPolicy(2, 8),
		domain.TicketPriorityMedium:   hoursPolicy(4, 24),
		domain.TicketPriorityLow:      hoursPolicy(8, 72),
	}
	wholesale := map[domain.TicketPriority]Policy{
		domain.TicketPriorityCritical: hoursPolicy(2, 8),
		domain.TicketPriorityHigh:     hoursPolicy(4, 12),
		domain.TicketPriorityMedium:   hoursPolicy(8, 48),
		domain.TicketPriorityLow:      hoursPolicy(12, 96),
	}
	return &PolicyTable{rows: map[domain.CustomerType]map[domain.TicketPriority]Policy{
		domain.CustomerTypeEnterprise:      enterprise,
		domain.CustomerTypeLocalEnterprise: localEnterprise,
		domain.CustomerTypeWholesale:       wholesale,
	}}
}

// Resolve returns the policy for the given cell, applying the default
// fallbacks. It is total: every input resolves to a defined policy.
func (t *PolicyTable) Resolve(customerType domain.CustomerType, priority domain.TicketPriority) Policy {
	byPriority, ok := t.rows[customerType]
	if !ok {
		byPriority = t.rows[domain.CustomerTypeEnterprise]
	}
	policy, ok := byPriority[priority]
	if !ok {
		policy = byPriority[domain.TicketPriorityMedium]
	}
	return policy
}

// Definitions flattens the table into seedable SLA definition rows.
func (t *PolicyTable) Definitions() []domain.SLADefinition {
	order := []domain.CustomerType{
		domain.CustomerTypeEnterprise,
		domain.CustomerTypeLocalEnterprise,
		domain.CustomerTypeWholesale,
	}
	priorities := []domain.TicketPriority{
		domain.TicketPriorityCritical,
		domain.TicketPriorityHigh,
		domain.TicketPriorityMedium,
		domain.TicketPriorityLow,
	}
	defs := make([]domain.SLADefinition, 0, len(order)*len(priorities))
	for _, ct := range order {
		for _, p := range priorities {
			policy := t.rows[ct][p]
			defs = append(defs, domain.SLADefinition{
				CustomerType:           ct,
				Priority:               p,
				ResponseTimeHours:      int(policy.ResponseTarget / time.Hour),
				ResolutionTimeHours:    int(policy.ResolutionTarget / time.Hour),
				AvailabilityPercentage: policy.AvailabilityPercentage,
			})
		}
	}
	return defs
}
