package sla

import (
	"time"

	"github.com/spec-kit/sla-dashboard/internal/domain"
)

// Result carries the computed due dates and breach flags for one ticket.
type Result struct {
	FirstResponseDue    time.Time
	ResolutionDue       time.Time
	SLABreach           bool
	FirstResponseBreach bool
	ResolutionBreach    bool
}

// Evaluator computes due dates and breach flags from the policy table.
type Evaluator struct {
	policies *PolicyTable
}

// NewEvaluator builds an evaluator over the given table.
func NewEvaluator(policies *PolicyTable) *Evaluator {
	return &Evaluator{policies: policies}
}

// Evaluate applies the approximate breach semantics of the source system: a
// ticket whose update time differs from its creation time treats that update
// as the first response; otherwise "now" is compared against the response
// due date. Resolution breach always compares "now" against the resolution
// due date, even for tickets that are already resolved.
func (e *Evaluator) Evaluate(createdAt, updatedAt time.Time, priority domain.TicketPriority, customerType domain.CustomerType, now time.Time) Result {
	policy := e.policies.Resolve(customerType, priority)

	res := Result{
		FirstResponseDue: createdAt.Add(policy.ResponseTarget),
		ResolutionDue:    createdAt.Add(policy.ResolutionTarget),
	}

	if !updatedAt.Equal(createdAt) {
		res.FirstResponseBreach = updatedAt.After(res.FirstResponseDue)
	} else {
		res.FirstResponseBreach = now.After(res.FirstResponseDue)
	}
	res.ResolutionBreach = now.After(res.ResolutionDue)
	res.SLABreach = res.FirstResponseBreach || res.ResolutionBreach

	return res
}

// EvaluateResolved is the corrected variant of Evaluate for tickets with a
// known resolution timestamp: resolution breach compares that timestamp
// against the due date instead of the wall clock. The import pipeline keeps
// the literal Evaluate semantics; this variant exists so the corrected rule
// stays exercised alongside it.
func (e *Evaluator) EvaluateResolved(createdAt, updatedAt time.Time, priority domain.TicketPriority, customerType domain.CustomerType, now, resolvedAt time.Time) Result {
	res := e.Evaluate(createdAt, updatedAt, priority, customerType, now)
	res.ResolutionBreach = resolvedAt.After(res.ResolutionDue)
	res.SLABreach = res.FirstResponseBreach || res.ResolutionBreach
	return res
}
