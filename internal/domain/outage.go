package domain

import "time"

// Outage represents one outage episode, optionally linked to its trigger
// ticket. A nil EndTime means the outage is ongoing.
type Outage struct {
	ID                string
	ProductLine       string
	ServiceType       string
	StartTime         time.Time
	EndTime           *time.Time
	Severity          TicketPriority
	AffectedCustomers int
	RootCause         string
	ResolutionSummary string
	TicketID          *string
}

// DurationMinutes is derived at read time, never stored. Zero while ongoing.
func (o Outage) DurationMinutes() float64 {
	if o.EndTime == nil {
		return 0
	}
	return o.EndTime.Sub(o.StartTime).Minutes()
}

// IsOngoing reports whether the outage has no recorded end.
func (o Outage) IsOngoing() bool {
	return o.EndTime == nil
}
