package domain

import "time"

// SLADefinition is one static policy row keyed by (customer_type, priority).
type SLADefinition struct {
	ID                     string
	CustomerType           CustomerType
	Priority               TicketPriority
	ResponseTimeHours      int
	ResolutionTimeHours    int
	AvailabilityPercentage float64
	CreatedAt              time.Time
}
