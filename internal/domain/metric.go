package domain

import "time"

// PerformanceMetric is a precomputed daily rollup row. The import pipeline
// never writes these; they are read-only aggregate snapshots.
type PerformanceMetric struct {
	ID           string
	Date         time.Time
	CustomerType CustomerType
	ProductLine  string

	TotalTickets           int
	SLACompliantTickets    int
	SLABreachTickets       int
	AvgResponseTimeHours   float64
	AvgResolutionTimeHours float64

	AvailabilityPercentage float64
	TotalOutages           int
	TotalOutageMinutes     int

	CreatedAt time.Time
}

// SLAComplianceRate returns the compliant share in percent, 0 for empty rows.
func (m PerformanceMetric) SLAComplianceRate() float64 {
	if m.TotalTickets == 0 {
		return 0
	}
	return float64(m.SLACompliantTickets) / float64(m.TotalTickets) * 100
}
