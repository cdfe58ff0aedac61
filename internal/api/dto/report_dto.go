package dto

import (
	"time"

	"github.com/spec-kit/sla-dashboard/internal/domain"
)

// Period echoes the resolved reporting window.
type Period struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Days      int       `json:"days,omitempty"`
}

// ReportFilters echoes applied dimension filters.
type ReportFilters struct {
	CustomerType string `json:"customer_type"`
	ProductLine  string `json:"product_line"`
}

// BreakdownBucket is one labeled bucket of a breakdown.
type BreakdownBucket struct {
	Label    string `json:"label"`
	Total    int    `json:"total"`
	Breaches int    `json:"breaches,omitempty"`
}

// SLASummary carries the headline compliance numbers.
type SLASummary struct {
	TotalTickets            int     `json:"total_tickets"`
	SLABreaches             int     `json:"sla_breaches"`
	SLAComplianceRate       float64 `json:"sla_compliance_rate"`
	FirstResponseCompliance float64 `json:"first_response_compliance"`
	ResolutionCompliance    float64 `json:"resolution_compliance"`
	AvgResponseTimeHours    float64 `json:"avg_response_time_hours"`
	AvgResolutionTimeHours  float64 `json:"avg_resolution_time_hours"`
}

// SLAMetricsResponse is the /sla-metrics payload.
type SLAMetricsResponse struct {
	Period     Period        `json:"period"`
	Filters    ReportFilters `json:"filters"`
	Summary    SLASummary    `json:"summary"`
	Breakdowns struct {
		Priority []BreakdownBucket `json:"priority"`
		Status   []BreakdownBucket `json:"status"`
	} `json:"breakdowns"`
}

// CustomerSegment is one customer-type aggregate row.
type CustomerSegment struct {
	CustomerType       domain.CustomerType `json:"customer_type"`
	TotalTickets       int                 `json:"total_tickets"`
	SLABreaches        int                 `json:"sla_breaches"`
	SLAComplianceRate  float64             `json:"sla_compliance_rate"`
	AvgResolutionHours float64             `json:"avg_resolution_hours"`
}

// CustomerSegmentsResponse is the /customer-segments payload.
type CustomerSegmentsResponse struct {
	Period   Period            `json:"period"`
	Segments []CustomerSegment `json:"segments"`
}

// OutageView is one outage row with its derived duration.
type OutageView struct {
	ID                string                `json:"id"`
	ProductLine       string                `json:"product_line"`
	ServiceType       string                `json:"service_type"`
	StartTime         time.Time             `json:"start_time"`
	EndTime           *time.Time            `json:"end_time"`
	DurationMinutes   float64               `json:"duration_minutes"`
	Severity          domain.TicketPriority `json:"severity"`
	AffectedCustomers int                   `json:"affected_customers"`
	RootCause         string                `json:"root_cause"`
	ResolutionSummary string                `json:"resolution_summary"`
	TicketID          *string               `json:"ticket_id"`
	IsOngoing         bool                  `json:"is_ongoing"`
}

// OutageProductBucket is a per-product-line downtime bucket.
type OutageProductBucket struct {
	Label           string  `json:"label"`
	Count           int     `json:"count"`
	DowntimeMinutes float64 `json:"downtime_minutes"`
}

// OutageReportResponse is the /outages payload.
type OutageReportResponse struct {
	Period  Period `json:"period"`
	Summary struct {
		TotalOutages           int     `json:"total_outages"`
		OngoingOutages         int     `json:"ongoing_outages"`
		TotalDowntimeMinutes   float64 `json:"total_downtime_minutes"`
		MTTRMinutes            float64 `json:"mttr_minutes"`
		AvailabilityPercentage float64 `json:"availability_percentage"`
	} `json:"summary"`
	Breakdowns struct {
		Severity    []BreakdownBucket     `json:"severity"`
		ProductLine []OutageProductBucket `json:"product_line"`
	} `json:"breakdowns"`
	Outages []OutageView `json:"outages"`
}

// ExecutiveSummaryResponse is the /executive-summary payload.
type ExecutiveSummaryResponse struct {
	Period     Period `json:"period"`
	KeyMetrics struct {
		TotalTickets      int     `json:"total_tickets"`
		SLAComplianceRate float64 `json:"sla_compliance_rate"`
		SLABreaches       int     `json:"sla_breaches"`
		TotalOutages      int     `json:"total_outages"`
		OpenTickets       int     `json:"open_tickets"`
	} `json:"key_metrics"`
	TopIssues   []BreakdownBucket `json:"top_issues"`
	SummaryText string            `json:"summary_text"`
}

// TrendPoint is one day of the /trends line.
type TrendPoint struct {
	Date              string  `json:"date"`
	TotalTickets      int     `json:"total_tickets"`
	SLABreaches       int     `json:"sla_breaches"`
	SLAComplianceRate float64 `json:"sla_compliance_rate"`
}

// TrendsResponse is the /trends payload.
type TrendsResponse struct {
	Period       Period       `json:"period"`
	CustomerType string       `json:"customer_type"`
	Trends       []TrendPoint `json:"trends"`
}

// TicketView is one normalized ticket row.
type TicketView struct {
	ID                  string                `json:"id"`
	ExternalID          string                `json:"external_id"`
	CustomerID          *string               `json:"customer_id"`
	ProductLine         string                `json:"product_line"`
	Priority            domain.TicketPriority `json:"priority"`
	Status              domain.TicketStatus   `json:"status"`
	Subject             string                `json:"subject"`
	Description         string                `json:"description"`
	IssueType           string                `json:"issue_type"`
	ServiceType         string                `json:"service_type"`
	CreatedAt           time.Time             `json:"created_at"`
	UpdatedAt           *time.Time            `json:"updated_at"`
	ResolvedAt          *time.Time            `json:"resolved_at"`
	FirstResponseAt     *time.Time            `json:"first_response_at"`
	FirstResponseDue    *time.Time            `json:"first_response_due"`
	ResolutionDue       *time.Time            `json:"resolution_due"`
	SLABreach           bool                  `json:"sla_breach"`
	FirstResponseBreach bool                  `json:"first_response_breach"`
	ResolutionBreach    bool                  `json:"resolution_breach"`
	RequesterID         string                `json:"requester_id"`
	Tags                []string              `json:"tags"`
	CustomFields        map[string]string     `json:"custom_fields"`
}

// Pagination describes the listing window.
type Pagination struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

// TicketListResponse is the /tickets payload.
type TicketListResponse struct {
	Tickets    []TicketView `json:"tickets"`
	Pagination Pagination   `json:"pagination"`
}

// SLADefinitionView is one policy row.
type SLADefinitionView struct {
	ID                     string                `json:"id"`
	CustomerType           domain.CustomerType   `json:"customer_type"`
	Priority               domain.TicketPriority `json:"priority"`
	ResponseTimeHours      int                   `json:"response_time_hours"`
	ResolutionTimeHours    int                   `json:"resolution_time_hours"`
	AvailabilityPercentage float64               `json:"availability_percentage"`
	CreatedAt              time.Time             `json:"created_at"`
}

// CustomerView is one customer row.
type CustomerView struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	CustomerType domain.CustomerType `json:"customer_type"`
	SLATier      string              `json:"sla_tier"`
	Geography    string              `json:"geography"`
	ContactInfo  map[string]any      `json:"contact_info"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// PerformanceMetricView is one precomputed rollup row.
type PerformanceMetricView struct {
	ID                     string              `json:"id"`
	Date                   string              `json:"date"`
	CustomerType           domain.CustomerType `json:"customer_type"`
	ProductLine            string              `json:"product_line"`
	TotalTickets           int                 `json:"total_tickets"`
	SLACompliantTickets    int                 `json:"sla_compliant_tickets"`
	SLABreachTickets       int                 `json:"sla_breach_tickets"`
	SLAComplianceRate      float64             `json:"sla_compliance_rate"`
	AvgResponseTimeHours   float64             `json:"avg_response_time_hours"`
	AvgResolutionTimeHours float64             `json:"avg_resolution_time_hours"`
	AvailabilityPercentage float64             `json:"availability_percentage"`
	TotalOutages           int                 `json:"total_outages"`
	TotalOutageMinutes     int                 `json:"total_outage_minutes"`
}
