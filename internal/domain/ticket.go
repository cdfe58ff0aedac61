package domain

import "time"

// TicketStatus enumerates helpdesk lifecycle states.
type TicketStatus string

const (
	TicketStatusOpen              TicketStatus = "Open"
	TicketStatusPending           TicketStatus = "Pending"
	TicketStatusResolved          TicketStatus = "Resolved"
	TicketStatusClosed            TicketStatus = "Closed"
	TicketStatusWaitingOnCustomer TicketStatus = "Waiting on Customer"
	TicketStatusWaitingOnThird    TicketStatus = "Waiting on Third Party"
	TicketStatusEscalated         TicketStatus = "Escalated"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "Low"
	TicketPriorityMedium   TicketPriority = "Medium"
	TicketPriorityHigh     TicketPriority = "High"
	TicketPriorityCritical TicketPriority = "Critical"
)

// priorityCodes maps the helpdesk export's small-int priority codes.
var priorityCodes = map[int]TicketPriority{
	1: TicketPriorityLow,
	2: TicketPriorityMedium,
	3: TicketPriorityHigh,
	4: TicketPriorityCritical,
}

// statusCodes maps the helpdesk export's small-int status codes.
var statusCodes = map[int]TicketStatus{
	2:  TicketStatusOpen,
	3:  TicketStatusPending,
	4:  TicketStatusResolved,
	5:  TicketStatusClosed,
	6:  TicketStatusWaitingOnCustomer,
	7:  TicketStatusWaitingOnThird,
	16: TicketStatusEscalated,
}

// PriorityFromCode maps a source priority code, defaulting to Medium.
func PriorityFromCode(code int) TicketPriority {
	if p, ok := priorityCodes[code]; ok {
		return p
	}
	return TicketPriorityMedium
}

// StatusFromCode maps a source status code, defaulting to Open.
func StatusFromCode(code int) TicketStatus {
	if s, ok := statusCodes[code]; ok {
		return s
	}
	return TicketStatusOpen
}

// Ticket is the normalized form of one imported helpdesk record.
type Ticket struct {
	ID          string
	ExternalID  string
	CustomerID  *string
	ProductLine string
	Priority    TicketPriority
	Status      TicketStatus
	Subject     string
	Description string
	IssueType   string
	ServiceType string

	CreatedAt       time.Time
	UpdatedAt       *time.Time
	ResolvedAt      *time.Time
	FirstResponseAt *time.Time

	FirstResponseDue    *time.Time
	ResolutionDue       *time.Time
	SLABreach           bool
	FirstResponseBreach bool
	ResolutionBreach    bool

	RequesterID  string
	Tags         []string
	CustomFields map[string]string
}
