package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/sla-dashboard/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketImported  EventType = "ticket_imported"
	EventOutageDetected  EventType = "outage_detected"
	EventImportCompleted EventType = "import_completed"
)

// Event represents a domain event emitted by the import pipeline.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	ExternalID string      `json:"external_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// NewEvent stamps a new event with an id and timestamp.
func NewEvent(eventType EventType, externalID string, payload interface{}) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		ExternalID: externalID,
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	}
}

// TicketImportedPayload payload.
type TicketImportedPayload struct {
	Created     bool                  `json:"created"`
	Priority    domain.TicketPriority `json:"priority"`
	IssueType   string                `json:"issue_type"`
	ServiceType string                `json:"service_type"`
}

// OutageDetectedPayload payload.
type OutageDetectedPayload struct {
	OutageID    string                `json:"outage_id"`
	ProductLine string                `json:"product_line"`
	Severity    domain.TicketPriority `json:"severity"`
	Recovered   bool                  `json:"recovered"`
}
