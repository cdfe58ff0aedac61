package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-dashboard/internal/classify"
	"github.com/spec-kit/sla-dashboard/internal/domain"
	"github.com/spec-kit/sla-dashboard/internal/events"
	"github.com/spec-kit/sla-dashboard/internal/repository"
	"github.com/spec-kit/sla-dashboard/internal/sla"
)

// RawTicket mirrors one record of the helpdesk export.
type RawTicket struct {
	ID           int64        `json:"id"`
	Subject      string       `json:"subject"`
	Description  string       `json:"description"`
	Priority     int          `json:"priority"`
	Status       int          `json:"status"`
	CreatedAt    string       `json:"created_at"`
	UpdatedAt    string       `json:"updated_at"`
	RequesterID  int64        `json:"requester_id"`
	Tags         []string     `json:"tags"`
	CustomFields CustomFields `json:"custom_fields"`
}

// CustomFields tolerates the mixed scalar values helpdesk exports put in
// custom fields: numbers and booleans are coerced to strings, nulls dropped.
type CustomFields map[string]string

func (m *CustomFields) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(map[string]string, len(raw))
	for key, value := range raw {
		switch v := value.(type) {
		case string:
			out[key] = v
		case float64:
			out[key] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			out[key] = strconv.FormatBool(v)
		case nil:
		default:
			encoded, err := json.Marshal(v)
			if err != nil {
				return err
			}
			out[key] = string(encoded)
		}
	}
	*m = out
	return nil
}

// ImportSummary is the per-batch result returned to callers. Records that
// failed to parse are visible only as the gap between TotalProcessed and
// Imported+Updated.
type ImportSummary struct {
	Imported       int `json:"imported_tickets"`
	Updated        int `json:"updated_tickets"`
	TotalProcessed int `json:"total_processed"`
}

// ImportService runs the batch normalization pipeline: customer resolution,
// text classification, SLA evaluation, ticket upsert and outage extraction.
type ImportService struct {
	store      *repository.Store
	policies   *sla.PolicyTable
	evaluator  *sla.Evaluator
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// ImportDependencies bundles collaborators for the import service.
type ImportDependencies struct {
	Store      *repository.Store
	Policies   *sla.PolicyTable
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// NewImportService constructs the service.
func NewImportService(deps ImportDependencies) *ImportService {
	policies := deps.Policies
	if policies == nil {
		policies = sla.DefaultPolicyTable()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		store:      deps.Store,
		policies:   policies,
		evaluator:  sla.NewEvaluator(policies),
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clock,
	}
}

// ImportBatch processes the record set sequentially inside one transaction.
// Malformed records are logged and skipped; a store-level failure rolls the
// whole batch back. Re-running the same batch is idempotent.
func (s *ImportService) ImportBatch(ctx context.Context, records []RawTicket) (*ImportSummary, error) {
	summary := &ImportSummary{TotalProcessed: len(records)}
	var pending []events.Event

	err := s.store.WithTx(ctx, func(tx *repository.Store) error {
		for i := range records {
			record, err := s.parseRecord(&records[i])
			if err != nil {
				s.logger.Warn("skipping malformed record",
					zap.Int64("id", records[i].ID),
					zap.Error(err))
				continue
			}

			created, evts, err := s.persistRecord(ctx, tx, record)
			if err != nil {
				return fmt.Errorf("record %s: %w", record.externalID, err)
			}
			if created {
				summary.Imported++
			} else {
				summary.Updated++
			}
			pending = append(pending, evts...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, pending)
	s.publish(ctx, []events.Event{events.NewEvent(events.EventImportCompleted, "", *summary)})

	s.logger.Info("import batch completed",
		zap.Int("imported", summary.Imported),
		zap.Int("updated", summary.Updated),
		zap.Int("total_processed", summary.TotalProcessed))
	return summary, nil
}

// ImportFile loads a helpdesk export from disk and imports it. The file is
// either a bare JSON array of records or an object with a "tickets" key.
func (s *ImportService) ImportFile(ctx context.Context, path string) (*ImportSummary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export file: %w", err)
	}

	records, err := DecodeExport(raw)
	if err != nil {
		return nil, fmt.Errorf("decode export file %s: %w", path, err)
	}
	return s.ImportBatch(ctx, records)
}

// DecodeExport accepts both export shapes produced by the helpdesk: a bare
// array of records or an envelope object with a "tickets" key.
func DecodeExport(raw []byte) ([]RawTicket, error) {
	var records []RawTicket
	if err := json.Unmarshal(raw, &records); err == nil {
		return records, nil
	}
	var envelope struct {
		Tickets []RawTicket `json:"tickets"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	return envelope.Tickets, nil
}

// SeedSLADefinitions inserts the policy matrix rows that are not present
// yet. Safe to run on every startup.
func (s *ImportService) SeedSLADefinitions(ctx context.Context) error {
	for _, def := range s.policies.Definitions() {
		def := def
		if _, err := s.store.SLADefinitions.FindOrCreate(ctx, &def); err != nil {
			return fmt.Errorf("seed sla definition %s/%s: %w", def.CustomerType, def.Priority, err)
		}
	}
	return nil
}

// parsedRecord is a raw record after validation and normalization, before
// any store access.
type parsedRecord struct {
	externalID      string
	subject         string
	description     string
	priority        domain.TicketPriority
	severity        domain.TicketPriority
	status          domain.TicketStatus
	createdAt       time.Time
	updatedAt       time.Time
	requesterID     string
	tags            []string
	customFields    map[string]string
	rawCustomerType string
}

func (s *ImportService) parseRecord(raw *RawTicket) (*parsedRecord, error) {
	if raw.ID == 0 {
		return nil, errors.New("missing id")
	}
	createdAt, err := time.Parse(time.RFC3339, raw.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	updatedAt := createdAt
	if raw.UpdatedAt != "" {
		updatedAt, err = time.Parse(time.RFC3339, raw.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
	}

	customFields := map[string]string(raw.CustomFields)
	if customFields == nil {
		customFields = map[string]string{}
	}
	rawCustomerType := customFields["cf_customer_type"]
	if rawCustomerType == "" {
		rawCustomerType = "Unknown"
	}

	return &parsedRecord{
		externalID:      strconv.FormatInt(raw.ID, 10),
		subject:         raw.Subject,
		description:     raw.Description,
		priority:        domain.PriorityFromCode(raw.Priority),
		severity:        domain.PriorityFromCode(raw.Priority),
		status:          domain.StatusFromCode(raw.Status),
		createdAt:       createdAt,
		updatedAt:       updatedAt,
		requesterID:     strconv.FormatInt(raw.RequesterID, 10),
		tags:            raw.Tags,
		customFields:    customFields,
		rawCustomerType: rawCustomerType,
	}, nil
}

// persistRecord runs the derivation steps for one parsed record and writes
// the results through the transaction-scoped store. Returns whether a new
// ticket row was created.
func (s *ImportService) persistRecord(ctx context.Context, tx *repository.Store, record *parsedRecord) (bool, []events.Event, error) {
	customer, err := s.resolveCustomer(ctx, tx, record)
	if err != nil {
		return false, nil, err
	}

	serviceType := classify.ServiceType(record.subject, record.customFields)
	issueType := classify.IssueType(record.subject)
	productLine := record.customFields["cf_product973573"]
	if productLine == "" {
		productLine = serviceType
	}

	// breach targets follow the record's own classification label, not the
	// stored customer row: a customer re-encountered under a new label is
	// evaluated against the fresh label
	evaluated := s.evaluator.Evaluate(record.createdAt, record.updatedAt, record.priority,
		classify.CustomerType(record.rawCustomerType), s.now())

	updatedAt := record.updatedAt
	ticket := &domain.Ticket{
		ExternalID:          record.externalID,
		CustomerID:          &customer.ID,
		ProductLine:         productLine,
		Priority:            record.priority,
		Status:              record.status,
		Subject:             record.subject,
		Description:         classify.StripMarkup(record.description),
		IssueType:           issueType,
		ServiceType:         serviceType,
		CreatedAt:           record.createdAt,
		UpdatedAt:           &updatedAt,
		FirstResponseDue:    &evaluated.FirstResponseDue,
		ResolutionDue:       &evaluated.ResolutionDue,
		SLABreach:           evaluated.SLABreach,
		FirstResponseBreach: evaluated.FirstResponseBreach,
		ResolutionBreach:    evaluated.ResolutionBreach,
		RequesterID:         record.requesterID,
		Tags:                record.tags,
		CustomFields:        record.customFields,
	}

	created, err := s.upsertTicket(ctx, tx, ticket)
	if err != nil {
		return false, nil, err
	}

	evts := []events.Event{events.NewEvent(events.EventTicketImported, ticket.ExternalID, events.TicketImportedPayload{
		Created:     created,
		Priority:    ticket.Priority,
		IssueType:   ticket.IssueType,
		ServiceType: ticket.ServiceType,
	})}

	if classify.IsOutageIndicator(record.subject) {
		outage, err := s.extractOutage(ctx, tx, record, ticket, serviceType)
		if err != nil {
			return false, nil, err
		}
		evts = append(evts, events.NewEvent(events.EventOutageDetected, ticket.ExternalID, events.OutageDetectedPayload{
			OutageID:    outage.ID,
			ProductLine: outage.ProductLine,
			Severity:    outage.Severity,
			Recovered:   outage.EndTime != nil,
		}))
	}

	return created, evts, nil
}

// resolveCustomer maps the raw classification label and subject onto a
// canonical customer row, creating one on first encounter. Idempotent by
// name.
func (s *ImportService) resolveCustomer(ctx context.Context, tx *repository.Store, record *parsedRecord) (*domain.Customer, error) {
	name, ok := classify.CustomerName(record.subject)
	if !ok {
		name = fmt.Sprintf("Customer_%s", record.requesterID)
	}

	tier := record.customFields["cf_customer_tier"]
	if tier == "" {
		tier = "Standard"
	}

	return tx.Customers.FindOrCreate(ctx, &domain.Customer{
		Name:         name,
		CustomerType: classify.CustomerType(record.rawCustomerType),
		SLATier:      tier,
		Geography:    classify.Geography(record.rawCustomerType),
		ContactInfo:  map[string]any{"requester_id": record.requesterID},
	})
}

// upsertTicket reconciles the derived ticket against stored state, keyed by
// external id. Updates replace all derived fields.
func (s *ImportService) upsertTicket(ctx context.Context, tx *repository.Store, ticket *domain.Ticket) (bool, error) {
	existing, err := tx.Tickets.GetByExternalID(ctx, ticket.ExternalID)
	switch {
	case err == nil:
		ticket.ID = existing.ID
		return false, tx.Tickets.Update(ctx, ticket)
	case errors.Is(err, pgx.ErrNoRows):
		return true, tx.Tickets.Create(ctx, ticket)
	default:
		return false, err
	}
}

// extractOutage derives the outage episode for an outage-indicating ticket.
// A recovery subject closes the episode at the ticket's own creation time;
// no earlier trigger ticket is searched for.
func (s *ImportService) extractOutage(ctx context.Context, tx *repository.Store, record *parsedRecord, ticket *domain.Ticket, serviceType string) (*domain.Outage, error) {
	candidate := &domain.Outage{
		ProductLine: serviceType,
		ServiceType: serviceType,
		StartTime:   record.createdAt,
		Severity:    record.severity,
		RootCause:   classify.StripMarkup(record.description),
		TicketID:    &ticket.ID,
	}
	if classify.IsRecoveryIndicator(record.subject) {
		endTime := record.createdAt
		candidate.EndTime = &endTime
	}
	return tx.Outages.FindOrCreate(ctx, candidate)
}

func (s *ImportService) publish(ctx context.Context, evts []events.Event) {
	if s.dispatcher == nil {
		return
	}
	for _, event := range evts {
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("event publish failed", zap.String("type", string(event.Type)), zap.Error(err))
		}
	}
}
