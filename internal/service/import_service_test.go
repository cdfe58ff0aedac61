package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-dashboard/internal/domain"
	"github.com/spec-kit/sla-dashboard/internal/events"
	"github.com/spec-kit/sla-dashboard/internal/repository"
)

type memCustomers struct {
	byName map[string]*domain.Customer
	seq    int
}

func newMemCustomers() *memCustomers {
	return &memCustomers{byName: map[string]*domain.Customer{}}
}

func (m *memCustomers) GetByName(_ context.Context, name string) (*domain.Customer, error) {
	if c, ok := m.byName[name]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memCustomers) FindOrCreate(_ context.Context, candidate *domain.Customer) (*domain.Customer, error) {
	if existing, ok := m.byName[candidate.Name]; ok {
		copied := *existing
		return &copied, nil
	}
	m.seq++
	candidate.ID = fmt.Sprintf("customer-%d", m.seq)
	candidate.CreatedAt = time.Now().UTC()
	candidate.UpdatedAt = candidate.CreatedAt
	stored := *candidate
	m.byName[candidate.Name] = &stored
	return candidate, nil
}

func (m *memCustomers) List(_ context.Context) ([]domain.Customer, error) {
	var result []domain.Customer
	for _, c := range m.byName {
		result = append(result, *c)
	}
	return result, nil
}

type memTickets struct {
	byExternalID map[string]*domain.Ticket
	seq          int
}

func newMemTickets() *memTickets {
	return &memTickets{byExternalID: map[string]*domain.Ticket{}}
}

func (m *memTickets) Create(_ context.Context, ticket *domain.Ticket) error {
	m.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", m.seq)
	stored := *ticket
	m.byExternalID[ticket.ExternalID] = &stored
	return nil
}

func (m *memTickets) Update(_ context.Context, ticket *domain.Ticket) error {
	existing, ok := m.byExternalID[ticket.ExternalID]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.ID = existing.ID
	stored := *ticket
	m.byExternalID[ticket.ExternalID] = &stored
	return nil
}

func (m *memTickets) GetByExternalID(_ context.Context, externalID string) (*domain.Ticket, error) {
	if t, ok := m.byExternalID[externalID]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memTickets) ListWithFilter(context.Context, repository.TicketFilter) ([]domain.Ticket, error) {
	return nil, nil
}

func (m *memTickets) CountWithFilter(context.Context, repository.TicketFilter) (int, error) {
	return len(m.byExternalID), nil
}

func (m *memTickets) Stats(context.Context, repository.TicketFilter) (*repository.TicketStats, error) {
	return &repository.TicketStats{}, nil
}

func (m *memTickets) PriorityBreakdown(context.Context, repository.TicketFilter) ([]repository.GroupCount, error) {
	return nil, nil
}

func (m *memTickets) StatusBreakdown(context.Context, repository.TicketFilter) ([]repository.GroupCount, error) {
	return nil, nil
}

func (m *memTickets) SegmentStats(context.Context, time.Time, time.Time) ([]repository.SegmentStats, error) {
	return nil, nil
}

func (m *memTickets) DailyTrend(context.Context, repository.TicketFilter) ([]repository.TrendPoint, error) {
	return nil, nil
}

func (m *memTickets) TopIssues(context.Context, repository.TicketFilter, int) ([]repository.GroupCount, error) {
	return nil, nil
}

func (m *memTickets) CountOpen(context.Context, time.Time, time.Time) (int, error) {
	return 0, nil
}

type memSLADefs struct {
	byKey map[string]*domain.SLADefinition
	seq   int
}

func newMemSLADefs() *memSLADefs {
	return &memSLADefs{byKey: map[string]*domain.SLADefinition{}}
}

func (m *memSLADefs) FindOrCreate(_ context.Context, def *domain.SLADefinition) (*domain.SLADefinition, error) {
	key := string(def.CustomerType) + "/" + string(def.Priority)
	if existing, ok := m.byKey[key]; ok {
		copied := *existing
		return &copied, nil
	}
	m.seq++
	def.ID = fmt.Sprintf("sla-%d", m.seq)
	def.CreatedAt = time.Now().UTC()
	stored := *def
	m.byKey[key] = &stored
	return def, nil
}

func (m *memSLADefs) List(_ context.Context) ([]domain.SLADefinition, error) {
	var result []domain.SLADefinition
	for _, def := range m.byKey {
		result = append(result, *def)
	}
	return result, nil
}

type memOutages struct {
	byTicketID map[string]*domain.Outage
	seq        int
}

func newMemOutages() *memOutages {
	return &memOutages{byTicketID: map[string]*domain.Outage{}}
}

func (m *memOutages) GetByTicketID(_ context.Context, ticketID string) (*domain.Outage, error) {
	if o, ok := m.byTicketID[ticketID]; ok {
		copied := *o
		return &copied, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memOutages) FindOrCreate(_ context.Context, candidate *domain.Outage) (*domain.Outage, error) {
	if candidate.TicketID != nil {
		if existing, ok := m.byTicketID[*candidate.TicketID]; ok {
			copied := *existing
			return &copied, nil
		}
	}
	m.seq++
	candidate.ID = fmt.Sprintf("outage-%d", m.seq)
	if candidate.TicketID != nil {
		stored := *candidate
		m.byTicketID[*candidate.TicketID] = &stored
	}
	return candidate, nil
}

func (m *memOutages) ListInRange(context.Context, time.Time, time.Time, *string) ([]domain.Outage, error) {
	var result []domain.Outage
	for _, o := range m.byTicketID {
		result = append(result, *o)
	}
	return result, nil
}

type memMetrics struct{}

func (memMetrics) ListInRange(context.Context, time.Time, time.Time, *domain.CustomerType, *string) ([]domain.PerformanceMetric, error) {
	return nil, nil
}

type recordingDispatcher struct {
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) ofType(t events.EventType) []events.Event {
	var result []events.Event
	for _, e := range d.events {
		if e.Type == t {
			result = append(result, e)
		}
	}
	return result
}

type importFixture struct {
	svc        *ImportService
	customers  *memCustomers
	tickets    *memTickets
	outages    *memOutages
	slas       *memSLADefs
	dispatcher *recordingDispatcher
}

func newImportFixture(t *testing.T, now time.Time) *importFixture {
	t.Helper()
	f := &importFixture{
		customers:  newMemCustomers(),
		tickets:    newMemTickets(),
		outages:    newMemOutages(),
		slas:       newMemSLADefs(),
		dispatcher: &recordingDispatcher{},
	}
	store := repository.NewStoreWith(f.customers, f.tickets, f.slas, f.outages, memMetrics{})
	f.svc = NewImportService(ImportDependencies{
		Store:      store,
		Dispatcher: f.dispatcher,
		Clock:      func() time.Time { return now },
	})
	return f
}

func rawTicket(id int64, subject string) RawTicket {
	return RawTicket{
		ID:          id,
		Subject:     subject,
		Description: "<div>Something\n   broke</div>",
		Priority:    3,
		Status:      2,
		CreatedAt:   "2024-03-01T08:00:00Z",
		UpdatedAt:   "2024-03-01T09:00:00Z",
		RequesterID: 777,
		Tags:        []string{"inbound"},
		CustomFields: map[string]string{
			"cf_customer_type": "Wholesale - Jordan",
		},
	}
}

func TestImportBatchCreatesTicket(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newImportFixture(t, now)

	summary, err := f.svc.ImportBatch(context.Background(), []RawTicket{
		rawTicket(101, "SMS delivery failing | Biddex"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 0, summary.Updated)
	assert.Equal(t, 1, summary.TotalProcessed)

	ticket, err := f.tickets.GetByExternalID(context.Background(), "101")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityHigh, ticket.Priority)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, "SMS", ticket.ServiceType)
	assert.Equal(t, "Delivery Issue", ticket.IssueType)
	assert.Equal(t, "SMS", ticket.ProductLine)
	assert.Equal(t, "Something broke", ticket.Description)
	require.NotNil(t, ticket.FirstResponseDue)
	require.NotNil(t, ticket.ResolutionDue)

	// wholesale High: 4h response, 12h resolution
	created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, created.Add(4*time.Hour), ticket.FirstResponseDue.UTC())
	assert.Equal(t, created.Add(12*time.Hour), ticket.ResolutionDue.UTC())
	assert.True(t, ticket.SLABreach)

	customer, err := f.customers.GetByName(context.Background(), "Biddex")
	require.NoError(t, err)
	assert.Equal(t, domain.CustomerTypeWholesale, customer.CustomerType)
	assert.Equal(t, customer.ID, *ticket.CustomerID)
}

func TestImportBatchIsIdempotent(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newImportFixture(t, now)
	batch := []RawTicket{rawTicket(101, "SMS delivery failing | Biddex")}

	_, err := f.svc.ImportBatch(context.Background(), batch)
	require.NoError(t, err)

	summary, err := f.svc.ImportBatch(context.Background(), batch)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Imported)
	assert.Equal(t, 1, summary.Updated)
	assert.Len(t, f.tickets.byExternalID, 1)
	assert.Len(t, f.customers.byName, 1)
}

func TestImportBatchSkipsMalformedRecords(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newImportFixture(t, now)

	missingID := rawTicket(0, "broken record")
	badTimestamp := rawTicket(103, "also broken")
	badTimestamp.CreatedAt = "yesterday"

	summary, err := f.svc.ImportBatch(context.Background(), []RawTicket{
		rawTicket(101, "SMS delivery failing | Biddex"),
		missingID,
		badTimestamp,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalProcessed)
	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 0, summary.Updated)
	assert.Len(t, f.tickets.byExternalID, 1)
}

func TestImportBatchExtractsOutage(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newImportFixture(t, now)

	summary, err := f.svc.ImportBatch(context.Background(), []RawTicket{
		rawTicket(201, "Connection Down | Acme"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)

	outages, err := f.outages.ListInRange(context.Background(), time.Time{}, now, nil)
	require.NoError(t, err)
	require.Len(t, outages, 1)
	assert.True(t, outages[0].IsOngoing())
	assert.Zero(t, outages[0].DurationMinutes())

	// replaying the batch must not duplicate the outage
	_, err = f.svc.ImportBatch(context.Background(), []RawTicket{
		rawTicket(201, "Connection Down | Acme"),
	})
	require.NoError(t, err)
	outages, err = f.outages.ListInRange(context.Background(), time.Time{}, now, nil)
	require.NoError(t, err)
	assert.Len(t, outages, 1)
}

func TestImportBatchClosesRecoveredOutage(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newImportFixture(t, now)

	_, err := f.svc.ImportBatch(context.Background(), []RawTicket{
		rawTicket(202, "Recovered: SMS service down | Acme"),
	})
	require.NoError(t, err)

	outages, err := f.outages.ListInRange(context.Background(), time.Time{}, now, nil)
	require.NoError(t, err)
	require.Len(t, outages, 1)
	require.NotNil(t, outages[0].EndTime)
	assert.False(t, outages[0].IsOngoing())
	assert.Equal(t, outages[0].StartTime, *outages[0].EndTime)
}

func TestImportBatchSynthesizesCustomerName(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newImportFixture(t, now)

	_, err := f.svc.ImportBatch(context.Background(), []RawTicket{
		rawTicket(301, "cannot log in"),
	})
	require.NoError(t, err)

	customer, err := f.customers.GetByName(context.Background(), "Customer_777")
	require.NoError(t, err)
	assert.Equal(t, domain.CustomerTypeWholesale, customer.CustomerType)
}

func TestImportEvaluatesFreshCustomerTypeLabel(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newImportFixture(t, now)

	first := rawTicket(401, "SMS delivery failing | Biddex")
	first.CustomFields = map[string]string{"cf_customer_type": "Enterprise - Global"}
	_, err := f.svc.ImportBatch(context.Background(), []RawTicket{first})
	require.NoError(t, err)

	// re-encountered under a wholesale label: the stored row keeps its
	// first-seen type, but breach targets follow the record's own label
	second := rawTicket(402, "SMS latency | Biddex")
	_, err = f.svc.ImportBatch(context.Background(), []RawTicket{second})
	require.NoError(t, err)

	created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	enterprise, err := f.tickets.GetByExternalID(context.Background(), "401")
	require.NoError(t, err)
	assert.Equal(t, created.Add(2*time.Hour), enterprise.FirstResponseDue.UTC())
	assert.Equal(t, created.Add(8*time.Hour), enterprise.ResolutionDue.UTC())

	wholesale, err := f.tickets.GetByExternalID(context.Background(), "402")
	require.NoError(t, err)
	assert.Equal(t, created.Add(4*time.Hour), wholesale.FirstResponseDue.UTC())
	assert.Equal(t, created.Add(12*time.Hour), wholesale.ResolutionDue.UTC())

	customer, err := f.customers.GetByName(context.Background(), "Biddex")
	require.NoError(t, err)
	assert.Equal(t, domain.CustomerTypeEnterprise, customer.CustomerType)
}

func TestImportBatchPublishesEvents(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newImportFixture(t, now)

	_, err := f.svc.ImportBatch(context.Background(), []RawTicket{
		rawTicket(101, "SMS delivery failing | Biddex"),
		rawTicket(201, "Connection Down | Acme"),
	})
	require.NoError(t, err)

	assert.Len(t, f.dispatcher.ofType(events.EventTicketImported), 2)
	assert.Len(t, f.dispatcher.ofType(events.EventOutageDetected), 1)

	completed := f.dispatcher.ofType(events.EventImportCompleted)
	require.Len(t, completed, 1)
	summary, ok := completed[0].Payload.(ImportSummary)
	require.True(t, ok)
	assert.Equal(t, 2, summary.Imported)
}

func TestSeedSLADefinitionsIsIdempotent(t *testing.T) {
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newImportFixture(t, now)

	require.NoError(t, f.svc.SeedSLADefinitions(context.Background()))
	require.NoError(t, f.svc.SeedSLADefinitions(context.Background()))

	defs, err := f.slas.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, defs, 12)
}

func TestDecodeExportShapes(t *testing.T) {
	bare := []byte(`[{"id": 1, "subject": "a", "created_at": "2024-03-01T08:00:00Z"}]`)
	records, err := DecodeExport(bare)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(1), records[0].ID)

	envelope := []byte(`{"tickets": [{"id": 2, "subject": "b", "created_at": "2024-03-01T08:00:00Z"}]}`)
	records, err = DecodeExport(envelope)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(2), records[0].ID)
}

func TestDecodeExportCoercesCustomFieldValues(t *testing.T) {
	raw := []byte(`[{
		"id": 3,
		"subject": "mixed fields",
		"created_at": "2024-03-01T08:00:00Z",
		"custom_fields": {
			"cf_customer_type": "Wholesale - Jordan",
			"cf_retries": 3,
			"cf_ratio": 1.5,
			"cf_vip": true,
			"cf_note": null
		}
	}]`)

	records, err := DecodeExport(raw)
	require.NoError(t, err)
	require.Len(t, records, 1)

	fields := records[0].CustomFields
	assert.Equal(t, "Wholesale - Jordan", fields["cf_customer_type"])
	assert.Equal(t, "3", fields["cf_retries"])
	assert.Equal(t, "1.5", fields["cf_ratio"])
	assert.Equal(t, "true", fields["cf_vip"])
	_, ok := fields["cf_note"]
	assert.False(t, ok)
}
