package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-dashboard/internal/domain"
	"github.com/spec-kit/sla-dashboard/internal/repository"
)

// stubTickets serves canned aggregates.
type stubTickets struct {
	memTickets

	stats     repository.TicketStats
	byPri     []repository.GroupCount
	byStatus  []repository.GroupCount
	segments  []repository.SegmentStats
	trend     []repository.TrendPoint
	topIssues []repository.GroupCount
	open      int
	listed    []domain.Ticket
	total     int
}

func (s *stubTickets) Stats(context.Context, repository.TicketFilter) (*repository.TicketStats, error) {
	stats := s.stats
	return &stats, nil
}

func (s *stubTickets) PriorityBreakdown(context.Context, repository.TicketFilter) ([]repository.GroupCount, error) {
	return s.byPri, nil
}

func (s *stubTickets) StatusBreakdown(context.Context, repository.TicketFilter) ([]repository.GroupCount, error) {
	return s.byStatus, nil
}

func (s *stubTickets) SegmentStats(context.Context, time.Time, time.Time) ([]repository.SegmentStats, error) {
	return s.segments, nil
}

func (s *stubTickets) DailyTrend(context.Context, repository.TicketFilter) ([]repository.TrendPoint, error) {
	return s.trend, nil
}

func (s *stubTickets) TopIssues(context.Context, repository.TicketFilter, int) ([]repository.GroupCount, error) {
	return s.topIssues, nil
}

func (s *stubTickets) CountOpen(context.Context, time.Time, time.Time) (int, error) {
	return s.open, nil
}

func (s *stubTickets) ListWithFilter(context.Context, repository.TicketFilter) ([]domain.Ticket, error) {
	return s.listed, nil
}

func (s *stubTickets) CountWithFilter(context.Context, repository.TicketFilter) (int, error) {
	return s.total, nil
}

func reportWindow() (time.Time, time.Time) {
	end := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	return end.AddDate(0, 0, -30), end
}

func newReportFixture(tickets repository.TicketRepository, outages repository.OutageRepository) *ReportService {
	store := repository.NewStoreWith(newMemCustomers(), tickets, newMemSLADefs(), outages, memMetrics{})
	return NewReportService(store, nil, nil)
}

func TestSLAMetricsCompliance(t *testing.T) {
	start, end := reportWindow()
	tickets := &stubTickets{
		stats: repository.TicketStats{
			TotalTickets:          10,
			SLABreaches:           2,
			FirstResponseBreaches: 1,
			ResolutionBreaches:    2,
			AvgResponseHours:      1.234,
			AvgResolutionHours:    10.567,
		},
		byPri: []repository.GroupCount{{Label: "High", Total: 6, Breaches: 2}},
	}
	svc := newReportFixture(tickets, newMemOutages())

	resp, err := svc.SLAMetrics(context.Background(), ReportQuery{Start: start, End: end})
	require.NoError(t, err)

	assert.Equal(t, 10, resp.Summary.TotalTickets)
	assert.Equal(t, 2, resp.Summary.SLABreaches)
	assert.Equal(t, 80.0, resp.Summary.SLAComplianceRate)
	assert.Equal(t, 90.0, resp.Summary.FirstResponseCompliance)
	assert.Equal(t, 80.0, resp.Summary.ResolutionCompliance)
	assert.Equal(t, 1.23, resp.Summary.AvgResponseTimeHours)
	assert.Equal(t, 10.57, resp.Summary.AvgResolutionTimeHours)
	require.Len(t, resp.Breakdowns.Priority, 1)
	assert.Equal(t, "High", resp.Breakdowns.Priority[0].Label)
	assert.Equal(t, "all", resp.Filters.CustomerType)
}

func TestSLAMetricsEmptyWindow(t *testing.T) {
	start, end := reportWindow()
	svc := newReportFixture(&stubTickets{}, newMemOutages())

	resp, err := svc.SLAMetrics(context.Background(), ReportQuery{Start: start, End: end})
	require.NoError(t, err)

	assert.Equal(t, 0, resp.Summary.TotalTickets)
	assert.Equal(t, 100.0, resp.Summary.SLAComplianceRate)
}

func TestOutageReportRollups(t *testing.T) {
	start, end := reportWindow()
	outages := newMemOutages()

	resolvedEnd := start.Add(26 * time.Hour)
	ticketA, ticketB := "ticket-a", "ticket-b"
	_, err := outages.FindOrCreate(context.Background(), &domain.Outage{
		ProductLine: "SMS",
		StartTime:   start.Add(24 * time.Hour),
		EndTime:     &resolvedEnd,
		Severity:    domain.TicketPriorityCritical,
		TicketID:    &ticketA,
	})
	require.NoError(t, err)
	_, err = outages.FindOrCreate(context.Background(), &domain.Outage{
		ProductLine: "OCC",
		StartTime:   start.Add(48 * time.Hour),
		Severity:    domain.TicketPriorityHigh,
		TicketID:    &ticketB,
	})
	require.NoError(t, err)

	svc := newReportFixture(&stubTickets{}, outages)

	resp, err := svc.OutageReport(context.Background(), ReportQuery{Start: start, End: end})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Summary.TotalOutages)
	assert.Equal(t, 1, resp.Summary.OngoingOutages)
	assert.Equal(t, 120.0, resp.Summary.TotalDowntimeMinutes)
	assert.Equal(t, 120.0, resp.Summary.MTTRMinutes)
	// 120 minutes of downtime over a 30-day window
	assert.InDelta(t, 99.72, resp.Summary.AvailabilityPercentage, 0.01)
	assert.Len(t, resp.Outages, 2)
	assert.Len(t, resp.Breakdowns.Severity, 2)
	assert.Len(t, resp.Breakdowns.ProductLine, 2)
}

func TestExecutiveSummaryNarrative(t *testing.T) {
	start, end := reportWindow()
	tickets := &stubTickets{
		stats:     repository.TicketStats{TotalTickets: 40, SLABreaches: 4},
		topIssues: []repository.GroupCount{{Label: "Delivery Issue", Total: 12}},
		open:      7,
	}
	svc := newReportFixture(tickets, newMemOutages())

	resp, err := svc.ExecutiveSummary(context.Background(), ReportQuery{Start: start, End: end})
	require.NoError(t, err)

	assert.Equal(t, 30, resp.Period.Days)
	assert.Equal(t, 40, resp.KeyMetrics.TotalTickets)
	assert.Equal(t, 90.0, resp.KeyMetrics.SLAComplianceRate)
	assert.Equal(t, 7, resp.KeyMetrics.OpenTickets)
	require.Len(t, resp.TopIssues, 1)
	assert.Contains(t, resp.SummaryText, "40 tickets")
	assert.Contains(t, resp.SummaryText, "90.0%")
	assert.Contains(t, resp.SummaryText, "7 tickets remain open")
}

func TestTrendsComplianceRates(t *testing.T) {
	start, end := reportWindow()
	tickets := &stubTickets{
		trend: []repository.TrendPoint{
			{Date: start, Total: 4, SLABreaches: 1},
			{Date: start.AddDate(0, 0, 1), Total: 0, SLABreaches: 0},
		},
	}
	svc := newReportFixture(tickets, newMemOutages())

	resp, err := svc.Trends(context.Background(), ReportQuery{Start: start, End: end})
	require.NoError(t, err)

	require.Len(t, resp.Trends, 2)
	assert.Equal(t, start.Format("2006-01-02"), resp.Trends[0].Date)
	assert.Equal(t, 75.0, resp.Trends[0].SLAComplianceRate)
	assert.Equal(t, 100.0, resp.Trends[1].SLAComplianceRate)
}

func TestListTicketsPagination(t *testing.T) {
	tickets := &stubTickets{
		listed: []domain.Ticket{{ID: "t1", ExternalID: "1"}, {ID: "t2", ExternalID: "2"}},
		total:  5,
	}
	svc := newReportFixture(tickets, newMemOutages())

	resp, err := svc.ListTickets(context.Background(), repository.TicketFilter{}, 2, 2)
	require.NoError(t, err)

	assert.Len(t, resp.Tickets, 2)
	assert.Equal(t, 2, resp.Pagination.Page)
	assert.Equal(t, 5, resp.Pagination.Total)
	assert.Equal(t, 3, resp.Pagination.Pages)
	assert.True(t, resp.Pagination.HasNext)
	assert.True(t, resp.Pagination.HasPrev)
}
