package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-dashboard/internal/api/dto"
	"github.com/spec-kit/sla-dashboard/internal/domain"
	"github.com/spec-kit/sla-dashboard/internal/persistence"
	"github.com/spec-kit/sla-dashboard/internal/repository"
)

const cachePrefix = "report:"

// ReportQuery carries the resolved reporting window plus optional dimension
// filters shared by the dashboard endpoints.
type ReportQuery struct {
	Start        time.Time
	End          time.Time
	CustomerType *domain.CustomerType
	ProductLine  *string
}

// ReportService serves the read-only dashboard aggregates. Responses are
// cached in Redis and invalidated when an import batch commits.
type ReportService struct {
	store  *repository.Store
	cache  *persistence.Redis
	logger *zap.Logger
}

// NewReportService wires the aggregate reads. cache may be nil.
func NewReportService(store *repository.Store, cache *persistence.Redis, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{store: store, cache: cache, logger: logger}
}

// InvalidateCache drops every cached aggregate. Called after imports.
func (s *ReportService) InvalidateCache(ctx context.Context) {
	s.cache.InvalidatePrefix(ctx, cachePrefix)
}

// SLAMetrics aggregates breach counters and breakdowns over the window.
func (s *ReportService) SLAMetrics(ctx context.Context, q ReportQuery) (*dto.SLAMetricsResponse, error) {
	key := s.cacheKey("sla-metrics", q)
	var cached dto.SLAMetricsResponse
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	filter := q.ticketFilter()
	stats, err := s.store.Tickets.Stats(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ticket stats: %w", err)
	}
	byPriority, err := s.store.Tickets.PriorityBreakdown(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("priority breakdown: %w", err)
	}
	byStatus, err := s.store.Tickets.StatusBreakdown(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("status breakdown: %w", err)
	}

	resp := &dto.SLAMetricsResponse{
		Period:  dto.Period{StartDate: q.Start, EndDate: q.End},
		Filters: q.filters(),
		Summary: dto.SLASummary{
			TotalTickets:            stats.TotalTickets,
			SLABreaches:             stats.SLABreaches,
			SLAComplianceRate:       complianceRate(stats.TotalTickets, stats.SLABreaches),
			FirstResponseCompliance: complianceRate(stats.TotalTickets, stats.FirstResponseBreaches),
			ResolutionCompliance:    complianceRate(stats.TotalTickets, stats.ResolutionBreaches),
			AvgResponseTimeHours:    round2(stats.AvgResponseHours),
			AvgResolutionTimeHours:  round2(stats.AvgResolutionHours),
		},
	}
	resp.Breakdowns.Priority = buckets(byPriority)
	resp.Breakdowns.Status = buckets(byStatus)

	s.cache.SetJSON(ctx, key, resp)
	return resp, nil
}

// CustomerSegments aggregates compliance per customer type.
func (s *ReportService) CustomerSegments(ctx context.Context, q ReportQuery) (*dto.CustomerSegmentsResponse, error) {
	key := s.cacheKey("customer-segments", q)
	var cached dto.CustomerSegmentsResponse
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	segments, err := s.store.Tickets.SegmentStats(ctx, q.Start, q.End)
	if err != nil {
		return nil, fmt.Errorf("segment stats: %w", err)
	}

	resp := &dto.CustomerSegmentsResponse{
		Period:   dto.Period{StartDate: q.Start, EndDate: q.End},
		Segments: make([]dto.CustomerSegment, 0, len(segments)),
	}
	for _, seg := range segments {
		resp.Segments = append(resp.Segments, dto.CustomerSegment{
			CustomerType:       seg.CustomerType,
			TotalTickets:       seg.TotalTickets,
			SLABreaches:        seg.SLABreaches,
			SLAComplianceRate:  complianceRate(seg.TotalTickets, seg.SLABreaches),
			AvgResolutionHours: round2(seg.AvgResolutionHours),
		})
	}

	s.cache.SetJSON(ctx, key, resp)
	return resp, nil
}

// OutageReport lists outages in the window with downtime and MTTR rollups.
// Ongoing outages count zero minutes and are excluded from MTTR.
func (s *ReportService) OutageReport(ctx context.Context, q ReportQuery) (*dto.OutageReportResponse, error) {
	key := s.cacheKey("outages", q)
	var cached dto.OutageReportResponse
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	outages, err := s.store.Outages.ListInRange(ctx, q.Start, q.End, q.ProductLine)
	if err != nil {
		return nil, fmt.Errorf("list outages: %w", err)
	}

	resp := &dto.OutageReportResponse{
		Period:  dto.Period{StartDate: q.Start, EndDate: q.End},
		Outages: make([]dto.OutageView, 0, len(outages)),
	}

	var (
		totalDowntime float64
		resolvedCount int
		ongoingCount  int
		bySeverity    = map[string]int{}
		severityOrder []string
		byProduct     = map[string]*dto.OutageProductBucket{}
		productOrder  []string
	)
	for _, o := range outages {
		minutes := round2(o.DurationMinutes())
		if o.IsOngoing() {
			ongoingCount++
		} else {
			resolvedCount++
			totalDowntime += minutes
		}
		if _, ok := bySeverity[string(o.Severity)]; !ok {
			severityOrder = append(severityOrder, string(o.Severity))
		}
		bySeverity[string(o.Severity)]++
		bucket, ok := byProduct[o.ProductLine]
		if !ok {
			bucket = &dto.OutageProductBucket{Label: o.ProductLine}
			byProduct[o.ProductLine] = bucket
			productOrder = append(productOrder, o.ProductLine)
		}
		bucket.Count++
		bucket.DowntimeMinutes = round2(bucket.DowntimeMinutes + minutes)

		resp.Outages = append(resp.Outages, dto.OutageView{
			ID:                o.ID,
			ProductLine:       o.ProductLine,
			ServiceType:       o.ServiceType,
			StartTime:         o.StartTime,
			EndTime:           o.EndTime,
			DurationMinutes:   minutes,
			Severity:          o.Severity,
			AffectedCustomers: o.AffectedCustomers,
			RootCause:         o.RootCause,
			ResolutionSummary: o.ResolutionSummary,
			TicketID:          o.TicketID,
			IsOngoing:         o.IsOngoing(),
		})
	}

	resp.Summary.TotalOutages = len(outages)
	resp.Summary.OngoingOutages = ongoingCount
	resp.Summary.TotalDowntimeMinutes = round2(totalDowntime)
	if resolvedCount > 0 {
		resp.Summary.MTTRMinutes = round2(totalDowntime / float64(resolvedCount))
	}
	resp.Summary.AvailabilityPercentage = availability(q.Start, q.End, totalDowntime)

	for _, severity := range severityOrder {
		resp.Breakdowns.Severity = append(resp.Breakdowns.Severity, dto.BreakdownBucket{Label: severity, Total: bySeverity[severity]})
	}
	for _, name := range productOrder {
		resp.Breakdowns.ProductLine = append(resp.Breakdowns.ProductLine, *byProduct[name])
	}

	s.cache.SetJSON(ctx, key, resp)
	return resp, nil
}

// ExecutiveSummary condenses the window into headline numbers, the top
// issue types, and a one-paragraph narrative.
func (s *ReportService) ExecutiveSummary(ctx context.Context, q ReportQuery) (*dto.ExecutiveSummaryResponse, error) {
	key := s.cacheKey("executive-summary", q)
	var cached dto.ExecutiveSummaryResponse
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	filter := q.ticketFilter()
	stats, err := s.store.Tickets.Stats(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("ticket stats: %w", err)
	}
	topIssues, err := s.store.Tickets.TopIssues(ctx, filter, 5)
	if err != nil {
		return nil, fmt.Errorf("top issues: %w", err)
	}
	openTickets, err := s.store.Tickets.CountOpen(ctx, q.Start, q.End)
	if err != nil {
		return nil, fmt.Errorf("open tickets: %w", err)
	}
	outages, err := s.store.Outages.ListInRange(ctx, q.Start, q.End, nil)
	if err != nil {
		return nil, fmt.Errorf("list outages: %w", err)
	}

	days := int(q.End.Sub(q.Start).Hours() / 24)
	compliance := complianceRate(stats.TotalTickets, stats.SLABreaches)

	resp := &dto.ExecutiveSummaryResponse{
		Period:    dto.Period{StartDate: q.Start, EndDate: q.End, Days: days},
		TopIssues: buckets(topIssues),
	}
	resp.KeyMetrics.TotalTickets = stats.TotalTickets
	resp.KeyMetrics.SLAComplianceRate = compliance
	resp.KeyMetrics.SLABreaches = stats.SLABreaches
	resp.KeyMetrics.TotalOutages = len(outages)
	resp.KeyMetrics.OpenTickets = openTickets
	resp.SummaryText = fmt.Sprintf(
		"Over the last %d days, %d tickets were processed with an SLA compliance rate of %.1f%%. "+
			"There were %d SLA breaches and %d service outages. %d tickets remain open.",
		days, stats.TotalTickets, compliance, stats.SLABreaches, len(outages), openTickets)

	s.cache.SetJSON(ctx, key, resp)
	return resp, nil
}

// Trends returns the daily ticket/breach line over the window.
func (s *ReportService) Trends(ctx context.Context, q ReportQuery) (*dto.TrendsResponse, error) {
	key := s.cacheKey("trends", q)
	var cached dto.TrendsResponse
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	points, err := s.store.Tickets.DailyTrend(ctx, q.ticketFilter())
	if err != nil {
		return nil, fmt.Errorf("daily trend: %w", err)
	}

	resp := &dto.TrendsResponse{
		Period:       dto.Period{StartDate: q.Start, EndDate: q.End},
		CustomerType: q.filters().CustomerType,
		Trends:       make([]dto.TrendPoint, 0, len(points)),
	}
	for _, p := range points {
		resp.Trends = append(resp.Trends, dto.TrendPoint{
			Date:              p.Date.Format("2006-01-02"),
			TotalTickets:      p.Total,
			SLABreaches:       p.SLABreaches,
			SLAComplianceRate: complianceRate(p.Total, p.SLABreaches),
		})
	}

	s.cache.SetJSON(ctx, key, resp)
	return resp, nil
}

// ListTickets pages through normalized tickets, never cached.
func (s *ReportService) ListTickets(ctx context.Context, filter repository.TicketFilter, page, perPage int) (*dto.TicketListResponse, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 200 {
		perPage = 50
	}
	filter.Limit = perPage
	filter.Offset = (page - 1) * perPage

	tickets, err := s.store.Tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	total, err := s.store.Tickets.CountWithFilter(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count tickets: %w", err)
	}

	pages := (total + perPage - 1) / perPage
	resp := &dto.TicketListResponse{
		Tickets: make([]dto.TicketView, 0, len(tickets)),
		Pagination: dto.Pagination{
			Page:    page,
			PerPage: perPage,
			Total:   total,
			Pages:   pages,
			HasNext: page < pages,
			HasPrev: page > 1,
		},
	}
	for _, t := range tickets {
		resp.Tickets = append(resp.Tickets, ticketView(t))
	}
	return resp, nil
}

// SLADefinitions lists the seeded policy matrix.
func (s *ReportService) SLADefinitions(ctx context.Context) ([]dto.SLADefinitionView, error) {
	defs, err := s.store.SLADefinitions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sla definitions: %w", err)
	}
	result := make([]dto.SLADefinitionView, 0, len(defs))
	for _, def := range defs {
		result = append(result, dto.SLADefinitionView{
			ID:                     def.ID,
			CustomerType:           def.CustomerType,
			Priority:               def.Priority,
			ResponseTimeHours:      def.ResponseTimeHours,
			ResolutionTimeHours:    def.ResolutionTimeHours,
			AvailabilityPercentage: def.AvailabilityPercentage,
			CreatedAt:              def.CreatedAt,
		})
	}
	return result, nil
}

// Customers lists the customer registry.
func (s *ReportService) Customers(ctx context.Context) ([]dto.CustomerView, error) {
	customers, err := s.store.Customers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	result := make([]dto.CustomerView, 0, len(customers))
	for _, c := range customers {
		result = append(result, dto.CustomerView{
			ID:           c.ID,
			Name:         c.Name,
			CustomerType: c.CustomerType,
			SLATier:      c.SLATier,
			Geography:    c.Geography,
			ContactInfo:  c.ContactInfo,
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
		})
	}
	return result, nil
}

// PerformanceMetrics lists precomputed daily rollups in the window.
func (s *ReportService) PerformanceMetrics(ctx context.Context, q ReportQuery) ([]dto.PerformanceMetricView, error) {
	metrics, err := s.store.Metrics.ListInRange(ctx, q.Start, q.End, q.CustomerType, q.ProductLine)
	if err != nil {
		return nil, fmt.Errorf("list performance metrics: %w", err)
	}
	result := make([]dto.PerformanceMetricView, 0, len(metrics))
	for _, m := range metrics {
		result = append(result, dto.PerformanceMetricView{
			ID:                     m.ID,
			Date:                   m.Date.Format("2006-01-02"),
			CustomerType:           m.CustomerType,
			ProductLine:            m.ProductLine,
			TotalTickets:           m.TotalTickets,
			SLACompliantTickets:    m.SLACompliantTickets,
			SLABreachTickets:       m.SLABreachTickets,
			SLAComplianceRate:      round2(m.SLAComplianceRate()),
			AvgResponseTimeHours:   round2(m.AvgResponseTimeHours),
			AvgResolutionTimeHours: round2(m.AvgResolutionTimeHours),
			AvailabilityPercentage: m.AvailabilityPercentage,
			TotalOutages:           m.TotalOutages,
			TotalOutageMinutes:     m.TotalOutageMinutes,
		})
	}
	return result, nil
}

func (s *ReportService) cacheKey(endpoint string, q ReportQuery) string {
	ct, pl := "", ""
	if q.CustomerType != nil {
		ct = string(*q.CustomerType)
	}
	if q.ProductLine != nil {
		pl = *q.ProductLine
	}
	return fmt.Sprintf("%s%s:%d:%d:%s:%s", cachePrefix, endpoint, q.Start.Unix(), q.End.Unix(), ct, pl)
}

func (q ReportQuery) ticketFilter() repository.TicketFilter {
	start, end := q.Start, q.End
	return repository.TicketFilter{
		CustomerType: q.CustomerType,
		ProductLine:  q.ProductLine,
		CreatedFrom:  &start,
		CreatedTo:    &end,
	}
}

func (q ReportQuery) filters() dto.ReportFilters {
	f := dto.ReportFilters{CustomerType: "all", ProductLine: "all"}
	if q.CustomerType != nil {
		f.CustomerType = string(*q.CustomerType)
	}
	if q.ProductLine != nil {
		f.ProductLine = *q.ProductLine
	}
	return f
}

func ticketView(t domain.Ticket) dto.TicketView {
	return dto.TicketView{
		ID:                  t.ID,
		ExternalID:          t.ExternalID,
		CustomerID:          t.CustomerID,
		ProductLine:         t.ProductLine,
		Priority:            t.Priority,
		Status:              t.Status,
		Subject:             t.Subject,
		Description:         t.Description,
		IssueType:           t.IssueType,
		ServiceType:         t.ServiceType,
		CreatedAt:           t.CreatedAt,
		UpdatedAt:           t.UpdatedAt,
		ResolvedAt:          t.ResolvedAt,
		FirstResponseAt:     t.FirstResponseAt,
		FirstResponseDue:    t.FirstResponseDue,
		ResolutionDue:       t.ResolutionDue,
		SLABreach:           t.SLABreach,
		FirstResponseBreach: t.FirstResponseBreach,
		ResolutionBreach:    t.ResolutionBreach,
		RequesterID:         t.RequesterID,
		Tags:                t.Tags,
		CustomFields:        t.CustomFields,
	}
}

// complianceRate converts a breach count to a percent compliance figure.
func complianceRate(total, breaches int) float64 {
	if total == 0 {
		return 100
	}
	return round2(float64(total-breaches) / float64(total) * 100)
}

// availability is downtime relative to the window length, in percent.
func availability(start, end time.Time, downtimeMinutes float64) float64 {
	window := end.Sub(start).Minutes()
	if window <= 0 {
		return 100
	}
	pct := (1 - downtimeMinutes/window) * 100
	if pct < 0 {
		pct = 0
	}
	return round2(pct)
}

func buckets(groups []repository.GroupCount) []dto.BreakdownBucket {
	result := make([]dto.BreakdownBucket, 0, len(groups))
	for _, g := range groups {
		result = append(result, dto.BreakdownBucket{Label: g.Label, Total: g.Total, Breaches: g.Breaches})
	}
	return result
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
