package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-dashboard/internal/domain"
	"github.com/spec-kit/sla-dashboard/internal/repository"
	"github.com/spec-kit/sla-dashboard/internal/service"
	apperrors "github.com/spec-kit/sla-dashboard/pkg/util"
)

// DashboardHandler serves the read-only reporting endpoints.
type DashboardHandler struct {
	reports *service.ReportService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(reports *service.ReportService) *DashboardHandler {
	return &DashboardHandler{reports: reports}
}

// SLAMetrics GET /api/sla-metrics.
func (h *DashboardHandler) SLAMetrics(c *fiber.Ctx) error {
	q, err := parseReportQuery(c)
	if err != nil {
		return err
	}
	resp, err := h.reports.SLAMetrics(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// CustomerSegments GET /api/customer-segments.
func (h *DashboardHandler) CustomerSegments(c *fiber.Ctx) error {
	q, err := parseReportQuery(c)
	if err != nil {
		return err
	}
	resp, err := h.reports.CustomerSegments(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Outages GET /api/outages.
func (h *DashboardHandler) Outages(c *fiber.Ctx) error {
	q, err := parseReportQuery(c)
	if err != nil {
		return err
	}
	resp, err := h.reports.OutageReport(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ExecutiveSummary GET /api/executive-summary.
func (h *DashboardHandler) ExecutiveSummary(c *fiber.Ctx) error {
	q, err := parseReportQuery(c)
	if err != nil {
		return err
	}
	resp, err := h.reports.ExecutiveSummary(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Trends GET /api/trends.
func (h *DashboardHandler) Trends(c *fiber.Ctx) error {
	q, err := parseReportQuery(c)
	if err != nil {
		return err
	}
	resp, err := h.reports.Trends(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Tickets GET /api/tickets.
func (h *DashboardHandler) Tickets(c *fiber.Ctx) error {
	q, err := parseReportQuery(c)
	if err != nil {
		return err
	}

	filter := repository.TicketFilter{
		CustomerType: q.CustomerType,
		ProductLine:  q.ProductLine,
		CreatedFrom:  &q.Start,
		CreatedTo:    &q.End,
	}
	if priority := c.Query("priority"); priority != "" {
		p := domain.TicketPriority(priority)
		filter.Priority = &p
	}
	if status := c.Query("status"); status != "" {
		st := domain.TicketStatus(status)
		filter.Status = &st
	}
	if breach := c.Query("sla_breach"); breach != "" {
		parsed, err := strconv.ParseBool(breach)
		if err != nil {
			return apperrors.NewValidationError("invalid sla_breach", nil)
		}
		filter.SLABreach = &parsed
	}

	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 50)

	resp, err := h.reports.ListTickets(c.UserContext(), filter, page, perPage)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// SLADefinitions GET /api/sla-definitions.
func (h *DashboardHandler) SLADefinitions(c *fiber.Ctx) error {
	defs, err := h.reports.SLADefinitions(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"sla_definitions": defs})
}

// Customers GET /api/customers.
func (h *DashboardHandler) Customers(c *fiber.Ctx) error {
	customers, err := h.reports.Customers(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"customers": customers})
}

// PerformanceMetrics GET /api/performance-metrics.
func (h *DashboardHandler) PerformanceMetrics(c *fiber.Ctx) error {
	q, err := parseReportQuery(c)
	if err != nil {
		return err
	}
	metrics, err := h.reports.PerformanceMetrics(c.UserContext(), q)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"metrics": metrics})
}

// parseReportQuery resolves the reporting window and the shared dimension
// filters. The window defaults to the last `days` days ending now.
func parseReportQuery(c *fiber.Ctx) (service.ReportQuery, error) {
	days := queryInt(c, "days", 30)
	if days < 1 || days > 365 {
		return service.ReportQuery{}, apperrors.NewValidationError("days must be between 1 and 365", nil)
	}

	end := time.Now().UTC()
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return service.ReportQuery{}, apperrors.NewValidationError("invalid end_date", nil)
		}
		end = parsed
	}
	start := end.AddDate(0, 0, -days)
	if raw := c.Query("start_date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return service.ReportQuery{}, apperrors.NewValidationError("invalid start_date", nil)
		}
		start = parsed
	}
	if !start.Before(end) {
		return service.ReportQuery{}, apperrors.NewValidationError("start_date must precede end_date", nil)
	}

	q := service.ReportQuery{Start: start, End: end}
	if raw := c.Query("customer_type"); raw != "" {
		ct := domain.CustomerType(raw)
		q.CustomerType = &ct
	}
	if raw := c.Query("product_line"); raw != "" {
		pl := raw
		q.ProductLine = &pl
	}
	return q, nil
}

func parseDate(val string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", val)
}

func queryInt(c *fiber.Ctx, key string, def int) int {
	val := c.Query(key)
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
