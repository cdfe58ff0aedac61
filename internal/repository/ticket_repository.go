package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sla-dashboard/internal/domain"
)

// TicketFilter captures dashboard query parameters.
type TicketFilter struct {
	CustomerType *domain.CustomerType
	ProductLine  *string
	Priority     *domain.TicketPriority
	Status       *domain.TicketStatus
	SLABreach    *bool
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// TicketStats aggregates breach counters over a filtered ticket set.
type TicketStats struct {
	TotalTickets          int
	SLABreaches           int
	FirstResponseBreaches int
	ResolutionBreaches    int
	AvgResponseHours      float64
	AvgResolutionHours    float64
}

// GroupCount is one breakdown bucket.
type GroupCount struct {
	Label    string
	Total    int
	Breaches int
}

// SegmentStats aggregates per customer type.
type SegmentStats struct {
	CustomerType       domain.CustomerType
	TotalTickets       int
	SLABreaches        int
	AvgResolutionHours float64
}

// TrendPoint is one day of the trend line.
type TrendPoint struct {
	Date        time.Time
	Total       int
	SLABreaches int
}

// TicketRepository encapsulates ticket persistence and aggregate reads.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByExternalID(ctx context.Context, externalID string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountWithFilter(ctx context.Context, filter TicketFilter) (int, error)
	Stats(ctx context.Context, filter TicketFilter) (*TicketStats, error)
	PriorityBreakdown(ctx context.Context, filter TicketFilter) ([]GroupCount, error)
	StatusBreakdown(ctx context.Context, filter TicketFilter) ([]GroupCount, error)
	SegmentStats(ctx context.Context, from, to time.Time) ([]SegmentStats, error)
	DailyTrend(ctx context.Context, filter TicketFilter) ([]TrendPoint, error)
	TopIssues(ctx context.Context, filter TicketFilter, limit int) ([]GroupCount, error)
	CountOpen(ctx context.Context, from, to time.Time) (int, error)
}

type ticketRepository struct {
	db Querier
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db Querier) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `t.id, t.external_id, t.customer_id, t.product_line, t.priority, t.status,
               t.subject, t.description, t.issue_type, t.service_type,
               t.created_at, t.updated_at, t.resolved_at, t.first_response_at,
               t.first_response_due, t.resolution_due, t.sla_breach, t.first_response_breach, t.resolution_breach,
               t.requester_id, t.tags, t.custom_fields`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (external_id, customer_id, product_line, priority, status, subject, description,
            issue_type, service_type, created_at, updated_at, resolved_at, first_response_at,
            first_response_due, resolution_due, sla_breach, first_response_breach, resolution_breach,
            requester_id, tags, custom_fields)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		ticket.ExternalID,
		ticket.CustomerID,
		ticket.ProductLine,
		ticket.Priority,
		ticket.Status,
		ticket.Subject,
		ticket.Description,
		ticket.IssueType,
		ticket.ServiceType,
		ticket.CreatedAt,
		ticket.UpdatedAt,
		ticket.ResolvedAt,
		ticket.FirstResponseAt,
		ticket.FirstResponseDue,
		ticket.ResolutionDue,
		ticket.SLABreach,
		ticket.FirstResponseBreach,
		ticket.ResolutionBreach,
		ticket.RequesterID,
		ticket.Tags,
		ticket.CustomFields,
	).Scan(&ticket.ID)
}

// Update overwrites all derived fields in place (full replace, not merge).
func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET customer_id=$1, product_line=$2, priority=$3, status=$4, subject=$5,
            description=$6, issue_type=$7, service_type=$8, updated_at=$9, resolved_at=$10,
            first_response_at=$11, first_response_due=$12, resolution_due=$13,
            sla_breach=$14, first_response_breach=$15, resolution_breach=$16,
            requester_id=$17, tags=$18, custom_fields=$19
        WHERE external_id=$20`
	cmd, err := r.db.Exec(ctx, query,
		ticket.CustomerID,
		ticket.ProductLine,
		ticket.Priority,
		ticket.Status,
		ticket.Subject,
		ticket.Description,
		ticket.IssueType,
		ticket.ServiceType,
		ticket.UpdatedAt,
		ticket.ResolvedAt,
		ticket.FirstResponseAt,
		ticket.FirstResponseDue,
		ticket.ResolutionDue,
		ticket.SLABreach,
		ticket.FirstResponseBreach,
		ticket.ResolutionBreach,
		ticket.RequesterID,
		ticket.Tags,
		ticket.CustomFields,
		ticket.ExternalID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets t WHERE t.external_id=$1`
	var ticket domain.Ticket
	if err := scanTicket(r.db.QueryRow(ctx, query, externalID), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	join, where, args := filter.clauses()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets t %s WHERE %s ORDER BY t.created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, join, strings.Join(where, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountWithFilter(ctx context.Context, filter TicketFilter) (int, error) {
	join, where, args := filter.clauses()
	query := fmt.Sprintf(`SELECT COUNT(*) FROM tickets t %s WHERE %s`, join, strings.Join(where, " AND "))
	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) Stats(ctx context.Context, filter TicketFilter) (*TicketStats, error) {
	join, where, args := filter.clauses()
	query := fmt.Sprintf(`
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE t.sla_breach),
               COUNT(*) FILTER (WHERE t.first_response_breach),
               COUNT(*) FILTER (WHERE t.resolution_breach),
               COALESCE(AVG(EXTRACT(EPOCH FROM (t.first_response_at - t.created_at))/3600)
                   FILTER (WHERE t.first_response_at IS NOT NULL), 0),
               COALESCE(AVG(EXTRACT(EPOCH FROM (t.resolved_at - t.created_at))/3600)
                   FILTER (WHERE t.resolved_at IS NOT NULL), 0)
        FROM tickets t %s WHERE %s`, join, strings.Join(where, " AND "))

	var stats TicketStats
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&stats.TotalTickets,
		&stats.SLABreaches,
		&stats.FirstResponseBreaches,
		&stats.ResolutionBreaches,
		&stats.AvgResponseHours,
		&stats.AvgResolutionHours,
	); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (r *ticketRepository) PriorityBreakdown(ctx context.Context, filter TicketFilter) ([]GroupCount, error) {
	return r.breakdown(ctx, filter, "t.priority")
}

func (r *ticketRepository) StatusBreakdown(ctx context.Context, filter TicketFilter) ([]GroupCount, error) {
	return r.breakdown(ctx, filter, "t.status")
}

func (r *ticketRepository) breakdown(ctx context.Context, filter TicketFilter, column string) ([]GroupCount, error) {
	join, where, args := filter.clauses()
	query := fmt.Sprintf(`
        SELECT COALESCE(%s, 'Unknown'), COUNT(*), COUNT(*) FILTER (WHERE t.sla_breach)
        FROM tickets t %s WHERE %s GROUP BY 1 ORDER BY 2 DESC`,
		column, join, strings.Join(where, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []GroupCount
	for rows.Next() {
		var gc GroupCount
		if err := rows.Scan(&gc.Label, &gc.Total, &gc.Breaches); err != nil {
			return nil, err
		}
		result = append(result, gc)
	}
	return result, rows.Err()
}

func (r *ticketRepository) SegmentStats(ctx context.Context, from, to time.Time) ([]SegmentStats, error) {
	const query = `
        SELECT c.customer_type,
               COUNT(t.id),
               COUNT(*) FILTER (WHERE t.sla_breach),
               COALESCE(AVG(EXTRACT(EPOCH FROM (t.resolved_at - t.created_at))/3600)
                   FILTER (WHERE t.resolved_at IS NOT NULL), 0)
        FROM customers c
        JOIN tickets t ON t.customer_id = c.id
        WHERE t.created_at >= $1 AND t.created_at <= $2
        GROUP BY c.customer_type
        ORDER BY c.customer_type`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SegmentStats
	for rows.Next() {
		var seg SegmentStats
		if err := rows.Scan(&seg.CustomerType, &seg.TotalTickets, &seg.SLABreaches, &seg.AvgResolutionHours); err != nil {
			return nil, err
		}
		result = append(result, seg)
	}
	return result, rows.Err()
}

func (r *ticketRepository) DailyTrend(ctx context.Context, filter TicketFilter) ([]TrendPoint, error) {
	join, where, args := filter.clauses()
	query := fmt.Sprintf(`
        SELECT DATE(t.created_at), COUNT(*), COUNT(*) FILTER (WHERE t.sla_breach)
        FROM tickets t %s WHERE %s GROUP BY 1 ORDER BY 1`,
		join, strings.Join(where, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TrendPoint
	for rows.Next() {
		var point TrendPoint
		if err := rows.Scan(&point.Date, &point.Total, &point.SLABreaches); err != nil {
			return nil, err
		}
		result = append(result, point)
	}
	return result, rows.Err()
}

func (r *ticketRepository) TopIssues(ctx context.Context, filter TicketFilter, limit int) ([]GroupCount, error) {
	if limit <= 0 {
		limit = 5
	}
	join, where, args := filter.clauses()
	query := fmt.Sprintf(`
        SELECT t.issue_type, COUNT(*), COUNT(*) FILTER (WHERE t.sla_breach)
        FROM tickets t %s WHERE %s GROUP BY t.issue_type ORDER BY COUNT(*) DESC LIMIT %d`,
		join, strings.Join(where, " AND "), limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []GroupCount
	for rows.Next() {
		var gc GroupCount
		if err := rows.Scan(&gc.Label, &gc.Total, &gc.Breaches); err != nil {
			return nil, err
		}
		result = append(result, gc)
	}
	return result, rows.Err()
}

func (r *ticketRepository) CountOpen(ctx context.Context, from, to time.Time) (int, error) {
	const query = `
        SELECT COUNT(*) FROM tickets t
        WHERE t.created_at >= $1 AND t.created_at <= $2
          AND t.status IN ('Open','Pending','Escalated')`
	var count int
	if err := r.db.QueryRow(ctx, query, from, to).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (f TicketFilter) clauses() (string, []string, []any) {
	join := ""
	clauses := []string{"1=1"}
	args := []any{}

	if f.CustomerType != nil {
		join = "JOIN customers c ON t.customer_id = c.id"
		args = append(args, *f.CustomerType)
		clauses = append(clauses, fmt.Sprintf("c.customer_type=$%d", len(args)))
	}
	if f.ProductLine != nil {
		args = append(args, *f.ProductLine)
		clauses = append(clauses, fmt.Sprintf("t.product_line=$%d", len(args)))
	}
	if f.Priority != nil {
		args = append(args, *f.Priority)
		clauses = append(clauses, fmt.Sprintf("t.priority=$%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		clauses = append(clauses, fmt.Sprintf("t.status=$%d", len(args)))
	}
	if f.SLABreach != nil {
		args = append(args, *f.SLABreach)
		clauses = append(clauses, fmt.Sprintf("t.sla_breach=$%d", len(args)))
	}
	if f.CreatedFrom != nil {
		args = append(args, *f.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if f.CreatedTo != nil {
		args = append(args, *f.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("t.created_at <= $%d", len(args)))
	}
	return join, clauses, args
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.ExternalID,
		&ticket.CustomerID,
		&ticket.ProductLine,
		&ticket.Priority,
		&ticket.Status,
		&ticket.Subject,
		&ticket.Description,
		&ticket.IssueType,
		&ticket.ServiceType,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResolvedAt,
		&ticket.FirstResponseAt,
		&ticket.FirstResponseDue,
		&ticket.ResolutionDue,
		&ticket.SLABreach,
		&ticket.FirstResponseBreach,
		&ticket.ResolutionBreach,
		&ticket.RequesterID,
		&ticket.Tags,
		&ticket.CustomFields,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
