package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sla-dashboard/internal/domain"
)

// OutageRepository persists outage episodes.
type OutageRepository interface {
	GetByTicketID(ctx context.Context, ticketID string) (*domain.Outage, error)
	// FindOrCreate inserts the candidate unless an outage for the same
	// trigger ticket exists; at most one outage per ticket.
	FindOrCreate(ctx context.Context, candidate *domain.Outage) (*domain.Outage, error)
	ListInRange(ctx context.Context, from, to time.Time, productLine *string) ([]domain.Outage, error)
}

type outageRepository struct {
	db Querier
}

// NewOutageRepository instantiates repository.
func NewOutageRepository(db Querier) OutageRepository {
	return &outageRepository{db: db}
}

const outageColumns = `id, product_line, service_type, start_time, end_time, severity,
               affected_customers, root_cause, resolution_summary, ticket_id`

func (r *outageRepository) GetByTicketID(ctx context.Context, ticketID string) (*domain.Outage, error) {
	query := `SELECT ` + outageColumns + ` FROM outages WHERE ticket_id=$1`
	return scanOutage(r.db.QueryRow(ctx, query, ticketID))
}

func (r *outageRepository) FindOrCreate(ctx context.Context, candidate *domain.Outage) (*domain.Outage, error) {
	const query = `
        INSERT INTO outages (product_line, service_type, start_time, end_time, severity,
            affected_customers, root_cause, resolution_summary, ticket_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (ticket_id) DO NOTHING
        RETURNING id`
	err := r.db.QueryRow(ctx, query,
		candidate.ProductLine,
		candidate.ServiceType,
		candidate.StartTime,
		candidate.EndTime,
		candidate.Severity,
		candidate.AffectedCustomers,
		candidate.RootCause,
		candidate.ResolutionSummary,
		candidate.TicketID,
	).Scan(&candidate.ID)
	if err == nil {
		return candidate, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if candidate.TicketID == nil {
		return nil, err
	}
	return r.GetByTicketID(ctx, *candidate.TicketID)
}

func (r *outageRepository) ListInRange(ctx context.Context, from, to time.Time, productLine *string) ([]domain.Outage, error) {
	clauses := []string{"start_time >= $1", "start_time <= $2"}
	args := []any{from, to}
	if productLine != nil {
		args = append(args, *productLine)
		clauses = append(clauses, fmt.Sprintf("product_line=$%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s FROM outages WHERE %s ORDER BY start_time DESC`,
		outageColumns, strings.Join(clauses, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Outage
	for rows.Next() {
		outage, err := scanOutage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *outage)
	}
	return result, rows.Err()
}

func scanOutage(row pgx.Row) (*domain.Outage, error) {
	var outage domain.Outage
	if err := row.Scan(
		&outage.ID,
		&outage.ProductLine,
		&outage.ServiceType,
		&outage.StartTime,
		&outage.EndTime,
		&outage.Severity,
		&outage.AffectedCustomers,
		&outage.RootCause,
		&outage.ResolutionSummary,
		&outage.TicketID,
	); err != nil {
		return nil, err
	}
	return &outage, nil
}
