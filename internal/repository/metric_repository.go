package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/sla-dashboard/internal/domain"
)

// PerformanceMetricRepository reads precomputed rollup snapshots. The import
// pipeline never writes these rows.
type PerformanceMetricRepository interface {
	ListInRange(ctx context.Context, from, to time.Time, customerType *domain.CustomerType, productLine *string) ([]domain.PerformanceMetric, error)
}

type performanceMetricRepository struct {
	db Querier
}

// NewPerformanceMetricRepository instantiates repository.
func NewPerformanceMetricRepository(db Querier) PerformanceMetricRepository {
	return &performanceMetricRepository{db: db}
}

func (r *performanceMetricRepository) ListInRange(ctx context.Context, from, to time.Time, customerType *domain.CustomerType, productLine *string) ([]domain.PerformanceMetric, error) {
	clauses := []string{"date >= $1", "date <= $2"}
	args := []any{from, to}
	if customerType != nil {
		args = append(args, *customerType)
		clauses = append(clauses, fmt.Sprintf("customer_type=$%d", len(args)))
	}
	if productLine != nil {
		args = append(args, *productLine)
		clauses = append(clauses, fmt.Sprintf("product_line=$%d", len(args)))
	}

	query := fmt.Sprintf(`
        SELECT id, date, customer_type, product_line,
               total_tickets, sla_compliant_tickets, sla_breach_tickets,
               avg_response_time_hours, avg_resolution_time_hours,
               availability_percentage, total_outages, total_outage_minutes, created_at
        FROM performance_metrics WHERE %s ORDER BY date`, strings.Join(clauses, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PerformanceMetric
	for rows.Next() {
		var metric domain.PerformanceMetric
		if err := rows.Scan(
			&metric.ID,
			&metric.Date,
			&metric.CustomerType,
			&metric.ProductLine,
			&metric.TotalTickets,
			&metric.SLACompliantTickets,
			&metric.SLABreachTickets,
			&metric.AvgResponseTimeHours,
			&metric.AvgResolutionTimeHours,
			&metric.AvailabilityPercentage,
			&metric.TotalOutages,
			&metric.TotalOutageMinutes,
			&metric.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, metric)
	}
	return result, rows.Err()
}
