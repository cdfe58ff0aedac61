package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sla-dashboard/internal/domain"
)

// SLADefinitionRepository persists the seeded policy rows.
type SLADefinitionRepository interface {
	// FindOrCreate inserts the definition unless its (customer_type,
	// priority) cell is already seeded. Seeding is idempotent.
	FindOrCreate(ctx context.Context, def *domain.SLADefinition) (*domain.SLADefinition, error)
	List(ctx context.Context) ([]domain.SLADefinition, error)
}

type slaDefinitionRepository struct {
	db Querier
}

// NewSLADefinitionRepository instantiates repository.
func NewSLADefinitionRepository(db Querier) SLADefinitionRepository {
	return &slaDefinitionRepository{db: db}
}

const slaColumns = `id, customer_type, priority, response_time_hours, resolution_time_hours, availability_percentage, created_at`

func (r *slaDefinitionRepository) FindOrCreate(ctx context.Context, def *domain.SLADefinition) (*domain.SLADefinition, error) {
	const query = `
        INSERT INTO sla_definitions (customer_type, priority, response_time_hours, resolution_time_hours, availability_percentage)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (customer_type, priority) DO NOTHING
        RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query,
		def.CustomerType,
		def.Priority,
		def.ResponseTimeHours,
		def.ResolutionTimeHours,
		def.AvailabilityPercentage,
	).Scan(&def.ID, &def.CreatedAt)
	if err == nil {
		return def, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	existing := `SELECT ` + slaColumns + ` FROM sla_definitions WHERE customer_type=$1 AND priority=$2`
	var out domain.SLADefinition
	if err := r.db.QueryRow(ctx, existing, def.CustomerType, def.Priority).Scan(
		&out.ID,
		&out.CustomerType,
		&out.Priority,
		&out.ResponseTimeHours,
		&out.ResolutionTimeHours,
		&out.AvailabilityPercentage,
		&out.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *slaDefinitionRepository) List(ctx context.Context) ([]domain.SLADefinition, error) {
	query := `SELECT ` + slaColumns + ` FROM sla_definitions ORDER BY customer_type, priority`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLADefinition
	for rows.Next() {
		var def domain.SLADefinition
		if err := rows.Scan(
			&def.ID,
			&def.CustomerType,
			&def.Priority,
			&def.ResponseTimeHours,
			&def.ResolutionTimeHours,
			&def.AvailabilityPercentage,
			&def.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, def)
	}
	return result, rows.Err()
}
