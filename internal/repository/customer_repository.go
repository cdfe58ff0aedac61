package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sla-dashboard/internal/domain"
)

// CustomerRepository encapsulates customer persistence.
type CustomerRepository interface {
	GetByName(ctx context.Context, name string) (*domain.Customer, error)
	// FindOrCreate inserts the candidate unless a customer with the same
	// name exists, in which case the existing row is returned unchanged.
	// Race-safe: a concurrent create surfaces as the existing row.
	FindOrCreate(ctx context.Context, candidate *domain.Customer) (*domain.Customer, error)
	List(ctx context.Context) ([]domain.Customer, error)
}

type customerRepository struct {
	db Querier
}

// NewCustomerRepository instantiates repository.
func NewCustomerRepository(db Querier) CustomerRepository {
	return &customerRepository{db: db}
}

const customerColumns = `id, name, customer_type, sla_tier, geography, contact_info, created_at, updated_at`

func (r *customerRepository) GetByName(ctx context.Context, name string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE name=$1`
	return r.fetchSingle(ctx, query, name)
}

func (r *customerRepository) FindOrCreate(ctx context.Context, candidate *domain.Customer) (*domain.Customer, error) {
	const query = `
        INSERT INTO customers (name, customer_type, sla_tier, geography, contact_info)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (name) DO NOTHING
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		candidate.Name,
		candidate.CustomerType,
		candidate.SLATier,
		candidate.Geography,
		candidate.ContactInfo,
	).Scan(&candidate.ID, &candidate.CreatedAt, &candidate.UpdatedAt)
	if err == nil {
		return candidate, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	// conflict: the row exists (possibly created concurrently), re-fetch it
	return r.GetByName(ctx, candidate.Name)
}

func (r *customerRepository) List(ctx context.Context) ([]domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *customer)
	}
	return result, rows.Err()
}

func (r *customerRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.Customer, error) {
	return scanCustomer(r.db.QueryRow(ctx, query, args...))
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var customer domain.Customer
	if err := row.Scan(
		&customer.ID,
		&customer.Name,
		&customer.CustomerType,
		&customer.SLATier,
		&customer.Geography,
		&customer.ContactInfo,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &customer, nil
}
