package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx,
// so repositories can run against the pool or inside a batch transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles the repositories over one shared querier.
type Store struct {
	pool *pgxpool.Pool

	Customers      CustomerRepository
	Tickets        TicketRepository
	SLADefinitions SLADefinitionRepository
	Outages        OutageRepository
	Metrics        PerformanceMetricRepository
}

// NewStore binds all repositories to the pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return bind(pool, pool)
}

// NewStoreWith assembles a store from pre-built repositories. Without a pool,
// WithTx degrades to running fn directly; in-memory repositories rely on this.
func NewStoreWith(
	customers CustomerRepository,
	tickets TicketRepository,
	slas SLADefinitionRepository,
	outages OutageRepository,
	metrics PerformanceMetricRepository,
) *Store {
	return &Store{
		Customers:      customers,
		Tickets:        tickets,
		SLADefinitions: slas,
		Outages:        outages,
		Metrics:        metrics,
	}
}

func bind(pool *pgxpool.Pool, q Querier) *Store {
	return &Store{
		pool:           pool,
		Customers:      NewCustomerRepository(q),
		Tickets:        NewTicketRepository(q),
		SLADefinitions: NewSLADefinitionRepository(q),
		Outages:        NewOutageRepository(q),
		Metrics:        NewPerformanceMetricRepository(q),
	}
}

// WithTx runs fn against a transaction-scoped store. The transaction commits
// when fn returns nil and rolls back in full otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(*Store) error) error {
	if s.pool == nil {
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(bind(s.pool, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
