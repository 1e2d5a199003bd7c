package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/objection"
)

// Repository implements objection.Repository for PostgreSQL.
type Repository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func New(pool interface{}, logger *zap.Logger) (*Repository, error) {
	pgPool, ok := pool.(*pgxpool.Pool)
	if !ok {
		return nil, fmt.Errorf("expected *pgxpool.Pool, got %T", pool)
	}
	return &Repository{pool: pgPool, logger: logger.With(zap.String("component", "objection-postgres-repository"))}, nil
}

const createObjectionQuery = `
INSERT INTO objections (
    id, contract_id, objected_by, objector_role, field_reference, current_value,
    proposed_value, justification, priority, status, submitted_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
)
RETURNING version
`

func (r *Repository) Create(ctx context.Context, o *objection.Objection) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, createObjectionQuery,
		o.ID, o.ContractID, o.ObjectedBy, o.ObjectorRole, o.FieldReference, o.CurrentValue,
		o.ProposedValue, o.Justification, o.Priority, o.Status, o.SubmittedAt,
	)
	if err := row.Scan(&o.Version); err != nil {
		return fmt.Errorf("create objection: %w", err)
	}
	return nil
}

const selectObjectionColumns = `
    id, contract_id, objected_by, objector_role, field_reference, current_value,
    proposed_value, justification, priority, status, responder, response_note,
    counter_proposal, requires_manual_amendment, submitted_at, reviewed_at, resolved_at, version
`

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*objection.Objection, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectObjectionColumns+` FROM objections WHERE id = $1`, id)
	return scanObjection(row)
}

func (r *Repository) ListForContract(ctx context.Context, contractID uuid.UUID) ([]*objection.Objection, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectObjectionColumns+` FROM objections WHERE contract_id = $1 ORDER BY submitted_at ASC`, contractID)
	if err != nil {
		return nil, fmt.Errorf("list objections: %w", err)
	}
	defer rows.Close()
	return scanObjections(rows)
}

func (r *Repository) ListPendingForContract(ctx context.Context, contractID uuid.UUID) ([]*objection.Objection, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectObjectionColumns+` FROM objections WHERE contract_id = $1 AND status IN ('pending', 'under_review') ORDER BY submitted_at ASC`, contractID)
	if err != nil {
		return nil, fmt.Errorf("list pending objections: %w", err)
	}
	defer rows.Close()
	return scanObjections(rows)
}

func (r *Repository) ListAllPending(ctx context.Context) ([]*objection.Objection, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectObjectionColumns+` FROM objections WHERE status IN ('pending', 'under_review') ORDER BY submitted_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list all pending objections: %w", err)
	}
	defer rows.Close()
	return scanObjections(rows)
}

const updateObjectionQuery = `
UPDATE objections SET
    status = $2, responder = $3, response_note = $4, counter_proposal = $5,
    requires_manual_amendment = $6, reviewed_at = $7, resolved_at = $8,
    version = version + 1
WHERE id = $1 AND version = $9
RETURNING version
`

func (r *Repository) Update(ctx context.Context, o *objection.Objection) error {
	row := r.pool.QueryRow(ctx, updateObjectionQuery,
		o.ID, o.Status, o.Responder, o.ResponseNote, o.CounterProposal,
		o.RequiresManualAmendment, o.ReviewedAt, o.ResolvedAt, o.Version,
	)
	if err := row.Scan(&o.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, o.ID); getErr != nil {
				return objection.ErrNotFound
			}
			return objection.ErrVersionConflict
		}
		return fmt.Errorf("update objection: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanObjection(row rowScanner) (*objection.Objection, error) {
	o := &objection.Objection{}
	err := row.Scan(
		&o.ID, &o.ContractID, &o.ObjectedBy, &o.ObjectorRole, &o.FieldReference, &o.CurrentValue,
		&o.ProposedValue, &o.Justification, &o.Priority, &o.Status, &o.Responder, &o.ResponseNote,
		&o.CounterProposal, &o.RequiresManualAmendment, &o.SubmittedAt, &o.ReviewedAt, &o.ResolvedAt, &o.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, objection.ErrNotFound
		}
		return nil, fmt.Errorf("get objection: %w", err)
	}
	return o, nil
}

func scanObjections(rows pgx.Rows) ([]*objection.Objection, error) {
	var out []*objection.Objection
	for rows.Next() {
		o, err := scanObjection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate objections: %w", err)
	}
	return out, nil
}
