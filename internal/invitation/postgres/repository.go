package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/invitation"
)

// Repository implements invitation.Repository for PostgreSQL.
type Repository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func New(pool interface{}, logger *zap.Logger) (*Repository, error) {
	pgPool, ok := pool.(*pgxpool.Pool)
	if !ok {
		return nil, fmt.Errorf("expected *pgxpool.Pool, got %T", pool)
	}
	return &Repository{pool: pgPool, logger: logger.With(zap.String("component", "invitation-postgres-repository"))}, nil
}

const createInvitationQuery = `
INSERT INTO invitations (
    id, contract_id, token_hash, tenant_email, tenant_phone, tenant_name, method,
    personal_message, status, attempts, created_at, sent_at, expires_at, created_by
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
)
RETURNING version
`

func (r *Repository) Create(ctx context.Context, inv *invitation.Invitation) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, createInvitationQuery,
		inv.ID, inv.ContractID, inv.TokenHash, inv.TenantEmail, inv.TenantPhone, inv.TenantName, inv.Method,
		inv.PersonalMessage, inv.Status, inv.Attempts, inv.CreatedAt, inv.SentAt, inv.ExpiresAt, inv.CreatedBy,
	)
	if err := row.Scan(&inv.Version); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: duplicate token hash", invitation.ErrInvalid)
		}
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

const selectInvitationColumns = `
    id, contract_id, token_hash, tenant_email, tenant_phone, tenant_name, method,
    personal_message, status, attempts, created_at, sent_at, opened_at, accepted_at,
    expires_at, last_resent_at, error_message, created_by, accepted_by, version
`

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*invitation.Invitation, error) {
	return r.queryOne(ctx, `SELECT `+selectInvitationColumns+` FROM invitations WHERE id = $1`, id)
}

func (r *Repository) GetByTokenHash(ctx context.Context, hash string) (*invitation.Invitation, error) {
	return r.queryOne(ctx, `SELECT `+selectInvitationColumns+` FROM invitations WHERE token_hash = $1`, hash)
}

func (r *Repository) GetLatestForContract(ctx context.Context, contractID uuid.UUID) (*invitation.Invitation, error) {
	return r.queryOne(ctx, `SELECT `+selectInvitationColumns+` FROM invitations WHERE contract_id = $1 ORDER BY created_at DESC LIMIT 1`, contractID)
}

func (r *Repository) queryOne(ctx context.Context, query string, arg interface{}) (*invitation.Invitation, error) {
	inv := &invitation.Invitation{}
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&inv.ID, &inv.ContractID, &inv.TokenHash, &inv.TenantEmail, &inv.TenantPhone, &inv.TenantName, &inv.Method,
		&inv.PersonalMessage, &inv.Status, &inv.Attempts, &inv.CreatedAt, &inv.SentAt, &inv.OpenedAt, &inv.AcceptedAt,
		&inv.ExpiresAt, &inv.LastResentAt, &inv.ErrorMessage, &inv.CreatedBy, &inv.AcceptedBy, &inv.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, invitation.ErrNotFound
		}
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

const updateInvitationQuery = `
UPDATE invitations SET
    token_hash = $2, status = $3, attempts = $4,
    sent_at = $5, opened_at = $6, accepted_at = $7, expires_at = $8, last_resent_at = $9,
    error_message = $10, accepted_by = $11,
    version = version + 1
WHERE id = $1 AND version = $12
RETURNING version
`

func (r *Repository) Update(ctx context.Context, inv *invitation.Invitation) error {
	row := r.pool.QueryRow(ctx, updateInvitationQuery,
		inv.ID, inv.TokenHash, inv.Status, inv.Attempts,
		inv.SentAt, inv.OpenedAt, inv.AcceptedAt, inv.ExpiresAt, inv.LastResentAt,
		inv.ErrorMessage, inv.AcceptedBy, inv.Version,
	)
	if err := row.Scan(&inv.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetByID(ctx, inv.ID); getErr != nil {
				return invitation.ErrNotFound
			}
			return invitation.ErrVersionConflict
		}
		return fmt.Errorf("update invitation: %w", err)
	}
	return nil
}

const listExpirableQuery = `
SELECT ` + selectInvitationColumns + `
FROM invitations
WHERE status IN ('sent', 'opened') AND expires_at <= $1
`

func (r *Repository) ListExpirable(ctx context.Context, now time.Time) ([]*invitation.Invitation, error) {
	rows, err := r.pool.Query(ctx, listExpirableQuery, now)
	if err != nil {
		return nil, fmt.Errorf("list expirable invitations: %w", err)
	}
	defer rows.Close()

	var out []*invitation.Invitation
	for rows.Next() {
		inv := &invitation.Invitation{}
		if err := rows.Scan(
			&inv.ID, &inv.ContractID, &inv.TokenHash, &inv.TenantEmail, &inv.TenantPhone, &inv.TenantName, &inv.Method,
			&inv.PersonalMessage, &inv.Status, &inv.Attempts, &inv.CreatedAt, &inv.SentAt, &inv.OpenedAt, &inv.AcceptedAt,
			&inv.ExpiresAt, &inv.LastResentAt, &inv.ErrorMessage, &inv.CreatedBy, &inv.AcceptedBy, &inv.Version,
		); err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invitations: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
