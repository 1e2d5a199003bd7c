package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/contract"
)

// Repository implements contract.Repository for PostgreSQL.
type Repository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New creates a PostgreSQL-backed contract repository. Accepts interface{}
// to satisfy the database provider abstraction; type-asserts to *pgxpool.Pool.
func New(pool interface{}, logger *zap.Logger) (*Repository, error) {
	pgPool, ok := pool.(*pgxpool.Pool)
	if !ok {
		return nil, fmt.Errorf("expected *pgxpool.Pool, got %T", pool)
	}
	return &Repository{
		pool:   pgPool,
		logger: logger.With(zap.String("component", "contract-postgres-repository")),
	}, nil
}

const createContractQuery = `
INSERT INTO contracts (
    id, contract_number, contract_type, current_state,
    landlord_id, tenant_id, guarantor_id, property_id,
    landlord_data, tenant_data, property_data, economic_terms, contract_terms, special_clauses
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
)
RETURNING created_at, updated_at, version
`

func (r *Repository) CreateContract(ctx context.Context, c *contract.Contract) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}

	r.logger.Debug("creating contract",
		zap.String("contract_number", c.ContractNumber),
		zap.String("id", c.ID.String()))

	row := r.pool.QueryRow(ctx, createContractQuery,
		c.ID, c.ContractNumber, c.ContractType, c.CurrentState,
		c.LandlordID, c.TenantID, c.GuarantorID, c.PropertyID,
		jsonbOrEmpty(c.LandlordData), jsonbOrEmpty(c.TenantData), jsonbOrEmpty(c.PropertyData),
		jsonbOrEmpty(c.EconomicTerms), jsonbOrEmpty(c.ContractTerms), jsonbOrEmpty(c.SpecialClauses),
	)

	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt, &c.Version); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: contract_number %s", contract.ErrValidation, c.ContractNumber)
		}
		return fmt.Errorf("create contract: %w", err)
	}

	r.logger.Info("contract created", zap.String("id", c.ID.String()), zap.String("contract_number", c.ContractNumber))
	return nil
}

const selectContractColumns = `
    id, contract_number, contract_type, current_state,
    landlord_id, tenant_id, guarantor_id, property_id,
    landlord_data, tenant_data, property_data, economic_terms, contract_terms, special_clauses,
    tenant_approved, tenant_approved_at, landlord_approved, landlord_approved_at,
    tenant_signed, tenant_signed_at, tenant_signature,
    guarantor_signed, guarantor_signed_at, guarantor_signature,
    landlord_signed, landlord_signed_at, landlord_signature,
    fully_signed_at,
    published, published_at, published_by,
    start_date, end_date, pdf_handle,
    objections_count, has_pending_objections, last_objection_date,
    invitation_accepted,
    created_at, updated_at, version
`

const getContractByIDQuery = `SELECT ` + selectContractColumns + ` FROM contracts WHERE id = $1`
const getContractByNumberQuery = `SELECT ` + selectContractColumns + ` FROM contracts WHERE contract_number = $1`

func (r *Repository) GetContractByID(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	return r.queryOne(ctx, getContractByIDQuery, id)
}

func (r *Repository) GetContractByNumber(ctx context.Context, number string) (*contract.Contract, error) {
	return r.queryOne(ctx, getContractByNumberQuery, number)
}

func (r *Repository) queryOne(ctx context.Context, query string, arg interface{}) (*contract.Contract, error) {
	c := &contract.Contract{}
	var landlordJSON, tenantJSON, propertyJSON, econJSON, termsJSON, clausesJSON []byte
	var tenantSigJSON, guarantorSigJSON, landlordSigJSON []byte

	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&c.ID, &c.ContractNumber, &c.ContractType, &c.CurrentState,
		&c.LandlordID, &c.TenantID, &c.GuarantorID, &c.PropertyID,
		&landlordJSON, &tenantJSON, &propertyJSON, &econJSON, &termsJSON, &clausesJSON,
		&c.TenantApproved, &c.TenantApprovedAt, &c.LandlordApproved, &c.LandlordApprovedAt,
		&c.TenantSigned, &c.TenantSignedAt, &tenantSigJSON,
		&c.GuarantorSigned, &c.GuarantorSignedAt, &guarantorSigJSON,
		&c.LandlordSigned, &c.LandlordSignedAt, &landlordSigJSON,
		&c.FullySignedAt,
		&c.Published, &c.PublishedAt, &c.PublishedBy,
		&c.StartDate, &c.EndDate, &c.PDFHandle,
		&c.ObjectionsCount, &c.HasPendingObjections, &c.LastObjectionDate,
		&c.InvitationAccepted,
		&c.CreatedAt, &c.UpdatedAt, &c.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contract.ErrNotFound
		}
		return nil, fmt.Errorf("get contract: %w", err)
	}

	if err := unmarshalMap(landlordJSON, &c.LandlordData); err != nil {
		return nil, fmt.Errorf("unmarshal landlord_data: %w", err)
	}
	if err := unmarshalMap(tenantJSON, &c.TenantData); err != nil {
		return nil, fmt.Errorf("unmarshal tenant_data: %w", err)
	}
	if err := unmarshalMap(propertyJSON, &c.PropertyData); err != nil {
		return nil, fmt.Errorf("unmarshal property_data: %w", err)
	}
	if err := unmarshalMap(econJSON, &c.EconomicTerms); err != nil {
		return nil, fmt.Errorf("unmarshal economic_terms: %w", err)
	}
	if err := unmarshalMap(termsJSON, &c.ContractTerms); err != nil {
		return nil, fmt.Errorf("unmarshal contract_terms: %w", err)
	}
	if err := unmarshalMap(clausesJSON, &c.SpecialClauses); err != nil {
		return nil, fmt.Errorf("unmarshal special_clauses: %w", err)
	}
	if err := unmarshalMap(tenantSigJSON, &c.TenantSignature); err != nil {
		return nil, fmt.Errorf("unmarshal tenant_signature: %w", err)
	}
	if err := unmarshalMap(guarantorSigJSON, &c.GuarantorSignature); err != nil {
		return nil, fmt.Errorf("unmarshal guarantor_signature: %w", err)
	}
	if err := unmarshalMap(landlordSigJSON, &c.LandlordSignature); err != nil {
		return nil, fmt.Errorf("unmarshal landlord_signature: %w", err)
	}

	guarantees, err := r.loadGuarantees(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Guarantees = guarantees

	return c, nil
}

const updateContractQuery = `
UPDATE contracts SET
    current_state = $2,
    landlord_id = $3, tenant_id = $4, guarantor_id = $5,
    landlord_data = $6, tenant_data = $7, property_data = $8,
    economic_terms = $9, contract_terms = $10, special_clauses = $11,
    tenant_approved = $12, tenant_approved_at = $13,
    landlord_approved = $14, landlord_approved_at = $15,
    tenant_signed = $16, tenant_signed_at = $17, tenant_signature = $18,
    guarantor_signed = $19, guarantor_signed_at = $20, guarantor_signature = $21,
    landlord_signed = $22, landlord_signed_at = $23, landlord_signature = $24,
    fully_signed_at = $25,
    published = $26, published_at = $27, published_by = $28,
    start_date = $29, end_date = $30, pdf_handle = $31,
    objections_count = $32, has_pending_objections = $33, last_objection_date = $34,
    invitation_accepted = $35,
    updated_at = NOW(),
    version = version + 1
WHERE id = $1 AND version = $36
RETURNING version, updated_at
`

func (r *Repository) UpdateContract(ctx context.Context, c *contract.Contract) error {
	row := r.pool.QueryRow(ctx, updateContractQuery,
		c.ID, c.CurrentState,
		c.LandlordID, c.TenantID, c.GuarantorID,
		jsonbOrEmpty(c.LandlordData), jsonbOrEmpty(c.TenantData), jsonbOrEmpty(c.PropertyData),
		jsonbOrEmpty(c.EconomicTerms), jsonbOrEmpty(c.ContractTerms), jsonbOrEmpty(c.SpecialClauses),
		c.TenantApproved, c.TenantApprovedAt,
		c.LandlordApproved, c.LandlordApprovedAt,
		c.TenantSigned, c.TenantSignedAt, jsonbOrEmpty(c.TenantSignature),
		c.GuarantorSigned, c.GuarantorSignedAt, jsonbOrEmpty(c.GuarantorSignature),
		c.LandlordSigned, c.LandlordSignedAt, jsonbOrEmpty(c.LandlordSignature),
		c.FullySignedAt,
		c.Published, c.PublishedAt, c.PublishedBy,
		c.StartDate, c.EndDate, c.PDFHandle,
		c.ObjectionsCount, c.HasPendingObjections, c.LastObjectionDate,
		c.InvitationAccepted,
		c.Version,
	)

	err := row.Scan(&c.Version, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetContractByID(ctx, c.ID); getErr != nil {
				return contract.ErrNotFound
			}
			return contract.ErrVersionConflict
		}
		return fmt.Errorf("update contract: %w", err)
	}
	return nil
}

func (r *Repository) ListContracts(ctx context.Context, filters contract.ListFilters) ([]*contract.Contract, error) {
	query, args := buildListQuery(filters)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan contract id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contracts: %w", err)
	}

	contracts := make([]*contract.Contract, 0, len(ids))
	for _, id := range ids {
		c, err := r.GetContractByID(ctx, id)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, nil
}

func buildListQuery(filters contract.ListFilters) (string, []interface{}) {
	query := `SELECT id FROM contracts WHERE 1=1`
	var args []interface{}
	argPos := 1

	if filters.LandlordID != nil {
		query += fmt.Sprintf(" AND landlord_id = $%d", argPos)
		args = append(args, *filters.LandlordID)
		argPos++
	}
	if filters.TenantID != nil {
		query += fmt.Sprintf(" AND tenant_id = $%d", argPos)
		args = append(args, *filters.TenantID)
		argPos++
	}
	if len(filters.States) > 0 {
		states := make([]string, len(filters.States))
		for i, s := range filters.States {
			states[i] = string(s)
		}
		query += fmt.Sprintf(" AND current_state = ANY($%d)", argPos)
		args = append(args, states)
		argPos++
	}
	if filters.CreatedAfter != nil {
		query += fmt.Sprintf(" AND created_at > $%d", argPos)
		args = append(args, *filters.CreatedAfter)
		argPos++
	}
	if filters.CreatedBefore != nil {
		query += fmt.Sprintf(" AND created_at < $%d", argPos)
		args = append(args, *filters.CreatedBefore)
		argPos++
	}

	query += " ORDER BY created_at DESC"
	if filters.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argPos)
		args = append(args, filters.Limit)
		argPos++
	}
	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argPos)
		args = append(args, filters.Offset)
	}

	return query, args
}

const appendHistoryQuery = `
INSERT INTO workflow_history (
    id, contract_id, action_type, description, performed_by, user_role,
    old_state, new_state, changes_made, metadata, timestamp, integrity_hash
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
)
`

func (r *Repository) AppendHistory(ctx context.Context, entry *contract.WorkflowHistoryEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	metaJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshal history metadata: %w", err)
	}

	_, err = r.pool.Exec(ctx, appendHistoryQuery,
		entry.ID, entry.ContractID, entry.ActionType, entry.Description, entry.PerformedBy, entry.UserRole,
		entry.OldState, entry.NewState, jsonbOrEmpty(entry.ChangesMade), metaJSON, entry.Timestamp, entry.IntegrityHash,
	)
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

const getHistoryQuery = `
SELECT id, contract_id, action_type, description, performed_by, user_role,
       old_state, new_state, changes_made, metadata, timestamp, integrity_hash
FROM workflow_history
WHERE contract_id = $1
ORDER BY timestamp ASC
`

func (r *Repository) GetHistory(ctx context.Context, contractID uuid.UUID) ([]*contract.WorkflowHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, getHistoryQuery, contractID)
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	defer rows.Close()

	var entries []*contract.WorkflowHistoryEntry
	for rows.Next() {
		e := &contract.WorkflowHistoryEntry{}
		var changesJSON, metaJSON []byte
		if err := rows.Scan(
			&e.ID, &e.ContractID, &e.ActionType, &e.Description, &e.PerformedBy, &e.UserRole,
			&e.OldState, &e.NewState, &changesJSON, &metaJSON, &e.Timestamp, &e.IntegrityHash,
		); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		if err := unmarshalMap(changesJSON, &e.ChangesMade); err != nil {
			return nil, fmt.Errorf("unmarshal changes_made: %w", err)
		}
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

const addGuaranteeQuery = `
INSERT INTO guarantees (
    id, contract_id, type, amount, currency, co_signer_data,
    policy_number, issuer, effective_date, expiry_date, status, verified, verified_by
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
)
`

func (r *Repository) AddGuarantee(ctx context.Context, g *contract.Guarantee) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	_, err := r.pool.Exec(ctx, addGuaranteeQuery,
		g.ID, g.ContractID, g.Type, g.Amount, g.Currency, jsonbOrEmpty(g.CoSignerData),
		g.PolicyNumber, g.Issuer, g.EffectiveDate, g.ExpiryDate, g.Status, g.Verified, g.VerifiedBy,
	)
	if err != nil {
		return fmt.Errorf("add guarantee: %w", err)
	}
	return nil
}

const updateGuaranteeQuery = `
UPDATE guarantees SET
    status = $2, verified = $3, verified_by = $4, expiry_date = $5
WHERE id = $1
`

func (r *Repository) UpdateGuarantee(ctx context.Context, g *contract.Guarantee) error {
	tag, err := r.pool.Exec(ctx, updateGuaranteeQuery, g.ID, g.Status, g.Verified, g.VerifiedBy, g.ExpiryDate)
	if err != nil {
		return fmt.Errorf("update guarantee: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return contract.ErrNotFound
	}
	return nil
}

const loadGuaranteesQuery = `
SELECT id, contract_id, type, amount, currency, co_signer_data,
       policy_number, issuer, effective_date, expiry_date, status, verified, verified_by
FROM guarantees
WHERE contract_id = $1
ORDER BY effective_date ASC
`

func (r *Repository) loadGuarantees(ctx context.Context, contractID uuid.UUID) ([]contract.Guarantee, error) {
	rows, err := r.pool.Query(ctx, loadGuaranteesQuery, contractID)
	if err != nil {
		return nil, fmt.Errorf("load guarantees: %w", err)
	}
	defer rows.Close()

	var guarantees []contract.Guarantee
	for rows.Next() {
		var g contract.Guarantee
		var coSignerJSON []byte
		if err := rows.Scan(
			&g.ID, &g.ContractID, &g.Type, &g.Amount, &g.Currency, &coSignerJSON,
			&g.PolicyNumber, &g.Issuer, &g.EffectiveDate, &g.ExpiryDate, &g.Status, &g.Verified, &g.VerifiedBy,
		); err != nil {
			return nil, fmt.Errorf("scan guarantee: %w", err)
		}
		if err := unmarshalMap(coSignerJSON, &g.CoSignerData); err != nil {
			return nil, fmt.Errorf("unmarshal co_signer_data: %w", err)
		}
		guarantees = append(guarantees, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guarantees: %w", err)
	}
	return guarantees, nil
}

// NextSequence implements identity.Counter with a single atomic upsert, so
// concurrent allocators across API replicas never hand out the same
// contract number for a given year bucket.
const nextSequenceQuery = `
INSERT INTO contract_number_sequences (bucket, value)
VALUES ($1, 1)
ON CONFLICT (bucket) DO UPDATE SET value = contract_number_sequences.value + 1
RETURNING value
`

func (r *Repository) NextSequence(ctx context.Context, bucket string) (int, error) {
	var value int
	if err := r.pool.QueryRow(ctx, nextSequenceQuery, bucket).Scan(&value); err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return value, nil
}

func jsonbOrEmpty(m contract.JSONMap) interface{} {
	if len(m) == 0 {
		return "{}"
	}
	return m
}

func unmarshalMap(data []byte, m *contract.JSONMap) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, m)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
