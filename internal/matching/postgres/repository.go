package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/matching"
)

// Repository implements matching.Repository for PostgreSQL.
type Repository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func New(pool interface{}, logger *zap.Logger) (*Repository, error) {
	pgPool, ok := pool.(*pgxpool.Pool)
	if !ok {
		return nil, fmt.Errorf("expected *pgxpool.Pool, got %T", pool)
	}
	return &Repository{pool: pgPool, logger: logger.With(zap.String("component", "matching-postgres-repository"))}, nil
}

const createMatchRequestQuery = `
INSERT INTO match_requests (
    id, match_code, property_id, tenant_id, landlord_id, status, priority,
    tenant_message, tenant_phone, tenant_email, monthly_income, employment_type,
    preferred_move_in_date, lease_duration_months, has_rental_references,
    has_employment_proof, has_credit_check, number_of_occupants, has_pets,
    pet_details, smoking_allowed, created_at, expires_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23
)
RETURNING version
`

func (r *Repository) CreateMatchRequest(ctx context.Context, m *matching.MatchRequest) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	row := r.pool.QueryRow(ctx, createMatchRequestQuery,
		m.ID, m.MatchCode, m.PropertyID, m.TenantID, m.LandlordID, m.Status, m.Priority,
		m.TenantMessage, m.TenantPhone, m.TenantEmail, m.MonthlyIncome, m.EmploymentType,
		m.PreferredMoveInDate, m.LeaseDurationMonths, m.HasRentalReferences,
		m.HasEmploymentProof, m.HasCreditCheck, m.NumberOfOccupants, m.HasPets,
		m.PetDetails, m.SmokingAllowed, m.CreatedAt, m.ExpiresAt,
	)
	if err := row.Scan(&m.Version); err != nil {
		return fmt.Errorf("create match request: %w", err)
	}
	return nil
}

const selectMatchRequestColumns = `
    id, match_code, property_id, tenant_id, landlord_id, status, priority,
    tenant_message, tenant_phone, tenant_email, monthly_income, employment_type,
    preferred_move_in_date, lease_duration_months, has_rental_references,
    has_employment_proof, has_credit_check, number_of_occupants, has_pets,
    pet_details, smoking_allowed, landlord_response, landlord_notes,
    created_at, viewed_at, responded_at, expires_at, follow_up_count,
    last_follow_up, version
`

func scanMatchRequest(row pgx.Row) (*matching.MatchRequest, error) {
	m := &matching.MatchRequest{}
	err := row.Scan(
		&m.ID, &m.MatchCode, &m.PropertyID, &m.TenantID, &m.LandlordID, &m.Status, &m.Priority,
		&m.TenantMessage, &m.TenantPhone, &m.TenantEmail, &m.MonthlyIncome, &m.EmploymentType,
		&m.PreferredMoveInDate, &m.LeaseDurationMonths, &m.HasRentalReferences,
		&m.HasEmploymentProof, &m.HasCreditCheck, &m.NumberOfOccupants, &m.HasPets,
		&m.PetDetails, &m.SmokingAllowed, &m.LandlordResponse, &m.LandlordNotes,
		&m.CreatedAt, &m.ViewedAt, &m.RespondedAt, &m.ExpiresAt, &m.FollowUpCount,
		&m.LastFollowUp, &m.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, matching.ErrNotFound
		}
		return nil, fmt.Errorf("scan match request: %w", err)
	}
	return m, nil
}

func scanMatchRequests(rows pgx.Rows) ([]*matching.MatchRequest, error) {
	var out []*matching.MatchRequest
	for rows.Next() {
		m, err := scanMatchRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *Repository) GetMatchRequestByID(ctx context.Context, id uuid.UUID) (*matching.MatchRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectMatchRequestColumns+` FROM match_requests WHERE id = $1`, id)
	return scanMatchRequest(row)
}

func (r *Repository) GetActiveForPair(ctx context.Context, tenantID, propertyID uuid.UUID) (*matching.MatchRequest, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+selectMatchRequestColumns+` FROM match_requests
		WHERE tenant_id = $1 AND property_id = $2
		AND status NOT IN ('accepted', 'rejected', 'expired', 'cancelled')
		ORDER BY created_at DESC LIMIT 1`, tenantID, propertyID)
	return scanMatchRequest(row)
}

func (r *Repository) ListForLandlord(ctx context.Context, landlordID uuid.UUID) ([]*matching.MatchRequest, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectMatchRequestColumns+` FROM match_requests WHERE landlord_id = $1 ORDER BY created_at DESC`, landlordID)
	if err != nil {
		return nil, fmt.Errorf("list for landlord: %w", err)
	}
	defer rows.Close()
	return scanMatchRequests(rows)
}

func (r *Repository) ListExpirable(ctx context.Context, now time.Time) ([]*matching.MatchRequest, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectMatchRequestColumns+` FROM match_requests
		WHERE status IN ('pending', 'viewed') AND expires_at <= $1`, now)
	if err != nil {
		return nil, fmt.Errorf("list expirable: %w", err)
	}
	defer rows.Close()
	return scanMatchRequests(rows)
}

func (r *Repository) ListForFollowUp(ctx context.Context, now time.Time) ([]*matching.MatchRequest, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+selectMatchRequestColumns+` FROM match_requests
		WHERE status IN ('pending', 'viewed')
		AND created_at <= $1
		AND follow_up_count < 2
		AND (last_follow_up IS NULL OR last_follow_up <= $2)`,
		now.Add(-2*24*time.Hour), now.Add(-2*24*time.Hour))
	if err != nil {
		return nil, fmt.Errorf("list for follow up: %w", err)
	}
	defer rows.Close()
	return scanMatchRequests(rows)
}

const updateMatchRequestQuery = `
UPDATE match_requests SET
    status = $2, landlord_response = $3, landlord_notes = $4, viewed_at = $5,
    responded_at = $6, follow_up_count = $7, last_follow_up = $8,
    version = version + 1
WHERE id = $1 AND version = $9
RETURNING version
`

func (r *Repository) UpdateMatchRequest(ctx context.Context, m *matching.MatchRequest) error {
	row := r.pool.QueryRow(ctx, updateMatchRequestQuery,
		m.ID, m.Status, m.LandlordResponse, m.LandlordNotes, m.ViewedAt,
		m.RespondedAt, m.FollowUpCount, m.LastFollowUp, m.Version,
	)
	if err := row.Scan(&m.Version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, getErr := r.GetMatchRequestByID(ctx, m.ID); getErr != nil {
				return matching.ErrNotFound
			}
			return matching.ErrVersionConflict
		}
		return fmt.Errorf("update match request: %w", err)
	}
	return nil
}

func (r *Repository) CountSubmittedSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM match_requests WHERE tenant_id = $1 AND created_at > $2`, tenantID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count submitted since: %w", err)
	}
	return count, nil
}

func (r *Repository) GetCriteria(ctx context.Context, tenantID uuid.UUID) (*matching.MatchCriteria, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, tenant_id, preferred_cities, max_distance_km, min_price, max_price,
		property_types, min_bedrooms, min_bathrooms, min_area, required_amenities, pets_required,
		smoking_required, furnished_required, parking_required, auto_apply_enabled,
		notification_frequency, created_at, updated_at
		FROM match_criteria WHERE tenant_id = $1`, tenantID)
	return scanCriteria(row)
}

func (r *Repository) ListAutoApplyCriteria(ctx context.Context, frequency string) ([]*matching.MatchCriteria, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, tenant_id, preferred_cities, max_distance_km, min_price, max_price,
		property_types, min_bedrooms, min_bathrooms, min_area, required_amenities, pets_required,
		smoking_required, furnished_required, parking_required, auto_apply_enabled,
		notification_frequency, created_at, updated_at
		FROM match_criteria WHERE auto_apply_enabled = true AND notification_frequency = $1`, frequency)
	if err != nil {
		return nil, fmt.Errorf("list auto-apply criteria: %w", err)
	}
	defer rows.Close()
	var out []*matching.MatchCriteria
	for rows.Next() {
		c, err := scanCriteria(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanCriteria(row pgx.Row) (*matching.MatchCriteria, error) {
	c := &matching.MatchCriteria{}
	err := row.Scan(
		&c.ID, &c.TenantID, &c.PreferredCities, &c.MaxDistanceKM, &c.MinPrice, &c.MaxPrice,
		&c.PropertyTypes, &c.MinBedrooms, &c.MinBathrooms, &c.MinArea, &c.RequiredAmenities,
		&c.PetsRequired, &c.SmokingRequired, &c.FurnishedRequired, &c.ParkingRequired,
		&c.AutoApplyEnabled, &c.NotificationFrequency, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, matching.ErrNotFound
		}
		return nil, fmt.Errorf("scan match criteria: %w", err)
	}
	return c, nil
}

func (r *Repository) GetProperty(ctx context.Context, id uuid.UUID) (*matching.Property, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, landlord_id, city, property_type, monthly_rent, bedrooms,
		bathrooms, area_m2, pets_allowed, smoking_allowed, parking, available
		FROM properties WHERE id = $1`, id)
	return scanProperty(row)
}

func scanProperty(row pgx.Row) (*matching.Property, error) {
	p := &matching.Property{}
	err := row.Scan(&p.ID, &p.LandlordID, &p.City, &p.PropertyType, &p.MonthlyRent, &p.Bedrooms,
		&p.Bathrooms, &p.AreaM2, &p.PetsAllowed, &p.SmokingAllowed, &p.Parking, &p.Available)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, matching.ErrNotFound
		}
		return nil, fmt.Errorf("scan property: %w", err)
	}
	return p, nil
}

func (r *Repository) ListProperties(ctx context.Context, filter matching.PropertyFilter) ([]*matching.Property, error) {
	query := `SELECT id, landlord_id, city, property_type, monthly_rent, bedrooms,
		bathrooms, area_m2, pets_allowed, smoking_allowed, parking, available FROM properties WHERE 1=1`
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.AvailableOnly {
		query += " AND available = true"
	}
	if len(filter.Cities) > 0 {
		query += " AND city = ANY(" + arg(filter.Cities) + ")"
	}
	if len(filter.PropertyTypes) > 0 {
		query += " AND property_type = ANY(" + arg(filter.PropertyTypes) + ")"
	}
	if filter.MinPrice != nil {
		query += " AND monthly_rent::numeric >= " + arg(*filter.MinPrice) + "::numeric"
	}
	if filter.MaxPrice != nil {
		query += " AND monthly_rent::numeric <= " + arg(*filter.MaxPrice) + "::numeric"
	}
	if filter.MinBedrooms > 0 {
		query += " AND bedrooms >= " + arg(filter.MinBedrooms)
	}
	if filter.MinBathrooms > 0 {
		query += " AND bathrooms >= " + arg(filter.MinBathrooms)
	}
	if filter.MinArea != nil {
		query += " AND area_m2 >= " + arg(*filter.MinArea)
	}
	if filter.PetsRequired {
		query += " AND pets_allowed = true"
	}
	if filter.ParkingRequired {
		query += " AND parking = true"
	}
	query += " ORDER BY created_at DESC"

	if strings.Count(query, "$") != len(args) {
		return nil, fmt.Errorf("list properties: placeholder/argument mismatch")
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()
	var out []*matching.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
