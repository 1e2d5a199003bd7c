// Package memory provides an in-process matching.Repository for tests.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jaxxstorm/landlord/internal/matching"
)

// Repository is an in-memory matching.Repository.
type Repository struct {
	mu         sync.Mutex
	requests   map[uuid.UUID]*matching.MatchRequest
	criteria   map[uuid.UUID]*matching.MatchCriteria
	properties map[uuid.UUID]*matching.Property
}

func New() *Repository {
	return &Repository{
		requests:   make(map[uuid.UUID]*matching.MatchRequest),
		criteria:   make(map[uuid.UUID]*matching.MatchCriteria),
		properties: make(map[uuid.UUID]*matching.Property),
	}
}

func cloneRequest(m *matching.MatchRequest) *matching.MatchRequest {
	c := *m
	return &c
}

// SeedProperty is a test helper for populating the property catalog this
// engine scores and filters against.
func (r *Repository) SeedProperty(p *matching.Property) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.properties[p.ID] = &cp
}

// SeedCriteria is a test helper for populating a tenant's saved search.
func (r *Repository) SeedCriteria(c *matching.MatchCriteria) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.criteria[c.TenantID] = &cp
}

func (r *Repository) CreateMatchRequest(ctx context.Context, m *matching.MatchRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.Version = 1
	r.requests[m.ID] = cloneRequest(m)
	return nil
}

func (r *Repository) GetMatchRequestByID(ctx context.Context, id uuid.UUID) (*matching.MatchRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.requests[id]
	if !ok {
		return nil, matching.ErrNotFound
	}
	return cloneRequest(m), nil
}

func (r *Repository) GetActiveForPair(ctx context.Context, tenantID, propertyID uuid.UUID) (*matching.MatchRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.requests {
		if m.TenantID == tenantID && m.PropertyID == propertyID && !m.Status.IsTerminal() {
			return cloneRequest(m), nil
		}
	}
	return nil, matching.ErrNotFound
}

func (r *Repository) ListForLandlord(ctx context.Context, landlordID uuid.UUID) ([]*matching.MatchRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*matching.MatchRequest
	for _, m := range r.requests {
		if m.LandlordID == landlordID {
			out = append(out, cloneRequest(m))
		}
	}
	return out, nil
}

func (r *Repository) ListExpirable(ctx context.Context, now time.Time) ([]*matching.MatchRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*matching.MatchRequest
	for _, m := range r.requests {
		if m.Status.IsPendingOrViewed() && now.After(m.ExpiresAt) {
			out = append(out, cloneRequest(m))
		}
	}
	return out, nil
}

func (r *Repository) ListForFollowUp(ctx context.Context, now time.Time) ([]*matching.MatchRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*matching.MatchRequest
	for _, m := range r.requests {
		if !m.Status.IsPendingOrViewed() {
			continue
		}
		if now.Sub(m.CreatedAt) < 2*24*time.Hour {
			continue
		}
		if m.FollowUpCount >= 2 {
			continue
		}
		if m.LastFollowUp != nil && now.Sub(*m.LastFollowUp) < 2*24*time.Hour {
			continue
		}
		out = append(out, cloneRequest(m))
	}
	return out, nil
}

func (r *Repository) UpdateMatchRequest(ctx context.Context, m *matching.MatchRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.requests[m.ID]
	if !ok {
		return matching.ErrNotFound
	}
	if stored.Version != m.Version {
		return matching.ErrVersionConflict
	}
	m.Version++
	r.requests[m.ID] = cloneRequest(m)
	return nil
}

func (r *Repository) CountSubmittedSince(ctx context.Context, tenantID uuid.UUID, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, m := range r.requests {
		if m.TenantID == tenantID && m.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (r *Repository) GetCriteria(ctx context.Context, tenantID uuid.UUID) (*matching.MatchCriteria, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.criteria[tenantID]
	if !ok {
		return nil, matching.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *Repository) ListAutoApplyCriteria(ctx context.Context, frequency string) ([]*matching.MatchCriteria, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*matching.MatchCriteria
	for _, c := range r.criteria {
		if c.AutoApplyEnabled && c.NotificationFrequency == frequency {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *Repository) GetProperty(ctx context.Context, id uuid.UUID) (*matching.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.properties[id]
	if !ok {
		return nil, matching.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *Repository) ListProperties(ctx context.Context, filter matching.PropertyFilter) ([]*matching.Property, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*matching.Property
	for _, p := range r.properties {
		if filter.AvailableOnly && !p.Available {
			continue
		}
		if len(filter.Cities) > 0 && !containsFold(filter.Cities, p.City) {
			continue
		}
		if len(filter.PropertyTypes) > 0 && !containsFold(filter.PropertyTypes, p.PropertyType) {
			continue
		}
		if p.Bedrooms < filter.MinBedrooms {
			continue
		}
		if p.Bathrooms < filter.MinBathrooms {
			continue
		}
		if filter.MinArea != nil && p.AreaM2 < *filter.MinArea {
			continue
		}
		if filter.PetsRequired && !p.PetsAllowed {
			continue
		}
		if filter.ParkingRequired && !p.Parking {
			continue
		}
		if !priceInRange(p.MonthlyRent, filter.MinPrice, filter.MaxPrice) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func priceInRange(rent string, min, max *string) bool {
	value, err := strconv.ParseFloat(rent, 64)
	if err != nil {
		return true
	}
	if min != nil {
		if lo, err := strconv.ParseFloat(*min, 64); err == nil && value < lo {
			return false
		}
	}
	if max != nil {
		if hi, err := strconv.ParseFloat(*max, 64); err == nil && value > hi {
			return false
		}
	}
	return true
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
