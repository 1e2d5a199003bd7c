// Package matching implements C3: tenant-landlord match requests, the
// deterministic compatibility score, and the scheduled sweeps that keep
// the match-request queue moving (§4.3).
package matching

import (
	"time"

	"github.com/google/uuid"
)

// Status is a MatchRequest's position in its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusViewed    Status = "viewed"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// IsPendingOrViewed reports whether s is one of the two states the expiry
// and follow-up sweeps act on.
func (s Status) IsPendingOrViewed() bool {
	return s == StatusPending || s == StatusViewed
}

// IsTerminal reports whether no further transition is expected.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusExpired, StatusCancelled:
		return true
	default:
		return false
	}
}

// Priority is the tenant-declared urgency of a request.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

const defaultTTL = 7 * 24 * time.Hour

// MatchRequest is a tenant's first-contact interest in a property (C3).
// It is orthogonal to Contract: an accept emits an event the contract
// engine may consume to create a DRAFT, but MatchRequest is never owned
// by a Contract (§9 Design Notes).
type MatchRequest struct {
	ID         uuid.UUID `json:"id"`
	MatchCode  string    `json:"match_code"`
	PropertyID uuid.UUID `json:"property_id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	LandlordID uuid.UUID `json:"landlord_id"`

	Status   Status   `json:"status"`
	Priority Priority `json:"priority"`

	TenantMessage string `json:"tenant_message"`
	TenantPhone   string `json:"tenant_phone,omitempty"`
	TenantEmail   string `json:"tenant_email,omitempty"`

	MonthlyIncome  *string `json:"monthly_income,omitempty"` // fixed-point decimal string
	EmploymentType string  `json:"employment_type,omitempty"`

	PreferredMoveInDate *time.Time `json:"preferred_move_in_date,omitempty"`
	LeaseDurationMonths int        `json:"lease_duration_months"`

	HasRentalReferences bool `json:"has_rental_references"`
	HasEmploymentProof  bool `json:"has_employment_proof"`
	HasCreditCheck      bool `json:"has_credit_check"`

	NumberOfOccupants int    `json:"number_of_occupants"`
	HasPets           bool   `json:"has_pets"`
	PetDetails        string `json:"pet_details,omitempty"`
	SmokingAllowed    bool   `json:"smoking_allowed"`

	LandlordResponse string `json:"landlord_response,omitempty"`
	LandlordNotes    string `json:"landlord_notes,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	ViewedAt    *time.Time `json:"viewed_at,omitempty"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	ExpiresAt   time.Time  `json:"expires_at"`

	FollowUpCount int        `json:"follow_up_count"`
	LastFollowUp  *time.Time `json:"last_follow_up,omitempty"`

	Version int `json:"version"`
}

// Property is the minimal listing read-model the matching engine scores
// and filters against. Ownership of the full property catalog is outside
// this engine's scope; this is the subset matching needs (§4.3
// find_matching's filter fields and compatibility_score's policy
// fields).
type Property struct {
	ID             uuid.UUID `json:"id"`
	LandlordID     uuid.UUID `json:"landlord_id"`
	City           string    `json:"city"`
	PropertyType   string    `json:"property_type"`
	MonthlyRent    string    `json:"monthly_rent"` // fixed-point decimal string
	Bedrooms       int       `json:"bedrooms"`
	Bathrooms      int       `json:"bathrooms"`
	AreaM2         int       `json:"area_m2"`
	PetsAllowed    bool      `json:"pets_allowed"`
	SmokingAllowed bool      `json:"smoking_allowed"`
	Parking        bool      `json:"parking"`
	Available      bool      `json:"available"`
}

// MatchCriteria is a tenant's saved search, driving find_matching and the
// daily auto-apply sweep.
type MatchCriteria struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`

	PreferredCities []string `json:"preferred_cities,omitempty"`
	MaxDistanceKM   int      `json:"max_distance_km"`

	MinPrice *string `json:"min_price,omitempty"`
	MaxPrice *string `json:"max_price,omitempty"`

	PropertyTypes []string `json:"property_types,omitempty"`
	MinBedrooms   int      `json:"min_bedrooms"`
	MinBathrooms  int      `json:"min_bathrooms"`
	MinArea       *int     `json:"min_area,omitempty"`

	RequiredAmenities []string `json:"required_amenities,omitempty"`

	PetsRequired      bool `json:"pets_required"`
	SmokingRequired   bool `json:"smoking_required"`
	FurnishedRequired bool `json:"furnished_required"`
	ParkingRequired   bool `json:"parking_required"`

	AutoApplyEnabled      bool   `json:"auto_apply_enabled"`
	NotificationFrequency string `json:"notification_frequency"` // immediate|daily|weekly|monthly

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PropertyFilter narrows ListProperties to find_matching's criteria
// (§4.3): price, city, type, min bedrooms/bathrooms/area, pets/parking.
type PropertyFilter struct {
	Cities          []string
	PropertyTypes   []string
	MinPrice        *string
	MaxPrice        *string
	MinBedrooms     int
	MinBathrooms    int
	MinArea         *int
	PetsRequired    bool
	ParkingRequired bool
	AvailableOnly   bool
}
