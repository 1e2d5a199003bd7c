package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jaxxstorm/landlord/internal/api/apierror"
	"github.com/jaxxstorm/landlord/internal/contract"
	"github.com/jaxxstorm/landlord/internal/matching"
)

type submitMatchRequest struct {
	LandlordID          uuid.UUID `json:"landlord_id"`
	PropertyID          uuid.UUID `json:"property_id"`
	TenantMessage        string   `json:"tenant_message"`
	TenantPhone          string   `json:"tenant_phone"`
	TenantEmail          string   `json:"tenant_email"`
	MonthlyIncome        *string  `json:"monthly_income,omitempty"`
	EmploymentType       string   `json:"employment_type"`
	LeaseDurationMonths  int      `json:"lease_duration_months"`
	HasRentalReferences  bool     `json:"has_rental_references"`
	HasEmploymentProof   bool     `json:"has_employment_proof"`
	HasCreditCheck       bool     `json:"has_credit_check"`
	NumberOfOccupants    int      `json:"number_of_occupants"`
	HasPets              bool     `json:"has_pets"`
	PetDetails           string   `json:"pet_details"`
	SmokingAllowed       bool     `json:"smoking_allowed"`
	Priority             string   `json:"priority"`
}

// handleSubmitMatch submits a tenant's interest in a property.
// @Summary Submit a match request
// @Tags matching
// @Accept json
// @Produce json
// @Param request body submitMatchRequest true "match request"
// @Success 201 {object} matching.MatchRequest
// @Failure 400 {object} apierror.Error
// @Router /matches [post]
func (s *Server) handleSubmitMatch(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if !requireRole(w, principal, contract.RoleTenant) {
		return
	}
	var req submitMatchRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}

	priority := matching.Priority(req.Priority)
	if priority == "" {
		priority = matching.PriorityMedium
	}

	m, err := s.matching.Submit(r.Context(), principal.UserID, req.LandlordID, req.PropertyID, matching.SubmitInput{
		TenantMessage:       req.TenantMessage,
		TenantPhone:         req.TenantPhone,
		TenantEmail:         req.TenantEmail,
		MonthlyIncome:       req.MonthlyIncome,
		EmploymentType:      req.EmploymentType,
		LeaseDurationMonths: req.LeaseDurationMonths,
		HasRentalReferences: req.HasRentalReferences,
		HasEmploymentProof:  req.HasEmploymentProof,
		HasCreditCheck:      req.HasCreditCheck,
		NumberOfOccupants:   req.NumberOfOccupants,
		HasPets:             req.HasPets,
		PetDetails:          req.PetDetails,
		SmokingAllowed:      req.SmokingAllowed,
		Priority:            priority,
	})
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// handleListMatches lists match requests for the authenticated landlord.
// @Summary List match requests
// @Tags matching
// @Produce json
// @Success 200 {array} matching.MatchRequest
// @Router /matches [get]
func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if !requireRole(w, principal, contract.RoleLandlord) {
		return
	}
	matches, err := s.matchingRepo.ListForLandlord(r.Context(), principal.UserID)
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

type respondMatchRequest struct {
	Response string `json:"response"`
}

// handleAcceptMatch accepts a pending or viewed match request.
// @Summary Accept a match request
// @Tags matching
// @Accept json
// @Produce json
// @Param id path string true "match request id"
// @Param request body respondMatchRequest false "response"
// @Success 200 {object} matching.MatchRequest
// @Router /matches/{id}/accept [post]
func (s *Server) handleAcceptMatch(w http.ResponseWriter, r *http.Request) {
	s.respondToMatch(w, r, s.matching.Accept)
}

// handleRejectMatch rejects a pending or viewed match request.
// @Summary Reject a match request
// @Tags matching
// @Accept json
// @Produce json
// @Param id path string true "match request id"
// @Param request body respondMatchRequest false "response"
// @Success 200 {object} matching.MatchRequest
// @Router /matches/{id}/reject [post]
func (s *Server) handleRejectMatch(w http.ResponseWriter, r *http.Request) {
	s.respondToMatch(w, r, s.matching.Reject)
}

func (s *Server) respondToMatch(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, matchID, landlordID uuid.UUID, response string) (*matching.MatchRequest, error)) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if !requireRole(w, principal, contract.RoleLandlord) {
		return
	}
	id, apiErr := parseUUIDParam(chi.URLParam(r, "id"))
	if apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}
	var req respondMatchRequest
	_ = decodeJSON(r, &req)

	m, err := apply(r.Context(), id, principal.UserID, req.Response)
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleCancelMatch cancels the tenant's own match request.
// @Summary Cancel a match request
// @Tags matching
// @Produce json
// @Param id path string true "match request id"
// @Success 200 {object} matching.MatchRequest
// @Router /matches/{id}/cancel [post]
func (s *Server) handleCancelMatch(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, apiErr := parseUUIDParam(chi.URLParam(r, "id"))
	if apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}
	m, err := s.matching.Cancel(r.Context(), id, principal.UserID)
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleMatchRecommendations finds properties matching the tenant's
// saved criteria.
// @Summary Find matching properties
// @Tags matching
// @Produce json
// @Success 200 {array} matching.Property
// @Router /matches/recommendations [get]
func (s *Server) handleMatchRecommendations(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	criteria, err := s.matchingRepo.GetCriteria(r.Context(), principal.UserID)
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	properties, err := s.matching.FindMatching(r.Context(), criteria)
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, properties)
}
