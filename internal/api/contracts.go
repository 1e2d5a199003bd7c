package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jaxxstorm/landlord/internal/api/apierror"
	"github.com/jaxxstorm/landlord/internal/contract"
)

func historyMetadata(r *http.Request) contract.HistoryMetadata {
	return contract.HistoryMetadata{
		IP:        r.RemoteAddr,
		UserAgent: r.UserAgent(),
		SessionID: r.Header.Get("X-Request-ID"),
	}
}

type createDraftRequest struct {
	PropertyID   uuid.UUID `json:"property_id"`
	ContractType string    `json:"contract_type"`
}

// handleCreateDraft creates a new contract in DRAFT, owned by the
// authenticated landlord.
// @Summary Create a contract draft
// @Tags contracts
// @Accept json
// @Produce json
// @Param request body createDraftRequest true "draft request"
// @Success 201 {object} contract.Contract
// @Failure 400 {object} apierror.Error
// @Failure 403 {object} apierror.Error
// @Router /contracts [post]
func (s *Server) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if !requireRole(w, principal, contract.RoleLandlord) {
		return
	}

	var req createDraftRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}
	if req.PropertyID == uuid.Nil {
		apierror.Write(w, apierror.Validation("property_id is required"))
		return
	}

	c, err := s.contracts.CreateDraft(r.Context(), principal.UserID, req.PropertyID, contract.ContractType(req.ContractType), historyMetadata(r))
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// handleGetContract returns a single contract by id.
// @Summary Get a contract
// @Tags contracts
// @Produce json
// @Param id path string true "contract id"
// @Success 200 {object} contract.Contract
// @Failure 404 {object} apierror.Error
// @Router /contracts/{id} [get]
func (s *Server) handleGetContract(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	id, apiErr := parseUUIDParam(chi.URLParam(r, "id"))
	if apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}
	c, err := s.contracts.Get(r.Context(), id)
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleListContracts lists contracts owned by the authenticated
// landlord.
// @Summary List contracts
// @Tags contracts
// @Produce json
// @Success 200 {array} contract.Contract
// @Router /contracts [get]
func (s *Server) handleListContracts(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	filters := contract.ListFilters{LandlordID: &principal.UserID, Limit: 50}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil && n > 0 {
			filters.Limit = n
		}
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		if n, err := strconv.Atoi(offset); err == nil && n >= 0 {
			filters.Offset = n
		}
	}

	contracts, err := s.contractRepo.ListContracts(r.Context(), filters)
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, contracts)
}

// handleContractHistory returns the append-only workflow history for a
// contract.
// @Summary List contract history
// @Tags contracts
// @Produce json
// @Param id path string true "contract id"
// @Success 200 {array} contract.WorkflowHistoryEntry
// @Router /contracts/{id}/history [get]
func (s *Server) handleContractHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	id, apiErr := parseUUIDParam(chi.URLParam(r, "id"))
	if apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}
	history, err := s.contracts.GetHistory(r.Context(), id)
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// handleContractStats returns the authenticated landlord's contract
// statistics.
// @Summary Landlord contract statistics
// @Tags contracts
// @Produce json
// @Success 200 {object} contract.Stats
// @Router /contracts/stats [get]
func (s *Server) handleContractStats(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if !requireRole(w, principal, contract.RoleLandlord) {
		return
	}
	stats, err := s.contracts.Stats(r.Context(), principal.UserID)
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type completeLandlordDataRequest struct {
	LandlordData  contract.JSONMap `json:"landlord_data"`
	EconomicTerms contract.JSONMap `json:"economic_terms"`
	ContractTerms contract.JSONMap `json:"contract_terms"`
}

// handleCompleteLandlordData records the landlord's data and terms,
// returning the contract once it moves to an invitation-ready state.
// @Summary Complete landlord data
// @Tags contracts
// @Accept json
// @Produce json
// @Param id path string true "contract id"
// @Param request body completeLandlordDataRequest true "landlord data"
// @Success 200 {object} contract.Contract
// @Router /contracts/{id}/landlord-data [post]
func (s *Server) handleCompleteLandlordData(w http.ResponseWriter, r *http.Request) {
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
	var req completeLandlordDataRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}

	c, err := s.contracts.CompleteLandlordData(r.Context(), id, principal.UserID, req.LandlordData, req.EconomicTerms, req.ContractTerms, historyMetadata(r))
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type completeTenantDataRequest struct {
	TenantData contract.JSONMap `json:"tenant_data"`
}

// handleCompleteTenantData records the tenant's data.
// @Summary Complete tenant data
// @Tags contracts
// @Accept json
// @Produce json
// @Param id path string true "contract id"
// @Param request body completeTenantDataRequest true "tenant data"
// @Success 200 {object} contract.Contract
// @Router /contracts/{id}/tenant-data [post]
func (s *Server) handleCompleteTenantData(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if !requireRole(w, principal, contract.RoleTenant) {
		return
	}
	id, apiErr := parseUUIDParam(chi.URLParam(r, "id"))
	if apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}
	var req completeTenantDataRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}

	c, err := s.contracts.CompleteTenantData(r.Context(), id, principal.UserID, req.TenantData, historyMetadata(r))
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handleApproveContract records the caller's approval.
// @Summary Approve a contract
// @Tags contracts
// @Produce json
// @Param id path string true "contract id"
// @Success 200 {object} contract.Contract
// @Router /contracts/{id}/approve [post]
func (s *Server) handleApproveContract(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, apiErr := parseUUIDParam(chi.URLParam(r, "id"))
	if apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}
	c, err := s.contracts.Approve(r.Context(), id, principal.UserID, principal.Role, historyMetadata(r))
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type cancelContractRequest struct {
	Reason string `json:"reason"`
}

// handleCancelContract cancels a contract.
// @Summary Cancel a contract
// @Tags contracts
// @Accept json
// @Produce json
// @Param id path string true "contract id"
// @Param request body cancelContractRequest true "cancellation reason"
// @Success 200 {object} contract.Contract
// @Router /contracts/{id}/cancel [post]
func (s *Server) handleCancelContract(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	if !requireRole(w, principal, contract.RoleLandlord, contract.RoleAdmin) {
		return
	}
	id, apiErr := parseUUIDParam(chi.URLParam(r, "id"))
	if apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}
	var req cancelContractRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}
	c, err := s.contracts.Cancel(r.Context(), id, principal.UserID, principal.Role, req.Reason, historyMetadata(r))
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type addGuaranteeRequest struct {
	Type          string           `json:"type"`
	Amount        *string          `json:"amount,omitempty"`
	Currency      string           `json:"currency,omitempty"`
	CoSignerData  contract.JSONMap `json:"co_signer_data,omitempty"`
	PolicyNumber  string           `json:"policy_number,omitempty"`
	Issuer        string           `json:"issuer,omitempty"`
}

// handleAddGuarantee attaches a guarantee (co-signer or insurance
// policy) to a contract.
// @Summary Add a guarantee to a contract
// @Tags contracts
// @Accept json
// @Produce json
// @Param id path string true "contract id"
// @Param request body addGuaranteeRequest true "guarantee"
// @Success 201 {object} contract.Contract
// @Router /contracts/{id}/guarantee [post]
func (s *Server) handleAddGuarantee(w http.ResponseWriter, r *http.Request) {
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
	var req addGuaranteeRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}
	if req.Type == "" {
		apierror.Write(w, apierror.Validation("type is required"))
		return
	}

	c, err := s.contracts.Get(r.Context(), id)
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}

	guarantee := contract.Guarantee{
		ID:           uuid.New(),
		ContractID:   id,
		Type:         req.Type,
		Amount:       req.Amount,
		Currency:     req.Currency,
		CoSignerData: req.CoSignerData,
		PolicyNumber: req.PolicyNumber,
		Issuer:       req.Issuer,
		Status:       "pending",
	}
	if err := s.contractRepo.AddGuarantee(r.Context(), &guarantee); err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	c.Guarantees = append(c.Guarantees, guarantee)
	writeJSON(w, http.StatusCreated, c)
}

// handleGeneratePDF renders the contract document through the PDF
// renderer port. A renderer failure is an external_failure (500),
// unlike notification channel failures which never propagate.
// @Summary Generate the contract PDF
// @Tags contracts
// @Produce application/pdf
// @Param id path string true "contract id"
// @Param include_signatures query bool false "include signatures"
// @Success 200 {file} binary
// @Failure 500 {object} apierror.Error
// @Router /contracts/{id}/pdf [get]
func (s *Server) handleGeneratePDF(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	id, apiErr := parseUUIDParam(chi.URLParam(r, "id"))
	if apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}
	c, err := s.contracts.Get(r.Context(), id)
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}

	includeSignatures := r.URL.Query().Get("include_signatures") == "true"
	includeBiometric := r.URL.Query().Get("include_biometric") == "true"

	doc, err := s.renderer.Render(r.Context(), c, includeSignatures, includeBiometric)
	if err != nil {
		apierror.Write(w, apierror.ExternalFailure("failed to render contract document: "+err.Error()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}
