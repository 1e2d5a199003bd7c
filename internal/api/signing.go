package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jaxxstorm/landlord/internal/api/apierror"
	"github.com/jaxxstorm/landlord/internal/contract"
	"github.com/jaxxstorm/landlord/internal/signing"
)

type signContractRequest struct {
	SignatureData contract.JSONMap `json:"signature_data"`
	AuthMethods   []string         `json:"auth_methods"`
}

// handleSignContract records the caller's signature, advancing the
// contract toward fully_signed once every required party has signed.
// @Summary Sign a contract
// @Tags signing
// @Accept json
// @Produce json
// @Param id path string true "contract id"
// @Param request body signContractRequest true "signature"
// @Success 200 {object} contract.Contract
// @Failure 400 {object} apierror.Error
// @Router /contracts/{id}/sign [post]
func (s *Server) handleSignContract(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, apiErr := parseUUIDParam(chi.URLParam(r, "id"))
	if apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}
	var req signContractRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}

	methods := make([]signing.AuthMethod, 0, len(req.AuthMethods))
	for _, m := range req.AuthMethods {
		methods = append(methods, signing.AuthMethod(m))
	}

	c, err := s.signing.Sign(r.Context(), id, principal.UserID, principal.Role, req.SignatureData, methods, historyMetadata(r))
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// handlePublishContract publishes a fully-signed contract. Only the
// landlord may publish.
// @Summary Publish a contract
// @Tags signing
// @Produce json
// @Param id path string true "contract id"
// @Success 200 {object} contract.Contract
// @Router /contracts/{id}/publish [post]
func (s *Server) handlePublishContract(w http.ResponseWriter, r *http.Request) {
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
	c, err := s.signing.Publish(r.Context(), id, principal.UserID, historyMetadata(r))
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}
