package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jaxxstorm/landlord/internal/api/apierror"
	"github.com/jaxxstorm/landlord/internal/contract"
	"github.com/jaxxstorm/landlord/internal/invitation"
)

type sendInvitationRequest struct {
	TenantEmail string  `json:"tenant_email"`
	TenantName  string  `json:"tenant_name"`
	TenantPhone *string `json:"tenant_phone,omitempty"`
	Method      string  `json:"method"`
	Message     *string `json:"message,omitempty"`
	TTLDays     int     `json:"ttl_days,omitempty"`
}

type invitationTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// handleSendInvitation invites a tenant to a contract, returning the
// plaintext token exactly once.
// @Summary Send a contract invitation
// @Tags invitations
// @Accept json
// @Produce json
// @Param id path string true "contract id"
// @Param request body sendInvitationRequest true "invitation"
// @Success 201 {object} invitationTokenResponse
// @Router /contracts/{id}/invitations [post]
func (s *Server) handleSendInvitation(w http.ResponseWriter, r *http.Request) {
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
	var req sendInvitationRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}
	if req.TenantEmail == "" {
		apierror.Write(w, apierror.Validation("tenant_email is required"))
		return
	}
	method := invitation.Method(req.Method)
	if method == "" {
		method = invitation.MethodEmail
	}

	inv, plaintext, err := s.invitations.Create(r.Context(), id, principal.UserID, req.TenantEmail, req.TenantName, req.TenantPhone, method, req.Message, req.TTLDays, historyMetadata(r))
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusCreated, invitationTokenResponse{
		Token:     plaintext,
		ExpiresAt: inv.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// handleResendInvitation re-sends the pending or opened invitation for a
// contract, minting a fresh token.
// @Summary Resend a contract invitation
// @Tags invitations
// @Produce json
// @Param id path string true "contract id"
// @Success 200 {object} invitationTokenResponse
// @Router /contracts/{id}/invitations/resend [post]
func (s *Server) handleResendInvitation(w http.ResponseWriter, r *http.Request) {
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
	plaintext, err := s.invitations.Resend(r.Context(), id, principal.UserID)
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, invitationTokenResponse{Token: plaintext})
}

// handleVerifyInvitation returns the public, pre-acceptance view of an
// invitation token without consuming it.
// @Summary Verify an invitation token
// @Tags invitations
// @Produce json
// @Param token query string true "invitation token"
// @Success 200 {object} invitation.PublicView
// @Router /invitations/verify [get]
func (s *Server) handleVerifyInvitation(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		apierror.Write(w, apierror.Validation("token is required"))
		return
	}
	view, _, err := s.invitations.Verify(r.Context(), token)
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type acceptInvitationRequest struct {
	Token       string `json:"token"`
	TenantEmail string `json:"tenant_email"`
}

// handleAcceptInvitation accepts an invitation, moving the contract into
// tenant review. The token is never accepted from a query string (§6).
// @Summary Accept a contract invitation
// @Tags invitations
// @Accept json
// @Produce json
// @Param request body acceptInvitationRequest true "acceptance"
// @Success 200 {object} contract.Contract
// @Router /invitations/accept [post]
func (s *Server) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	var req acceptInvitationRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}
	if req.Token == "" {
		apierror.Write(w, apierror.Validation("token is required"))
		return
	}
	c, err := s.invitations.Accept(r.Context(), req.Token, principal.UserID, req.TenantEmail, historyMetadata(r))
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, c)
}
