package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jaxxstorm/landlord/internal/api/apierror"
	"github.com/jaxxstorm/landlord/internal/objection"
)

type submitObjectionRequest struct {
	FieldReference string `json:"field_reference"`
	CurrentValue   string `json:"current_value"`
	ProposedValue  string `json:"proposed_value"`
	Justification  string `json:"justification"`
	Priority       string `json:"priority"`
}

// handleSubmitObjection submits an objection against a contract field.
// @Summary Submit an objection
// @Tags objections
// @Accept json
// @Produce json
// @Param id path string true "contract id"
// @Param request body submitObjectionRequest true "objection"
// @Success 201 {object} objection.Objection
// @Router /contracts/{id}/objections [post]
func (s *Server) handleSubmitObjection(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, apiErr := parseUUIDParam(chi.URLParam(r, "id"))
	if apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}
	var req submitObjectionRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}
	priority := objection.Priority(req.Priority)
	if priority == "" {
		priority = objection.PriorityMedium
	}

	o, err := s.objections.Submit(r.Context(), id, principal.UserID, principal.Role, req.FieldReference, req.CurrentValue, req.ProposedValue, req.Justification, priority, historyMetadata(r))
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusCreated, o)
}

// handleListObjections lists the objections raised against a contract.
// @Summary List a contract's objections
// @Tags objections
// @Produce json
// @Param id path string true "contract id"
// @Success 200 {array} objection.Objection
// @Router /contracts/{id}/objections [get]
func (s *Server) handleListObjections(w http.ResponseWriter, r *http.Request) {
	if _, ok := requirePrincipal(w, r); !ok {
		return
	}
	id, apiErr := parseUUIDParam(chi.URLParam(r, "id"))
	if apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}
	objections, err := s.objectionRepo.ListForContract(r.Context(), id)
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, objections)
}

type respondObjectionRequest struct {
	Response string `json:"response"`
	Note     string `json:"note"`
}

// handleRespondObjection records a response (accepted or rejected) to an
// objection.
// @Summary Respond to an objection
// @Tags objections
// @Accept json
// @Produce json
// @Param id path string true "objection id"
// @Param request body respondObjectionRequest true "response"
// @Success 200 {object} objection.Objection
// @Router /objections/{id}/respond [post]
func (s *Server) handleRespondObjection(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}
	id, apiErr := parseUUIDParam(chi.URLParam(r, "id"))
	if apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}
	var req respondObjectionRequest
	if apiErr := decodeJSON(r, &req); apiErr != nil {
		apierror.Write(w, apiErr)
		return
	}

	o, err := s.objections.Respond(r.Context(), id, principal.UserID, principal.Role, objection.Status(req.Response), req.Note, historyMetadata(r))
	if err != nil {
		apierror.Write(w, mapDomainError(err))
		return
	}
	writeJSON(w, http.StatusOK, o)
}
