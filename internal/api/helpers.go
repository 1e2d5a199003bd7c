package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/jaxxstorm/landlord/internal/api/apierror"
	"github.com/jaxxstorm/landlord/internal/auth"
	"github.com/jaxxstorm/landlord/internal/contract"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst interface{}) *apierror.Error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierror.Validation("invalid JSON body: " + err.Error())
	}
	return nil
}

func parseUUIDParam(value string) (uuid.UUID, *apierror.Error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.UUID{}, apierror.Validation("invalid identifier: " + value)
	}
	return id, nil
}

// requirePrincipal extracts the authenticated caller or writes a 401.
// It returns ok=false when the response has already been written.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	principal, ok := auth.FromContext(r.Context())
	if !ok {
		apierror.Write(w, apierror.Unauthenticated("authentication required"))
		return nil, false
	}
	return principal, true
}

// requireRole checks the principal holds one of the allowed roles,
// writing a 403 permission_denied response otherwise.
func requireRole(w http.ResponseWriter, principal *auth.Principal, allowed ...contract.Role) bool {
	for _, role := range allowed {
		if principal.Role == role {
			return true
		}
	}
	apierror.Write(w, apierror.PermissionDenied("role "+string(principal.Role)+" is not permitted to perform this action"))
	return false
}
