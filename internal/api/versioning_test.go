package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newVersioningTestServer() *Server {
	router := chi.NewRouter()
	srv := &Server{router: router}
	srv.registerRoutes()
	return srv
}

type versionErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Detail  []string `json:"detail"`
}

func TestVersionRequiredForUnversionedPaths(t *testing.T) {
	srv := newVersioningTestServer()
	req := httptest.NewRequest(http.MethodGet, "/api/tenants", nil)
	rec := httptest.NewRecorder()

	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var resp versionErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Message != "version_required" {
		t.Fatalf("expected message version_required, got %q", resp.Message)
	}
	if len(resp.Detail) == 0 || resp.Detail[0] != "v1" {
		t.Fatalf("expected supported versions list to include v1, got %#v", resp.Detail)
	}
}

func TestUnsupportedVersionReturnsError(t *testing.T) {
	srv := newVersioningTestServer()
	req := httptest.NewRequest(http.MethodGet, "/v2/tenants", nil)
	rec := httptest.NewRecorder()

	srv.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var resp versionErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if resp.Message != "unsupported_version" {
		t.Fatalf("expected message unsupported_version, got %q", resp.Message)
	}
	if len(resp.Detail) == 0 || resp.Detail[0] != "v1" {
		t.Fatalf("expected supported versions list to include v1, got %#v", resp.Detail)
	}
}
