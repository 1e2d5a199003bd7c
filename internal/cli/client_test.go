package cli

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test server: %v", err)
	}

	server := httptest.NewUnstartedServer(handler)
	server.Listener = ln
	server.Start()
	t.Cleanup(server.Close)
	return server
}

var testContractID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
var testPropertyID = uuid.MustParse("00000000-0000-0000-0000-000000000002")

func contractBody(state string) string {
	return `{"id":"` + testContractID.String() + `","contract_number":"C-1","contract_type":"residential_lease","current_state":"` + state + `","landlord_id":"00000000-0000-0000-0000-000000000003","property_id":"` + testPropertyID.String() + `","version":1}`
}

func TestClientCreateGetListContract(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/contracts":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(contractBody("draft")))
		case r.Method == http.MethodGet && r.URL.Path == "/v1/contracts":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("[" + contractBody("draft") + "]"))
		case r.Method == http.MethodGet && r.URL.Path == "/v1/contracts/"+testContractID.String():
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(contractBody("draft")))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	client := NewClient(server.URL, "")

	c, err := client.CreateDraft(context.Background(), testPropertyID, "residential_lease")
	if err != nil {
		t.Fatalf("create draft failed: %v", err)
	}
	if c.ID != testContractID {
		t.Fatalf("expected contract id %s, got %s", testContractID, c.ID)
	}

	if _, err := client.GetContract(context.Background(), testContractID); err != nil {
		t.Fatalf("get contract failed: %v", err)
	}

	contracts, err := client.ListContracts(context.Background())
	if err != nil {
		t.Fatalf("list contracts failed: %v", err)
	}
	if len(contracts) != 1 {
		t.Fatalf("expected 1 contract, got %d", len(contracts))
	}
}

func TestClientHandlesErrors(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"validation_error","message":"bad request"}`))
	}))

	client := NewClient(server.URL, "")
	_, err := client.ListContracts(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestClientSignAndPublish(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/contracts/"+testContractID.String()+"/sign":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(contractBody("tenant_signed")))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/contracts/"+testContractID.String()+"/publish":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(contractBody("published")))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	client := NewClient(server.URL, "test-token")

	if _, err := client.SignContract(context.Background(), testContractID, nil, []string{"password"}); err != nil {
		t.Fatalf("sign contract failed: %v", err)
	}

	if _, err := client.PublishContract(context.Background(), testContractID); err != nil {
		t.Fatalf("publish contract failed: %v", err)
	}
}

func TestClientInvitationFlow(t *testing.T) {
	t.Parallel()

	server := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/contracts/"+testContractID.String()+"/invitations":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"token":"plaintext-token","expires_at":"2026-08-01T00:00:00Z"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v1/invitations/verify":
			if r.URL.Query().Get("token") != "plaintext-token" {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"contract_id":"` + testContractID.String() + `"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	client := NewClient(server.URL, "")

	token, err := client.SendInvitation(context.Background(), testContractID, "tenant@example.com", "Jane Tenant")
	if err != nil {
		t.Fatalf("send invitation failed: %v", err)
	}
	if token.Token != "plaintext-token" {
		t.Fatalf("expected plaintext token, got %s", token.Token)
	}

	if _, err := client.VerifyInvitation(context.Background(), token.Token); err != nil {
		t.Fatalf("verify invitation failed: %v", err)
	}
}
