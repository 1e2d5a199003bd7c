package main

import (
	"bytes"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
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

const testContractID = "00000000-0000-0000-0000-000000000001"
const testPropertyID = "00000000-0000-0000-0000-000000000002"

func contractJSON(state string) string {
	return `{"id":"` + testContractID + `","contract_number":"C-1","contract_type":"residential_lease","current_state":"` + state + `","landlord_id":"00000000-0000-0000-0000-000000000003","property_id":"` + testPropertyID + `","version":1}`
}

func TestCLICommands(t *testing.T) {
	server := newTestServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/contracts":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(contractJSON("draft")))
		case r.Method == http.MethodGet && r.URL.Path == "/v1/contracts":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("[" + contractJSON("draft") + "]"))
		case r.Method == http.MethodGet && r.URL.Path == "/v1/contracts/"+testContractID:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(contractJSON("draft")))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/contracts/"+testContractID+"/landlord-data":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(contractJSON("landlord_completing")))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/contracts/"+testContractID+"/tenant-data":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(contractJSON("tenant_completing")))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/contracts/"+testContractID+"/cancel":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(contractJSON("cancelled")))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/contracts/"+testContractID+"/sign":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(contractJSON("tenant_signed")))
		case r.Method == http.MethodPost && r.URL.Path == "/v1/contracts/"+testContractID+"/invitations":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"token":"plaintext-token","expires_at":"2026-08-01T00:00:00Z"}`))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))

	t.Setenv("LANDLORD_CLI_API_URL", server.URL)

	run := func(args ...string) (string, error) {
		cmd := newRootCommand()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&out)
		cmd.SetArgs(args)
		err := cmd.Execute()
		return out.String(), err
	}

	output, err := run("create", "--property-id", testPropertyID, "--contract-type", "residential_lease")
	if err != nil {
		t.Fatalf("create command failed: %v", err)
	}
	if !strings.Contains(output, "Contract draft created") {
		t.Fatalf("expected create output, got %s", output)
	}

	output, err = run("list")
	if err != nil {
		t.Fatalf("list command failed: %v", err)
	}
	if !strings.Contains(output, "C-1") {
		t.Fatalf("expected list output to contain contract number, got %s", output)
	}

	output, err = run("get", "--contract-id", testContractID)
	if err != nil {
		t.Fatalf("get command failed: %v", err)
	}
	if !strings.Contains(output, "Contract details") {
		t.Fatalf("expected get output, got %s", output)
	}

	output, err = run("set", "--contract-id", testContractID, "--role", "landlord", "--data", `{"address":"123 Main St"}`)
	if err != nil {
		t.Fatalf("set landlord-data command failed: %v", err)
	}
	if !strings.Contains(output, "Contract data submitted") {
		t.Fatalf("expected set output, got %s", output)
	}

	output, err = run("set", "--contract-id", testContractID, "--role", "tenant", "--data", `{"employment":"engineer"}`)
	if err != nil {
		t.Fatalf("set tenant-data command failed: %v", err)
	}
	if !strings.Contains(output, "Contract data submitted") {
		t.Fatalf("expected set output, got %s", output)
	}

	output, err = run("sign", "--contract-id", testContractID, "--signature-data", `{"method":"click"}`, "--auth-methods", "password")
	if err != nil {
		t.Fatalf("sign command failed: %v", err)
	}
	if !strings.Contains(output, "Contract signed") {
		t.Fatalf("expected sign output, got %s", output)
	}

	output, err = run("invite", "--contract-id", testContractID, "--tenant-email", "tenant@example.com")
	if err != nil {
		t.Fatalf("invite command failed: %v", err)
	}
	if !strings.Contains(output, "Invitation sent") {
		t.Fatalf("expected invite output, got %s", output)
	}

	output, err = run("cancel", "--contract-id", testContractID, "--reason", "changed mind")
	if err != nil {
		t.Fatalf("cancel command failed: %v", err)
	}
	if !strings.Contains(output, "Contract cancelled") {
		t.Fatalf("expected cancel output, got %s", output)
	}
}
