package restate_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"github.com/jaxxstorm/landlord/internal/config"
	"github.com/jaxxstorm/landlord/internal/contract"
	contractmemory "github.com/jaxxstorm/landlord/internal/contract/memory"
	"github.com/jaxxstorm/landlord/internal/signing"
	"github.com/jaxxstorm/landlord/internal/workflow/providers/restate"
)

func readyToSignContract(t *testing.T, contracts *contract.Service, repo *contractmemory.Repository, landlord, tenant uuid.UUID) *contract.Contract {
	t.Helper()
	c, err := contracts.CreateDraft(context.Background(), landlord, uuid.New(), contract.TypeRentalUrban, contract.HistoryMetadata{})
	requireNoError(t, err, "create draft")
	c.TenantID = &tenant
	c.CurrentState = contract.StatusReadyToSign
	c.ContractTerms = contract.JSONMap{"lease_duration_months": 12}
	c.EconomicTerms = contract.JSONMap{"monthly_rent": "1500000", "security_deposit": "1500000"}
	c.TenantApproved = true
	c.LandlordApproved = true
	requireNoError(t, repo.UpdateContract(context.Background(), c), "save draft")
	return c
}

func TestRestateSigningSagaExecutesStepsInOrder(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	repo := contractmemory.New()
	contracts := contract.NewService(repo, nil, nil, logger)
	signingSvc := signing.NewService(contracts, nil, nil, logger)
	service := restate.NewSigningSagaService(signingSvc, logger)

	landlord, tenant := uuid.New(), uuid.New()
	c := readyToSignContract(t, contracts, repo, landlord, tenant)

	_, err := service.Execute(ctx, &restate.SigningSagaRequest{
		TenantUUID: c.ID.String(),
		Operation:  "sign",
		DesiredConfig: map[string]interface{}{
			"user_id":        tenant.String(),
			"role":           "tenant",
			"signature_data": map[string]interface{}{"timestamp": "2025-03-01T00:00:00Z"},
			"auth_methods":   []string{"password", "factor"},
		},
	})
	requireNoError(t, err, "tenant sign step")

	_, err = service.Execute(ctx, &restate.SigningSagaRequest{
		TenantUUID: c.ID.String(),
		Operation:  "sign",
		DesiredConfig: map[string]interface{}{
			"user_id":        landlord.String(),
			"role":           "landlord",
			"signature_data": map[string]interface{}{"timestamp": "2025-03-01T00:05:00Z"},
			"auth_methods":   []string{"password", "factor"},
		},
	})
	requireNoError(t, err, "landlord sign step")

	_, err = service.Execute(ctx, &restate.SigningSagaRequest{
		TenantUUID: c.ID.String(),
		Operation:  "publish",
		DesiredConfig: map[string]interface{}{
			"user_id": landlord.String(),
		},
	})
	requireNoError(t, err, "publish step")

	published, err := repo.GetContractByID(ctx, c.ID)
	requireNoError(t, err, "fetch published contract")
	if published.CurrentState != contract.StatusPublished {
		t.Fatalf("expected published state, got %s", published.CurrentState)
	}
}

func TestRestateSigningSagaOutOfOrderRejected(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	repo := contractmemory.New()
	contracts := contract.NewService(repo, nil, nil, logger)
	signingSvc := signing.NewService(contracts, nil, nil, logger)
	service := restate.NewSigningSagaService(signingSvc, logger)

	landlord, tenant := uuid.New(), uuid.New()
	c := readyToSignContract(t, contracts, repo, landlord, tenant)

	_, err := service.Execute(ctx, &restate.SigningSagaRequest{
		TenantUUID: c.ID.String(),
		Operation:  "sign",
		DesiredConfig: map[string]interface{}{
			"user_id":        landlord.String(),
			"role":           "landlord",
			"signature_data": map[string]interface{}{"timestamp": "2025-03-01T00:00:00Z"},
		},
	})
	if err == nil {
		t.Fatal("expected out-of-order signing to fail")
	}
}

func TestRestateWorkerLifecycleWithRegistration(t *testing.T) {
	logger := zaptest.NewLogger(t)
	ctx := context.Background()

	server := newFakeRestateServer(t)
	cfg := config.RestateConfig{
		Endpoint:                server.URL(),
		AdminEndpoint:           server.URL(),
		AuthType:                "none",
		WorkerRegisterOnStartup: true,
		WorkerAdvertisedURL:     "http://127.0.0.1:9999",
		Timeout:                 30 * time.Second,
	}

	contracts := contract.NewService(contractmemory.New(), nil, nil, logger)
	signingSvc := signing.NewService(contracts, nil, nil, logger)
	worker, err := restate.NewWorkerEngine(cfg, signingSvc, logger)
	if err != nil {
		t.Fatalf("failed to create worker engine: %v", err)
	}

	if err := worker.Register(ctx); err != nil {
		t.Fatalf("worker registration failed: %v", err)
	}
}

func requireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}
