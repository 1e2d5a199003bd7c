package restate

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	restate "github.com/restatedev/sdk-go"
	"github.com/restatedev/sdk-go/server"
	"go.uber.org/zap"

	"github.com/jaxxstorm/landlord/internal/config"
	"github.com/jaxxstorm/landlord/internal/contract"
	"github.com/jaxxstorm/landlord/internal/signing"
	"github.com/jaxxstorm/landlord/internal/workflow"
)

// SigningSagaService is the Restate service hosting §4.7's ordered
// signature capture: tenant -> guarantor? -> landlord, then the
// landlord-only publish. Each step is a durable Restate invocation keyed
// by contract id, so a crash mid-saga resumes from the last completed
// step instead of re-running signature capture from scratch.
type SigningSagaService struct {
	signing *signing.Service
	logger  *zap.Logger
}

// SigningSagaRequest is the input for one saga step. It reuses the
// generic ProvisionRequest envelope: TenantUUID/TenantID carries the
// contract id, Operation selects "sign" or "publish", and DesiredConfig
// carries the step's own payload (role, signer id, signature data, the
// auth methods presented).
type SigningSagaRequest = workflow.ProvisionRequest

// NewSigningSagaService builds the Restate-hosted signing saga service.
func NewSigningSagaService(signingSvc *signing.Service, logger *zap.Logger) *SigningSagaService {
	return &SigningSagaService{
		signing: signingSvc,
		logger:  logger.With(zap.String("component", "signing-saga-service")),
	}
}

// Execute handles one saga step against a contract.
func (s *SigningSagaService) Execute(ctx context.Context, req *SigningSagaRequest) (*workflow.ExecutionStatus, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}

	contractIDStr := req.TenantUUID
	if contractIDStr == "" {
		contractIDStr = req.TenantID
	}
	contractID, err := uuid.Parse(contractIDStr)
	if err != nil {
		return nil, fmt.Errorf("contract id is required and must be a uuid: %w", err)
	}

	operation := req.Operation
	if operation == "" {
		operation = "sign"
	}

	s.logger.Info("executing signing saga step",
		zap.String("contract_id", contractID.String()),
		zap.String("operation", operation),
	)

	switch operation {
	case "sign":
		return s.sign(ctx, contractID, req.DesiredConfig)
	case "publish":
		return s.publish(ctx, contractID, req.DesiredConfig)
	default:
		return nil, fmt.Errorf("unknown operation: %s", operation)
	}
}

type signStepPayload struct {
	UserID        string                 `json:"user_id"`
	Role          string                 `json:"role"`
	SignatureData map[string]interface{} `json:"signature_data"`
	AuthMethods   []string               `json:"auth_methods"`
	IP            string                 `json:"ip"`
	UserAgent     string                 `json:"user_agent"`
}

func decodeStepPayload(raw map[string]interface{}) (*signStepPayload, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal step payload: %w", err)
	}
	var p signStepPayload
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode step payload: %w", err)
	}
	return &p, nil
}

func (s *SigningSagaService) sign(ctx context.Context, contractID uuid.UUID, raw map[string]interface{}) (*workflow.ExecutionStatus, error) {
	p, err := decodeStepPayload(raw)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		return nil, fmt.Errorf("user id is required and must be a uuid: %w", err)
	}

	methods := make([]signing.AuthMethod, 0, len(p.AuthMethods))
	for _, m := range p.AuthMethods {
		methods = append(methods, signing.AuthMethod(m))
	}

	updated, err := s.signing.Sign(ctx, contractID, userID, contract.Role(p.Role), contract.JSONMap(p.SignatureData), methods, contract.HistoryMetadata{
		IP:        p.IP,
		UserAgent: p.UserAgent,
	})
	if err != nil {
		s.logger.Error("signing step failed", zap.String("contract_id", contractID.String()), zap.String("role", p.Role), zap.Error(err))
		return nil, fmt.Errorf("sign step failed: %w", err)
	}

	output, err := json.Marshal(map[string]string{
		"contract_id":   contractID.String(),
		"current_state": string(updated.CurrentState),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal output: %w", err)
	}

	return &workflow.ExecutionStatus{
		ExecutionID:  fmt.Sprintf("sign-%s-%s", contractID, p.Role),
		ProviderType: "restate",
		State:        workflow.StateSucceeded,
		Output:       output,
	}, nil
}

func (s *SigningSagaService) publish(ctx context.Context, contractID uuid.UUID, raw map[string]interface{}) (*workflow.ExecutionStatus, error) {
	p, err := decodeStepPayload(raw)
	if err != nil {
		return nil, err
	}
	landlordID, err := uuid.Parse(p.UserID)
	if err != nil {
		return nil, fmt.Errorf("landlord id is required and must be a uuid: %w", err)
	}

	updated, err := s.signing.Publish(ctx, contractID, landlordID, contract.HistoryMetadata{
		IP:        p.IP,
		UserAgent: p.UserAgent,
	})
	if err != nil {
		s.logger.Error("publish step failed", zap.String("contract_id", contractID.String()), zap.Error(err))
		return nil, fmt.Errorf("publish step failed: %w", err)
	}

	output, err := json.Marshal(map[string]string{
		"contract_id": contractID.String(),
		"start_date":  updated.StartDate.Format("2006-01-02"),
		"end_date":    updated.EndDate.Format("2006-01-02"),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal output: %w", err)
	}

	return &workflow.ExecutionStatus{
		ExecutionID:  fmt.Sprintf("publish-%s", contractID),
		ProviderType: "restate",
		State:        workflow.StateSucceeded,
		Output:       output,
	}, nil
}

// RegisterService registers the signing saga service with Restate.
func (s *SigningSagaService) RegisterService(ctx context.Context, client *Client, serviceName string) error {
	if serviceName == "" {
		serviceName = workflowServiceName(config.RestateConfig{}, signingSagaWorkflowID)
	}
	return client.RegisterService(ctx, serviceName)
}

// Bind registers the signing saga handlers with a Restate server.
func (s *SigningSagaService) Bind(server *server.Restate, serviceName string) {
	if serviceName == "" {
		serviceName = workflowServiceName(config.RestateConfig{}, signingSagaWorkflowID)
	}

	server.Bind(
		restate.NewService(serviceName).
			Handler("execute", restate.NewServiceHandler(func(_ restate.Context, req SigningSagaRequest) (workflow.ExecutionStatus, error) {
				status, err := s.Execute(context.Background(), &req)
				if err != nil {
					return workflow.ExecutionStatus{}, err
				}
				if status == nil {
					return workflow.ExecutionStatus{}, nil
				}
				return *status, nil
			})),
	)
}
