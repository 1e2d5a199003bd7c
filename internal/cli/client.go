package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jaxxstorm/landlord/internal/apiversion"
	"github.com/jaxxstorm/landlord/internal/contract"
	"github.com/jaxxstorm/landlord/internal/invitation"
)

// Client is a thin HTTP client for the Landlord API, used by the CLI.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient builds a Client against baseURL, attaching token as a bearer
// credential on every request when non-empty.
func NewClient(baseURL, token string) *Client {
	baseURL = apiversion.NormalizeBaseURL(baseURL)
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type createDraftRequest struct {
	PropertyID   uuid.UUID `json:"property_id"`
	ContractType string    `json:"contract_type"`
}

// CreateDraft creates a new contract draft.
func (c *Client) CreateDraft(ctx context.Context, propertyID uuid.UUID, contractType string) (*contract.Contract, error) {
	var out contract.Contract
	if err := c.do(ctx, http.MethodPost, "/contracts", createDraftRequest{PropertyID: propertyID, ContractType: contractType}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetContract fetches a contract by id.
func (c *Client) GetContract(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	var out contract.Contract
	if err := c.do(ctx, http.MethodGet, "/contracts/"+id.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListContracts lists contracts visible to the authenticated caller.
func (c *Client) ListContracts(ctx context.Context) ([]*contract.Contract, error) {
	var out []*contract.Contract
	if err := c.do(ctx, http.MethodGet, "/contracts", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type completeLandlordDataRequest struct {
	LandlordData  contract.JSONMap `json:"landlord_data"`
	EconomicTerms contract.JSONMap `json:"economic_terms"`
	ContractTerms contract.JSONMap `json:"contract_terms"`
}

// CompleteLandlordData submits the landlord's half of a contract.
func (c *Client) CompleteLandlordData(ctx context.Context, id uuid.UUID, landlordData, economicTerms, contractTerms contract.JSONMap) (*contract.Contract, error) {
	var out contract.Contract
	req := completeLandlordDataRequest{LandlordData: landlordData, EconomicTerms: economicTerms, ContractTerms: contractTerms}
	if err := c.do(ctx, http.MethodPost, "/contracts/"+id.String()+"/landlord-data", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type completeTenantDataRequest struct {
	TenantData contract.JSONMap `json:"tenant_data"`
}

// CompleteTenantData submits the tenant's half of a contract.
func (c *Client) CompleteTenantData(ctx context.Context, id uuid.UUID, tenantData contract.JSONMap) (*contract.Contract, error) {
	var out contract.Contract
	if err := c.do(ctx, http.MethodPost, "/contracts/"+id.String()+"/tenant-data", completeTenantDataRequest{TenantData: tenantData}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ApproveContract records the caller's approval of the current draft.
func (c *Client) ApproveContract(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	var out contract.Contract
	if err := c.do(ctx, http.MethodPost, "/contracts/"+id.String()+"/approve", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type cancelContractRequest struct {
	Reason string `json:"reason"`
}

// CancelContract cancels a contract, recording reason.
func (c *Client) CancelContract(ctx context.Context, id uuid.UUID, reason string) (*contract.Contract, error) {
	var out contract.Contract
	if err := c.do(ctx, http.MethodPost, "/contracts/"+id.String()+"/cancel", cancelContractRequest{Reason: reason}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type signContractRequest struct {
	SignatureData contract.JSONMap `json:"signature_data"`
	AuthMethods   []string         `json:"auth_methods"`
}

// SignContract records the caller's signature.
func (c *Client) SignContract(ctx context.Context, id uuid.UUID, signatureData contract.JSONMap, authMethods []string) (*contract.Contract, error) {
	var out contract.Contract
	req := signContractRequest{SignatureData: signatureData, AuthMethods: authMethods}
	if err := c.do(ctx, http.MethodPost, "/contracts/"+id.String()+"/sign", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PublishContract publishes a fully-signed contract.
func (c *Client) PublishContract(ctx context.Context, id uuid.UUID) (*contract.Contract, error) {
	var out contract.Contract
	if err := c.do(ctx, http.MethodPost, "/contracts/"+id.String()+"/publish", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type sendInvitationRequest struct {
	TenantEmail string `json:"tenant_email"`
	TenantName  string `json:"tenant_name"`
}

type invitationTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// SendInvitation invites a tenant to a contract, returning the plaintext
// token exactly once.
func (c *Client) SendInvitation(ctx context.Context, id uuid.UUID, tenantEmail, tenantName string) (*invitationTokenResponse, error) {
	var out invitationTokenResponse
	req := sendInvitationRequest{TenantEmail: tenantEmail, TenantName: tenantName}
	if err := c.do(ctx, http.MethodPost, "/contracts/"+id.String()+"/invitations", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type acceptInvitationRequest struct {
	Token       string `json:"token"`
	TenantEmail string `json:"tenant_email"`
}

// AcceptInvitation accepts an invitation token on behalf of the
// authenticated caller.
func (c *Client) AcceptInvitation(ctx context.Context, token, tenantEmail string) (*contract.Contract, error) {
	var out contract.Contract
	req := acceptInvitationRequest{Token: token, TenantEmail: tenantEmail}
	if err := c.do(ctx, http.MethodPost, "/invitations/accept", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyInvitation returns the public, pre-acceptance view of a token.
func (c *Client) VerifyInvitation(ctx context.Context, token string) (*invitation.PublicView, error) {
	var out invitation.PublicView
	if err := c.do(ctx, http.MethodGet, "/invitations/verify?token="+token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	url := c.baseURL + path

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := handleErrorResponse(resp); err != nil {
		return err
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type apiErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func handleErrorResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	body, _ := io.ReadAll(resp.Body)
	if len(body) == 0 {
		return fmt.Errorf("api error: status %d", resp.StatusCode)
	}

	var apiErr apiErrorBody
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return fmt.Errorf("api error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if apiErr.Message != "" {
		return fmt.Errorf("api error: %s: %s", apiErr.Code, apiErr.Message)
	}

	return fmt.Errorf("api error: status %d", resp.StatusCode)
}
