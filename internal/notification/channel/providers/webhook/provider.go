// Package webhook implements a generic outbound-HTTP channel.Provider:
// POST a JSON payload, optionally bearer-authenticated. It stands in for
// every push/SMS backend the spec names only at its external-port
// boundary (§6, Twilio / AWS SNS / FCM / OneSignal) without pulling
// their SDKs into this module.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jaxxstorm/landlord/internal/notification/channel"
)

// Config carries the destination URL and optional bearer token.
type Config struct {
	URL         string `json:"url"`
	BearerToken string `json:"bearer_token,omitempty"`
}

// Provider POSTs a JSON envelope to a configured webhook URL.
type Provider struct {
	name       string
	httpClient *http.Client
}

func New(name string) *Provider {
	return &Provider{name: name, httpClient: &http.Client{Timeout: 10 * time.Second}}
}

type payload struct {
	NotificationID string                 `json:"notification_id"`
	RecipientID    string                 `json:"recipient_id"`
	Title          string                 `json:"title"`
	Message        string                 `json:"message"`
	ActionURL      string                 `json:"action_url,omitempty"`
	DeepLink       string                 `json:"deep_link,omitempty"`
	Data           map[string]interface{} `json:"data,omitempty"`
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) Send(ctx context.Context, configJSON json.RawMessage, view channel.NotificationView) (*channel.Result, error) {
	var cfg Config
	if err := json.Unmarshal(configJSON, &cfg); err != nil {
		return nil, fmt.Errorf("webhook: invalid config: %w", err)
	}
	if cfg.URL == "" {
		return &channel.Result{Success: false, Error: "webhook URL not configured"}, nil
	}

	body, err := json.Marshal(payload{
		NotificationID: view.NotificationID,
		RecipientID:    view.RecipientID,
		Title:          view.Title,
		Message:        view.Message,
		ActionURL:      view.ActionURL,
		DeepLink:       view.DeepLink,
		Data:           view.Data,
	})
	if err != nil {
		return nil, fmt.Errorf("webhook: encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.BearerToken)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return &channel.Result{Success: false, Error: err.Error()}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &channel.Result{Success: false, Error: fmt.Sprintf("webhook returned status %d", resp.StatusCode)}, nil
	}
	return &channel.Result{Success: true, SentTo: cfg.URL}, nil
}

func (p *Provider) ConfigSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"required": ["url"],
		"properties": {
			"url": {"type": "string"},
			"bearer_token": {"type": "string"}
		}
	}`)
}
