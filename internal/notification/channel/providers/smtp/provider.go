// Package smtp implements the email channel.Provider over net/smtp.
//
// The pack carries no dedicated transactional-email SDK (SendGrid,
// Postmark, ...); the spec's external-port boundary (§6) names real
// providers only as configuration the adapter talks to, not a library
// this module must import. A stdlib net/smtp client is the minimal
// adapter surface needed to exercise the email channel port end to end.
package smtp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"

	"github.com/jaxxstorm/landlord/internal/notification/channel"
)

// Config is the per-channel connection configuration stored alongside a
// NotificationPreference or a channel registration.
type Config struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

// Provider sends email over SMTP using net/smtp's PlainAuth.
type Provider struct {
	dial func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New() *Provider {
	return &Provider{dial: smtp.SendMail}
}

func (p *Provider) Name() string { return "email" }

func (p *Provider) Send(_ context.Context, configJSON json.RawMessage, view channel.NotificationView) (*channel.Result, error) {
	var cfg Config
	if len(configJSON) > 0 {
		if err := json.Unmarshal(configJSON, &cfg); err != nil {
			return nil, fmt.Errorf("smtp: invalid config: %w", err)
		}
	}
	if view.RecipientEmail == "" {
		return &channel.Result{Success: false, Error: "recipient has no email address on file"}, nil
	}

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	body := fmt.Sprintf("Subject: %s\r\n\r\n%s", view.Title, view.Message)

	if err := p.dial(addr, auth, cfg.From, []string{view.RecipientEmail}, []byte(body)); err != nil {
		return &channel.Result{Success: false, Error: err.Error()}, nil
	}
	return &channel.Result{Success: true, SentTo: view.RecipientEmail}, nil
}

func (p *Provider) ConfigSchema() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"required": ["host", "port", "from"],
		"properties": {
			"host": {"type": "string"},
			"port": {"type": "integer"},
			"username": {"type": "string"},
			"password": {"type": "string"},
			"from": {"type": "string"}
		}
	}`)
}
