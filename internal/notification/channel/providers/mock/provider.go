// Package mock provides an in-memory channel.Provider for tests and for
// the in_app channel, whose "delivery" is simply a persisted row the
// recipient already owns rather than an outbound call.
package mock

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/jaxxstorm/landlord/internal/notification/channel"
)

// Provider records every Send call it receives instead of calling out.
type Provider struct {
	name string

	mu  sync.Mutex
	log []channel.NotificationView
}

func New(name string) *Provider {
	return &Provider{name: name}
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) Send(_ context.Context, _ json.RawMessage, view channel.NotificationView) (*channel.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log = append(p.log, view)
	return &channel.Result{Success: true, ExternalID: uuid.NewString(), SentTo: view.RecipientID}, nil
}

func (p *Provider) ConfigSchema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }

// Sent returns every view this provider has been asked to deliver, for
// test assertions.
func (p *Provider) Sent() []channel.NotificationView {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]channel.NotificationView, len(p.log))
	copy(out, p.log)
	return out
}
