package channel

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Registry manages registered channel providers.
type Registry struct {
	providers map[string]Provider
	mu        sync.RWMutex
	logger    *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		providers: make(map[string]Provider),
		logger:    logger.With(zap.String("component", "channel-registry")),
	}
}

// Register adds a provider to the registry. Returns ErrProviderConflict
// if the channel name is already registered.
func (r *Registry) Register(provider Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := provider.Name()
	if name == "" {
		return fmt.Errorf("provider name cannot be empty")
	}
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("%w: %s", ErrProviderConflict, name)
	}
	r.providers[name] = provider
	r.logger.Info("registered channel provider", zap.String("channel", name))
	return nil
}

// Get retrieves a provider by channel name.
func (r *Registry) Get(channelType string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, exists := r.providers[channelType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, channelType)
	}
	return provider, nil
}

// List returns names of all registered providers.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}

// Has checks if a provider is registered.
func (r *Registry) Has(channelType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.providers[channelType]
	return exists
}
