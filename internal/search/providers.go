// Package search queries external paper sources and merges their results.
package search

import (
	"context"
	"errors"
	"sync"

	"github.com/airesearchhub/research-hub/internal/core/domain"
)

type ProviderName string

const (
	ProviderSemanticScholar ProviderName = "semantic_scholar"
	ProviderArxiv           ProviderName = "arxiv"
)

var (
	errNoProvidersAvailable = errors.New("no providers available")
	errProviderNotFound     = errors.New("provider not found")
)

// Provider is a single external paper search source.
type Provider interface {
	Name() ProviderName
	Search(ctx context.Context, query string, maxResults int) ([]domain.Paper, error)
	IsAvailable() bool
}

// ProviderRegistry holds the configured providers in registration order
// and tracks a circuit breaker per provider.
type ProviderRegistry struct {
	mu        sync.RWMutex
	providers map[ProviderName]Provider
	order     []ProviderName

	circuitBreakers map[ProviderName]*circuitBreaker
}

func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{
		providers:       make(map[ProviderName]Provider),
		order:           []ProviderName{},
		circuitBreakers: make(map[ProviderName]*circuitBreaker),
	}
}

func (r *ProviderRegistry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	r.providers[name] = p
	r.order = append(r.order, name)
	r.circuitBreakers[name] = newCircuitBreaker()
}

func (r *ProviderRegistry) Get(name ProviderName) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, errProviderNotFound
	}

	return p, nil
}

// Select resolves requested source names to usable providers, keeping
// registration order. Unknown names are ignored; an empty request
// selects every registered provider.
func (r *ProviderRegistry) Select(names []ProviderName) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	requested := make(map[ProviderName]bool, len(names))
	for _, name := range names {
		requested[name] = true
	}

	selected := []Provider{}

	for _, name := range r.order {
		if len(names) > 0 && !requested[name] {
			continue
		}

		p := r.providers[name]
		if p.IsAvailable() && r.circuitBreakers[name].canAttempt() {
			selected = append(selected, p)
		}
	}

	return selected
}

// AvailableProviders lists providers that are configured and whose
// circuit breaker admits requests.
func (r *ProviderRegistry) AvailableProviders() []ProviderName {
	r.mu.RLock()
	defer r.mu.RUnlock()

	available := []ProviderName{}

	for _, name := range r.order {
		p := r.providers[name]
		if p.IsAvailable() && r.circuitBreakers[name].canAttempt() {
			available = append(available, name)
		}
	}

	return available
}

func (r *ProviderRegistry) getCircuitBreaker(name ProviderName) *circuitBreaker {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.circuitBreakers[name]
}
