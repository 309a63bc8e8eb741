// Package oauth performs the third-party side of federated login: building
// the consent redirect and exchanging the callback code for a verified
// identity assertion. It makes no account decisions; the federation resolver
// owns those.
package oauth

import (
	"context"
	"fmt"
	"strings"
)

// Identity is the assertion a provider returns after a successful exchange.
// Only ProviderID and Email are trusted downstream.
type Identity struct {
	Provider   string
	ProviderID string
	Email      string
}

// Provider is one configured third-party identity provider.
type Provider interface {
	// Name returns the provider label stored on accounts (e.g. "Google").
	Name() string
	// AuthCodeURL returns the consent-page redirect for the given state.
	AuthCodeURL(state string) string
	// Exchange trades the callback code for the asserted identity.
	Exchange(ctx context.Context, code string) (Identity, error)
}

// Registry holds configured providers keyed by lower-cased path segment.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(list ...Provider) *Registry {
	m := make(map[string]Provider, len(list))
	for _, p := range list {
		m[strings.ToLower(p.Name())] = p
	}
	return &Registry{providers: m}
}

// Get resolves a provider by its URL path segment ("google", "kakao").
func (r *Registry) Get(name string) (Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown oauth provider: %s", name)
	}
	return p, nil
}
