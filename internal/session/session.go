// Package session defines the identity collaborator contract. The store
// adapter treats identities as opaque tokens; resolving and refreshing them
// belongs to an external provider.
package session

import "sync"

// Identity is an opaque authenticated-user token.
type Identity string

// Provider exposes the current identity and identity-change notifications.
type Provider interface {
	// CurrentIdentity returns the resolved identity, or ok=false when no
	// user is signed in.
	CurrentIdentity() (Identity, bool)
	// Subscribe registers a listener for identity changes. A sign-out is
	// delivered as the empty identity. The returned function removes the
	// listener.
	Subscribe(func(Identity)) (unsubscribe func())
}

// StaticProvider is a Provider whose identity changes only through explicit
// SignIn/SignOut calls. It backs tests and single-user deployments.
type StaticProvider struct {
	mu        sync.Mutex
	identity  Identity
	nextSub   int
	listeners map[int]func(Identity)
}

// NewStaticProvider creates a StaticProvider, optionally pre-signed-in.
func NewStaticProvider(identity Identity) *StaticProvider {
	return &StaticProvider{
		identity:  identity,
		listeners: make(map[int]func(Identity)),
	}
}

// CurrentIdentity returns the signed-in identity, if any.
func (p *StaticProvider) CurrentIdentity() (Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.identity, p.identity != ""
}

// Subscribe registers a listener for identity changes.
func (p *StaticProvider) Subscribe(fn func(Identity)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextSub
	p.nextSub++
	p.listeners[id] = fn
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.listeners, id)
	}
}

// SignIn resolves the provider to the given identity and notifies listeners.
func (p *StaticProvider) SignIn(identity Identity) {
	p.set(identity)
}

// SignOut clears the identity and notifies listeners.
func (p *StaticProvider) SignOut() {
	p.set("")
}

func (p *StaticProvider) set(identity Identity) {
	p.mu.Lock()
	if p.identity == identity {
		p.mu.Unlock()
		return
	}
	p.identity = identity
	listeners := make([]func(Identity), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()

	// Notify outside the lock so listeners may call back in.
	for _, fn := range listeners {
		fn(identity)
	}
}
