package container

import (
	"fmt"
	"reflect"
)

// ── ServiceProvider interface ─────────────────────────────────────────────────

// ServiceProvider groups the registrations of one part of an application.
//
//	type StorageProvider struct{ container.BaseProvider }
//
//	func (p *StorageProvider) Register(c *container.Container) error {
//	    return c.Provide(storage.Open, storage.NewRepository)
//	}
//
//	func (p *StorageProvider) Provides() []reflect.Type {
//	    return []reflect.Type{typeid.Of[*storage.Repository]()}
//	}
type ServiceProvider interface {
	// Register adds constructors and seeded instances to the container.
	// Do NOT resolve services here; other providers may not be registered yet.
	Register(c *Container) error

	// Boot is called after all providers are registered.
	// Safe to resolve any service here.
	Boot(c *Container) error

	// Provides lists the types this provider makes available. Unless the
	// provider is deferred, ProviderRegistry.Boot resolves them eagerly so
	// wiring mistakes surface at startup.
	Provides() []reflect.Type

	// IsDeferred returns true if Provides() should stay lazy and only be
	// constructed on first Make.
	IsDeferred() bool
}

// ── BaseProvider ──────────────────────────────────────────────────────────────

// BaseProvider is an embeddable struct that provides no-op implementations
// of Boot(), Provides(), and IsDeferred().
// Embed it in your provider and only override what you need.
type BaseProvider struct{}

func (p *BaseProvider) Boot(_ *Container) error  { return nil }
func (p *BaseProvider) Provides() []reflect.Type { return nil }
func (p *BaseProvider) IsDeferred() bool         { return false }

// ── ProviderRegistry ──────────────────────────────────────────────────────────

// ProviderRegistry manages registration and booting of ServiceProviders.
// It is meant to be driven from a single goroutine during startup.
type ProviderRegistry struct {
	app        *Container
	providers  []ServiceProvider
	registered map[ServiceProvider]bool
	hooked     map[ServiceProvider]bool // Boot hook has succeeded
	booted     bool
}

// NewProviderRegistry creates a registry bound to app.
func NewProviderRegistry(app *Container) *ProviderRegistry {
	return &ProviderRegistry{
		app:        app,
		registered: make(map[ServiceProvider]bool),
		hooked:     make(map[ServiceProvider]bool),
	}
}

// Register calls provider.Register once; registering the same provider again
// is a no-op. A provider registered after Boot is booted immediately.
func (r *ProviderRegistry) Register(provider ServiceProvider) error {
	if r.registered[provider] {
		return nil
	}
	if err := provider.Register(r.app); err != nil {
		return fmt.Errorf("container: register %T: %w", provider, err)
	}
	r.registered[provider] = true
	r.providers = append(r.providers, provider)

	if !r.booted {
		return nil
	}
	if err := r.hook(provider); err != nil {
		return err
	}
	return r.warm(provider)
}

// Boot runs in two passes. First every provider's Boot hook, in registration
// order; then the Provides() types of non-deferred providers are resolved.
// An eager type may therefore depend on an instance that a later provider
// seeds in its hook.
//
// Boot stops at the first failure. A retry skips hooks that already
// succeeded. Calling Boot again after success is a no-op.
func (r *ProviderRegistry) Boot() error {
	if r.booted {
		return nil
	}
	for _, provider := range r.providers {
		if err := r.hook(provider); err != nil {
			return err
		}
	}
	for _, provider := range r.providers {
		if err := r.warm(provider); err != nil {
			return err
		}
	}
	r.booted = true
	return nil
}

func (r *ProviderRegistry) hook(provider ServiceProvider) error {
	if r.hooked[provider] {
		return nil
	}
	if err := provider.Boot(r.app); err != nil {
		return fmt.Errorf("container: boot %T: %w", provider, err)
	}
	r.hooked[provider] = true
	return nil
}

func (r *ProviderRegistry) warm(provider ServiceProvider) error {
	if provider.IsDeferred() {
		return nil
	}
	for _, t := range provider.Provides() {
		if _, err := r.app.Make(t); err != nil {
			return fmt.Errorf("container: boot %T: %w", provider, err)
		}
	}
	return nil
}

// Booted returns true once Boot() has succeeded.
func (r *ProviderRegistry) Booted() bool { return r.booted }

// Providers returns the registered providers in registration order.
func (r *ProviderRegistry) Providers() []ServiceProvider {
	return append([]ServiceProvider(nil), r.providers...)
}
