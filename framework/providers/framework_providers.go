package providers

import (
	"log/slog"
	"reflect"

	"github.com/km-arc/go-injector/framework/config"
	"github.com/km-arc/go-injector/framework/container"
	"github.com/km-arc/go-injector/framework/debug"
	"github.com/km-arc/go-injector/framework/routing"
	"github.com/km-arc/go-injector/framework/typeid"
)

// ── ConfigServiceProvider ─────────────────────────────────────────────────────

// ConfigServiceProvider seeds the loaded configuration.
//
// Seeded types:
//   - *config.Config
type ConfigServiceProvider struct {
	container.BaseProvider
	Config *config.Config
}

func (p *ConfigServiceProvider) Register(c *container.Container) error {
	return c.Instance(p.Config)
}

// ── LoggingServiceProvider ────────────────────────────────────────────────────

// LoggingServiceProvider seeds the process logger.
//
// Seeded types:
//   - *slog.Logger
type LoggingServiceProvider struct {
	container.BaseProvider
	Logger *slog.Logger
}

func (p *LoggingServiceProvider) Register(c *container.Container) error {
	return c.Instance(p.Logger)
}

// ── RoutingServiceProvider ────────────────────────────────────────────────────

// RoutingServiceProvider registers the HTTP router. The router is only built
// when something needs it.
//
// Provided types:
//   - *routing.Router  (needs *slog.Logger)
type RoutingServiceProvider struct {
	container.BaseProvider
}

func (p *RoutingServiceProvider) Register(c *container.Container) error {
	return c.Provide(routing.New)
}

func (p *RoutingServiceProvider) Provides() []reflect.Type {
	return []reflect.Type{typeid.Of[*routing.Router]()}
}

func (p *RoutingServiceProvider) IsDeferred() bool { return true }

// ── DebugServiceProvider ──────────────────────────────────────────────────────

// DebugServiceProvider mounts the container diagnostics on the router when
// INJECTOR_DEBUG_ADDR is set.
//
// Provided types:
//   - *debug.Handlers  (needs *container.Container)
type DebugServiceProvider struct {
	container.BaseProvider
}

func (p *DebugServiceProvider) Register(c *container.Container) error {
	return c.Provide(debug.NewHandlers)
}

func (p *DebugServiceProvider) Boot(c *container.Container) error {
	cfg, err := container.Resolve[*config.Config](c)
	if err != nil {
		return err
	}
	if cfg.Debug.Addr == "" {
		return nil
	}

	h, err := container.Resolve[*debug.Handlers](c)
	if err != nil {
		return err
	}
	r, err := container.Resolve[*routing.Router](c)
	if err != nil {
		return err
	}
	h.Register(r)
	return nil
}
