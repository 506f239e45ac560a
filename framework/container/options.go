package container

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// Option configures a Container.
type Option func(*Container)

// WithConstructors adds a ConstructorSource consulted after the container's
// own FuncRegistry. Constructors from every source count towards the
// single/ambiguous selection policy.
func WithConstructors(src ConstructorSource) Option {
	return func(c *Container) {
		if src != nil {
			c.sources = append(c.sources, src)
		}
	}
}

// WithLogger sets the logger used for construction events. The default
// discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Container) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTracer sets the tracer that records one span per construction. The
// default comes from the global otel TracerProvider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Container) {
		if t != nil {
			c.tracer = t
		}
	}
}
