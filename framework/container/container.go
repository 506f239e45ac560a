package container

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"slices"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/km-arc/go-injector/framework/depgraph"
	"github.com/km-arc/go-injector/framework/typeid"
)

const instrumentationName = "github.com/km-arc/go-injector/framework/container"

// Container lazily constructs services by type and keeps one instance of
// each for its whole lifetime.
//
// Every operation holds a single mutex for its full duration, including the
// whole recursive resolution behind Make. Constructors therefore must not
// call back into the container that is building them; they receive their
// dependencies as parameters.
type Container struct {
	mu sync.Mutex

	// type → constructed or seeded instance
	instances map[reflect.Type]any

	// type → set of types its constructor required on first resolution
	graph map[reflect.Type]map[reflect.Type]struct{}

	funcs   *FuncRegistry
	sources []ConstructorSource

	logger *slog.Logger
	tracer trace.Tracer
}

// New creates an empty container.
func New(opts ...Option) *Container {
	funcs := NewFuncRegistry()
	c := &Container{
		instances: make(map[reflect.Type]any),
		graph:     make(map[reflect.Type]map[reflect.Type]struct{}),
		funcs:     funcs,
		sources:   []ConstructorSource{funcs},
		logger:    slog.New(slog.DiscardHandler),
		tracer:    otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ── Registration ──────────────────────────────────────────────────────────────

// Provide registers factory functions with the container's FuncRegistry.
//
//	c.Provide(NewConfig, NewRepository, NewUserService)
func (c *Container) Provide(fns ...any) error {
	return c.funcs.Provide(fns...)
}

// Instance seeds the cache with v, keyed by v's dynamic type. Later
// resolutions that need that type receive v instead of constructing one.
//
//	c.Instance(cfg) // cfg is *config.Config
func (c *Container) Instance(v any) error {
	if v == nil {
		return ErrNilInstance
	}
	return c.InstanceAs(reflect.TypeOf(v), v)
}

// InstanceAs seeds the cache with v under key t, which is usually an
// interface v implements.
//
//	c.InstanceAs(typeid.Of[io.Writer](), os.Stdout)
func (c *Container) InstanceAs(t reflect.Type, v any) error {
	if t == nil || v == nil {
		return ErrNilInstance
	}
	if vt := reflect.TypeOf(v); !vt.AssignableTo(t) {
		return fmt.Errorf("%w: %s is not assignable to %s", ErrInstanceType, typeid.Name(vt), typeid.Name(t))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.instances[t] = v
	return nil
}

// ── Resolution ────────────────────────────────────────────────────────────────

// Make returns the instance for t, constructing it and its dependencies on
// first use. extra values fill the trailing constructor parameters of t
// itself instead of being resolved; they are ignored when t is already
// cached.
//
// Failures are *CycleError or *ConstructionError.
func (c *Container) Make(t reflect.Type, extra ...any) (any, error) {
	return c.MakeContext(context.Background(), t, extra...)
}

// MakeContext is Make with ctx as the parent of the construction spans.
func (c *Container) MakeContext(ctx context.Context, t reflect.Type, extra ...any) (any, error) {
	if t == nil {
		return nil, ErrNilInstance
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resolve(ctx, t, &path{}, extra)
}

// resolve is the recursive resolver (must hold mu).
func (c *Container) resolve(ctx context.Context, t reflect.Type, p *path, extra []any) (any, error) {
	// A cached type is never a cycle, even when reached again through a diamond.
	if inst, ok := c.instances[t]; ok {
		return inst, nil
	}

	if p.contains(t) {
		err := &CycleError{Path: p.snapshot(), Type: t}
		c.logger.Warn("circular dependency", "type", typeid.Name(t), "error", err)
		return nil, err
	}

	p.push(t)
	defer p.pop()

	ctx, span := c.tracer.Start(ctx, "container.construct", trace.WithAttributes(
		attribute.String("container.type", typeid.Name(t)),
		attribute.Int("container.depth", p.depth()),
	))
	defer span.End()

	inst, err := c.construct(ctx, t, p, extra)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	c.instances[t] = inst
	c.logger.Debug("constructed service", "type", typeid.Name(t), "depth", p.depth())
	return inst, nil
}

// construct selects t's constructor, records its graph edges, resolves its
// parameters and calls it. t is on top of p.
func (c *Container) construct(ctx context.Context, t reflect.Type, p *path, extra []any) (any, error) {
	ctor, err := c.constructorFor(t)
	if err != nil {
		return nil, c.constructionError(t, p, err)
	}

	params := ctor.Params()
	if len(extra) > len(params) {
		return nil, c.constructionError(t, p, ErrTooManyArguments)
	}
	resolved := len(params) - len(extra)

	c.recordEdges(t, params[:resolved])

	args := make([]reflect.Value, len(params))
	for i, pt := range params[:resolved] {
		dep, err := c.resolve(ctx, pt, p, nil)
		if err != nil {
			return nil, err
		}
		args[i] = valueFor(dep)
	}
	for i, x := range extra {
		args[resolved+i] = valueFor(x)
	}

	inst, err := ctor.Build(args)
	if err != nil {
		return nil, c.constructionError(t, p, err)
	}
	if inst != nil {
		if vt := reflect.TypeOf(inst); !vt.AssignableTo(t) {
			return nil, c.constructionError(t, p, fmt.Errorf("%w: constructor returned %s", ErrInstanceType, typeid.Name(vt)))
		}
	}
	return inst, nil
}

// constructorFor applies the selection policy: the only constructor, or the
// zero-parameter one among several.
func (c *Container) constructorFor(t reflect.Type) (Constructor, error) {
	var ctors []Constructor
	for _, src := range c.sources {
		ctors = append(ctors, src.Constructors(t)...)
	}

	switch len(ctors) {
	case 0:
		return nil, ErrNoConstructor
	case 1:
		return ctors[0], nil
	}
	for _, ctor := range ctors {
		if len(ctor.Params()) == 0 {
			return ctor, nil
		}
	}
	return nil, ErrAmbiguousConstructors
}

// recordEdges adds t → dep for each dep. Edges accumulate in a set, so
// repeated recording of the same constructor is a no-op.
func (c *Container) recordEdges(t reflect.Type, deps []reflect.Type) {
	node, ok := c.graph[t]
	if !ok {
		node = make(map[reflect.Type]struct{}, len(deps))
		c.graph[t] = node
	}
	for _, d := range deps {
		node[d] = struct{}{}
	}
}

func (c *Container) constructionError(t reflect.Type, p *path, cause error) error {
	err := &ConstructionError{Type: t, Path: p.snapshot(), Err: cause}
	c.logger.Warn("construction failed", "type", typeid.Name(t), "error", err)
	return err
}

// valueFor turns a cached instance or extra argument into a call argument.
// nil becomes the invalid Value, which Build replaces with the zero value.
func valueFor(v any) reflect.Value {
	if v == nil {
		return reflect.Value{}
	}
	return reflect.ValueOf(v)
}

// ── Cache access ──────────────────────────────────────────────────────────────

// Existing returns the cached instance for t without constructing anything.
func (c *Container) Existing(t reflect.Type) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inst, ok := c.instances[t]
	return inst, ok
}

// Resolved reports whether t has a cached instance.
func (c *Container) Resolved(t reflect.Type) bool {
	_, ok := c.Existing(t)
	return ok
}

// Forget evicts t from the cache; the next Make constructs a new instance.
// The dependency graph keeps t's node: it records first-resolution topology
// and re-resolving t adds the same edges again.
func (c *Container) Forget(t reflect.Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.instances, t)
}

// Services returns the cached types, sorted by name (for debugging).
func (c *Container) Services() []reflect.Type {
	c.mu.Lock()
	out := make([]reflect.Type, 0, len(c.instances))
	for t := range c.instances {
		out = append(out, t)
	}
	c.mu.Unlock()

	slices.SortFunc(out, func(a, b reflect.Type) int {
		return strings.Compare(typeid.Name(a), typeid.Name(b))
	})
	return out
}

// ── Dependency graph ──────────────────────────────────────────────────────────

// DependencyGraph returns a copy of the recorded graph.
func (c *Container) DependencyGraph() depgraph.Graph {
	c.mu.Lock()
	defer c.mu.Unlock()

	g := make(depgraph.Graph, len(c.graph))
	for t, deps := range c.graph {
		edges := make([]reflect.Type, 0, len(deps))
		for d := range deps {
			edges = append(edges, d)
		}
		g[t] = edges
	}
	return g
}

// ExportGraph writes the dependency graph to w as Graphviz DOT.
func (c *Container) ExportGraph(w io.Writer) error {
	return depgraph.WriteDOT(w, c.DependencyGraph())
}

// SaveGraph writes the dependency graph to the file at name.
func (c *Container) SaveGraph(name string) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("container: save graph: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("container: save graph: %w", cerr)
		}
	}()

	if err := c.ExportGraph(f); err != nil {
		return err
	}
	c.logger.Info("dependency graph saved", "file", name)
	return nil
}
