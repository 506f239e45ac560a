// Package container provides a lazy, type-keyed dependency injection
// container for Go.
//
// # Overview
//
// The container builds services on demand. Asking for a type constructs it,
// first constructing every type its constructor takes as a parameter, and
// caches the result so that each type has exactly one instance for the
// container's lifetime. Cycles in the declared dependencies are reported as
// errors instead of recursing forever, and the container records which type
// required which, for diagnostics.
//
// Go has no constructors, so a constructor is a registered factory function
// whose first result is the type it builds:
//
//	func NewRepository(cfg *config.Config) (*Repository, error)
//	func NewUserService(repo *Repository, mail *Mailer) *UserService
//
// # Container Lifecycle
//
//  1. Create: c := container.New()
//  2. Register constructors: c.Provide(NewRepository, NewMailer, NewUserService)
//  3. Seed pre-built values: c.Instance(cfg)
//  4. Resolve: svc, err := container.Resolve[*UserService](c)
//
// # Resolving
//
//	// Untyped
//	raw, err := c.Make(typeid.Of[*UserService]())
//
//	// Generic (preferred)
//	svc, err := container.Resolve[*UserService](c)
//
//	// Extra arguments fill the trailing parameters of the requested
//	// constructor instead of being resolved.
//	// func NewReport(repo *Repository, title string) *Report
//	report, err := container.Resolve[*Report](c, "weekly")
//
// # Constructor Selection
//
// A type with exactly one constructor uses it. A type with none fails with
// ErrNoConstructor. A type with several uses the one taking no parameters,
// or fails with ErrAmbiguousConstructors when there is none.
//
// # Seeding and Eviction
//
//	c.Instance(cfg)                              // keyed by *config.Config
//	container.InstanceOf[io.Writer](c, os.Stderr) // keyed by an interface
//	c.Forget(typeid.Of[*Mailer]())                 // next Make builds a new one
//
// # Errors
//
// A dependency cycle yields *CycleError; its message shows the chain:
//
//	container: circular dependency detected: *app.A -> *app.B -> *app.A
//
// Every other failure yields *ConstructionError, which carries the type, the
// resolution path and the cause. Nothing is cached for a type whose
// construction failed.
//
// # Concurrency
//
// One mutex guards the cache and the graph for the whole resolution, so a
// type is constructed at most once even under concurrent Make calls.
// Constructors must not call back into the container; they would deadlock.
// Take dependencies as parameters instead.
//
// # Dependency Graph
//
//	c.ExportGraph(os.Stdout)         // Graphviz DOT
//	c.SaveGraph("dependencies.dot")
//
// # Service Providers
//
//	type AppServiceProvider struct{ container.BaseProvider }
//
//	func (p *AppServiceProvider) Register(c *container.Container) error {
//	    return c.Provide(NewMailer, NewUserService)
//	}
//
//	func (p *AppServiceProvider) Provides() []reflect.Type {
//	    return []reflect.Type{typeid.Of[*UserService]()}
//	}
//
//	registry := container.NewProviderRegistry(c)
//	registry.Register(&AppServiceProvider{})
//	registry.Boot() // resolves *UserService eagerly
package container
