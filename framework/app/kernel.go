package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/km-arc/go-injector/framework/config"
	"github.com/km-arc/go-injector/framework/container"
	"github.com/km-arc/go-injector/framework/logging"
	"github.com/km-arc/go-injector/framework/providers"
	"github.com/km-arc/go-injector/framework/routing"
	"github.com/km-arc/go-injector/framework/telemetry"
)

// Application is the top-level application container.
// It embeds the Container and ProviderRegistry so user code can call
// app.Provide(), app.Instance(), app.Register() directly.
type Application struct {
	*container.Container
	Providers *container.ProviderRegistry

	cfg      *config.Config
	logger   *slog.Logger
	shutdown func(context.Context) error

	shutdownOnce sync.Once
	shutdownErr  error
}

// New loads configuration, sets up logging and tracing, and registers the
// framework providers. If New fails after tracing is set up, the tracer
// provider is shut down before returning.
func New(ctx context.Context, envFiles ...string) (_ *Application, err error) {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		return nil, err
	}
	shutdown, err := telemetry.Setup(ctx, cfg, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("app: telemetry: %w", err)
	}
	defer func() {
		if err != nil {
			_ = shutdown(context.WithoutCancel(ctx))
		}
	}()

	c := container.New(container.WithLogger(logger))
	// Bind the container to itself so services can depend on it.
	if err := c.Instance(c); err != nil {
		return nil, err
	}

	app := &Application{
		Container: c,
		Providers: container.NewProviderRegistry(c),
		cfg:       cfg,
		logger:    logger,
		shutdown:  shutdown,
	}

	for _, p := range []container.ServiceProvider{
		&providers.ConfigServiceProvider{Config: cfg},
		&providers.LoggingServiceProvider{Logger: logger},
		&providers.RoutingServiceProvider{},
		&providers.DebugServiceProvider{},
	} {
		if err := app.Register(p); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Register adds a ServiceProvider to the application.
func (a *Application) Register(provider container.ServiceProvider) error {
	return a.Providers.Register(provider)
}

// Boot runs the Boot() phase on all providers.
func (a *Application) Boot() error {
	return a.Providers.Boot()
}

// Config returns the loaded configuration.
func (a *Application) Config() *config.Config { return a.cfg }

// Logger returns the process logger.
func (a *Application) Logger() *slog.Logger { return a.logger }

// Router resolves *routing.Router from the container.
func (a *Application) Router() (*routing.Router, error) {
	return container.Resolve[*routing.Router](a.Container)
}

// Shutdown flushes and stops tracing. Only the first call does any work;
// later calls return its result. Run calls it on the way out.
func (a *Application) Shutdown(ctx context.Context) error {
	a.shutdownOnce.Do(func() {
		if err := a.shutdown(ctx); err != nil {
			a.shutdownErr = fmt.Errorf("app: telemetry shutdown: %w", err)
		}
	})
	return a.shutdownErr
}

// Run boots the application (if needed), writes the dependency graph when
// INJECTOR_GRAPH_FILE is set, and serves diagnostics on INJECTOR_DEBUG_ADDR
// until ctx is cancelled. Without a debug address it returns after boot.
func (a *Application) Run(ctx context.Context) (err error) {
	defer func() {
		if serr := a.Shutdown(context.WithoutCancel(ctx)); serr != nil && err == nil {
			err = serr
		}
	}()

	if !a.Providers.Booted() {
		if err := a.Boot(); err != nil {
			return err
		}
	}

	if a.cfg.Graph.File != "" {
		if err := a.SaveGraph(a.cfg.Graph.File); err != nil {
			return err
		}
	}

	if a.cfg.Debug.Addr == "" {
		return nil
	}
	return a.serve(ctx)
}

func (a *Application) serve(ctx context.Context) error {
	router, err := a.Router()
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              a.cfg.Debug.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("debug server listening", "addr", srv.Addr, "app", a.cfg.App.Name, "env", a.cfg.App.Env)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("app: debug server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("app: debug server shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("app: debug server: %w", err)
	}
	return nil
}

// Environment returns APP_ENV value.
func (a *Application) Environment() string { return a.cfg.App.Env }
func (a *Application) IsLocal() bool       { return a.Environment() == "local" }
func (a *Application) IsProduction() bool  { return a.cfg.IsProduction() }
func (a *Application) IsTesting() bool     { return a.Environment() == "testing" }
