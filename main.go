package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/km-arc/go-injector/framework/app"
	"github.com/km-arc/go-injector/framework/config"
	"github.com/km-arc/go-injector/framework/container"
	"github.com/km-arc/go-injector/framework/typeid"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	application, err := app.New(ctx) // loads .env automatically
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Shutdown(context.WithoutCancel(ctx)); err != nil {
			application.Logger().Error("shutdown", "error", err)
		}
	}()
	if err := application.Register(&AppServiceProvider{}); err != nil {
		return err
	}
	if err := application.Boot(); err != nil {
		return err
	}

	users, err := container.Resolve[*UserService](application.Container)
	if err != nil {
		return err
	}
	users.Welcome("alice@example.com")

	return application.Run(ctx)
}

// ── Example services ──────────────────────────────────────────────────────────

// Clock is seeded rather than constructed, so tests can swap it.
type Clock interface{ Now() time.Time }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

type UserStore struct {
	users map[string]time.Time
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]time.Time)}
}

type Mailer struct {
	from   string
	logger *slog.Logger
}

func NewMailer(cfg *config.Config, logger *slog.Logger) *Mailer {
	return &Mailer{from: "noreply@" + cfg.App.Name, logger: logger}
}

func (m *Mailer) Send(to, subject string) {
	m.logger.Info("mail sent", "from", m.from, "to", to, "subject", subject)
}

type UserService struct {
	store  *UserStore
	mailer *Mailer
	clock  Clock
}

func NewUserService(store *UserStore, mailer *Mailer, clock Clock) *UserService {
	return &UserService{store: store, mailer: mailer, clock: clock}
}

func (s *UserService) Welcome(email string) {
	s.store.users[email] = s.clock.Now()
	s.mailer.Send(email, "Welcome!")
}

// AppServiceProvider wires the example services.
type AppServiceProvider struct {
	container.BaseProvider
}

func (p *AppServiceProvider) Register(c *container.Container) error {
	if err := container.InstanceOf[Clock](c, systemClock{}); err != nil {
		return err
	}
	return c.Provide(NewUserStore, NewMailer, NewUserService)
}

func (p *AppServiceProvider) Provides() []reflect.Type {
	return []reflect.Type{typeid.Of[*UserService]()}
}
