package container

import (
	"context"
	"fmt"

	"github.com/km-arc/go-injector/framework/typeid"
)

// Resolve is the typed form of Make.
//
//	svc, err := container.Resolve[*UserService](c)
func Resolve[T any](c *Container, extra ...any) (T, error) {
	return ResolveContext[T](context.Background(), c, extra...)
}

// ResolveContext is the typed form of MakeContext.
func ResolveContext[T any](ctx context.Context, c *Container, extra ...any) (T, error) {
	var zero T
	inst, err := c.MakeContext(ctx, typeid.Of[T](), extra...)
	if err != nil {
		return zero, err
	}
	return as[T](inst)
}

// MustResolve is like Resolve but panics on failure. Meant for composition
// roots where a wiring mistake should stop the process.
func MustResolve[T any](c *Container, extra ...any) T {
	v, err := Resolve[T](c, extra...)
	if err != nil {
		panic(err)
	}
	return v
}

// ExistingOf is the typed form of Existing.
func ExistingOf[T any](c *Container) (T, bool) {
	var zero T
	inst, ok := c.Existing(typeid.Of[T]())
	if !ok {
		return zero, false
	}
	v, err := as[T](inst)
	return v, err == nil
}

// InstanceOf seeds the cache under T, which may be an interface type.
//
//	container.InstanceOf[io.Writer](c, os.Stdout)
func InstanceOf[T any](c *Container, v T) error {
	return c.InstanceAs(typeid.Of[T](), v)
}

// ForgetOf is the typed form of Forget.
func ForgetOf[T any](c *Container) {
	c.Forget(typeid.Of[T]())
}

func as[T any](inst any) (T, error) {
	var zero T
	if inst == nil {
		return zero, nil
	}
	v, ok := inst.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s resolved to %T", ErrInstanceType, typeid.Name(typeid.Of[T]()), inst)
	}
	return v, nil
}
