package container

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/km-arc/go-injector/framework/typeid"
)

// Constructor builds one type from an ordered list of arguments.
type Constructor interface {
	// Params lists the parameter types in positional order.
	Params() []reflect.Type
	// Build calls the constructor. len(args) == len(Params()).
	Build(args []reflect.Value) (any, error)
}

// ConstructorSource enumerates the constructors available for a type.
//
// The container only depends on this interface; FuncRegistry is the default
// reflection-based implementation.
type ConstructorSource interface {
	Constructors(t reflect.Type) []Constructor
}

var errorType = typeid.Of[error]()

// FuncRegistry is a ConstructorSource backed by factory functions.
//
// A factory is any non-variadic func whose first result is the constructed
// type, optionally followed by an error:
//
//	func NewMailer(cfg *config.Config) *Mailer
//	func NewRepo(db *sql.DB, log *slog.Logger) (*Repo, error)
//
// It is safe for concurrent use.
type FuncRegistry struct {
	mu    sync.RWMutex
	funcs map[reflect.Type][]Constructor
}

// NewFuncRegistry returns an empty registry.
func NewFuncRegistry() *FuncRegistry {
	return &FuncRegistry{funcs: make(map[reflect.Type][]Constructor)}
}

// Provide registers factory functions. Registering several factories for the
// same type is allowed; the container then prefers the zero-argument one.
// Nothing is registered if any of fns is invalid.
func (r *FuncRegistry) Provide(fns ...any) error {
	ctors := make([]*funcConstructor, 0, len(fns))
	for _, fn := range fns {
		c, err := newFuncConstructor(fn)
		if err != nil {
			return err
		}
		ctors = append(ctors, c)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range ctors {
		r.funcs[c.out] = append(r.funcs[c.out], c)
	}
	return nil
}

// Constructors implements ConstructorSource.
func (r *FuncRegistry) Constructors(t reflect.Type) []Constructor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Constructor(nil), r.funcs[t]...)
}

// Types returns every type with at least one registered factory.
func (r *FuncRegistry) Types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]reflect.Type, 0, len(r.funcs))
	for t := range r.funcs {
		out = append(out, t)
	}
	return out
}

// funcConstructor adapts one factory function to Constructor.
type funcConstructor struct {
	fn        reflect.Value
	params    []reflect.Type
	out       reflect.Type
	returnErr bool
}

func newFuncConstructor(fn any) (*funcConstructor, error) {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return nil, fmt.Errorf("%w: %T is not a function", ErrInvalidConstructor, fn)
	}
	ft := v.Type()
	if ft.IsVariadic() {
		return nil, fmt.Errorf("%w: %s is variadic", ErrInvalidConstructor, ft)
	}
	switch {
	case ft.NumOut() == 1:
	case ft.NumOut() == 2 && ft.Out(1) == errorType:
	default:
		return nil, fmt.Errorf("%w: %s must return T or (T, error)", ErrInvalidConstructor, ft)
	}
	if ft.Out(0) == errorType {
		return nil, fmt.Errorf("%w: %s constructs an error", ErrInvalidConstructor, ft)
	}

	params := make([]reflect.Type, ft.NumIn())
	for i := range params {
		params[i] = ft.In(i)
	}
	return &funcConstructor{
		fn:        v,
		params:    params,
		out:       ft.Out(0),
		returnErr: ft.NumOut() == 2,
	}, nil
}

func (c *funcConstructor) Params() []reflect.Type {
	return append([]reflect.Type(nil), c.params...)
}

// Build checks argument types before calling so that a mismatch is an error
// rather than a reflect panic. Panics inside the factory are recovered.
func (c *funcConstructor) Build(args []reflect.Value) (instance any, err error) {
	if len(args) != len(c.params) {
		return nil, fmt.Errorf("got %d arguments, want %d", len(args), len(c.params))
	}
	for i, a := range args {
		if !a.IsValid() {
			args[i] = reflect.Zero(c.params[i])
			continue
		}
		if !a.Type().AssignableTo(c.params[i]) {
			return nil, fmt.Errorf("argument %d: %s is not assignable to %s",
				i, typeid.Name(a.Type()), typeid.Name(c.params[i]))
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			instance = nil
			err = fmt.Errorf("%w: %v", ErrConstructorPanic, rec)
		}
	}()

	out := c.fn.Call(args)
	if c.returnErr {
		if e, _ := out[1].Interface().(error); e != nil {
			return nil, e
		}
	}
	return out[0].Interface(), nil
}
