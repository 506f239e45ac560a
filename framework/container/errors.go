package container

import (
	"errors"
	"reflect"
	"slices"
	"strings"

	"github.com/km-arc/go-injector/framework/typeid"
)

// Sentinel errors. Resolution failures are reported as *CycleError or
// *ConstructionError; use errors.Is against these to classify the cause.
var (
	// ErrCycle matches every *CycleError.
	ErrCycle = errors.New("container: circular dependency")

	// ErrNoConstructor is the cause when no constructor is registered for a type.
	ErrNoConstructor = errors.New("no public constructor")

	// ErrAmbiguousConstructors is the cause when several constructors are
	// registered for a type and none of them takes zero parameters.
	ErrAmbiguousConstructors = errors.New("ambiguous constructors, no default")

	// ErrInvalidConstructor is returned by FuncRegistry.Provide for values that
	// are not usable factory functions.
	ErrInvalidConstructor = errors.New("container: invalid constructor")

	// ErrTooManyArguments is the cause when a caller supplies more extra
	// arguments than the constructor has parameters.
	ErrTooManyArguments = errors.New("more extra arguments than constructor parameters")

	// ErrConstructorPanic is the cause when a constructor panics.
	ErrConstructorPanic = errors.New("constructor panicked")

	// ErrNilInstance is returned when seeding the cache with a nil value or
	// a nil type.
	ErrNilInstance = errors.New("container: nil instance")

	// ErrInstanceType is returned when a value is not assignable to the
	// type it is cached under: by InstanceAs, or wrapped in a
	// *ConstructionError when a constructor returns the wrong type.
	ErrInstanceType = errors.New("container: instance type mismatch")
)

// CycleError reports a type requested while it is already being constructed
// further up the same resolution.
type CycleError struct {
	// Path is the chain of in-progress resolutions, outermost first.
	Path []reflect.Type
	// Type closes the cycle; it is also present somewhere in Path.
	Type reflect.Type
}

// Error implements the error interface.
//
//	container: circular dependency detected: app.A -> app.B -> app.A
func (e *CycleError) Error() string {
	return "container: circular dependency detected: " + formatPath(append(slices.Clone(e.Path), e.Type))
}

// Is lets errors.Is(err, ErrCycle) match.
func (e *CycleError) Is(target error) bool { return target == ErrCycle }

// ConstructionError reports a type that could not be built.
type ConstructionError struct {
	// Type is the type that failed.
	Type reflect.Type
	// Path is the resolution chain at the time of failure, ending with Type.
	Path []reflect.Type
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
//
//	container: cannot construct *app.Mailer: no public constructor (path: *app.Service -> *app.Mailer)
func (e *ConstructionError) Error() string {
	return "container: cannot construct " + typeid.Name(e.Type) + ": " + e.Err.Error() +
		" (path: " + formatPath(e.Path) + ")"
}

// Unwrap returns the cause.
func (e *ConstructionError) Unwrap() error { return e.Err }

func formatPath(ts []reflect.Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = typeid.Name(t)
	}
	return strings.Join(parts, " -> ")
}
