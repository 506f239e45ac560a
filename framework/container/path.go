package container

import (
	"reflect"
	"slices"
)

// path is the chain of types being constructed by one top-level resolution.
// Each call tree owns its own path, so concurrent callers never share one.
type path struct {
	types []reflect.Type
}

func (p *path) contains(t reflect.Type) bool {
	return slices.Contains(p.types, t)
}

func (p *path) push(t reflect.Type) {
	p.types = append(p.types, t)
}

// pop removes the tail. Callers defer it right after push so that failures
// unwind the path as well.
func (p *path) pop() {
	p.types = p.types[:len(p.types)-1]
}

// snapshot copies the current chain for error reporting.
func (p *path) snapshot() []reflect.Type {
	return slices.Clone(p.types)
}

func (p *path) depth() int {
	return len(p.types)
}
