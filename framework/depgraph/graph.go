// Package depgraph holds the dependency graph recorded by the container and
// renders it as Graphviz DOT.
//
// A Graph is a detached snapshot: mutating it never affects the container it
// came from.
package depgraph

import (
	"bufio"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/km-arc/go-injector/framework/typeid"
)

// Graph maps each resolved type to the types its constructor requires.
// Edge lists are deduplicated.
type Graph map[reflect.Type][]reflect.Type

// Nodes returns every type that has a node, sorted by display name.
func (g Graph) Nodes() []reflect.Type {
	out := make([]reflect.Type, 0, len(g))
	for t := range g {
		out = append(out, t)
	}
	sortTypes(out)
	return out
}

// Dependencies returns the direct dependencies of t, sorted by display name.
func (g Graph) Dependencies(t reflect.Type) []reflect.Type {
	deps := slices.Clone(g[t])
	sortTypes(deps)
	return deps
}

// HasEdge reports whether from directly depends on to.
func (g Graph) HasEdge(from, to reflect.Type) bool {
	return slices.Contains(g[from], to)
}

// Lookup finds a node by its display name.
func (g Graph) Lookup(name string) (reflect.Type, bool) {
	for t := range g {
		if typeid.Name(t) == name {
			return t, true
		}
	}
	return nil, false
}

// WriteDOT writes g as a Graphviz digraph: a header, one declaration per
// node, one edge line per node that has dependencies, and a trailer.
//
//	digraph dependencies {
//
//	"app.A";
//	"app.B";
//
//	"app.B" -> {"app.A" };
//
//	}
func WriteDOT(w io.Writer, g Graph) error {
	bw := bufio.NewWriter(w)
	nodes := g.Nodes()

	fmt.Fprint(bw, "digraph dependencies {\n\n")
	for _, t := range nodes {
		fmt.Fprintf(bw, "%s;\n", quote(t))
	}
	fmt.Fprint(bw, "\n")

	for _, t := range nodes {
		deps := g.Dependencies(t)
		if len(deps) == 0 {
			continue
		}
		fmt.Fprintf(bw, "%s -> {", quote(t))
		for _, d := range deps {
			fmt.Fprintf(bw, "%s ", quote(d))
		}
		fmt.Fprint(bw, "};\n")
	}
	fmt.Fprint(bw, "\n}\n")

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("depgraph: write dot: %w", err)
	}
	return nil
}

// String renders g as DOT.
func (g Graph) String() string {
	var sb strings.Builder
	_ = WriteDOT(&sb, g)
	return sb.String()
}

func quote(t reflect.Type) string {
	return strconv.Quote(typeid.Name(t))
}

func sortTypes(ts []reflect.Type) {
	slices.SortFunc(ts, func(a, b reflect.Type) int {
		if c := strings.Compare(typeid.Name(a), typeid.Name(b)); c != 0 {
			return c
		}
		if c := strings.Compare(a.String(), b.String()); c != 0 {
			return c
		}
		// Same short name, different packages.
		return strings.Compare(pkgPath(a), pkgPath(b))
	})
}

// pkgPath returns the import path of t's named element type.
func pkgPath(t reflect.Type) string {
	for t.Name() == "" {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array, reflect.Chan, reflect.Map:
			t = t.Elem()
		default:
			return ""
		}
	}
	return t.PkgPath()
}
