package container_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-injector/framework/container"
	"github.com/km-arc/go-injector/framework/typeid"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type (
	A struct{ n int }
	B struct{ A *A }
	C struct{ A *A }
	D struct {
		B *B
		C *C
	}

	cycleA struct{ b *cycleB }
	cycleB struct{ a *cycleA }

	selfRef struct{}

	ambiguous  struct{}
	withDflt   struct{ viaDefault bool }
	orphan     struct{}
	needOrphan struct{ o *orphan }

	report struct {
		A     *A
		Title string
		Pages int
	}

	Box[T any] struct{ v T }
	boxes      struct {
		i *Box[int]
		s *Box[string]
	}
)

func newB(a *A) *B                { return &B{A: a} }
func newC(a *A) *C                { return &C{A: a} }
func newD(b *B, c *C) *D          { return &D{B: b, C: c} }
func newCycleA(b *cycleB) *cycleA { return &cycleA{b: b} }
func newCycleB(a *cycleA) *cycleB { return &cycleB{a: a} }

func newReport(a *A, title string, pages int) *report {
	return &report{A: a, Title: title, Pages: pages}
}

// counting registers a constructor for *A that counts its calls.
func counting(t *testing.T, c *container.Container) *int {
	t.Helper()
	built := new(int)
	require.NoError(t, c.Provide(func() *A {
		*built++
		return &A{n: *built}
	}))
	return built
}

// ── Caching ───────────────────────────────────────────────────────────────────

func TestMake_NoDependencies(t *testing.T) {
	c := container.New()
	built := counting(t, c)

	first, err := container.Resolve[*A](c)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := container.Resolve[*A](c)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, *built)
}

func TestMake_InjectsCachedDependency(t *testing.T) {
	c := container.New()
	built := counting(t, c)
	require.NoError(t, c.Provide(newB))

	b, err := container.Resolve[*B](c)
	require.NoError(t, err)

	a, err := container.Resolve[*A](c)
	require.NoError(t, err)
	assert.Same(t, a, b.A)
	assert.Equal(t, 1, *built)
}

func TestMake_DiamondIsNotACycle(t *testing.T) {
	c := container.New()
	built := counting(t, c)
	require.NoError(t, c.Provide(newB, newC, newD))

	d, err := container.Resolve[*D](c)
	require.NoError(t, err)
	assert.Same(t, d.B.A, d.C.A)
	assert.Equal(t, 1, *built)
}

func TestMake_Untyped(t *testing.T) {
	c := container.New()
	counting(t, c)

	inst, err := c.Make(typeid.Of[*A]())
	require.NoError(t, err)
	assert.IsType(t, &A{}, inst)
}

func TestMake_NilType(t *testing.T) {
	_, err := container.New().Make(nil)
	assert.ErrorIs(t, err, container.ErrNilInstance)
}

// ── Cycles ────────────────────────────────────────────────────────────────────

func TestMake_Cycle(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Provide(newCycleA, newCycleB))

	_, err := container.Resolve[*cycleA](c)
	require.Error(t, err)
	assert.ErrorIs(t, err, container.ErrCycle)

	var cycle *container.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, typeid.Of[*cycleA](), cycle.Type)
	assert.Equal(t, []reflect.Type{typeid.Of[*cycleA](), typeid.Of[*cycleB]()}, cycle.Path)
	assert.Equal(t,
		"container: circular dependency detected: *container_test.cycleA -> *container_test.cycleB -> *container_test.cycleA",
		err.Error())

	assert.False(t, c.Resolved(typeid.Of[*cycleA]()))
	assert.False(t, c.Resolved(typeid.Of[*cycleB]()))
}

func TestMake_SelfCycle(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Provide(func(s *selfRef) *selfRef { return s }))

	_, err := container.Resolve[*selfRef](c)
	var cycle *container.CycleError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []reflect.Type{typeid.Of[*selfRef]()}, cycle.Path)
}

// ── Constructor selection ─────────────────────────────────────────────────────

func TestMake_AmbiguousConstructors(t *testing.T) {
	c := container.New()
	counting(t, c)
	require.NoError(t, c.Provide(newB))
	require.NoError(t, c.Provide(
		func(*A) *ambiguous { return &ambiguous{} },
		func(*B) *ambiguous { return &ambiguous{} },
	))

	_, err := container.Resolve[*ambiguous](c)
	require.ErrorIs(t, err, container.ErrAmbiguousConstructors)
	assert.Contains(t, err.Error(), "ambiguous constructors")

	var ce *container.ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, typeid.Of[*ambiguous](), ce.Type)
}

func TestMake_PrefersZeroArgumentConstructor(t *testing.T) {
	c := container.New()
	counting(t, c)
	require.NoError(t, c.Provide(
		func(*A) *withDflt { return &withDflt{} },
		func() *withDflt { return &withDflt{viaDefault: true} },
	))

	got, err := container.Resolve[*withDflt](c)
	require.NoError(t, err)
	assert.True(t, got.viaDefault)
	assert.False(t, c.Resolved(typeid.Of[*A]()), "the parameterised constructor must not run")
	assert.Empty(t, c.DependencyGraph()[typeid.Of[*withDflt]()])
}

func TestMake_NoConstructor(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Provide(func(o *orphan) *needOrphan { return &needOrphan{o: o} }))

	_, err := container.Resolve[*needOrphan](c)
	require.ErrorIs(t, err, container.ErrNoConstructor)
	assert.Contains(t, err.Error(), "no public constructor")

	var ce *container.ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, typeid.Of[*orphan](), ce.Type)
	assert.Equal(t, []reflect.Type{typeid.Of[*needOrphan](), typeid.Of[*orphan]()}, ce.Path)
	assert.Contains(t, err.Error(), "*container_test.needOrphan -> *container_test.orphan")
}

// ── Construction failures ─────────────────────────────────────────────────────

func TestMake_ConstructorError(t *testing.T) {
	c := container.New()
	boom := errors.New("boom")
	require.NoError(t, c.Provide(func() (*A, error) { return nil, boom }))

	_, err := container.Resolve[*A](c)
	require.ErrorIs(t, err, boom)

	var ce *container.ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, typeid.Of[*A](), ce.Type)
	assert.False(t, c.Resolved(typeid.Of[*A]()))
}

func TestMake_ConstructorPanic(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Provide(func() *A { panic("kaboom") }))

	_, err := container.Resolve[*A](c)
	require.ErrorIs(t, err, container.ErrConstructorPanic)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestMake_PathUnwoundAfterFailure(t *testing.T) {
	c := container.New()
	fail := true
	require.NoError(t, c.Provide(func() (*A, error) {
		if fail {
			return nil, errors.New("not yet")
		}
		return &A{}, nil
	}))
	require.NoError(t, c.Provide(newB))

	_, err := container.Resolve[*B](c)
	require.Error(t, err)
	assert.False(t, c.Resolved(typeid.Of[*B]()))

	fail = false
	b, err := container.Resolve[*B](c)
	require.NoError(t, err, "a stale path entry would surface as a cycle here")
	assert.NotNil(t, b.A)
}

func TestMake_SiblingFailureLeavesNoPartialState(t *testing.T) {
	c := container.New()
	counting(t, c)
	require.NoError(t, c.Provide(newB))
	require.NoError(t, c.Provide(func(b *B, o *orphan) *needOrphan { return &needOrphan{o: o} }))

	_, err := container.Resolve[*needOrphan](c)
	require.ErrorIs(t, err, container.ErrNoConstructor)

	// Siblings that completed stay cached; the failing chain does not.
	assert.True(t, c.Resolved(typeid.Of[*B]()))
	assert.False(t, c.Resolved(typeid.Of[*needOrphan]()))
}

// ── Extra parameters ──────────────────────────────────────────────────────────

func TestMake_ExtraParameters(t *testing.T) {
	c := container.New()
	counting(t, c)
	require.NoError(t, c.Provide(newReport))

	r, err := container.Resolve[*report](c, "weekly", 12)
	require.NoError(t, err)
	assert.Equal(t, "weekly", r.Title)
	assert.Equal(t, 12, r.Pages)
	assert.NotNil(t, r.A)

	g := c.DependencyGraph()
	assert.Equal(t, []reflect.Type{typeid.Of[*A]()}, g[typeid.Of[*report]()])
}

func TestMake_ExtraParameterTypeMismatch(t *testing.T) {
	c := container.New()
	counting(t, c)
	require.NoError(t, c.Provide(newReport))

	_, err := container.Resolve[*report](c, "weekly", "twelve")
	var ce *container.ConstructionError
	require.ErrorAs(t, err, &ce)
	assert.Contains(t, err.Error(), "argument 2")
	assert.False(t, c.Resolved(typeid.Of[*report]()))
}

func TestMake_TooManyExtraParameters(t *testing.T) {
	c := container.New()
	counting(t, c)

	_, err := container.Resolve[*A](c, 1)
	assert.ErrorIs(t, err, container.ErrTooManyArguments)
}

func TestMake_NilExtraBecomesZeroValue(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Provide(func(w io.Writer) *B { return &B{A: &A{n: boolToInt(w == nil)}} }))

	b, err := container.Resolve[*B](c, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, b.A.n)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ── Seeding, lookup and eviction ──────────────────────────────────────────────

func TestInstance_UsedForDependents(t *testing.T) {
	c := container.New()
	built := counting(t, c)
	require.NoError(t, c.Provide(newC))

	seeded := &A{n: 42}
	require.NoError(t, c.Instance(seeded))

	got, err := container.Resolve[*C](c)
	require.NoError(t, err)
	assert.Same(t, seeded, got.A)
	assert.Zero(t, *built)
}

func TestInstance_Nil(t *testing.T) {
	assert.ErrorIs(t, container.New().Instance(nil), container.ErrNilInstance)
}

func TestInstanceAs_InterfaceKey(t *testing.T) {
	c := container.New()
	var buf bytes.Buffer
	require.NoError(t, container.InstanceOf[io.Writer](c, &buf))
	require.NoError(t, c.Provide(func(w io.Writer) *B {
		_, _ = io.WriteString(w, "built")
		return &B{}
	}))

	_, err := container.Resolve[*B](c)
	require.NoError(t, err)
	assert.Equal(t, "built", buf.String())

	w, ok := container.ExistingOf[io.Writer](c)
	require.True(t, ok)
	assert.Same(t, &buf, w)
}

func TestInstanceAs_RejectsMismatch(t *testing.T) {
	c := container.New()
	err := c.InstanceAs(typeid.Of[io.Writer](), &A{})
	assert.ErrorIs(t, err, container.ErrInstanceType)
}

func TestInstance_OverwritesCachedEntry(t *testing.T) {
	c := container.New()
	counting(t, c)
	_, err := container.Resolve[*A](c)
	require.NoError(t, err)

	replacement := &A{n: 99}
	require.NoError(t, c.Instance(replacement))

	got, err := container.Resolve[*A](c)
	require.NoError(t, err)
	assert.Same(t, replacement, got)
}

func TestExisting_NeverConstructs(t *testing.T) {
	c := container.New()
	built := counting(t, c)

	_, ok := c.Existing(typeid.Of[*A]())
	assert.False(t, ok)
	_, ok = container.ExistingOf[*A](c)
	assert.False(t, ok)
	assert.Zero(t, *built)
	assert.Empty(t, c.DependencyGraph())
}

func TestForget_RebuildsInstance(t *testing.T) {
	c := container.New()
	built := counting(t, c)

	first, err := container.Resolve[*A](c)
	require.NoError(t, err)

	container.ForgetOf[*A](c)
	assert.False(t, c.Resolved(typeid.Of[*A]()))

	second, err := container.Resolve[*A](c)
	require.NoError(t, err)
	assert.NotSame(t, first, second)
	assert.Equal(t, 2, *built)
}

func TestForget_KeepsGraphNode(t *testing.T) {
	c := container.New()
	counting(t, c)
	require.NoError(t, c.Provide(newB))

	_, err := container.Resolve[*B](c)
	require.NoError(t, err)

	c.Forget(typeid.Of[*B]())
	g := c.DependencyGraph()
	assert.True(t, g.HasEdge(typeid.Of[*B](), typeid.Of[*A]()))

	_, err = container.Resolve[*B](c)
	require.NoError(t, err)
	assert.Len(t, c.DependencyGraph()[typeid.Of[*B]()], 1, "edges must not duplicate")
}

func TestServices_Sorted(t *testing.T) {
	c := container.New()
	counting(t, c)
	require.NoError(t, c.Provide(newB))
	_, err := container.Resolve[*B](c)
	require.NoError(t, err)

	assert.Equal(t, []reflect.Type{typeid.Of[*A](), typeid.Of[*B]()}, c.Services())
}

func TestMustResolve_Panics(t *testing.T) {
	c := container.New()
	assert.Panics(t, func() { container.MustResolve[*orphan](c) })
}

// ── Graph export ──────────────────────────────────────────────────────────────

func TestExportGraph(t *testing.T) {
	c := container.New()
	counting(t, c)
	require.NoError(t, c.Provide(newB))
	_, err := container.Resolve[*B](c)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.ExportGraph(&buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "digraph dependencies {"))
	assert.Contains(t, out, "\"*container_test.A\";\n")
	assert.Contains(t, out, "\"*container_test.B\";\n")
	assert.Contains(t, out, "\"*container_test.B\" -> {\"*container_test.A\" };")
	assert.NotContains(t, out, "\"*container_test.A\" -> {")
}

func TestExportGraph_GenericInstantiationsAreSeparateNodes(t *testing.T) {
	c := container.New()
	require.NoError(t, c.Provide(
		func() *Box[int] { return &Box[int]{v: 1} },
		func() *Box[string] { return &Box[string]{v: "x"} },
		func(i *Box[int], s *Box[string]) *boxes { return &boxes{i: i, s: s} },
	))
	_, err := container.Resolve[*boxes](c)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, c.ExportGraph(&buf))
	out := buf.String()

	assert.Contains(t, out, "\"*container_test.Box[int]\";\n")
	assert.Contains(t, out, "\"*container_test.Box[string]\";\n")
	assert.Contains(t, out, "\"*container_test.boxes\" -> {\"*container_test.Box[int]\" \"*container_test.Box[string]\" };")
}

func TestDependencyGraph_IsACopy(t *testing.T) {
	c := container.New()
	counting(t, c)
	require.NoError(t, c.Provide(newB))
	_, err := container.Resolve[*B](c)
	require.NoError(t, err)

	g := c.DependencyGraph()
	delete(g, typeid.Of[*B]())
	assert.Contains(t, c.DependencyGraph(), typeid.Of[*B]())
}

func TestSaveGraph(t *testing.T) {
	c := container.New()
	counting(t, c)
	require.NoError(t, c.Provide(newB))
	_, err := container.Resolve[*B](c)
	require.NoError(t, err)

	name := filepath.Join(t.TempDir(), "deps.dot")
	require.NoError(t, c.SaveGraph(name))

	data, err := os.ReadFile(name)
	require.NoError(t, err)
	assert.Contains(t, string(data), "-> {\"*container_test.A\" };")
}

func TestSaveGraph_BadPath(t *testing.T) {
	err := container.New().SaveGraph(filepath.Join(t.TempDir(), "missing", "deps.dot"))
	assert.Error(t, err)
}
