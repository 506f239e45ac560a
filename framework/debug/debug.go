// Package debug exposes the container's dependency graph and instance cache
// over HTTP.
//
//	GET /debug/container/graph            Graphviz DOT
//	GET /debug/container/services         every known type
//	GET /debug/container/services/{name}  one type, by display name
package debug

import (
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/km-arc/go-injector/framework/container"
	"github.com/km-arc/go-injector/framework/depgraph"
	gohttp "github.com/km-arc/go-injector/framework/http"
	"github.com/km-arc/go-injector/framework/routing"
	"github.com/km-arc/go-injector/framework/typeid"
)

// Prefix is where Register mounts the handlers.
const Prefix = "/debug/container"

// Service describes one type known to the container.
type Service struct {
	Type         string   `json:"type"`
	Resolved     bool     `json:"resolved"`
	Dependencies []string `json:"dependencies"`
}

// Handlers serves diagnostics for one container.
type Handlers struct {
	c *container.Container
}

// NewHandlers returns handlers reading from c.
func NewHandlers(c *container.Container) *Handlers {
	return &Handlers{c: c}
}

// Register mounts the handlers under Prefix. Responses are never cached.
func (h *Handlers) Register(r *routing.Router) {
	r.Prefix(Prefix, func(d *routing.Router) {
		d.Middleware(middleware.NoCache)
		d.Get("/graph", h.Graph)
		d.Get("/services", h.Services)
		d.Get("/services/{name}", h.Service)
	})
}

// Graph writes the dependency graph as DOT.
func (h *Handlers) Graph(w http.ResponseWriter, _ *http.Request) {
	res := gohttp.NewResponse(w)
	var sb strings.Builder
	if err := h.c.ExportGraph(&sb); err != nil {
		res.ServerError(err.Error())
		return
	}
	res.Text(http.StatusOK, "text/vnd.graphviz; charset=utf-8", sb.String())
}

// Services lists graph nodes and cached instances, sorted by type name.
func (h *Handlers) Services(w http.ResponseWriter, _ *http.Request) {
	gohttp.NewResponse(w).Success(h.snapshot())
}

// Service returns the entry whose type name matches the {name} parameter.
func (h *Handlers) Service(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	name, err := url.PathUnescape(routing.Param(r, "name"))
	if err != nil {
		res.Error(http.StatusBadRequest, "invalid service name")
		return
	}
	g := h.graph()
	t, ok := g.Lookup(name)
	if !ok {
		res.NotFound("Unknown service " + name + ".")
		return
	}
	res.Success(h.service(g, t))
}

// graph is the dependency graph plus a dependency-free node for every cached
// type that was seeded rather than constructed.
func (h *Handlers) graph() depgraph.Graph {
	g := h.c.DependencyGraph()
	for _, t := range h.c.Services() {
		if _, ok := g[t]; !ok {
			g[t] = nil
		}
	}
	return g
}

func (h *Handlers) snapshot() []Service {
	g := h.graph()
	nodes := g.Nodes()
	out := make([]Service, 0, len(nodes))
	for _, t := range nodes {
		out = append(out, h.service(g, t))
	}
	return out
}

func (h *Handlers) service(g depgraph.Graph, t reflect.Type) Service {
	deps := g.Dependencies(t)
	names := make([]string, len(deps))
	for i, d := range deps {
		names[i] = typeid.Name(d)
	}
	return Service{
		Type:         typeid.Name(t),
		Resolved:     h.c.Resolved(t),
		Dependencies: names,
	}
}
