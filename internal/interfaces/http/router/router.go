package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/minegocio/backend/internal/domain/identity"
)

// Guards turns route declarations into middleware. A nil field leaves the
// matching declaration unenforced, which is how unit tests mount groups.
type Guards struct {
	Capability  func(identity.Action) gin.HandlerFunc
	Idempotency gin.HandlerFunc
}

// RouteRegistrar is anything that can mount its routes on an API group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup, guards Guards)
}

// Router mounts registrars under /api/<version>
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
	middleware []gin.HandlerFunc
	guards     Guards
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion sets the version segment of the API prefix
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithGuards sets how route capabilities and idempotency are enforced
func WithGuards(g Guards) RouterOption {
	return func(r *Router) {
		r.guards = g
	}
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware applied to every versioned API route
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.middleware = append(r.middleware, middleware...)
	return r
}

func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Prefix is the path every registrar is mounted under
func (r *Router) Prefix() string {
	return "/api/" + r.apiVersion
}

// Setup mounts all registrars. Call it once, after every Register.
func (r *Router) Setup() {
	api := r.engine.Group(r.Prefix())
	if len(r.middleware) > 0 {
		api.Use(r.middleware...)
	}
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api, r.guards)
	}
}

// Route is one declared endpoint. Capability and Idempotent are applied by
// the Guards at registration time, before the handler chain.
type Route struct {
	Method     string
	Path       string
	Capability identity.Action
	Idempotent bool
	handlers   []gin.HandlerFunc
}

// Requires restricts the route to actors holding action
func (rt *Route) Requires(action identity.Action) *Route {
	rt.Capability = action
	return rt
}

// WithIdempotency lets clients replay the route with an Idempotency-Key
func (rt *Route) WithIdempotency() *Route {
	rt.Idempotent = true
	return rt
}

// chain puts capability before idempotency so a forbidden caller never
// reserves a key
func (rt *Route) chain(groupCapability identity.Action, g Guards) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(rt.handlers)+2)
	if capability := rt.effectiveCapability(groupCapability); capability != "" && g.Capability != nil {
		out = append(out, g.Capability(capability))
	}
	if rt.Idempotent && g.Idempotency != nil {
		out = append(out, g.Idempotency)
	}
	return append(out, rt.handlers...)
}

func (rt *Route) effectiveCapability(groupCapability identity.Action) identity.Action {
	if rt.Capability != "" {
		return rt.Capability
	}
	return groupCapability
}

// DomainGroup collects the routes of one area (sales, reports...) under a
// prefix
type DomainGroup struct {
	name       string
	prefix     string
	capability identity.Action
	routes     []*Route
	subgroups  []*DomainGroup
	middleware []gin.HandlerFunc
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds plain middleware to this group
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

// Requires sets the capability for every route in the group that does not
// declare its own. Subgroups do not inherit it.
func (dg *DomainGroup) Requires(action identity.Action) *DomainGroup {
	dg.capability = action
	return dg
}

func (dg *DomainGroup) Handle(method, p string, handlers ...gin.HandlerFunc) *Route {
	rt := &Route{Method: method, Path: p, handlers: handlers}
	dg.routes = append(dg.routes, rt)
	return rt
}

func (dg *DomainGroup) GET(p string, handlers ...gin.HandlerFunc) *Route {
	return dg.Handle(http.MethodGet, p, handlers...)
}

func (dg *DomainGroup) POST(p string, handlers ...gin.HandlerFunc) *Route {
	return dg.Handle(http.MethodPost, p, handlers...)
}

func (dg *DomainGroup) PUT(p string, handlers ...gin.HandlerFunc) *Route {
	return dg.Handle(http.MethodPut, p, handlers...)
}

func (dg *DomainGroup) PATCH(p string, handlers ...gin.HandlerFunc) *Route {
	return dg.Handle(http.MethodPatch, p, handlers...)
}

func (dg *DomainGroup) DELETE(p string, handlers ...gin.HandlerFunc) *Route {
	return dg.Handle(http.MethodDelete, p, handlers...)
}

// Group creates a sub-group nested under this group's prefix
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	sub := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, sub)
	return sub
}

func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup, guards Guards) {
	group := rg.Group(dg.prefix)
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}
	for _, rt := range dg.routes {
		group.Handle(rt.Method, rt.Path, rt.chain(dg.capability, guards)...)
	}
	for _, sub := range dg.subgroups {
		sub.RegisterRoutes(group, guards)
	}
}

// Routes lists the group's routes, subgroups included, with full paths
// relative to the API prefix and the capability that will be enforced.
func (dg *DomainGroup) Routes() []Route {
	var out []Route
	for _, rt := range dg.routes {
		out = append(out, Route{
			Method:     rt.Method,
			Path:       joinPath(dg.prefix, rt.Path),
			Capability: rt.effectiveCapability(dg.capability),
			Idempotent: rt.Idempotent,
		})
	}
	for _, sub := range dg.subgroups {
		for _, rt := range sub.Routes() {
			rt.Path = joinPath(dg.prefix, rt.Path)
			out = append(out, rt)
		}
	}
	return out
}

func (dg *DomainGroup) Name() string {
	return dg.name
}

func (dg *DomainGroup) Prefix() string {
	return dg.prefix
}

func joinPath(prefix, p string) string {
	if p == "" {
		if prefix == "" {
			return "/"
		}
		return prefix
	}
	return path.Join("/", prefix, p)
}
