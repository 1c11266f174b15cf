// Package chirouter adapts chi router to use case handlers with documented routes.
package chirouter

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/rest-openapi"
	"github.com/swaggest/rest-openapi/nethttp"
	"github.com/swaggest/rest-openapi/openapi"
)

// NewWrapper creates router that keeps handler wraps and route information.
func NewWrapper(r chi.Router) *Wrapper {
	return &Wrapper{Router: r}
}

// Wrapper is a chi.Router that applies handler wraps once per route and accepts route rules with
// converters, e.g. "/pets/<int:id>" is routed as "/pets/{id:[0-9]+}".
//
// Handlers added with Wrapper know their method and full pattern, see rest.HandlerWithRoute.
type Wrapper struct {
	chi.Router

	// prefix is a pattern of parent routers, it is a part of route pattern of handlers.
	prefix string

	middlewares []func(http.Handler) http.Handler
	wraps       []func(http.Handler) http.Handler
	routed      []http.Handler
}

var _ chi.Router = &Wrapper{}

// routedGroup is implemented by Wrapper to expose its handlers to parent router on Mount.
type routedGroup interface {
	routedHandlers() []http.Handler
	handlerWraps() []func(http.Handler) http.Handler
}

func (r *Wrapper) sub(router chi.Router, pattern string) *Wrapper {
	return &Wrapper{
		Router:      router,
		prefix:      r.prefix + pattern,
		middlewares: r.middlewares,
		wraps:       r.wraps,
	}
}

// Wrap adds handler wraps.
//
// Unlike middlewares, wraps are applied once when a route is added, so they can inspect
// the handler with nethttp.HandlerAs and configure it, e.g. set up request decoder or
// collect documentation. Middlewares that affect routing must be added with Use.
func (r *Wrapper) Wrap(wraps ...func(handler http.Handler) http.Handler) {
	r.wraps = append(r.wraps, wraps...)
}

// Use adds middlewares, handler wraps among them are applied as with Wrap.
func (r *Wrapper) Use(middlewares ...func(http.Handler) http.Handler) {
	mws, wraps := splitWraps(middlewares)

	r.wraps = append(r.wraps, wraps...)
	r.middlewares = append(r.middlewares, mws...)
	r.Router.Use(mws...)
}

// With returns router with inline middlewares.
func (r *Wrapper) With(middlewares ...func(http.Handler) http.Handler) chi.Router {
	mws, wraps := splitWraps(middlewares)

	c := r.sub(r.Router.With(mws...), "")
	c.wraps = append(append([]func(http.Handler) http.Handler(nil), r.wraps...), wraps...)

	return c
}

// Group adds inline router with its own middlewares.
func (r *Wrapper) Group(fn func(r chi.Router)) chi.Router {
	g := r.With()

	if fn != nil {
		fn(g)
	}

	return g
}

// Route mounts sub router at rule.
func (r *Wrapper) Route(rule string, fn func(r chi.Router)) chi.Router {
	pattern := routePattern(rule)
	s := r.sub(chi.NewRouter(), pattern)

	if fn != nil {
		fn(s)
	}

	r.Router.Mount(pattern, s)

	return s
}

// Mount attaches handler at rule, routes of mounted Wrapper get prefixed patterns and wraps of this router.
func (r *Wrapper) Mount(rule string, h http.Handler) {
	pattern := routePattern(rule)

	if g, ok := h.(routedGroup); ok {
		base := strings.TrimSuffix(pattern, "/")

		for _, rh := range g.routedHandlers() {
			var route rest.HandlerWithRoute
			if !nethttp.HandlerAs(rh, &route) {
				continue
			}

			w := nethttp.WrapHandler(rh, nethttp.HandlerWithRouteMiddleware(route.RouteMethod(),
				r.fullPattern(base+route.RoutePattern())))
			w = nethttp.WrapHandler(w, g.handlerWraps()...)
			nethttp.WrapHandler(w, r.wraps...)
		}
	} else {
		h = r.route("", pattern, h)
	}

	r.Router.Mount(pattern, h)
}

// Handle routes requests of any method matching rule.
func (r *Wrapper) Handle(rule string, h http.Handler) {
	pattern := routePattern(rule)
	r.Router.Handle(pattern, r.route("", pattern, h))
}

// Method routes requests of method matching rule.
func (r *Wrapper) Method(method, rule string, h http.Handler) {
	pattern := routePattern(rule)
	r.Router.Method(method, pattern, r.route(method, pattern, h))
}

// MethodFunc routes requests of method matching rule to handler function.
func (r *Wrapper) MethodFunc(method, rule string, fn http.HandlerFunc) {
	r.Method(method, rule, fn)
}

// Connect routes CONNECT requests.
func (r *Wrapper) Connect(rule string, fn http.HandlerFunc) { r.Method(http.MethodConnect, rule, fn) }

// Delete routes DELETE requests.
func (r *Wrapper) Delete(rule string, fn http.HandlerFunc) { r.Method(http.MethodDelete, rule, fn) }

// Get routes GET requests.
func (r *Wrapper) Get(rule string, fn http.HandlerFunc) { r.Method(http.MethodGet, rule, fn) }

// Head routes HEAD requests.
func (r *Wrapper) Head(rule string, fn http.HandlerFunc) { r.Method(http.MethodHead, rule, fn) }

// Options routes OPTIONS requests.
func (r *Wrapper) Options(rule string, fn http.HandlerFunc) { r.Method(http.MethodOptions, rule, fn) }

// Patch routes PATCH requests.
func (r *Wrapper) Patch(rule string, fn http.HandlerFunc) { r.Method(http.MethodPatch, rule, fn) }

// Post routes POST requests.
func (r *Wrapper) Post(rule string, fn http.HandlerFunc) { r.Method(http.MethodPost, rule, fn) }

// Put routes PUT requests.
func (r *Wrapper) Put(rule string, fn http.HandlerFunc) { r.Method(http.MethodPut, rule, fn) }

// Trace routes TRACE requests.
func (r *Wrapper) Trace(rule string, fn http.HandlerFunc) { r.Method(http.MethodTrace, rule, fn) }

// HandlerFunc applies wraps to a handler without route, e.g. for NotFound or MethodNotAllowed.
func (r *Wrapper) HandlerFunc(h http.Handler) http.HandlerFunc {
	return nethttp.WrapHandler(h, r.wraps...).ServeHTTP
}

// route makes handler aware of its route and applies wraps.
func (r *Wrapper) route(method, pattern string, h http.Handler) http.Handler {
	h = nethttp.WrapHandler(h, nethttp.HandlerWithRouteMiddleware(method, r.fullPattern(pattern)))
	r.routed = append(r.routed, h)

	// Middlewares are applied once for inspection, chi applies them to requests.
	nethttp.WrapHandler(h, r.middlewares...)

	return nethttp.WrapHandler(h, r.wraps...)
}

func (r *Wrapper) fullPattern(pattern string) string {
	return r.prefix + strings.ReplaceAll(pattern, "/*/", "/")
}

func (r *Wrapper) routedHandlers() []http.Handler {
	return r.routed
}

func (r *Wrapper) handlerWraps() []func(http.Handler) http.Handler {
	return r.wraps
}

// routePattern converts route rule with converters to chi pattern, chi patterns are kept.
func routePattern(rule string) string {
	if !strings.Contains(rule, "<") {
		return rule
	}

	return openapi.RoutePattern(rule, "")
}

func splitWraps(middlewares []func(http.Handler) http.Handler) (mws, wraps []func(http.Handler) http.Handler) {
	for _, mw := range middlewares {
		if nethttp.MiddlewareIsWrapper(mw) {
			wraps = append(wraps, mw)
		} else {
			mws = append(mws, mw)
		}
	}

	return mws, wraps
}
