package nethttp

import (
	"net/http"
	"reflect"
	"runtime"
	"strings"
)

// WrapHandler applies middlewares to handler so that original handler stays reachable with HandlerAs.
//
// First middleware is the outermost, WrapHandler(h, logging, decoding) serves requests as
// logging(decoding(h)).
func WrapHandler(h http.Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		name := middlewareName(mw[i])

		w := mw[i](h)
		if w == nil {
			panic("nil handler returned from middleware: " + name)
		}

		h = &wrappedHandler{Handler: w, inner: h, name: name}
	}

	return h
}

// HandlerAs looks for a handler in the chain of wrapped handlers that is assignable to target,
// outermost first. If found, target is set to that handler and true is returned.
//
// Target must be a non-nil pointer to an interface or to a type that implements http.Handler,
// HandlerAs panics otherwise.
func HandlerAs(handler http.Handler, target interface{}) bool {
	if target == nil {
		panic("target cannot be nil")
	}

	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		panic("target must be a non-nil pointer")
	}

	targetType := val.Type().Elem()
	if targetType.Kind() != reflect.Interface && !targetType.Implements(handlerType) {
		panic("*target must be interface or implement http.Handler")
	}

	for _, h := range handlerChain(handler) {
		if reflect.TypeOf(h).AssignableTo(targetType) {
			val.Elem().Set(reflect.ValueOf(h))

			return true
		}
	}

	return false
}

var handlerType = reflect.TypeOf((*http.Handler)(nil)).Elem()

// handlerChain lists handlers produced by middlewares, from outermost to the original one.
func handlerChain(h http.Handler) []http.Handler {
	var chain []http.Handler

	for h != nil {
		w, ok := h.(*wrappedHandler)
		if !ok {
			return append(chain, h)
		}

		if w.Handler != nil {
			chain = append(chain, w.Handler)
		}

		h = w.inner
	}

	return chain
}

type wrappedHandler struct {
	http.Handler
	inner http.Handler
	name  string
}

// String lists middlewares of handler, e.g. "request.DecoderMiddleware(response.EncoderMiddleware(handler))".
func (w *wrappedHandler) String() string {
	if inner, ok := w.inner.(*wrappedHandler); ok {
		return w.name + "(" + inner.String() + ")"
	}

	return w.name + "(handler)"
}

func middlewareName(mw func(http.Handler) http.Handler) string {
	name := runtime.FuncForPC(reflect.ValueOf(mw).Pointer()).Name()

	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	return name
}

// wrapperMarker is passed to middleware by MiddlewareIsWrapper to find out if it is a handler wrapper.
type wrapperMarker struct {
	found bool
}

func (*wrapperMarker) ServeHTTP(_ http.ResponseWriter, _ *http.Request) {}

// IsWrapperChecker reports whether handler is a marker of MiddlewareIsWrapper.
//
// Handler wraps, e.g. request.DecoderMiddleware, configure use case handler once on route registration
// instead of serving requests. They call IsWrapperChecker first and return early if it succeeds, so
// that chirouter.Wrapper applies them with Wrap instead of Use.
func IsWrapperChecker(h http.Handler) bool {
	if m, ok := h.(*wrapperMarker); ok {
		m.found = true

		return true
	}

	return false
}

// MiddlewareIsWrapper reports whether middleware is a handler wrap, see IsWrapperChecker.
func MiddlewareIsWrapper(mw func(h http.Handler) http.Handler) bool {
	m := &wrapperMarker{}
	mw(m)

	return m.found
}
