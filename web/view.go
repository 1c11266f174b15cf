package web

import (
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggest/rest-openapi/nethttp"
	"github.com/swaggest/usecase"
)

// View is a resource served at a single URL rule with a use case per HTTP method.
//
// Tags, security and documentation visibility of view apply to every method,
// view is exposed with RegisterView of App or Blueprint.
type View struct {
	rule     string
	tags     []*openapi3.Tag
	security []openapi3.SecurityRequirement
	hidden   bool
	methods  map[string]viewMethod
}

type viewMethod struct {
	useCase usecase.Interactor
	options []func(h *nethttp.Handler)
}

// NewView creates a view of URL rule, rule may have converters, e.g. "/pets/<int:id>".
//
// Only WithTags, WithSecurity and WithDocUI options have effect on View.
func NewView(rule string, opts ...Option) *View {
	o := newOptions(opts)

	return &View{
		rule:     rule,
		tags:     o.tags,
		security: o.security,
		hidden:   !o.docUI,
		methods:  map[string]viewMethod{},
	}
}

// Rule returns URL rule of view.
func (v *View) Rule() string {
	return v.rule
}

// Handle sets use case of http method, previous use case of the same method is replaced.
func (v *View) Handle(method string, uc usecase.Interactor, options ...func(h *nethttp.Handler)) *View {
	v.methods[strings.ToUpper(method)] = viewMethod{useCase: uc, options: options}

	return v
}

// Get sets use case of GET method.
func (v *View) Get(uc usecase.Interactor, options ...func(h *nethttp.Handler)) *View {
	return v.Handle(http.MethodGet, uc, options...)
}

// Post sets use case of POST method.
func (v *View) Post(uc usecase.Interactor, options ...func(h *nethttp.Handler)) *View {
	return v.Handle(http.MethodPost, uc, options...)
}

// Put sets use case of PUT method.
func (v *View) Put(uc usecase.Interactor, options ...func(h *nethttp.Handler)) *View {
	return v.Handle(http.MethodPut, uc, options...)
}

// Patch sets use case of PATCH method.
func (v *View) Patch(uc usecase.Interactor, options ...func(h *nethttp.Handler)) *View {
	return v.Handle(http.MethodPatch, uc, options...)
}

// Delete sets use case of DELETE method.
func (v *View) Delete(uc usecase.Interactor, options ...func(h *nethttp.Handler)) *View {
	return v.Handle(http.MethodDelete, uc, options...)
}

// Methods returns http methods of view in alphabetical order.
func (v *View) Methods() []string {
	methods := make([]string, 0, len(v.methods))
	for m := range v.methods {
		methods = append(methods, m)
	}

	sort.Strings(methods)

	return methods
}

func (v *View) handlerOptions(method string) []func(h *nethttp.Handler) {
	var options []func(h *nethttp.Handler)

	if len(v.tags) > 0 {
		options = append(options, nethttp.TagDetails(v.tags...))
	}

	if len(v.security) > 0 {
		options = append(options, nethttp.Security(v.security...))
	}

	if v.hidden {
		options = append(options, nethttp.Hidden())
	}

	return append(options, v.methods[method].options...)
}

// RegisterView adds routes of view methods.
//
// Options are applied to handlers of every method after view and method options.
func (a *API) RegisterView(v *View, options ...func(h *nethttp.Handler)) {
	for _, method := range v.Methods() {
		a.Add(method, v.rule, v.methods[method].useCase, append(v.handlerOptions(method), options...)...)
	}
}
