// Package web provides OpenAPI application and blueprints for web service bootstrap.
package web

import (
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/swaggest/rest-openapi"
	"github.com/swaggest/rest-openapi/chirouter"
	"github.com/swaggest/rest-openapi/jsonschema"
	"github.com/swaggest/rest-openapi/nethttp"
	"github.com/swaggest/rest-openapi/openapi"
	"github.com/swaggest/rest-openapi/request"
	"github.com/swaggest/rest-openapi/response"
	"github.com/swaggest/usecase"
	"go.uber.org/zap"
)

// API keeps instrumented router and documentation collector of a group of routes.
//
// It is shared by App and Blueprint.
type API struct {
	*chirouter.Wrapper

	OpenAPICollector *openapi.Collector
	DecoderFactory   *request.DecoderFactory

	// ResponseValidatorFactory is populated so that response.ValidatorMiddleware(s.ResponseValidatorFactory)
	// can be added with Wrap, WithResponseValidation adds it for every route.
	ResponseValidatorFactory rest.ResponseValidatorFactory

	prefix           string
	hideRoutes       bool
	tags             []*openapi3.Tag
	security         []openapi3.SecurityRequirement
	validationStatus int
	log              *zap.Logger
}

func newAPI(prefix string, o options) *API {
	c := openapi.NewCollector()

	c.DefaultSuccessResponseContentType = response.DefaultSuccessResponseContentType
	c.DefaultErrorResponseContentType = response.DefaultErrorResponseContentType
	c.ValidationErrorStatus = o.validationErrorStatus
	c.OperationIDFunc = o.operationIDFunc
	c.DefaultResponses = o.responses

	c.Configure(func(doc *openapi3.T) {
		if o.info != nil {
			info := *o.info
			doc.Info = &info
		}

		doc.Servers = o.servers
		doc.ExternalDocs = o.externalDocs

		if len(o.extensions) > 0 {
			if doc.Extensions == nil {
				doc.Extensions = make(map[string]interface{}, len(o.extensions))
			}

			for k, v := range o.extensions {
				doc.Extensions[k] = v
			}
		}

		for name, s := range o.securitySchemes {
			doc.Components.SecuritySchemes[name] = &openapi3.SecuritySchemeRef{Value: s}
		}
	})

	a := &API{
		Wrapper:          chirouter.NewWrapper(chi.NewRouter()),
		OpenAPICollector: c,
		prefix:           prefix,
		tags:             o.tags,
		security:         o.security,
		validationStatus: o.validationErrorStatus,
		log:              o.logger,
	}

	decoderFactory := request.NewDecoderFactory()
	decoderFactory.ApplyDefaults = true
	decoderFactory.SetDecoderFunc(rest.ParamInPath, chirouter.PathToURLValues)

	a.DecoderFactory = decoderFactory

	validatorFactory := jsonschema.NewFactory(c, c)
	a.ResponseValidatorFactory = validatorFactory

	panicRecovery := o.panicRecovery
	if panicRecovery == nil {
		panicRecovery = middleware.Recoverer
	}

	a.Wrap(
		panicRecovery, // Panic recovery.
		nethttp.UseCaseMiddlewares(useCaseLogger(a.log)), // Failure logging.
		nethttp.OpenAPIMiddleware(c),                      // Documentation collector.
		request.DecoderMiddleware(decoderFactory),         // Request decoder setup.
		request.ValidatorMiddleware(validatorFactory),     // Request validator setup.
		response.EncoderMiddleware,                        // Response encoder setup.
	)

	if o.validateResponses {
		a.Wrap(response.ValidatorMiddleware(validatorFactory))
	}

	return a
}

// Spec returns OpenAPI document of the routes.
func (a *API) Spec() *openapi3.T {
	return a.OpenAPICollector.Spec()
}

// Add adds the route `rule` that matches `method` http method to invoke use case interactor.
//
// Rule may have URL parameters in router format ("/pets/{id}") or with converters ("/pets/<int:id>").
func (a *API) Add(method, rule string, uc usecase.Interactor, options ...func(h *nethttp.Handler)) {
	pattern := openapi.RoutePattern(rule, a.prefix)

	a.Method(method, pattern, nethttp.NewHandler(uc, append(a.routeOptions(), options...)...))
	a.log.Debug("route added", zap.String("method", method), zap.String("pattern", pattern))
}

func (a *API) routeOptions() []func(h *nethttp.Handler) {
	options := []func(h *nethttp.Handler){nethttp.Logger(a.log)}

	if len(a.tags) > 0 {
		options = append(options, nethttp.TagDetails(a.tags...))
	}

	if len(a.security) > 0 {
		options = append(options, nethttp.Security(a.security...))
	}

	if a.validationStatus != 0 {
		options = append(options, nethttp.ValidationErrorStatus(a.validationStatus))
	}

	if a.hideRoutes {
		options = append(options, nethttp.Hidden())
	}

	return options
}

// Delete adds the route `rule` that matches a DELETE http method to invoke use case interactor.
func (a *API) Delete(rule string, uc usecase.Interactor, options ...func(h *nethttp.Handler)) {
	a.Add(http.MethodDelete, rule, uc, options...)
}

// Get adds the route `rule` that matches a GET http method to invoke use case interactor.
func (a *API) Get(rule string, uc usecase.Interactor, options ...func(h *nethttp.Handler)) {
	a.Add(http.MethodGet, rule, uc, options...)
}

// Head adds the route `rule` that matches a HEAD http method to invoke use case interactor.
func (a *API) Head(rule string, uc usecase.Interactor, options ...func(h *nethttp.Handler)) {
	a.Add(http.MethodHead, rule, uc, options...)
}

// Options adds the route `rule` that matches a OPTIONS http method to invoke use case interactor.
func (a *API) Options(rule string, uc usecase.Interactor, options ...func(h *nethttp.Handler)) {
	a.Add(http.MethodOptions, rule, uc, options...)
}

// Patch adds the route `rule` that matches a PATCH http method to invoke use case interactor.
func (a *API) Patch(rule string, uc usecase.Interactor, options ...func(h *nethttp.Handler)) {
	a.Add(http.MethodPatch, rule, uc, options...)
}

// Post adds the route `rule` that matches a POST http method to invoke use case interactor.
func (a *API) Post(rule string, uc usecase.Interactor, options ...func(h *nethttp.Handler)) {
	a.Add(http.MethodPost, rule, uc, options...)
}

// Put adds the route `rule` that matches a PUT http method to invoke use case interactor.
func (a *API) Put(rule string, uc usecase.Interactor, options ...func(h *nethttp.Handler)) {
	a.Add(http.MethodPut, rule, uc, options...)
}

// Trace adds the route `rule` that matches a TRACE http method to invoke use case interactor.
func (a *API) Trace(rule string, uc usecase.Interactor, options ...func(h *nethttp.Handler)) {
	a.Add(http.MethodTrace, rule, uc, options...)
}

// OnNotFound registers usecase interactor as a handler for not found conditions.
func (a *API) OnNotFound(uc usecase.Interactor, options ...func(h *nethttp.Handler)) {
	a.NotFound(a.HandlerFunc(nethttp.NewHandler(uc, options...)))
}

// OnMethodNotAllowed registers usecase interactor as a handler for method not allowed conditions.
func (a *API) OnMethodNotAllowed(uc usecase.Interactor, options ...func(h *nethttp.Handler)) {
	a.MethodNotAllowed(a.HandlerFunc(nethttp.NewHandler(uc, options...)))
}

// RegisterAPI adds documentation and routes of blueprint.
//
// Blueprint routes are served with URL prefix of this API, routes added
// to blueprint after registration are not exposed.
func (a *API) RegisterAPI(bp *Blueprint) {
	if err := a.OpenAPICollector.MergePrefixed(bp.OpenAPICollector, a.prefix); err != nil {
		panic(fmt.Sprintf("register blueprint %s: %v", bp.Name(), err))
	}

	err := chi.Walk(bp.Router, func(method, route string, h http.Handler, mws ...func(http.Handler) http.Handler) error {
		if len(mws) > 0 {
			h = chi.Chain(mws...).Handler(h)
		}

		pattern := openapi.RoutePattern(route, a.prefix)

		a.Router.Method(method, pattern, h)
		a.log.Debug("blueprint route added",
			zap.String("blueprint", bp.Name()),
			zap.String("method", method),
			zap.String("pattern", pattern))

		return nil
	})
	if err != nil {
		panic(fmt.Sprintf("register blueprint %s: %v", bp.Name(), err))
	}
}
