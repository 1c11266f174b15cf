package nethttp

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggest/rest-openapi"
	"github.com/swaggest/rest-openapi/openapi"
)

// OpenAPIMiddleware reads info and adds validation to handler.
func OpenAPIMiddleware(s *openapi.Collector) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		if IsWrapperChecker(h) {
			return h
		}

		var (
			withRoute rest.HandlerWithRoute
			handler   *Handler
		)

		if !HandlerAs(h, &withRoute) || !HandlerAs(h, &handler) {
			return h
		}

		err := s.CollectUseCase(
			withRoute.RouteMethod(),
			withRoute.RoutePattern(),
			handler.UseCase(),
			handler.HandlerTrait,
		)
		if err != nil {
			panic(err)
		}

		return h
	}
}

// SecurityMiddleware creates middleware to expose security scheme.
func SecurityMiddleware(
	c *openapi.Collector,
	name string,
	scheme *openapi3.SecurityScheme,
	options ...func(*MiddlewareConfig),
) func(http.Handler) http.Handler {
	c.Configure(func(doc *openapi3.T) {
		if doc.Components == nil {
			doc.Components = &openapi3.Components{}
		}

		if doc.Components.SecuritySchemes == nil {
			doc.Components.SecuritySchemes = openapi3.SecuritySchemes{}
		}

		doc.Components.SecuritySchemes[name] = &openapi3.SecuritySchemeRef{Value: scheme}
	})

	cfg := MiddlewareConfig{}

	for _, o := range options {
		o(&cfg)
	}

	return securityMiddleware(c, name, cfg)
}

// HTTPBasicSecurityMiddleware creates middleware to expose Basic Security schema.
func HTTPBasicSecurityMiddleware(
	c *openapi.Collector,
	name, description string,
	options ...func(*MiddlewareConfig),
) func(http.Handler) http.Handler {
	scheme := openapi3.NewSecurityScheme().WithType("http").WithScheme("basic")

	if description != "" {
		scheme.WithDescription(description)
	}

	return SecurityMiddleware(c, name, scheme, options...)
}

// HTTPBearerSecurityMiddleware creates middleware to expose HTTP Bearer security schema.
func HTTPBearerSecurityMiddleware(
	c *openapi.Collector,
	name, description, bearerFormat string,
	options ...func(*MiddlewareConfig),
) func(http.Handler) http.Handler {
	scheme := openapi3.NewSecurityScheme().WithType("http").WithScheme("bearer")

	if bearerFormat != "" {
		scheme.WithBearerFormat(bearerFormat)
	}

	if description != "" {
		scheme.WithDescription(description)
	}

	return SecurityMiddleware(c, name, scheme, options...)
}

// APIKeySecurityMiddleware creates middleware to expose API Key security schema.
func APIKeySecurityMiddleware(
	c *openapi.Collector,
	name, fieldName string,
	fieldIn rest.ParamIn,
	description string,
	options ...func(*MiddlewareConfig),
) func(http.Handler) http.Handler {
	scheme := openapi3.NewSecurityScheme().WithType("apiKey").WithName(fieldName).WithIn(string(fieldIn))

	if description != "" {
		scheme.WithDescription(description)
	}

	return SecurityMiddleware(c, name, scheme, options...)
}

// AnnotateOpenAPI applies OpenAPI annotation to relevant handlers.
func AnnotateOpenAPI(
	s *openapi.Collector,
	setup ...func(op *openapi3.Operation) error,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if IsWrapperChecker(next) {
			return next
		}

		var withRoute rest.HandlerWithRoute

		if HandlerAs(next, &withRoute) {
			s.Annotate(
				withRoute.RouteMethod(),
				withRoute.RoutePattern(),
				setup...,
			)
		}

		return next
	}
}

// SecurityResponse is a security middleware option to customize response structure and status.
func SecurityResponse(structure interface{}, httpStatus int) func(config *MiddlewareConfig) {
	return func(config *MiddlewareConfig) {
		config.ResponseStructure = structure
		config.ResponseStatus = httpStatus
	}
}

// MiddlewareConfig defines security middleware options.
type MiddlewareConfig struct {
	// ResponseStructure declares structure that is used for unauthorized message, default rest.ErrResponse{}.
	ResponseStructure interface{}

	// ResponseStatus declares HTTP status code that is used for unauthorized message, default http.StatusUnauthorized.
	ResponseStatus int
}

func securityMiddleware(s *openapi.Collector, name string, cfg MiddlewareConfig) func(http.Handler) http.Handler {
	if cfg.ResponseStatus == 0 {
		cfg.ResponseStatus = http.StatusUnauthorized
	}

	if cfg.ResponseStructure == nil {
		cfg.ResponseStructure = rest.ErrResponse{}
	}

	return AnnotateOpenAPI(s, func(op *openapi3.Operation) error {
		if op.Security == nil {
			op.Security = openapi3.NewSecurityRequirements()
		}

		op.Security.With(openapi3.NewSecurityRequirement().Authenticate(name))

		return s.SetJSONResponse(op, cfg.ResponseStructure, cfg.ResponseStatus)
	})
}
