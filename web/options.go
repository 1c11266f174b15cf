package web

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures App or Blueprint.
//
// Options of documentation UI, CORS, gzip and metrics only have effect on App.
type Option func(o *options)

type options struct {
	info            *openapi3.Info
	securitySchemes map[string]*openapi3.SecurityScheme
	responses       map[int]interface{}
	tags            []*openapi3.Tag
	security        []openapi3.SecurityRequirement
	servers         openapi3.Servers
	externalDocs    *openapi3.ExternalDocs
	extensions      map[string]interface{}
	operationIDFunc func(name, path, method string) string

	validationErrorStatus int
	validateResponses     bool

	docUI        bool
	docExpansion string
	docPrefix    string
	apiDocURL    string
	swaggerURL   string
	redocURL     string
	rapidocURL   string
	uiTemplates  map[string]string
	oauth        *OAuthConfig

	logger     *zap.Logger
	registerer prometheus.Registerer
	cors       *cors.Options
	gzip       bool

	panicRecovery func(http.Handler) http.Handler
}

func newOptions(opts []Option) options {
	o := options{
		docUI:        true,
		docExpansion: "list",
		docPrefix:    "/openapi",
		apiDocURL:    "/openapi.json",
		swaggerURL:   "/swagger",
		redocURL:     "/redoc",
		rapidocURL:   "/rapidoc",
		logger:       zap.NewNop(),
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// WithInfo sets title, version and other details of API.
func WithInfo(info openapi3.Info) Option {
	return func(o *options) {
		o.info = &info
	}
}

// WithSecuritySchemes declares security schemes in document components.
func WithSecuritySchemes(schemes map[string]*openapi3.SecurityScheme) Option {
	return func(o *options) {
		if o.securitySchemes == nil {
			o.securitySchemes = make(map[string]*openapi3.SecurityScheme, len(schemes))
		}

		for name, s := range schemes {
			o.securitySchemes[name] = s
		}
	}
}

// WithResponses documents responses of every route, route responses of the same status take precedence.
//
// See rest.OperationInfo for supported declarations.
func WithResponses(responses map[int]interface{}) Option {
	return func(o *options) {
		if o.responses == nil {
			o.responses = make(map[int]interface{}, len(responses))
		}

		for status, decl := range responses {
			o.responses[status] = decl
		}
	}
}

// WithTags adds tags to every route.
func WithTags(tags ...*openapi3.Tag) Option {
	return func(o *options) {
		o.tags = append(o.tags, tags...)
	}
}

// WithSecurity adds security requirements to every route.
func WithSecurity(requirements ...openapi3.SecurityRequirement) Option {
	return func(o *options) {
		o.security = append(o.security, requirements...)
	}
}

// WithServers sets document servers.
func WithServers(servers ...*openapi3.Server) Option {
	return func(o *options) {
		o.servers = append(o.servers, servers...)
	}
}

// WithExternalDocs sets link to external documentation of API.
func WithExternalDocs(url, description string) Option {
	return func(o *options) {
		o.externalDocs = &openapi3.ExternalDocs{URL: url, Description: description}
	}
}

// WithExtensions adds "x-" properties to document.
func WithExtensions(extensions map[string]interface{}) Option {
	return func(o *options) {
		if o.extensions == nil {
			o.extensions = make(map[string]interface{}, len(extensions))
		}

		for k, v := range extensions {
			o.extensions[k] = v
		}
	}
}

// WithOperationIDFunc overrides builder of default operation ids, default is openapi.OperationIDForPath.
func WithOperationIDFunc(fn func(name, path, method string) string) Option {
	return func(o *options) {
		o.operationIDFunc = fn
	}
}

// WithValidationErrorStatus sets status code of response to invalid request, default 422.
func WithValidationErrorStatus(status int) Option {
	return func(o *options) {
		o.validationErrorStatus = status
	}
}

// WithResponseValidation enables validation of responses against documented schemas.
func WithResponseValidation() Option {
	return func(o *options) {
		o.validateResponses = true
	}
}

// WithDocUI controls whether App serves documentation UI and whether Blueprint routes are documented,
// enabled by default.
func WithDocUI(enabled bool) Option {
	return func(o *options) {
		o.docUI = enabled
	}
}

// WithDocExpansion sets Swagger UI expansion of operations and tags: "list", "full" or "none".
func WithDocExpansion(expansion string) Option {
	return func(o *options) {
		o.docExpansion = expansion
	}
}

// WithDocPrefix sets URL prefix of document and UI, default "/openapi".
func WithDocPrefix(prefix string) Option {
	return func(o *options) {
		o.docPrefix = prefix
	}
}

// WithAPIDocURL sets URL of JSON document relative to doc prefix, default "/openapi.json".
func WithAPIDocURL(url string) Option {
	return func(o *options) {
		o.apiDocURL = url
	}
}

// WithSwaggerURL sets URL of Swagger UI relative to doc prefix, default "/swagger".
func WithSwaggerURL(url string) Option {
	return func(o *options) {
		o.swaggerURL = url
	}
}

// WithRedocURL sets URL of Redoc relative to doc prefix, default "/redoc".
func WithRedocURL(url string) Option {
	return func(o *options) {
		o.redocURL = url
	}
}

// WithRapidocURL sets URL of RapiDoc relative to doc prefix, default "/rapidoc".
func WithRapidocURL(url string) Option {
	return func(o *options) {
		o.rapidocURL = url
	}
}

// WithUITemplates adds or overrides documentation pages.
//
// Keys are page URLs relative to doc prefix, values are html/template sources that
// receive Title, APIDocURL and DocExpansion.
func WithUITemplates(templates map[string]string) Option {
	return func(o *options) {
		if o.uiTemplates == nil {
			o.uiTemplates = make(map[string]string, len(templates))
		}

		for name, src := range templates {
			o.uiTemplates[name] = src
		}
	}
}

// OAuthConfig configures OAuth 2.0 authorization of Swagger UI, it is passed to initOAuth of Swagger UI.
//
// See https://github.com/swagger-api/swagger-ui/blob/master/docs/usage/oauth2.md.
type OAuthConfig struct {
	ClientID                                  string            `json:"clientId,omitempty"`
	ClientSecret                              string            `json:"clientSecret,omitempty"`
	Realm                                     string            `json:"realm,omitempty"`
	AppName                                   string            `json:"appName,omitempty"`
	ScopeSeparator                            string            `json:"scopeSeparator,omitempty"`
	Scopes                                    []string          `json:"scopes,omitempty"`
	AdditionalQueryStringParams               map[string]string `json:"additionalQueryStringParams,omitempty"`
	UseBasicAuthenticationWithAccessCodeGrant bool              `json:"useBasicAuthenticationWithAccessCodeGrant,omitempty"`
	UsePkceWithAuthorizationCodeGrant         bool              `json:"usePkceWithAuthorizationCodeGrant,omitempty"`
}

// WithOAuthConfig sets OAuth 2.0 configuration of Swagger UI.
func WithOAuthConfig(cfg OAuthConfig) Option {
	return func(o *options) {
		o.oauth = &cfg
	}
}

// WithLogger sets logger, default is no-op.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics enables request metrics registered with provided registerer.
func WithMetrics(registerer prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = registerer
	}
}

// WithCORS enables CORS handling.
func WithCORS(opts cors.Options) Option {
	return func(o *options) {
		o.cors = &opts
	}
}

// WithGzip enables gzip compression of responses.
func WithGzip() Option {
	return func(o *options) {
		o.gzip = true
	}
}

// WithPanicRecovery overrides panic recovery middleware, default is middleware.Recoverer.
func WithPanicRecovery(mw func(http.Handler) http.Handler) Option {
	return func(o *options) {
		o.panicRecovery = mw
	}
}
