package web

import (
	"context"

	"github.com/go-chi/cors"
	"github.com/swaggest/rest-openapi/response/gzip"
)

// App is an OpenAPI application: it serves documented routes, registered blueprints,
// the OpenAPI document and documentation UI.
type App struct {
	*API

	docs docsConfig
}

// NewApp initializes router, documentation collector and documentation UI.
//
// Request middlewares (CORS, metrics, gzip) are installed before routes, so that
// further middlewares should be added with Wrap rather than Use.
func NewApp(opts ...Option) *App {
	o := newOptions(opts)

	a := &App{
		API: newAPI("", o),
	}

	if o.cors != nil {
		a.Router.Use(cors.Handler(*o.cors))
	}

	if o.registerer != nil {
		a.Router.Use(newMetrics(o.registerer).middleware)
	}

	if o.gzip {
		a.Router.Use(gzip.Middleware)
	}

	if o.docUI {
		a.docs = newDocsConfig(o)
		a.mountDocs()
	}

	return a
}

// SpecJSON returns indented JSON of OpenAPI document.
func (a *App) SpecJSON() ([]byte, error) {
	return a.OpenAPICollector.SpecJSON()
}

// SpecYAML returns YAML of OpenAPI document.
func (a *App) SpecYAML() ([]byte, error) {
	return a.OpenAPICollector.SpecYAML()
}

// ValidateSpec checks conformance of OpenAPI document.
func (a *App) ValidateSpec(ctx context.Context) error {
	return a.OpenAPICollector.Validate(ctx)
}

// APIDocURL returns URL of served OpenAPI document, it is empty if documentation UI is disabled.
func (a *App) APIDocURL() string {
	return a.docs.apiDocURL
}
