// Package nethttp provides HTTP API of the pet store.
package nethttp

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggest/rest-openapi"
	"github.com/swaggest/rest-openapi/internal/infra/service"
	"github.com/swaggest/rest-openapi/internal/usecase"
	"github.com/swaggest/rest-openapi/nethttp"
	"github.com/swaggest/rest-openapi/web"
)

// NewRouter creates HTTP application.
func NewRouter(l *service.Locator) *web.App {
	cfg := l.Config

	options := []web.Option{
		web.WithInfo(openapi3.Info{
			Title:       "Pet Store",
			Description: "Sample service to manage pets.",
			Version:     "1.0.0",
		}),
		web.WithResponses(map[int]interface{}{
			http.StatusInternalServerError: rest.ErrResponse{},
		}),
		web.WithLogger(l.Logger),
		web.WithMetrics(l.Registry),
		web.WithGzip(),
		web.WithDocUI(cfg.DocUI),
		web.WithDocPrefix(cfg.DocPrefix),
		web.WithDocExpansion(cfg.DocExpansion),
	}

	if len(cfg.CORSOrigins) > 0 {
		options = append(options, web.WithCORS(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		}))
	}

	app := web.NewApp(options...)

	pets := web.NewBlueprint("pets", "/api/v1",
		web.WithTags(&openapi3.Tag{Name: "Pets", Description: "Pets in the store."}),
	)

	pets.Get("/pets", usecase.FindPets(l))
	pets.Post("/pets", usecase.CreatePet(l), nethttp.SuccessStatus(http.StatusCreated))
	pets.Get("/pets/export", usecase.ExportPets(l))
	pets.Get("/pets/<int:id>", usecase.FindPet(l))
	pets.Put("/pets/<int:id>", usecase.UpdatePet(l))
	pets.Post("/pets/<int:id>/images", usecase.UploadImage(l))

	// Endpoints with admin access.
	admin := web.NewBlueprint("admin", "/admin",
		web.WithTags(&openapi3.Tag{Name: "Admin", Description: "Store management."}),
	)

	admin.Use(
		middleware.BasicAuth("Admin Access", map[string]string{cfg.AdminUser: cfg.AdminPassword}),
		nethttp.HTTPBasicSecurityMiddleware(admin.OpenAPICollector, "Admin", "Admin access"),
	)
	admin.Delete("/pets/<int:id>", usecase.DeletePet(l))

	pets.RegisterAPI(admin)
	app.RegisterAPI(pets)

	app.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(l.Registry, promhttp.HandlerOpts{}))

	return app
}
