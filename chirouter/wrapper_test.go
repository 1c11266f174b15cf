package chirouter_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggest/rest-openapi"
	"github.com/swaggest/rest-openapi/chirouter"
	"github.com/swaggest/rest-openapi/nethttp"
)

type petHandler struct {
	http.Handler
}

func (petHandler) Pet() {}

func write(body string) http.HandlerFunc {
	return func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = rw.Write([]byte(body)) //nolint:errcheck
	}
}

func do(t *testing.T, h http.Handler, method, uri string) *httptest.ResponseRecorder {
	t.Helper()

	req, err := http.NewRequest(method, uri, nil)
	require.NoError(t, err)

	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)

	return rw
}

func TestWrapper_converters(t *testing.T) {
	r := chirouter.NewWrapper(chi.NewRouter())

	var routes []string

	r.Wrap(func(h http.Handler) http.Handler {
		var route rest.HandlerWithRoute
		if nethttp.HandlerAs(h, &route) {
			routes = append(routes, route.RouteMethod()+" "+route.RoutePattern())
		}

		return h
	})

	r.Get("/pets/<int:id>", func(rw http.ResponseWriter, req *http.Request) {
		val, err := chirouter.PathToURLValues(req, nil)
		assert.NoError(t, err)

		_, _ = rw.Write([]byte(val.Get("id"))) //nolint:errcheck
	})
	r.Post("/owners/<name>/pets", write("created"))
	r.Route("/v2/<uuid:key>", func(r chi.Router) {
		r.Get("/", write("v2"))
	})

	assert.Equal(t, []string{
		"GET /pets/{id:[0-9]+}",
		"POST /owners/{name}/pets",
		"GET /v2/{key:[0-9a-fA-F-]+}/",
	}, routes)

	assert.Equal(t, "12", do(t, r, http.MethodGet, "/pets/12").Body.String())
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/pets/rex").Code)
	assert.Equal(t, "created", do(t, r, http.MethodPost, "/owners/ann/pets").Body.String())
	assert.Equal(t, "v2", do(t, r, http.MethodGet, "/v2/0f8e-4a/").Body.String())
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodGet, "/v2/xyz/").Code)
}

func TestWrapper_wraps(t *testing.T) {
	pets := 0

	counting := func(h http.Handler) http.Handler {
		if nethttp.IsWrapperChecker(h) {
			return h
		}

		var p interface{ Pet() }
		if nethttp.HandlerAs(h, &p) {
			pets++
		}

		return h
	}

	prefixing := func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
			_, _ = rw.Write([]byte("mw:")) //nolint:errcheck

			h.ServeHTTP(rw, req)
		})
	}

	r := chirouter.NewWrapper(chi.NewRouter()).With(func(h http.Handler) http.Handler {
		return http.HandlerFunc(h.ServeHTTP)
	})

	r.Use(prefixing, counting)

	r.Group(func(r chi.Router) {
		r.Method(http.MethodPost, "/pets/{id}/", petHandler{Handler: http.HandlerFunc(func(_ http.ResponseWriter, req *http.Request) {
			val, err := chirouter.PathToURLValues(req, nil)
			assert.NoError(t, err)
			assert.Equal(t, url.Values{"id": []string{"123"}}, val)
		})})
	})

	r.Mount("/static", petHandler{Handler: write("file")})

	r.Route("/shop/", func(r chi.Router) {
		r.Use(func(h http.Handler) http.Handler {
			return h
		})

		for _, add := range []func(string, http.HandlerFunc){
			r.Get, r.Head, r.Post, r.Put, r.Trace, r.Connect, r.Options, r.Patch, r.Delete,
		} {
			add("/pets", write("pets"))
		}

		r.MethodFunc(http.MethodGet, "/owners", write("owners"))
		r.Handle("/toys", petHandler{Handler: write("toys")})
	})

	assert.Equal(t, 3, pets)

	for uri, body := range map[string]string{
		"/pets/123/":  "mw:",
		"/static/abc": "mw:file",
		"/shop/toys":  "mw:toys",
		"/shop/pets":  "mw:pets",
	} {
		assert.Equal(t, body, do(t, r, http.MethodPost, uri).Body.String(), uri)
	}

	assert.Equal(t, "mw:owners", do(t, r, http.MethodGet, "/shop/owners").Body.String())
}

func TestWrapper_Mount(t *testing.T) {
	var routes []string

	app := chirouter.NewWrapper(chi.NewRouter())
	app.Wrap(func(h http.Handler) http.Handler {
		var route rest.HandlerWithRoute
		if nethttp.HandlerAs(h, &route) {
			routes = append(routes, route.RouteMethod()+" "+route.RoutePattern())
		}

		return h
	})

	admin := chirouter.NewWrapper(chi.NewRouter())
	admin.Delete("/pets/<int:id>", write("deleted"))

	app.Mount("/admin/", admin)

	assert.Equal(t, []string{"DELETE /admin/pets/{id:[0-9]+}"}, routes)
	assert.Equal(t, "deleted", do(t, app, http.MethodDelete, "/admin/pets/1").Body.String())
}
