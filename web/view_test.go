package web_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bool64/httpmock"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggest/rest-openapi/nethttp"
	"github.com/swaggest/rest-openapi/web"
)

func TestAPI_RegisterView(t *testing.T) {
	app := newApp(web.WithSecuritySchemes(map[string]*openapi3.SecurityScheme{
		"basic": openapi3.NewSecurityScheme().WithType("http").WithScheme("basic"),
	}))

	view := web.NewView("/books/<int:id>",
		web.WithTags(&openapi3.Tag{Name: "book", Description: "Books."}),
		web.WithSecurity(openapi3.NewSecurityRequirement().Authenticate("basic")),
	).
		Get(getPet(), nethttp.Summary("Get a book.")).
		Handle("delete", deletePet())

	assert.Equal(t, "/books/<int:id>", view.Rule())
	assert.Equal(t, []string{http.MethodDelete, http.MethodGet}, view.Methods())

	app.RegisterView(view, nethttp.Deprecated())

	bp := web.NewBlueprint("shelf", "/shelf")
	bp.RegisterView(web.NewView("/books/<int:id>").Get(getPet()))
	bp.RegisterView(web.NewView("/hidden/<int:id>", web.WithDocUI(false)).Get(getPet()))
	app.RegisterAPI(bp)

	srv := httptest.NewServer(app)
	defer srv.Close()

	rc := httpmock.NewClient(srv.URL)

	rc.WithMethod(http.MethodGet).WithURI("/books/1")
	assert.NoError(t, rc.ExpectResponseStatus(http.StatusOK))
	assert.NoError(t, rc.ExpectResponseBody([]byte(`{"id":1,"name":"Rex"}`)))

	rc.Reset().WithMethod(http.MethodDelete).WithURI("/books/1")
	assert.NoError(t, rc.ExpectResponseStatus(http.StatusNoContent))

	rc.Reset().WithMethod(http.MethodPost).WithURI("/books/1")
	assert.NoError(t, rc.ExpectResponseStatus(http.StatusMethodNotAllowed))

	rc.Reset().WithMethod(http.MethodGet).WithURI("/shelf/books/1")
	assert.NoError(t, rc.ExpectResponseStatus(http.StatusOK))

	rc.Reset().WithMethod(http.MethodGet).WithURI("/shelf/hidden/1")
	assert.NoError(t, rc.ExpectResponseStatus(http.StatusOK))

	doc := app.Spec()

	item := doc.Paths.Value("/books/{id}")
	require.NotNil(t, item)
	require.NotNil(t, item.Get)
	require.NotNil(t, item.Delete)
	assert.Nil(t, item.Post)

	for _, op := range []*openapi3.Operation{item.Get, item.Delete} {
		assert.Equal(t, []string{"book"}, op.Tags)
		assert.True(t, op.Deprecated)
		require.NotNil(t, op.Security)
		assert.Equal(t, openapi3.SecurityRequirements{{"basic": []string{}}}, *op.Security)
	}

	assert.Equal(t, "Get a book.", item.Get.Summary)
	assert.Equal(t, "Books.", doc.Tags.Get("book").Description)

	assert.NotNil(t, doc.Paths.Value("/shelf/books/{id}"))
	assert.Nil(t, doc.Paths.Value("/shelf/hidden/{id}"))

	require.NoError(t, app.ValidateSpec(context.Background()))
}
