package response_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggest/assertjson"
	"github.com/swaggest/rest-openapi"
	"github.com/swaggest/rest-openapi/jsonschema"
	"github.com/swaggest/rest-openapi/response"
	"github.com/swaggest/usecase"
)

func newRequest(t *testing.T, method string) *http.Request {
	t.Helper()

	r, err := http.NewRequestWithContext(context.Background(), method, "/", nil)
	require.NoError(t, err)

	return r
}

func TestEncoder_SetupOutput(t *testing.T) {
	e := response.Encoder{}

	type outputPort struct {
		Name  string   `header:"X-Name" json:"-"`
		Items []string `json:"items"`
	}

	ht := rest.HandlerTrait{
		SuccessContentType: "application/x-vnd-json",
	}

	validator := jsonschema.Validator{}
	require.NoError(t, validator.AddSchema(
		rest.ParamInHeader,
		"X-Name",
		[]byte(`{"type":"string","minLength":3}`),
		false),
	)

	ht.RespValidator = &validator

	e.SetupOutput(new(outputPort), &ht)
	assert.Equal(t, http.StatusOK, ht.SuccessStatus)

	w := httptest.NewRecorder()
	output := e.MakeOutput(w, ht)

	out, ok := output.(*outputPort)
	require.True(t, ok)

	out.Name = "Jane"
	out.Items = []string{"one", "two", "three"}

	e.WriteSuccessfulResponse(w, newRequest(t, http.MethodGet), output, ht)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Jane", w.Header().Get("X-Name"))
	assert.Equal(t, "application/x-vnd-json", w.Header().Get("Content-Type"))
	assert.Equal(t, "32", w.Header().Get("Content-Length"))
	assert.Equal(t, `{"items":["one","two","three"]}`+"\n", w.Body.String())

	w = httptest.NewRecorder()
	e.WriteErrResponse(w, newRequest(t, http.MethodGet), http.StatusExpectationFailed, rest.ErrResponse{
		ErrorText: "failed",
	})
	assert.Equal(t, http.StatusExpectationFailed, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "19", w.Header().Get("Content-Length"))
	assert.Equal(t, `{"error":"failed"}`+"\n", w.Body.String())

	out.Name = "Ja"
	w = httptest.NewRecorder()
	e.WriteSuccessfulResponse(w, newRequest(t, http.MethodGet), output, ht)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "", w.Header().Get("X-Name"))
	assertjson.Equal(t, []byte(`{
	  "status":"INTERNAL","error":"internal: bad response: validation failed",
	  "context":{"header.X-Name":["length must be >= 3, but got 2"]}
	}`), w.Body.Bytes())
}

func TestEncoder_SetupOutput_withWriter(t *testing.T) {
	e := response.Encoder{}

	ht := rest.HandlerTrait{
		SuccessContentType: "text/csv",
	}

	type outputPort struct {
		Name string `header:"X-Name" json:"-"`
		usecase.OutputWithEmbeddedWriter
	}

	e.SetupOutput(new(outputPort), &ht)

	w := httptest.NewRecorder()
	output := e.MakeOutput(w, ht)

	out, ok := output.(*outputPort)
	require.True(t, ok)

	out.Name = "Jane"

	_, err := out.Write([]byte("1,2,3"))
	require.NoError(t, err)

	e.WriteSuccessfulResponse(w, newRequest(t, http.MethodGet), output, ht)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "1,2,3", w.Body.String())
	assert.Equal(t, "Jane", w.Header().Get("X-Name"))
}

func TestEncoder_SetupOutput_noContent(t *testing.T) {
	e := response.Encoder{}
	ht := rest.HandlerTrait{}

	type outputPort struct{}

	e.SetupOutput(new(outputPort), &ht)
	assert.Equal(t, http.StatusNoContent, ht.SuccessStatus)

	w := httptest.NewRecorder()
	e.WriteSuccessfulResponse(w, newRequest(t, http.MethodDelete), e.MakeOutput(w, ht), ht)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

type created struct {
	ID int `json:"id"`
}

func (created) HTTPStatus() int {
	return http.StatusCreated
}

func (created) ExpectedHTTPStatuses() []int {
	return []int{http.StatusCreated}
}

func TestEncoder_SetupOutput_httpStatus(t *testing.T) {
	e := response.Encoder{}
	ht := rest.HandlerTrait{}

	e.SetupOutput(new(created), &ht)
	assert.Equal(t, http.StatusCreated, ht.SuccessStatus)

	w := httptest.NewRecorder()
	output := e.MakeOutput(w, ht)
	output.(*created).ID = 7

	e.WriteSuccessfulResponse(w, newRequest(t, http.MethodPost), output, ht)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, `{"id":7}`+"\n", w.Body.String())
}

type report struct {
	rest.Union
}

func (report) JSONSchemaOneOf() []interface{} {
	return []interface{}{created{}, ""}
}

func TestEncoder_WriteSuccessfulResponse_union(t *testing.T) {
	e := response.Encoder{}
	ht := rest.HandlerTrait{}

	e.SetupOutput(new(report), &ht)
	assert.Equal(t, http.StatusOK, ht.SuccessStatus)

	w := httptest.NewRecorder()
	output := e.MakeOutput(w, ht)
	output.(*report).SetUnionValue("application/json", created{ID: 3})

	e.WriteSuccessfulResponse(w, newRequest(t, http.MethodGet), output, ht)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, `{"id":3}`+"\n", w.Body.String())

	w = httptest.NewRecorder()
	output = e.MakeOutput(w, ht)
	output.(*report).SetUnionValue("text/csv", "id\n3\n")

	e.WriteSuccessfulResponse(w, newRequest(t, http.MethodGet), output, ht)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, "id\n3\n", w.Body.String())

	w = httptest.NewRecorder()
	output = e.MakeOutput(w, ht)
	output.(*report).SetUnionValue("text/csv", created{ID: 3})

	e.WriteSuccessfulResponse(w, newRequest(t, http.MethodGet), output, ht)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestEncoder_WriteErrResponse_validation(t *testing.T) {
	e := response.Encoder{}

	w := httptest.NewRecorder()
	e.WriteErrResponse(w, newRequest(t, http.MethodPost), http.StatusUnprocessableEntity, rest.ValidationErrors{{
		Loc:  []string{"query", "limit"},
		Msg:  "Field required",
		Type: "missing",
	}})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assertjson.Equal(t, []byte(`[{"loc":["query","limit"],"msg":"Field required","type":"missing"}]`), w.Body.Bytes())
}
