package jsonschema_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	jsonschemago "github.com/swaggest/jsonschema-go"
	"github.com/swaggest/rest-openapi"
	"github.com/swaggest/rest-openapi/jsonschema"
	"github.com/swaggest/rest-openapi/openapi"
)

// BenchmarkRequestValidator_ValidateRequestData-4   	  634356	      1761 ns/op	    2496 B/op	       8 allocs/op.
func BenchmarkRequestValidator_ValidateRequestData(b *testing.B) {
	type cookie struct {
		Session string `json:"session" minLength:"3" required:"true"`
	}

	validator := jsonschema.NewFactory(openapi.NewCollector(), openapi.NewCollector()).
		MakeRequestValidator(http.MethodPost, new(struct {
			Cookie cookie
		}))

	b.ResetTimer()
	b.ReportAllocs()

	value := map[string]interface{}{
		"session": "abc",
	}

	for i := 0; i < b.N; i++ {
		err := validator.ValidateData(rest.ParamInCookie, value)
		if err != nil {
			b.Fail()
		}
	}
}

type cookieParams struct {
	Count int `json:"count" minimum:"100" required:"true"`
}

type queryParams struct {
	Name string `json:"name" minLength:"3"`
}

type formFields struct {
	Title string `json:"title" minLength:"3"`
}

func TestRequestValidator_ValidateData(t *testing.T) {
	validator := jsonschema.NewFactory(openapi.NewCollector(), openapi.NewCollector()).
		MakeRequestValidator(http.MethodPost, new(struct {
			Cookie cookieParams
			Query  queryParams
			Form   formFields
		}))

	err := validator.ValidateData(rest.ParamInCookie, map[string]interface{}{"count": "abc"})
	assert.Equal(t, rest.ValidationErrors{{
		Loc:  []string{"cookie", "count"},
		Msg:  "expected integer, but got string",
		Type: "type",
	}}, err)

	err = validator.ValidateData(rest.ParamInCookie, map[string]interface{}{})
	assert.Equal(t, rest.ValidationErrors{{
		Loc:  []string{"cookie", "count"},
		Msg:  "Field required",
		Type: "missing",
	}}, err)

	err = validator.ValidateData(rest.ParamInQuery, map[string]interface{}{"name": 123})
	assert.Equal(t, rest.ValidationErrors{{
		Loc:  []string{"query", "name"},
		Msg:  "expected string, but got number",
		Type: "type",
	}}, err)

	err = validator.ValidateData(rest.ParamInQuery, map[string]interface{}{"name": "ab"})
	assert.Equal(t, rest.ValidationErrors{{
		Loc:  []string{"query", "name"},
		Msg:  "length must be >= 3, but got 2",
		Type: "minLength",
	}}, err)

	assert.NoError(t, validator.ValidateData(rest.ParamInQuery, map[string]interface{}{}))
	assert.NoError(t, validator.ValidateData(rest.ParamInQuery, map[string]interface{}{"unknown": 123}))
	assert.NoError(t, validator.ValidateData("unknown", map[string]interface{}{}))
	assert.NoError(t, validator.ValidateData(rest.ParamInCookie, map[string]interface{}{"count": 123}))

	err = validator.ValidateData(rest.ParamInCookie, map[string]interface{}{"count": 99})
	assert.Equal(t, rest.ValidationErrors{{
		Loc:  []string{"cookie", "count"},
		Msg:  "must be >= 100 but found 99",
		Type: "minimum",
	}}, err)

	assert.NoError(t, validator.ValidateData(rest.ParamInForm, map[string]interface{}{"title": "abc"}))

	err = validator.ValidateData(rest.ParamInForm, map[string]interface{}{"title": "ab"})
	assert.Equal(t, rest.ValidationErrors{{
		Loc:  []string{"form", "title"},
		Msg:  "length must be >= 3, but got 2",
		Type: "minLength",
	}}, err)

	assert.True(t, validator.HasConstraints(rest.ParamInQuery))
	assert.False(t, validator.HasConstraints(rest.ParamInHeader))
}

type item struct {
	Name string `json:"name" required:"true" minLength:"1"`
}

type order struct {
	ID    int    `json:"id" required:"true"`
	Items []item `json:"items" minItems:"1"`
}

func TestRequestValidator_ValidateJSONBody(t *testing.T) {
	validator := jsonschema.NewFactory(openapi.NewCollector(), openapi.NewCollector()).
		MakeRequestValidator(http.MethodPost, new(struct {
			Body order
		}))

	assert.NoError(t, validator.ValidateJSONBody([]byte(`{"id":1,"items":[{"name":"a"}]}`)))

	err := validator.ValidateJSONBody([]byte(`{"items":[{"name":""}]}`))

	var ve rest.ValidationErrors

	require.ErrorAs(t, err, &ve)
	assert.ElementsMatch(t, rest.ValidationErrors{
		{Loc: []string{"body", "id"}, Msg: "Field required", Type: "missing"},
		{Loc: []string{"body", "items", "0", "name"}, Msg: "length must be >= 1, but got 0", Type: "minLength"},
	}, ve)

	assert.Equal(t, map[string]interface{}{
		"body.id":           []string{"Field required"},
		"body.items.0.name": []string{"length must be >= 1, but got 0"},
	}, ve.Fields())
}

func TestFactory_MakeResponseValidator(t *testing.T) {
	validator := jsonschema.NewFactory(openapi.NewCollector(), openapi.NewCollector()).
		MakeResponseValidator(http.StatusOK, "application/json", new(struct {
			Name string `json:"name" minLength:"1"`
		}))

	require.NotNil(t, validator)
	assert.NoError(t, validator.ValidateJSONBody([]byte(`{"name":"John"}`)))
	assert.Error(t, validator.ValidateJSONBody([]byte(`{"name":""}`))) // minLength:"1" violated.

	assert.Nil(t, jsonschema.NewFactory(openapi.NewCollector(), openapi.NewCollector()).
		MakeResponseValidator(http.StatusOK, "text/csv", new(struct {
			Name string `json:"name" minLength:"1"`
		})))
}

func TestNullableTime(t *testing.T) {
	type body struct {
		ExpiryDate *time.Time `json:"expiryDate"`
	}

	validator := jsonschema.NewFactory(openapi.NewCollector(), openapi.NewCollector()).
		MakeRequestValidator(http.MethodPost, new(struct {
			Body body
		}))
	err := validator.ValidateJSONBody([]byte(`{"expiryDate":null}`))

	assert.NoError(t, err, "%+v", err)
}

type strictQuery struct {
	Foo string `json:"foo"`
}

func (strictQuery) PrepareJSONSchema(s *jsonschemago.Schema) error {
	s.WithAdditionalProperties(jsonschemago.SchemaOrBool{TypeBoolean: &falseValue})

	return nil
}

var falseValue = false

func TestValidator_ForbidUnknownParams(t *testing.T) {
	validator := jsonschema.NewFactory(openapi.NewCollector(), openapi.NewCollector()).
		MakeRequestValidator(http.MethodGet, new(struct {
			Query strictQuery
		}))

	err := validator.ValidateData(rest.ParamInQuery, map[string]interface{}{"foo": "bar", "baz": "1"})
	assert.Equal(t, rest.ValidationErrors{{
		Loc:  []string{"query", "baz"},
		Msg:  "Extra inputs are not permitted",
		Type: "extra_forbidden",
	}}, err)
}
