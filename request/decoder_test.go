package request_test

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggest/rest-openapi"
	"github.com/swaggest/rest-openapi/jsonschema"
	"github.com/swaggest/rest-openapi/openapi"
	"github.com/swaggest/rest-openapi/request"
)

// BenchmarkDecoder_Decode-16    	 1574952	       763.3 ns/op	     624 B/op	       7 allocs/op.
func BenchmarkDecoder_Decode(b *testing.B) {
	df := request.NewDecoderFactory()

	type req struct {
		Query struct {
			Q string `json:"q"`
		}
		Header struct {
			H int `json:"X-H"`
		}
	}

	r, err := http.NewRequest(http.MethodGet, "/?q=abc", nil)
	require.NoError(b, err)

	r.Header.Set("X-H", "123")

	d := df.MakeDecoder(http.MethodGet, new(req))

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		rr := new(req)

		err = d.Decode(r, rr, nil)
		if err != nil {
			b.Fail()
		}
	}
}

type headerParams struct {
	Count int `json:"X-Count" required:"true"` // Header lookup uses canonical names.
}

type cookieParams struct {
	Session string `json:"session"`
}

type queryParams struct {
	Name  string   `json:"name" minLength:"3"`
	Tags  []string `json:"tags"`
	Limit int      `json:"limit" default:"10"`
}

type pathParams struct {
	ID int `json:"id"`
}

type formFields struct {
	Title string `json:"title"`
}

type reqTest struct {
	Header headerParams
	Cookie cookieParams
	Path   pathParams
	Query  queryParams
	Form   formFields
}

func newDecoderFactory(t *testing.T) *request.DecoderFactory {
	t.Helper()

	df := request.NewDecoderFactory()
	df.SetDecoderFunc(rest.ParamInPath, func(_ *http.Request, names []string) (url.Values, error) {
		assert.Equal(t, []string{"id"}, names)

		return url.Values{"id": []string{"42"}}, nil
	})

	return df
}

func TestDecoder_Decode(t *testing.T) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, "/?name=abc&tags=a&tags=b",
		strings.NewReader(url.Values{"title": []string{"def"}}.Encode()))
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("x-count", "123")
	req.AddCookie(&http.Cookie{Name: "session", Value: "jkl"})

	input := new(reqTest)
	dec := newDecoderFactory(t).MakeDecoder(http.MethodPost, input)

	require.NoError(t, dec.Decode(req, input, nil))
	assert.Equal(t, 123, input.Header.Count)
	assert.Equal(t, "jkl", input.Cookie.Session)
	assert.Equal(t, 42, input.Path.ID)
	assert.Equal(t, "abc", input.Query.Name)
	assert.Equal(t, []string{"a", "b"}, input.Query.Tags)
	assert.Equal(t, 0, input.Query.Limit)
	assert.Equal(t, "def", input.Form.Title)
}

func TestDecoderFactory_ApplyDefaults(t *testing.T) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "/?name=abc", nil)
	require.NoError(t, err)

	df := request.NewDecoderFactory()
	df.ApplyDefaults = true

	input := new(struct {
		Query queryParams
	})

	require.NoError(t, df.MakeDecoder(http.MethodGet, input).Decode(req, input, nil))
	assert.Equal(t, 10, input.Query.Limit)
	assert.Equal(t, "abc", input.Query.Name)

	req, err = http.NewRequestWithContext(context.Background(), http.MethodGet, "/?limit=5", nil)
	require.NoError(t, err)

	require.NoError(t, df.MakeDecoder(http.MethodGet, input).Decode(req, input, nil))
	assert.Equal(t, 5, input.Query.Limit)
}

func TestDecoder_Decode_validation(t *testing.T) {
	input := new(reqTest)
	validator := jsonschema.NewFactory(openapi.NewCollector(), openapi.NewCollector()).
		MakeRequestValidator(http.MethodPost, input)

	dec := newDecoderFactory(t).MakeDecoder(http.MethodPost, input)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, "/?name=ab", nil)
	require.NoError(t, err)

	err = dec.Decode(req, input, validator)
	assert.Equal(t, rest.ValidationErrors{{
		Loc:  []string{"header", "X-Count"},
		Msg:  "Field required",
		Type: "missing",
	}}, err)

	req.Header.Set("X-Count", "1")

	err = dec.Decode(req, input, validator)
	assert.Equal(t, rest.ValidationErrors{{
		Loc:  []string{"query", "name"},
		Msg:  "length must be >= 3, but got 2",
		Type: "minLength",
	}}, err)
}

func TestDecoder_Decode_parsingError(t *testing.T) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "/", nil)
	require.NoError(t, err)

	req.Header.Set("X-Count", "abc")

	input := new(struct {
		Header headerParams
	})

	err = request.NewDecoderFactory().MakeDecoder(http.MethodGet, input).Decode(req, input, nil)

	var ve rest.ValidationErrors

	require.ErrorAs(t, err, &ve)
	require.Len(t, ve, 1)
	assert.Equal(t, []string{"header", "X-Count"}, ve[0].Loc)
	assert.Equal(t, "parsing", ve[0].Type)
}

type jsonQuery struct {
	Filter struct {
		Name string `json:"name"`
	} `json:"filter"`
}

func TestDecoder_Decode_jsonParam(t *testing.T) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet,
		"/?filter="+url.QueryEscape(`{"name":"abc"}`), nil)
	require.NoError(t, err)

	input := new(struct {
		Query jsonQuery
	})

	require.NoError(t, request.NewDecoderFactory().MakeDecoder(http.MethodGet, input).Decode(req, input, nil))
	assert.Equal(t, "abc", input.Query.Filter.Name)
}

type loaderInput struct {
	method string
}

func (l *loaderInput) LoadFromHTTPRequest(r *http.Request) error {
	l.method = r.Method

	return nil
}

func TestDecoder_Decode_loader(t *testing.T) {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodDelete, "/", nil)
	require.NoError(t, err)

	input := new(loaderInput)

	require.NoError(t, request.NewDecoderFactory().MakeDecoder(http.MethodDelete, input).Decode(req, input, nil))
	assert.Equal(t, http.MethodDelete, input.method)
}

func TestDecoderFactory_MakeDecoder_invalidInput(t *testing.T) {
	assert.Panics(t, func() {
		request.NewDecoderFactory().MakeDecoder(http.MethodGet, new(struct {
			Query    queryParams
			AltQuery queryParams `in:"query"`
		}))
	})
}

func TestDecoderFunc_Decode(t *testing.T) {
	called := false
	df := request.DecoderFunc(func(_ *http.Request, _ interface{}, _ rest.Validator) error {
		called = true

		return nil
	})

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, "/", bytes.NewReader(nil))
	require.NoError(t, err)

	require.NoError(t, df.Decode(req, nil, nil))
	assert.True(t, called)
}
