package request

import (
	"errors"
	"net/http"
	"net/url"
	"reflect"
	"sort"

	"github.com/swaggest/form/v5"
	"github.com/swaggest/rest-openapi"
	"github.com/swaggest/rest-openapi/nethttp"
)

type (
	// Loader loads data from http.Request.
	//
	// Implement this interface on a pointer to your input structure to disable automatic request mapping.
	Loader interface {
		LoadFromHTTPRequest(r *http.Request) error
	}

	valueDecoderFunc func(r *http.Request, input reflect.Value, validator rest.Validator) error
)

func decodeValidate(d *form.Decoder, v interface{}, p url.Values, in rest.ParamIn, val rest.Validator) error {
	goValues := make(map[string]interface{}, len(p))

	err := d.Decode(v, p, goValues)
	if err != nil {
		return err
	}

	if len(p) > len(goValues) {
		for k := range p {
			if _, exists := goValues[k]; !exists {
				pk := p[k]
				switch len(pk) {
				case 0:
					goValues[k] = nil
				case 1:
					goValues[k] = pk[0]
				default:
					goValues[k] = pk
				}
			}
		}
	}

	return val.ValidateData(in, goValues)
}

func makeDecoder(f rest.InputField, formDecoder *form.Decoder, names []string, valuesFunc ValuesFunc) valueDecoderFunc {
	return func(r *http.Request, input reflect.Value, validator rest.Validator) error {
		values, err := valuesFunc(r, names)
		if err != nil {
			return err
		}

		v := f.Value(input).Addr().Interface()

		if validator != nil {
			return decodeValidate(formDecoder, v, values, f.In, validator)
		}

		return formDecoder.Decode(v, values)
	}
}

// decoder extracts Go value from *http.Request.
type decoder struct {
	decoders []valueDecoderFunc
	in       []rest.ParamIn
}

var _ nethttp.RequestDecoder = &decoder{}

// Decode populates and validates input with data from http request.
func (d *decoder) Decode(r *http.Request, input interface{}, validator rest.Validator) error {
	if i, ok := input.(Loader); ok {
		return i.LoadFromHTTPRequest(r)
	}

	iv := reflect.ValueOf(input)

	for i, decode := range d.decoders {
		err := decode(r, iv, validator)
		if err != nil {
			// nolint:errorlint // Error is not wrapped, type assertion is more performant.
			if de, ok := err.(form.DecodeErrors); ok {
				return decodeErrors(d.in[i], de)
			}

			return err
		}
	}

	return nil
}

func decodeErrors(in rest.ParamIn, de form.DecodeErrors) rest.ValidationErrors {
	names := make([]string, 0, len(de))
	for name := range de {
		names = append(names, name)
	}

	sort.Strings(names)

	errs := make(rest.ValidationErrors, 0, len(de))
	for _, name := range names {
		errs = append(errs, rest.ValidationError{
			Loc:  []string{string(in), name},
			Msg:  de[name].Error(),
			Type: "parsing",
		})
	}

	return errs
}

func headerToURLValues(r *http.Request, names []string) (url.Values, error) {
	params := make(url.Values, len(names))

	for _, name := range names {
		if v := r.Header.Values(name); len(v) > 0 {
			params[name] = v
		}
	}

	return params, nil
}

func queryToURLValues(r *http.Request, _ []string) (url.Values, error) {
	return r.URL.Query(), nil
}

func cookiesToURLValues(r *http.Request, names []string) (url.Values, error) {
	params := make(url.Values, len(names))

	for _, name := range names {
		c, err := r.Cookie(name)
		if err != nil {
			if errors.Is(err, http.ErrNoCookie) {
				continue
			}

			return nil, err
		}

		params[name] = []string{c.Value}
	}

	return params, nil
}
