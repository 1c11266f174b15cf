package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/rest-openapi"
)

func readJSON(rd io.Reader, v interface{}) error {
	d := json.NewDecoder(rd)

	return d.Decode(v)
}

// readBody reads request body and keeps it available for further reads.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	b, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}

	if err := r.Body.Close(); err != nil {
		return nil, err
	}

	r.Body = io.NopCloser(bytes.NewReader(b))

	return b, nil
}

// makeBodyDecoder decodes body model, a model declared with several variants receives the variant
// that matches request content type.
func (df *DecoderFactory) makeBodyDecoder(f rest.InputField) valueDecoderFunc {
	jsonReader := df.JSONReader
	if jsonReader == nil {
		jsonReader = readJSON
	}

	model := f.Model()

	if oneOf, ok := model.(jsonschema.OneOfExposer); ok {
		if _, ok := model.(rest.UnionSetter); ok {
			return makeUnionBodyDecoder(f, oneOf.JSONSchemaOneOf(), jsonReader)
		}
	}

	bodyContentType := rest.ContentTypeOf(model, "application/json")

	return func(r *http.Request, input reflect.Value, validator rest.Validator) error {
		b, err := readBody(r)
		if err != nil {
			return err
		}

		if len(b) == 0 {
			return missingBody()
		}

		contentType := r.Header.Get("Content-Type")
		v := f.Value(input).Addr().Interface()

		if !rest.IsApplicationJSON(bodyContentType) {
			return loadBody(v, contentType, b)
		}

		if contentType != "" && !rest.IsApplicationJSON(contentType) {
			return fmt.Errorf("%w, received: %s", ErrJSONExpected, contentType)
		}

		return decodeJSONBody(jsonReader, b, v, validator, rest.BodySchemaName)
	}
}

func makeUnionBodyDecoder(
	f rest.InputField,
	variants []interface{},
	jsonReader func(rd io.Reader, v interface{}) error,
) valueDecoderFunc {
	variantTypes := make(map[string]reflect.Type, len(variants))
	firstJSON := ""

	for _, v := range variants {
		mediaType := rest.MediaType(rest.ContentTypeOf(v, "application/json"))
		variantTypes[mediaType] = reflect.TypeOf(v)

		if firstJSON == "" && rest.IsApplicationJSON(mediaType) {
			firstJSON = mediaType
		}
	}

	return func(r *http.Request, input reflect.Value, validator rest.Validator) error {
		b, err := readBody(r)
		if err != nil {
			return err
		}

		if len(b) == 0 {
			return missingBody()
		}

		contentType := r.Header.Get("Content-Type")

		mediaType := rest.MediaType(contentType)
		if mediaType == "" {
			mediaType = firstJSON
		}

		t, ok := variantTypes[mediaType]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
		}

		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}

		value := reflect.New(t)

		if rest.IsApplicationJSON(mediaType) {
			err = decodeJSONBody(jsonReader, b, value.Interface(), validator, mediaType)
		} else {
			err = loadBody(value.Interface(), contentType, b)
		}

		if err != nil {
			return err
		}

		setter, _ := f.Value(input).Addr().Interface().(rest.UnionSetter) //nolint:errcheck
		setter.SetUnionValue(mediaType, value.Elem().Interface())

		return nil
	}
}

func decodeJSONBody(
	jsonReader func(rd io.Reader, v interface{}) error,
	b []byte,
	v interface{},
	validator rest.Validator,
	schemaName string,
) error {
	if validator != nil && validator.HasConstraints(rest.ParamInBody) {
		if err := validator.ValidateData(rest.ParamInBody, map[string]interface{}{schemaName: json.RawMessage(b)}); err != nil {
			return err
		}
	}

	if err := jsonReader(bytes.NewReader(b), v); err != nil {
		return fmt.Errorf("failed to decode json: %w", err)
	}

	return nil
}

func loadBody(v interface{}, contentType string, b []byte) error {
	if l, ok := v.(rest.BodyLoader); ok {
		return l.LoadBody(contentType, b)
	}

	if s, ok := v.(rest.RawBodySetter); ok {
		s.SetRawBody(contentType, b)

		return nil
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
}

func missingBody() error {
	return rest.ValidationErrors{{
		Loc:  []string{string(rest.ParamInBody)},
		Msg:  "Field required",
		Type: "missing",
	}}
}

// makeRawDecoder passes request payload to raw body model.
func makeRawDecoder(f rest.InputField) valueDecoderFunc {
	return func(r *http.Request, input reflect.Value, _ rest.Validator) error {
		b, err := readBody(r)
		if err != nil {
			return err
		}

		setter, ok := f.Value(input).Addr().Interface().(rest.RawBodySetter)
		if !ok {
			return fmt.Errorf("%w: %s does not implement SetRawBody", rest.ErrInvalidInput, f.Type.String())
		}

		setter.SetRawBody(r.Header.Get("Content-Type"), b)

		return nil
	}
}
