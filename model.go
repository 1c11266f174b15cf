package rest

import (
	"reflect"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPIExtra customizes documentation of a form, body or response model.
type OpenAPIExtra struct {
	// ContentType overrides default content type of a model,
	// application/json for bodies and responses, multipart/form-data for forms.
	ContentType string

	// ContentSchema describes payload of a non-JSON content type, default {"type": "string"}.
	ContentSchema *openapi3.Schema

	Example  interface{}
	Examples openapi3.Examples
	Encoding map[string]*openapi3.Encoding
}

// ExtraExposer provides documentation options of a model.
type ExtraExposer interface {
	OpenAPIExtra() OpenAPIExtra
}

// Titled overrides component name of a model.
type Titled interface {
	Title() string
}

// ExtraOf returns documentation options of a model, model can be a value or a pointer.
func ExtraOf(model interface{}) (OpenAPIExtra, bool) {
	if model == nil {
		return OpenAPIExtra{}, false
	}

	if e, ok := model.(ExtraExposer); ok {
		return e.OpenAPIExtra(), true
	}

	v := reflect.ValueOf(model)
	if v.Kind() != reflect.Ptr {
		p := reflect.New(v.Type())
		p.Elem().Set(v)

		if e, ok := p.Interface().(ExtraExposer); ok {
			return e.OpenAPIExtra(), true
		}
	} else if !v.IsNil() {
		if e, ok := v.Elem().Interface().(ExtraExposer); ok {
			return e.OpenAPIExtra(), true
		}
	}

	return OpenAPIExtra{}, false
}

// ContentTypeOf returns content type of a model or default value.
func ContentTypeOf(model interface{}, defaultContentType string) string {
	if e, ok := ExtraOf(model); ok && e.ContentType != "" {
		return e.ContentType
	}

	return defaultContentType
}

// IsApplicationJSON checks whether content type carries JSON payload, e.g. application/vnd.dog+json.
func IsApplicationJSON(contentType string) bool {
	return strings.Contains(contentType, "application") && strings.Contains(contentType, "json")
}

// MediaType strips parameters from content type value, e.g. "text/csv; charset=utf-8" becomes "text/csv".
func MediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}

	return strings.ToLower(strings.TrimSpace(contentType))
}
