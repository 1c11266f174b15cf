package rest

import (
	"fmt"
	"reflect"
	"strings"
)

// ParamIn defines a part of request that is mapped into handler input.
type ParamIn string

const (
	// ParamInPath indicates path parameters, such as `/users/{id}`.
	ParamInPath = ParamIn("path")

	// ParamInQuery indicates query parameters, such as `/users?page=10`.
	ParamInQuery = ParamIn("query")

	// ParamInHeader indicates header parameters, such as `X-Header: value`.
	ParamInHeader = ParamIn("header")

	// ParamInCookie indicates cookie parameters, which are passed in the `Cookie` header,
	// such as `Cookie: debug=0; gdpr=2`.
	ParamInCookie = ParamIn("cookie")

	// ParamInForm indicates urlencoded or multipart form body.
	ParamInForm = ParamIn("form")

	// ParamInBody indicates structured body value, such as `{"id": 10}`.
	ParamInBody = ParamIn("body")

	// ParamInRaw indicates body passed to handler without decoding.
	ParamInRaw = ParamIn("raw")
)

// ParamIns lists request parts in the order of their documentation and decoding.
var ParamIns = []ParamIn{
	ParamInHeader, ParamInCookie, ParamInPath, ParamInQuery, ParamInForm, ParamInBody, ParamInRaw,
}

// InputField is a field of handler input that receives a part of request.
type InputField struct {
	In    ParamIn
	Name  string
	Index []int

	// Type is a model type of the field, pointer is dereferenced.
	Type reflect.Type

	// Ptr indicates field of pointer type.
	Ptr bool
}

// Model returns a new instance of field model as pointer.
func (f InputField) Model() interface{} {
	return reflect.New(f.Type).Interface()
}

// Value returns addressable field value of input, allocating pointer field if necessary.
func (f InputField) Value(input reflect.Value) reflect.Value {
	for input.Kind() == reflect.Ptr {
		input = input.Elem()
	}

	v := input.FieldByIndex(f.Index)

	if f.Ptr {
		if v.IsNil() {
			v.Set(reflect.New(f.Type))
		}

		return v.Elem()
	}

	return v
}

// InputFields lists request parts declared by a handler input structure.
//
// A part is declared by an exported field named after it (Header, Cookie, Path, Query, Form, Body, Raw)
// or by a field with `in` tag, e.g. `in:"query"`. Each part can be declared only once.
func InputFields(input interface{}) ([]InputField, error) {
	if input == nil {
		return nil, nil
	}

	t := reflect.TypeOf(input)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: struct expected, %s received", ErrInvalidInput, t.String())
	}

	var (
		fields []InputField
		seen   = map[ParamIn]string{}
	)

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)

		if sf.PkgPath != "" {
			continue
		}

		in, ok := fieldParamIn(sf)
		if !ok {
			continue
		}

		if prev, exists := seen[in]; exists {
			return nil, fmt.Errorf("%w: %s is declared by both %s and %s", ErrInvalidInput, in, prev, sf.Name)
		}

		seen[in] = sf.Name

		f := InputField{
			In:    in,
			Name:  sf.Name,
			Index: sf.Index,
			Type:  sf.Type,
		}

		if f.Type.Kind() == reflect.Ptr {
			f.Type = f.Type.Elem()
			f.Ptr = true
		}

		fields = append(fields, f)
	}

	return fields, nil
}

func fieldParamIn(sf reflect.StructField) (ParamIn, bool) {
	if tag, ok := sf.Tag.Lookup("in"); ok {
		if tag == "" || tag == "-" {
			return "", false
		}

		in := ParamIn(tag)
		for _, known := range ParamIns {
			if in == known {
				return in, true
			}
		}

		return "", false
	}

	in := ParamIn(strings.ToLower(sf.Name))
	for _, known := range ParamIns {
		if in == known {
			return in, true
		}
	}

	return "", false
}

// RawBody is a request payload passed to handler as is.
//
// Accepted content types can be declared by implementing MimeTyper on a type that embeds RawBody,
// application/json is accepted by default.
type RawBody struct {
	ContentType string
	Data        []byte
}

// MimeTyper declares accepted content types of a raw body.
type MimeTyper interface {
	MimeTypes() []string
}

// MimeTypesOf returns accepted content types of a raw body model.
func MimeTypesOf(model interface{}) []string {
	if mt, ok := model.(MimeTyper); ok {
		if m := mt.MimeTypes(); len(m) > 0 {
			return m
		}
	}

	return []string{"application/json"}
}

// SetRawBody implements raw body loader.
func (r *RawBody) SetRawBody(contentType string, data []byte) {
	r.ContentType = contentType
	r.Data = data
}

// RawBodySetter receives raw request payload.
type RawBodySetter interface {
	SetRawBody(contentType string, data []byte)
}

// BodyLoader loads request body of a non-JSON content type into a body model.
type BodyLoader interface {
	LoadBody(contentType string, data []byte) error
}

// UnionSetter receives decoded variant of a value declared with several models.
type UnionSetter interface {
	SetUnionValue(contentType string, value interface{})
}

// UnionValuer exposes selected variant of a value declared with several models.
type UnionValuer interface {
	UnionValue() (contentType string, value interface{})
}

// Union keeps a variant of a request body or response declared with several models.
//
// Embed Union into a type that implements jsonschema.OneOfExposer to list the models.
type Union struct {
	contentType string
	value       interface{}
}

// SetUnionValue sets variant value and its content type.
func (u *Union) SetUnionValue(contentType string, value interface{}) {
	u.contentType = contentType
	u.value = value
}

// UnionValue returns variant value and its content type.
func (u Union) UnionValue() (string, interface{}) {
	return u.contentType, u.value
}
