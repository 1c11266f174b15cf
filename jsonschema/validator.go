// Package jsonschema implements request validator with github.com/santhosh-tekuri/jsonschema/v3.
package jsonschema

import (
	"bytes"
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v3"
	"github.com/swaggest/rest-openapi"
)

var _ rest.Validator = &Validator{}

var (
	missingProperty = regexp.MustCompile(`"([^"]+)"`)
	wholeRational   = regexp.MustCompile(`\b(-?\d+)/1\b`)
)

// Validator is a JSON Schema based validator.
type Validator struct {
	// JSONMarshal controls custom marshaler, nil value enables "encoding/json".
	JSONMarshal func(interface{}) ([]byte, error)

	inNamedSchemas map[rest.ParamIn]map[string]*jsonschema.Schema
	inRequired     map[rest.ParamIn][]string
	forbidUnknown  map[rest.ParamIn]bool
}

// NewFactory creates new validator factory.
func NewFactory(
	requestSchemas rest.RequestJSONSchemaProvider,
	responseSchemas rest.ResponseJSONSchemaProvider,
) Factory {
	return Factory{
		requestSchemas:  requestSchemas,
		responseSchemas: responseSchemas,
	}
}

// Factory makes JSON Schema request validators.
//
// Please use NewFactory to create an instance.
type Factory struct {
	// JSONMarshal controls custom marshaler, nil value enables "encoding/json".
	JSONMarshal func(interface{}) ([]byte, error)

	requestSchemas  rest.RequestJSONSchemaProvider
	responseSchemas rest.ResponseJSONSchemaProvider
}

// MakeRequestValidator creates request validator for HTTP method and input structure.
func (f Factory) MakeRequestValidator(
	method string,
	input interface{},
) rest.Validator {
	v := Validator{
		JSONMarshal: f.JSONMarshal,
	}

	err := f.requestSchemas.ProvideRequestJSONSchemas(method, input, &v)
	if err != nil {
		panic(err)
	}

	return &v
}

// MakeResponseValidator creates response validator.
func (f Factory) MakeResponseValidator(
	statusCode int,
	contentType string,
	output interface{},
) rest.Validator {
	v := Validator{
		JSONMarshal: f.JSONMarshal,
	}

	err := f.responseSchemas.ProvideResponseJSONSchemas(statusCode, contentType, output, &v)
	if err != nil {
		panic(err)
	}

	if len(v.inNamedSchemas) == 0 {
		return nil
	}

	return &v
}

// ForbidUnknownParams configures if unknown parameters should be forbidden.
func (v *Validator) ForbidUnknownParams(in rest.ParamIn, forbidden bool) {
	if v.forbidUnknown == nil {
		v.forbidUnknown = make(map[rest.ParamIn]bool)
	}

	v.forbidUnknown[in] = forbidden
}

// AddSchema registers schema for validation.
func (v *Validator) AddSchema(in rest.ParamIn, name string, jsonSchema []byte, required bool) error {
	if v.JSONMarshal == nil {
		v.JSONMarshal = json.Marshal
	}

	if v.inNamedSchemas == nil {
		v.inNamedSchemas = make(map[rest.ParamIn]map[string]*jsonschema.Schema)
		v.inRequired = make(map[rest.ParamIn][]string)
	}

	if _, ok := v.inNamedSchemas[in]; !ok {
		v.inNamedSchemas[in] = make(map[string]*jsonschema.Schema)
		v.inRequired[in] = make([]string, 0)
	}

	if required {
		v.inRequired[in] = append(v.inRequired[in], name)
	}

	if len(jsonSchema) == 0 {
		v.inNamedSchemas[in][name] = nil

		return nil
	}

	compiler := jsonschema.NewCompiler()

	err := compiler.AddResource("schema.json", bytes.NewBuffer(jsonSchema))
	if err != nil {
		return err
	}

	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return err
	}

	v.inNamedSchemas[in][name] = schema

	return nil
}

// ValidateJSONBody performs validation of JSON body.
func (v *Validator) ValidateJSONBody(jsonBody []byte) error {
	return v.ValidateData(rest.ParamInBody, map[string]interface{}{rest.BodySchemaName: json.RawMessage(jsonBody)})
}

// HasConstraints indicates if there are validation rules for parameter location.
func (v *Validator) HasConstraints(in rest.ParamIn) bool {
	return len(v.inNamedSchemas[in]) > 0
}

// ValidateData performs validation of a mapped request data.
//
// Errors are located by parameter location and name followed by path of invalid value,
// body errors are located by "body" followed by path of invalid value.
func (v *Validator) ValidateData(in rest.ParamIn, namedData map[string]interface{}) error {
	var errs rest.ValidationErrors

	for _, name := range v.inRequired[in] {
		if _, ok := namedData[name]; !ok {
			errs = append(errs, rest.ValidationError{
				Loc:  location(in, name),
				Msg:  "Field required",
				Type: "missing",
			})
		}
	}

	names := make([]string, 0, len(namedData))
	for name := range namedData {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		value := namedData[name]

		schema, found := v.inNamedSchemas[in][name]
		if !found {
			if v.forbidUnknown[in] {
				errs = append(errs, rest.ValidationError{
					Loc:  location(in, name),
					Msg:  "Extra inputs are not permitted",
					Type: "extra_forbidden",
				})
			}

			continue
		}

		if schema == nil {
			continue
		}

		jsonValue, ok := value.(json.RawMessage)
		if !ok {
			var err error

			if jsonValue, err = v.JSONMarshal(value); err != nil {
				return err
			}
		}

		err := schema.Validate(bytes.NewBuffer(jsonValue))
		if err == nil {
			continue
		}

		//nolint:errorlint // Error is not wrapped, type assertion is more performant.
		if ve, ok := err.(*jsonschema.ValidationError); ok {
			errs = appendError(errs, location(in, name), ve)
		} else {
			errs = append(errs, rest.ValidationError{
				Loc:  location(in, name),
				Msg:  err.Error(),
				Type: "json_invalid",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func location(in rest.ParamIn, name string) []string {
	if in == rest.ParamInBody {
		return []string{string(in)}
	}

	return []string{string(in), name}
}

// appendError adds leaf causes of validation error, each cause is located by instance pointer.
func appendError(errs rest.ValidationErrors, loc []string, err *jsonschema.ValidationError) rest.ValidationErrors {
	if len(err.Causes) > 0 {
		for _, ec := range err.Causes {
			errs = appendError(errs, loc, ec)
		}

		return errs
	}

	errLoc := append(append([]string(nil), loc...), pointerPath(err.InstancePtr)...)
	keyword := errorType(err.SchemaPtr)

	if keyword == "required" {
		for _, m := range missingProperty.FindAllStringSubmatch(err.Message, -1) {
			errs = append(errs, rest.ValidationError{
				Loc:  append(append([]string(nil), errLoc...), m[1]),
				Msg:  "Field required",
				Type: "missing",
			})
		}

		return errs
	}

	return append(errs, rest.ValidationError{
		Loc:  errLoc,
		Msg:  errorMessage(err.Message),
		Type: keyword,
	})
}

// errorMessage renders whole rational bounds as integers, e.g. "must be >= 0/1" as "must be >= 0".
func errorMessage(msg string) string {
	return wholeRational.ReplaceAllString(msg, "$1")
}

// pointerPath splits JSON pointer of instance, e.g. "#/items/0/name".
func pointerPath(ptr string) []string {
	ptr = strings.TrimPrefix(strings.TrimPrefix(ptr, "#"), "/")
	if ptr == "" {
		return nil
	}

	segments := strings.Split(ptr, "/")
	for i, s := range segments {
		segments[i] = strings.ReplaceAll(strings.ReplaceAll(s, "~1", "/"), "~0", "~")
	}

	return segments
}

// errorType returns schema keyword of a failed validation, e.g. "minLength" for "#/properties/name/minLength".
func errorType(schemaPtr string) string {
	if i := strings.LastIndex(schemaPtr, "/"); i >= 0 && i < len(schemaPtr)-1 {
		return schemaPtr[i+1:]
	}

	return "value_error"
}
