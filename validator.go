package rest

import (
	"encoding/json"
	"strings"
)

// Validator validates a map of decoded data.
type Validator interface {
	// ValidateData validates decoded request/response data and returns error in case of invalid data.
	ValidateData(in ParamIn, namedData map[string]interface{}) error

	// ValidateJSONBody validates JSON encoded body and returns error in case of invalid data.
	ValidateJSONBody(jsonBody []byte) error

	// HasConstraints indicates if there are validation rules for parameter location.
	HasConstraints(in ParamIn) bool
}

// ValidatorFunc implements Validator with a func.
type ValidatorFunc func(in ParamIn, namedData map[string]interface{}) error

// ValidateData implements Validator.
func (v ValidatorFunc) ValidateData(in ParamIn, namedData map[string]interface{}) error {
	return v(in, namedData)
}

// HasConstraints indicates if there are validation rules for parameter location.
func (v ValidatorFunc) HasConstraints(_ ParamIn) bool {
	return true
}

// ValidateJSONBody implements Validator.
func (v ValidatorFunc) ValidateJSONBody(body []byte) error {
	return v(ParamInBody, map[string]interface{}{BodySchemaName: json.RawMessage(body)})
}

// BodySchemaName is a name of validation schema for a single model body.
//
// Variants of a body declared with several models are registered by their content types.
const BodySchemaName = "body"

// RequestJSONSchemaProvider provides request JSON Schemas.
type RequestJSONSchemaProvider interface {
	ProvideRequestJSONSchemas(
		method string,
		input interface{},
		validator JSONSchemaValidator,
	) error
}

// ResponseJSONSchemaProvider provides response JSON Schemas.
type ResponseJSONSchemaProvider interface {
	ProvideResponseJSONSchemas(
		statusCode int,
		contentType string,
		output interface{},
		validator JSONSchemaValidator,
	) error
}

// JSONSchemaValidator defines JSON schema validator.
type JSONSchemaValidator interface {
	Validator

	// AddSchema accepts JSON schema for a request parameter or response value.
	AddSchema(in ParamIn, name string, schemaData []byte, required bool) error
}

// RequestValidatorFactory creates request validator for particular structured Go input value.
type RequestValidatorFactory interface {
	MakeRequestValidator(method string, input interface{}) Validator
}

// ResponseValidatorFactory creates response validator for particular structured Go output value.
type ResponseValidatorFactory interface {
	MakeResponseValidator(
		statusCode int,
		contentType string,
		output interface{},
	) Validator
}

// ValidationError describes a single invalid value.
type ValidationError struct {
	Loc  []string               `json:"loc" title:"Location" description:"Location of invalid value."`
	Msg  string                 `json:"msg" title:"Message"`
	Type string                 `json:"type" title:"Error Type"`
	Ctx  map[string]interface{} `json:"ctx,omitempty" title:"Error context"`
}

// Title implements Titled.
func (ValidationError) Title() string {
	return "ValidationErrorModel"
}

// ValidationErrors is a list of validation errors, it is rendered as response body of invalid request.
type ValidationErrors []ValidationError

// Error returns error message.
func (ve ValidationErrors) Error() string {
	return "validation failed"
}

// Fields returns validation messages by location.
func (ve ValidationErrors) Fields() map[string]interface{} {
	res := make(map[string]interface{}, len(ve))

	for _, e := range ve {
		k := strings.Join(e.Loc, ".")

		msgs, _ := res[k].([]string) //nolint:errcheck
		res[k] = append(msgs, e.Msg)
	}

	return res
}
