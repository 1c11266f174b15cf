package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggest/refl"
	"github.com/swaggest/usecase"
)

// HandlerWithUseCase is a handler of use case, wraps use it to reflect use case ports.
type HandlerWithUseCase interface {
	UseCase() usecase.Interactor
}

// HandlerWithRoute is a handler that knows its route, pattern may have regular expressions
// of parameters, e.g. "/pets/{id:[0-9]+}".
type HandlerWithRoute interface {
	RouteMethod() string
	RoutePattern() string
}

// HandlerTrait controls basic behavior of rest handler.
type HandlerTrait struct {
	// SuccessStatus is an HTTP status code to set on successful use case interaction.
	//
	// Default is 200 (OK) or 204 (No Content).
	SuccessStatus int

	// SuccessContentType is a Content-Type of successful response, default application/json.
	SuccessContentType string

	// ValidationErrorStatus is an HTTP status code of response to invalid request, default 422.
	ValidationErrorStatus int

	// MakeErrResp overrides error response builder instead of default Err,
	// returned values are HTTP status code and error structure to be marshaled.
	MakeErrResp func(ctx context.Context, err error) (int, interface{})

	// ReqValidator validates decoded request data.
	ReqValidator Validator

	// RespValidator validates decoded response data.
	RespValidator Validator

	// Operation describes documentation of the route.
	Operation OperationInfo

	// OpenAPIAnnotations are called after operation setup and before adding operation to documentation.
	OpenAPIAnnotations []func(op *openapi3.Operation) error
}

// RestHandler is an accessor.
func (h *HandlerTrait) RestHandler() *HandlerTrait {
	return h
}

// ValidationStatus returns status code of response to invalid request.
func (h HandlerTrait) ValidationStatus() int {
	if h.ValidationErrorStatus != 0 {
		return h.ValidationErrorStatus
	}

	return http.StatusUnprocessableEntity
}

// OperationInfo describes documentation of a route.
type OperationInfo struct {
	// Tags are stored uniquely in document, operation without tags is assigned to "default".
	Tags []*openapi3.Tag

	// Summary is a short summary of what the operation does.
	Summary string

	// Description is a verbose explanation of the operation behavior.
	Description string

	// Doc is a multiline text, first line is used as summary and the rest as description
	// unless Summary or Description are set explicitly.
	Doc string

	ExternalDocs *openapi3.ExternalDocs

	// OperationID overrides operation id generated from handler name, path and method.
	OperationID string

	// Responses maps status code to response declaration, declaration can be
	//   - nil for a response without body,
	//   - a model value, or jsonschema.OneOf of models,
	//   - *openapi3.Response to be used as is,
	//   - ResponseSpec with a model and response details.
	Responses map[int]interface{}

	RequestBodyDescription string

	// RequestBodyRequired is true by default.
	RequestBodyRequired *bool

	Deprecated bool
	Security   *openapi3.SecurityRequirements
	Servers    *openapi3.Servers
	Extensions map[string]interface{}

	// Hidden disables documentation of the route, the route is still served.
	Hidden bool
}

// ResponseSpec declares response model with details.
type ResponseSpec struct {
	Model       interface{}
	Description string
	Headers     openapi3.Headers
	Links       openapi3.Links
}

// OutputHasNoContent indicates if output does not seem to have any content body to render in response.
func OutputHasNoContent(output interface{}) bool {
	if output == nil {
		return true
	}

	_, withWriter := output.(usecase.OutputWithWriter)
	_, noContent := output.(usecase.OutputWithNoContent)
	_, isUnion := output.(UnionValuer)

	rv := reflect.ValueOf(output)

	kind := rv.Kind()
	elemKind := reflect.Invalid

	if kind == reflect.Ptr {
		elemKind = rv.Elem().Kind()
	}

	hasTaggedFields := refl.HasTaggedFields(output, "json")
	isSliceOrMap := refl.IsSliceOrMap(output)
	hasEmbeddedSliceOrMap := refl.FindEmbeddedSliceOrMap(output) != nil
	isJSONMarshaler := refl.As(output, new(json.Marshaler))
	isPtrToInterface := elemKind == reflect.Interface
	isScalar := refl.IsScalar(output)

	if withWriter ||
		noContent ||
		isUnion ||
		hasTaggedFields ||
		isSliceOrMap ||
		hasEmbeddedSliceOrMap ||
		isJSONMarshaler ||
		isPtrToInterface ||
		isScalar {
		return false
	}

	return true
}
