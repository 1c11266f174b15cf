package rest

import (
	"errors"
	"net/http"

	"github.com/swaggest/usecase/status"
)

// ErrInvalidInput indicates handler input structure that can not be mapped to request.
var ErrInvalidInput = errors.New("invalid handler input")

// HTTPCodeAsError is an HTTP status that a use case can return as error, e.g. rest.HTTPCodeAsError(http.StatusGone).
type HTTPCodeAsError int

// Error returns status text.
func (c HTTPCodeAsError) Error() string {
	return http.StatusText(int(c))
}

// HTTPStatus returns status code.
func (c HTTPCodeAsError) HTTPStatus() int {
	return int(c)
}

// ErrWithHTTPStatus is an error with response status.
type ErrWithHTTPStatus interface {
	error
	HTTPStatus() int
}

// ErrWithFields is an error with structured context, context is exposed in response.
type ErrWithFields interface {
	error
	Fields() map[string]interface{}
}

// ErrWithAppCode is an error with application error code.
type ErrWithAppCode interface {
	error
	AppErrCode() int
}

// ErrWithCanonicalStatus is an error with use case status, e.g. status.NotFound.
type ErrWithCanonicalStatus interface {
	error
	Status() status.Code
}

// Err resolves response status and body of a failed operation.
//
// Status is taken from HTTP status of error, then from canonical use case status, 500 by default:
//
//	rest.Err(status.NotFound) // 404, {"status":"NOT_FOUND","error":"not found"}
func Err(err error) (int, ErrResponse) {
	if err == nil {
		panic("nil error received")
	}

	er := ErrResponse{
		ErrorText:      err.Error(),
		err:            err,
		httpStatusCode: http.StatusInternalServerError,
	}

	var (
		withCanonicalStatus ErrWithCanonicalStatus
		withHTTPStatus      ErrWithHTTPStatus
		withAppCode         ErrWithAppCode
		withFields          ErrWithFields
	)

	if errors.As(err, &withCanonicalStatus) {
		code := withCanonicalStatus.Status()
		er.StatusText = code.String()
		er.httpStatusCode = HTTPStatusFromCanonicalCode(code)
	}

	if errors.As(err, &withHTTPStatus) {
		er.httpStatusCode = withHTTPStatus.HTTPStatus()
	}

	if errors.As(err, &withAppCode) {
		er.AppCode = withAppCode.AppErrCode()
	}

	if errors.As(err, &withFields) {
		er.Context = withFields.Fields()
	}

	// Message that repeats status text is omitted.
	if er.ErrorText == er.StatusText {
		er.ErrorText = ""
	}

	return er.httpStatusCode, er
}

// ErrResponse is a body of error response, it is documented as a component for expected errors of operations.
type ErrResponse struct {
	StatusText string                 `json:"status,omitempty" description:"Status text."`
	AppCode    int                    `json:"code,omitempty" description:"Application-specific error code."`
	ErrorText  string                 `json:"error,omitempty" description:"Error message."`
	Context    map[string]interface{} `json:"context,omitempty" description:"Application context."`

	err            error
	httpStatusCode int
}

// Error returns error message or status text if message is empty.
func (e ErrResponse) Error() string {
	if e.ErrorText == "" {
		return e.StatusText
	}

	return e.ErrorText
}

// Unwrap returns original error.
func (e ErrResponse) Unwrap() error {
	return e.err
}

// canonicalHTTPStatus maps use case status codes to HTTP, missing codes are served as 500.
//
// Canceled is not mapped to nginx specific 499 Client Closed Request for compatibility.
var canonicalHTTPStatus = map[status.Code]int{
	status.OK:                 http.StatusOK,
	status.InvalidArgument:    http.StatusBadRequest,
	status.OutOfRange:         http.StatusBadRequest,
	status.Unauthenticated:    http.StatusUnauthorized,
	status.PermissionDenied:   http.StatusForbidden,
	status.NotFound:           http.StatusNotFound,
	status.AlreadyExists:      http.StatusConflict,
	status.Aborted:            http.StatusConflict,
	status.FailedPrecondition: http.StatusPreconditionFailed,
	status.ResourceExhausted:  http.StatusTooManyRequests,
	status.Unimplemented:      http.StatusNotImplemented,
	status.Unavailable:        http.StatusServiceUnavailable,
	status.DeadlineExceeded:   http.StatusGatewayTimeout,
}

// HTTPStatusFromCanonicalCode returns HTTP status of use case status code.
func HTTPStatusFromCanonicalCode(c status.Code) int {
	if code, ok := canonicalHTTPStatus[c]; ok {
		return code
	}

	return http.StatusInternalServerError
}
