package rest_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggest/rest-openapi"
	"github.com/swaggest/usecase"
	"github.com/swaggest/usecase/status"
)

func TestHTTPStatusFromCanonicalCode(t *testing.T) {
	for c, want := range map[status.Code]int{
		status.OK:               http.StatusOK,
		status.Canceled:         http.StatusInternalServerError,
		status.InvalidArgument:  http.StatusBadRequest,
		status.NotFound:         http.StatusNotFound,
		status.AlreadyExists:    http.StatusConflict,
		status.Unauthenticated:  http.StatusUnauthorized,
		status.DataLoss:         http.StatusInternalServerError,
		status.DeadlineExceeded: http.StatusGatewayTimeout,
		status.Code(100):        http.StatusInternalServerError,
	} {
		assert.Equal(t, want, rest.HTTPStatusFromCanonicalCode(c), c.String())
	}
}

type errWithHTTPStatus int

func (e errWithHTTPStatus) Error() string {
	return "pet is gone"
}

func (e errWithHTTPStatus) HTTPStatus() int {
	return int(e)
}

// statusOnly is an error with message of status text.
type statusOnly status.Code

func (s statusOnly) Error() string {
	return status.Code(s).String()
}

func (s statusOnly) Status() status.Code {
	return status.Code(s)
}

func TestErr(t *testing.T) {
	for _, tc := range []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			name:   "use case error",
			err:    usecase.Error{StatusCode: status.InvalidArgument, Value: errors.New("bad name"), Context: map[string]interface{}{"name": "?"}},
			status: http.StatusBadRequest,
			body:   `{"status":"INVALID_ARGUMENT","error":"invalid argument: bad name","context":{"name":"?"}}`,
		},
		{
			name:   "bare status",
			err:    status.NotFound,
			status: http.StatusNotFound,
			body:   `{"status":"NOT_FOUND","error":"not found"}`,
		},
		{
			name:   "app code",
			err:    usecase.Error{AppCode: 123, StatusCode: status.AlreadyExists, Value: errors.New("pet exists")},
			status: http.StatusConflict,
			body:   `{"status":"ALREADY_EXISTS","code":123,"error":"already exists: pet exists"}`,
		},
		{
			name:   "http status",
			err:    fmt.Errorf("get pet: %w", errWithHTTPStatus(http.StatusGone)),
			status: http.StatusGone,
			body:   `{"error":"get pet: pet is gone"}`,
		},
		{
			name:   "http status over canonical",
			err:    status.Wrap(rest.HTTPCodeAsError(http.StatusTeapot), status.Internal),
			status: http.StatusTeapot,
			body:   `{"status":"INTERNAL","error":"internal: I'm a teapot"}`,
		},
		{
			name:   "plain",
			err:    errors.New("failed"),
			status: http.StatusInternalServerError,
			body:   `{"error":"failed"}`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			code, er := rest.Err(tc.err)

			assert.Equal(t, tc.status, code)
			assert.Equal(t, tc.err, er.Unwrap())

			j, err := json.Marshal(er)
			require.NoError(t, err)
			assert.JSONEq(t, tc.body, string(j))
		})
	}

	_, er := rest.Err(statusOnly(status.DataLoss))
	assert.Empty(t, er.ErrorText)
	assert.Equal(t, "DATA_LOSS", er.Error())

	assert.Panics(t, func() {
		_, _ = rest.Err(nil) //nolint:errcheck
	})
}
