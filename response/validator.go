package response

import (
	"net/http"

	"github.com/swaggest/rest-openapi"
	"github.com/swaggest/rest-openapi/nethttp"
	"github.com/swaggest/usecase"
)

type withRestHandler interface {
	RestHandler() *rest.HandlerTrait
}

// useCaseOutput finds handler trait and output port of use case behind handler.
func useCaseOutput(handler http.Handler) (*rest.HandlerTrait, interface{}, bool) {
	var (
		withUseCase rest.HandlerWithUseCase
		trait       withRestHandler
		withOutput  usecase.HasOutputPort
	)

	if !nethttp.HandlerAs(handler, &trait) ||
		!nethttp.HandlerAs(handler, &withUseCase) ||
		!usecase.As(withUseCase.UseCase(), &withOutput) {
		return nil, nil, false
	}

	return trait.RestHandler(), withOutput.OutputPort(), true
}

// validatedStatus is the status that successful responses of handler are validated against.
func validatedStatus(ht *rest.HandlerTrait, output interface{}) int {
	switch {
	case ht.SuccessStatus != 0:
		return ht.SuccessStatus
	case rest.OutputHasNoContent(output):
		return http.StatusNoContent
	}

	if ws, ok := output.(rest.OutputWithHTTPStatus); ok {
		return ws.HTTPStatus()
	}

	return http.StatusOK
}

// ValidatorMiddleware makes response validator for use case handlers.
//
// Validator checks body and headers of successful responses against JSON schemas of use case output,
// invalid response is replaced with 500 Internal Server Error.
func ValidatorMiddleware(factory rest.ResponseValidatorFactory) func(http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		if nethttp.IsWrapperChecker(handler) {
			return handler
		}

		ht, output, ok := useCaseOutput(handler)
		if !ok {
			return handler
		}

		ht.RespValidator = factory.MakeResponseValidator(validatedStatus(ht, output), ht.SuccessContentType, output)

		return handler
	}
}
