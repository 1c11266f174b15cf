package request

import (
	"net/http"

	"github.com/swaggest/rest-openapi"
	"github.com/swaggest/rest-openapi/nethttp"
	"github.com/swaggest/usecase"
)

type requestDecoderSetter interface {
	SetRequestDecoder(nethttp.RequestDecoder)
}

// DecoderMiddleware sets up request decoder in suitable handlers.
func DecoderMiddleware(factory DecoderMaker) func(http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		if nethttp.IsWrapperChecker(handler) {
			return handler
		}

		var (
			withRoute         rest.HandlerWithRoute
			withUseCase       rest.HandlerWithUseCase
			setRequestDecoder requestDecoderSetter
			useCaseWithInput  usecase.HasInputPort
		)

		if !nethttp.HandlerAs(handler, &setRequestDecoder) ||
			!nethttp.HandlerAs(handler, &withRoute) ||
			!nethttp.HandlerAs(handler, &withUseCase) ||
			!usecase.As(withUseCase.UseCase(), &useCaseWithInput) {
			return handler
		}

		if input := useCaseWithInput.InputPort(); input != nil {
			setRequestDecoder.SetRequestDecoder(factory.MakeDecoder(withRoute.RouteMethod(), input))
		}

		return handler
	}
}

type withRestHandler interface {
	RestHandler() *rest.HandlerTrait
}

// ValidatorMiddleware sets up request validator in suitable handlers.
func ValidatorMiddleware(factory rest.RequestValidatorFactory) func(http.Handler) http.Handler {
	return func(handler http.Handler) http.Handler {
		if nethttp.IsWrapperChecker(handler) {
			return handler
		}

		var (
			withRoute        rest.HandlerWithRoute
			withUseCase      rest.HandlerWithUseCase
			handlerTrait     withRestHandler
			useCaseWithInput usecase.HasInputPort
		)

		if !nethttp.HandlerAs(handler, &handlerTrait) ||
			!nethttp.HandlerAs(handler, &withRoute) ||
			!nethttp.HandlerAs(handler, &withUseCase) ||
			!usecase.As(withUseCase.UseCase(), &useCaseWithInput) {
			return handler
		}

		if input := useCaseWithInput.InputPort(); input != nil {
			rh := handlerTrait.RestHandler()
			rh.ReqValidator = factory.MakeRequestValidator(withRoute.RouteMethod(), input)
		}

		return handler
	}
}

var _ nethttp.RequestDecoder = DecoderFunc(nil)

// DecoderFunc implements RequestDecoder with a func.
type DecoderFunc func(r *http.Request, input interface{}, validator rest.Validator) error

// Decode implements RequestDecoder.
func (df DecoderFunc) Decode(r *http.Request, input interface{}, validator rest.Validator) error {
	return df(r, input, validator)
}

// DecoderMaker creates request decoder for particular structured Go input value.
type DecoderMaker interface {
	MakeDecoder(method string, input interface{}) nethttp.RequestDecoder
}
