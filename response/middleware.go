package response

import (
	"net/http"

	"github.com/swaggest/rest-openapi/nethttp"
)

type responseEncoderSetter interface {
	SetResponseEncoder(responseWriter nethttp.ResponseEncoder)
}

// EncoderMiddleware instruments qualifying http.Handler with Encoder.
func EncoderMiddleware(handler http.Handler) http.Handler {
	if nethttp.IsWrapperChecker(handler) {
		return handler
	}

	var setResponseEncoder responseEncoderSetter

	if !nethttp.HandlerAs(handler, &setResponseEncoder) {
		return handler
	}

	responseEncoder := Encoder{}

	if ht, output, ok := useCaseOutput(handler); ok {
		responseEncoder.SetupOutput(output, ht)
	}

	setResponseEncoder.SetResponseEncoder(&responseEncoder)

	return handler
}
