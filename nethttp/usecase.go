package nethttp

import (
	"context"
	"net/http"

	"github.com/swaggest/usecase"
)

// UseCaseMiddlewares applies use case middlewares to use case of Handler.
//
// Requests that fail decoding or validation also pass through middlewares, so that
// logging or metrics middlewares observe them with input error and nil output.
func UseCaseMiddlewares(mw ...usecase.Middleware) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		if IsWrapperChecker(h) {
			return h
		}

		var uh *Handler
		if HandlerAs(h, &uh) {
			uh.useCaseMiddlewares(mw)
		}

		return h
	}
}

func (h *Handler) useCaseMiddlewares(mw []usecase.Middleware) {
	u := h.UseCase()

	// Failing use case keeps name, title and ports of use case for middlewares.
	failing := usecase.Wrap(u, usecase.MiddlewareFunc(func(usecase.Interactor) usecase.Interactor {
		return usecase.Interact(decodeFailure)
	}))

	h.SetUseCase(usecase.Wrap(u, mw...))
	h.failingUseCase = usecase.Wrap(failing, mw...)
}

// decodeFailure returns request decoding error passed with context by handleDecodeError.
func decodeFailure(ctx context.Context, _, _ interface{}) error {
	if err, ok := ctx.Value(decodeErrCtxKey{}).(error); ok {
		return err
	}

	return nil
}
