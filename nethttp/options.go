package nethttp

import (
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"
)

// OptionsMiddleware applies options to encountered nethttp.Handler.
func OptionsMiddleware(options ...func(h *Handler)) func(h http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		var rh *Handler

		if HandlerAs(h, &rh) {
			rh.options = append(rh.options, options...)

			for _, option := range options {
				option(rh)
			}
		}

		return h
	}
}

// AnnotateOperation allows customizations of prepared operations.
func AnnotateOperation(annotations ...func(operation *openapi3.Operation) error) func(h *Handler) {
	return func(h *Handler) {
		h.OpenAPIAnnotations = append(h.OpenAPIAnnotations, annotations...)
	}
}

// SuccessfulResponseContentType sets Content-Type of successful response.
func SuccessfulResponseContentType(contentType string) func(h *Handler) {
	return func(h *Handler) {
		h.SuccessContentType = contentType
	}
}

// SuccessStatus sets status code of successful response.
func SuccessStatus(status int) func(h *Handler) {
	return func(h *Handler) {
		h.SuccessStatus = status
	}
}

// ValidationErrorStatus sets status code of response to invalid request.
func ValidationErrorStatus(status int) func(h *Handler) {
	return func(h *Handler) {
		h.ValidationErrorStatus = status
	}
}

// Tags adds operation tags by names.
func Tags(names ...string) func(h *Handler) {
	return func(h *Handler) {
		for _, name := range names {
			h.Operation.Tags = append(h.Operation.Tags, &openapi3.Tag{Name: name})
		}
	}
}

// TagDetails adds operation tags with descriptions or external docs.
func TagDetails(tags ...*openapi3.Tag) func(h *Handler) {
	return func(h *Handler) {
		h.Operation.Tags = append(h.Operation.Tags, tags...)
	}
}

// Summary sets operation summary.
func Summary(summary string) func(h *Handler) {
	return func(h *Handler) {
		h.Operation.Summary = summary
	}
}

// Description sets operation description.
func Description(description string) func(h *Handler) {
	return func(h *Handler) {
		h.Operation.Description = description
	}
}

// Doc sets multiline operation documentation, first line is a summary and the rest is a description.
func Doc(doc string) func(h *Handler) {
	return func(h *Handler) {
		h.Operation.Doc = doc
	}
}

// ExternalDocs sets link to external documentation of operation.
func ExternalDocs(url, description string) func(h *Handler) {
	return func(h *Handler) {
		h.Operation.ExternalDocs = &openapi3.ExternalDocs{URL: url, Description: description}
	}
}

// OperationID sets operation id.
func OperationID(id string) func(h *Handler) {
	return func(h *Handler) {
		h.Operation.OperationID = id
	}
}

// Responses declares responses by status codes, see rest.OperationInfo for supported declarations.
func Responses(responses map[int]interface{}) func(h *Handler) {
	return func(h *Handler) {
		if h.Operation.Responses == nil {
			h.Operation.Responses = make(map[int]interface{}, len(responses))
		}

		for status, decl := range responses {
			h.Operation.Responses[status] = decl
		}
	}
}

// RequestBodyDescription sets description of request body.
func RequestBodyDescription(description string) func(h *Handler) {
	return func(h *Handler) {
		h.Operation.RequestBodyDescription = description
	}
}

// RequestBodyRequired controls whether request body is required, it is required by default.
func RequestBodyRequired(required bool) func(h *Handler) {
	return func(h *Handler) {
		h.Operation.RequestBodyRequired = &required
	}
}

// Deprecated marks operation as deprecated.
func Deprecated() func(h *Handler) {
	return func(h *Handler) {
		h.Operation.Deprecated = true
	}
}

// Security adds security requirements to operation.
func Security(requirements ...openapi3.SecurityRequirement) func(h *Handler) {
	return func(h *Handler) {
		if h.Operation.Security == nil {
			h.Operation.Security = openapi3.NewSecurityRequirements()
		}

		for _, r := range requirements {
			h.Operation.Security.With(r)
		}
	}
}

// Servers sets alternative servers of operation.
func Servers(servers ...*openapi3.Server) func(h *Handler) {
	return func(h *Handler) {
		s := openapi3.Servers(servers)
		h.Operation.Servers = &s
	}
}

// Extensions adds "x-" properties to operation.
func Extensions(extensions map[string]interface{}) func(h *Handler) {
	return func(h *Handler) {
		if h.Operation.Extensions == nil {
			h.Operation.Extensions = make(map[string]interface{}, len(extensions))
		}

		for k, v := range extensions {
			h.Operation.Extensions[k] = v
		}
	}
}

// Hidden excludes operation from documentation.
func Hidden() func(h *Handler) {
	return func(h *Handler) {
		h.Operation.Hidden = true
	}
}

// Logger sets logger for failures that do not reach the client, e.g. multipart cleanup errors.
func Logger(logger *zap.Logger) func(h *Handler) {
	return func(h *Handler) {
		if logger != nil {
			h.log = logger
		}
	}
}
