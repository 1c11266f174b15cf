// Package openapi provides documentation collector.
package openapi

import (
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/rest-openapi"
	"github.com/swaggest/rest-openapi/gzip"
	"github.com/swaggest/usecase"
)

// Collector extracts OpenAPI documentation from HTTP handler and underlying use case interactor.
type Collector struct {
	mu sync.Mutex

	// CombineErrors can take a value of "oneOf" or "anyOf",
	// if not empty it enables logical schema grouping in case
	// of multiple responses with same HTTP status code.
	CombineErrors string

	// DefaultSuccessResponseContentType is a default success response content type.
	// If empty, "application/json" is used.
	DefaultSuccessResponseContentType string

	// DefaultErrorResponseContentType is a default error response content type.
	// If empty, "application/json" is used.
	DefaultErrorResponseContentType string

	// ValidationErrorStatus is a status of documented response to invalid request, default 422.
	ValidationErrorStatus int

	// OperationIDFunc builds default operation id from handler name, path and method,
	// default OperationIDForPath.
	OperationIDFunc func(name, path, method string) string

	// DefaultResponses are documented for every collected operation,
	// they are overridden by success, error and route responses of the same status.
	DefaultResponses map[int]interface{}

	doc       *openapi3.T
	reflector jsonschema.Reflector

	typeNames map[reflect.Type]string
	defTypes  map[string]reflect.Type

	annotations  map[string][]func(*openapi3.Operation) error
	operationIDs map[string]bool

	cache *gzip.JSONContainer
}

// NewCollector creates an instance of OpenAPI Collector.
func NewCollector() *Collector {
	return &Collector{
		doc: &openapi3.T{
			OpenAPI: "3.0.3",
			Info: &openapi3.Info{
				Title:   "OpenAPI",
				Version: "1.0.0",
			},
			Paths: openapi3.NewPaths(),
			Components: &openapi3.Components{
				Schemas:         openapi3.Schemas{},
				SecuritySchemes: openapi3.SecuritySchemes{},
			},
		},
		typeNames:    map[reflect.Type]string{},
		defTypes:     map[string]reflect.Type{},
		operationIDs: map[string]bool{},
	}
}

// Reflector is an accessor to JSON Schema reflector, it can be used to add type mappings or interceptors.
func (c *Collector) Reflector() *jsonschema.Reflector {
	return &c.reflector
}

// Configure applies changes to the document, e.g. to set info, servers or security schemes.
func (c *Collector) Configure(setup ...func(doc *openapi3.T)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range setup {
		s(c.doc)
	}

	c.cache = nil
}

// Annotate adds OpenAPI operation configuration that is applied during collection.
func (c *Collector) Annotate(method, pattern string, setup ...func(op *openapi3.Operation) error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.annotations == nil {
		c.annotations = make(map[string][]func(op *openapi3.Operation) error)
	}

	key := strings.ToUpper(method) + pattern
	c.annotations[key] = append(c.annotations[key], setup...)
}

// HasAnnotation indicates if there is at least one annotation registered for this operation.
func (c *Collector) HasAnnotation(method, pattern string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.annotations[strings.ToUpper(method)+pattern]) > 0
}

// SetJSONResponse documents response model of a status code with default error content type,
// it is intended for operation annotations.
func (c *Collector) SetJSONResponse(op *openapi3.Operation, model interface{}, status int) error {
	if op.Responses == nil {
		op.Responses = &openapi3.Responses{}
	}

	return c.setResponse(op, status, model, c.errorContentType())
}

// CollectUseCase adds use case handler to documentation.
func (c *Collector) CollectUseCase(
	method, pattern string,
	u usecase.Interactor,
	h rest.HandlerTrait,
) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h.Operation.Hidden {
		return nil
	}

	defer func() {
		if err != nil {
			err = fmt.Errorf("reflect API schema for %s %s: %w", method, pattern, err)
		}
	}()

	method = strings.ToUpper(method)
	path := PathFromPattern(pattern)

	op := openapi3.NewOperation()
	op.Responses = &openapi3.Responses{}

	if err = c.setupInput(op, u, h); err != nil {
		return err
	}

	if err = c.setupPathParams(op, path); err != nil {
		return err
	}

	if err = c.setupResponses(op, method, u, h); err != nil {
		return err
	}

	c.processUseCase(op, method, path, u, h)

	for _, setup := range c.annotations[method+pattern] {
		if err = setup(op); err != nil {
			return err
		}
	}

	for _, setup := range h.OpenAPIAnnotations {
		if err = setup(op); err != nil {
			return err
		}
	}

	c.doc.AddOperation(path, method, op)
	c.cache = nil

	return nil
}

func (c *Collector) processUseCase(op *openapi3.Operation, method, path string, u usecase.Interactor, h rest.HandlerTrait) {
	var (
		hasName        usecase.HasName
		hasTitle       usecase.HasTitle
		hasDescription usecase.HasDescription
		hasTags        usecase.HasTags
		hasDeprecated  usecase.HasIsDeprecated
		info           = h.Operation
		name           string
	)

	if usecase.As(u, &hasName) {
		name = hasName.Name()
	}

	op.Summary, op.Description = operationText(info.Doc, info.Summary, info.Description)

	if op.Summary == "" && usecase.As(u, &hasTitle) {
		op.Summary = hasTitle.Title()
	}

	if op.Description == "" && usecase.As(u, &hasDescription) {
		op.Description = hasDescription.Description()
	}

	tags := make([]string, 0, len(info.Tags))
	seen := map[string]bool{}

	addTag := func(tag *openapi3.Tag) {
		c.addTag(tag)

		if !seen[tag.Name] {
			seen[tag.Name] = true

			tags = append(tags, tag.Name)
		}
	}

	for _, tag := range info.Tags {
		addTag(tag)
	}

	if usecase.As(u, &hasTags) {
		for _, tag := range hasTags.Tags() {
			addTag(&openapi3.Tag{Name: tag})
		}
	}

	if len(tags) == 0 {
		tags = []string{"default"}
	}

	op.Tags = tags

	id := info.OperationID
	if id == "" {
		idFunc := c.OperationIDFunc
		if idFunc == nil {
			idFunc = OperationIDForPath
		}

		id = idFunc(name, path, method)
	}

	op.OperationID = c.uniqueOperationID(id)

	if info.Deprecated || (usecase.As(u, &hasDeprecated) && hasDeprecated.IsDeprecated()) {
		op.Deprecated = true
	}

	op.ExternalDocs = info.ExternalDocs
	if info.Security != nil {
		security := append(openapi3.SecurityRequirements{}, *info.Security...)
		op.Security = &security
	}

	op.Servers = info.Servers

	if len(info.Extensions) > 0 {
		op.Extensions = make(map[string]interface{}, len(info.Extensions))

		for k, v := range info.Extensions {
			op.Extensions[k] = v
		}
	}
}

// addTag stores tag in document, tags are unique by name.
func (c *Collector) addTag(tag *openapi3.Tag) {
	if tag == nil || tag.Name == "" {
		return
	}

	if c.doc.Tags.Get(tag.Name) != nil {
		return
	}

	c.doc.Tags = append(c.doc.Tags, tag)
}

func (c *Collector) uniqueOperationID(id string) string {
	if id == "" {
		return ""
	}

	idSuf := id
	suf := 1

	for c.operationIDs[idSuf] {
		suf++
		idSuf = id + strconv.Itoa(suf)
	}

	c.operationIDs[idSuf] = true

	return idSuf
}

func (c *Collector) validationStatus(h rest.HandlerTrait) int {
	if h.ValidationErrorStatus != 0 {
		return h.ValidationErrorStatus
	}

	if c.ValidationErrorStatus != 0 {
		return c.ValidationErrorStatus
	}

	return http.StatusUnprocessableEntity
}

func (c *Collector) successContentType(h rest.HandlerTrait) string {
	if h.SuccessContentType != "" {
		return h.SuccessContentType
	}

	if c.DefaultSuccessResponseContentType != "" {
		return c.DefaultSuccessResponseContentType
	}

	return "application/json"
}

func (c *Collector) errorContentType() string {
	if c.DefaultErrorResponseContentType != "" {
		return c.DefaultErrorResponseContentType
	}

	return "application/json"
}
