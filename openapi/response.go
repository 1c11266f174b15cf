package openapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/rest-openapi"
	"github.com/swaggest/usecase"
)

func (c *Collector) setupResponses(op *openapi3.Operation, method string, u usecase.Interactor, h rest.HandlerTrait) error {
	if err := c.setupOutput(op, method, u, h); err != nil {
		return err
	}

	if err := c.processExpectedErrors(op, u, h); err != nil {
		return err
	}

	for _, status := range sortedStatuses(c.DefaultResponses) {
		if op.Responses.Value(strconv.Itoa(status)) != nil {
			continue
		}

		if err := c.setResponse(op, status, c.DefaultResponses[status], c.errorContentType()); err != nil {
			return err
		}
	}

	for _, status := range sortedStatuses(h.Operation.Responses) {
		if err := c.setResponse(op, status, h.Operation.Responses[status], c.successContentType(h)); err != nil {
			return err
		}
	}

	vs := c.validationStatus(h)
	if op.Responses.Value(strconv.Itoa(vs)) == nil {
		resp, err := c.validationResponse(vs)
		if err != nil {
			return err
		}

		op.Responses.Set(strconv.Itoa(vs), &openapi3.ResponseRef{Value: resp})
	}

	return nil
}

// validationResponse documents a list of ValidationErrorModel.
func (c *Collector) validationResponse(status int) (*openapi3.Response, error) {
	item, err := c.componentSchema(rest.ValidationError{})
	if err != nil {
		return nil, err
	}

	return openapi3.NewResponse().
		WithDescription(http.StatusText(status)).
		WithJSONSchema(&openapi3.Schema{Type: &openapi3.Types{openapi3.TypeArray}, Items: item}), nil
}

func (c *Collector) setupOutput(op *openapi3.Operation, method string, u usecase.Interactor, h rest.HandlerTrait) error {
	var (
		hasOutput usecase.HasOutputPort
		status    = http.StatusOK
		noContent bool
		output    interface{}
	)

	if usecase.As(u, &hasOutput) {
		output = hasOutput.OutputPort()

		if rest.OutputHasNoContent(output) {
			status = http.StatusNoContent
			noContent = true
		}
	} else {
		status = http.StatusNoContent
		noContent = true
	}

	if method == http.MethodHead {
		noContent = true
	}

	statuses := []int{status}

	if outputWithStatus, ok := output.(rest.OutputWithHTTPStatus); ok {
		statuses = outputWithStatus.ExpectedHTTPStatuses()
	} else if h.SuccessStatus != 0 {
		statuses = []int{h.SuccessStatus}
	}

	for _, status := range statuses {
		if _, explicit := h.Operation.Responses[status]; explicit {
			continue
		}

		resp := openapi3.NewResponse().WithDescription(http.StatusText(status))

		if !noContent {
			content, err := c.outputContent(output, c.successContentType(h))
			if err != nil {
				return err
			}

			resp.Content = content
		}

		op.Responses.Set(strconv.Itoa(status), &openapi3.ResponseRef{Value: resp})
	}

	return nil
}

// outputContent documents use case output, outputs that write response themselves are documented as binary strings.
func (c *Collector) outputContent(output interface{}, contentType string) (openapi3.Content, error) {
	if _, ok := output.(usecase.OutputWithWriter); ok {
		return openapi3.NewContentWithSchema(openapi3.NewStringSchema().WithFormat("binary"), []string{contentType}), nil
	}

	return c.modelContent(output, contentType)
}

// modelContent documents model with a content type per variant of jsonschema.OneOfExposer.
func (c *Collector) modelContent(model interface{}, defaultContentType string) (openapi3.Content, error) {
	variants := []interface{}{model}

	if oneOf, ok := model.(jsonschema.OneOfExposer); ok {
		variants = oneOf.JSONSchemaOneOf()
	}

	content := openapi3.NewContent()

	for _, v := range variants {
		contentType := rest.ContentTypeOf(v, defaultContentType)

		mt, err := c.modelMediaType(v, contentType)
		if err != nil {
			return nil, err
		}

		if prev, ok := content[contentType]; ok && prev.Schema != nil {
			prev.Schema = openapi3.NewSchemaRef("", &openapi3.Schema{OneOf: openapi3.SchemaRefs{prev.Schema, mt.Schema}})

			continue
		}

		content[contentType] = mt
	}

	return content, nil
}

// setResponse documents response declaration of a status code.
func (c *Collector) setResponse(op *openapi3.Operation, status int, decl interface{}, contentType string) error {
	var (
		resp *openapi3.Response
		err  error
	)

	switch d := decl.(type) {
	case nil:
		resp = openapi3.NewResponse()
	case *openapi3.Response:
		r := *d
		resp = &r
	case openapi3.Response:
		resp = &d
	case rest.ResponseSpec:
		resp = openapi3.NewResponse()

		if d.Description != "" {
			resp.Description = &d.Description
		}

		resp.Headers = d.Headers
		resp.Links = d.Links

		if d.Model != nil {
			if resp.Content, err = c.modelContent(d.Model, contentType); err != nil {
				return err
			}
		}
	default:
		resp = openapi3.NewResponse()

		if resp.Content, err = c.modelContent(decl, contentType); err != nil {
			return err
		}
	}

	if resp.Description == nil || *resp.Description == "" {
		resp.WithDescription(http.StatusText(status))
	}

	op.Responses.Set(strconv.Itoa(status), &openapi3.ResponseRef{Value: resp})

	return nil
}

func (c *Collector) processExpectedErrors(op *openapi3.Operation, u usecase.Interactor, h rest.HandlerTrait) error {
	var (
		errsByCode        = map[int][]interface{}{}
		descByCode        = map[int]string{}
		statusCodes       []int
		hasExpectedErrors usecase.HasExpectedErrors
	)

	if !usecase.As(u, &hasExpectedErrors) {
		return nil
	}

	for _, e := range hasExpectedErrors.ExpectedErrors() {
		var (
			errResp    interface{}
			statusCode int
		)

		if h.MakeErrResp != nil {
			statusCode, errResp = h.MakeErrResp(context.Background(), e)
		} else {
			statusCode, errResp = rest.Err(e)
		}

		if statusCode < http.StatusOK || statusCode == http.StatusNotModified || statusCode == http.StatusNoContent {
			errResp = nil
		}

		var described jsonschema.Described
		if errors.As(e, &described) && descByCode[statusCode] == "" {
			descByCode[statusCode] = described.Description()
		}

		if errsByCode[statusCode] == nil {
			statusCodes = append(statusCodes, statusCode)
		}

		errsByCode[statusCode] = append(errsByCode[statusCode], errResp)
	}

	return c.combineErrors(op, statusCodes, errsByCode, descByCode)
}

func (c *Collector) combineErrors(
	op *openapi3.Operation,
	statusCodes []int,
	errsByCode map[int][]interface{},
	descByCode map[int]string,
) error {
	for _, statusCode := range statusCodes {
		if op.Responses.Value(strconv.Itoa(statusCode)) != nil {
			continue
		}

		errResps := errsByCode[statusCode]
		decl := errResps[0]

		if len(errResps) > 1 && decl != nil && c.CombineErrors != "" {
			content, err := c.combinedContent(errResps)
			if err != nil {
				return err
			}

			resp := openapi3.NewResponse().WithDescription(descByCode[statusCode])
			resp.Content = content
			decl = resp
		} else if decl != nil {
			decl = rest.ResponseSpec{Model: decl, Description: descByCode[statusCode]}
		} else if desc := descByCode[statusCode]; desc != "" {
			decl = openapi3.NewResponse().WithDescription(desc)
		}

		if err := c.setResponse(op, statusCode, decl, c.errorContentType()); err != nil {
			return err
		}
	}

	return nil
}

// combinedContent documents several error responses of the same status with a oneOf or anyOf schema.
func (c *Collector) combinedContent(errResps []interface{}) (openapi3.Content, error) {
	refs := make(openapi3.SchemaRefs, 0, len(errResps))

	for _, errResp := range errResps {
		sr, err := c.componentSchema(errResp)
		if err != nil {
			return nil, err
		}

		refs = append(refs, sr)
	}

	s := &openapi3.Schema{}

	switch c.CombineErrors {
	case "oneOf":
		s.OneOf = refs
	case "anyOf":
		s.AnyOf = refs
	default:
		return nil, fmt.Errorf("oneOf/anyOf expected for openapi.Collector.CombineErrors, %s received", c.CombineErrors)
	}

	return openapi3.NewContentWithSchema(s, []string{c.errorContentType()}), nil
}

func sortedStatuses(responses map[int]interface{}) []int {
	statuses := make([]int, 0, len(responses))

	for status := range responses {
		statuses = append(statuses, status)
	}

	sort.Ints(statuses)

	return statuses
}
