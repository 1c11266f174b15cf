package openapi

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/rest-openapi"
	"github.com/swaggest/usecase"
)

// ErrEmptyForm is returned for form model without properties.
var ErrEmptyForm = errors.New("form model must have properties")

var pathParam = regexp.MustCompile(`\{([^{}]+)\}`)

func (c *Collector) setupInput(op *openapi3.Operation, u usecase.Interactor, h rest.HandlerTrait) error {
	var hasInput usecase.HasInputPort

	if !usecase.As(u, &hasInput) || hasInput.InputPort() == nil {
		return nil
	}

	fields, err := rest.InputFields(hasInput.InputPort())
	if err != nil {
		return err
	}

	for _, f := range fields {
		model := f.Model()

		switch f.In {
		case rest.ParamInHeader, rest.ParamInCookie, rest.ParamInPath, rest.ParamInQuery:
			err = c.addParameters(op, f.In, model)
		case rest.ParamInForm:
			err = c.addForm(op, model, h)
		case rest.ParamInBody:
			err = c.addBody(op, model, h)
		case rest.ParamInRaw:
			c.addRawBody(op, model, h)
		}

		if err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}

	return nil
}

// addParameters documents each property of model as a parameter.
func (c *Collector) addParameters(op *openapi3.Operation, in rest.ParamIn, model interface{}) error {
	draft, err := c.reflectDraft(model, false)
	if err != nil {
		return err
	}

	sr, err := schemaRef(normalize30(draft))
	if err != nil {
		return err
	}

	if sr.Value == nil {
		return nil
	}

	required := map[string]bool{}
	for _, name := range sr.Value.Required {
		required[name] = true
	}

	for _, name := range sortedProperties(model, sr.Value.Properties) {
		prop := sr.Value.Properties[name]

		p := &openapi3.Parameter{
			In:       string(in),
			Name:     name,
			Required: in == rest.ParamInPath || required[name],
			Schema:   prop,
		}

		if prop.Value != nil {
			p.Description = prop.Value.Description
			p.Deprecated = prop.Value.Deprecated
		}

		if examples := draftExamples(draft, name); len(examples) > 1 {
			p.Examples = examples
		} else if prop.Value != nil {
			p.Example = prop.Value.Example
		}

		op.AddParameter(p)
	}

	return nil
}

// draftExamples returns examples of a draft-07 property as named parameter examples,
// a single example is also kept as schema example.
func draftExamples(draft map[string]interface{}, name string) openapi3.Examples {
	props, _ := draft["properties"].(map[string]interface{}) //nolint:errcheck
	prop, _ := props[name].(map[string]interface{})          //nolint:errcheck
	list, _ := prop["examples"].([]interface{})               //nolint:errcheck

	if len(list) == 0 {
		return nil
	}

	examples := make(openapi3.Examples, len(list))
	for i, v := range list {
		examples["example"+strconv.Itoa(i+1)] = &openapi3.ExampleRef{Value: openapi3.NewExample(v)}
	}

	return examples
}

// setupPathParams documents path parameters that are not declared by input as required strings.
func (c *Collector) setupPathParams(op *openapi3.Operation, path string) error {
	for _, m := range pathParam.FindAllStringSubmatch(path, -1) {
		if op.Parameters.GetByInAndName(openapi3.ParameterInPath, m[1]) != nil {
			continue
		}

		op.AddParameter(openapi3.NewPathParameter(m[1]).WithSchema(openapi3.NewStringSchema()))
	}

	for _, p := range op.Parameters {
		if p.Value == nil || p.Value.In != openapi3.ParameterInPath {
			continue
		}

		if !pathHasParam(path, p.Value.Name) {
			return fmt.Errorf("path parameter %q is not found in %s", p.Value.Name, path)
		}
	}

	return nil
}

func pathHasParam(path, name string) bool {
	for _, m := range pathParam.FindAllStringSubmatch(path, -1) {
		if m[1] == name {
			return true
		}
	}

	return false
}

// addForm documents form model as an urlencoded or multipart request body.
func (c *Collector) addForm(op *openapi3.Operation, model interface{}, h rest.HandlerTrait) error {
	extra, _ := rest.ExtraOf(model)

	contentType := extra.ContentType
	if contentType == "" {
		contentType = "multipart/form-data"
	}

	sr, err := c.componentSchema(model)
	if err != nil {
		return err
	}

	def := c.componentRoot(sr)
	if def == nil || len(def.Properties) == 0 {
		return ErrEmptyForm
	}

	encoding := make(map[string]*openapi3.Encoding, len(extra.Encoding))
	for name, e := range extra.Encoding {
		encoding[name] = e
	}

	for name, prop := range def.Properties {
		if prop.Value != nil && prop.Value.Type.Is(openapi3.TypeArray) {
			explode := true
			encoding[name] = &openapi3.Encoding{Style: "form", Explode: &explode}
		}
	}

	mt := openapi3.NewMediaType().WithSchemaRef(sr)
	mt.Example = extra.Example
	mt.Examples = extra.Examples

	if len(encoding) > 0 {
		mt.Encoding = encoding
	}

	c.setRequestContent(op, h, contentType, mt)

	return nil
}

// addBody documents body model, a model that exposes jsonschema.OneOfExposer adds a content type per variant.
func (c *Collector) addBody(op *openapi3.Operation, model interface{}, h rest.HandlerTrait) error {
	variants := []interface{}{model}

	if oneOf, ok := model.(jsonschema.OneOfExposer); ok {
		variants = oneOf.JSONSchemaOneOf()
	}

	for _, v := range variants {
		contentType := rest.ContentTypeOf(v, "application/json")

		mt, err := c.modelMediaType(v, contentType)
		if err != nil {
			return err
		}

		c.setRequestContent(op, h, contentType, mt)
	}

	return nil
}

// addRawBody documents raw body with a free form schema per accepted content type.
func (c *Collector) addRawBody(op *openapi3.Operation, model interface{}, h rest.HandlerTrait) {
	for _, contentType := range rest.MimeTypesOf(model) {
		s := openapi3.NewStringSchema()
		if rest.IsApplicationJSON(contentType) {
			s = openapi3.NewObjectSchema()
		}

		c.setRequestContent(op, h, contentType, openapi3.NewMediaType().WithSchema(s))
	}
}

// modelMediaType documents model payload, JSON content refers to model component,
// other content types are described with OpenAPIExtra.ContentSchema or a string.
func (c *Collector) modelMediaType(model interface{}, contentType string) (*openapi3.MediaType, error) {
	extra, _ := rest.ExtraOf(model)

	mt := openapi3.NewMediaType()
	mt.Example = extra.Example
	mt.Examples = extra.Examples
	mt.Encoding = extra.Encoding

	if !rest.IsApplicationJSON(contentType) {
		s := extra.ContentSchema
		if s == nil {
			s = openapi3.NewStringSchema()
		}

		mt.Schema = openapi3.NewSchemaRef("", s)

		return mt, nil
	}

	sr, err := c.componentSchema(model)
	if err != nil {
		return nil, err
	}

	mt.Schema = sr

	return mt, nil
}

func (c *Collector) setRequestContent(op *openapi3.Operation, h rest.HandlerTrait, contentType string, mt *openapi3.MediaType) {
	if op.RequestBody == nil {
		required := true
		if h.Operation.RequestBodyRequired != nil {
			required = *h.Operation.RequestBodyRequired
		}

		op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().
			WithDescription(h.Operation.RequestBodyDescription).
			WithRequired(required)}
	}

	rb := op.RequestBody.Value
	if rb.Content == nil {
		rb.Content = openapi3.NewContent()
	}

	rb.Content[contentType] = mt
}
