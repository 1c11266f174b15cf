package openapi

import (
	"encoding/json"
	"fmt"

	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/rest-openapi"
	"github.com/swaggest/usecase"
)

type unknownFieldsValidator interface {
	ForbidUnknownParams(in rest.ParamIn, forbidden bool)
}

// ProvideRequestJSONSchemas provides JSON Schemas for request structure.
//
// Parameters and form fields are registered by property name, body is registered as rest.BodySchemaName,
// variants of a body declared with several models are registered by their media types.
func (c *Collector) ProvideRequestJSONSchemas(
	_ string,
	input interface{},
	validator rest.JSONSchemaValidator,
) error {
	fields, err := rest.InputFields(input)
	if err != nil {
		return err
	}

	for _, f := range fields {
		model := f.Model()

		switch f.In {
		case rest.ParamInHeader, rest.ParamInCookie, rest.ParamInPath, rest.ParamInQuery, rest.ParamInForm:
			err = c.provideParamSchemas(f.In, model, validator)
		case rest.ParamInBody:
			err = c.provideBodySchemas(model, "application/json", validator)
		case rest.ParamInRaw:
		}

		if err != nil {
			return fmt.Errorf("%s: %w", f.Name, err)
		}
	}

	return nil
}

// ProvideResponseJSONSchemas provides JSON schemas for response structure.
func (c *Collector) ProvideResponseJSONSchemas(
	_ int,
	contentType string,
	output interface{},
	validator rest.JSONSchemaValidator,
) error {
	if rest.OutputHasNoContent(output) {
		return nil
	}

	if _, ok := output.(usecase.OutputWithWriter); ok {
		return nil
	}

	if contentType == "" {
		contentType = c.DefaultSuccessResponseContentType
	}

	if contentType == "" {
		contentType = "application/json"
	}

	return c.provideBodySchemas(output, contentType, validator)
}

func (c *Collector) provideParamSchemas(in rest.ParamIn, model interface{}, validator rest.JSONSchemaValidator) error {
	root, err := c.validationSchema(model)
	if err != nil {
		return err
	}

	defs := root["definitions"]
	props, _ := root["properties"].(map[string]interface{}) //nolint:errcheck

	required := map[string]bool{}

	if req, ok := root["required"].([]interface{}); ok {
		for _, name := range req {
			if s, ok := name.(string); ok {
				required[s] = true
			}
		}
	}

	for name, p := range props {
		var schemaData []byte

		if prop, ok := p.(map[string]interface{}); ok && len(prop) > 0 && prop["format"] != "binary" {
			s := prop

			if defs != nil {
				s = map[string]interface{}{
					"allOf":       []interface{}{prop},
					"definitions": defs,
				}
			}

			if schemaData, err = json.Marshal(s); err != nil {
				return fmt.Errorf("marshal schema %s.%s: %w", in, name, err)
			}
		}

		if err = validator.AddSchema(in, name, schemaData, required[name]); err != nil {
			return fmt.Errorf("add validation schema %s.%s: %w", in, name, err)
		}
	}

	if ap, ok := root["additionalProperties"].(bool); ok && !ap {
		if fv, ok := validator.(unknownFieldsValidator); ok {
			fv.ForbidUnknownParams(in, true)
		}
	}

	return nil
}

func (c *Collector) provideBodySchemas(model interface{}, defaultContentType string, validator rest.JSONSchemaValidator) error {
	if oneOf, ok := model.(jsonschema.OneOfExposer); ok {
		for _, v := range oneOf.JSONSchemaOneOf() {
			contentType := rest.ContentTypeOf(v, defaultContentType)
			if !rest.IsApplicationJSON(contentType) {
				continue
			}

			if err := c.provideBodySchema(v, rest.MediaType(contentType), false, validator); err != nil {
				return err
			}
		}

		return nil
	}

	if !rest.IsApplicationJSON(rest.ContentTypeOf(model, defaultContentType)) {
		return nil
	}

	return c.provideBodySchema(model, rest.BodySchemaName, true, validator)
}

func (c *Collector) provideBodySchema(
	model interface{},
	name string,
	required bool,
	validator rest.JSONSchemaValidator,
) error {
	root, err := c.validationSchema(model)
	if err != nil {
		return err
	}

	var schemaData []byte

	if len(root) > 0 {
		if schemaData, err = json.Marshal(root); err != nil {
			return fmt.Errorf("marshal schema body %s: %w", name, err)
		}
	}

	if err = validator.AddSchema(rest.ParamInBody, name, schemaData, required); err != nil {
		return fmt.Errorf("add validation schema body %s: %w", name, err)
	}

	return nil
}

// validationSchema reflects self-contained JSON Schema of a model.
func (c *Collector) validationSchema(model interface{}) (map[string]interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.reflector.Reflect(model, interceptFiles)
	if err != nil {
		return nil, fmt.Errorf("reflect %T: %w", model, err)
	}

	return toMap(s)
}
