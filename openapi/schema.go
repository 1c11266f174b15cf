package openapi

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggest/jsonschema-go"
	"github.com/swaggest/refl"
	"github.com/swaggest/rest-openapi"
)

// ComponentsPrefix is a reference prefix of component schemas.
const ComponentsPrefix = "#/components/schemas/"

var (
	fileHeaderType = reflect.TypeOf(multipart.FileHeader{})
	fileType       = reflect.TypeOf((*multipart.File)(nil)).Elem()
)

// schema30Keywords lists schema keywords supported by OpenAPI 3.0.
var schema30Keywords = map[string]bool{
	"$ref": true, "title": true, "description": true, "type": true, "format": true,
	"default": true, "example": true, "enum": true, "nullable": true, "deprecated": true,
	"readOnly": true, "writeOnly": true, "multipleOf": true,
	"maximum": true, "exclusiveMaximum": true, "minimum": true, "exclusiveMinimum": true,
	"maxLength": true, "minLength": true, "pattern": true,
	"maxItems": true, "minItems": true, "uniqueItems": true, "items": true,
	"maxProperties": true, "minProperties": true, "required": true,
	"properties": true, "additionalProperties": true,
	"allOf": true, "anyOf": true, "oneOf": true, "not": true,
	"discriminator": true, "xml": true, "externalDocs": true,
}

// interceptFiles documents multipart files as binary strings.
var interceptFiles = jsonschema.InterceptSchema(func(params jsonschema.InterceptSchemaParams) (bool, error) {
	if params.Processed || !params.Value.IsValid() {
		return false, nil
	}

	if isFileType(params.Value.Type()) {
		params.Schema.AddType(jsonschema.String)
		params.Schema.WithFormat("binary")

		return true, nil
	}

	return false, nil
})

func isFileType(t reflect.Type) bool {
	if t == nil {
		return false
	}

	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t == fileHeaderType || t == fileType
}

// componentName is used as definition name interceptor, it names components after model types.
//
// Type name is used by default, Titled models can override it. In case of name conflict
// between different types, fully qualified default definition name is used.
func (c *Collector) componentName(t reflect.Type, defaultDefName string) string {
	if name, ok := c.typeNames[t]; ok {
		return name
	}

	name := t.Name()

	if titled, ok := reflect.New(t).Interface().(rest.Titled); ok {
		if title := titled.Title(); title != "" {
			name = title
		}
	}

	if name == "" || strings.Contains(name, "[") {
		name = defaultDefName
	}

	name = NormalizeName(name)

	if prev, ok := c.defTypes[name]; ok && prev != t {
		name = NormalizeName(defaultDefName)

		base := name
		for i := 2; ; i++ {
			prev, ok := c.defTypes[name]
			if !ok || prev == t {
				break
			}

			name = base + strconv.Itoa(i)
		}
	}

	c.typeNames[t] = name
	c.defTypes[name] = t

	return name
}

// reflectModel reflects model schema into OpenAPI 3.0 form and stores definitions as component schemas.
//
// With rootRef enabled, named root type is also stored as a component and the result is a reference.
func (c *Collector) reflectModel(model interface{}, rootRef bool) (map[string]interface{}, error) {
	root, err := c.reflectDraft(model, rootRef)
	if err != nil {
		return nil, err
	}

	return normalize30(root), nil
}

// reflectDraft reflects model schema and stores normalized definitions as component schemas,
// root schema is returned in draft-07 form.
func (c *Collector) reflectDraft(model interface{}, rootRef bool) (map[string]interface{}, error) {
	defs := map[string]jsonschema.Schema{}

	options := []func(rc *jsonschema.ReflectContext){
		jsonschema.DefinitionsPrefix(ComponentsPrefix),
		jsonschema.InterceptDefName(c.componentName),
		jsonschema.CollectDefinitions(func(name string, schema jsonschema.Schema) {
			defs[name] = schema
		}),
		interceptFiles,
	}

	if rootRef {
		options = append(options, jsonschema.RootRef)
	}

	s, err := c.reflector.Reflect(model, options...)
	if err != nil {
		return nil, fmt.Errorf("reflect %T: %w", model, err)
	}

	fileDefs := map[string]bool{}

	for name := range defs {
		if isFileType(c.defTypes[name]) {
			fileDefs[ComponentsPrefix+name] = true
		}
	}

	for name, def := range defs {
		if fileDefs[ComponentsPrefix+name] {
			continue
		}

		m, err := toMap(def)
		if err != nil {
			return nil, fmt.Errorf("definition %s: %w", name, err)
		}

		inlineFiles(m, fileDefs)

		sr, err := schemaRef(normalize30(m))
		if err != nil {
			return nil, fmt.Errorf("definition %s: %w", name, err)
		}

		c.doc.Components.Schemas[name] = sr
	}

	root, err := toMap(s)
	if err != nil {
		return nil, err
	}

	inlineFiles(root, fileDefs)

	return root, nil
}

// inlineFiles replaces references to multipart file definitions with binary strings.
func inlineFiles(v interface{}, fileDefs map[string]bool) {
	if len(fileDefs) == 0 {
		return
	}

	switch s := v.(type) {
	case map[string]interface{}:
		if ref, ok := s["$ref"].(string); ok && fileDefs[ref] {
			delete(s, "$ref")
			s["type"] = "string"
			s["format"] = "binary"
		}

		for _, item := range s {
			inlineFiles(item, fileDefs)
		}
	case []interface{}:
		for _, item := range s {
			inlineFiles(item, fileDefs)
		}
	}
}

// componentSchema reflects model as a component and returns reference to it,
// unnamed types (slices, maps, scalars) are returned inline.
func (c *Collector) componentSchema(model interface{}) (*openapi3.SchemaRef, error) {
	root, err := c.reflectModel(model, true)
	if err != nil {
		return nil, err
	}

	return schemaRef(root)
}

// componentRoot returns component definition of a reference.
func (c *Collector) componentRoot(sr *openapi3.SchemaRef) *openapi3.Schema {
	if sr.Ref == "" {
		return sr.Value
	}

	def := c.doc.Components.Schemas[strings.TrimPrefix(sr.Ref, ComponentsPrefix)]
	if def == nil {
		return nil
	}

	return def.Value
}

func toMap(s interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}

	var m map[string]interface{}

	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}

	return m, nil
}

func schemaRef(m map[string]interface{}) (*openapi3.SchemaRef, error) {
	if ref, ok := m["$ref"].(string); ok && len(m) == 1 {
		return openapi3.NewSchemaRef(ref, nil), nil
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	s := openapi3.NewSchema()
	if err := json.Unmarshal(b, s); err != nil {
		return nil, err
	}

	return openapi3.NewSchemaRef("", s), nil
}

// normalize30 rewrites JSON Schema draft-07 into a schema object of OpenAPI 3.0.
func normalize30(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}

	res := make(map[string]interface{}, len(m))

	for k, v := range m {
		if schema30Keywords[k] || strings.HasPrefix(k, "x-") {
			res[k] = v
		}
	}

	if t, ok := res["type"].([]interface{}); ok {
		var types []string

		for _, item := range t {
			if s, ok := item.(string); ok {
				if s == "null" {
					res["nullable"] = true
				} else {
					types = append(types, s)
				}
			}
		}

		if len(types) == 0 {
			delete(res, "type")
		} else {
			res["type"] = types[0]
		}
	} else if res["type"] == "null" {
		delete(res, "type")
		res["nullable"] = true
	}

	if c, ok := m["const"]; ok {
		res["enum"] = []interface{}{c}
	}

	if _, ok := res["example"]; !ok {
		if ex, ok := m["examples"].([]interface{}); ok && len(ex) > 0 {
			res["example"] = ex[0]
		}
	}

	for _, bound := range []string{"Minimum", "Maximum"} {
		key := "exclusive" + bound
		if n, ok := res[key].(float64); ok {
			res[strings.ToLower(bound)] = n
			res[key] = true
		}
	}

	if req, ok := res["required"].([]interface{}); ok && len(req) == 0 {
		delete(res, "required")
	}

	if props, ok := res["properties"].(map[string]interface{}); ok {
		np := make(map[string]interface{}, len(props))

		for name, p := range props {
			np[name] = normalizeSubschema(p)
		}

		res["properties"] = np
	}

	if items, ok := res["items"]; ok {
		if list, ok := items.([]interface{}); ok {
			if len(list) > 0 {
				res["items"] = normalizeSubschema(list[0])
			} else {
				res["items"] = map[string]interface{}{}
			}
		} else {
			res["items"] = normalizeSubschema(items)
		}
	} else if res["type"] == "array" {
		res["items"] = map[string]interface{}{}
	}

	if ap, ok := res["additionalProperties"].(map[string]interface{}); ok {
		res["additionalProperties"] = normalize30(ap)
	}

	if not, ok := res["not"].(map[string]interface{}); ok {
		res["not"] = normalize30(not)
	}

	for _, key := range []string{"allOf", "anyOf", "oneOf"} {
		if list, ok := res[key].([]interface{}); ok {
			nl := make([]interface{}, 0, len(list))

			for _, item := range list {
				nl = append(nl, normalizeSubschema(item))
			}

			res[key] = nl
		}
	}

	if ref, ok := res["$ref"]; ok && len(res) > 1 {
		delete(res, "$ref")

		allOf, _ := res["allOf"].([]interface{}) //nolint:errcheck
		res["allOf"] = append([]interface{}{map[string]interface{}{"$ref": ref}}, allOf...)
	}

	return res
}

func normalizeSubschema(v interface{}) interface{} {
	switch s := v.(type) {
	case map[string]interface{}:
		return normalize30(s)
	case bool:
		if s {
			return map[string]interface{}{}
		}

		return map[string]interface{}{"not": map[string]interface{}{}}
	default:
		return v
	}
}

// propertyOrder returns JSON property names of a struct in the order of declaration.
func propertyOrder(model interface{}) map[string]int {
	order := map[string]int{}

	refl.WalkTaggedFields(reflect.ValueOf(model), func(_ reflect.Value, _ reflect.StructField, tag string) {
		name := strings.Split(tag, ",")[0]
		if name == "" || name == "-" {
			return
		}

		if _, ok := order[name]; !ok {
			order[name] = len(order)
		}
	}, "json")

	return order
}

// sortedProperties returns property names ordered by declaration in model.
func sortedProperties(model interface{}, props openapi3.Schemas) []string {
	order := propertyOrder(model)
	names := make([]string, 0, len(props))

	for name := range props {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		oi, iok := order[names[i]]
		oj, jok := order[names[j]]

		switch {
		case iok && jok:
			return oi < oj
		case iok != jok:
			return iok
		default:
			return names[i] < names[j]
		}
	})

	return names
}
