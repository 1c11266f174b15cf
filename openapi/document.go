package openapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/swaggest/rest-openapi/gzip"
	"gopkg.in/yaml.v3"
)

// Spec returns OpenAPI document.
//
// Document is shared with collector, it should not be modified, use Configure instead.
func (c *Collector) Spec() *openapi3.T {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.doc
}

// SpecJSON returns indented JSON of OpenAPI document.
func (c *Collector) SpecJSON() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return json.MarshalIndent(c.doc, "", " ")
}

// SpecYAML returns YAML of OpenAPI document, keys keep the order of JSON document.
func (c *Collector) SpecYAML() ([]byte, error) {
	j, err := c.SpecJSON()
	if err != nil {
		return nil, err
	}

	var node yaml.Node

	if err := yaml.Unmarshal(j, &node); err != nil {
		return nil, err
	}

	resetStyle(&node)

	return yaml.Marshal(&node)
}

// resetStyle makes flow style JSON nodes render as block style YAML.
func resetStyle(n *yaml.Node) {
	n.Style = 0

	for _, c := range n.Content {
		resetStyle(c)
	}
}

// Validate checks OpenAPI document for correctness.
func (c *Collector) Validate(ctx context.Context) error {
	j, err := c.SpecJSON()
	if err != nil {
		return err
	}

	doc, err := openapi3.NewLoader().LoadFromData(j)
	if err != nil {
		return err
	}

	return doc.Validate(ctx)
}

// Merge adds tags, operations, component schemas and security schemes of other collector.
//
// Operations are copied, so other collector is not affected. Conflicting operation ids of other
// collector get numeric suffixes. A component schema of other collector that clashes by name with a
// different existing schema is added with a numeric suffix and references to it are updated.
func (c *Collector) Merge(other *Collector) error {
	return c.MergePrefixed(other, "")
}

// MergePrefixed adds documentation of other collector with paths prefixed by pathPrefix.
func (c *Collector) MergePrefixed(other *Collector, pathPrefix string) error {
	if other == c {
		return nil
	}

	other.mu.Lock()
	defer other.mu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	renames, err := c.mergeSchemas(other)
	if err != nil {
		return err
	}

	type merged struct {
		path   string
		method string
		op     *openapi3.Operation
	}

	var ops []merged

	for path, item := range other.doc.Paths.Map() {
		if pathPrefix != "" {
			path = ParseRule(path, pathPrefix)
		}

		for method, op := range item.Operations() {
			cp := &openapi3.Operation{}
			if err := cloneJSON(op, cp, renames); err != nil {
				return fmt.Errorf("copy operation %s %s: %w", method, path, err)
			}

			ops = append(ops, merged{path: path, method: method, op: cp})
		}
	}

	sort.Slice(ops, func(i, j int) bool {
		if ops[i].path != ops[j].path {
			return ops[i].path < ops[j].path
		}

		return ops[i].method < ops[j].method
	})

	for _, tag := range other.doc.Tags {
		c.addTag(tag)
	}

	for _, m := range ops {
		target := c.doc.Paths.Value(m.path)
		if target == nil {
			target = &openapi3.PathItem{}
			c.doc.Paths.Set(m.path, target)
		}

		if m.op.OperationID != "" {
			m.op.OperationID = c.uniqueOperationID(m.op.OperationID)
		}

		target.SetOperation(m.method, m.op)
	}

	if other.doc.Components.SecuritySchemes != nil {
		if c.doc.Components.SecuritySchemes == nil {
			c.doc.Components.SecuritySchemes = openapi3.SecuritySchemes{}
		}

		for name, s := range other.doc.Components.SecuritySchemes {
			if _, ok := c.doc.Components.SecuritySchemes[name]; !ok {
				c.doc.Components.SecuritySchemes[name] = s
			}
		}
	}

	c.cache = nil

	return nil
}

// mergeSchemas copies component schemas of other collector and returns renamed references.
//
// Schema of the same Go type is shared, name clash of different schemas is resolved with a numeric suffix.
func (c *Collector) mergeSchemas(other *Collector) (map[string]string, error) {
	var (
		renames = map[string]string{}
		names   = make([]string, 0, len(other.doc.Components.Schemas))
		targets = map[string]string{}
	)

	for name := range other.doc.Components.Schemas {
		names = append(names, name)
	}

	sort.Strings(names)

	taken := func(name string) bool {
		_, inSchemas := c.doc.Components.Schemas[name]
		_, inTypes := c.defTypes[name]
		_, inOther := other.doc.Components.Schemas[name]

		return inSchemas || inTypes || inOther
	}

	for _, name := range names {
		s := other.doc.Components.Schemas[name]
		t := other.defTypes[name]

		if t != nil {
			if existing, ok := c.typeNames[t]; ok {
				if existing != name {
					renames[ComponentsPrefix+name] = ComponentsPrefix + existing
				}

				continue
			}
		}

		target := name

		if prev, ok := c.doc.Components.Schemas[name]; ok {
			if t == nil && sameJSON(prev, s) {
				continue
			}

			for i := 2; ; i++ {
				target = name + strconv.Itoa(i)
				if !taken(target) {
					break
				}
			}

			renames[ComponentsPrefix+name] = ComponentsPrefix + target
		}

		if t != nil {
			c.defTypes[target] = t
			c.typeNames[t] = target
		}

		targets[name] = target
	}

	for _, name := range names {
		target, ok := targets[name]
		if !ok {
			continue
		}

		cp := &openapi3.SchemaRef{}
		if err := cloneJSON(other.doc.Components.Schemas[name], cp, renames); err != nil {
			return nil, fmt.Errorf("copy schema %s: %w", name, err)
		}

		c.doc.Components.Schemas[target] = cp
	}

	return renames, nil
}

// cloneJSON makes a deep copy of src in dst with schema references replaced according to renames.
func cloneJSON(src, dst interface{}, renames map[string]string) error {
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}

	if len(renames) > 0 {
		var v interface{}
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}

		renameRefs(v, renames)

		if b, err = json.Marshal(v); err != nil {
			return err
		}
	}

	return json.Unmarshal(b, dst)
}

func renameRefs(v interface{}, renames map[string]string) {
	switch v := v.(type) {
	case map[string]interface{}:
		for k, item := range v {
			if ref, ok := item.(string); ok && k == "$ref" {
				if name, ok := renames[ref]; ok {
					v[k] = name
				}

				continue
			}

			renameRefs(item, renames)
		}
	case []interface{}:
		for _, item := range v {
			renameRefs(item, renames)
		}
	}
}

func sameJSON(a, b interface{}) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)

	return errA == nil && errB == nil && bytes.Equal(ja, jb)
}

func (c *Collector) container() (*gzip.JSONContainer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cache != nil {
		return c.cache, nil
	}

	cont := &gzip.JSONContainer{}
	if err := cont.PackJSON(c.doc); err != nil {
		return nil, err
	}

	c.cache = cont

	return cont, nil
}

// ServeHTTP serves JSON of OpenAPI document.
//
// Compressed document is cached until next change of collector, ETag allows conditional requests.
func (c *Collector) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	cont, err := c.container()
	if err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)

		return
	}

	cont.ServeHTTP(rw, r)
}
