package request

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/swaggest/form/v5"
	"github.com/swaggest/refl"
	"github.com/swaggest/rest-openapi"
	"github.com/swaggest/rest-openapi/nethttp"
)

var _ DecoderMaker = &DecoderFactory{}

const (
	defaultTag = "default"
	jsonTag    = "json"

	defaultMaxMemory = 32 << 20
)

// DecoderFactory decodes http requests.
//
// Please use NewDecoderFactory to create instance.
type DecoderFactory struct {
	// ApplyDefaults enables default value assignment for fields missing explicit value in request.
	// Default value is retrieved from `default` field tag.
	ApplyDefaults bool

	// JSONReader allows custom JSON decoder for request body.
	// If not set encoding/json.Decoder is used.
	JSONReader func(rd io.Reader, v interface{}) error

	// MaxMemory limits memory of multipart form parsing, default 32 MB.
	MaxMemory int64

	valueFunctions    map[rest.ParamIn]ValuesFunc
	defaultValDecoder *form.Decoder
	customDecoders    []customDecoder
}

// ValuesFunc collects request values of parameters by their names.
type ValuesFunc func(r *http.Request, names []string) (url.Values, error)

type customDecoder struct {
	types []interface{}
	fn    form.DecodeFunc
}

// NewDecoderFactory creates request decoder factory.
func NewDecoderFactory() *DecoderFactory {
	df := DecoderFactory{}
	df.SetDecoderFunc(rest.ParamInCookie, cookiesToURLValues)
	df.SetDecoderFunc(rest.ParamInHeader, headerToURLValues)
	df.SetDecoderFunc(rest.ParamInQuery, queryToURLValues)

	defaultValDecoder := form.NewDecoder()
	defaultValDecoder.RegisterTagNameFunc(func(field reflect.StructField) string {
		return field.Name
	})

	df.defaultValDecoder = defaultValDecoder

	return &df
}

// SetDecoderFunc sets function to collect request values of a parameter location,
// e.g. path parameters are provided by router.
func (df *DecoderFactory) SetDecoderFunc(in rest.ParamIn, d ValuesFunc) {
	if df.valueFunctions == nil {
		df.valueFunctions = make(map[rest.ParamIn]ValuesFunc)
	}

	df.valueFunctions[in] = d
}

// RegisterFunc adds custom type handling.
func (df *DecoderFactory) RegisterFunc(fn form.DecodeFunc, types ...interface{}) {
	df.defaultValDecoder.RegisterFunc(fn, types...)

	df.customDecoders = append(df.customDecoders, customDecoder{
		fn:    fn,
		types: types,
	})
}

func (df *DecoderFactory) formDecoder(model interface{}) *form.Decoder {
	dec := form.NewDecoder()
	dec.SetTagName(jsonTag)
	dec.SetMode(form.ModeExplicit)

	for _, c := range df.customDecoders {
		dec.RegisterFunc(c.fn, c.types...)
	}

	df.jsonParams(dec, model)

	return dec
}

// MakeDecoder creates request.RequestDecoder for a http method and request structure.
//
// Input structure declares request parts with fields named Header, Cookie, Path, Query, Form, Body and Raw
// or with `in` field tag, models of request parts use `json` field tags for names.
// Panics on invalid input structure.
func (df *DecoderFactory) MakeDecoder(
	_ string,
	input interface{},
) nethttp.RequestDecoder {
	fields, err := rest.InputFields(input)
	if err != nil {
		panic(err)
	}

	m := decoder{
		decoders: make([]valueDecoderFunc, 0, len(fields)),
		in:       make([]rest.ParamIn, 0, len(fields)),
	}

	for _, f := range fields {
		model := f.Model()

		if df.ApplyDefaults && refl.HasTaggedFields(model, defaultTag) {
			df.makeDefaultDecoder(f, &m)
		}

		switch f.In {
		case rest.ParamInHeader, rest.ParamInCookie, rest.ParamInPath, rest.ParamInQuery:
			valuesFunc := df.valueFunctions[f.In]
			if valuesFunc == nil {
				continue
			}

			m.decoders = append(m.decoders, makeDecoder(f, df.formDecoder(model), propertyNames(model), valuesFunc))
		case rest.ParamInForm:
			m.decoders = append(m.decoders, df.makeFormDecoder(f, df.formDecoder(model)))
		case rest.ParamInBody:
			m.decoders = append(m.decoders, df.makeBodyDecoder(f))
		case rest.ParamInRaw:
			m.decoders = append(m.decoders, makeRawDecoder(f))
		}

		m.in = append(m.in, f.In)
	}

	return &m
}

// jsonParams configures custom decoding for parameters with JSON struct values.
func (df *DecoderFactory) jsonParams(formDecoder *form.Decoder, model interface{}) {
	// Check fields for struct values with json tags. E.g. query parameter with json value.
	refl.WalkTaggedFields(reflect.ValueOf(model), func(v reflect.Value, sf reflect.StructField, _ string) {
		// Skip unexported fields.
		if sf.PkgPath != "" {
			return
		}

		fieldVal := v.Interface()

		if refl.HasTaggedFields(fieldVal, jsonTag) {
			// If value is a struct with `json` tags, custom decoder unmarshals json
			// from a string value into a struct.
			formDecoder.RegisterFunc(func(s string) (interface{}, error) {
				var err error
				f := reflect.New(sf.Type)
				if df.JSONReader != nil {
					err = df.JSONReader(bytes.NewBufferString(s), f.Interface())
				} else {
					err = json.Unmarshal([]byte(s), f.Interface())
				}

				if err != nil {
					return nil, err
				}

				return reflect.Indirect(f).Interface(), nil
			}, fieldVal)
		}
	}, jsonTag)
}

func (df *DecoderFactory) makeDefaultDecoder(f rest.InputField, m *decoder) {
	defaults := url.Values{}

	refl.WalkTaggedFields(reflect.ValueOf(f.Model()), func(v reflect.Value, sf reflect.StructField, tag string) {
		defaults[sf.Name] = []string{tag}
	}, defaultTag)

	dec := df.defaultValDecoder

	m.decoders = append(m.decoders, func(_ *http.Request, input reflect.Value, _ rest.Validator) error {
		return dec.Decode(f.Value(input).Addr().Interface(), defaults)
	})
	m.in = append(m.in, f.In)
}

func (df *DecoderFactory) maxMemory() int64 {
	if df.MaxMemory > 0 {
		return df.MaxMemory
	}

	return defaultMaxMemory
}

// propertyNames lists names of model properties.
func propertyNames(model interface{}) []string {
	var names []string

	refl.WalkTaggedFields(reflect.ValueOf(model), func(_ reflect.Value, _ reflect.StructField, tag string) {
		name := strings.Split(tag, ",")[0]
		if name != "" && name != "-" {
			names = append(names, name)
		}
	}, jsonTag)

	return names
}
