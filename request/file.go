package request

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/swaggest/form/v5"
	"github.com/swaggest/rest-openapi"
)

var (
	multipartFileType        = reflect.TypeOf((*multipart.File)(nil)).Elem()
	multipartFilesType       = reflect.TypeOf(([]multipart.File)(nil))
	multipartFileHeaderType  = reflect.TypeOf((*multipart.FileHeader)(nil))
	multipartFileHeadersType = reflect.TypeOf(([]*multipart.FileHeader)(nil))
)

func isFileField(t reflect.Type) bool {
	return t == multipartFileType || t == multipartFileHeaderType ||
		t == multipartFilesType || t == multipartFileHeadersType
}

// makeFormDecoder decodes urlencoded or multipart form fields and uploaded files into form model.
func (df *DecoderFactory) makeFormDecoder(f rest.InputField, formDecoder *form.Decoder) valueDecoderFunc {
	return func(r *http.Request, input reflect.Value, validator rest.Validator) error {
		if err := df.parseForm(r); err != nil {
			return err
		}

		v := f.Value(input)

		files, err := decodeFilesInStruct(r, v)
		if err != nil {
			return err
		}

		values := r.PostForm
		if len(files) > 0 {
			values = make(url.Values, len(r.PostForm)+len(files))

			for k, vv := range r.PostForm {
				values[k] = vv
			}

			// Uploaded files are marked as present for required fields validation.
			for _, name := range files {
				if _, ok := values[name]; !ok {
					values[name] = nil
				}
			}
		}

		if validator != nil {
			return decodeValidate(formDecoder, v.Addr().Interface(), values, rest.ParamInForm, validator)
		}

		return formDecoder.Decode(v.Addr().Interface(), values)
	}
}

func (df *DecoderFactory) parseForm(r *http.Request) error {
	if r.PostForm != nil {
		return nil
	}

	if strings.HasPrefix(rest.MediaType(r.Header.Get("Content-Type")), "multipart/") {
		if err := r.ParseMultipartForm(df.maxMemory()); err != nil {
			return fmt.Errorf("failed to parse multipart form: %w", err)
		}

		return nil
	}

	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("failed to parse form: %w", err)
	}

	return nil
}

// decodeFilesInStruct sets uploaded files to file fields and returns names of received files.
func decodeFilesInStruct(r *http.Request, v reflect.Value) ([]string, error) {
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return nil, nil
	}

	var (
		t     = v.Type()
		names []string
	)

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if isFileField(field.Type) {
			name, err := setFile(r, field, v.Field(i))
			if err != nil {
				return nil, err
			}

			if name != "" {
				names = append(names, name)
			}

			continue
		}

		if field.Anonymous {
			embedded, err := decodeFilesInStruct(r, v.Field(i))
			if err != nil {
				return nil, err
			}

			names = append(names, embedded...)
		}
	}

	return names, nil
}

func setFile(r *http.Request, field reflect.StructField, v reflect.Value) (string, error) {
	name := strings.Split(field.Tag.Get(jsonTag), ",")[0]
	if name == "" || name == "-" {
		return "", nil
	}

	if r.MultipartForm == nil {
		if field.Tag.Get("required") == "true" {
			return "", fmt.Errorf("%w: %q", ErrMissingRequiredFile, name)
		}

		return "", nil
	}

	file, header, err := r.FormFile(name)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			if field.Tag.Get("required") == "true" {
				return "", fmt.Errorf("%w: %q", ErrMissingRequiredFile, name)
			}

			return "", nil
		}

		return "", fmt.Errorf("failed to get file %q from request: %w", name, err)
	}

	if field.Type == multipartFileType {
		v.Set(reflect.ValueOf(file))
	}

	if field.Type == multipartFileHeaderType {
		v.Set(reflect.ValueOf(header))
	}

	if field.Type == multipartFilesType {
		res := make([]multipart.File, 0, len(r.MultipartForm.File[name]))

		for _, h := range r.MultipartForm.File[name] {
			f, err := h.Open()
			if err != nil {
				return "", fmt.Errorf("failed to open uploaded file %s (%s): %w", name, h.Filename, err)
			}

			res = append(res, f)
		}

		v.Set(reflect.ValueOf(res))
	}

	if field.Type == multipartFileHeadersType {
		v.Set(reflect.ValueOf(r.MultipartForm.File[name]))
	}

	return name, nil
}
