// Package gzip keeps JSON payloads compressed, e.g. a prepared OpenAPI document.
package gzip

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Writer is a response writer that can send gzip compressed data as is.
//
// GzipWrite returns 0, nil if client does not accept gzip encoding.
type Writer interface {
	GzipWrite([]byte) (int, error)
}

// JSONContainer holds gzip compressed JSON of a value with hash of content.
type JSONContainer struct {
	gz   []byte
	hash string
}

// PackJSON compresses JSON of value into container.
func (jc *JSONContainer) PackJSON(v interface{}) error {
	gz, err := MarshalJSON(v)
	if err != nil {
		return err
	}

	jc.gz = gz
	jc.hash = strconv.FormatUint(xxhash.Sum64(gz), 36)

	return nil
}

// UnpackJSON decodes JSON of container into value.
func (jc JSONContainer) UnpackJSON(v interface{}) error {
	return UnmarshalJSON(jc.gz, v)
}

// GzipCompressedJSON returns compressed JSON.
func (jc JSONContainer) GzipCompressedJSON() []byte {
	return jc.gz
}

// ETag returns hash of content.
func (jc JSONContainer) ETag() string {
	return jc.hash
}

// MarshalJSON returns decompressed JSON.
func (jc JSONContainer) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer

	if _, err := WriteCompressedBytes(jc.gz, &b); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}

// JSONWriteTo writes JSON to w, compressed bytes are written as is if w is a Writer.
func (jc JSONContainer) JSONWriteTo(w io.Writer) (int, error) {
	return WriteCompressedBytes(jc.gz, w)
}

// ServeHTTP serves JSON with ETag, request with matching If-None-Match gets 304 Not Modified.
//
// Compressed JSON is sent as is to clients that accept gzip, see response/gzip.Middleware.
func (jc JSONContainer) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	rw.Header().Set("Etag", jc.hash)

	if match := r.Header.Get("If-None-Match"); match != "" && match == jc.hash {
		rw.WriteHeader(http.StatusNotModified)

		return
	}

	if _, err := jc.JSONWriteTo(rw); err != nil {
		http.Error(rw, err.Error(), http.StatusInternalServerError)
	}
}

// WriteCompressedBytes writes compressed bytes to w as is if w is a Writer that accepts them,
// otherwise decompressed bytes are written.
func WriteCompressedBytes(compressed []byte, w io.Writer) (int, error) {
	if gw, ok := w.(Writer); ok {
		if n, err := gw.GzipWrite(compressed); n != 0 || err != nil {
			return n, err
		}
	}

	r, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(w, r) //nolint:gosec // Compressed data is produced by this package.
	if err != nil {
		return int(n), err
	}

	return int(n), r.Close()
}

// MarshalJSON encodes value as gzip compressed JSON.
func MarshalJSON(v interface{}) ([]byte, error) {
	var b bytes.Buffer

	w := gzip.NewWriter(&b)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return nil, err
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	// Copy trims spare capacity of buffer.
	return append([]byte(nil), b.Bytes()...), nil
}

// UnmarshalJSON decodes gzip compressed JSON into value.
func UnmarshalJSON(data []byte, v interface{}) error {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return err
	}

	if err := json.NewDecoder(r).Decode(v); err != nil {
		return err
	}

	return r.Close()
}
