// Package gzip compresses responses for clients that accept gzip encoding.
package gzip

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"net/http"
	"strings"
	"sync"

	gz "github.com/swaggest/rest-openapi/gzip"
	"github.com/swaggest/rest-openapi/nethttp"
)

const bufferSize = 8 * 1024

// Middleware compresses responses of next for requests that accept gzip encoding.
//
// Responses that already have Content-Encoding are sent as is. Handlers that hold prepared
// compressed payloads, e.g. gzip.JSONContainer with OpenAPI document, write them without recompression.
func Middleware(next http.Handler) http.Handler {
	if nethttp.IsWrapperChecker(next) {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !acceptsGzip(r) {
			next.ServeHTTP(w, r)

			return
		}

		w.Header().Add("Vary", "Accept-Encoding")

		cw := &compressingWriter{ResponseWriter: w}
		defer func() {
			if err := cw.Close(); err != nil {
				panic(fmt.Sprintf("BUG: cannot close gzip writer: %s", err))
			}
		}()

		next.ServeHTTP(cw, r)
	})
}

func acceptsGzip(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Accept-Encoding")), "gzip")
}

// compressor is a pooled gzip writer with a buffer in front of it.
type compressor struct {
	zw *gzip.Writer
	bw *bufio.Writer
}

var compressors sync.Pool

func acquireCompressor(w http.ResponseWriter) *compressor {
	if c, ok := compressors.Get().(*compressor); ok {
		c.zw.Reset(w)
		c.bw.Reset(c.zw)

		return c
	}

	zw, err := gzip.NewWriterLevel(w, flate.BestSpeed)
	if err != nil {
		panic(fmt.Sprintf("BUG: cannot create gzip writer: %s", err))
	}

	return &compressor{zw: zw, bw: bufio.NewWriterSize(zw, bufferSize)}
}

func (c *compressor) flush() error {
	if err := c.bw.Flush(); err != nil {
		return err
	}

	return c.zw.Flush()
}

// release closes gzip stream and returns compressor to pool.
func (c *compressor) release() error {
	err := c.bw.Flush()
	if err == nil {
		err = c.zw.Close()
	}

	compressors.Put(c)

	return err
}

type compressingWriter struct {
	http.ResponseWriter

	c *compressor

	// precompressed is set when handler sends gzip payload with GzipWrite.
	precompressed bool
	headerSent    bool
	passThrough   bool
}

var _ gz.Writer = &compressingWriter{}

// GzipWrite sends already compressed data, it returns 0, nil if headers are sent.
func (w *compressingWriter) GzipWrite(data []byte) (int, error) {
	if w.headerSent {
		return 0, nil
	}

	w.precompressed = true

	return w.Write(data)
}

// WriteHeader decides on compression and sends headers.
func (w *compressingWriter) WriteHeader(status int) {
	if w.headerSent {
		return
	}

	h := w.Header()

	w.passThrough = !bodyAllowed(status) || h.Get("Content-Encoding") != ""

	if !w.passThrough {
		h.Set("Content-Encoding", "gzip")
		h.Del("Content-Length")

		// Content type sniffing does not work on compressed body.
		if h.Get("Content-Type") == "" {
			h.Set("Content-Type", "text/html")
		}

		if !w.precompressed {
			w.c = acquireCompressor(w.ResponseWriter)
		}
	}

	w.ResponseWriter.WriteHeader(status)
	w.headerSent = true
}

func bodyAllowed(status int) bool {
	return status >= http.StatusOK && status != http.StatusNoContent && status != http.StatusNotModified
}

func (w *compressingWriter) Write(p []byte) (int, error) {
	if !w.headerSent {
		w.WriteHeader(http.StatusOK)
	}

	if w.c == nil {
		return w.ResponseWriter.Write(p)
	}

	return w.c.bw.Write(p)
}

// Flush implements http.Flusher.
func (w *compressingWriter) Flush() {
	if w.c != nil {
		if err := w.c.flush(); err != nil && !clientGone(err) {
			panic(fmt.Sprintf("BUG: cannot flush gzip writer: %s", err))
		}
	}

	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Close finishes gzip stream.
func (w *compressingWriter) Close() error {
	if w.c == nil {
		return nil
	}

	err := w.c.release()
	w.c = nil

	if err != nil && clientGone(err) {
		return nil
	}

	return err
}

func clientGone(err error) bool {
	s := err.Error()

	return strings.Contains(s, "broken pipe") || strings.Contains(s, "reset by peer")
}
