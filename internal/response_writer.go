package internal

import (
	"net/http"
	"slices"
	"sync"
)

// ResponseWriter adapts a synthetic Response to http.ResponseWriter.
// Headers collected through Header are copied into the Response on the
// first write, after the before-write hooks have run; later changes to the
// http.Header are ignored, as with a real connection.
type ResponseWriter struct {
	response    *Response
	header      http.Header
	beforeWrite []func()
	size        int64
	written     bool
	mu          sync.Mutex
}

// NewResponseWriter creates a ResponseWriter over resp.
func NewResponseWriter(resp *Response) *ResponseWriter {
	return &ResponseWriter{
		response: resp,
		header:   make(http.Header),
	}
}

// OnBeforeWrite registers a hook to run before the first write.
// Hooks are called in registration order when WriteHeader or Write is first called.
func (w *ResponseWriter) OnBeforeWrite(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.beforeWrite = append(w.beforeWrite, fn)
}

// Header returns the header map that will be copied on the first write.
func (w *ResponseWriter) Header() http.Header {
	return w.header
}

// WriteHeader sets the response status. Only the first call has an effect.
func (w *ResponseWriter) WriteHeader(code int) {
	if !w.begin() {
		return
	}
	w.response.SetStatus(code)
}

// Write appends b to the response body through its output stream.
// An implicit write keeps whatever status the Response already has.
func (w *ResponseWriter) Write(b []byte) (int, error) {
	w.begin()

	stream, err := w.response.OutputStream()
	if err != nil {
		return 0, err
	}
	n, err := stream.Write(b)
	w.mu.Lock()
	w.size += int64(n)
	w.mu.Unlock()
	return n, err
}

// begin marks the writer as written, runs hooks and copies headers.
// It reports whether this call performed the transition.
func (w *ResponseWriter) begin() bool {
	w.mu.Lock()
	if w.written {
		w.mu.Unlock()
		return false
	}
	w.written = true
	hooks := w.beforeWrite
	w.beforeWrite = nil
	w.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	w.copyHeaders()
	return true
}

// finish copies pending headers when the handler never wrote anything.
func (w *ResponseWriter) finish() {
	w.begin()
}

func (w *ResponseWriter) copyHeaders() {
	keys := make([]string, 0, len(w.header))
	for k := range w.header {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		for i, v := range w.header[k] {
			if i == 0 {
				w.response.SetHeader(k, v)
				continue
			}
			w.response.AddHeader(k, v)
		}
	}
}

// Status returns the status of the underlying Response.
func (w *ResponseWriter) Status() int {
	return w.response.Status()
}

// Size returns the number of bytes written through this writer.
func (w *ResponseWriter) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// Written returns true once WriteHeader or Write has been called, or the
// Response has been committed directly.
func (w *ResponseWriter) Written() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written || w.response.IsCommitted()
}

// Flush implements http.Flusher by committing the Response.
func (w *ResponseWriter) Flush() {
	w.begin()
	_ = w.response.FlushBuffer()
}

// Response returns the synthetic response behind the writer.
func (w *ResponseWriter) Response() *Response {
	return w.response
}
