package internal

import (
	"bufio"
	"net"
	"net/http"
	"sync"
)

// ResponseWriter records the status and size of a response and runs hooks
// right before the header is sent.
type ResponseWriter struct {
	http.ResponseWriter
	beforeWrite []func()
	status      int
	preset      int
	size        int64
	mu          sync.Mutex
	written     bool
}

// NewResponseWriter wraps w.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w}
}

// OnBeforeWrite registers fn to run once, before the header is written.
// Hooks run in registration order.
func (w *ResponseWriter) OnBeforeWrite(fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.beforeWrite = append(w.beforeWrite, fn)
}

// Preset sets the status used when the body is written without an explicit
// WriteHeader call, and when the pipeline ends without writing anything.
func (w *ResponseWriter) Preset(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.written {
		w.preset = code
	}
}

// PresetStatus returns the status set by Preset, or zero.
func (w *ResponseWriter) PresetStatus() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.preset
}

func (w *ResponseWriter) WriteHeader(code int) {
	if !w.begin(code) {
		return
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	code := w.preset
	w.mu.Unlock()
	if code == 0 {
		code = http.StatusOK
	}
	if w.begin(code) {
		w.ResponseWriter.WriteHeader(code)
	}

	n, err := w.ResponseWriter.Write(b)
	w.mu.Lock()
	w.size += int64(n)
	w.mu.Unlock()
	return n, err
}

// begin marks the response written and runs the hooks. It returns false
// when the header was already sent.
func (w *ResponseWriter) begin(code int) bool {
	w.mu.Lock()
	if w.written {
		w.mu.Unlock()
		return false
	}
	w.written = true
	w.status = code
	hooks := w.beforeWrite
	w.beforeWrite = nil
	w.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	return true
}

// Status returns the status sent, or zero before the header is written.
func (w *ResponseWriter) Status() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

func (w *ResponseWriter) Size() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

func (w *ResponseWriter) Written() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

func (w *ResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *ResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
