package cookie

import "net/http"

// ResponseWriter wraps an http.ResponseWriter to record the status, the body size and
// whether the headers have been committed.
type ResponseWriter struct {
	http.ResponseWriter
	status int
	size   int
}

// Track wraps w. An already-tracked writer is returned unchanged.
func Track(w http.ResponseWriter) *ResponseWriter {
	if tw, ok := w.(*ResponseWriter); ok {
		return tw
	}
	return &ResponseWriter{ResponseWriter: w}
}

func (w *ResponseWriter) WriteHeader(code int) {
	if w.status != 0 {
		return
	}
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.size += n
	return n, err
}

// Flush implements http.Flusher when the underlying writer does.
func (w *ResponseWriter) Flush() {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Committed reports whether the status line has been sent.
func (w *ResponseWriter) Committed() bool {
	return w.status != 0
}

// Status returns the written status, or 200 when nothing was written explicitly.
func (w *ResponseWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Size returns the number of body bytes written.
func (w *ResponseWriter) Size() int {
	return w.size
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
