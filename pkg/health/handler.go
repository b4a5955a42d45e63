package health

import (
	"encoding/json"
	"net/http"
	"strings"
)

// LivenessHandler always answers OK.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respond(w, r, http.StatusOK, &Response{Status: StatusHealthy})
	}
}

// ReadinessHandler answers 200 when every check passes and 503 otherwise.
// checks is read on each request, so entries added after the handler is
// built are honoured.
func ReadinessHandler(checks Checks, opts ...Option) http.HandlerFunc {
	o := newOptions(opts...)

	return func(w http.ResponseWriter, r *http.Request) {
		resp, _ := run(r.Context(), checks, o)

		status := http.StatusOK
		if resp.Status == StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		respond(w, r, status, resp)
	}
}

func respond(w http.ResponseWriter, r *http.Request, status int, resp *Response) {
	if r.URL.Query().Get("format") == "json" || strings.Contains(r.Header.Get("Accept"), "application/json") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if status == http.StatusOK {
		_, _ = w.Write([]byte("OK"))
		return
	}
	_, _ = w.Write([]byte("Service Unavailable"))
}
