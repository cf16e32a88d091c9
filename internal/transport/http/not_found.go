package http

import "net/http"

// NotFoundHandler is the mux fallback; unknown routes get the same JSON
// error envelope as every other failure.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "not found")
	})
}
