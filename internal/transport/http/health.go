package http

import "net/http"

// HealthHandler reports process liveness. It answers before any
// middleware-dependent state so load balancers can probe a cold start.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
