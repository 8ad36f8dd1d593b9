// pkg/middleware/headers.go
package middleware

import (
	"encoding/json"
	"net/http"
)

// ResponseHeaders disables caching and adds the deployment's additional
// headers to every response.
func ResponseHeaders(extra map[string]string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
			for k, v := range extra {
				h.Set(k, v)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeError mirrors the API's error body for failures raised before a
// handler runs.
func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json;charset=UTF-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "message": message, "fields": ""})
}
