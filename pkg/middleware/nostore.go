package middleware

import "net/http"

// NoStore forbids clients and proxies from caching the response. Responses
// that carry decrypted secrets or tokens go through it.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		next.ServeHTTP(w, r)
	})
}
