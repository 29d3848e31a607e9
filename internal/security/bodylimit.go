package security

import (
	"net/http"
)

// BodyLimit caps request payload sizes. Every write endpoint in this API
// carries a small JSON document, so the cap can be tight.
type BodyLimit struct {
	Max int64
}

// Middleware rejects oversized requests with HTTP 413. Requests with a
// declared Content-Length above the cap are refused outright; the rest get
// a MaxBytesReader so a streamed body still cannot exceed the cap.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			http.Error(w, "request entity too large", http.StatusRequestEntityTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		next.ServeHTTP(w, r)
	})
}
