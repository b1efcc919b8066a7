package shield

import "net/http"

// MaxUploadBody returns middleware that caps every request body at maxBytes.
// Multipart uploads get maxBytes plus headroom for part headers and
// boundaries, so a document of exactly maxBytes still fits.
func MaxUploadBody(maxBytes int64) func(http.Handler) http.Handler {
	const multipartOverhead = 64 * 1024
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.Body != http.NoBody {
				// One byte over the cap must still reach the handler so it
				// can answer with its own oversized-input error.
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1+multipartOverhead)
			}
			next.ServeHTTP(w, r)
		})
	}
}
