package middleware

import (
	"net/http"

	"github.com/kbukum/verbatim/util"
)

const defaultMaxBodySize = 512 << 20

// BodySizeLimit caps request bodies at maxSize ("512MB", "10KB"). Reads
// past the cap fail with *http.MaxBytesError.
func BodySizeLimit(maxSize string) Middleware {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, size)
			next.ServeHTTP(w, r)
		})
	}
}
