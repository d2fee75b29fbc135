// Package middleware holds the HTTP middleware of the service. Everything
// except Auth is a plain net/http Middleware and wraps the whole handler,
// so it also covers routes mounted outside Gin.
package middleware

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/kbukum/verbatim/errors"
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain composes middleware. The first one is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

func writeError(w http.ResponseWriter, err *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(err.HTTPStatus)
	_ = json.NewEncoder(w).Encode(err.ToResponse())
}
