package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "github.com/kbukum/verbatim/errors"
	"github.com/kbukum/verbatim/logger"
)

// Recovery turns a handler panic into a 500 envelope. The stack goes to the
// log only.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					log.WithContext(r.Context()).Error("Panic recovered", logger.Fields(
						logger.FieldError, fmt.Sprint(p),
						"stack", string(debug.Stack()),
						"path", r.URL.Path,
						"method", r.Method,
					))
					writeError(w, apperrors.Internal(nil))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
