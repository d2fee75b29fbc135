package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/verbatim/auth"
	apperrors "github.com/kbukum/verbatim/errors"
)

// TokenParser verifies a bearer token. *auth.Service satisfies it.
type TokenParser interface {
	Parse(token string) (*auth.Claims, error)
}

// Auth requires a valid bearer token. Claims are stored in the request
// context. EventSource cannot send headers, so GET requests may pass the
// token as ?access_token= instead.
func Auth(p TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c.Request)
		if token == "" {
			abort(c, apperrors.Unauthorized(""))
			return
		}
		claims, err := p.Parse(token)
		if err != nil {
			abort(c, apperrors.InvalidToken())
			return
		}
		c.Request = c.Request.WithContext(auth.WithClaims(c.Request.Context(), claims))
		c.Set("subject", claims.Subject)
		c.Next()
	}
}

func bearer(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return ""
		}
		return strings.TrimSpace(token)
	}
	if r.Method == http.MethodGet {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

func abort(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.HTTPStatus, err.ToResponse())
}
