package httpclient

import (
	"context"
	"fmt"
	"net/http"
)

// AuthType identifies the authentication method.
type AuthType int

const (
	AuthNone AuthType = iota
	AuthBearer
	AuthAPIKey
)

// AuthConfig configures request authentication.
type AuthConfig struct {
	Type AuthType
	// Token is a static credential: the bearer token or the API key.
	Token string
	// TokenFunc supplies the credential per request when set, for
	// short-lived access tokens.
	TokenFunc func(ctx context.Context) (string, error)
	// InQuery sends an API key as a query parameter instead of a header.
	InQuery bool
	// Name is the header or query parameter carrying an API key.
	Name string
}

// BearerAuth sends "Authorization: Bearer <token>".
func BearerAuth(token string) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, Token: token}
}

// BearerTokenFunc sends a bearer token fetched per request.
func BearerTokenFunc(fn func(ctx context.Context) (string, error)) *AuthConfig {
	return &AuthConfig{Type: AuthBearer, TokenFunc: fn}
}

// APIKeyAuthHeader sends key in the named header.
func APIKeyAuthHeader(key, header string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Token: key, Name: header}
}

// APIKeyAuthQuery sends key as the named query parameter.
func APIKeyAuthQuery(key, param string) *AuthConfig {
	return &AuthConfig{Type: AuthAPIKey, Token: key, Name: param, InQuery: true}
}

func (a *AuthConfig) apply(req *http.Request) error {
	if a == nil || a.Type == AuthNone {
		return nil
	}

	token := a.Token
	if a.TokenFunc != nil {
		t, err := a.TokenFunc(req.Context())
		if err != nil {
			return fmt.Errorf("httpclient: resolve credential: %w", err)
		}
		token = t
	}

	switch a.Type {
	case AuthBearer:
		req.Header.Set("Authorization", "Bearer "+token)
	case AuthAPIKey:
		name := a.Name
		if name == "" {
			name = "X-API-Key"
		}
		if a.InQuery {
			q := req.URL.Query()
			q.Set(name, token)
			req.URL.RawQuery = q.Encode()
		} else {
			req.Header.Set(name, token)
		}
	}
	return nil
}
