package secret

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/kbukum/verbatim/httpclient"
	"github.com/kbukum/verbatim/httpclient/rest"
)

const defaultSecretManagerURL = "https://secretmanager.googleapis.com"

// SecretManager reads the latest version of a secret from Google Secret
// Manager over REST.
type SecretManager struct {
	project string
	client  *rest.Client
}

type accessResponse struct {
	Name    string `json:"name"`
	Payload struct {
		Data string `json:"data"`
	} `json:"payload"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewSecretManager creates a provider for project. token is an OAuth2 access
// token; baseURL overrides the public endpoint.
func NewSecretManager(project, token, baseURL string) (*SecretManager, error) {
	if project == "" {
		return nil, fmt.Errorf("secret: project is required for secret manager")
	}
	if baseURL == "" {
		baseURL = defaultSecretManagerURL
	}
	cfg := httpclient.Config{BaseURL: baseURL, Retry: httpclient.DefaultRetryConfig()}
	if token != "" {
		cfg.Auth = httpclient.BearerAuth(token)
	}
	client, err := rest.New(cfg)
	if err != nil {
		return nil, err
	}
	return &SecretManager{project: project, client: client}, nil
}

func (*SecretManager) Name() string { return "secretmanager" }

func (s *SecretManager) Lookup(ctx context.Context, name string) (string, error) {
	path := fmt.Sprintf("/v1/projects/%s/secrets/%s/versions/latest:access",
		url.PathEscape(s.project), url.PathEscape(name))

	resp, err := rest.Get[accessResponse](ctx, s.client, path)
	if err != nil {
		if httpclient.IsNotFound(err) {
			return "", ErrNotFound
		}
		if resp != nil && resp.Data.Error != nil {
			return "", fmt.Errorf("secret manager: %s", resp.Data.Error.Message)
		}
		return "", fmt.Errorf("secret manager: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(resp.Data.Payload.Data)
	if err != nil {
		return "", fmt.Errorf("secret manager: decode payload: %w", err)
	}
	if v := strings.TrimSpace(string(raw)); v != "" {
		return v, nil
	}
	return "", ErrNotFound
}
