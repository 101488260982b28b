package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"account-linker/internal/domain"
)

const maxErrorBody = 2048

// HTTPClient implementa Directory contra la API de administración de usuarios.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient construye el cliente. Con token vacío se asume que httpClient ya autentica (ver NewClientCredentialsHTTPClient).
func NewHTTPClient(baseURL, token string, httpClient *http.Client, logger *zap.Logger) *HTTPClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  httpClient,
		logger:  logger,
	}
}

func (c *HTTPClient) UsersByEmail(ctx context.Context, email string) ([]domain.IdentityRecord, error) {
	const op = "users by email"
	query := url.Values{"email": {email}}
	resp, body, err := c.send(ctx, http.MethodGet, "/users-by-email", query, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(op, resp, body)
	}

	var users []domain.IdentityRecord
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("%s: unmarshal response: %w", op, err)
	}
	return users, nil
}

func (c *HTTPClient) UpdateAppMetadata(ctx context.Context, userID string, metadata domain.Metadata) error {
	return c.patchUser(ctx, "update app metadata", userID, map[string]any{"app_metadata": nonNil(metadata)})
}

func (c *HTTPClient) UpdateUserMetadata(ctx context.Context, userID string, metadata domain.Metadata) error {
	return c.patchUser(ctx, "update user metadata", userID, map[string]any{"user_metadata": nonNil(metadata)})
}

func (c *HTTPClient) LinkIdentity(ctx context.Context, primaryUserID string, identity domain.Identity) error {
	const op = "link identity"
	path := "/users/" + url.PathEscape(primaryUserID) + "/identities"
	resp, body, err := c.send(ctx, http.MethodPost, path, nil, identity)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode >= 400 {
		return c.statusError(op, resp, body)
	}
	return nil
}

func (c *HTTPClient) patchUser(ctx context.Context, op, userID string, payload map[string]any) error {
	resp, body, err := c.send(ctx, http.MethodPatch, "/users/"+url.PathEscape(userID), nil, payload)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode >= 400 {
		return c.statusError(op, resp, body)
	}
	return nil
}

func (c *HTTPClient) send(ctx context.Context, method, path string, query url.Values, payload any) (*http.Response, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(bodyBytes)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	return resp, respBody, nil
}

func (c *HTTPClient) statusError(op string, resp *http.Response, body []byte) error {
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	c.logger.Warn("directory error response",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.String("body", text),
	)
	return &StatusError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       text,
	}
}

func nonNil(m domain.Metadata) domain.Metadata {
	if m == nil {
		return domain.Metadata{}
	}
	return m
}
