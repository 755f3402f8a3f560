// Package client talks to the vault registry server over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/florancealade/zephyryx-storage-keep/models"
)

// ErrAuthorization matches any 401 response.
var ErrAuthorization = errors.New("authorization failed")

// APIError is a non-success response from the server.
type APIError struct {
	Status  int
	Kind    string
	Message string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("server returned %d (%s): %s", e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrAuthorization) match a 401.
func (e *APIError) Is(target error) bool {
	return target == ErrAuthorization && e.Status == http.StatusUnauthorized
}

// Client is a registry API client. Not safe for concurrent SetAuthToken.
type Client struct {
	baseURL    string
	httpClient *http.Client
	authToken  string
}

// NewHTTPClient creates a client for the server at baseURL.
func NewHTTPClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetAuthToken sets the bearer token sent with every request.
func (c *Client) SetAuthToken(token string) {
	c.authToken = token
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	u, err := url.JoinPath(c.baseURL, path)
	if err != nil {
		return nil, fmt.Errorf("build url for %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	return req, nil
}

// doJSON sends in as JSON, expects status want, and decodes the body into out.
func (c *Client) doJSON(ctx context.Context, method, path string, in any, want int, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		return readAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body models.ErrorResponse
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		apiErr.Kind = body.Kind
		apiErr.Message = body.Error
	} else {
		apiErr.Message = string(bytes.TrimSpace(data))
	}
	return apiErr
}

func vaultPath(id uint64, rest ...string) string {
	p := "/api/vaults/" + strconv.FormatUint(id, 10)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, username, password string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/register",
		models.RegisterRequest{Username: username, Password: password}, http.StatusCreated, nil)
}

// Login returns a bearer token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var resp models.LoginResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/login",
		models.LoginRequest{Username: username, Password: password}, http.StatusOK, &resp)
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("server returned an empty token")
	}
	c.authToken = resp.Token
	return resp.Token, nil
}

// Height returns the server's current block height.
func (c *Client) Height(ctx context.Context) (uint64, error) {
	var resp models.HeightResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/height", nil, http.StatusOK, &resp); err != nil {
		return 0, err
	}
	return resp.Height, nil
}

// RegisterVault creates a record and returns its id.
func (c *Client) RegisterVault(ctx context.Context, req models.RegisterVaultRequest) (uint64, error) {
	var resp models.RegisterVaultResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/vaults", req, http.StatusCreated, &resp); err != nil {
		return 0, err
	}
	return resp.VaultID, nil
}

// UpdateVault rewrites the content fields of a record.
func (c *Client) UpdateVault(ctx context.Context, id uint64, req models.UpdateVaultRequest) error {
	return c.doJSON(ctx, http.MethodPut, vaultPath(id), req, http.StatusOK, nil)
}

// Vault fetches one record.
func (c *Client) Vault(ctx context.Context, id uint64) (*models.Vault, error) {
	var v models.Vault
	if err := c.doJSON(ctx, http.MethodGet, vaultPath(id), nil, http.StatusOK, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Vaults lists the caller's records.
func (c *Client) Vaults(ctx context.Context) ([]models.Vault, error) {
	var list []models.Vault
	if err := c.doJSON(ctx, http.MethodGet, "/api/vaults", nil, http.StatusOK, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// Delegate grants access on a record.
func (c *Client) Delegate(ctx context.Context, id uint64, req models.DelegateRequest) error {
	return c.doJSON(ctx, http.MethodPost, vaultPath(id, "grants"), req, http.StatusOK, nil)
}

// Grant fetches the grant held by grantee.
func (c *Client) Grant(ctx context.Context, id uint64, grantee models.Principal) (*models.GrantView, error) {
	var view models.GrantView
	path := vaultPath(id, "grants", url.PathEscape(string(grantee)))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, http.StatusOK, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Grants lists the grants on a record.
func (c *Client) Grants(ctx context.Context, id uint64) ([]models.GrantView, error) {
	var views []models.GrantView
	if err := c.doJSON(ctx, http.MethodGet, vaultPath(id, "grants"), nil, http.StatusOK, &views); err != nil {
		return nil, err
	}
	return views, nil
}

// UploadContent sends the content blob for a record.
func (c *Client) UploadContent(ctx context.Context, id uint64, data io.Reader, size int64) error {
	req, err := c.newRequest(ctx, http.MethodPut, vaultPath(id, "content"), data)
	if err != nil {
		return err
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload content: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return readAPIError(resp)
	}
	return nil
}

// DownloadContent opens the content blob of a record. The caller closes it.
func (c *Client) DownloadContent(ctx context.Context, id uint64) (io.ReadCloser, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, vaultPath(id, "content"), nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download content: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, "", readAPIError(resp)
	}
	return resp.Body, resp.Header.Get("X-Vault-Fingerprint"), nil
}
