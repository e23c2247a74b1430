// Package platform is a credential backend that authenticates against a
// remote REST API.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// API paths.
const (
	PathLogin    = "/api/v1/auth/login"
	PathRegister = "/api/v1/auth/register"
	PathLogout   = "/api/v1/auth/logout"
)

// Client is the platform API client
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a new platform API client
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// User represents a platform user
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AvatarURL string `json:"avatar_url"`
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// errorResponse is the API's JSON error body
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Login authenticates and returns tokens.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, PathLogin, "", LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var loginResp LoginResponse
	if err := parseResponse(resp, &loginResp); err != nil {
		return nil, err
	}
	return &loginResp, nil
}

// Register creates an account and then logs in to obtain tokens.
func (c *Client) Register(ctx context.Context, username, email, password string) (*LoginResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, PathRegister, "", RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var user User
	if err := parseResponse(resp, &user); err != nil {
		return nil, err
	}

	loginResp, err := c.Login(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("registration succeeded but login failed: %w", err)
	}
	return loginResp, nil
}

// Logout revokes token.
func (c *Client) Logout(ctx context.Context, token string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, PathLogout, token, nil)
	if err != nil {
		return err
	}
	return parseResponse(resp, nil)
}

// doRequest performs an HTTP request, adding the bearer token when set
func (c *Client) doRequest(ctx context.Context, method, path, token string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	return resp, nil
}

// parseResponse decodes a 2xx body into target, or returns an *APIError
// carrying the server's message verbatim.
func parseResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode}

		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err == nil {
			if errResp.Error != "" {
				apiErr.Message = errResp.Error
			} else if errResp.Message != "" {
				apiErr.Message = errResp.Message
			}
		}
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return apiErr
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
