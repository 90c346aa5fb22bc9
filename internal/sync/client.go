// Package sync talks to the account sync server: sign-in, token exchange
// and the silent refresh flow with its legacy fallback.
package sync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ClientIDDefault identifies the app's own identity provider. Third-party
// providers (e.g. federated sign-in) use their own client ids.
const ClientIDDefault = "pocketcasts"

const loginScope = "mobile"

// Client provides access to the sync server auth endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new sync server client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Login signs in with email and password.
func (c *Client) Login(email, password string) (*LoginResponse, error) {
	var result LoginResponse
	err := c.post("/user/login", loginRequest{Email: email, Password: password, Scope: loginScope}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// TokenUsingAuthorizationCode exchanges a single-use authorization code
// for tokens.
func (c *Client) TokenUsingAuthorizationCode(code, clientID string) (*TokenResponse, error) {
	var result TokenResponse
	err := c.post("/user/token", buildAuthorizationRequest(code, clientID), &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// TokenUsingRefreshToken refreshes the access token.
func (c *Client) TokenUsingRefreshToken(refreshToken, clientID string) (*TokenResponse, error) {
	var result TokenResponse
	err := c.post("/user/token", buildRefreshRequest(refreshToken, clientID), &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Authorize runs the legacy authorize step, trading credentials for an
// authorization code.
func (c *Client) Authorize(email, password, clientID, state string) (*AuthorizeResponse, error) {
	req := AuthorizeRequest{
		ResponseType: "code",
		ClientID:     clientID,
		State:        state,
		Email:        email,
		Password:     password,
	}
	var result AuthorizeResponse
	if err := c.post("/user/authorize", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates a new account.
func (c *Client) Register(email, password string) (*RegisterResponse, error) {
	var result RegisterResponse
	err := c.post("/user/register", registerRequest{Email: email, Password: password}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) post(path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &HTTPError{StatusCode: resp.StatusCode}
		var body errorBody
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			httpErr.Message = body.ErrorMessage
			httpErr.MessageID = body.ErrorMessageID
		}
		return httpErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
