package sync

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginSendsCredentialsAndScope(t *testing.T) {
	var got loginRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(LoginResponse{
			AccessToken:  "access-1",
			RefreshToken: "refresh-1",
			Email:        "user@example.com",
			UUID:         "user-uuid",
			ExpiresIn:    3600,
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Login("user@example.com", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, "user@example.com", got.Email)
	assert.Equal(t, "hunter2", got.Password)
	assert.Equal(t, "mobile", got.Scope)
	assert.Equal(t, "access-1", resp.AccessToken)
	assert.Equal(t, "refresh-1", resp.RefreshToken)
}

func TestTokenRequestWireFormat(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/token", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(TokenResponse{AccessToken: "access-2", ExpiresIn: 3600})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	_, err := client.TokenUsingRefreshToken("refresh-1", "pocketcasts")
	require.NoError(t, err)
	assert.Equal(t, "refresh_token", got["grant_type"])
	assert.Equal(t, "refresh-1", got["refresh_token"])
	assert.Equal(t, "pocketcasts", got["client_id"])
	assert.NotContains(t, got, "code", "unused fields stay off the wire")

	// Decode merges into a live map, so reset between requests.
	got = nil
	_, err = client.TokenUsingAuthorizationCode("code-1", "pocketcasts")
	require.NoError(t, err)
	assert.Equal(t, "authorization_code", got["grant_type"])
	assert.Equal(t, "code-1", got["code"])
	assert.NotContains(t, got, "refresh_token")
}

func TestAuthorizeWireFormat(t *testing.T) {
	var got AuthorizeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/authorize", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(AuthorizeResponse{Code: "code-9", State: got.State})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Authorize("user@example.com", "refresh-as-password", "pocketcasts", "st")
	require.NoError(t, err)

	assert.Equal(t, "code", got.ResponseType)
	assert.Equal(t, "refresh-as-password", got.Password)
	assert.Equal(t, "code-9", resp.Code)
	assert.Equal(t, "st", resp.State)
}

func TestUnauthorizedResponseMatchesSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(errorBody{
			ErrorMessage:   "token expired",
			ErrorMessageID: "token_refresh_invalid",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.TokenUsingRefreshToken("stale", "pocketcasts")
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrUnauthorized)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Equal(t, "token expired", httpErr.Message)
	assert.Equal(t, "token_refresh_invalid", httpErr.MessageID)
}

func TestNonUnauthorizedErrorDoesNotMatchSentinel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Login("user@example.com", "pw")
	require.Error(t, err)

	assert.NotErrorIs(t, err, ErrUnauthorized)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Empty(t, httpErr.Message, "unparseable body leaves the message empty")
}

func TestRegister(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/register", r.URL.Path)
		json.NewEncoder(w).Encode(RegisterResponse{Success: true, Token: "tok", UUID: "new-uuid"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	resp, err := client.Register("new@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "new-uuid", resp.UUID)
}

func TestMessageForID(t *testing.T) {
	assert.Equal(t, "Incorrect password", messageForID("login_password_incorrect", "server text"))
	assert.Equal(t, "server text", messageForID("some_unknown_id", "server text"))
	assert.Equal(t, fallbackLoginMessage, messageForID("", ""))
}
