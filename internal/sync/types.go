package sync

// Wire types for the sync server token endpoints. The field names are a
// fixed external contract and must round-trip exactly as the backend
// expects them.

// TokenRequest is the body of a token exchange or refresh call.
// GrantType is either "refresh_token" or "authorization_code".
type TokenRequest struct {
	GrantType    string `json:"grant_type"`
	Code         string `json:"code,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ClientID     string `json:"client_id,omitempty"`
}

func buildAuthorizationRequest(code, clientID string) TokenRequest {
	return TokenRequest{GrantType: "authorization_code", Code: code, ClientID: clientID}
}

func buildRefreshRequest(refreshToken, clientID string) TokenRequest {
	return TokenRequest{GrantType: "refresh_token", RefreshToken: refreshToken, ClientID: clientID}
}

// TokenResponse is returned by the token endpoint. RefreshToken may
// legitimately be empty; the stored one stays valid in that case.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Scope    string `json:"scope"`
}

// LoginResponse is returned by the sign-in endpoint.
type LoginResponse struct {
	RefreshToken string `json:"refresh_token"`
	AccessToken  string `json:"access_token"`
	Email        string `json:"email"`
	UUID         string `json:"uuid"`
	IsNew        bool   `json:"is_new"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuthorizeRequest starts the legacy authorize-then-exchange flow.
type AuthorizeRequest struct {
	ResponseType string `json:"response_type"`
	ClientID     string `json:"client_id"`
	State        string `json:"state"`
	Email        string `json:"email"`
	Password     string `json:"password"`
}

// AuthorizeResponse carries the single-use authorization code.
type AuthorizeResponse struct {
	Code  string `json:"code"`
	State string `json:"state"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterResponse is returned by the account creation endpoint.
type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Token   string `json:"token"`
	UUID    string `json:"uuid"`
}

type errorBody struct {
	ErrorMessage   string `json:"errorMessage"`
	ErrorMessageID string `json:"errorMessageId"`
}

// TokenPair is the transient product of an auth flow. It is handed to the
// credential store, never persisted by this package.
type TokenPair struct {
	AccessToken  string
	RefreshToken string // empty when the server returned none
	ClientID     string
	ExpiresIn    int64 // seconds
}
