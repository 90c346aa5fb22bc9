package sync

import (
	"errors"
	"fmt"
	"log/slog"
)

// RefreshTriggerLogin tags the podcast refresh that follows a sign-in.
const RefreshTriggerLogin = "login"

// api is the slice of Client the auth flows consume. Kept narrow so tests
// can substitute a scripted server.
type api interface {
	Login(email, password string) (*LoginResponse, error)
	TokenUsingAuthorizationCode(code, clientID string) (*TokenResponse, error)
	TokenUsingRefreshToken(refreshToken, clientID string) (*TokenResponse, error)
	Authorize(email, password, clientID, state string) (*AuthorizeResponse, error)
	Register(email, password string) (*RegisterResponse, error)
}

var _ api = (*Client)(nil)

// CredentialStore persists tokens and account identity between runs.
type CredentialStore interface {
	AddAccount(email, uuid string) error
	SetAccessToken(token string, expiresIn int64) error
	SetRefreshToken(token string) error
	RefreshToken() (string, error)
	SetUserData(key, value string) error
	UserData(key string) (string, error)
}

// Watermarks tracks the sync high-water marks that a fresh sign-in must
// reset so the next refresh pulls everything.
type Watermarks interface {
	SetUsedAccountManager(used bool) error
	ClearLastModified() error
	ClearLastRefreshTime() error
}

// PodcastSyncer is the downstream consumer notified after sign-in.
type PodcastSyncer interface {
	MarkAllUnsynced() error
	Refresh(trigger string) error
}

// UserDataClientID is the credential store key holding the client id the
// stored refresh token was issued for.
const UserDataClientID = "client_id"

// AuthFailure is a sign-in or registration rejected by the server, already
// translated to a user-facing message.
type AuthFailure struct {
	Message   string
	MessageID string
	Err       error
}

func (f *AuthFailure) Error() string {
	return fmt.Sprintf("auth failed: %s", f.Message)
}

func (f *AuthFailure) Unwrap() error {
	return f.Err
}

// Result is a completed sign-in or registration.
type Result struct {
	Tokens   TokenPair
	UserUUID string
	Email    string
	IsNew    bool
}

// Auth drives the account flows: sign-in, registration, token refresh with
// its legacy fallback, and the side effects a new session requires.
type Auth struct {
	api        api
	creds      CredentialStore
	watermarks Watermarks
	syncer     PodcastSyncer
	log        *slog.Logger
}

// NewAuth creates the auth orchestrator.
func NewAuth(client *Client, creds CredentialStore, watermarks Watermarks, syncer PodcastSyncer, log *slog.Logger) *Auth {
	return newAuth(client, creds, watermarks, syncer, log)
}

func newAuth(a api, creds CredentialStore, watermarks Watermarks, syncer PodcastSyncer, log *slog.Logger) *Auth {
	if log == nil {
		log = slog.Default()
	}
	return &Auth{api: a, creds: creds, watermarks: watermarks, syncer: syncer, log: log}
}

// SignIn authenticates with email and password and runs the post-sign-in
// sequence. Server rejections come back as *AuthFailure.
func (a *Auth) SignIn(email, password string) (*Result, error) {
	resp, err := a.api.Login(email, password)
	if err != nil {
		return nil, authFailureFrom("sign in", err)
	}

	result := &Result{
		Tokens: TokenPair{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			ClientID:     ClientIDDefault,
			ExpiresIn:    resp.ExpiresIn,
		},
		UserUUID: resp.UUID,
		Email:    resp.Email,
		IsNew:    resp.IsNew,
	}
	if err := a.signInSuccessful(result); err != nil {
		return nil, err
	}
	return result, nil
}

// Register creates an account and runs the same post-sign-in sequence,
// since a successful registration is also a session.
func (a *Auth) Register(email, password string) (*Result, error) {
	resp, err := a.api.Register(email, password)
	if err != nil {
		return nil, authFailureFrom("register", err)
	}
	if !resp.Success {
		return nil, &AuthFailure{Message: messageForID("", resp.Message)}
	}

	result := &Result{
		Tokens: TokenPair{
			AccessToken: resp.Token,
			ClientID:    ClientIDDefault,
		},
		UserUUID: resp.UUID,
		Email:    email,
		IsNew:    true,
	}
	if err := a.signInSuccessful(result); err != nil {
		return nil, err
	}
	return result, nil
}

// ExchangeAuthorizationCode trades a single-use code from an external
// identity provider for tokens and establishes the session.
func (a *Auth) ExchangeAuthorizationCode(code, clientID, email, uuid string) (*Result, error) {
	resp, err := a.api.TokenUsingAuthorizationCode(code, clientID)
	if err != nil {
		return nil, authFailureFrom("exchange authorization code", err)
	}

	result := &Result{
		Tokens: TokenPair{
			AccessToken:  resp.AccessToken,
			RefreshToken: resp.RefreshToken,
			ClientID:     clientID,
			ExpiresIn:    resp.ExpiresIn,
		},
		UserUUID: uuid,
		Email:    email,
	}
	if err := a.signInSuccessful(result); err != nil {
		return nil, err
	}
	return result, nil
}

// RefreshAuthToken exchanges the stored refresh token for a fresh access
// token. When the server rejects the stored token with 401 and the account
// uses the default identity provider, it falls back once to the legacy
// authorize flow, where the refresh token doubles as the password.
func (a *Auth) RefreshAuthToken(email string) (string, error) {
	refreshToken, err := a.creds.RefreshToken()
	if err != nil {
		return "", fmt.Errorf("load refresh token: %w", err)
	}
	if refreshToken == "" {
		return "", errors.New("no refresh token stored")
	}

	clientID, err := a.creds.UserData(UserDataClientID)
	if err != nil {
		return "", fmt.Errorf("load client id: %w", err)
	}
	if clientID == "" {
		clientID = ClientIDDefault
	}

	resp, err := a.api.TokenUsingRefreshToken(refreshToken, clientID)
	if err != nil {
		if !errors.Is(err, ErrUnauthorized) || clientID != ClientIDDefault {
			return "", fmt.Errorf("refresh token: %w", err)
		}
		a.log.Info("refresh token rejected, trying legacy authorize flow", "email", email)
		resp, err = a.legacyRefresh(email, refreshToken, clientID)
		if err != nil {
			return "", fmt.Errorf("legacy refresh: %w", err)
		}
	}

	return a.storeRefreshedTokens(resp)
}

// legacyRefresh runs the two-step authorize-then-exchange flow that older
// accounts need. It runs at most once per RefreshAuthToken call.
func (a *Auth) legacyRefresh(email, refreshToken, clientID string) (*TokenResponse, error) {
	authResp, err := a.api.Authorize(email, refreshToken, clientID, "")
	if err != nil {
		return nil, fmt.Errorf("authorize: %w", err)
	}
	resp, err := a.api.TokenUsingAuthorizationCode(authResp.Code, clientID)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	return resp, nil
}

func (a *Auth) storeRefreshedTokens(resp *TokenResponse) (string, error) {
	if err := a.creds.SetAccessToken(resp.AccessToken, resp.ExpiresIn); err != nil {
		return "", fmt.Errorf("store access token: %w", err)
	}
	// An empty refresh token means the server rotated nothing; the stored
	// one stays valid.
	if resp.RefreshToken != "" {
		if err := a.creds.SetRefreshToken(resp.RefreshToken); err != nil {
			return "", fmt.Errorf("store refresh token: %w", err)
		}
	}
	return resp.AccessToken, nil
}

// signInSuccessful persists the new session and resets the sync state so
// the next refresh treats the account as fresh. The ordering matters:
// credentials first, then watermarks, then the full refresh.
func (a *Auth) signInSuccessful(result *Result) error {
	if result.Tokens.RefreshToken == "" {
		a.log.Error("sign-in returned no refresh token, session will not survive restart",
			"email", result.Email)
	} else {
		if err := a.creds.AddAccount(result.Email, result.UserUUID); err != nil {
			return fmt.Errorf("add account: %w", err)
		}
		if err := a.creds.SetRefreshToken(result.Tokens.RefreshToken); err != nil {
			return fmt.Errorf("store refresh token: %w", err)
		}
		if err := a.creds.SetAccessToken(result.Tokens.AccessToken, result.Tokens.ExpiresIn); err != nil {
			return fmt.Errorf("store access token: %w", err)
		}
		if err := a.creds.SetUserData(UserDataClientID, result.Tokens.ClientID); err != nil {
			return fmt.Errorf("store client id: %w", err)
		}
		if err := a.watermarks.SetUsedAccountManager(true); err != nil {
			return fmt.Errorf("mark account manager used: %w", err)
		}
	}

	if err := a.watermarks.ClearLastModified(); err != nil {
		return fmt.Errorf("clear last modified: %w", err)
	}
	if err := a.watermarks.ClearLastRefreshTime(); err != nil {
		return fmt.Errorf("clear last refresh time: %w", err)
	}
	if err := a.syncer.MarkAllUnsynced(); err != nil {
		return fmt.Errorf("mark podcasts unsynced: %w", err)
	}
	if err := a.syncer.Refresh(RefreshTriggerLogin); err != nil {
		return fmt.Errorf("refresh after sign-in: %w", err)
	}
	return nil
}

// authFailureFrom wraps a server rejection into an AuthFailure with a
// user-facing message. Transport errors pass through unchanged.
func authFailureFrom(op string, err error) error {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return &AuthFailure{
			Message:   messageForID(httpErr.MessageID, httpErr.Message),
			MessageID: httpErr.MessageID,
			Err:       err,
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
