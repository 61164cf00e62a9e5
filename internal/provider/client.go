package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError is a structured provider rejection: the provider answered with a
// non-2xx status and, possibly, a message intended for the end user.
type APIError struct {
	StatusCode int
	Message    string
}

// Error describes the error operation and its observable behavior.
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("provider returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the identity services. Construct once and share; Client is
// stateless beyond its configuration and safe for concurrent use.
type Client struct {
	modernBase string
	legacyBase string
	httpClient *http.Client
}

// NewClient builds a Client against the given base URLs. A nil httpClient
// falls back to http.DefaultClient; timeouts belong to the injected client,
// the session manager defines none of its own.
func NewClient(modernBase, legacyBase string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		modernBase: strings.TrimRight(modernBase, "/"),
		legacyBase: strings.TrimRight(legacyBase, "/"),
		httpClient: httpClient,
	}
}

// Login performs the modern email/password exchange.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, c.modernBase+"/auth/v2/login", "", loginRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GoogleAuthURL fetches the provider-issued authorization URL for the Google
// flow. The caller is responsible for performing the redirect.
func (c *Client) GoogleAuthURL(ctx context.Context) (string, error) {
	var out googleURLResponse
	if err := c.do(ctx, http.MethodGet, c.modernBase+"/auth/v2/google/url", "", nil, &out); err != nil {
		return "", err
	}
	return out.AuthURL, nil
}

// GoogleCallback exchanges an authorization code for a credential bundle.
func (c *Client) GoogleCallback(ctx context.Context, code, redirectURI string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, c.modernBase+"/auth/v2/google/callback", "", googleCallbackRequest{Code: code, RedirectURI: redirectURI}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account. No credentials are issued; the provider sends
// a verification email instead.
func (c *Client) Register(ctx context.Context, email, password, firstName, lastName string) error {
	return c.do(ctx, http.MethodPost, c.modernBase+"/auth/v2/register", "", registerRequest{
		Email:     email,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
	}, nil)
}

// VerifyEmail redeems an email-verification token.
func (c *Client) VerifyEmail(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, c.modernBase+"/auth/v2/verify-email", "", verifyEmailRequest{Token: token}, nil)
}

// ResendVerification requests a fresh verification email.
func (c *Client) ResendVerification(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, c.modernBase+"/auth/v2/resend-verification", "", resendVerificationRequest{Email: email}, nil)
}

// ForgotPassword starts the password-reset flow.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, c.modernBase+"/auth/v2/forgot-password", "", forgotPasswordRequest{Email: email}, nil)
}

// ResetPassword redeems a reset token against a new password.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	return c.do(ctx, http.MethodPost, c.modernBase+"/auth/v2/reset-password", "", resetPasswordRequest{Token: token, NewPassword: newPassword}, nil)
}

// ChangePassword rotates the password of the authenticated account.
func (c *Client) ChangePassword(ctx context.Context, accessToken, currentPassword, newPassword string) error {
	return c.do(ctx, http.MethodPost, c.modernBase+"/auth/v2/change-password", accessToken, changePasswordRequest{
		CurrentPassword: currentPassword,
		NewPassword:     newPassword,
	}, nil)
}

// Refresh exchanges a refresh token for a rotated access/refresh pair and an
// updated user record.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.do(ctx, http.MethodPost, c.modernBase+"/auth/v2/refresh", "", refreshRequest{RefreshToken: refreshToken}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the modern server-side session for the given access token.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, c.modernBase+"/auth/v2/logout", accessToken, nil, nil)
}

// LogoutAll revokes every outstanding refresh token family for the account.
func (c *Client) LogoutAll(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, c.modernBase+"/auth/v2/logout-all", accessToken, nil, nil)
}

// Me fetches the current modern account record; a rejection means the access
// token is no longer accepted.
func (c *Client) Me(ctx context.Context, accessToken string) (*UserPayload, error) {
	var out UserPayload
	if err := c.do(ctx, http.MethodGet, c.modernBase+"/auth/v2/me", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LegacyLogin performs the legacy username/password exchange.
func (c *Client) LegacyLogin(ctx context.Context, username, password string) (*LegacyAuthResponse, error) {
	var out LegacyAuthResponse
	err := c.do(ctx, http.MethodPost, c.legacyBase+"/auth/login", "", legacyLoginRequest{Username: username, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// LegacyMe fetches the current legacy account record.
func (c *Client) LegacyMe(ctx context.Context, accessToken string) (*LegacyUserPayload, error) {
	var out LegacyUserPayload
	if err := c.do(ctx, http.MethodGet, c.legacyBase+"/auth/me", accessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckPermission asks whether the authenticated account may access the given
// project.
func (c *Client) CheckPermission(ctx context.Context, accessToken, projectID string) (bool, error) {
	var out checkPermissionResponse
	err := c.do(ctx, http.MethodPost, c.legacyBase+"/auth/check-permission", accessToken, checkPermissionRequest{ProjectID: projectID}, &out)
	if err != nil {
		return false, err
	}
	return out.HasAccess, nil
}

func (c *Client) do(ctx context.Context, method, url, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("provider request: %w", err)
	}
	defer resp.Body.Close()

	// Responses are small; cap the read rather than trusting Content-Length.
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(data, &eb)
		return &APIError{StatusCode: resp.StatusCode, Message: eb.text()}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
