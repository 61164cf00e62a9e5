package provider

import "time"

// UserPayload is the modern account record as serialized by the /auth/v2
// service.
type UserPayload struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	DisplayName   string     `json:"display_name,omitempty"`
	EmailVerified bool       `json:"email_verified"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
}

// LegacyUserPayload is the account record as serialized by the legacy /auth
// service.
type LegacyUserPayload struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	UID      string `json:"uid"`
}

// AuthResponse is the success body shared by modern login, the Google
// callback exchange, and refresh.
type AuthResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         UserPayload `json:"user"`
}

// LegacyAuthResponse is the legacy login success body. No refresh token is
// ever issued on this surface.
type LegacyAuthResponse struct {
	AccessToken string            `json:"access_token"`
	User        LegacyUserPayload `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleCallbackRequest struct {
	Code        string `json:"code"`
	RedirectURI string `json:"redirect_uri,omitempty"`
}

type googleURLResponse struct {
	AuthURL string `json:"auth_url"`
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

type resendVerificationRequest struct {
	Email string `json:"email"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type legacyLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type checkPermissionRequest struct {
	ProjectID string `json:"project_id"`
}

type checkPermissionResponse struct {
	HasAccess bool `json:"has_access"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Detail  string `json:"detail"`
}

func (b errorBody) text() string {
	switch {
	case b.Message != "":
		return b.Message
	case b.Detail != "":
		return b.Detail
	default:
		return b.Error
	}
}
