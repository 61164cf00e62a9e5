package goSession

import (
	"errors"
	"time"
)

// AuthMethod tags which authentication regime issued the active credentials.
type AuthMethod uint8

const (
	// AuthMethodNone means no session is established.
	AuthMethodNone AuthMethod = iota
	// AuthMethodModern marks credentials issued by the /auth/v2 flow.
	AuthMethodModern
	// AuthMethodLegacy marks credentials issued by the legacy /auth flow.
	AuthMethodLegacy
)

// String describes the string operation and its observable behavior.
func (m AuthMethod) String() string {
	switch m {
	case AuthMethodModern:
		return "modern"
	case AuthMethodLegacy:
		return "legacy"
	default:
		return "none"
	}
}

// Credentials is the tagged credential bundle. Exactly one variant is active
// at a time: a modern bundle carries an access token and a rotating refresh
// token, a legacy bundle carries an opaque access token only and is never
// refreshed, only re-authenticated.
//
// Credentials instances are intended to be configured during initialization
// and then treated as immutable unless documented otherwise.
type Credentials struct {
	Method       AuthMethod
	AccessToken  string
	RefreshToken string
}

// NewModernCredentials builds a modern access/refresh pair.
func NewModernCredentials(accessToken, refreshToken string) Credentials {
	return Credentials{
		Method:       AuthMethodModern,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
}

// NewLegacyCredentials builds a legacy opaque-token bundle.
func NewLegacyCredentials(accessToken string) Credentials {
	return Credentials{
		Method:      AuthMethodLegacy,
		AccessToken: accessToken,
	}
}

// Refreshable reports whether this bundle has a renewal path. Only modern
// bundles holding a refresh token qualify.
func (c Credentials) Refreshable() bool {
	return c.Method == AuthMethodModern && c.RefreshToken != ""
}

// Validate checks the variant invariants: a method tag must be present, an
// access token must be present, and a legacy bundle must not carry a refresh
// token.
func (c Credentials) Validate() error {
	switch c.Method {
	case AuthMethodModern:
		if c.AccessToken == "" {
			return errors.New("modern credentials missing access token")
		}
	case AuthMethodLegacy:
		if c.AccessToken == "" {
			return errors.New("legacy credentials missing access token")
		}
		if c.RefreshToken != "" {
			return errors.New("legacy credentials must not carry a refresh token")
		}
	default:
		return errors.New("credentials missing auth method")
	}
	return nil
}

// ModernUser is the account record returned by the /auth/v2 identity service.
type ModernUser struct {
	ID            string
	Email         string
	DisplayName   string
	EmailVerified bool
	IsActive      bool
	CreatedAt     time.Time
	LastLoginAt   *time.Time
}

// LegacyUser is the account record returned by the legacy identity service.
type LegacyUser struct {
	NumericID int64
	Username  string
	UID       string
}

// User is the tagged user union. The populated variant always matches Method,
// and the variant always matches the credential variant it is paired with: a
// modern bundle never carries a legacy user and vice versa.
type User struct {
	Method AuthMethod
	Modern *ModernUser
	Legacy *LegacyUser
}

// NewModernUser wraps a modern account record into the union.
func NewModernUser(u ModernUser) User {
	return User{Method: AuthMethodModern, Modern: &u}
}

// NewLegacyUser wraps a legacy account record into the union.
func NewLegacyUser(u LegacyUser) User {
	return User{Method: AuthMethodLegacy, Legacy: &u}
}

// Validate checks that exactly the variant named by Method is populated.
func (u User) Validate() error {
	switch u.Method {
	case AuthMethodModern:
		if u.Modern == nil || u.Legacy != nil {
			return errors.New("modern user union malformed")
		}
	case AuthMethodLegacy:
		if u.Legacy == nil || u.Modern != nil {
			return errors.New("legacy user union malformed")
		}
	default:
		return errors.New("user missing auth method")
	}
	return nil
}

// StorageKey returns the identity key used to scope cached per-user artifacts
// in the credential store. Identity switches purge by this key.
func (u User) StorageKey() string {
	switch u.Method {
	case AuthMethodModern:
		if u.Modern != nil {
			return u.Modern.ID
		}
	case AuthMethodLegacy:
		if u.Legacy != nil {
			return u.Legacy.Username
		}
	}
	return ""
}

func (u User) clone() *User {
	out := User{Method: u.Method}
	if u.Modern != nil {
		m := *u.Modern
		if u.Modern.LastLoginAt != nil {
			t := *u.Modern.LastLoginAt
			m.LastLoginAt = &t
		}
		out.Modern = &m
	}
	if u.Legacy != nil {
		l := *u.Legacy
		out.Legacy = &l
	}
	return &out
}

// Session is the externally visible aggregate published by the Manager.
// User and Credentials are both present or both absent; no partial session is
// ever observable. Snapshots handed to readers are deep copies.
type Session struct {
	User        *User
	Credentials *Credentials
	Method      AuthMethod
	IsLoading   bool
	LastError   error
}

// Authenticated reports whether the session holds an active identity.
func (s Session) Authenticated() bool {
	return s.User != nil && s.Credentials != nil
}

// RegisterInput is the input for [Manager.Register]. Email and Password are
// required; the name fields are optional.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}
