package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNotAToken is returned by Inspect for opaque credentials (legacy tokens)
// that do not parse as JWTs. It is not a failure of the credential, only a
// statement that no expiry can be read from it.
var ErrNotAToken = errors.New("credential is not a parseable token")

// Claims is the unverified claim set read from an access token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Inspect parses the access token without verifying its signature and
// returns its registered claims. Opaque tokens yield [ErrNotAToken].
func Inspect(accessToken string) (*Claims, error) {
	parser := jwt.NewParser()

	var rc jwt.RegisteredClaims
	if _, _, err := parser.ParseUnverified(accessToken, &rc); err != nil {
		return nil, ErrNotAToken
	}

	c := &Claims{Subject: rc.Subject}
	if rc.IssuedAt != nil {
		c.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c, nil
}

// Expired reports whether the token was expired at the given instant. Tokens
// without an exp claim never report expired.
func (c *Claims) Expired(now time.Time) bool {
	if c == nil || c.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(c.ExpiresAt)
}

// ExpiresWithin reports whether the token expires within d of now. Used to
// refresh proactively instead of waiting for the provider to reject.
func (c *Claims) ExpiresWithin(now time.Time, d time.Duration) bool {
	if c == nil || c.ExpiresAt.IsZero() {
		return false
	}
	return now.Add(d).After(c.ExpiresAt)
}
