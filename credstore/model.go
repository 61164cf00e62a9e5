package credstore

import "errors"

// Method values stored in the record tag. They mirror the public AuthMethod
// but are fixed at the storage layer so the wire format cannot drift with the
// public enum.
const (
	MethodModern uint8 = 1
	MethodLegacy uint8 = 2
)

// Record is the durable credential record. One Record holds everything the
// manager needs to restore a session: the credential bundle, the user record
// of the matching variant, and the auth-method tag.
//
// Record instances are intended to be configured during initialization and
// then treated as immutable unless documented otherwise.
type Record struct {
	Method       uint8
	AccessToken  string
	RefreshToken string

	// Modern user variant.
	UserID        string
	Email         string
	DisplayName   string
	EmailVerified bool
	IsActive      bool
	CreatedAt     int64
	LastLoginAt   int64

	// Legacy user variant.
	LegacyID       int64
	LegacyUsername string
	LegacyUID      string

	SavedAt int64
}

// Validate checks the variant invariants before a record is persisted or
// after one is decoded. A record failing validation is treated as corrupt.
func (r *Record) Validate() error {
	if r == nil {
		return errors.New("nil record")
	}
	if r.AccessToken == "" {
		return errors.New("record missing access token")
	}
	switch r.Method {
	case MethodModern:
		if r.UserID == "" {
			return errors.New("modern record missing user id")
		}
		if r.LegacyUsername != "" || r.LegacyUID != "" || r.LegacyID != 0 {
			return errors.New("modern record carries legacy user fields")
		}
	case MethodLegacy:
		if r.LegacyUsername == "" {
			return errors.New("legacy record missing username")
		}
		if r.RefreshToken != "" {
			return errors.New("legacy record must not carry a refresh token")
		}
		if r.UserID != "" || r.Email != "" {
			return errors.New("legacy record carries modern user fields")
		}
	default:
		return errors.New("record missing auth method")
	}
	return nil
}

// OwnerKey returns the identity key scoping this record's cached artifacts.
func (r *Record) OwnerKey() string {
	switch r.Method {
	case MethodModern:
		return r.UserID
	case MethodLegacy:
		return r.LegacyUsername
	default:
		return ""
	}
}
