// Package token inspects modern access tokens on the client side.
//
// The client holds no verification keys — signature checking is the
// provider's job — so Inspect parses claims without verifying them. The
// result is good enough for scheduling: deciding that a token is expired or
// about to expire and that a validation or refresh pass is due. It must never
// be used to grant anything.
package token
