// Package goSession is a client-side session and credential lifecycle manager
// for applications that must speak two incompatible authentication regimes at
// once: a modern email/password + OAuth flow issuing short-lived access tokens
// with rotating refresh tokens, and a legacy opaque-token scheme that has no
// renewal path and can only be re-authenticated.
//
// The package is the public surface. It exposes [Manager], [Builder], [Config],
// sentinel errors, and value types (Session, Credentials, User, AuditEvent,
// MetricsSnapshot). Provider HTTP plumbing lives under internal/ and is never
// exported; durable record storage and token inspection live in the credstore
// and token subpackages.
//
// # Architecture boundaries
//
//   - The Manager exclusively owns the in-memory session. All mutation goes
//     through Manager methods; readers receive deep-copied snapshots either on
//     demand via [Manager.Snapshot] or push-based via [Manager.Subscribe].
//   - The credential store is a passive durable mirror. It is read exactly
//     once, during [Builder.Build], to recover a session across restarts.
//   - Provider failures are classified into a closed taxonomy
//     ([ErrInvalidCredentials], [ErrRateLimited], [ValidationError],
//     [ErrUnreachable]) before they are published or returned. Classification
//     is pure; only callers decide consequences.
//
// # Concurrency contract
//
// Manager methods are safe to call from multiple goroutines after
// initialization through [Builder.Build]. Token refresh is single-flight:
// concurrent refresh attempts collapse onto one outstanding provider exchange
// and all callers observe its result. This matters because refresh tokens
// rotate and a duplicate exchange would consume the family.
package goSession
