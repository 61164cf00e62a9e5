// Package credstore persists the active credential record durably so a
// session survives process restarts.
//
// The whole record — credential bundle, user record, and auth-method tag — is
// written as one serialized, versioned blob under a single Redis key. A
// subsequent Load therefore observes either the complete record or nothing;
// there is no partial-field intermediate state, even when the process dies
// between operations.
//
// The store also keeps per-user cached artifacts under keys scoped by the
// owning identity, indexed in a companion set so an identity switch can purge
// everything the previous user left behind in one pass.
//
// The store is a passive mirror: it is exclusively owned by the session
// manager and read only during initialization.
package credstore
