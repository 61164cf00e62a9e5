package goSession

import (
	"errors"
	"net/http"
	"net/url"
	"testing"
)

func TestGoogleAuthURLCarriesState(t *testing.T) {
	m, _, _, cleanup := newTestManager(t)
	defer cleanup()

	authURL, state, err := m.GoogleAuthURL(t.Context())
	if err != nil {
		t.Fatalf("GoogleAuthURL() error = %v", err)
	}
	if state == "" {
		t.Fatal("empty state nonce")
	}

	u, err := url.Parse(authURL)
	if err != nil {
		t.Fatalf("returned URL unparseable: %v", err)
	}
	if got := u.Query().Get("state"); got != state {
		t.Errorf("state in URL = %q, want %q", got, state)
	}
	// The provider's own query parameters survive the state injection.
	if got := u.Query().Get("client_id"); got != "abc" {
		t.Errorf("client_id = %q, want abc", got)
	}
}

func TestGoogleAuthURLFailurePublishesError(t *testing.T) {
	m, idp, _, cleanup := newTestManager(t)
	defer cleanup()

	idp.failGoogleURL = http.StatusUnauthorized

	_, _, err := m.GoogleAuthURL(t.Context())
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("GoogleAuthURL() error = %v, want ErrInvalidCredentials", err)
	}

	// Phase one of the OAuth flow follows the same operation shape as every
	// other auth operation: the classified failure is published, not only
	// returned.
	snap := m.Snapshot()
	if !errors.Is(snap.LastError, ErrInvalidCredentials) {
		t.Errorf("LastError = %v, want ErrInvalidCredentials", snap.LastError)
	}
	if snap.IsLoading {
		t.Error("IsLoading stuck after failed GoogleAuthURL")
	}
}

func TestGoogleAuthURLSuccessSettlesOperation(t *testing.T) {
	m, _, _, cleanup := newTestManager(t)
	defer cleanup()

	var snaps []Session
	cancel := m.Subscribe(func(s Session) {
		snaps = append(snaps, s)
	})
	defer cancel()

	if _, _, err := m.GoogleAuthURL(t.Context()); err != nil {
		t.Fatalf("GoogleAuthURL() error = %v", err)
	}

	if len(snaps) < 2 || !snaps[0].IsLoading {
		t.Fatalf("received %d snapshots, want loading then settled", len(snaps))
	}
	last := snaps[len(snaps)-1]
	if last.IsLoading || last.LastError != nil {
		t.Errorf("final snapshot = loading %v, lastError %v; want settled clean state", last.IsLoading, last.LastError)
	}
}

func TestVerifyOAuthStateConsumesNonce(t *testing.T) {
	m, _, _, cleanup := newTestManager(t)
	defer cleanup()

	_, state, err := m.GoogleAuthURL(t.Context())
	if err != nil {
		t.Fatalf("GoogleAuthURL() error = %v", err)
	}

	if err := m.VerifyOAuthState(state); err != nil {
		t.Fatalf("VerifyOAuthState() error = %v", err)
	}
	// The nonce is single-use: replaying it must fail.
	if err := m.VerifyOAuthState(state); !errors.Is(err, ErrOAuthStateMismatch) {
		t.Errorf("replayed state error = %v, want ErrOAuthStateMismatch", err)
	}
}

func TestVerifyOAuthStateMismatch(t *testing.T) {
	m, _, _, cleanup := newTestManager(t)
	defer cleanup()

	if err := m.VerifyOAuthState("never-issued"); !errors.Is(err, ErrOAuthStateMismatch) {
		t.Errorf("VerifyOAuthState() without pending flow error = %v, want ErrOAuthStateMismatch", err)
	}

	if _, _, err := m.GoogleAuthURL(t.Context()); err != nil {
		t.Fatalf("GoogleAuthURL() error = %v", err)
	}
	if err := m.VerifyOAuthState("wrong-state"); !errors.Is(err, ErrOAuthStateMismatch) {
		t.Errorf("VerifyOAuthState() with wrong state error = %v, want ErrOAuthStateMismatch", err)
	}
	// A mismatch consumes the pending nonce; the flow has to restart.
	if err := m.VerifyOAuthState("wrong-state"); !errors.Is(err, ErrOAuthStateMismatch) {
		t.Errorf("second VerifyOAuthState() error = %v, want ErrOAuthStateMismatch", err)
	}
}

func TestCompleteGoogleCallbackEstablishesSession(t *testing.T) {
	m, _, _, cleanup := newTestManager(t)
	defer cleanup()
	ctx := t.Context()

	_, state, err := m.GoogleAuthURL(ctx)
	if err != nil {
		t.Fatalf("GoogleAuthURL() error = %v", err)
	}
	if err := m.VerifyOAuthState(state); err != nil {
		t.Fatalf("VerifyOAuthState() error = %v", err)
	}

	user, err := m.CompleteGoogleCallback(ctx, "auth-code", "app://callback")
	if err != nil {
		t.Fatalf("CompleteGoogleCallback() error = %v", err)
	}
	if user.Method != AuthMethodModern || user.Modern.ID != "u1" {
		t.Errorf("user = %+v, want modern account u1", user)
	}

	snap := m.Snapshot()
	if !snap.Authenticated() || snap.Method != AuthMethodModern {
		t.Errorf("snapshot = %+v, want modern session", snap)
	}
	if !snap.Credentials.Refreshable() {
		t.Error("OAuth session missing refresh path")
	}
}
