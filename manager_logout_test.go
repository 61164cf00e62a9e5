package goSession

import (
	"errors"
	"net/http"
	"testing"
)

func TestLogoutClearsSession(t *testing.T) {
	m, idp, mr, cleanup := newTestManager(t)
	defer cleanup()
	ctx := t.Context()

	if _, err := m.Login(ctx, "alice@example.com", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	snap := m.Snapshot()
	if snap.Authenticated() || snap.User != nil || snap.Credentials != nil {
		t.Errorf("snapshot = %+v, want cleared session", snap)
	}
	if mr.Exists("gosessiontest:record") {
		t.Error("durable record survived logout")
	}
	if got := idp.counts().logout; got != 1 {
		t.Errorf("server logout calls = %d, want 1", got)
	}
}

func TestLogoutClearsDespiteServerFailure(t *testing.T) {
	m, idp, mr, cleanup := newTestManager(t)
	defer cleanup()
	ctx := t.Context()

	if _, err := m.Login(ctx, "alice@example.com", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	// Server-side revocation is best-effort. Local state clears regardless.
	idp.failLogout = http.StatusInternalServerError
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v, want nil despite server failure", err)
	}
	if m.Snapshot().Authenticated() {
		t.Error("session survived logout with failing server")
	}
	if mr.Exists("gosessiontest:record") {
		t.Error("durable record survived logout")
	}
}

func TestLogoutEmptySessionNoOp(t *testing.T) {
	m, idp, _, cleanup := newTestManager(t)
	defer cleanup()

	if err := m.Logout(t.Context()); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if got := idp.counts().logout; got != 0 {
		t.Errorf("server logout calls = %d, want 0 without a session", got)
	}
}

func TestLogoutLegacySkipsServerRevocation(t *testing.T) {
	m, idp, _, cleanup := newTestManager(t)
	defer cleanup()
	ctx := t.Context()

	if _, err := m.LegacyLogin(ctx, "bob", "legacy-pass"); err != nil {
		t.Fatalf("LegacyLogin() error = %v", err)
	}

	if err := m.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if got := idp.counts().logout; got != 0 {
		t.Errorf("server logout calls = %d, want 0 for legacy sessions", got)
	}
	if m.Snapshot().Authenticated() {
		t.Error("legacy session survived logout")
	}
}

func TestLogoutAllDevices(t *testing.T) {
	m, idp, _, cleanup := newTestManager(t)
	defer cleanup()
	ctx := t.Context()

	if _, err := m.Login(ctx, "alice@example.com", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := m.LogoutAllDevices(ctx); err != nil {
		t.Fatalf("LogoutAllDevices() error = %v", err)
	}
	if got := idp.counts().logoutAll; got != 1 {
		t.Errorf("logout-all calls = %d, want 1", got)
	}
	if m.Snapshot().Authenticated() {
		t.Error("session survived logout-all")
	}
}

func TestLogoutAllDevicesFailureKeepsSession(t *testing.T) {
	m, idp, _, cleanup := newTestManager(t)
	defer cleanup()
	ctx := t.Context()

	if _, err := m.Login(ctx, "alice@example.com", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	// Unlike plain logout the revocation must succeed: the caller is promised
	// every device is out, so a failure keeps the session for a retry.
	idp.failLogoutAll = http.StatusInternalServerError
	err := m.LogoutAllDevices(ctx)
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("LogoutAllDevices() error = %v, want ErrUnreachable", err)
	}

	snap := m.Snapshot()
	if !snap.Authenticated() {
		t.Error("session cleared despite failed logout-all")
	}
	if !errors.Is(snap.LastError, ErrUnreachable) {
		t.Errorf("LastError = %v, want ErrUnreachable", snap.LastError)
	}
}

func TestLogoutAllDevicesRequiresModernSession(t *testing.T) {
	m, _, _, cleanup := newTestManager(t)
	defer cleanup()
	ctx := t.Context()

	if err := m.LogoutAllDevices(ctx); !errors.Is(err, ErrModernSessionRequired) {
		t.Errorf("LogoutAllDevices() without session error = %v, want ErrModernSessionRequired", err)
	}

	if _, err := m.LegacyLogin(ctx, "bob", "legacy-pass"); err != nil {
		t.Fatalf("LegacyLogin() error = %v", err)
	}
	if err := m.LogoutAllDevices(ctx); !errors.Is(err, ErrModernSessionRequired) {
		t.Errorf("LogoutAllDevices() on legacy session error = %v, want ErrModernSessionRequired", err)
	}
}
