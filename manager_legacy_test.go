package goSession

import (
	"errors"
	"testing"

	"github.com/MrEthical07/goSession/credstore"
)

func TestLegacyLoginEstablishesSession(t *testing.T) {
	m, idp, _, cleanup := newTestManager(t)
	defer cleanup()

	user, err := m.LegacyLogin(t.Context(), "bob", "legacy-pass")
	if err != nil {
		t.Fatalf("LegacyLogin() error = %v", err)
	}
	if user.Method != AuthMethodLegacy || user.Legacy == nil {
		t.Fatalf("LegacyLogin() returned %+v, want a legacy user", user)
	}
	if user.Legacy.Username != "bob" || user.Legacy.UID != "uid-bob" {
		t.Errorf("legacy user = %+v", user.Legacy)
	}

	snap := m.Snapshot()
	if snap.Method != AuthMethodLegacy {
		t.Errorf("Method = %v, want legacy", snap.Method)
	}
	if snap.Credentials.RefreshToken != "" {
		t.Error("legacy session carries a refresh token")
	}
	if got := idp.counts().legacy; got != 1 {
		t.Errorf("legacy login calls = %d, want 1", got)
	}
}

func TestLegacyLoginRejection(t *testing.T) {
	m, _, _, cleanup := newTestManager(t)
	defer cleanup()

	_, err := m.LegacyLogin(t.Context(), "bob", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("LegacyLogin() error = %v, want ErrInvalidCredentials", err)
	}
	if m.Snapshot().Authenticated() {
		t.Error("session authenticated after rejected legacy login")
	}
}

func TestIdentitySwitchPurgesPreviousArtifacts(t *testing.T) {
	m, _, _, cleanup := newTestManager(t)
	defer cleanup()
	ctx := t.Context()

	if _, err := m.Login(ctx, "alice@example.com", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := m.store.SaveArtifact(ctx, "u1", "avatar", []byte("alice-png")); err != nil {
		t.Fatalf("SaveArtifact() error = %v", err)
	}

	// Switching to a different identity must not leave the previous user's
	// cached data behind.
	if _, err := m.LegacyLogin(ctx, "bob", "legacy-pass"); err != nil {
		t.Fatalf("LegacyLogin() error = %v", err)
	}

	if _, err := m.store.LoadArtifact(ctx, "u1", "avatar"); !errors.Is(err, credstore.ErrArtifactNotFound) {
		t.Errorf("previous identity's artifact still cached, error = %v", err)
	}
	if m.Method() != AuthMethodLegacy {
		t.Errorf("Method = %v, want legacy after switch", m.Method())
	}
}

func TestSameIdentityReloginKeepsArtifacts(t *testing.T) {
	m, _, _, cleanup := newTestManager(t)
	defer cleanup()
	ctx := t.Context()

	if _, err := m.Login(ctx, "alice@example.com", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := m.store.SaveArtifact(ctx, "u1", "avatar", []byte("alice-png")); err != nil {
		t.Fatalf("SaveArtifact() error = %v", err)
	}

	// Re-authenticating as the same account is not a switch.
	if _, err := m.Login(ctx, "alice@example.com", "pw"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	got, err := m.store.LoadArtifact(ctx, "u1", "avatar")
	if err != nil || string(got) != "alice-png" {
		t.Errorf("artifact after same-identity relogin = %q, %v; want untouched", got, err)
	}
}
