package goSession

import (
	"context"
	"net/url"

	"github.com/google/uuid"
)

// GoogleAuthURL starts the Google OAuth flow: it fetches the provider-issued
// authorization URL and attaches a fresh state nonce. The caller performs the
// redirect; the flow resumes in [Manager.CompleteGoogleCallback] once the
// external redirect target hands back an authorization code.
//
// The returned state is also remembered so the redirect target can be checked
// with [Manager.VerifyOAuthState] before the code exchange.
func (m *Manager) GoogleAuthURL(ctx context.Context) (authURL, state string, err error) {
	if err := m.ready(); err != nil {
		return "", "", err
	}
	m.beginOperation()

	raw, err := m.api.GoogleAuthURL(ctx)
	if err != nil {
		kind := classify(err)
		m.failOperation(kind)
		m.metricInc(MetricOAuthFailure)
		return "", "", kind
	}

	state = uuid.NewString()
	u, parseErr := url.Parse(raw)
	if parseErr == nil {
		q := u.Query()
		q.Set("state", state)
		u.RawQuery = q.Encode()
		raw = u.String()
	}

	m.mu.Lock()
	m.oauthState = state
	m.mu.Unlock()

	m.finishOperation()
	m.metricInc(MetricOAuthStarted)
	m.emitAudit(ctx, auditEventOAuthStarted, true, "", AuthMethodModern, nil, nil)
	return raw, state, nil
}

// VerifyOAuthState checks a returned state nonce against the pending one and
// consumes it. Mismatches (including a replayed or never-issued state) yield
// [ErrOAuthStateMismatch].
func (m *Manager) VerifyOAuthState(state string) error {
	if m == nil {
		return ErrManagerNotReady
	}
	m.mu.Lock()
	pending := m.oauthState
	m.oauthState = ""
	m.mu.Unlock()

	if pending == "" || state == "" || state != pending {
		return ErrOAuthStateMismatch
	}
	return nil
}

// CompleteGoogleCallback finishes the Google flow: it exchanges the
// authorization code for a credential bundle and establishes the modern
// session. redirectURI is optional and forwarded verbatim when set.
func (m *Manager) CompleteGoogleCallback(ctx context.Context, code, redirectURI string) (*User, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	m.beginOperation()

	resp, err := m.api.GoogleCallback(ctx, code, redirectURI)
	if err != nil {
		kind := classify(err)
		m.failOperation(kind)
		m.metricInc(MetricOAuthFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, "", AuthMethodModern, kind, map[string]string{
			"flow": "google",
		})
		return nil, kind
	}

	user := modernUserFromPayload(resp.User)
	creds := NewModernCredentials(resp.AccessToken, resp.RefreshToken)
	if err := m.establish(ctx, user, creds); err != nil {
		m.failOperation(err)
		return nil, err
	}

	m.metricInc(MetricOAuthCompleted)
	m.emitAudit(ctx, auditEventOAuthCompleted, true, user.StorageKey(), AuthMethodModern, nil, nil)
	return user.clone(), nil
}
