package goSession

import (
	"context"
	"log"
)

// Logout ends the current session. For modern sessions the server-side
// revocation is best-effort: a provider failure is logged and ignored, local
// state is cleared regardless. Logout of an empty session is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.ready(); err != nil {
		return err
	}

	m.mu.Lock()
	var accessToken, ownerKey string
	method := AuthMethodNone
	if m.creds != nil {
		method = m.creds.Method
		accessToken = m.creds.AccessToken
	}
	if m.user != nil {
		ownerKey = m.user.StorageKey()
	}
	m.mu.Unlock()

	if method == AuthMethodNone {
		return nil
	}

	if method == AuthMethodModern {
		if err := m.api.Logout(ctx, accessToken); err != nil {
			log.Print("goSession: server-side logout failed, clearing local state anyway")
		}
	}

	m.clearSession(ctx, "logout")
	m.metricInc(MetricLogout)
	m.emitAudit(ctx, auditEventLogout, true, ownerKey, method, nil, nil)
	return nil
}

// LogoutAllDevices revokes every outstanding refresh token family for the
// account server-side, then clears local state. Unlike [Manager.Logout] the
// revocation must succeed: on failure the classified error is published and
// the local session is kept, so the caller can retry.
//
// Modern sessions only; the legacy service has no such operation.
func (m *Manager) LogoutAllDevices(ctx context.Context) error {
	if err := m.ready(); err != nil {
		return err
	}

	m.mu.Lock()
	var accessToken, ownerKey string
	if m.creds != nil && m.creds.Method == AuthMethodModern {
		accessToken = m.creds.AccessToken
	}
	if m.user != nil {
		ownerKey = m.user.StorageKey()
	}
	m.mu.Unlock()
	if accessToken == "" {
		return ErrModernSessionRequired
	}

	m.beginOperation()

	if err := m.api.LogoutAll(ctx, accessToken); err != nil {
		kind := classify(err)
		m.failOperation(kind)
		return kind
	}

	m.clearSession(ctx, "logout_all")
	m.metricInc(MetricLogoutAll)
	m.emitAudit(ctx, auditEventLogoutAll, true, ownerKey, AuthMethodModern, nil, nil)
	return nil
}
