package goSession

import "context"

// Login performs the modern email/password exchange and establishes a modern
// session on success. Failures are classified, published via the session's
// LastError, and returned so callers can branch synchronously.
func (m *Manager) Login(ctx context.Context, email, password string) (*User, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	m.beginOperation()

	resp, err := m.api.Login(ctx, email, password)
	if err != nil {
		kind := classify(err)
		m.failOperation(kind)
		m.metricInc(MetricLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, "", AuthMethodModern, kind, map[string]string{
			"identifier": email,
		})
		return nil, kind
	}

	user := modernUserFromPayload(resp.User)
	creds := NewModernCredentials(resp.AccessToken, resp.RefreshToken)
	if err := m.establish(ctx, user, creds); err != nil {
		m.failOperation(err)
		return nil, err
	}

	m.metricInc(MetricLoginSuccess)
	m.emitAudit(ctx, auditEventLogin, true, user.StorageKey(), AuthMethodModern, nil, nil)
	return user.clone(), nil
}

// LegacyLogin performs the legacy username/password exchange and establishes
// a legacy session. When a different legacy user was previously active, the
// previous user's cached artifacts are purged before the new session is
// published.
func (m *Manager) LegacyLogin(ctx context.Context, username, password string) (*User, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	m.beginOperation()

	resp, err := m.api.LegacyLogin(ctx, username, password)
	if err != nil {
		kind := classify(err)
		m.failOperation(kind)
		m.metricInc(MetricLegacyLoginFailure)
		m.emitAudit(ctx, auditEventLoginFailure, false, "", AuthMethodLegacy, kind, map[string]string{
			"identifier": username,
		})
		return nil, kind
	}

	user := legacyUserFromPayload(resp.User)
	creds := NewLegacyCredentials(resp.AccessToken)
	if err := m.establish(ctx, user, creds); err != nil {
		m.failOperation(err)
		return nil, err
	}

	m.metricInc(MetricLegacyLoginSuccess)
	m.emitAudit(ctx, auditEventLegacyLogin, true, user.StorageKey(), AuthMethodLegacy, nil, nil)
	return user.clone(), nil
}
