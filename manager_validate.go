package goSession

import (
	"context"
	"time"

	"github.com/MrEthical07/goSession/token"
)

// Validate confirms the stored credentials are still accepted by the
// identity provider and reconciles the session accordingly.
//
// On acceptance the user record is updated from the response, since account
// data may have changed server-side. On rejection of a refreshable modern
// session, exactly one refresh attempt is delegated to the refresher; if
// that also fails the session is cleared. Rejected legacy sessions — and
// modern sessions without a refresh token — are cleared immediately, since
// they have no renewal path.
//
// Validation is background consistency maintenance: its failures are never
// published through the session's LastError. An unreachable provider is
// inconclusive and leaves the session untouched.
func (m *Manager) Validate(ctx context.Context) error {
	if err := m.ready(); err != nil {
		return err
	}

	start := m.now()
	defer func() {
		if m.metrics != nil {
			m.metrics.Observe(MetricValidateLatency, m.now().Sub(start))
		}
	}()

	m.mu.Lock()
	if m.creds == nil {
		m.mu.Unlock()
		return ErrSessionRequired
	}
	creds := *m.creds
	m.mu.Unlock()

	switch creds.Method {
	case AuthMethodModern:
		return m.validateModern(ctx, creds)
	case AuthMethodLegacy:
		return m.validateLegacy(ctx, creds)
	default:
		return ErrSessionRequired
	}
}

func (m *Manager) validateModern(ctx context.Context, creds Credentials) error {
	// A token already inside the refresh leeway is doomed; skip the provider
	// round-trip and go straight to the renewal path.
	if claims, err := token.Inspect(creds.AccessToken); err == nil {
		if claims.ExpiresWithin(m.now(), m.config.Session.RefreshLeeway) {
			m.metricInc(MetricValidateRejected)
			return m.renewOrClear(ctx, creds)
		}
	}

	payload, err := m.api.Me(ctx, creds.AccessToken)
	if err == nil {
		m.metricInc(MetricValidateAccepted)
		m.emitAudit(ctx, auditEventValidate, true, payload.ID, AuthMethodModern, nil, nil)
		return m.updateUser(ctx, modernUserFromPayload(*payload))
	}

	kind := classify(err)
	if !rejected(kind) {
		// Unreachable or a transient provider error: inconclusive, keep the
		// session and report.
		m.metricInc(MetricValidateUnreachable)
		return kind
	}

	m.metricInc(MetricValidateRejected)
	m.emitAudit(ctx, auditEventValidate, false, "", AuthMethodModern, kind, nil)
	return m.renewOrClear(ctx, creds)
}

// renewOrClear runs the validator's single refresh fallback: one attempt,
// then the session is gone.
func (m *Manager) renewOrClear(ctx context.Context, creds Credentials) error {
	if !creds.Refreshable() {
		m.clearSession(ctx, "validation_rejected")
		return ErrInvalidCredentials
	}
	if err := m.Refresh(ctx); err != nil {
		m.clearSession(ctx, "refresh_failed")
		return err
	}
	return nil
}

func (m *Manager) validateLegacy(ctx context.Context, creds Credentials) error {
	payload, err := m.api.LegacyMe(ctx, creds.AccessToken)
	if err == nil {
		m.metricInc(MetricValidateAccepted)
		m.emitAudit(ctx, auditEventValidate, true, payload.Username, AuthMethodLegacy, nil, nil)
		return m.updateUser(ctx, legacyUserFromPayload(*payload))
	}

	kind := classify(err)
	if !rejected(kind) {
		m.metricInc(MetricValidateUnreachable)
		return kind
	}

	m.metricInc(MetricValidateRejected)
	m.emitAudit(ctx, auditEventValidate, false, "", AuthMethodLegacy, kind, nil)
	m.clearSession(ctx, "validation_rejected")
	return kind
}

// startAutoValidate launches the periodic validation loop when configured.
// Errors are swallowed: the loop is maintenance, and the user only observes
// the resulting unauthenticated state on next interaction.
func (m *Manager) startAutoValidate(interval time.Duration) {
	if interval <= 0 {
		return
	}
	m.validateDone = make(chan struct{})
	m.validateWG.Add(1)

	go func() {
		defer m.validateWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.mu.Lock()
				hasSession := m.creds != nil
				m.mu.Unlock()
				if !hasSession {
					continue
				}
				_ = m.Validate(context.Background())
			case <-m.validateDone:
				return
			}
		}
	}()
}
