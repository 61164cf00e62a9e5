package goSession

import "context"

// refreshGroupKey collapses all refresh callers onto one flight. There is
// only ever one credential bundle per Manager, so a single key suffices.
const refreshGroupKey = "refresh"

// Refresh exchanges the current refresh token for a rotated access/refresh
// pair and an updated user record, persisting and publishing the result.
//
// Refresh is single-flight: while an exchange is outstanding, concurrent
// callers attach to it and observe its outcome instead of issuing duplicate
// provider calls. Refresh tokens rotate, so a duplicate exchange would
// consume the token family.
//
// Sessions without a refresh path — legacy, or modern without a refresh
// token — fail immediately with [ErrRefreshUnavailable] and no network call.
// A refresh failure is reported to the caller and never clears the session
// itself; the validator owns that decision.
func (m *Manager) Refresh(ctx context.Context) error {
	if err := m.ready(); err != nil {
		return err
	}

	m.mu.Lock()
	refreshable := m.creds != nil && m.creds.Refreshable()
	m.mu.Unlock()
	if !refreshable {
		m.metricInc(MetricRefreshUnavailable)
		return ErrRefreshUnavailable
	}

	// Detach the flight from the winning caller's cancellation: late joiners
	// must not lose the shared result because the first caller went away.
	flightCtx := context.WithoutCancel(ctx)
	_, err, shared := m.refreshGroup.Do(refreshGroupKey, func() (any, error) {
		return nil, m.doRefresh(flightCtx)
	})
	if shared {
		m.metricInc(MetricRefreshJoined)
	}
	return err
}

func (m *Manager) doRefresh(ctx context.Context) error {
	// Re-read under the lock: the token may have rotated between the caller's
	// check and this flight winning.
	m.mu.Lock()
	var refreshToken string
	if m.creds != nil && m.creds.Method == AuthMethodModern {
		refreshToken = m.creds.RefreshToken
	}
	m.mu.Unlock()
	if refreshToken == "" {
		m.metricInc(MetricRefreshUnavailable)
		return ErrRefreshUnavailable
	}

	resp, err := m.api.Refresh(ctx, refreshToken)
	if err != nil {
		kind := classify(err)
		m.metricInc(MetricRefreshFailure)
		m.emitAudit(ctx, auditEventRefreshFailure, false, "", AuthMethodModern, kind, nil)
		return kind
	}

	user := modernUserFromPayload(resp.User)
	creds := NewModernCredentials(resp.AccessToken, resp.RefreshToken)
	if err := m.establish(ctx, user, creds); err != nil {
		m.metricInc(MetricRefreshFailure)
		return err
	}

	m.metricInc(MetricRefreshSuccess)
	m.emitAudit(ctx, auditEventRefresh, true, user.StorageKey(), AuthMethodModern, nil, nil)
	return nil
}
