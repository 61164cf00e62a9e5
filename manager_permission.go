package goSession

import "context"

// CheckPermission asks the provider whether the current account may access
// the given project. It is a pure gate: any failure — no session, network
// error, provider rejection — degrades to false rather than raising, because
// callers use the answer only to show or hide functionality.
func (m *Manager) CheckPermission(ctx context.Context, projectID string) bool {
	if m == nil || m.api == nil {
		return false
	}

	m.mu.Lock()
	var accessToken string
	if m.creds != nil {
		accessToken = m.creds.AccessToken
	}
	m.mu.Unlock()
	if accessToken == "" {
		m.metricInc(MetricPermissionDenied)
		return false
	}

	ok, err := m.api.CheckPermission(ctx, accessToken, projectID)
	if err != nil || !ok {
		m.metricInc(MetricPermissionDenied)
		return false
	}

	m.metricInc(MetricPermissionGranted)
	return true
}
