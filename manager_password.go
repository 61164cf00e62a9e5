package goSession

import "context"

// ForgotPassword starts the password-reset flow for the address. The
// provider responds identically whether or not the account exists, and so
// does this method.
func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	if err := m.ready(); err != nil {
		return err
	}
	m.beginOperation()

	if err := m.api.ForgotPassword(ctx, email); err != nil {
		kind := classify(err)
		m.failOperation(kind)
		return kind
	}

	m.finishOperation()
	return nil
}

// ResetPassword redeems a reset token against a new password. No session is
// established; the user logs in with the new password afterwards.
func (m *Manager) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if err := m.ready(); err != nil {
		return err
	}
	m.beginOperation()

	if err := m.api.ResetPassword(ctx, resetToken, newPassword); err != nil {
		kind := classify(err)
		m.failOperation(kind)
		return kind
	}

	m.finishOperation()
	return nil
}

// ChangePassword rotates the password of the authenticated account. It
// requires an active modern session; legacy sessions have no password
// surface on the modern service.
func (m *Manager) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if err := m.ready(); err != nil {
		return err
	}

	m.mu.Lock()
	var accessToken string
	if m.creds != nil && m.creds.Method == AuthMethodModern {
		accessToken = m.creds.AccessToken
	}
	m.mu.Unlock()
	if accessToken == "" {
		return ErrModernSessionRequired
	}

	m.beginOperation()

	if err := m.api.ChangePassword(ctx, accessToken, currentPassword, newPassword); err != nil {
		kind := classify(err)
		m.failOperation(kind)
		return kind
	}

	m.finishOperation()
	return nil
}
