package goSession

import "context"

// Register creates an account on the modern service. It never establishes a
// session: the account stays pending until the verification email is
// redeemed through [Manager.VerifyEmail].
func (m *Manager) Register(ctx context.Context, input RegisterInput) error {
	if err := m.ready(); err != nil {
		return err
	}
	m.beginOperation()

	err := m.api.Register(ctx, input.Email, input.Password, input.FirstName, input.LastName)
	if err != nil {
		kind := classify(err)
		m.failOperation(kind)
		m.metricInc(MetricRegisterFailure)
		m.emitAudit(ctx, auditEventRegister, false, "", AuthMethodModern, kind, map[string]string{
			"identifier": input.Email,
		})
		return kind
	}

	m.finishOperation()
	m.metricInc(MetricRegisterSuccess)
	m.emitAudit(ctx, auditEventRegister, true, "", AuthMethodModern, nil, map[string]string{
		"identifier": input.Email,
	})
	return nil
}

// VerifyEmail redeems an email-verification token.
func (m *Manager) VerifyEmail(ctx context.Context, verificationToken string) error {
	if err := m.ready(); err != nil {
		return err
	}
	m.beginOperation()

	if err := m.api.VerifyEmail(ctx, verificationToken); err != nil {
		kind := classify(err)
		m.failOperation(kind)
		return kind
	}

	m.finishOperation()
	return nil
}

// ResendVerification requests a fresh verification email for the address.
func (m *Manager) ResendVerification(ctx context.Context, email string) error {
	if err := m.ready(); err != nil {
		return err
	}
	m.beginOperation()

	if err := m.api.ResendVerification(ctx, email); err != nil {
		kind := classify(err)
		m.failOperation(kind)
		return kind
	}

	m.finishOperation()
	return nil
}
