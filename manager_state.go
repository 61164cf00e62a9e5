package goSession

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/MrEthical07/goSession/credstore"
	"github.com/MrEthical07/goSession/internal/provider"
)

// snapshotLocked builds a deep-copied Session. Callers hold m.mu.
func (m *Manager) snapshotLocked() Session {
	snap := Session{
		Method:    AuthMethodNone,
		IsLoading: m.isLoading,
		LastError: m.lastError,
	}
	if m.user != nil && m.creds != nil {
		snap.User = m.user.clone()
		c := *m.creds
		snap.Credentials = &c
		snap.Method = c.Method
	}
	return snap
}

// beginOperation marks the session loading and clears the previous error.
// Every auth operation starts here.
func (m *Manager) beginOperation() {
	m.mu.Lock()
	m.isLoading = true
	m.lastError = nil
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)
}

// failOperation publishes the classified failure and drops the loading flag.
func (m *Manager) failOperation(classified error) {
	m.mu.Lock()
	m.isLoading = false
	m.lastError = classified
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)
}

// finishOperation drops the loading flag without touching session identity.
// Used by operations that succeed without establishing a session.
func (m *Manager) finishOperation() {
	m.mu.Lock()
	m.isLoading = false
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)
}

// establish persists and publishes a freshly acquired session. The store
// write happens before the in-memory state changes, so a crash between the
// two leaves the durable mirror ahead of memory, never behind with a torn
// record. When the new identity differs from the previous one, the previous
// owner's cached artifacts are purged before anything is published.
func (m *Manager) establish(ctx context.Context, user User, creds Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	if err := user.Validate(); err != nil {
		return err
	}
	if user.Method != creds.Method {
		return errors.New("user and credential variants do not match")
	}

	m.mu.Lock()
	prevKey := ""
	if m.user != nil {
		prevKey = m.user.StorageKey()
	}
	m.mu.Unlock()

	newKey := user.StorageKey()
	switched := prevKey != "" && prevKey != newKey
	if switched {
		// The invariant is strict: a switch must never leak the previous
		// user's cached data into the new session's view, so a failed purge
		// fails the whole operation.
		if err := m.store.PurgeArtifacts(ctx, prevKey); err != nil {
			m.metricInc(MetricStoreError)
			return err
		}
	}

	rec := recordFromSession(&user, &creds, m.now())
	if err := m.store.Save(ctx, rec); err != nil {
		m.metricInc(MetricStoreError)
		return err
	}

	m.mu.Lock()
	m.user = user.clone()
	c := creds
	m.creds = &c
	m.isLoading = false
	m.lastError = nil
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)

	if switched {
		m.metricInc(MetricIdentitySwitch)
		m.emitAudit(ctx, auditEventIdentitySwitch, true, newKey, creds.Method, nil, map[string]string{
			"previous_user_key": prevKey,
		})
	}
	return nil
}

// updateUser replaces the stored user record in place, leaving credentials
// untouched. Used when a validation pass observes server-side user changes.
func (m *Manager) updateUser(ctx context.Context, user User) error {
	m.mu.Lock()
	if m.creds == nil {
		m.mu.Unlock()
		return ErrSessionRequired
	}
	creds := *m.creds
	m.mu.Unlock()

	if user.Method != creds.Method {
		return errors.New("user and credential variants do not match")
	}

	rec := recordFromSession(&user, &creds, m.now())
	if err := m.store.Save(ctx, rec); err != nil {
		m.metricInc(MetricStoreError)
		return err
	}

	m.mu.Lock()
	m.user = user.clone()
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.notify(snap)
	return nil
}

// clearSession destroys the in-memory session and the durable mirror. The
// store clear is best-effort: local state is gone regardless, which is the
// contract logout and validation failure both rely on.
func (m *Manager) clearSession(ctx context.Context, reason string) {
	m.mu.Lock()
	ownerKey := ""
	method := AuthMethodNone
	if m.user != nil {
		ownerKey = m.user.StorageKey()
	}
	if m.creds != nil {
		method = m.creds.Method
	}
	had := m.user != nil || m.creds != nil
	m.user = nil
	m.creds = nil
	m.isLoading = false
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if err := m.store.Clear(ctx, ownerKey); err != nil {
		m.metricInc(MetricStoreError)
		log.Print("goSession: credential store clear failed")
	}

	m.notify(snap)

	if had {
		m.metricInc(MetricSessionCleared)
		m.emitAudit(ctx, auditEventSessionCleared, true, ownerKey, method, nil, map[string]string{
			"reason": reason,
		})
	}
}

// restore recovers a persisted session during Build. A corrupt or malformed
// record is treated like a logout: cleared and ignored.
func (m *Manager) restore(ctx context.Context) error {
	rec, err := m.store.Load(ctx)
	if err != nil {
		switch {
		case errors.Is(err, credstore.ErrNoRecord):
			return nil
		case errors.Is(err, credstore.ErrRecordCorrupt):
			log.Print("goSession: discarding corrupt credential record")
			return m.store.Clear(ctx, "")
		default:
			return err
		}
	}

	user, creds, err := sessionFromRecord(rec)
	if err != nil {
		log.Print("goSession: discarding inconsistent credential record")
		return m.store.Clear(ctx, rec.OwnerKey())
	}

	m.mu.Lock()
	m.user = user.clone()
	m.creds = creds
	m.mu.Unlock()

	m.metricInc(MetricSessionRestored)
	m.emitAudit(ctx, auditEventRestore, true, user.StorageKey(), creds.Method, nil, nil)
	return nil
}

func recordFromSession(user *User, creds *Credentials, now time.Time) *credstore.Record {
	rec := &credstore.Record{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		SavedAt:      now.Unix(),
	}
	switch creds.Method {
	case AuthMethodModern:
		rec.Method = credstore.MethodModern
		if user.Modern != nil {
			rec.UserID = user.Modern.ID
			rec.Email = user.Modern.Email
			rec.DisplayName = user.Modern.DisplayName
			rec.EmailVerified = user.Modern.EmailVerified
			rec.IsActive = user.Modern.IsActive
			rec.CreatedAt = user.Modern.CreatedAt.Unix()
			if user.Modern.LastLoginAt != nil {
				rec.LastLoginAt = user.Modern.LastLoginAt.Unix()
			}
		}
	case AuthMethodLegacy:
		rec.Method = credstore.MethodLegacy
		if user.Legacy != nil {
			rec.LegacyID = user.Legacy.NumericID
			rec.LegacyUsername = user.Legacy.Username
			rec.LegacyUID = user.Legacy.UID
		}
	}
	return rec
}

func sessionFromRecord(rec *credstore.Record) (User, *Credentials, error) {
	switch rec.Method {
	case credstore.MethodModern:
		mu := ModernUser{
			ID:            rec.UserID,
			Email:         rec.Email,
			DisplayName:   rec.DisplayName,
			EmailVerified: rec.EmailVerified,
			IsActive:      rec.IsActive,
			CreatedAt:     time.Unix(rec.CreatedAt, 0).UTC(),
		}
		if rec.LastLoginAt != 0 {
			t := time.Unix(rec.LastLoginAt, 0).UTC()
			mu.LastLoginAt = &t
		}
		user := NewModernUser(mu)
		creds := NewModernCredentials(rec.AccessToken, rec.RefreshToken)
		if err := user.Validate(); err != nil {
			return User{}, nil, err
		}
		return user, &creds, nil
	case credstore.MethodLegacy:
		user := NewLegacyUser(LegacyUser{
			NumericID: rec.LegacyID,
			Username:  rec.LegacyUsername,
			UID:       rec.LegacyUID,
		})
		creds := NewLegacyCredentials(rec.AccessToken)
		if err := user.Validate(); err != nil {
			return User{}, nil, err
		}
		return user, &creds, nil
	default:
		return User{}, nil, errors.New("record carries unknown auth method")
	}
}

func modernUserFromPayload(p provider.UserPayload) User {
	mu := ModernUser{
		ID:            p.ID,
		Email:         p.Email,
		DisplayName:   p.DisplayName,
		EmailVerified: p.EmailVerified,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
	}
	if p.LastLoginAt != nil {
		t := *p.LastLoginAt
		mu.LastLoginAt = &t
	}
	return NewModernUser(mu)
}

func legacyUserFromPayload(p provider.LegacyUserPayload) User {
	return NewLegacyUser(LegacyUser{
		NumericID: p.ID,
		Username:  p.Username,
		UID:       p.UID,
	})
}
