package goSession

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/credstore"
	"github.com/MrEthical07/goSession/internal/provider"
	"golang.org/x/sync/singleflight"
)

// Manager defines a public type used by goSession APIs.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
// The Manager is the single writer of session state: every auth operation,
// refresh, validation, and clear goes through it, and readers observe state
// only through deep-copied snapshots.
type Manager struct {
	config  Config
	store   *credstore.Store
	api     *provider.Client
	audit   *auditDispatcher
	metrics *Metrics
	now     func() time.Time

	instanceID string

	mu         sync.Mutex
	user       *User
	creds      *Credentials
	isLoading  bool
	lastError  error
	oauthState string

	refreshGroup singleflight.Group

	subMu   sync.Mutex
	subs    map[uint64]func(Session)
	nextSub uint64

	validateDone chan struct{}
	validateWG   sync.WaitGroup
	closeOnce    sync.Once
}

// Close stops the background validation loop, if any, and drains the audit
// dispatcher. The Manager must not be used after Close.
func (m *Manager) Close() {
	if m == nil {
		return
	}
	m.closeOnce.Do(func() {
		if m.validateDone != nil {
			close(m.validateDone)
			m.validateWG.Wait()
		}
		if m.audit != nil {
			m.audit.Close()
		}
	})
}

// AuditDropped reports how many audit events were discarded under pressure.
func (m *Manager) AuditDropped() uint64 {
	if m == nil || m.audit == nil {
		return 0
	}
	return m.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all counters.
func (m *Manager) MetricsSnapshot() MetricsSnapshot {
	if m == nil || m.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return m.metrics.Snapshot()
}

// Snapshot returns a deep copy of the current session aggregate.
func (m *Manager) Snapshot() Session {
	if m == nil {
		return Session{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// CurrentUser returns a copy of the active user record, or nil when no
// session is established.
func (m *Manager) CurrentUser() *User {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	return m.user.clone()
}

// CurrentCredentials returns a copy of the active credential bundle, or nil
// when no session is established.
func (m *Manager) CurrentCredentials() *Credentials {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return nil
	}
	c := *m.creds
	return &c
}

// Method returns the auth method of the active session, or AuthMethodNone.
func (m *Manager) Method() AuthMethod {
	if m == nil {
		return AuthMethodNone
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.creds == nil {
		return AuthMethodNone
	}
	return m.creds.Method
}

// Subscribe registers fn to receive a session snapshot after every published
// state change. fn runs synchronously on the mutating goroutine and must not
// call back into the Manager. The returned cancel function unregisters it.
func (m *Manager) Subscribe(fn func(Session)) (cancel func()) {
	if m == nil || fn == nil {
		return func() {}
	}
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	if m.subs == nil {
		m.subs = make(map[uint64]func(Session))
	}
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Manager) notify(snap Session) {
	m.subMu.Lock()
	fns := make([]func(Session), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (m *Manager) ready() error {
	if m == nil || m.api == nil || m.store == nil {
		return ErrManagerNotReady
	}
	return nil
}

func (m *Manager) metricInc(id MetricID) {
	if m == nil || m.metrics == nil {
		return
	}
	m.metrics.Inc(id)
}

func (m *Manager) emitAudit(ctx context.Context, eventType string, success bool, userKey string, method AuthMethod, opErr error, metadata map[string]string) {
	if m == nil || m.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp:  m.now(),
		EventType:  eventType,
		UserKey:    userKey,
		AuthMethod: method.String(),
		InstanceID: m.instanceID,
		Source:     sourceFromContext(ctx),
		Success:    success,
		Metadata:   metadata,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}
	m.audit.Emit(ctx, event)
}
