package goSession

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by goSession APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricLoginSuccess is an exported constant or variable used by the session manager.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure is an exported constant or variable used by the session manager.
	MetricLoginFailure
	// MetricLegacyLoginSuccess is an exported constant or variable used by the session manager.
	MetricLegacyLoginSuccess
	// MetricLegacyLoginFailure is an exported constant or variable used by the session manager.
	MetricLegacyLoginFailure
	// MetricOAuthStarted is an exported constant or variable used by the session manager.
	MetricOAuthStarted
	// MetricOAuthCompleted is an exported constant or variable used by the session manager.
	MetricOAuthCompleted
	// MetricOAuthFailure is an exported constant or variable used by the session manager.
	MetricOAuthFailure
	// MetricRegisterSuccess is an exported constant or variable used by the session manager.
	MetricRegisterSuccess
	// MetricRegisterFailure is an exported constant or variable used by the session manager.
	MetricRegisterFailure
	// MetricRefreshSuccess is an exported constant or variable used by the session manager.
	MetricRefreshSuccess
	// MetricRefreshFailure is an exported constant or variable used by the session manager.
	MetricRefreshFailure
	// MetricRefreshJoined counts callers that attached to an in-flight refresh
	// instead of issuing their own provider exchange.
	MetricRefreshJoined
	// MetricRefreshUnavailable counts refresh attempts rejected locally for
	// lack of a refresh path (legacy session or missing refresh token).
	MetricRefreshUnavailable
	// MetricValidateAccepted is an exported constant or variable used by the session manager.
	MetricValidateAccepted
	// MetricValidateRejected is an exported constant or variable used by the session manager.
	MetricValidateRejected
	// MetricValidateUnreachable is an exported constant or variable used by the session manager.
	MetricValidateUnreachable
	// MetricSessionRestored is an exported constant or variable used by the session manager.
	MetricSessionRestored
	// MetricSessionCleared is an exported constant or variable used by the session manager.
	MetricSessionCleared
	// MetricIdentitySwitch is an exported constant or variable used by the session manager.
	MetricIdentitySwitch
	// MetricLogout is an exported constant or variable used by the session manager.
	MetricLogout
	// MetricLogoutAll is an exported constant or variable used by the session manager.
	MetricLogoutAll
	// MetricPermissionGranted is an exported constant or variable used by the session manager.
	MetricPermissionGranted
	// MetricPermissionDenied is an exported constant or variable used by the session manager.
	MetricPermissionDenied
	// MetricStoreError is an exported constant or variable used by the session manager.
	MetricStoreError
	// MetricValidateLatency is an exported constant or variable used by the session manager.
	MetricValidateLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics defines a public type used by goSession APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a new [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled describes the enabled operation and its observable behavior.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc describes the inc operation and its observable behavior.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a validation latency sample when histograms are enabled.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricValidateLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value describes the value operation and its observable behavior.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot describes the snapshot operation and its observable behavior.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricValidateLatency].buckets[i])
		}
		s.Histograms[MetricValidateLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
