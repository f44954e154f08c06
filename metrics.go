package authcore

import "sync/atomic"

// MetricID identifies one counter in the in-process metrics block.
type MetricID int

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricTwoFactorChallenge
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricAuthenticateSuccess
	MetricAuthenticateFailure
	MetricOTPIssued
	MetricOTPConsumed
	MetricOTPRejected
	MetricRegistrationStarted
	MetricRegistrationCompleted
	MetricPasswordResetSuccess
	MetricOAuthLoginSuccess
	MetricOAuthLoginFailure
	MetricLogout

	metricIDCount
)

// Metrics holds atomic counters for authentication events. All methods
// are safe for concurrent use; a nil *Metrics is a no-op.
type Metrics struct {
	counters [metricIDCount]atomic.Uint64
}

// NewMetrics returns an empty metrics block.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Inc increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || id < 0 || id >= metricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot returns a point-in-time copy of all counters.
func (m *Metrics) Snapshot() map[MetricID]uint64 {
	out := make(map[MetricID]uint64, metricIDCount)
	if m == nil {
		return out
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		out[id] = m.counters[id].Load()
	}
	return out
}
