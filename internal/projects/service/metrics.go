package service

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/staysite/site-sync-backend/internal/projects/domain"
)

// Metrics tracks remote store calls and local fallbacks for one ProjectService.
type Metrics struct {
	remoteCalls       int64
	remoteErrors      int64
	remoteLatency     int64 // Total latency in nanoseconds
	remoteUnavailable int64
	remoteRejected    int64
	remoteNotFound    int64
	fallbacks         int64
	reconciled        int64
}

// MetricsSnapshot is a point-in-time copy of Metrics, safe to serialize.
type MetricsSnapshot struct {
	RemoteCalls       int64 `json:"remote_calls"`
	RemoteErrors      int64 `json:"remote_errors"`
	RemoteLatencyNs   int64 `json:"-"`
	RemoteUnavailable int64 `json:"remote_unavailable"`
	RemoteRejected    int64 `json:"remote_rejected"`
	RemoteNotFound    int64 `json:"remote_not_found"`
	Fallbacks         int64 `json:"local_fallbacks"`
	Reconciled        int64 `json:"reconciled"`
}

// Snapshot returns the current metrics
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		RemoteCalls:       atomic.LoadInt64(&m.remoteCalls),
		RemoteErrors:      atomic.LoadInt64(&m.remoteErrors),
		RemoteLatencyNs:   atomic.LoadInt64(&m.remoteLatency),
		RemoteUnavailable: atomic.LoadInt64(&m.remoteUnavailable),
		RemoteRejected:    atomic.LoadInt64(&m.remoteRejected),
		RemoteNotFound:    atomic.LoadInt64(&m.remoteNotFound),
		Fallbacks:         atomic.LoadInt64(&m.fallbacks),
		Reconciled:        atomic.LoadInt64(&m.reconciled),
	}
}

// Reset zeroes all counters (useful for testing)
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.remoteCalls, 0)
	atomic.StoreInt64(&m.remoteErrors, 0)
	atomic.StoreInt64(&m.remoteLatency, 0)
	atomic.StoreInt64(&m.remoteUnavailable, 0)
	atomic.StoreInt64(&m.remoteRejected, 0)
	atomic.StoreInt64(&m.remoteNotFound, 0)
	atomic.StoreInt64(&m.fallbacks, 0)
	atomic.StoreInt64(&m.reconciled, 0)
}

// recordRemoteCall records one remote store call and classifies its error.
// NotFound is an answer, not a failure, so it does not count as an error.
func (m *Metrics) recordRemoteCall(duration time.Duration, err error) {
	atomic.AddInt64(&m.remoteCalls, 1)
	atomic.AddInt64(&m.remoteLatency, duration.Nanoseconds())
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrNotFound):
		atomic.AddInt64(&m.remoteNotFound, 1)
	case errors.Is(err, domain.ErrRemoteRejected):
		atomic.AddInt64(&m.remoteErrors, 1)
		atomic.AddInt64(&m.remoteRejected, 1)
	default:
		atomic.AddInt64(&m.remoteErrors, 1)
		atomic.AddInt64(&m.remoteUnavailable, 1)
	}
}

func (m *Metrics) recordFallback() {
	atomic.AddInt64(&m.fallbacks, 1)
}

func (m *Metrics) recordReconciled() {
	atomic.AddInt64(&m.reconciled, 1)
}

// AverageRemoteLatency returns the average latency in milliseconds
func (s MetricsSnapshot) AverageRemoteLatency() float64 {
	if s.RemoteCalls == 0 {
		return 0
	}
	avgNs := float64(s.RemoteLatencyNs) / float64(s.RemoteCalls)
	return avgNs / 1e6
}

// RemoteErrorRate returns the error rate as a percentage
func (s MetricsSnapshot) RemoteErrorRate() float64 {
	if s.RemoteCalls == 0 {
		return 0
	}
	return float64(s.RemoteErrors) / float64(s.RemoteCalls) * 100
}
