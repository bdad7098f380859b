package metrics

import "sync/atomic"

// MetricID identifies a single counter.
type MetricID int

const (
	MetricLoginSuccess MetricID = iota
	MetricLoginFailure
	MetricLoginRateLimited
	MetricRefreshSuccess
	MetricRefreshFailure
	MetricRefreshReuseDetected
	MetricRegisterSuccess
	MetricRegisterConflict
	MetricRegisterRejected
	MetricLogout
	MetricPasswordChangeSuccess
	MetricPasswordChangeFailure
	MetricResetRequest
	MetricResetSuccess
	MetricResetFailure
	MetricValidateSuccess
	MetricValidateFailure

	MetricIDCount
)

var metricNames = [MetricIDCount]string{
	MetricLoginSuccess:          "login_success",
	MetricLoginFailure:          "login_failure",
	MetricLoginRateLimited:      "login_rate_limited",
	MetricRefreshSuccess:        "refresh_success",
	MetricRefreshFailure:        "refresh_failure",
	MetricRefreshReuseDetected:  "refresh_reuse_detected",
	MetricRegisterSuccess:       "register_success",
	MetricRegisterConflict:      "register_conflict",
	MetricRegisterRejected:      "register_rejected",
	MetricLogout:                "logout",
	MetricPasswordChangeSuccess: "password_change_success",
	MetricPasswordChangeFailure: "password_change_failure",
	MetricResetRequest:          "reset_request",
	MetricResetSuccess:          "reset_success",
	MetricResetFailure:          "reset_failure",
	MetricValidateSuccess:       "validate_success",
	MetricValidateFailure:       "validate_failure",
}

// Name returns the stable exposition name for a counter.
func Name(id MetricID) string {
	if id < 0 || id >= MetricIDCount {
		return "unknown"
	}
	return metricNames[id]
}

// Config controls whether counting is active.
type Config struct {
	Enabled bool
}

// Metrics holds atomic counters. When disabled, all operations are no-ops.
type Metrics struct {
	enabled  bool
	counters [MetricIDCount]atomic.Uint64
}

func New(cfg Config) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id < 0 || id >= MetricIDCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Counters [MetricIDCount]uint64
}

// Get returns the snapshot value for a counter id.
func (s Snapshot) Get(id MetricID) uint64 {
	if id < 0 || id >= MetricIDCount {
		return 0
	}
	return s.Counters[id]
}

func (m *Metrics) Snapshot() Snapshot {
	var snap Snapshot
	if m == nil {
		return snap
	}
	for i := range m.counters {
		snap.Counters[i] = m.counters[i].Load()
	}
	return snap
}
