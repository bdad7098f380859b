package authkit

import internalmetrics "github.com/pme360/authkit/internal/metrics"

const (
	MetricLoginSuccess          = internalmetrics.MetricLoginSuccess
	MetricLoginFailure          = internalmetrics.MetricLoginFailure
	MetricLoginRateLimited      = internalmetrics.MetricLoginRateLimited
	MetricRefreshSuccess        = internalmetrics.MetricRefreshSuccess
	MetricRefreshFailure        = internalmetrics.MetricRefreshFailure
	MetricRefreshReuseDetected  = internalmetrics.MetricRefreshReuseDetected
	MetricRegisterSuccess       = internalmetrics.MetricRegisterSuccess
	MetricRegisterConflict      = internalmetrics.MetricRegisterConflict
	MetricRegisterRejected      = internalmetrics.MetricRegisterRejected
	MetricLogout                = internalmetrics.MetricLogout
	MetricPasswordChangeSuccess = internalmetrics.MetricPasswordChangeSuccess
	MetricPasswordChangeFailure = internalmetrics.MetricPasswordChangeFailure
	MetricResetRequest          = internalmetrics.MetricResetRequest
	MetricResetSuccess          = internalmetrics.MetricResetSuccess
	MetricResetFailure          = internalmetrics.MetricResetFailure
	MetricValidateSuccess       = internalmetrics.MetricValidateSuccess
	MetricValidateFailure       = internalmetrics.MetricValidateFailure
)

// MetricName returns the stable exposition name for a counter id.
func MetricName(id MetricID) string {
	return internalmetrics.Name(id)
}

// MetricIDCount is the number of defined counters.
const MetricIDCount = internalmetrics.MetricIDCount
