package config

// Job states. A retry-scheduled job is simply pending with retry_at set;
// there is no separate failed state.
const (
	StatePending    = "pending"
	StateProcessing = "processing"
	StateCompleted  = "completed"
	StateDead       = "dead"
)

var AllStates = []string{StatePending, StateProcessing, StateCompleted, StateDead}

// Keys recognized in the config table.
const (
	KeyMaxRetries        = "max_retries"
	KeyBackoffBase       = "backoff_base"
	KeyMaxBackoffSeconds = "max_backoff_seconds"
	KeyLockLeaseSeconds  = "lock_lease_seconds"
	KeyJobTimeoutSeconds = "job_timeout_seconds"
)

// Defaults apply whenever a key is missing from the config table.
var Defaults = map[string]string{
	KeyMaxRetries:        "3",
	KeyBackoffBase:       "2",
	KeyMaxBackoffSeconds: "300",
	KeyLockLeaseSeconds:  "300",
	KeyJobTimeoutSeconds: "3600",
}

const (
	MinPriority = 0
	MaxPriority = 10
)
