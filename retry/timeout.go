package retry

import "time"

// Timeout is the maximum duration for a single attempt. An attempt that
// exceeds it is canceled, counted as a failure, and retried.
//
// A zero Timeout means no timeout.
type Timeout time.Duration
