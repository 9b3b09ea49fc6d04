package crawler

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryPolicy is a backoff.BackOff with a constant wait and a hard cap
// on the number of attempts. After limit failed attempts it returns
// backoff.Stop so backoff.Retry surfaces the last error to the caller.
type retryPolicy struct {
	interval time.Duration
	limit    int
	failures int
}

var _ backoff.BackOff = (*retryPolicy)(nil)

// newRetryPolicy returns a retryPolicy that waits interval between
// attempts and gives up once limit attempts have failed.
func newRetryPolicy(interval time.Duration, limit int) *retryPolicy {
	return &retryPolicy{interval: interval, limit: limit}
}

// NextBackOff counts the failure it is being asked about and returns
// either the constant interval or backoff.Stop once the limit is hit.
func (p *retryPolicy) NextBackOff() time.Duration {
	p.failures++
	if p.failures >= p.limit {
		return backoff.Stop
	}
	return p.interval
}

// Reset clears the failure counter. backoff.Retry calls this before the
// first attempt, so the counter is always per retried operation.
func (p *retryPolicy) Reset() {
	p.failures = 0
}
