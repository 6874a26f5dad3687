// Package retry provides backoff and retry logic for transient transport
// failures.
//
// The connector wraps every page fetch in DoWithResult. Retryable typed
// errors (network, rate limit, server error) are retried with a backoff
// chosen by error type; auth, not-found and parsing failures return
// immediately. Cancelling the context aborts any pending wait.
//
//	cfg := retry.HTTPConfig(3, 2*time.Second, log)
//	resp, err := retry.DoWithResult(ctx, func(ctx context.Context) (*Response, error) {
//	    return fetchOnce(ctx, url)
//	}, cfg)
package retry
