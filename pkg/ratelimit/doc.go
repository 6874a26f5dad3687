// Package ratelimit keeps the scraper polite toward the feed host.
//
// SlidingWindow caps the number of outgoing requests in any rolling window
// and is installed in the connector when a requests-per-minute budget is
// configured. Pacer applies the fixed pause that follows every emitted
// record, and Interval spaces out parallel detail fetches. All of them
// honour context cancellation.
//
//	limiter := ratelimit.PerMinute(30)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
