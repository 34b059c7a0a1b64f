// Package circuitbreaker guards upstream hosts that keep failing.
//
// A breaker has three states:
//
//   - CLOSED: requests pass through
//   - OPEN: the host failed too often, requests are refused with ErrOpen
//   - HALF-OPEN: the reset timeout elapsed, a single probe is let through
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(5, 30*time.Second)
//	cb := registry.Get("userstorage.example.net")
//	if err := cb.Acquire(); err != nil {
//	    return err
//	}
//	// Make request...
//	if err != nil {
//	    cb.RecordFailure()
//	} else {
//	    cb.RecordSuccess()
//	}
package circuitbreaker
