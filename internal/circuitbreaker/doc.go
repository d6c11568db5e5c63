// Package circuitbreaker stops the monitor from hammering an alert recipient
// whose deliveries keep failing (a disconnected number, a rejected sender).
//
// A breaker has three states:
//
//   - CLOSED: deliveries go through
//   - OPEN: deliveries are skipped until the reset timeout elapses
//   - HALF-OPEN: one trial delivery decides between CLOSED and OPEN
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(5, time.Minute)
//	cb := registry.Get("5551234567")
//	if cb.Allow() {
//	    if err := send(); err != nil {
//	        cb.RecordFailure()
//	    } else {
//	        cb.RecordSuccess()
//	    }
//	}
package circuitbreaker
