package metrics

import (
	"encoding/json"
	"net/http"
)

// BreakerStates reports circuit breaker states by upstream host.
type BreakerStates interface {
	States() map[string]string
}

// Handler serves the current snapshot as JSON. breakers may be nil.
func (c *Collector) Handler(breakers BreakerStates) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := c.metrics.Snapshot()
		if breakers != nil {
			snap.Breakers = breakers.States()
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}
