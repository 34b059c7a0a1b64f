package main

import (
	"net/http"

	"github.com/angeloszaimis/edge-filter/internal/circuitbreaker"
	"github.com/angeloszaimis/edge-filter/internal/metrics"
)

// setupAdminRouter serves the admin listener only. The public listener uses
// the filter handler directly so request paths are never cleaned.
func setupAdminRouter(collector *metrics.Collector, breakers *circuitbreaker.Registry) *http.ServeMux {
	var states metrics.BreakerStates
	if breakers != nil {
		states = breakers
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /metrics", collector.Handler(states))

	return mux
}
