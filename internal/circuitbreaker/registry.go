package circuitbreaker

import (
	"sync"
	"time"
)

// Registry hands out one breaker per upstream host.
type Registry struct {
	mutex        sync.RWMutex
	breakers     map[string]*Breaker
	threshold    int
	resetTimeout time.Duration
}

func NewRegistry(threshold int, resetTimeout time.Duration) *Registry {
	return &Registry{
		breakers:     make(map[string]*Breaker),
		threshold:    threshold,
		resetTimeout: resetTimeout,
	}
}

func (r *Registry) Get(host string) *Breaker {
	r.mutex.RLock()
	b, ok := r.breakers[host]
	r.mutex.RUnlock()

	if ok {
		return b
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if b, ok = r.breakers[host]; ok {
		return b
	}

	b = New(r.threshold, r.resetTimeout)
	r.breakers[host] = b
	return b
}

// States returns the current state name of every known host.
func (r *Registry) States() map[string]string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	states := make(map[string]string, len(r.breakers))
	for host, b := range r.breakers {
		states[host] = b.State().String()
	}
	return states
}
