package metrics

import (
	"sort"
	"sync"
	"time"
)

const maxSamples = 1000

type Metrics struct {
	mutex     sync.RWMutex
	outcomes  map[string]int64
	statuses  map[int]int64
	upstreams map[string]*upstreamStats
	dropped   int64
	startTime time.Time
}

type upstreamStats struct {
	requests    int64
	failures    int64
	durations   []time.Duration
	statusCodes map[int]int64
}

type Snapshot struct {
	TotalRequests int64                      `json:"total_requests"`
	Uptime        time.Duration              `json:"uptime"`
	Outcomes      map[string]int64           `json:"outcomes"`
	StatusCodes   map[int]int64              `json:"status_codes"`
	Upstreams     map[string]UpstreamMetrics `json:"upstreams"`
	DroppedEvents int64                      `json:"dropped_events"`
	Breakers      map[string]string          `json:"breakers,omitempty"`
}

type UpstreamMetrics struct {
	Requests    int64         `json:"requests"`
	Failures    int64         `json:"failures"`
	AvgResponse time.Duration `json:"avg_response"`
	P50Response time.Duration `json:"p50_response"`
	P95Response time.Duration `json:"p95_response"`
	P99Response time.Duration `json:"p99_response"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		outcomes:  make(map[string]int64),
		statuses:  make(map[int]int64),
		upstreams: make(map[string]*upstreamStats),
		startTime: time.Now(),
	}
}

func (m *Metrics) RecordOutcome(outcome string, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.outcomes[outcome]++
	m.statuses[statusCode]++
}

func (m *Metrics) RecordUpstream(host string, duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	s := m.upstream(host)
	s.requests++
	s.statusCodes[statusCode]++

	s.durations = append(s.durations, duration)
	if len(s.durations) > maxSamples {
		s.durations = s.durations[1:]
	}
}

func (m *Metrics) RecordUpstreamFailure(host string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	s := m.upstream(host)
	s.requests++
	s.failures++
}

func (m *Metrics) IncrementDropped() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.dropped++
}

// upstream must be called with the write lock held.
func (m *Metrics) upstream(host string) *upstreamStats {
	s, ok := m.upstreams[host]
	if !ok {
		s = &upstreamStats{statusCodes: make(map[int]int64)}
		m.upstreams[host] = s
	}
	return s
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:        time.Since(m.startTime),
		Outcomes:      make(map[string]int64, len(m.outcomes)),
		StatusCodes:   make(map[int]int64, len(m.statuses)),
		Upstreams:     make(map[string]UpstreamMetrics, len(m.upstreams)),
		DroppedEvents: m.dropped,
	}

	for outcome, n := range m.outcomes {
		snap.Outcomes[outcome] = n
		snap.TotalRequests += n
	}
	for code, n := range m.statuses {
		snap.StatusCodes[code] = n
	}

	for host, s := range m.upstreams {
		um := UpstreamMetrics{
			Requests:    s.requests,
			Failures:    s.failures,
			StatusCodes: make(map[int]int64, len(s.statusCodes)),
		}
		for code, n := range s.statusCodes {
			um.StatusCodes[code] = n
		}

		if len(s.durations) > 0 {
			sorted := make([]time.Duration, len(s.durations))
			copy(sorted, s.durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			um.AvgResponse = average(sorted)
			um.P50Response = percentile(sorted, 0.50)
			um.P95Response = percentile(sorted, 0.95)
			um.P99Response = percentile(sorted, 0.99)
		}

		snap.Upstreams[host] = um
	}

	return snap
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
