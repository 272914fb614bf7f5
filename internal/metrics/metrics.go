package metrics

import (
	"sort"
	"sync"
	"time"
)

type Metrics struct {
	mutex         sync.RWMutex
	forwards      map[string]int64
	responseTimes map[string][]time.Duration
	statusCodes   map[string]map[int]int64
	probeSuccess  int64
	probeFailure  int64
	failovers     int64
	recoveries    int64
	startTime     time.Time
}

type Snapshot struct {
	TotalForwards int64                      `json:"total_forwards"`
	Uptime        time.Duration              `json:"uptime"`
	Upstreams     map[string]UpstreamMetrics `json:"upstreams"`
	ProbeSuccess  int64                      `json:"probe_success"`
	ProbeFailure  int64                      `json:"probe_failure"`
	Failovers     int64                      `json:"failovers"`
	Recoveries    int64                      `json:"recoveries"`
}

type UpstreamMetrics struct {
	Forwards    int64         `json:"forwards"`
	AvgResponse time.Duration `json:"avg_response"`
	P50Response time.Duration `json:"p50_response"`
	P95Response time.Duration `json:"p95_response"`
	P99Response time.Duration `json:"p99_response"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

func (m *Metrics) IncrementForwards(upstream string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.forwards[upstream]++
}

func (m *Metrics) RecordResponse(upstream string, duration time.Duration, statusCode int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.responseTimes[upstream] = append(m.responseTimes[upstream], duration)

	if len(m.responseTimes[upstream]) > 1000 {
		m.responseTimes[upstream] = m.responseTimes[upstream][1:]
	}

	if m.statusCodes[upstream] == nil {
		m.statusCodes[upstream] = make(map[int]int64)
	}
	m.statusCodes[upstream][statusCode]++
}

func (m *Metrics) RecordProbe(success bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if success {
		m.probeSuccess++
	} else {
		m.probeFailure++
	}
}

func (m *Metrics) RecordTransition(toBackup bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if toBackup {
		m.failovers++
	} else {
		m.recoveries++
	}
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:       time.Since(m.startTime),
		Upstreams:    make(map[string]UpstreamMetrics),
		ProbeSuccess: m.probeSuccess,
		ProbeFailure: m.probeFailure,
		Failovers:    m.failovers,
		Recoveries:   m.recoveries,
	}

	allUpstreams := make(map[string]bool)
	for upstream := range m.forwards {
		allUpstreams[upstream] = true
	}
	for upstream := range m.responseTimes {
		allUpstreams[upstream] = true
	}

	for upstream := range allUpstreams {
		snap.TotalForwards += m.forwards[upstream]

		um := UpstreamMetrics{
			Forwards:    m.forwards[upstream],
			StatusCodes: m.statusCodes[upstream],
		}

		durations := m.responseTimes[upstream]
		if len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			um.AvgResponse = average(sorted)
			um.P50Response = percentile(sorted, 0.50)
			um.P95Response = percentile(sorted, 0.95)
			um.P99Response = percentile(sorted, 0.99)
		}

		snap.Upstreams[upstream] = um
	}

	return snap
}

func NewMetrics() *Metrics {
	return &Metrics{
		forwards:      make(map[string]int64),
		responseTimes: make(map[string][]time.Duration),
		statusCodes:   make(map[string]map[int]int64),
		startTime:     time.Now(),
	}
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
