package metrics

import (
	"sort"
	"sync"
	"time"
)

// maxSamples bounds the latency window kept per check.
const maxSamples = 500

type Metrics struct {
	mutex       sync.RWMutex
	probes      map[string]int64
	states      map[string]string
	lastProbed  map[string]time.Time
	latencies   map[string][]time.Duration
	statusCodes map[string]map[int]int64
	failures    map[string]int64
	alerts      map[string]int64
	rotations   map[string]int64
	cycles      int64
	lastCycle   time.Duration
	lastCycleAt time.Time
	startTime   time.Time
}

type Snapshot struct {
	Uptime        time.Duration           `json:"uptime"`
	Cycles        int64                   `json:"cycles"`
	LastCycle     time.Duration           `json:"last_cycle"`
	LastCycleAt   time.Time               `json:"last_cycle_at"`
	TotalProbes   int64                   `json:"total_probes"`
	Checks        map[string]CheckMetrics `json:"checks"`
	Failures      map[string]int64        `json:"failures"`
	Alerts        map[string]int64        `json:"alerts"`
	Rotations     map[string]int64        `json:"rotations"`
	DroppedEvents int64                   `json:"dropped_events"`
}

type CheckMetrics struct {
	Probes      int64         `json:"probes"`
	State       string        `json:"state"`
	LastProbed  time.Time     `json:"last_probed"`
	AvgProbe    time.Duration `json:"avg_probe"`
	P50Probe    time.Duration `json:"p50_probe"`
	P95Probe    time.Duration `json:"p95_probe"`
	StatusCodes map[int]int64 `json:"status_codes"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		probes:      make(map[string]int64),
		states:      make(map[string]string),
		lastProbed:  make(map[string]time.Time),
		latencies:   make(map[string][]time.Duration),
		statusCodes: make(map[string]map[int]int64),
		failures:    make(map[string]int64),
		alerts:      make(map[string]int64),
		rotations:   make(map[string]int64),
		startTime:   time.Now(),
	}
}

// RecordProbe stores one classified probe. A zero status code means the
// probe itself failed and is left out of the distribution.
func (m *Metrics) RecordProbe(checkID, state string, statusCode int, duration time.Duration, at time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.probes[checkID]++
	m.states[checkID] = state
	m.lastProbed[checkID] = at

	if duration > 0 {
		m.latencies[checkID] = append(m.latencies[checkID], duration)
		if len(m.latencies[checkID]) > maxSamples {
			m.latencies[checkID] = m.latencies[checkID][1:]
		}
	}

	if statusCode != 0 {
		if m.statusCodes[checkID] == nil {
			m.statusCodes[checkID] = make(map[int]int64)
		}
		m.statusCodes[checkID][statusCode]++
	}
}

func (m *Metrics) RecordFailure(stage string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.failures[stage]++
}

func (m *Metrics) RecordAlert(result string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.alerts[result]++
}

func (m *Metrics) RecordRotation(result string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.rotations[result]++
}

func (m *Metrics) RecordCycle(duration time.Duration, at time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.cycles++
	m.lastCycle = duration
	m.lastCycleAt = at
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Uptime:      time.Since(m.startTime),
		Cycles:      m.cycles,
		LastCycle:   m.lastCycle,
		LastCycleAt: m.lastCycleAt,
		Checks:      make(map[string]CheckMetrics, len(m.probes)),
		Failures:    copyCounts(m.failures),
		Alerts:      copyCounts(m.alerts),
		Rotations:   copyCounts(m.rotations),
	}

	for id, count := range m.probes {
		snap.TotalProbes += count

		cm := CheckMetrics{
			Probes:      count,
			State:       m.states[id],
			LastProbed:  m.lastProbed[id],
			StatusCodes: make(map[int]int64, len(m.statusCodes[id])),
		}
		for code, n := range m.statusCodes[id] {
			cm.StatusCodes[code] = n
		}

		if durations := m.latencies[id]; len(durations) > 0 {
			sorted := make([]time.Duration, len(durations))
			copy(sorted, durations)
			sort.Slice(sorted, func(i, j int) bool {
				return sorted[i] < sorted[j]
			})

			cm.AvgProbe = average(sorted)
			cm.P50Probe = percentile(sorted, 0.50)
			cm.P95Probe = percentile(sorted, 0.95)
		}

		snap.Checks[id] = cm
	}

	return snap
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
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
