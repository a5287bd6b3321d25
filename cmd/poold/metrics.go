// metrics.go - Submission metrics for the pool daemon.
package main

import (
	"sort"
	"sync"
	"time"
)

// MetricsCollector counts submissions and tracks verification latency.
type MetricsCollector struct {
	mu        sync.Mutex
	counters  map[string]int64
	latencies map[string][]time.Duration
	startTime time.Time
}

// NewMetricsCollector creates a metrics collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:  make(map[string]int64),
		latencies: make(map[string][]time.Duration),
		startTime: time.Now(),
	}
}

// Increment bumps a counter.
func (mc *MetricsCollector) Increment(name string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.counters[name]++
}

// ObserveLatency records a duration sample for the named operation.
func (mc *MetricsCollector) ObserveLatency(name string, d time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.latencies[name] = append(mc.latencies[name], d)
}

// LatencySummary is the aggregate of one operation's samples.
type LatencySummary struct {
	Count int    `json:"count"`
	Min   string `json:"min"`
	Max   string `json:"max"`
	Mean  string `json:"mean"`
	P95   string `json:"p95"`
}

// Snapshot is the report served at /metrics.
type Snapshot struct {
	Uptime    string                    `json:"uptime"`
	Counters  map[string]int64          `json:"counters"`
	Latencies map[string]LatencySummary `json:"latencies"`
}

// Snapshot returns the current counters and latency aggregates.
func (mc *MetricsCollector) Snapshot() *Snapshot {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	snap := &Snapshot{
		Uptime:    time.Since(mc.startTime).String(),
		Counters:  make(map[string]int64, len(mc.counters)),
		Latencies: make(map[string]LatencySummary, len(mc.latencies)),
	}
	for name, v := range mc.counters {
		snap.Counters[name] = v
	}
	for name, samples := range mc.latencies {
		snap.Latencies[name] = summarize(samples)
	}
	return snap
}

func summarize(samples []time.Duration) LatencySummary {
	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	p95 := sorted[len(sorted)*95/100]
	return LatencySummary{
		Count: len(sorted),
		Min:   sorted[0].String(),
		Max:   sorted[len(sorted)-1].String(),
		Mean:  (total / time.Duration(len(sorted))).String(),
		P95:   p95.String(),
	}
}
