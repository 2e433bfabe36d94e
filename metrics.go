package coro

import (
	"sync/atomic"
	"time"
)

// LatencyBuckets defines the latency histogram buckets in nanoseconds.
// Buckets cover from 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,          // 1us
	10_000,         // 10us
	100_000,        // 100us
	1_000_000,      // 1ms
	10_000_000,     // 10ms
	100_000_000,    // 100ms
	1_000_000_000,  // 1s
	10_000_000_000, // 10s
}

const numLatencyBuckets = 8

// Metrics tracks runtime-level operational statistics for one Engine.
type Metrics struct {
	// Task queue counters
	TasksSubmitted     atomic.Uint64 // SubmitTask calls that pushed onto the ready queue
	TasksInlineResumed atomic.Uint64 // SubmitTask calls that fell back to an inline resume
	TasksOverflowed    atomic.Uint64 // SubmitTask calls discarded past MaxRecursiveDepth
	TasksExecuted      atomic.Uint64 // ExecOneTask/execTask completions

	// I/O counters
	CQEsDrained atomic.Uint64 // Completion entries handled by PollSubmit

	// Wait-group / latch counters
	WaitersParked   atomic.Uint64 // Coroutines suspended on a wait_group/latch/event
	WaitersResumed  atomic.Uint64 // Waiters resumed by done()/count_down()/set()

	// Context lifecycle
	IdleTransitions atomic.Uint64 // Number of times a Context became idle

	// Performance tracking
	TotalLatencyNs atomic.Uint64 // Cumulative resume-to-suspend latency in nanoseconds
	OpCount        atomic.Uint64 // Samples backing TotalLatencyNs (for average latency)

	// Latency histogram buckets (cumulative counts); bucket[i] holds the
	// count of samples with latency <= LatencyBuckets[i].
	LatencyHist [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64 // Engine start timestamp (UnixNano)
	StopTime  atomic.Int64 // Engine stop timestamp (UnixNano)
}

// NewMetrics creates a new metrics instance.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

// RecordLatency records one resume-to-suspend sample and updates the
// cumulative histogram.
func (m *Metrics) RecordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyHist[i].Add(1)
		}
	}
}

// Stop marks the engine as stopped.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// MetricsSnapshot is a point-in-time snapshot of Metrics.
type MetricsSnapshot struct {
	TasksSubmitted     uint64
	TasksInlineResumed uint64
	TasksOverflowed    uint64
	TasksExecuted      uint64
	CQEsDrained        uint64
	WaitersParked      uint64
	WaitersResumed     uint64
	IdleTransitions    uint64

	AvgLatencyNs uint64
	UptimeNs     uint64

	LatencyP50Ns  uint64
	LatencyP99Ns  uint64
	LatencyP999Ns uint64

	LatencyHistogram [numLatencyBuckets]uint64
}

// Snapshot creates a point-in-time snapshot of metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		TasksSubmitted:     m.TasksSubmitted.Load(),
		TasksInlineResumed: m.TasksInlineResumed.Load(),
		TasksOverflowed:    m.TasksOverflowed.Load(),
		TasksExecuted:      m.TasksExecuted.Load(),
		CQEsDrained:        m.CQEsDrained.Load(),
		WaitersParked:      m.WaitersParked.Load(),
		WaitersResumed:     m.WaitersResumed.Load(),
		IdleTransitions:    m.IdleTransitions.Load(),
	}

	totalLatencyNs := m.TotalLatencyNs.Load()
	opCount := m.OpCount.Load()
	if opCount > 0 {
		snap.AvgLatencyNs = totalLatencyNs / opCount
	}

	startTime := m.StartTime.Load()
	stopTime := m.StopTime.Load()
	if stopTime > 0 {
		snap.UptimeNs = uint64(stopTime - startTime)
	} else {
		snap.UptimeNs = uint64(time.Now().UnixNano() - startTime)
	}

	for i := 0; i < numLatencyBuckets; i++ {
		snap.LatencyHistogram[i] = m.LatencyHist[i].Load()
	}

	if opCount > 0 {
		snap.LatencyP50Ns = m.calculatePercentile(0.50)
		snap.LatencyP99Ns = m.calculatePercentile(0.99)
		snap.LatencyP999Ns = m.calculatePercentile(0.999)
	}

	return snap
}

// calculatePercentile estimates the latency at the given percentile (0.0-1.0)
// using linear interpolation between histogram buckets.
func (m *Metrics) calculatePercentile(percentile float64) uint64 {
	totalOps := m.OpCount.Load()
	if totalOps == 0 {
		return 0
	}

	targetCount := uint64(float64(totalOps) * percentile)

	prevBucket := uint64(0)
	for i, bucket := range LatencyBuckets {
		bucketCount := m.LatencyHist[i].Load()
		if bucketCount >= targetCount {
			prevCount := uint64(0)
			if i > 0 {
				prevCount = m.LatencyHist[i-1].Load()
			}
			if bucketCount == prevCount {
				return bucket
			}
			fraction := float64(targetCount-prevCount) / float64(bucketCount-prevCount)
			return prevBucket + uint64(fraction*float64(bucket-prevBucket))
		}
		prevBucket = bucket
	}

	return LatencyBuckets[numLatencyBuckets-1]
}

// Reset resets all metrics counters (useful for testing).
func (m *Metrics) Reset() {
	m.TasksSubmitted.Store(0)
	m.TasksInlineResumed.Store(0)
	m.TasksOverflowed.Store(0)
	m.TasksExecuted.Store(0)
	m.CQEsDrained.Store(0)
	m.WaitersParked.Store(0)
	m.WaitersResumed.Store(0)
	m.IdleTransitions.Store(0)
	m.TotalLatencyNs.Store(0)
	m.OpCount.Store(0)
	for i := 0; i < numLatencyBuckets; i++ {
		m.LatencyHist[i].Store(0)
	}
	m.StartTime.Store(time.Now().UnixNano())
	m.StopTime.Store(0)
}

// Observer allows pluggable metrics collection over runtime events such
// as task submission, inline resume, overflow, and CQE drain.
type Observer interface {
	ObserveTaskSubmitted()
	ObserveTaskInlineResumed()
	ObserveTaskOverflowed()
	ObserveTaskExecuted(latencyNs uint64)
	ObserveCQEDrained()
	ObserveWaiterParked()
	ObserveWaiterResumed()
	ObserveIdleTransition()
}

// NoOpObserver is a no-op implementation of Observer.
type NoOpObserver struct{}

func (NoOpObserver) ObserveTaskSubmitted()          {}
func (NoOpObserver) ObserveTaskInlineResumed()      {}
func (NoOpObserver) ObserveTaskOverflowed()         {}
func (NoOpObserver) ObserveTaskExecuted(uint64)     {}
func (NoOpObserver) ObserveCQEDrained()             {}
func (NoOpObserver) ObserveWaiterParked()           {}
func (NoOpObserver) ObserveWaiterResumed()          {}
func (NoOpObserver) ObserveIdleTransition()         {}

// MetricsObserver implements Observer using the built-in Metrics.
type MetricsObserver struct {
	metrics *Metrics
}

// NewMetricsObserver creates an observer that records to the given metrics.
func NewMetricsObserver(m *Metrics) *MetricsObserver {
	return &MetricsObserver{metrics: m}
}

func (o *MetricsObserver) ObserveTaskSubmitted()     { o.metrics.TasksSubmitted.Add(1) }
func (o *MetricsObserver) ObserveTaskInlineResumed() { o.metrics.TasksInlineResumed.Add(1) }
func (o *MetricsObserver) ObserveTaskOverflowed()    { o.metrics.TasksOverflowed.Add(1) }
func (o *MetricsObserver) ObserveTaskExecuted(latencyNs uint64) {
	o.metrics.TasksExecuted.Add(1)
	o.metrics.RecordLatency(latencyNs)
}
func (o *MetricsObserver) ObserveCQEDrained()    { o.metrics.CQEsDrained.Add(1) }
func (o *MetricsObserver) ObserveWaiterParked()  { o.metrics.WaitersParked.Add(1) }
func (o *MetricsObserver) ObserveWaiterResumed() { o.metrics.WaitersResumed.Add(1) }
func (o *MetricsObserver) ObserveIdleTransition() { o.metrics.IdleTransitions.Add(1) }

var _ Observer = (*MetricsObserver)(nil)
var _ Observer = (*NoOpObserver)(nil)

// observerFor returns ctx's engine's observer, or a NoOpObserver if ctx is
// nil (a Wait call made outside any worker goroutine).
func observerFor(ctx *Context) Observer {
	if ctx == nil {
		return NoOpObserver{}
	}
	return ctx.Engine().Observer()
}
