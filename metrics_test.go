package coro

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetricsSnapshotInitialState(t *testing.T) {
	m := NewMetrics()
	snap := m.Snapshot()
	require.Zero(t, snap.TasksSubmitted)
	require.Zero(t, snap.TasksExecuted)
	require.Zero(t, snap.CQEsDrained)
}

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.TasksSubmitted.Add(3)
	m.TasksInlineResumed.Add(1)
	m.TasksOverflowed.Add(1)
	m.CQEsDrained.Add(2)
	m.WaitersParked.Add(4)
	m.WaitersResumed.Add(4)
	m.IdleTransitions.Add(1)

	snap := m.Snapshot()
	require.Equal(t, uint64(3), snap.TasksSubmitted)
	require.Equal(t, uint64(1), snap.TasksInlineResumed)
	require.Equal(t, uint64(1), snap.TasksOverflowed)
	require.Equal(t, uint64(2), snap.CQEsDrained)
	require.Equal(t, uint64(4), snap.WaitersParked)
	require.Equal(t, uint64(4), snap.WaitersResumed)
	require.Equal(t, uint64(1), snap.IdleTransitions)
}

func TestMetricsLatency(t *testing.T) {
	m := NewMetrics()

	m.RecordLatency(1_000_000) // 1ms
	m.RecordLatency(2_000_000) // 2ms

	snap := m.Snapshot()
	require.Equal(t, uint64(1_500_000), snap.AvgLatencyNs)
}

func TestMetricsUptime(t *testing.T) {
	m := NewMetrics()

	time.Sleep(10 * time.Millisecond)
	snap := m.Snapshot()
	require.GreaterOrEqual(t, snap.UptimeNs, uint64(10*time.Millisecond))

	m.Stop()
	time.Sleep(5 * time.Millisecond)
	snap2 := m.Snapshot()
	require.LessOrEqual(t, snap2.UptimeNs, snap.UptimeNs+uint64(2*time.Millisecond))
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.TasksSubmitted.Add(5)
	m.RecordLatency(1_000_000)

	require.NotZero(t, m.Snapshot().TasksSubmitted)

	m.Reset()

	snap := m.Snapshot()
	require.Zero(t, snap.TasksSubmitted)
	require.Zero(t, snap.AvgLatencyNs)
}

func TestObserverForwarding(t *testing.T) {
	noop := &NoOpObserver{}
	noop.ObserveTaskSubmitted()
	noop.ObserveTaskExecuted(1000)

	m := NewMetrics()
	obs := NewMetricsObserver(m)

	obs.ObserveTaskSubmitted()
	obs.ObserveTaskSubmitted()
	obs.ObserveTaskExecuted(500_000)
	obs.ObserveCQEDrained()
	obs.ObserveWaiterParked()
	obs.ObserveWaiterResumed()
	obs.ObserveIdleTransition()

	snap := m.Snapshot()
	require.Equal(t, uint64(2), snap.TasksSubmitted)
	require.Equal(t, uint64(1), snap.TasksExecuted)
	require.Equal(t, uint64(1), snap.CQEsDrained)
	require.Equal(t, uint64(1), snap.WaitersParked)
	require.Equal(t, uint64(1), snap.WaitersResumed)
	require.Equal(t, uint64(1), snap.IdleTransitions)
}

func TestMetricsHistogramPercentiles(t *testing.T) {
	m := NewMetrics()

	for i := 0; i < 50; i++ {
		m.RecordLatency(500_000) // 500us
	}
	for i := 0; i < 49; i++ {
		m.RecordLatency(5_000_000) // 5ms
	}
	m.RecordLatency(50_000_000) // 50ms

	snap := m.Snapshot()
	require.GreaterOrEqual(t, snap.LatencyP50Ns, uint64(100_000))
	require.LessOrEqual(t, snap.LatencyP50Ns, uint64(1_000_000))
	require.GreaterOrEqual(t, snap.LatencyP99Ns, uint64(5_000_000))
	require.LessOrEqual(t, snap.LatencyP99Ns, uint64(100_000_000))
}
