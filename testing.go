package coro

import "sync"

// RecordingObserver is a test double implementing Observer, tracking call
// counts under a mutex for assertion in tests — the same shape as the
// teacher's MockBackend call-count tracking (testing.go), re-themed from
// backend I/O calls to runtime events.
type RecordingObserver struct {
	mu sync.RWMutex

	tasksSubmitted     int
	tasksInlineResumed int
	tasksOverflowed    int
	tasksExecuted      int
	cqesDrained        int
	waitersParked      int
	waitersResumed     int
	idleTransitions    int

	lastExecLatencyNs uint64
}

// NewRecordingObserver constructs an empty RecordingObserver.
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{}
}

func (o *RecordingObserver) ObserveTaskSubmitted() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tasksSubmitted++
}

func (o *RecordingObserver) ObserveTaskInlineResumed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tasksInlineResumed++
}

func (o *RecordingObserver) ObserveTaskOverflowed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tasksOverflowed++
}

func (o *RecordingObserver) ObserveTaskExecuted(latencyNs uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tasksExecuted++
	o.lastExecLatencyNs = latencyNs
}

func (o *RecordingObserver) ObserveCQEDrained() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cqesDrained++
}

func (o *RecordingObserver) ObserveWaiterParked() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.waitersParked++
}

func (o *RecordingObserver) ObserveWaiterResumed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.waitersResumed++
}

func (o *RecordingObserver) ObserveIdleTransition() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.idleTransitions++
}

// CallCounts returns the number of times each Observe method has been
// called, keyed by event name.
func (o *RecordingObserver) CallCounts() map[string]int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return map[string]int{
		"tasks_submitted":      o.tasksSubmitted,
		"tasks_inline_resumed": o.tasksInlineResumed,
		"tasks_overflowed":     o.tasksOverflowed,
		"tasks_executed":       o.tasksExecuted,
		"cqes_drained":         o.cqesDrained,
		"waiters_parked":       o.waitersParked,
		"waiters_resumed":      o.waitersResumed,
		"idle_transitions":     o.idleTransitions,
	}
}

// Reset clears all recorded counts.
func (o *RecordingObserver) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.tasksSubmitted = 0
	o.tasksInlineResumed = 0
	o.tasksOverflowed = 0
	o.tasksExecuted = 0
	o.cqesDrained = 0
	o.waitersParked = 0
	o.waitersResumed = 0
	o.idleTransitions = 0
	o.lastExecLatencyNs = 0
}

var _ Observer = (*RecordingObserver)(nil)
