package coro

import "github.com/behrlich/corouring/internal/uring"

// DispatchStrategy selects a Dispatcher implementation by name.
type DispatchStrategy int

const (
	DispatchRoundRobin DispatchStrategy = iota
	DispatchNone
)

// Config collects every runtime knob: queue capacity, ring depth,
// recursion ceiling, dispatch strategy, cache-line padding hint, and
// context count.
type Config struct {
	QueueCapacity     int
	RingEntries       uint32
	MaxRecursiveDepth int
	DispatchStrategy  DispatchStrategy
	CacheLineSize     int
	CtxCount          int
}

// DefaultConfig returns a Config with the package's Default* constants
// filled in.
func DefaultConfig() Config {
	return Config{
		QueueCapacity:     DefaultQueueCapacity,
		RingEntries:       DefaultRingEntries,
		MaxRecursiveDepth: DefaultMaxRecursiveDepth,
		DispatchStrategy:  DispatchRoundRobin,
		CacheLineSize:     DefaultCacheLineSize,
		CtxCount:          DefaultCtxCount,
	}
}

// NewDispatcher builds the Dispatcher named by cfg.DispatchStrategy.
func (cfg Config) NewDispatcher() Dispatcher {
	switch cfg.DispatchStrategy {
	case DispatchNone:
		return NoneDispatcher{}
	default:
		return &RoundRobinDispatcher{}
	}
}

// SchedulerConfig converts cfg into a SchedulerConfig ready for
// NewScheduler. Context.CPU is set to 0 here; NewScheduler treats any
// non-negative CPU as "pin me, assign my index" (see NewScheduler);
// standalone Contexts built directly should use CPU: -1 to opt out.
func (cfg Config) SchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		CtxCount:   cfg.CtxCount,
		Dispatcher: cfg.NewDispatcher(),
		Context: ContextConfig{
			Engine: EngineConfig{
				QueueCapacity:     cfg.QueueCapacity,
				RingEntries:       cfg.RingEntries,
				MaxRecursiveDepth: cfg.MaxRecursiveDepth,
			},
			Ring: uring.Config{
				Entries:         cfg.RingEntries,
				FixedFDCapacity: 64,
			},
			CPU: 0,
		},
	}
}
