package coro

// Default tuning knobs, re-exported at the package root the way the
// teacher re-exports its internal/constants defaults (constants.go).
const (
	DefaultQueueCapacity     = 1024
	DefaultRingEntries       = 256
	DefaultMaxRecursiveDepth = 64
	DefaultCacheLineSize     = 64
	DefaultCtxCount          = 0 // 0 means runtime.NumCPU()
)
