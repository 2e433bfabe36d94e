package coro

import (
	"runtime"
	"strconv"
	"sync"
)

// goroutineID extracts the numeric id of the calling goroutine from the
// runtime's stack trace header ("goroutine 123 [running]:"). Go has no
// native thread-local storage; this is the standard zero-dependency
// substitute, and it is exact: the id is stable for the lifetime of the
// goroutine.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]

	const prefix = "goroutine "
	if len(b) <= len(prefix) {
		return -1
	}
	b = b[len(prefix):]

	end := 0
	for end < len(b) && b[end] != ' ' {
		end++
	}

	id, err := strconv.ParseInt(string(b[:end]), 10, 64)
	if err != nil {
		return -1
	}
	return id
}

// localInfo is the (ctx, engine) pair a worker thread publishes for the
// duration of its run.
type localInfo struct {
	ctx *Context
	eng *Engine
}

var (
	localMu    sync.RWMutex
	localSlots = make(map[int64]localInfo)
)

// bindLocal publishes (ctx, eng) into the calling goroutine's slot.
func bindLocal(ctx *Context, eng *Engine) {
	gid := goroutineID()
	localMu.Lock()
	localSlots[gid] = localInfo{ctx: ctx, eng: eng}
	localMu.Unlock()
}

// unbindLocal clears the calling goroutine's slot.
func unbindLocal() {
	gid := goroutineID()
	localMu.Lock()
	delete(localSlots, gid)
	localMu.Unlock()
}

func currentLocal() (localInfo, bool) {
	gid := goroutineID()
	localMu.RLock()
	info, ok := localSlots[gid]
	localMu.RUnlock()
	return info, ok
}

// CurrentContext returns the Context owning the calling goroutine, or nil if
// the calling goroutine is not a worker (or a coroutine body resumed by one).
func CurrentContext() *Context {
	if info, ok := currentLocal(); ok {
		return info.ctx
	}
	return nil
}

// CurrentEngine returns the Engine owning the calling goroutine, or nil
// outside a worker/coroutine-body goroutine.
func CurrentEngine() *Engine {
	if info, ok := currentLocal(); ok {
		return info.eng
	}
	return nil
}
