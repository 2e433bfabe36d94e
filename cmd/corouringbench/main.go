// Command corouringbench drives a Scheduler with a configurable number of
// contexts, fans out nop coroutines and nop io_uring submissions across
// them, and reports elapsed time, executed-task and drained-CQE counts, and
// throughput.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"sync"
	"syscall"
	"time"

	coro "github.com/behrlich/corouring"
	"github.com/behrlich/corouring/internal/logging"
)

func main() {
	var (
		ctxCount = flag.Int("contexts", runtime.NumCPU(), "number of worker contexts")
		tasks    = flag.Int("tasks", 1000, "number of nop coroutines to submit")
		ioOps    = flag.Int("io", 200, "number of nop io_uring submissions")
		verbose  = flag.Bool("v", false, "verbose logging")
		dispatch = flag.String("dispatch", "round_robin", "dispatch strategy: round_robin or none")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	cfg := coro.DefaultConfig()
	cfg.CtxCount = *ctxCount
	if *dispatch == "none" {
		cfg.DispatchStrategy = coro.DispatchNone
	}

	sched := coro.NewScheduler(cfg.SchedulerConfig())

	logger.Info("starting bench", "contexts", len(sched.Contexts()), "tasks", *tasks, "io", *ioOps)

	var wg sync.WaitGroup
	wg.Add(*tasks + *ioOps)

	start := time.Now()

	for i := 0; i < *tasks; i++ {
		h := coro.NewFuncHandle(func() { wg.Done() })
		sched.Submit(h)
	}

	for i := 0; i < *ioOps; i++ {
		co := coro.NewCoroutine(func(y *coro.Yielder) {
			ctx := coro.CurrentContext()
			if ctx == nil {
				wg.Done()
				return
			}
			if _, err := coro.SubmitNop(y, ctx.Engine().Ring()); err != nil {
				logger.Error("nop submit failed", "error", err)
			}
			wg.Done()
		})
		sched.Submit(co)
	}

	done := make(chan struct{})
	go func() {
		sched.Loop()
		wg.Wait()
		close(done)
	}()

	stackDumpCh := make(chan os.Signal, 1)
	signal.Notify(stackDumpCh, syscall.SIGUSR1)
	go func() {
		for range stackDumpCh {
			buf := make([]byte, 1<<20)
			n := runtime.Stack(buf, true)
			fmt.Fprintf(os.Stderr, "=== GOROUTINE STACK DUMP ===\n%s\n", buf[:n])
			pprof.Lookup("goroutine").WriteTo(os.Stderr, 2)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-done:
		elapsed := time.Since(start)
		report(sched, elapsed)
	case <-sigCh:
		logger.Info("interrupted, shutting down")
		os.Exit(1)
	}
}

func report(sched *coro.Scheduler, elapsed time.Duration) {
	var agg coro.MetricsSnapshot
	for _, ctx := range sched.Contexts() {
		snap := ctx.Engine().Metrics().Snapshot()
		agg.TasksExecuted += snap.TasksExecuted
		agg.CQEsDrained += snap.CQEsDrained
		agg.TasksSubmitted += snap.TasksSubmitted
	}

	fmt.Printf("elapsed: %s\n", elapsed)
	fmt.Printf("tasks executed: %d\n", agg.TasksExecuted)
	fmt.Printf("cqes drained: %d\n", agg.CQEsDrained)
	if elapsed > 0 {
		fmt.Printf("throughput: %.0f tasks/sec\n", float64(agg.TasksExecuted)/elapsed.Seconds())
	}

	if agg.TasksExecuted == 0 {
		log.Println("no tasks executed")
	}
}
