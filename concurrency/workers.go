// Package concurrency hosts the goroutine-lifecycle helper the planner
// runs its recurring planning-tick and viewpoint-gathering activities on
// (spec.md §5); ingest is driven by the caller, not by a worker here.
package concurrency

import (
	"context"
	"sync"

	goutils "go.viam.com/utils"
)

// Workers is a collection of goroutines that can be stopped together at
// process shutdown. Individual ticks are uninterruptible; only the next
// loop iteration observes cancellation (spec.md §5, "Cancellation").
type Workers interface {
	// Add starts a goroutine for each function, passing it the shared
	// cancellation context. Calling Add after Stop is a no-op.
	Add(funcs ...func(context.Context))
	// Stop cancels the shared context and waits for every goroutine
	// started by Add to return.
	Stop()
	// Context returns the context every worker observes.
	Context() context.Context
}

type workers struct {
	mu         sync.Mutex
	cancelCtx  context.Context
	cancelFunc func()
	wg         sync.WaitGroup
}

// New starts the given functions as goroutines and returns a handle that
// can stop all of them.
func New(funcs ...func(context.Context)) Workers {
	cancelCtx, cancelFunc := context.WithCancel(context.Background())
	w := &workers{cancelCtx: cancelCtx, cancelFunc: cancelFunc}
	w.Add(funcs...)
	return w
}

func (w *workers) Add(funcs ...func(context.Context)) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancelCtx.Err() != nil {
		return
	}

	w.wg.Add(len(funcs))
	for _, f := range funcs {
		f := f
		goutils.PanicCapturingGo(func() {
			defer w.wg.Done()
			f(w.cancelCtx)
		})
	}
}

func (w *workers) Stop() {
	w.mu.Lock()
	w.cancelFunc()
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *workers) Context() context.Context {
	return w.cancelCtx
}
