package textio

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// guard admits one operation at a time on a Reader or Writer. It never
// blocks: a second caller is turned away with ErrOperationInProgress.
type guard struct {
	sem *semaphore.Weighted
}

func newGuard() guard {
	return guard{sem: semaphore.NewWeighted(1)}
}

func (g guard) enter() error {
	if !g.sem.TryAcquire(1) {
		return ErrOperationInProgress
	}
	return nil
}

func (g guard) leave() {
	g.sem.Release(1)
}

// Pending is the result of an asynchronous operation.
//
// The operation holds its Reader or Writer until it completes, so any
// other call on that instance made before Done is closed fails with
// ErrOperationInProgress.
type Pending[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Done returns a channel that is closed when the operation completes.
func (p *Pending[T]) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the operation completes or ctx is done. Giving up on
// the wait does not cancel the operation; cancel the context passed to
// the async call for that.
func (p *Pending[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.done:
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, canceled(ctx, "wait")
	}
}

// Result blocks until the operation completes and returns its outcome.
func (p *Pending[T]) Result() (T, error) {
	<-p.done
	return p.val, p.err
}

// failed returns an already completed Pending carrying err.
func failed[T any](err error) *Pending[T] {
	p := &Pending[T]{done: make(chan struct{}), err: err}
	close(p.done)
	return p
}

// goAsync runs fn on a new goroutine. The caller must already hold g;
// it is released before Done is closed.
func goAsync[T any](g guard, fn func() (T, error)) *Pending[T] {
	p := &Pending[T]{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		defer g.leave()
		p.val, p.err = fn()
	}()
	return p
}
