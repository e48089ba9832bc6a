package filter

import (
	"context"
	"sync"
)

// Deferred completes when an asynchronous row update has been applied or
// discarded.
type Deferred struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newDeferred() *Deferred {
	return &Deferred{done: make(chan struct{})}
}

func completedDeferred(err error) *Deferred {
	d := newDeferred()
	d.finish(err)
	return d
}

func (d *Deferred) finish(err error) {
	d.once.Do(func() {
		d.err = err
		close(d.done)
	})
}

// Done is closed on completion
func (d *Deferred) Done() <-chan struct{} {
	return d.done
}

// Err returns the completion error. Only meaningful after Done is closed.
func (d *Deferred) Err() error {
	select {
	case <-d.done:
		return d.err
	default:
		return nil
	}
}

// Wait blocks until completion or until ctx is done
func (d *Deferred) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		return d.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
