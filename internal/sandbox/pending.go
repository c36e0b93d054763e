package sandbox

import "context"

// Pending is a submitted snippet whose reply has not been collected yet.
type Pending struct {
	done chan struct{}
	exec *Execution
	err  error
}

// Submit starts req on ex in the background and returns immediately.
// Cancelling ctx abandons the call; what the sandbox already did stays done.
func Submit(ctx context.Context, ex Executor, req Request) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.exec, p.err = ex.ExecuteCode(ctx, req)
	}()
	return p
}

// Done is closed once the reply is available.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the reply arrives or ctx ends.
func (p *Pending) Wait(ctx context.Context) (*Execution, error) {
	select {
	case <-p.done:
		return p.exec, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
