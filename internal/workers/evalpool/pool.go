package evalpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool runs per-item work over a bounded number of goroutines.
type Pool struct {
	workers int
}

// New returns a pool running at most workers tasks at once. Values below one
// run tasks one at a time.
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers}
}

func (p *Pool) Workers() int { return p.workers }

// Run calls fn for every index in [0, n). The first error cancels the
// context handed to the remaining tasks and is returned once all started
// tasks have finished.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Map applies fn to every element of in and returns the results in input
// order.
func Map[In, Out any](ctx context.Context, p *Pool, in []In, fn func(context.Context, In) (Out, error)) ([]Out, error) {
	out := make([]Out, len(in))
	err := p.Run(ctx, len(in), func(ctx context.Context, i int) error {
		v, err := fn(ctx, in[i])
		if err != nil {
			return err
		}
		out[i] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
