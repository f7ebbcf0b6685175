package batch

import (
	"golang.org/x/sync/errgroup"
)

// Map runs fn for every index in [0, n) on at most workers goroutines and
// collects the kept results in index order, so output order never depends
// on scheduling. fn reports keep=false to drop an entity.
func Map[T any](n, workers int, fn func(i int) (result T, keep bool)) []T {
	if workers < 1 {
		workers = 1
	}

	type slot struct {
		value T
		keep  bool
	}
	slots := make([]slot, n)

	var g errgroup.Group
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			v, keep := fn(i)
			slots[i] = slot{value: v, keep: keep}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]T, 0, n)
	for _, s := range slots {
		if s.keep {
			out = append(out, s.value)
		}
	}
	return out
}
