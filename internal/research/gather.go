package research

import (
	"context"
	"fmt"
	"sync"
)

// gather launches one goroutine per input, waits for all of them, and
// returns results and errors keyed by input index. Exactly one of
// results[i] / errs[i] is meaningful for each i, so recombination is
// deterministic regardless of completion order. A panic in a task is
// captured as that task's error; it never cancels siblings.
func gather[I, O any](ctx context.Context, inputs []I, fn func(ctx context.Context, i int, in I) (O, error)) ([]O, []error) {
	results := make([]O, len(inputs))
	errs := make([]error, len(inputs))

	var wg sync.WaitGroup
	for i, in := range inputs {
		wg.Add(1)
		go func(i int, in I) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("task %d panicked: %v", i, r)
				}
			}()
			results[i], errs[i] = fn(ctx, i, in)
		}(i, in)
	}
	wg.Wait()

	return results, errs
}
