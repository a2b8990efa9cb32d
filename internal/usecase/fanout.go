package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/panics"
)

const (
	entityStatusSuccess = "success"
	entityStatusSkipped = "skipped"
)

// EntityOutcome is the per-entity result of a fan-out step.
type EntityOutcome struct {
	Stage  string `json:"stage"`
	Key    string `json:"key"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

type fanoutResult[T any] struct {
	value   T
	outcome EntityOutcome
}

// fanOut runs fetch for every key on an ants pool. A failing or panicking
// entity is reported as skipped; a fatal error or cancelled context aborts
// the whole step. Results keep the order of keys.
func fanOut[K comparable, T any](
	ctx context.Context,
	stage string,
	workers int,
	keys []K,
	fetch func(context.Context, K) (T, error),
) ([]fanoutResult[T], error) {
	results := make([]fanoutResult[T], len(keys))
	if len(keys) == 0 {
		return results, nil
	}

	pool, err := ants.NewPool(normalizeWorkerCount(workers, len(keys)))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		fatalMu  sync.Mutex
		fatalErr error
	)
	for i, key := range keys {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()

			outcome := EntityOutcome{Stage: stage, Key: fmt.Sprint(key), Status: entityStatusSuccess}
			if fetchCtx.Err() != nil {
				outcome.Status = entityStatusSkipped
				outcome.Reason = "cancelled"
				results[i] = fanoutResult[T]{outcome: outcome}
				return
			}

			var (
				value    T
				fetchErr error
			)
			var catcher panics.Catcher
			catcher.Try(func() { value, fetchErr = fetch(fetchCtx, key) })
			if recovered := catcher.Recovered(); recovered != nil {
				fetchErr = errors.Newf("panic: %v", recovered.Value)
			}

			if fetchErr != nil {
				outcome.Status = entityStatusSkipped
				outcome.Reason = fetchErr.Error()
				if isFatal(fetchErr) {
					fatalMu.Lock()
					if fatalErr == nil {
						fatalErr = errors.Wrapf(fetchErr, "%s %v", stage, key)
					}
					fatalMu.Unlock()
					cancel()
				}
			}
			results[i] = fanoutResult[T]{value: value, outcome: outcome}
		}); err != nil {
			wg.Done()
			cancel()
			wg.Wait()
			return nil, fmt.Errorf("submit %s task: %w", stage, err)
		}
	}
	wg.Wait()

	if fatalErr != nil {
		return nil, fatalErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func normalizeWorkerCount(requested, taskCount int) int {
	if requested < 1 {
		requested = 1
	}
	if taskCount > 0 && requested > taskCount {
		return taskCount
	}
	return requested
}
