package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestMemo_LoadsOncePerKey(t *testing.T) {
	memo := NewMemo[int64, string]()
	var calls atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := memo.GetOrLoad(context.Background(), 302, func(context.Context) (string, error) {
				calls.Add(1)
				return "summary-302", nil
			})
			if err != nil || v != "summary-302" {
				t.Errorf("unexpected result %q %v", v, err)
			}
		}()
	}
	wg.Wait()

	if _, err := memo.GetOrLoad(context.Background(), 302, func(context.Context) (string, error) {
		calls.Add(1)
		return "", nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected single load, got %d", got)
	}
}

func TestMemo_DoesNotRememberFailures(t *testing.T) {
	memo := NewMemo[string, int]()
	boom := errors.New("upstream down")

	if _, err := memo.GetOrLoad(context.Background(), "bootstrap", func(context.Context) (int, error) {
		return 0, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
	if memo.Len() != 0 {
		t.Fatalf("failed load must not be cached")
	}

	v, err := memo.GetOrLoad(context.Background(), "bootstrap", func(context.Context) (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("expected retry to succeed, got %d %v", v, err)
	}
}
