package loop

import (
	"context"
	"testing"
	"time"
)

// startLoop runs a fresh Loop on its own goroutine and stops it on cleanup.
func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := New(Options{Workers: 4})
	go func() { _ = l.Run(context.Background()) }()
	t.Cleanup(func() {
		l.Stop()
		select {
		case <-l.Done():
		case <-time.After(2 * time.Second):
			t.Errorf("loop did not stop")
		}
	})
	return l
}

// waitFor fails the test when ch is not closed within d.
func waitFor(t *testing.T, ch <-chan struct{}, d time.Duration, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(d):
		t.Fatalf("timeout waiting for %s", what)
	}
}

// testContext stands in for t.Context (Go 1.24+): a context canceled when the test is cleaned up.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
