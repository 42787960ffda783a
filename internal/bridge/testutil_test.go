package bridge

import (
	"context"
	"testing"
	"time"

	"llamabridge/internal/loop"
	"llamabridge/internal/resource"
)

func startBridge(t *testing.T) (*Bridge, *loop.Loop) {
	t.Helper()
	l := loop.New(loop.Options{Workers: 4})
	go func() { _ = l.Run(context.Background()) }()
	b := New(l, Options{})
	t.Cleanup(func() {
		b.Close()
		l.Stop()
		select {
		case <-l.Done():
		case <-time.After(2 * time.Second):
			t.Errorf("loop did not stop")
		}
		l.Workers().Wait()
	})
	return b, l
}

func testManager() *resource.Static {
	return resource.NewStatic(map[string][]byte{
		"hello.txt": []byte("Hello, world!"),
		"empty.txt": {},
	})
}

// onLoop runs fn as a loop task and waits for it to return.
func onLoop(t *testing.T, l *loop.Loop, fn func()) {
	t.Helper()
	done := make(chan struct{})
	if err := l.Post(func(error) { defer close(done); fn() }); err != nil {
		t.Fatalf("post: %v", err)
	}
	waitFor(t, done, "loop task")
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for %s", what)
	}
}
