package render

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type blockingCapturer struct {
	release chan struct{}
	mu      sync.Mutex
	calls   int
	closed  bool
}

func (b *blockingCapturer) Capture(ctx context.Context, rawURL string) (string, error) {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	select {
	case <-b.release:
		return "<html>" + rawURL + "</html>", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (b *blockingCapturer) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
}

func TestQueueCapture(t *testing.T) {
	base := &blockingCapturer{release: make(chan struct{})}
	close(base.release)
	q := newQueue(base, 2, 4)

	html, err := q.Capture(context.Background(), "https://a.test/")
	if err != nil || html != "<html>https://a.test/</html>" {
		t.Fatalf("Capture = %q, %v", html, err)
	}

	if _, err := q.Capture(context.Background(), "about:blank"); !errors.Is(err, ErrInvalidURL) {
		t.Errorf("err = %v, want ErrInvalidURL", err)
	}

	q.Close()
	q.Close()
	if !base.closed {
		t.Error("Close should close the underlying renderer")
	}
}

func TestQueueFull(t *testing.T) {
	base := &blockingCapturer{release: make(chan struct{})}
	q := newQueue(base, 1, 1)
	defer q.Close()
	defer close(base.release)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// One request busy in the worker
	go q.Capture(ctx, "https://a.test/1")
	waitFor(t, func() bool {
		base.mu.Lock()
		defer base.mu.Unlock()
		return base.calls == 1
	})

	// One request waiting in the queue
	go q.Capture(ctx, "https://a.test/2")
	waitFor(t, func() bool {
		queued, _ := q.Stats()
		return queued == 1
	})

	if _, err := q.Capture(ctx, "https://a.test/3"); !errors.Is(err, ErrQueueFull) {
		t.Errorf("err = %v, want ErrQueueFull", err)
	}
}

func TestQueueTimeout(t *testing.T) {
	base := &blockingCapturer{release: make(chan struct{})}
	q := newQueue(base, 1, 2)
	defer q.Close()
	defer close(base.release)

	// Keep the only worker busy so the next request stays queued
	go q.Capture(context.Background(), "https://a.test/busy")
	waitFor(t, func() bool {
		base.mu.Lock()
		defer base.mu.Unlock()
		return base.calls == 1
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := q.Capture(ctx, "https://a.test/"); !errors.Is(err, ErrQueueTimeout) {
		t.Errorf("err = %v, want ErrQueueTimeout", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met")
}
