package render

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrQueueFull is returned when every queue slot is taken
	ErrQueueFull = errors.New("render queue is full")

	// ErrQueueTimeout is returned when the caller gave up while queued
	ErrQueueTimeout = errors.New("queue wait timeout")
)

// capturer is the part of Renderer used by the queue
type capturer interface {
	Capture(ctx context.Context, rawURL string) (string, error)
	Close()
}

// Queue serializes captures onto a fixed number of workers so bursts wait
// for a browser instead of failing fast
type Queue struct {
	base      capturer
	queue     chan *queueRequest
	waitGroup sync.WaitGroup
	closeOnce sync.Once
}

type queueRequest struct {
	ctx    context.Context
	url    string
	result chan captureResult
}

type captureResult struct {
	html string
	err  error
}

// NewQueue creates a queued renderer with one worker per pool slot
func NewQueue(opts Options, queueSize int) *Queue {
	if opts.PoolSize <= 0 {
		opts.PoolSize = 2
	}
	return newQueue(New(opts), opts.PoolSize, queueSize)
}

func newQueue(base capturer, workers, queueSize int) *Queue {
	if queueSize <= 0 {
		queueSize = 16
	}
	q := &Queue{
		base:  base,
		queue: make(chan *queueRequest, queueSize),
	}

	for i := 0; i < workers; i++ {
		q.waitGroup.Add(1)
		go q.worker()
	}
	return q
}

// Capture adds the request to the queue and waits for its result
func (q *Queue) Capture(ctx context.Context, rawURL string) (string, error) {
	if err := validateURL(rawURL); err != nil {
		return "", err
	}

	req := &queueRequest{
		ctx:    ctx,
		url:    rawURL,
		result: make(chan captureResult, 1),
	}

	select {
	case q.queue <- req:
	case <-ctx.Done():
		return "", ctx.Err()
	default:
		return "", ErrQueueFull
	}

	select {
	case res := <-req.result:
		return res.html, res.err
	case <-ctx.Done():
		return "", ErrQueueTimeout
	}
}

// worker processes requests from the queue
func (q *Queue) worker() {
	defer q.waitGroup.Done()

	for req := range q.queue {
		// Cancelled while queued
		if err := req.ctx.Err(); err != nil {
			req.result <- captureResult{err: err}
			continue
		}

		html, err := q.base.Capture(req.ctx, req.url)
		req.result <- captureResult{html: html, err: err}
	}
}

// Stats returns current queue length and capacity
func (q *Queue) Stats() (queued, capacity int) {
	return len(q.queue), cap(q.queue)
}

// Close drains the workers and shuts down the browsers
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		close(q.queue)
		q.waitGroup.Wait()
		q.base.Close()
	})
}
