package session

import (
	"context"
	"sync"

	"github.com/ChizhovVadim/nnviz/internal/ml"
	"github.com/pkg/errors"
)

type Signal int

const (
	Pause Signal = iota + 1
	Resume
	Stop
)

func (s Signal) String() string {
	switch s {
	case Pause:
		return "pause"
	case Resume:
		return "resume"
	case Stop:
		return "stop"
	}
	return "unknown"
}

// signalQueue is an unbounded FIFO with a single consumer.
type signalQueue struct {
	mu     sync.Mutex
	items  []Signal
	closed bool
	notify chan struct{}
}

func newSignalQueue() *signalQueue {
	return &signalQueue{
		notify: make(chan struct{}, 1),
	}
}

func (q *signalQueue) Send(s Signal) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return errors.Wrapf(ml.ErrConcurrency, "send %v: training worker has exited", s)
	}
	q.items = append(q.items, s)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return nil
}

func (q *signalQueue) TryRecv() (Signal, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return 0, false
	}
	var s = q.items[0]
	q.items = q.items[1:]
	return s, true
}

// Recv blocks until a signal arrives or ctx is done.
func (q *signalQueue) Recv(ctx context.Context) (Signal, error) {
	for {
		if s, ok := q.TryRecv(); ok {
			return s, nil
		}
		select {
		case <-q.notify:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
}

func (q *signalQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.items = nil
	q.mu.Unlock()
}
