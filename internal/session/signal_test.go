package session

import (
	"context"
	"testing"
	"time"

	"github.com/ChizhovVadim/nnviz/internal/ml"
	"github.com/pkg/errors"
)

func TestSignalQueueOrder(t *testing.T) {
	var q = newSignalQueue()
	var sent = []Signal{Pause, Resume, Pause, Stop}
	for _, s := range sent {
		if err := q.Send(s); err != nil {
			t.Fatal(err)
		}
	}
	for i, want := range sent {
		var got, ok = q.TryRecv()
		if !ok || got != want {
			t.Fatalf("signal %v: got %v want %v", i, got, want)
		}
	}
	if _, ok := q.TryRecv(); ok {
		t.Error("queue not empty")
	}
}

func TestSignalQueueRecvBlocks(t *testing.T) {
	var q = newSignalQueue()
	var received = make(chan Signal, 1)
	go func() {
		var s, err = q.Recv(context.Background())
		if err != nil {
			t.Error(err)
		}
		received <- s
	}()
	select {
	case s := <-received:
		t.Fatal("received before send", s)
	case <-time.After(20 * time.Millisecond):
	}
	if err := q.Send(Resume); err != nil {
		t.Fatal(err)
	}
	select {
	case s := <-received:
		if s != Resume {
			t.Error(s)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout")
	}
}

func TestSignalQueueRecvCancel(t *testing.T) {
	var q = newSignalQueue()
	var ctx, cancel = context.WithCancel(context.Background())
	cancel()
	if _, err := q.Recv(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}
}

func TestSignalQueueClosed(t *testing.T) {
	var q = newSignalQueue()
	if err := q.Send(Pause); err != nil {
		t.Fatal(err)
	}
	q.Close()
	if _, ok := q.TryRecv(); ok {
		t.Error("closed queue kept signals")
	}
	if err := q.Send(Stop); !errors.Is(err, ml.ErrConcurrency) {
		t.Errorf("got %v", err)
	}
}
