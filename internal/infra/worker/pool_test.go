package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestPool_RunsAndDrains(t *testing.T) {
	p := NewPool(2, 16, nil)
	p.Start(context.Background())

	var ran atomic.Int32
	for i := 0; i < 10; i++ {
		if err := p.Submit(func(context.Context) error { ran.Add(1); return nil }); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}
	p.Stop()
	if got := ran.Load(); got != 10 {
		t.Fatalf("expected 10 tasks to run before Stop returned, got %d", got)
	}
	if err := p.Submit(func(context.Context) error { return nil }); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
	p.Stop()
}

func TestPool_QueueFull(t *testing.T) {
	p := NewPool(1, 1, nil) // not started: nothing consumes the queue
	if err := p.Submit(func(context.Context) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if err := p.Submit(func(context.Context) error { return nil }); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
	if err := p.Submit(nil); err == nil {
		t.Fatal("nil task must be rejected")
	}
}

func TestPool_TaskErrorsDoNotStopWorkers(t *testing.T) {
	p := NewPool(1, 4, nil)
	p.Start(context.Background())
	var ran atomic.Int32
	_ = p.Submit(func(context.Context) error { return errors.New("boom") })
	_ = p.Submit(func(context.Context) error { ran.Add(1); return nil })
	p.Stop()
	if ran.Load() != 1 {
		t.Fatal("worker should keep going after a failed task")
	}
}

func TestPool_PanicIsRecovered(t *testing.T) {
	p := NewPool(1, 4, nil)
	p.Start(context.Background())
	var ran atomic.Int32
	if err := p.Submit(func(context.Context) error { panic("boom") }); err != nil {
		t.Fatal(err)
	}
	if err := p.Submit(func(context.Context) error { ran.Add(1); return nil }); err != nil {
		t.Fatal(err)
	}
	p.Stop()
	if ran.Load() != 1 {
		t.Fatal("worker should survive a panicking task")
	}
}
