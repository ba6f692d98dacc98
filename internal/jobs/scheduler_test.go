package jobs

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSchedulerRunsAllTasks(t *testing.T) {
	s := New("test", 4)
	defer s.Close()

	var ran atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 500; i++ {
		wg.Add(1)
		s.Enqueue(func() {
			defer wg.Done()
			ran.Add(1)
		})
	}
	wg.Wait()
	if got := ran.Load(); got != 500 {
		t.Fatalf("expected 500 tasks, got %d", got)
	}
	if s.Pending() != 0 {
		t.Fatalf("expected empty queue, got %d", s.Pending())
	}
}

func TestSchedulerClampsWorkerCount(t *testing.T) {
	s := New("clamp", 0)
	defer s.Close()
	if s.Workers() != 1 {
		t.Fatalf("expected 1 worker, got %d", s.Workers())
	}
	if s.Name() != "clamp" {
		t.Fatalf("unexpected name %q", s.Name())
	}
	if WorkersFor(3) != 3 || WorkersFor(0) < 1 {
		t.Fatal("WorkersFor returned an unexpected count")
	}
}

func TestSchedulerSingleWorkerIsFIFO(t *testing.T) {
	s := New("fifo", 1)
	defer s.Close()

	var mu sync.Mutex
	var order []int
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		s.Enqueue(func() {
			defer wg.Done()
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		})
	}
	wg.Wait()
	for i, v := range order {
		if v != i {
			t.Fatalf("task %d ran at position %d", v, i)
		}
	}
}

func TestSchedulerCloseDoesNotFlush(t *testing.T) {
	s := New("shutdown", 1)

	release := make(chan struct{})
	started := make(chan struct{})
	s.Enqueue(func() {
		close(started)
		<-release
	})
	<-started

	var ran atomic.Int64
	for i := 0; i < 10; i++ {
		s.Enqueue(func() { ran.Add(1) })
	}
	waitFor(t, time.Second, func() bool { return s.Pending() == 10 })

	done := make(chan struct{})
	go func() {
		s.Close()
		close(done)
	}()
	waitFor(t, time.Second, func() bool { return s.Pending() == 0 })
	close(release)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
	if got := ran.Load(); got != 0 {
		t.Fatalf("queued tasks should be discarded, %d ran", got)
	}

	s.Enqueue(func() { ran.Add(1) })
	if s.Pending() != 0 {
		t.Fatal("enqueue after close should be dropped")
	}
	s.Close()
}
