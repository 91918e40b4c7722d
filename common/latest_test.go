package common

import (
	"sync"
	"testing"
)

func TestLatestSingleSlot(t *testing.T) {
	var l Latest[int]
	if _, ok := l.Take(); ok {
		t.Fatal("empty mailbox reported a value")
	}
	l.Publish(1)
	l.Publish(2)
	l.Publish(3)
	v, ok := l.Take()
	if !ok || v != 3 {
		t.Errorf("Take = %v, %v; want 3, true", v, ok)
	}
	if l.Dropped() != 2 {
		t.Errorf("dropped = %v, want 2", l.Dropped())
	}
	if _, ok := l.Take(); ok {
		t.Error("value consumed twice")
	}
}

func TestLatestConcurrent(t *testing.T) {
	var l Latest[int]
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 1000; i++ {
			l.Publish(i)
		}
	}()
	last := 0
	for i := 0; i < 1000; i++ {
		if v, ok := l.Take(); ok {
			if v <= last {
				t.Fatalf("went backwards: %v after %v", v, last)
			}
			last = v
		}
	}
	wg.Wait()
	if v, ok := l.Take(); ok && v != 1000 {
		t.Errorf("final value %v", v)
	}
}
