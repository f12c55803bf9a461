package account

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestKeyLock(t *testing.T) {
	l := NewKeyLock()

	var inside, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := l.Lock("Al-Noor")
			n := atomic.AddInt32(&inside, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	if peak != 1 {
		t.Fatalf("expected one holder at a time, saw %d", peak)
	}
	if l.size() != 0 {
		t.Fatalf("expected empty table, got %d keys", l.size())
	}

	// разные ключи не блокируют друг друга
	a := l.Lock("a")
	b := l.Lock("b")
	b()
	a()
}
