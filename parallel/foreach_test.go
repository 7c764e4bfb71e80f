package parallel

import (
	"sync/atomic"
	"testing"
)

// every index visited exactly once
func TestForEach(t *testing.T) {
	const n = 1000
	var visits [n]int32
	ForEach(n, 4, func(i int) {
		atomic.AddInt32(&visits[i], 1)
	})
	for i, v := range visits {
		if v != 1 {
			t.Errorf("index %d visited %d times", i, v)
		}
	}
	ForEach(0, 4, func(i int) {
		t.Error("body called for empty range")
	})
}

func TestForEachChunk(t *testing.T) {
	const n = 1003
	var visits [n]int32
	ForEachChunk(n, 7, func(lo, hi int) {
		if lo >= hi || hi > n {
			t.Errorf("bad chunk [%d,%d)", lo, hi)
		}
		for i := lo; i < hi; i++ {
			atomic.AddInt32(&visits[i], 1)
		}
	})
	for i, v := range visits {
		if v != 1 {
			t.Errorf("index %d visited %d times", i, v)
		}
	}
	// more workers than items still covers the range
	var count int32
	ForEachChunk(3, 64, func(lo, hi int) {
		atomic.AddInt32(&count, int32(hi-lo))
	})
	if count != 3 {
		t.Errorf("short range covered %d of 3", count)
	}
}
