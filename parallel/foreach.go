// Package parallel contains bounded-concurrency loop helpers used by dataset preprocessing.
package parallel

import (
	"runtime"
	"sync"
)

// ForEach executes a for loop with a limited number of concurrent goroutines.
// Each goroutine processes one integer, from 0 to length.
// A limit <= 0 means one goroutine per CPU.
func ForEach(length, limit int, body func(i int)) {
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	if length <= 0 {
		return
	}

	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	wg.Add(length)

	for i := 0; i < length; i++ {
		sem <- struct{}{} // Acquire semaphore
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			body(i)
		}(i)
	}

	wg.Wait()
}

// ForEachChunk splits [0, length) into at most limit contiguous chunks and runs
// body(lo, hi) for each chunk on its own goroutine. Useful when per-item work is
// tiny (pixel conversions, running sums) and per-item goroutines would dominate.
func ForEachChunk(length, limit int, body func(lo, hi int)) {
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	if length <= 0 {
		return
	}
	if limit > length {
		limit = length
	}

	chunk := (length + limit - 1) / limit
	var wg sync.WaitGroup

	for lo := 0; lo < length; lo += chunk {
		hi := lo + chunk
		if hi > length {
			hi = length
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			body(lo, hi)
		}(lo, hi)
	}

	wg.Wait()
}
