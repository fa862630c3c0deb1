// Package parallel provides row-range parallelism whose results do not depend
// on the number of workers.
package parallel

import (
	"runtime"
	"sync"
)

// DefaultChunkSize is the row block used by callers that reduce over samples.
const DefaultChunkSize = 64

// Workers resolves a requested worker count. Values <= 0 mean one worker per CPU.
func Workers(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// NumChunks returns how many chunks of chunkSize cover n items.
func NumChunks(n, chunkSize int) int {
	if n <= 0 {
		return 0
	}
	if chunkSize <= 0 {
		return 1
	}
	return (n + chunkSize - 1) / chunkSize
}

// ReduceChunks splits [0, n) into consecutive chunks of chunkSize items and calls
// fn(chunk, start, end) for every chunk on up to workers goroutines.
// The chunk boundaries depend only on n and chunkSize, so a caller that stores
// one partial result per chunk index and sums them in index order gets the same
// floating point result for every worker count.
// It returns the number of chunks.
func ReduceChunks(n, chunkSize, workers int, fn func(chunk, start, end int)) int {
	chunks := NumChunks(n, chunkSize)
	if chunks == 0 {
		return 0
	}
	if chunkSize <= 0 {
		chunkSize = n
	}
	workers = Workers(workers)
	if workers > chunks {
		workers = chunks
	}

	bounds := func(c int) (int, int) {
		start := c * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		return start, end
	}

	if workers == 1 {
		for c := 0; c < chunks; c++ {
			s, e := bounds(c)
			fn(c, s, e)
		}
		return chunks
	}

	jobs := make(chan int, chunks)
	for c := 0; c < chunks; c++ {
		jobs <- c
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				s, e := bounds(c)
				fn(c, s, e)
			}
		}()
	}
	wg.Wait()
	return chunks
}

// Parallelize divides items into one contiguous range per worker and executes fn
// for each range (start, end) in parallel. Use it only when ranges write
// disjoint outputs and nothing is summed across ranges.
func Parallelize(items, workers int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := Workers(workers)
	if numWorkers > items {
		numWorkers = items // No need for more workers than items
	}
	if numWorkers == 1 {
		fn(0, items)
		return
	}

	// ceiling division
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn sequentially when items <= threshold and
// falls back to Parallelize otherwise.
func ParallelizeWithThreshold(items, threshold, workers int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}
	Parallelize(items, workers, fn)
}
