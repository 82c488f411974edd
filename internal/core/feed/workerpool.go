package feed

import (
	"runtime"
	"sync"

	"github.com/retailsync/catalog-sync/internal/core/mapper"
	"github.com/retailsync/catalog-sync/internal/core/product"
)

// rowJob is one CSV row's mapping input: a product (simple, variable
// parent, or variation) and its parent when the row needs one.
type rowJob struct {
	p      product.Product
	parent *product.Product
}

// workerCount sizes the pool for the feed's CSV-row mapping step:
// min(CPU-count, 4, ceil(N/10)).
func workerCount(n int) int {
	if n <= 0 {
		return 1
	}
	w := runtime.NumCPU()
	if w > 4 {
		w = 4
	}
	ceil := (n + 9) / 10
	if w > ceil {
		w = ceil
	}
	if w < 1 {
		w = 1
	}
	return w
}

// mapRowsParallel maps each job to a CSV row, fanning the pure mapping
// work across workerCount(len(jobs)) goroutines. Row order matches job
// order regardless of worker count.
func mapRowsParallel(jobs []rowJob, style string, cfg mapper.Config) [][]string {
	n := len(jobs)
	if n == 0 {
		return nil
	}
	rows := make([][]string, n)

	workers := workerCount(n)
	indices := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				it := mapper.Map(jobs[i].p, jobs[i].parent, style, cfg)
				rows[i] = it.CSVRow()
			}
		}()
	}
	for i := range jobs {
		indices <- i
	}
	close(indices)
	wg.Wait()

	return rows
}
