package replication

import (
	"context"
	"sync"

	"github.com/retailsync/catalog-sync/internal/core/product"
	"github.com/retailsync/catalog-sync/internal/core/sourceclient"
)

const variationFetchGroupSize = 10

// fetchVariationsInGroups fans variation fetches out in groups of
// variationFetchGroupSize parent-ids at a time: start up to 10 fetches,
// wait for all, hand the group's results to onGroup (which is expected to
// write them in one cache transaction), then proceed to the next group.
// This bounds concurrent upstream requests at 10 and
// guarantees each transaction sees a consistent set of variations.
func fetchVariationsInGroups(ctx context.Context, source *sourceclient.Client, parentIDs []int64, onGroup func([]product.Product) error) error {
	for start := 0; start < len(parentIDs); start += variationFetchGroupSize {
		end := start + variationFetchGroupSize
		if end > len(parentIDs) {
			end = len(parentIDs)
		}
		group := parentIDs[start:end]

		results := make([][]product.Product, len(group))
		errs := make([]error, len(group))

		var wg sync.WaitGroup
		for i, parentID := range group {
			wg.Add(1)
			go func(i int, parentID int64) {
				defer wg.Done()
				variations, err := source.FetchVariations(ctx, parentID)
				results[i] = variations
				errs[i] = err
			}(i, parentID)
		}
		wg.Wait()

		var flat []product.Product
		for i := range group {
			if errs[i] != nil {
				return errs[i]
			}
			flat = append(flat, results[i]...)
		}

		if err := onGroup(flat); err != nil {
			return err
		}
	}
	return nil
}
