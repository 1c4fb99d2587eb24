package content

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

const DefaultVerifyWorkers = 4

// Verify rehashes every blob and reports those whose content does not match their name, sorted.
// Read errors abort the verification.
func (s *Store) Verify(ctx context.Context, workers int) (mismatches []Hash, err error) {
	if workers < 1 {
		workers = DefaultVerifyWorkers
	}
	var all []Hash
	if err = s.Walk(func(hash Hash) error {
		all = append(all, hash)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("listing blobs failed: %w", err)
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for _, hash := range all {
		hash := hash
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			data, readErr := os.ReadFile(s.blobPath(hash))
			if readErr != nil {
				return fmt.Errorf("reading blob %s failed: %w", hash, readErr)
			}
			if Compute(data) != hash {
				mu.Lock()
				mismatches = append(mismatches, hash)
				mu.Unlock()
			}
			return nil
		})
	}
	if err = group.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(mismatches, func(i, j int) bool { return mismatches[i] < mismatches[j] })
	return mismatches, nil
}
