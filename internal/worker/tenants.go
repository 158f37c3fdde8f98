package worker

import (
	"context"
	"sort"
)

// CombinedTenantSource unions tenant enumerations from several repositories,
// so the scan covers tenants that only have alerts as well as those that
// only have checks or schedules.
type CombinedTenantSource struct {
	sources []TenantSource
}

// NewCombinedTenantSource creates a tenant source over all given sources
func NewCombinedTenantSource(sources ...TenantSource) *CombinedTenantSource {
	return &CombinedTenantSource{sources: sources}
}

// TenantIDs returns the sorted union of all source tenant sets
func (c *CombinedTenantSource) TenantIDs(ctx context.Context) ([]int64, error) {
	seen := make(map[int64]bool)
	for _, src := range c.sources {
		ids, err := src.TenantIDs(ctx)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			seen[id] = true
		}
	}

	result := make([]int64, 0, len(seen))
	for id := range seen {
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}
