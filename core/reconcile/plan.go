package reconcile

import (
	"context"
	"fmt"

	"catalog-sync/core/catalog"
)

// Plan is the diff of one kind by natural key.
type Plan struct {
	// Missing is C \ R: catalog rows with no live counterpart.
	Missing []catalog.Row
	// New is R \ C: live rows with no catalog counterpart. Duplicates keep their first occurrence.
	New []catalog.Row
}

// Diff compares live rows against catalog rows. Both sides must be catalog-shaped so the
// descriptor's key applies to either. Order follows the input.
func Diff(d Descriptor, remote, current []catalog.Row) Plan {
	remoteKeys := make(map[string]struct{}, len(remote))
	for _, r := range remote {
		remoteKeys[d.Key(r)] = struct{}{}
	}
	currentKeys := make(map[string]struct{}, len(current))
	for _, c := range current {
		currentKeys[d.Key(c)] = struct{}{}
	}

	var plan Plan
	for _, c := range current {
		if _, ok := remoteKeys[d.Key(c)]; !ok {
			plan.Missing = append(plan.Missing, c)
		}
	}
	seen := make(map[string]struct{})
	for _, r := range remote {
		k := d.Key(r)
		if _, ok := currentKeys[k]; ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		plan.New = append(plan.New, r)
	}
	return plan
}

// Apply commits the new rows of a plan in one batch. Nothing is written when the batch fails.
func Apply(ctx context.Context, store Store, d Descriptor, plan Plan) (int, error) {
	if len(plan.New) == 0 {
		return 0, nil
	}
	values := make([][]any, len(plan.New))
	for i, row := range plan.New {
		vals := make([]any, len(d.InsertColumns))
		for j, col := range d.InsertColumns {
			vals[j] = row[col]
		}
		values[i] = vals
	}
	if err := store.InsertBatch(ctx, d.Table, d.InsertColumns, values); err != nil {
		return 0, fmt.Errorf("failed to record new %s objects: %w", d.Kind, err)
	}
	return len(plan.New), nil
}
