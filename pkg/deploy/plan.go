package deploy

import mapset "github.com/deckarep/golang-set/v2"

// Plan is the outcome of diffing desired against existing keys.
type Plan[K comparable] struct {
	// Delete holds keys that exist remotely but are not desired, in existing order.
	Delete []K
	// Update holds keys that are both desired and existing, in desired order.
	Update []K
	// Create holds keys that are desired but do not exist, in desired order.
	Create []K
}

// Partition splits desired and existing keys into delete (existing minus
// desired), update (their intersection) and create (desired minus existing).
// The three slices are disjoint, free of duplicates and together cover the
// union of both inputs.
func Partition[K comparable](desired, existing []K) Plan[K] {
	want := mapset.NewThreadUnsafeSet(desired...)
	have := mapset.NewThreadUnsafeSet(existing...)
	emitted := mapset.NewThreadUnsafeSet[K]()

	var plan Plan[K]
	for _, k := range existing {
		if !want.Contains(k) && emitted.Add(k) {
			plan.Delete = append(plan.Delete, k)
		}
	}

	for _, k := range desired {
		if !emitted.Add(k) {
			continue
		}

		if have.Contains(k) {
			plan.Update = append(plan.Update, k)
		} else {
			plan.Create = append(plan.Create, k)
		}
	}

	return plan
}
