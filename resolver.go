// SPDX-License-Identifier: GPL-3.0-or-later

package telemetry

import "sync/atomic"

// DestLabels is the label map service discovery has pushed for one
// destination address: the union of its addr-labels and set-labels,
// already merged by the caller into the map it wants attached (spec.md
// §4.2 treats the two sources as a single total replacement).
type DestLabels map[string]string

// snapshot returns a defensive copy, so callers that continue to mutate
// the map they passed to [Resolver.Update] cannot retroactively change an
// already-published label set.
func (d DestLabels) snapshot() DestLabels {
	out := make(DestLabels, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Resolver maintains the current destination label set for every address
// service discovery has pushed labels for.
//
// Updates are a total replacement, never a merge (spec.md §4.2): the label
// map installed by one [Resolver.Update] call entirely replaces whatever
// was there before for that address. Label-resolver state per address is a
// single atomic-pointer swap (spec.md §5), so a [Resolver.Lookup]
// concurrent with an [Resolver.Update] always observes one complete
// snapshot or the other, never a partial mix.
type Resolver struct {
	addrs atomic.Pointer[map[string]*atomic.Pointer[DestLabels]]
}

// NewResolver returns an empty [*Resolver].
func NewResolver() *Resolver {
	r := &Resolver{}
	empty := make(map[string]*atomic.Pointer[DestLabels])
	r.addrs.Store(&empty)
	return r
}

// Update replaces the label set service discovery has published for addr.
// An empty or nil labels map is a valid update: it clears the destination's
// labels (spec.md §4.2 "if both addr-labels and set-labels are empty, the
// label keys are elided entirely").
func (r *Resolver) Update(addr string, labels DestLabels) {
	snap := labels.snapshot()

	for {
		oldTable := r.addrs.Load()
		cur := *oldTable
		if slot, ok := cur[addr]; ok {
			slot.Store(&snap)
			return
		}

		// First update for this address: grow the address table. Builds a
		// new map to keep the table itself immutable between reads, same
		// discipline as the per-address pointer swap.
		next := make(map[string]*atomic.Pointer[DestLabels], len(cur)+1)
		for k, v := range cur {
			next[k] = v
		}
		slot := &atomic.Pointer[DestLabels]{}
		slot.Store(&snap)
		next[addr] = slot
		if r.addrs.CompareAndSwap(oldTable, &next) {
			return
		}
		// Lost the race with a concurrent first-update for a different
		// address; retry against the fresh table.
	}
}

// Lookup returns the label set currently published for addr, or nil if
// service discovery has never pushed labels for it.
func (r *Resolver) Lookup(addr string) DestLabels {
	cur := *r.addrs.Load()
	slot, ok := cur[addr]
	if !ok {
		return nil
	}
	p := slot.Load()
	if p == nil {
		return nil
	}
	return *p
}
