package syncer

import (
	"slices"
	"strings"

	"github.com/aretw0/murmur/pkg/core"
)

// Side names the store a record was read from.
type Side string

const (
	SideLocal  Side = "local"
	SideRemote Side = "remote"
)

// Skipped is a record left out of the merge because its id is unusable.
type Skipped struct {
	Side Side
	ID   string
	Err  error
}

// Plan is the result of merging a local and a remote snapshot of one kind.
type Plan[T core.Entity] struct {
	// Merged is the reconciled set, sorted by id.
	Merged []T
	// Push holds the local records that won and must be written to the remote.
	Push []T
	// Pulled counts remote records that are new or newer than the local copy.
	Pulled int
	// Skipped lists malformed records that took no part in the merge.
	Skipped []Skipped
}

// Merge reconciles two snapshots with last-writer-wins.
//
// The remote snapshot seeds the result. A local record replaces the remote
// copy when the remote has no record with its id, or when its effective time
// is strictly after the remote one. Merge is pure; it performs no I/O.
func Merge[T core.Entity](local, remote []T) Plan[T] {
	var plan Plan[T]

	merged := make(map[string]T, len(remote)+len(local))
	for _, r := range dedupe(remote, SideRemote, &plan.Skipped) {
		merged[r.GetMeta().ID] = r
	}

	seen := make(map[string]T, len(local))
	for _, l := range dedupe(local, SideLocal, &plan.Skipped) {
		id := l.GetMeta().ID
		seen[id] = l

		r, ok := merged[id]
		if ok && !core.EffectiveTime(l).After(core.EffectiveTime(r)) {
			continue
		}
		merged[id] = l
		plan.Push = append(plan.Push, l)
	}

	for id, r := range merged {
		l, ok := seen[id]
		if !ok || core.EffectiveTime(r).After(core.EffectiveTime(l)) {
			plan.Pulled++
		}
	}

	plan.Merged = make([]T, 0, len(merged))
	for _, r := range merged {
		plan.Merged = append(plan.Merged, r)
	}
	sortByID(plan.Merged)
	sortByID(plan.Push)

	return plan
}

// dedupe drops records with unusable ids and collapses duplicate ids to the
// newest copy. Equal times keep the first occurrence.
func dedupe[T core.Entity](records []T, side Side, skipped *[]Skipped) []T {
	out := make([]T, 0, len(records))
	index := make(map[string]int, len(records))

	for _, r := range records {
		id := r.GetMeta().ID
		if err := core.ValidateID(id); err != nil {
			*skipped = append(*skipped, Skipped{Side: side, ID: id, Err: err})
			continue
		}
		if i, ok := index[id]; ok {
			if core.EffectiveTime(r).After(core.EffectiveTime(out[i])) {
				out[i] = r
			}
			continue
		}
		index[id] = len(out)
		out = append(out, r)
	}
	return out
}

func sortByID[T core.Entity](records []T) {
	slices.SortFunc(records, func(a, b T) int {
		return strings.Compare(a.GetMeta().ID, b.GetMeta().ID)
	})
}
