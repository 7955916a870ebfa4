// ABOUTME: In-memory dedup index for one migration run
// ABOUTME: Remembers accepted keys so later copies of a record are counted as duplicates
package importer

// DedupIndex is the set of keys accepted so far in a run. The first record
// to claim a key wins, so callers feed sources in priority order.
type DedupIndex struct {
	seen map[string]struct{}
}

// NewDedupIndex creates an index seeded with keys already in the store.
func NewDedupIndex(existing ...string) *DedupIndex {
	d := &DedupIndex{seen: make(map[string]struct{}, len(existing))}
	for _, k := range existing {
		if k != "" {
			d.seen[k] = struct{}{}
		}
	}
	return d
}

// Claim records key and reports whether it was new. Empty keys are never
// deduplicated.
func (d *DedupIndex) Claim(key string) bool {
	if key == "" {
		return true
	}
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// Seen reports whether key was already claimed.
func (d *DedupIndex) Seen(key string) bool {
	_, ok := d.seen[key]
	return ok
}

// Len is the number of distinct keys.
func (d *DedupIndex) Len() int {
	return len(d.seen)
}
