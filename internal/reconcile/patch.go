package reconcile

import (
	"fmt"
	"sort"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
)

// patch replaces doc[start:end] with replacement. Offsets refer to the original
// document; end is exclusive. start == end is an insertion.
type patch struct {
	start       int
	end         int
	replacement []byte
}

// applyPatches applies non-overlapping patches from the end of the document toward
// the beginning so earlier offsets stay valid. The input is never modified.
func applyPatches(doc []byte, patches []patch) ([]byte, error) {
	out := append([]byte(nil), doc...)
	if len(patches) == 0 {
		return out, nil
	}

	sorted := make([]patch, len(patches))
	copy(sorted, patches)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].start == sorted[j].start {
			return sorted[i].end > sorted[j].end
		}
		return sorted[i].start > sorted[j].start
	})

	for i, p := range sorted {
		if p.start < 0 || p.end < p.start || p.end > len(doc) {
			return nil, errors.InternalError(fmt.Sprintf("invalid patch range [%d,%d)", p.start, p.end)).Build()
		}
		// Sorted by start descending: each patch must end at or before the previous start.
		if i > 0 && p.end > sorted[i-1].start {
			return nil, errors.InternalError("overlapping patches").
				WithContext("offset", p.start).
				Build()
		}
	}

	for _, p := range sorted {
		next := make([]byte, 0, len(out)-(p.end-p.start)+len(p.replacement))
		next = append(next, out[:p.start]...)
		next = append(next, p.replacement...)
		next = append(next, out[p.end:]...)
		out = next
	}
	return out, nil
}
