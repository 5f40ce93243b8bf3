package policy

import (
	"github.com/praetorian-inc/burrow/pkg/tracker"
	"github.com/praetorian-inc/burrow/pkg/types"
)

// MergeResults combines the results of several Handle calls into one
// inventory, the shape a run record wants when an invocation covers many
// top-level files. Entries are united by digest: paths accumulate, the
// first-seen entry's size and metadata win, and warnings concatenate in
// input order.
func MergeResults(results ...*Result) *Result {
	merged := &Result{}
	index := make(map[types.Digest]int)

	for _, r := range results {
		if r == nil {
			continue
		}
		for _, entry := range r.Files {
			i, seen := index[entry.Digest]
			if !seen {
				index[entry.Digest] = len(merged.Files)
				merged.Files = append(merged.Files, copyEntry(entry))
				continue
			}
			for _, p := range entry.Paths {
				if !containsString(merged.Files[i].Paths, p) {
					merged.Files[i].Paths = append(merged.Files[i].Paths, p)
				}
			}
		}
		merged.Warnings = append(merged.Warnings, r.Warnings...)
	}
	return merged
}

func copyEntry(e tracker.Entry) tracker.Entry {
	out := e
	out.Paths = append([]string(nil), e.Paths...)
	out.Metadata = make(map[string]any, len(e.Metadata))
	for k, v := range e.Metadata {
		out.Metadata[k] = v
	}
	return out
}

func containsString(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
