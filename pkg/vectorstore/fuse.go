package vectorstore

import "sort"

// rrfK dampens the contribution of lower ranks in reciprocal rank fusion.
const rrfK = 60

// Fuse merges several best-first rankings with reciprocal rank fusion and
// returns at most limit matches. Records are identified by ID; ties keep the
// order in which records were first seen.
func Fuse(limit int, rankings ...[]Match) []Match {
	type entry struct {
		match Match
		score float64
		first int
	}

	byID := make(map[string]*entry)
	seen := 0
	for _, ranking := range rankings {
		for rank, m := range ranking {
			e, ok := byID[m.ID]
			if !ok {
				e = &entry{match: m, first: seen}
				byID[m.ID] = e
				seen++
			}
			e.score += 1.0 / float64(rrfK+rank+1)
		}
	}

	entries := make([]*entry, 0, len(byID))
	for _, e := range byID {
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].first < entries[j].first
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]Match, len(entries))
	for i, e := range entries {
		out[i] = e.match
		out[i].Score = e.score
	}
	return out
}
