package similarity

import (
	"sort"

	"pathexplorer/domain/result"
)

// Neighbor is one of a record's most similar peers, exported into the
// dashboard for edge overlays and "similar pathways" navigation.
type Neighbor struct {
	Key        result.RecordKey
	Similarity float64
}

// DefaultNeighborCount and DefaultMinEdgeSimilarity are the documented
// defaults for neighbor extraction.
const (
	DefaultNeighborCount     = 5
	DefaultMinEdgeSimilarity = 0.15
)

// TopNeighbors extracts each record's k most similar peers above minSim,
// excluding self. Records with no neighbor above the threshold are absent
// from the returned map.
func TopNeighbors(m *Matrix, k int, minSim float64) map[result.RecordKey][]Neighbor {
	neighbors := map[result.RecordKey][]Neighbor{}
	if m == nil {
		return neighbors
	}
	n := m.Len()
	keys := m.Keys()

	for i := 0; i < n; i++ {
		candidates := make([]Neighbor, 0, n-1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			if sim := m.At(i, j); sim >= minSim {
				candidates = append(candidates, Neighbor{Key: keys[j], Similarity: sim})
			}
		}
		if len(candidates) == 0 {
			continue
		}
		sort.Slice(candidates, func(a, b int) bool {
			if candidates[a].Similarity != candidates[b].Similarity {
				return candidates[a].Similarity > candidates[b].Similarity
			}
			// Stable ordering for equal similarities keeps output deterministic.
			return candidates[a].Key.String() < candidates[b].Key.String()
		})
		if len(candidates) > k {
			candidates = candidates[:k]
		}
		neighbors[keys[i]] = candidates
	}
	return neighbors
}
