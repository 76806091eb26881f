package similarity

import (
	"log"
	"sort"

	"pathexplorer/domain/result"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a symmetric pairwise similarity matrix over the records being
// displayed together. Values live in [0,1]; the diagonal is always 1.
// Recomputed fresh per dashboard run, never persisted.
type Matrix struct {
	keys []result.RecordKey
	sym  *mat.SymDense
}

// Len returns the number of records covered.
func (m *Matrix) Len() int { return len(m.keys) }

// At returns the similarity between records i and j.
func (m *Matrix) At(i, j int) float64 { return m.sym.At(i, j) }

// Keys returns the record keys in matrix order.
func (m *Matrix) Keys() []result.RecordKey { return m.keys }

// Sym exposes the underlying symmetric matrix for projection.
func (m *Matrix) Sym() *mat.SymDense { return m.sym }

// Compute builds the hybrid similarity matrix from gene-set overlap:
//
//   - same-kind pairs (Pathway-Pathway, TF-TF, ...): Jaccard,
//     |A ∩ B| / |A ∪ B|
//   - TF cross-kind pairs (TF-Pathway, TF-PROGENy): overlap coefficient,
//     |A ∩ B| / min(|A|, |B|), since TF target sets are much smaller than
//     pathway gene sets and Jaccard would drown them
//   - remaining cross-kind pairs (pathway-like vs pathway-like): Jaccard
//
// ok is false when no record carries gene-set membership at all, in which
// case the caller should fall back to score-profile correlation.
func Compute(records []*result.ResultRecord) (m *Matrix, ok bool) {
	n := len(records)
	keys := make([]result.RecordKey, n)
	sizes := make([]int, n)
	withGenes := 0
	for i, r := range records {
		keys[i] = r.Key()
		sizes[i] = len(r.Genes)
		if sizes[i] > 0 {
			withGenes++
		}
	}
	if n == 0 || withGenes == 0 {
		return nil, false
	}

	// Inverted gene index keeps intersection counting proportional to the
	// number of shared genes rather than n^2 full set scans.
	postings := map[string][]int{}
	for i, r := range records {
		for g := range r.Genes {
			postings[g] = append(postings[g], i)
		}
	}
	log.Printf("[Similarity] %d records, %d unique genes", n, len(postings))

	inter := make([]map[int]int, n)
	for i := range inter {
		inter[i] = map[int]int{}
	}
	for _, members := range postings {
		for a := 1; a < len(members); a++ {
			for b := 0; b < a; b++ {
				i, j := members[a], members[b]
				inter[i][j]++
			}
		}
	}

	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		sym.SetSym(i, i, 1)
		for j, count := range inter[i] {
			sym.SetSym(i, j, pairSimilarity(records[i].Kind, records[j].Kind, count, sizes[i], sizes[j]))
		}
	}
	return &Matrix{keys: keys, sym: sym}, true
}

func pairSimilarity(kindA, kindB result.SourceKind, inter, sizeA, sizeB int) float64 {
	if kindA != kindB && (kindA == result.KindTF || kindB == result.KindTF) {
		minSize := sizeA
		if sizeB < minSize {
			minSize = sizeB
		}
		if minSize < 1 {
			minSize = 1
		}
		return float64(inter) / float64(minSize)
	}
	union := sizeA + sizeB - inter
	if union < 1 {
		union = 1
	}
	return float64(inter) / float64(union)
}

// ComputeFromProfiles builds similarity from score-profile correlation
// across contrasts, the fallback when gene-set membership is unavailable.
// Two records are compared over the contrasts where both their (id, kind)
// identities were scored; Pearson r is rescaled from [-1,1] to [0,1].
// ok is false when no pair shares enough contrasts to correlate.
func ComputeFromProfiles(records []*result.ResultRecord, universe []*result.ResultRecord) (m *Matrix, ok bool) {
	n := len(records)
	keys := make([]result.RecordKey, n)
	for i, r := range records {
		keys[i] = r.Key()
	}

	// Score per (id, kind) per contrast over the whole loaded universe.
	type identity struct {
		ID   string
		Kind result.SourceKind
	}
	profiles := map[identity]map[string]float64{}
	for _, r := range universe {
		id := identity{r.ID, r.Kind}
		if profiles[id] == nil {
			profiles[id] = map[string]float64{}
		}
		profiles[id][r.Contrast] = r.Score
	}

	sym := mat.NewSymDense(maxInt(n, 1), nil)
	correlated := false
	for i := 0; i < n; i++ {
		sym.SetSym(i, i, 1)
		pi := profiles[identity{records[i].ID, records[i].Kind}]
		for j := 0; j < i; j++ {
			pj := profiles[identity{records[j].ID, records[j].Kind}]
			if r, ok := profileCorrelation(pi, pj); ok {
				sym.SetSym(i, j, (r+1)/2)
				correlated = true
			}
		}
	}
	if !correlated && n > 1 {
		return nil, false
	}
	return &Matrix{keys: keys, sym: sym}, true
}

func profileCorrelation(a, b map[string]float64) (float64, bool) {
	shared := make([]string, 0, len(a))
	for c := range a {
		if _, ok := b[c]; ok {
			shared = append(shared, c)
		}
	}
	if len(shared) < 3 {
		return 0, false
	}
	sort.Strings(shared)
	x := make([]float64, len(shared))
	y := make([]float64, len(shared))
	for i, c := range shared {
		x[i] = a[c]
		y[i] = b[c]
	}
	r, err := stats.Pearson(x, y)
	if err != nil {
		return 0, false
	}
	return r, true
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
