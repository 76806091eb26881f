package embedding

import (
	"log"
	"math"
	"math/rand"
	"sort"

	"pathexplorer/domain/result"
	"pathexplorer/internal/similarity"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Method selects the 2-D projection algorithm.
type Method string

const (
	// MethodPCA projects the similarity matrix onto its first two
	// principal components. Fully deterministic, no seed involved.
	MethodPCA Method = "pca"

	// MethodForce starts from the PCA layout and refines it with a
	// seeded force-directed pass that pulls high-similarity pairs
	// together. Deterministic for a fixed seed.
	MethodForce Method = "force"

	// MethodScore places records on a single axis ordered by score,
	// the degraded layout used when similarity cannot be computed.
	MethodScore Method = "score"
)

// ParseMethod validates a method name, defaulting empty to MethodForce.
func ParseMethod(s string) (Method, bool) {
	switch Method(s) {
	case "":
		return MethodForce, true
	case MethodPCA, MethodForce, MethodScore:
		return Method(s), true
	}
	return "", false
}

// Config carries the projection parameters. All fields have documented
// defaults; construct with DefaultConfig and override as needed.
type Config struct {
	Method Method
	// Seed drives every stochastic step so repeated runs on identical
	// input produce identical coordinates.
	Seed int64
	// Iterations of force refinement (MethodForce only).
	Iterations int
	// LearningRate scales per-iteration displacement (MethodForce only).
	LearningRate float64
}

// DefaultConfig returns the documented defaults: force layout, seed 42,
// 150 refinement iterations.
func DefaultConfig() Config {
	return Config{
		Method:       MethodForce,
		Seed:         42,
		Iterations:   150,
		LearningRate: 0.05,
	}
}

// Project derives a 2-D embedding for the given records. m may be nil when
// similarity could not be computed; the projection then degrades to the
// score-ordered axis rather than failing, since tabular inspection must
// survive even when clustering is impossible.
//
// Edge cases: zero records produce an empty embedding; a single record is
// placed at the origin with no projection.
func Project(records []*result.ResultRecord, m *similarity.Matrix, cfg Config) result.Embedding {
	emb := result.Embedding{}
	switch len(records) {
	case 0:
		return emb
	case 1:
		emb[records[0].Key()] = result.Coord{X: 0, Y: 0}
		return emb
	}

	if m == nil || cfg.Method == MethodScore {
		return scoreAxis(records)
	}

	var coords [][2]float64
	switch cfg.Method {
	case MethodPCA:
		var ok bool
		coords, ok = pcaLayout(m)
		if !ok {
			log.Printf("[Embedding] PCA degenerate, falling back to score axis")
			return scoreAxis(records)
		}
	default: // MethodForce
		initial, ok := pcaLayout(m)
		if !ok {
			initial = randomLayout(m.Len(), cfg.Seed)
		}
		coords = forceRefine(initial, m, cfg)
	}

	normalize(coords)
	keys := m.Keys()
	for i, key := range keys {
		emb[key] = result.Coord{X: coords[i][0], Y: coords[i][1]}
	}
	return emb
}

// scoreAxis orders records by score along x with y fixed at the midline.
func scoreAxis(records []*result.ResultRecord) result.Embedding {
	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := records[order[a]], records[order[b]]
		if ra.Score != rb.Score {
			return ra.Score < rb.Score
		}
		return ra.Key().String() < rb.Key().String()
	})

	emb := result.Embedding{}
	span := float64(len(records) - 1)
	for rank, idx := range order {
		emb[records[idx].Key()] = result.Coord{X: float64(rank) / span, Y: 0.5}
	}
	return emb
}

// pcaLayout projects the similarity matrix rows onto their first two
// principal components. ok is false when the decomposition fails or the
// matrix carries no variance at all.
func pcaLayout(m *similarity.Matrix) ([][2]float64, bool) {
	n := m.Len()
	dense := mat.DenseCopyOf(m.Sym())

	var pc stat.PC
	if ok := pc.PrincipalComponents(dense, nil); !ok {
		return nil, false
	}

	k := 2
	if n < 2 {
		k = n
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	var proj mat.Dense
	proj.Mul(dense, vecs.Slice(0, n, 0, k))

	coords := make([][2]float64, n)
	variance := 0.0
	for i := 0; i < n; i++ {
		coords[i][0] = proj.At(i, 0)
		if k > 1 {
			coords[i][1] = proj.At(i, 1)
		}
		variance += coords[i][0]*coords[i][0] + coords[i][1]*coords[i][1]
	}
	return coords, !math.IsNaN(variance)
}

// randomLayout scatters points deterministically from the seed, the
// last-resort initialization when PCA cannot run.
func randomLayout(n int, seed int64) [][2]float64 {
	rng := rand.New(rand.NewSource(seed))
	coords := make([][2]float64, n)
	for i := range coords {
		coords[i][0] = rng.NormFloat64()
		coords[i][1] = rng.NormFloat64()
	}
	return coords
}

// forceRefine iteratively moves each pair toward its target distance
// (1 - similarity). Pairs are visited in a seeded shuffled order each
// iteration, so the result is deterministic for a fixed seed.
func forceRefine(coords [][2]float64, m *similarity.Matrix, cfg Config) [][2]float64 {
	n := len(coords)
	rng := rand.New(rand.NewSource(cfg.Seed))

	// Rescale the PCA init to unit-ish spread so the learning rate has
	// a consistent meaning regardless of input scale.
	normalize(coords)

	type pair struct{ i, j int }
	pairs := make([]pair, 0, n*(n-1)/2)
	for i := 1; i < n; i++ {
		for j := 0; j < i; j++ {
			pairs = append(pairs, pair{i, j})
		}
	}

	iters := cfg.Iterations
	if iters <= 0 {
		iters = DefaultConfig().Iterations
	}
	rate := cfg.LearningRate
	if rate <= 0 {
		rate = DefaultConfig().LearningRate
	}

	for it := 0; it < iters; it++ {
		rng.Shuffle(len(pairs), func(a, b int) { pairs[a], pairs[b] = pairs[b], pairs[a] })
		// Cool the step size as the layout settles.
		step := rate * (1 - float64(it)/float64(iters))
		for _, p := range pairs {
			target := 1 - m.At(p.i, p.j)
			dx := coords[p.i][0] - coords[p.j][0]
			dy := coords[p.i][1] - coords[p.j][1]
			dist := math.Hypot(dx, dy)
			if dist < 1e-9 {
				// Coincident points with distinct targets get a tiny
				// deterministic separation.
				if target > 0 {
					coords[p.i][0] += 1e-6 * float64(p.i-p.j)
				}
				continue
			}
			delta := step * (dist - target) / dist
			coords[p.i][0] -= delta * dx
			coords[p.i][1] -= delta * dy
			coords[p.j][0] += delta * dx
			coords[p.j][1] += delta * dy
		}
	}
	return coords
}

// normalize rescales coordinates in place to the [0,1] square.
func normalize(coords [][2]float64) {
	if len(coords) == 0 {
		return
	}
	minX, maxX := coords[0][0], coords[0][0]
	minY, maxY := coords[0][1], coords[0][1]
	for _, c := range coords {
		minX = math.Min(minX, c[0])
		maxX = math.Max(maxX, c[0])
		minY = math.Min(minY, c[1])
		maxY = math.Max(maxY, c[1])
	}
	rangeX := maxX - minX + 1e-10
	rangeY := maxY - minY + 1e-10
	for i := range coords {
		coords[i][0] = (coords[i][0] - minX) / rangeX
		coords[i][1] = (coords[i][1] - minY) / rangeY
	}
}
