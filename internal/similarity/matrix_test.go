package similarity

import (
	"testing"

	"pathexplorer/domain/result"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func genes(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func rec(id string, kind result.SourceKind, members ...string) *result.ResultRecord {
	return &result.ResultRecord{ID: id, Kind: kind, Contrast: "c1", Genes: genes(members...)}
}

func indexOf(m *Matrix, id string) int {
	for i, k := range m.Keys() {
		if k.ID == id {
			return i
		}
	}
	return -1
}

func TestCompute_IdenticalSetsAreMaximallySimilar(t *testing.T) {
	records := []*result.ResultRecord{
		rec("a", result.KindPathway, "G1", "G2", "G3"),
		rec("b", result.KindPathway, "G1", "G2", "G3"),
		rec("c", result.KindPathway, "G9"),
	}
	m, ok := Compute(records)
	require.True(t, ok)
	require.Equal(t, 3, m.Len())

	a, b, c := indexOf(m, "a"), indexOf(m, "b"), indexOf(m, "c")
	assert.Equal(t, 1.0, m.At(a, b))
	assert.Equal(t, 0.0, m.At(a, c))
	assert.Equal(t, 1.0, m.At(a, a), "diagonal is always 1")
}

func TestCompute_Jaccard(t *testing.T) {
	records := []*result.ResultRecord{
		rec("a", result.KindPathway, "G1", "G2", "G3", "G4"),
		rec("b", result.KindPathway, "G3", "G4", "G5", "G6"),
	}
	m, ok := Compute(records)
	require.True(t, ok)

	// 2 shared of 6 total
	assert.InDelta(t, 2.0/6.0, m.At(0, 1), 1e-9)
	assert.Equal(t, m.At(0, 1), m.At(1, 0), "matrix is symmetric")
}

func TestCompute_TFCrossKindUsesOverlapCoefficient(t *testing.T) {
	// A TF with 3 targets, all inside a 30-gene pathway. Jaccard would be
	// 0.1; the overlap coefficient sees full containment.
	pathwayGenes := make([]string, 30)
	for i := range pathwayGenes {
		pathwayGenes[i] = string(rune('A' + i%26)) + string(rune('a'+i/26))
	}
	tf := rec("tf", result.KindTF, pathwayGenes[0], pathwayGenes[1], pathwayGenes[2])
	pw := rec("pw", result.KindPathway, pathwayGenes...)

	m, ok := Compute([]*result.ResultRecord{tf, pw})
	require.True(t, ok)
	assert.InDelta(t, 1.0, m.At(0, 1), 1e-9)
}

func TestCompute_SameKindTFPairsUseJaccard(t *testing.T) {
	a := rec("tf1", result.KindTF, "G1", "G2")
	b := rec("tf2", result.KindTF, "G2", "G3")
	m, ok := Compute([]*result.ResultRecord{a, b})
	require.True(t, ok)
	assert.InDelta(t, 1.0/3.0, m.At(0, 1), 1e-9)
}

func TestCompute_NoGenesAnywhere(t *testing.T) {
	records := []*result.ResultRecord{
		rec("a", result.KindTE),
		rec("b", result.KindTE),
	}
	m, ok := Compute(records)
	assert.False(t, ok)
	assert.Nil(t, m)
}

func TestComputeFromProfiles(t *testing.T) {
	// Two identities scored across four contrasts: x moves with y,
	// z moves against both.
	mk := func(id, contrast string, score float64) *result.ResultRecord {
		return &result.ResultRecord{ID: id, Kind: result.KindTE, Contrast: contrast, Score: score}
	}
	universe := []*result.ResultRecord{
		mk("x", "c1", 1), mk("x", "c2", 2), mk("x", "c3", 3), mk("x", "c4", 4),
		mk("y", "c1", 2), mk("y", "c2", 4), mk("y", "c3", 6), mk("y", "c4", 8),
		mk("z", "c1", 4), mk("z", "c2", 3), mk("z", "c3", 2), mk("z", "c4", 1),
	}
	records := []*result.ResultRecord{universe[0], universe[4], universe[8]}

	m, ok := ComputeFromProfiles(records, universe)
	require.True(t, ok)
	require.Equal(t, 3, m.Len())

	x, y, z := indexOf(m, "x"), indexOf(m, "y"), indexOf(m, "z")
	assert.InDelta(t, 1.0, m.At(x, y), 1e-9, "perfect positive correlation maps to 1")
	assert.InDelta(t, 0.0, m.At(x, z), 1e-9, "perfect negative correlation maps to 0")
}

func TestComputeFromProfiles_TooFewSharedContrasts(t *testing.T) {
	mk := func(id, contrast string, score float64) *result.ResultRecord {
		return &result.ResultRecord{ID: id, Kind: result.KindTE, Contrast: contrast, Score: score}
	}
	records := []*result.ResultRecord{mk("x", "c1", 1), mk("y", "c1", 2)}

	m, ok := ComputeFromProfiles(records, records)
	assert.False(t, ok, "fewer than 3 shared contrasts cannot correlate")
	assert.Nil(t, m)
}
